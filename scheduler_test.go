package pktspray

import (
	"errors"
	"testing"
	"time"
)

// countSender records every send; failAt > 0 makes the n-th send fail.
type countSender struct {
	n      int
	failAt int
	times  []time.Time
}

func (s *countSender) Send(pkt []byte, flags int) error {
	s.n++
	s.times = append(s.times, time.Now())
	if s.failAt > 0 && s.n >= s.failAt {
		return errors.New("device gone")
	}
	return nil
}

var testPkt = []byte{0xde, 0xad, 0xbe, 0xef}

func TestRunEmptyList(t *testing.T) {
	if err := NewScheduler().Run(nil); err != nil {
		t.Fatalf("Run(nil) = %v, want nil", err)
	}
	if err := NewScheduler().Run([]*Command{}); err != nil {
		t.Fatalf("Run(empty) = %v, want nil", err)
	}
}

func TestRunOneShotDelay(t *testing.T) {
	for _, repeat := range []int{0, 1} {
		snd := &countSender{}
		start := time.Now()
		err := NewScheduler().Run([]*Command{
			{Sender: snd, Packet: testPkt, Timeout: 50 * time.Millisecond, Repeat: repeat},
		})
		if err != nil {
			t.Fatalf("repeat=%d: Run = %v", repeat, err)
		}
		if snd.n != 1 {
			t.Errorf("repeat=%d: %d sends, want 1", repeat, snd.n)
		}
		if elapsed := time.Since(start); elapsed < 45*time.Millisecond {
			t.Errorf("repeat=%d: sent after %v, want >= 50ms", repeat, elapsed)
		}
	}
}

func TestRunOneShotNegativeTimeout(t *testing.T) {
	snd := &countSender{}
	start := time.Now()
	err := NewScheduler().Run([]*Command{
		{Sender: snd, Packet: testPkt, Timeout: -5 * time.Second, Repeat: 0},
	})
	if err != nil {
		t.Fatalf("Run = %v", err)
	}
	if snd.n != 1 {
		t.Errorf("%d sends, want 1", snd.n)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("negative timeout took %v, want immediate", elapsed)
	}
}

func TestRunRepeatCount(t *testing.T) {
	snd := &countSender{}
	start := time.Now()
	err := NewScheduler().Run([]*Command{
		{Sender: snd, Packet: testPkt, Timeout: 30 * time.Millisecond, Repeat: 3},
	})
	if err != nil {
		t.Fatalf("Run = %v", err)
	}
	if snd.n != 3 {
		t.Fatalf("%d sends, want exactly 3", snd.n)
	}
	// First firing is immediate, the rest are spaced by the interval.
	if d := snd.times[0].Sub(start); d > 20*time.Millisecond {
		t.Errorf("first send after %v, want immediate", d)
	}
	for i := 1; i < len(snd.times); i++ {
		if d := snd.times[i].Sub(snd.times[i-1]); d < 25*time.Millisecond {
			t.Errorf("send #%d only %v after #%d, want ~30ms", i+1, d, i)
		}
	}
}

func TestRunRepeatZeroInterval(t *testing.T) {
	// timeout <= 0 with repeats falls back to the minimal interval
	snd := &countSender{}
	start := time.Now()
	err := NewScheduler().Run([]*Command{
		{Sender: snd, Packet: testPkt, Timeout: 0, Repeat: 5},
	})
	if err != nil {
		t.Fatalf("Run = %v", err)
	}
	if snd.n != 5 {
		t.Errorf("%d sends, want 5", snd.n)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("5 minimal-interval sends took %v", elapsed)
	}
}

func TestRunInfiniteUntilSendFailure(t *testing.T) {
	snd := &countSender{failAt: 4}
	s := NewScheduler()
	err := s.Run([]*Command{
		{Sender: snd, Packet: testPkt, Timeout: 3 * time.Millisecond, Repeat: -1},
	})
	if !errors.Is(err, ErrSend) {
		t.Fatalf("Run = %v, want ErrSend", err)
	}
	if snd.n != 4 {
		t.Errorf("%d sends, want 4 (failure on the 4th)", snd.n)
	}
	if !s.reg.empty() {
		t.Error("registry not empty after fatal run")
	}
}

func TestRunSendFailureIsFatalToAll(t *testing.T) {
	bad := &countSender{failAt: 1}
	good := &countSender{}
	s := NewScheduler()
	err := s.Run([]*Command{
		{Sender: bad, Packet: testPkt, Timeout: 0, Repeat: 0},
		{Sender: good, Packet: testPkt, Timeout: time.Hour, Repeat: 1},
	})
	if !errors.Is(err, ErrSend) {
		t.Fatalf("Run = %v, want ErrSend", err)
	}
	if good.n != 0 {
		t.Errorf("pending command sent %d times after fatal error", good.n)
	}
	if !s.reg.empty() {
		t.Error("registry not empty after fatal run")
	}
}

func TestRunAdmissionFailure(t *testing.T) {
	s := NewScheduler()
	calls := 0
	s.newTimer = func() (timerFd, error) {
		calls++
		if calls == 2 {
			return timerFd{v: -1}, errors.New("forced create failure")
		}
		return newTimerFd()
	}
	snd := &countSender{}
	cmds := []*Command{
		{Sender: snd, Packet: testPkt, Timeout: time.Hour, Repeat: 1},
		{Sender: snd, Packet: testPkt, Timeout: time.Hour, Repeat: 1},
		{Sender: snd, Packet: testPkt, Timeout: time.Hour, Repeat: 1},
	}
	err := s.Run(cmds)
	if !errors.Is(err, ErrAdmission) {
		t.Fatalf("Run = %v, want ErrAdmission", err)
	}
	if snd.n != 0 {
		t.Errorf("%d sends before admission finished, want 0", snd.n)
	}
	if !s.reg.empty() {
		t.Error("registry not empty after admission failure")
	}
	if calls != 2 {
		t.Errorf("admission continued after failure, %d creates", calls)
	}
}

func TestRunRejectsInvalidCommand(t *testing.T) {
	err := NewScheduler().Run([]*Command{
		{Sender: nil, Packet: testPkt, Repeat: 1},
	})
	if !errors.Is(err, ErrAdmission) {
		t.Fatalf("Run = %v, want ErrAdmission", err)
	}
	err = NewScheduler().Run([]*Command{
		{Sender: &countSender{}, Packet: nil, Repeat: 1},
	})
	if !errors.Is(err, ErrAdmission) {
		t.Fatalf("Run = %v, want ErrAdmission", err)
	}
}

func TestRunMixedSchedules(t *testing.T) {
	// One delayed one-shot, one finite repeat, one infinite repeat. The
	// infinite command is stopped by an injected send failure well after
	// the finite ones have retired.
	oneShot := &countSender{}
	finite := &countSender{}
	infinite := &countSender{failAt: 12}
	s := NewScheduler(EvDataArrSize(64))
	err := s.Run([]*Command{
		{Sender: oneShot, Packet: testPkt, Timeout: 40 * time.Millisecond, Repeat: 0},
		{Sender: finite, Packet: testPkt, Timeout: 15 * time.Millisecond, Repeat: 3},
		{Sender: infinite, Packet: testPkt, Timeout: 10 * time.Millisecond, Repeat: -1},
	})
	if !errors.Is(err, ErrSend) {
		t.Fatalf("Run = %v, want ErrSend from the injected failure", err)
	}
	if oneShot.n != 1 {
		t.Errorf("one-shot sent %d times, want 1", oneShot.n)
	}
	if finite.n != 3 {
		t.Errorf("finite command sent %d times, want 3", finite.n)
	}
	if infinite.n != 12 {
		t.Errorf("infinite command sent %d times, want 12", infinite.n)
	}
	if !s.reg.empty() {
		t.Error("registry not empty after run")
	}
}

func TestSchedulerReuse(t *testing.T) {
	s := NewScheduler()
	for i := 0; i < 2; i++ {
		snd := &countSender{}
		err := s.Run([]*Command{
			{Sender: snd, Packet: testPkt, Timeout: 0, Repeat: 2},
		})
		if err != nil {
			t.Fatalf("run #%d: %v", i, err)
		}
		if snd.n != 2 {
			t.Errorf("run #%d: %d sends, want 2", i, snd.n)
		}
	}
}

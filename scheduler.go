package pktspray

import (
	"errors"
	"fmt"
	"syscall"
)

// Detecting illegal struct copies using `go vet`
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// Scheduler multiplexes one timer per command over a single epoll instance
// and transmits each packet through its command's sender when the timer
// fires. One goroutine, no locks: admission, dispatch and teardown all run
// on the caller of Run.
//
// A run is a bounded batch. There is no mid-run cancellation; the loop stops
// when every finite schedule is exhausted or on the first fatal error, and
// either way it releases every fd it created before returning.
type Scheduler struct {
	noCopy

	reg  *registry
	opts *Options

	newTimer func() (timerFd, error)
}

// NewScheduler return an instance.
func NewScheduler(opts ...Option) *Scheduler {
	evOptions := setOptions(opts...)
	return &Scheduler{
		reg:      newRegistry(evOptions.evDataArrSize),
		opts:     evOptions,
		newTimer: newTimerFd,
	}
}

// Run admits every command in order, then blocks until all finite schedules
// are exhausted. An empty command list returns nil immediately.
//
// On error the run is over: any admission failure aborts before the first
// send, and any failure inside the loop stops further dispatch. The returned
// error wraps exactly one of ErrAdmission, ErrWait, ErrSend, ErrDrain,
// ErrResolution. All timer fds and the epoll fd are released on every path.
func (s *Scheduler) Run(cmds []*Command) error {
	efd, err := syscall.EpollCreate1(syscall.EPOLL_CLOEXEC)
	if err != nil {
		return fmt.Errorf("%w: epoll_create1: %s", ErrAdmission, err.Error())
	}
	defer syscall.Close(efd)
	defer s.reg.teardownAll()

	for i, cmd := range cmds {
		if err = s.admit(efd, cmd); err != nil {
			Error("admit command #%d: %s", i, err.Error())
			return fmt.Errorf("%w: command #%d: %s", ErrAdmission, i, err.Error())
		}
	}
	Debug("admitted %d commands", s.reg.size())

	events := make([]syscall.EpollEvent, s.opts.evReadyNum)
	for !s.reg.empty() {
		nfds, err := syscall.EpollWait(efd, events, -1)
		if err != nil {
			if err == syscall.EINTR {
				continue
			}
			Error("epoll_wait: %s", err.Error())
			return fmt.Errorf("%w: epoll_wait: %s", ErrWait, err.Error())
		}
		// Ready entries are handled in delivery order, never reordered.
		for i := 0; i < nfds; i++ {
			if err = s.dispatch(efd, int(events[i].Fd)); err != nil {
				Error("dispatch: %s", err.Error())
				return err
			}
		}
	}
	return nil
}

// admit creates, registers and arms one timer. Order matters: the event
// enters the registry before the timer is armed so a failed registration can
// never leave an armed, unregistered timer. Every failure path removes the
// entry first and closes the fd second.
func (s *Scheduler) admit(efd int, cmd *Command) error {
	if err := cmd.valid(); err != nil {
		return err
	}
	se := &schedEvent{cmd: cmd}
	t, err := s.newTimer()
	if err != nil {
		return err
	}
	se.timer = t
	if err = s.reg.add(se); err != nil {
		se.timer.close()
		return err
	}
	delay, interval, counter := armTimes(cmd.Timeout, cmd.Repeat, s.opts.minInterval)
	se.counter = counter
	if err = se.timer.arm(delay, interval); err != nil {
		s.reg.remove(se)
		se.timer.close()
		return err
	}
	ev := syscall.EpollEvent{Events: syscall.EPOLLIN, Fd: int32(se.timer.v)}
	if err = syscall.EpollCtl(efd, syscall.EPOLL_CTL_ADD, se.timer.v, &ev); err != nil {
		s.reg.remove(se)
		se.timer.close()
		return errors.New("epoll_ctl add: " + err.Error())
	}
	return nil
}

// dispatch handles one fired timer: send, counter bookkeeping, drain, and
// retirement once a finite schedule is exhausted.
func (s *Scheduler) dispatch(efd, fd int) error {
	se := s.reg.lookup(fd)
	if se == nil {
		return fmt.Errorf("%w: fd %d has no live event", ErrResolution, fd)
	}
	if err := se.cmd.Sender.Send(se.cmd.Packet, 0); err != nil {
		return fmt.Errorf("%w: %s", ErrSend, err.Error())
	}
	retired := false
	if se.counter > 0 {
		se.counter--
	} else if se.counter == 0 {
		// Final firing. Remove before close, and deregister from epoll
		// before the fd can be reused.
		s.reg.remove(se)
		if err := syscall.EpollCtl(efd, syscall.EPOLL_CTL_DEL, se.timer.v, nil); err != nil {
			se.timer.close()
			return fmt.Errorf("%w: epoll_ctl del: %s", ErrWait, err.Error())
		}
		retired = true
	}
	// Always acknowledge the expiration counter, or the fd stays ready and
	// spins the loop.
	if _, err := se.timer.drain(); err != nil {
		if retired {
			se.timer.close()
		}
		return fmt.Errorf("%w: %s", ErrDrain, err.Error())
	}
	if retired {
		se.timer.close()
		Debug("retired timer fd=%d, %d events left", fd, s.reg.size())
	}
	return nil
}

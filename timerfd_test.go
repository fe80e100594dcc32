package pktspray

import (
	"testing"
	"time"
)

func TestArmTimes(t *testing.T) {
	cases := []struct {
		name     string
		timeout  time.Duration
		repeat   int
		delay    time.Duration
		interval time.Duration
		counter  int
	}{
		{"once-no-repeat", 2 * time.Second, 0, 2 * time.Second, 0, 0},
		{"once-zero-timeout", 0, 0, immediateDelay, 0, 0},
		{"once-negative-timeout", -3 * time.Second, 0, immediateDelay, 0, 0},
		{"repeat-one", 2 * time.Second, 1, 2 * time.Second, 0, 0},
		{"repeat-one-no-delay", 0, 1, immediateDelay, 0, 0},
		{"repeat-n", time.Second, 3, immediateDelay, time.Second, 2},
		{"repeat-n-zero-timeout", 0, 5, immediateDelay, DefaultMinInterval, 4},
		{"repeat-n-negative-timeout", -time.Second, 2, immediateDelay, DefaultMinInterval, 1},
		{"infinite", 5 * time.Second, -1, immediateDelay, 5 * time.Second, -1},
		{"infinite-zero-timeout", 0, -1, immediateDelay, DefaultMinInterval, -1},
	}
	for _, c := range cases {
		delay, interval, counter := armTimes(c.timeout, c.repeat, DefaultMinInterval)
		if delay != c.delay || interval != c.interval || counter != c.counter {
			t.Errorf("%s: got (%v, %v, %d), want (%v, %v, %d)",
				c.name, delay, interval, counter, c.delay, c.interval, c.counter)
		}
	}
}

func TestTimerFdLifecycle(t *testing.T) {
	tf, err := newTimerFd()
	if err != nil {
		t.Fatalf("newTimerFd: %v", err)
	}
	if err = tf.arm(5*time.Millisecond, 0); err != nil {
		tf.close()
		t.Fatalf("arm: %v", err)
	}
	// The fd is blocking; the read returns once the timer expires.
	n, err := tf.drain()
	if err != nil {
		tf.close()
		t.Fatalf("drain: %v", err)
	}
	if n < 1 {
		t.Errorf("drain: expiration count = %d, want >= 1", n)
	}
	tf.close()
	if tf.v != -1 {
		t.Errorf("close: fd = %d, want -1", tf.v)
	}
	tf.close() // second close is a no-op
}

func TestTimerFdPeriodic(t *testing.T) {
	tf, err := newTimerFd()
	if err != nil {
		t.Fatalf("newTimerFd: %v", err)
	}
	defer tf.close()
	if err = tf.arm(immediateDelay, 3*time.Millisecond); err != nil {
		t.Fatalf("arm: %v", err)
	}
	start := time.Now()
	if _, err = tf.drain(); err != nil { // first firing, immediate
		t.Fatalf("drain: %v", err)
	}
	if _, err = tf.drain(); err != nil { // one interval later
		t.Fatalf("drain: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 2*time.Millisecond {
		t.Errorf("second firing after %v, want >= interval", elapsed)
	}
}

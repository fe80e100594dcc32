package pktspray

import (
	"errors"
	"syscall"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

// immediateDelay is the smallest initial expiration ever armed. A timerfd
// with an all-zero it_value is disarmed, so "fire now" is expressed as the
// smallest positive duration and left to the kernel's timer resolution.
const immediateDelay = time.Nanosecond

// DefaultMinInterval is the periodic fallback for repeating commands that
// ask for an interval <= 0. The right minimum depends on the platform's
// timer resolution; override with the MinInterval option.
const DefaultMinInterval = 10 * time.Microsecond

// timerFd is one kernel countdown resource, relative mode (CLOCK_MONOTONIC).
// Exactly one exists per admitted command and it is closed exactly once,
// after removal from both epoll and the registry.
type timerFd struct {
	v int
}

func newTimerFd() (timerFd, error) {
	fd, err := unix.TimerfdCreate(unix.CLOCK_MONOTONIC, unix.TFD_CLOEXEC)
	if err != nil {
		return timerFd{v: -1}, errors.New("timerfd_create: " + err.Error())
	}
	return timerFd{v: fd}, nil
}

func (t *timerFd) arm(delay, interval time.Duration) error {
	ts := unix.ItimerSpec{
		Value:    unix.NsecToTimespec(delay.Nanoseconds()),
		Interval: unix.NsecToTimespec(interval.Nanoseconds()),
	}
	if err := unix.TimerfdSettime(t.v, 0 /*Relative time*/, &ts, nil); err != nil {
		return errors.New("timerfd_settime: " + err.Error())
	}
	return nil
}

// drain reads back the expiration counter so the fd stops polling ready.
// Called only after epoll reported readiness, so the read does not block.
func (t *timerFd) drain() (uint64, error) {
	var v uint64
	buf := (*(*[8]byte)(unsafe.Pointer(&v)))[:]
	for {
		n, err := syscall.Read(t.v, buf)
		if err != nil {
			if err == syscall.EINTR {
				continue
			}
			return 0, errors.New("read timerfd: " + err.Error())
		}
		if n != 8 {
			return 0, errors.New("read timerfd: short read")
		}
		return v, nil
	}
}

func (t *timerFd) close() {
	if t.v != -1 {
		syscall.Close(t.v)
		t.v = -1
	}
}

// armTimes maps a command's (timeout, repeat) onto timerfd parameters and
// the scheduler-owned repeat counter.
//
//	repeat == 0    fire once after max(timeout, 0); counter stays 0 so the
//	               first firing retires the event (0 is assumed to mean 1)
//	repeat == 1    same delay; counter pre-decremented to 0
//	repeat > 1     first firing immediately, then every timeout (or
//	  or < 0       minInterval when timeout <= 0); a positive counter is
//	               pre-decremented once for that first firing, so N total
//	               sends stay N, not N+1
func armTimes(timeout time.Duration, repeat int, minInterval time.Duration) (delay, interval time.Duration, counter int) {
	counter = repeat
	if repeat == 0 || repeat == 1 {
		delay = timeout
		if delay <= 0 {
			delay = immediateDelay
		}
		counter = 0
		return
	}
	delay = immediateDelay
	interval = timeout
	if interval <= 0 {
		interval = minInterval
	}
	if counter > 0 {
		counter--
	}
	return
}

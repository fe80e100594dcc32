package pktspray

import "time"

// Options for a Scheduler.
type Options struct {
	evReadyNum    int // ready events fetched per epoll_wait
	evDataArrSize int // registry array span, see registry.go
	minInterval   time.Duration
}

// Option is a functional option.
type Option func(*Options)

func setOptions(optL ...Option) *Options {
	opts := &Options{
		evReadyNum:    32,
		evDataArrSize: 1024,
		minInterval:   DefaultMinInterval,
	}
	for _, opt := range optL {
		opt(opts)
	}
	return opts
}

// EvReadyNum sets how many ready events one epoll_wait call may return.
func EvReadyNum(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.evReadyNum = n
		}
	}
}

// EvDataArrSize sets the registry's array span. Choose it from the expected
// fd range (roughly the command count plus a few stdio/epoll fds).
func EvDataArrSize(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.evDataArrSize = n
		}
	}
}

// MinInterval sets the periodic fallback used when a repeating command asks
// for an interval <= 0. Defaults to DefaultMinInterval.
func MinInterval(d time.Duration) Option {
	return func(o *Options) {
		if d > 0 {
			o.minInterval = d
		}
	}
}

package pktspray

import "errors"

// Error kinds returned by Scheduler.Run. Run reports a single fatal cause;
// match with errors.Is. The wrapped detail carries the failing syscall or
// sender error.
var (
	// ErrAdmission means a timer could not be created, armed or registered
	// while the command list was being admitted. Nothing has been sent yet.
	ErrAdmission = errors.New("admission failed")

	// ErrWait means epoll_wait itself failed.
	ErrWait = errors.New("wait failed")

	// ErrSend means the sender reported a transmission failure.
	ErrSend = errors.New("send failed")

	// ErrDrain means reading back a timer's expiration counter failed.
	ErrDrain = errors.New("timer drain failed")

	// ErrResolution means a readiness notification could not be mapped back
	// to a live scheduled event. Treated as an invariant violation.
	ErrResolution = errors.New("event resolution failed")
)

package pktspray

import (
	"errors"
	"time"
)

// Sender is the transmission capability consumed by the scheduler.
// Send must be synchronous and must not block indefinitely; the scheduler
// puts no timeout around it. Any error from Send is fatal to the whole run.
type Sender interface {
	Send(pkt []byte, flags int) error
}

// Command describes one scheduled transmission.
//
// Repeat semantics:
//
//	repeat <  0  send forever, every Timeout
//	repeat == 0  send once, after Timeout (assumed to mean 1)
//	repeat == 1  send once, after Timeout
//	repeat >  1  send now, then every Timeout, Repeat sends in total
//
// A negative Timeout means no delay. The scheduler never writes to a
// Command; the repeat counter it decrements is its own copy taken at
// admission.
type Command struct {
	Sender  Sender
	Packet  []byte
	Timeout time.Duration
	Repeat  int
}

func (c *Command) valid() error {
	if c == nil {
		return errors.New("command is nil")
	}
	if c.Sender == nil {
		return errors.New("command has no sender")
	}
	if len(c.Packet) == 0 {
		return errors.New("command has an empty packet")
	}
	return nil
}

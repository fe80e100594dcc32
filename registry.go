package pktspray

import "errors"

// schedEvent pairs one command with its timer resource. The registry owns
// it; epoll only carries the timer fd, which resolves back here through
// lookup. counter is the scheduler's private copy of Command.Repeat.
type schedEvent struct {
	noCopy

	cmd     *Command
	counter int
	timer   timerFd

	prev, next *schedEvent
}

// registry is the ordered collection of live scheduled events.
// Array indexing for small fds, map for the rest (timer fds are allocated
// low, so nearly every lookup hits the array), plus an intrusive list that
// keeps admission order for iteration and teardown. Single-threaded by
// construction, the loop is the only accessor.
//
// Invariant: an event is in the registry iff its fd is registered with
// epoll. remove does not close the timer fd; when to close stays with the
// caller so ownership of the fd never forks.
type registry struct {
	arrSize int
	arr     []*schedEvent
	sMap    map[int]*schedEvent

	head, tail *schedEvent
	n          int
}

func newRegistry(arrSize int) *registry {
	if arrSize < 1 {
		panic("newRegistry arrSize < 1")
	}
	return &registry{
		arrSize: arrSize,
		arr:     make([]*schedEvent, arrSize),
		sMap:    make(map[int]*schedEvent),
	}
}

func (r *registry) add(se *schedEvent) error {
	fd := se.timer.v
	if fd < 0 {
		return errors.New("registry add: invalid fd")
	}
	if r.lookup(fd) != nil {
		return errors.New("registry add: fd already present")
	}
	if fd < r.arrSize {
		r.arr[fd] = se
	} else {
		r.sMap[fd] = se
	}
	if r.tail == nil {
		r.head, r.tail = se, se
	} else {
		se.prev = r.tail
		r.tail.next = se
		r.tail = se
	}
	r.n++
	return nil
}

// lookup resolves an epoll delivery tag. Returns nil for a stale or unknown
// fd; the loop treats that as a resolution failure.
func (r *registry) lookup(fd int) *schedEvent {
	if fd < 0 {
		return nil
	}
	if fd < r.arrSize {
		return r.arr[fd]
	}
	return r.sMap[fd]
}

func (r *registry) remove(se *schedEvent) {
	fd := se.timer.v
	if fd >= 0 && fd < r.arrSize {
		if r.arr[fd] != se {
			return
		}
		r.arr[fd] = nil
	} else {
		if r.sMap[fd] != se {
			return
		}
		delete(r.sMap, fd)
	}
	if se.prev != nil {
		se.prev.next = se.next
	} else {
		r.head = se.next
	}
	if se.next != nil {
		se.next.prev = se.prev
	} else {
		r.tail = se.prev
	}
	se.prev, se.next = nil, nil
	r.n--
}

func (r *registry) empty() bool {
	return r.n == 0
}

func (r *registry) size() int {
	return r.n
}

// teardownAll closes every remaining timer fd and releases the entries.
// Runs on every exit path, success or fatal, so no handle outlives a run.
// A no-op on an empty registry.
func (r *registry) teardownAll() {
	for se := r.head; se != nil; {
		next := se.next
		se.timer.close()
		se.prev, se.next = nil, nil
		se = next
	}
	r.head, r.tail, r.n = nil, nil, 0
	for i := range r.arr {
		r.arr[i] = nil
	}
	r.sMap = make(map[int]*schedEvent)
}

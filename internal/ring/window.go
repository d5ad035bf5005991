// Package ring maintains the sliding correlation window a frame context
// needs to resolve its neighbor pointers: last-presented, next-displayed,
// last-displayed, and previous-last-displayed relative to each pushed
// frame.
package ring

import "github.com/lumentel/frametap/internal/frame"

// Ready bundles one frame with its four resolved correlation neighbors,
// ready to populate a frame.FrameContext via UpdateSourceData. Any
// neighbor may be nil; frame.FrameContext tolerates that per its own
// zero/NaN guards.
type Ready struct {
	Current                *frame.FrameData
	LastPresented          *frame.FrameData
	NextDisplayed          *frame.FrameData
	LastDisplayed          *frame.FrameData
	PreviousLastDisplayed  *frame.FrameData
}

type pending struct {
	current               *frame.FrameData
	lastPresented         *frame.FrameData
	lastDisplayed         *frame.FrameData
	previousLastDisplayed *frame.FrameData
	nextDisplayed         *frame.FrameData
	resolved              bool
}

// Window retains recently pushed frames until each has a resolved
// next-displayed neighbor (or is evicted for capacity, in which case that
// neighbor is left nil). It is not safe for concurrent use; callers that
// need concurrency wrap it in their own lock, matching internal/stream.
type Window struct {
	capacity int
	queue    []*pending

	lastPresented         *frame.FrameData
	lastDisplayed         *frame.FrameData
	previousLastDisplayed *frame.FrameData
}

// NewWindow builds a Window retaining at most capacity unresolved frames
// before evicting the oldest. capacity must be positive.
func NewWindow(capacity int) *Window {
	if capacity < 1 {
		capacity = 1
	}
	return &Window{capacity: capacity}
}

func isDisplayed(fd *frame.FrameData) bool {
	return fd.PresentEvent.EffectiveScreenTime() != 0
}

func isPresented(fd *frame.FrameData) bool {
	return fd.PresentEvent.FinalState == frame.PresentResultPresented
}

// Push appends fd to the window and returns every entry that became Ready
// as a result — either because fd resolved its next-displayed neighbor, or
// because an older entry was evicted for capacity.
func (w *Window) Push(fd *frame.FrameData) []Ready {
	entry := &pending{
		current:               fd,
		lastPresented:         w.lastPresented,
		lastDisplayed:         w.lastDisplayed,
		previousLastDisplayed: w.previousLastDisplayed,
	}

	var ready []Ready

	if isDisplayed(fd) {
		for _, p := range w.queue {
			if !p.resolved {
				p.nextDisplayed = fd
				p.resolved = true
			}
		}
	}

	w.queue = append(w.queue, entry)

	if isPresented(fd) {
		w.lastPresented = fd
	}
	if isDisplayed(fd) {
		w.previousLastDisplayed = w.lastDisplayed
		w.lastDisplayed = fd
	}

	ready = append(ready, w.drainResolved()...)
	ready = append(ready, w.drainOverCapacity()...)

	return ready
}

// drainResolved pops every resolved entry sitting at the front of the
// queue, preserving arrival order.
func (w *Window) drainResolved() []Ready {
	var out []Ready
	for len(w.queue) > 0 && w.queue[0].resolved {
		out = append(out, toReady(w.queue[0]))
		w.queue = w.queue[1:]
	}
	return out
}

// drainOverCapacity evicts the oldest unresolved entry when the queue
// exceeds capacity, tolerating the missing next-displayed neighbor.
func (w *Window) drainOverCapacity() []Ready {
	var out []Ready
	for len(w.queue) > w.capacity {
		out = append(out, toReady(w.queue[0]))
		w.queue = w.queue[1:]
	}
	return out
}

// Flush evicts every remaining pending entry, in arrival order, tolerating
// unresolved next-displayed neighbors. Callers use this on shutdown so no
// buffered frame is silently dropped.
func (w *Window) Flush() []Ready {
	out := make([]Ready, 0, len(w.queue))
	for _, p := range w.queue {
		out = append(out, toReady(p))
	}
	w.queue = nil
	return out
}

// Len returns the number of frames currently retained awaiting resolution.
func (w *Window) Len() int { return len(w.queue) }

func toReady(p *pending) Ready {
	return Ready{
		Current:               p.current,
		LastPresented:         p.lastPresented,
		NextDisplayed:         p.nextDisplayed,
		LastDisplayed:         p.lastDisplayed,
		PreviousLastDisplayed: p.previousLastDisplayed,
	}
}

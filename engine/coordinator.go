package engine

import "sync"

// coordinator is the single mutex plus two condition variables gluing the
// decode worker to the playlist and its sinks (§4.8). It guards
// decode_head, the item list pointers, SinkMap structure, volume,
// sentEndOfQ, and purgeItem; FilterGraph's filterVolume and rebuildFlag
// sit under FilterGraph's own mutex. Lock order is coordinator first,
// queue second: the coordinator lock may be held while a Queue's own lock
// is taken (backpressure checks, flush, purge, abort), but it is never
// acquired by code already holding a Queue's lock.
type coordinator struct {
	mu sync.Mutex

	// decodeHeadCond is signalled when decodeHead becomes non-null, on
	// Seek, on Destroy, and when a sink is first attached.
	decodeHeadCond *sync.Cond
	// drainCond is signalled when any sink's queue drops below its
	// min_queue_bytes threshold, on Attach, on Remove, and on Destroy.
	drainCond *sync.Cond

	purgeItem *Item // set only for the duration of Playlist.Remove
}

func newCoordinator() *coordinator {
	c := &coordinator{}
	c.decodeHeadCond = sync.NewCond(&c.mu)
	c.drainCond = sync.NewCond(&c.mu)
	return c
}

// signalDecodeHead wakes the worker if it is waiting for something to
// decode. Callers must already hold c.mu.
func (c *coordinator) signalDecodeHead() { c.decodeHeadCond.Signal() }

// signalDrainLocked wakes the worker if it is waiting for backpressure to
// clear. Callers must already hold c.mu.
func (c *coordinator) signalDrainLocked() { c.drainCond.Signal() }

// signalDrain wakes the worker if it is waiting for backpressure to
// clear, taking c.mu itself. Used from Sink.BufferGet once the queue's
// own lock has been released.
func (c *coordinator) signalDrain() {
	c.mu.Lock()
	c.drainCond.Signal()
	c.mu.Unlock()
}

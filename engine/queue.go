package engine

import (
	"container/list"
	"sync"
)

// queueElem is one element of a Queue: either a Buffer or the end-of-
// playlist sentinel. The sentinel bypasses every callback (§4.2).
type queueElem struct {
	buf *Buffer
	end bool
}

// queueCallbacks is the capability interface a Queue's owner supplies at
// construction, closing over the sink reference rather than sharing
// mutable context (per the Function-pointer-callbacks design note).
type queueCallbacks interface {
	// onPut is invoked under the queue's lock exactly once per non-
	// sentinel element enqueued by Put.
	onPut(b *Buffer)
	// onGet is invoked under the queue's lock exactly once per non-
	// sentinel element dequeued by Get.
	onGet(b *Buffer)
	// onCleanup is invoked exactly once per non-sentinel element that
	// leaves the queue via Flush or Purge. Get does not invoke it; an
	// element leaving via Get gets onGet only.
	onCleanup(b *Buffer)
	// purge reports whether b should be removed by Purge.
	purge(b *Buffer) bool
}

// GetResult is the outcome of a blocking or non-blocking Get.
type GetResult int

const (
	// GetNo means no element was available (non-blocking empty, or the
	// queue was aborted while waiting).
	GetNo GetResult = iota
	// GetYes means a Buffer was returned.
	GetYes
	// GetEnd means the end-of-playlist sentinel was returned.
	GetEnd
)

// Queue is a bounded-by-policy, blocking FIFO of Buffers with an abort/
// flush/purge protocol, parameterised by queueCallbacks. It has its own
// mutex and condition variable; its lock may be taken while the playlist
// coordinator's lock is held, never the other way round.
type Queue struct {
	mu        sync.Mutex
	notEmpty  *sync.Cond
	elems     *list.List // of queueElem
	callbacks queueCallbacks
	aborted   bool
}

func newQueue(cb queueCallbacks) *Queue {
	q := &Queue{
		elems:     list.New(),
		callbacks: cb,
	}
	q.notEmpty = sync.NewCond(&q.mu)
	return q
}

// Put enqueues a Buffer. It fails (returns false) if the queue has been
// aborted since the last Reset. The sentinel is enqueued via putEnd, not
// this method.
func (q *Queue) Put(b *Buffer) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.aborted {
		return false
	}
	q.callbacks.onPut(b)
	q.elems.PushBack(queueElem{buf: b})
	q.notEmpty.Signal()
	return true
}

// putEnd enqueues the end-of-playlist sentinel, bypassing all callbacks.
func (q *Queue) putEnd() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.aborted {
		return false
	}
	q.elems.PushBack(queueElem{end: true})
	q.notEmpty.Signal()
	return true
}

// GetBuffer dequeues the next element, returning the dequeued Buffer
// alongside the result code (nil unless result == GetYes). When blocking
// is true and the queue is empty, it waits until an element arrives or
// Abort is called.
func (q *Queue) GetBuffer(blocking bool) (GetResult, *Buffer) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.elems.Len() == 0 {
		if q.aborted || !blocking {
			return GetNo, nil
		}
		q.notEmpty.Wait()
	}
	if q.elems.Len() == 0 {
		return GetNo, nil
	}

	front := q.elems.Remove(q.elems.Front()).(queueElem)
	if front.end {
		return GetEnd, nil
	}
	q.callbacks.onGet(front.buf)
	return GetYes, front.buf
}

// Peek reports whether an element is currently available, optionally
// blocking until one is or the queue is aborted.
func (q *Queue) Peek(blocking bool) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.elems.Len() == 0 {
		if q.aborted || !blocking {
			return false
		}
		q.notEmpty.Wait()
	}
	return q.elems.Len() > 0
}

// Flush drains the queue, invoking onCleanup once per non-sentinel
// element removed.
func (q *Queue) Flush() {
	q.mu.Lock()
	defer q.mu.Unlock()
	for e := q.elems.Front(); e != nil; e = e.Next() {
		elem := e.Value.(queueElem)
		if !elem.end {
			q.callbacks.onCleanup(elem.buf)
		}
	}
	q.elems.Init()
}

// Abort unblocks every waiter in Get/Peek and causes subsequent Put calls
// to fail until Reset is called.
func (q *Queue) Abort() {
	q.mu.Lock()
	q.aborted = true
	q.notEmpty.Broadcast()
	q.mu.Unlock()
}

// Reset clears the abort state so Put succeeds again.
func (q *Queue) Reset() {
	q.mu.Lock()
	q.aborted = false
	q.mu.Unlock()
}

// Purge removes every element for which pred reports true, invoking
// onCleanup once per removed element. The sentinel never matches.
func (q *Queue) Purge(pred func(*Buffer) bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var next *list.Element
	for e := q.elems.Front(); e != nil; e = next {
		next = e.Next()
		elem := e.Value.(queueElem)
		if elem.end {
			continue
		}
		if pred(elem.buf) {
			q.callbacks.onCleanup(elem.buf)
			q.elems.Remove(e)
		}
	}
}

// purgeSelf calls Purge using the queue's own configured purge predicate,
// matching the C queue's use of a single purge_predicate callback per
// element (§4.2's purge(pred) takes an explicit predicate; callers that
// want the queue's configured one use this).
func (q *Queue) purgeSelf() {
	q.Purge(q.callbacks.purge)
}

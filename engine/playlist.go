package engine

import (
	"log"

	"github.com/google/uuid"
)

// FillMode selects when the decode worker treats the playlist's sinks as
// backpressured, per §4.7. The default, EverySinkFull, keeps decoding
// ahead for sinks that are draining quickly even while a slow sink is
// full; AnySinkFull instead paces decoding to the slowest sink.
type FillMode int

const (
	FillEverySinkFull FillMode = iota
	FillAnySinkFull
)

// Item is one playlist entry: an opened file, its per-item gain, and its
// position in the playlist's doubly linked list. Gain, Next and Prev take
// the owning playlist's coordinator lock, since the list pointers and gain
// are mutated by Insert/Remove/SetGain under that lock; File does not, as
// an item's file never changes after Insert.
type Item struct {
	ID uuid.UUID

	file     SourceFile
	gain     float64
	prev     *Item
	next     *Item
	playlist *Playlist
}

// Gain returns the item's per-item gain multiplier.
func (it *Item) Gain() float64 {
	it.playlist.coord.mu.Lock()
	defer it.playlist.coord.mu.Unlock()
	return it.gain
}

// Next returns the following playlist item, or nil at the tail.
func (it *Item) Next() *Item {
	it.playlist.coord.mu.Lock()
	defer it.playlist.coord.mu.Unlock()
	return it.next
}

// Prev returns the preceding playlist item, or nil at the head.
func (it *Item) Prev() *Item {
	it.playlist.coord.mu.Lock()
	defer it.playlist.coord.mu.Unlock()
	return it.prev
}

// File returns the item's underlying source, for callers that need to
// inspect file-level metadata (duration, tags) outside the engine.
func (it *Item) File() SourceFile { return it.file }

// Playlist is an ordered list of items decoded through a shared filter
// graph and fanned out to attached sinks, guarded by a single
// coordinator (§4.6-4.8). The decode worker that actually drives decoding
// lives in DecodeWorker; Playlist itself only holds state and performs
// the navigation operations that worker loop reacts to.
type Playlist struct {
	coord       *coordinator
	sinkMap     *sinkMap
	filterGraph *FilterGraph

	head, tail *Item
	decodeHead *Item

	volume     float64
	paused     bool
	fillMode   FillMode
	sentEndOfQ bool
	destroyed  bool
}

// NewPlaylist creates an empty, paused playlist driving the given filter
// graph backend. sentEndOfQ starts true, matching groove_playlist_create:
// with no items yet queued, there is nothing left to signal end-of-queue
// for.
func NewPlaylist(backend filterBackend) *Playlist {
	p := &Playlist{
		coord:      newCoordinator(),
		filterGraph: newFilterGraph(backend),
		volume:     1.0,
		paused:     true,
		sentEndOfQ: true,
	}
	p.sinkMap = &sinkMap{onChange: p.filterGraph.markRebuild}
	return p
}

// Destroy detaches the playlist from further work: every attached sink's
// queue is aborted and flushed, and both coordinator conditions are
// signalled so a blocked DecodeWorker wakes and observes destroyed, after
// which its Run returns. Destroy does not wait for that to happen.
func (p *Playlist) Destroy() {
	p.coord.mu.Lock()
	p.destroyed = true
	for _, s := range p.sinkMap.allSinks() {
		s.queue.Abort()
	}
	p.coord.decodeHeadCond.Signal()
	p.coord.drainCond.Signal()
	p.coord.mu.Unlock()

	for _, s := range p.sinkMap.allSinks() {
		s.queue.Flush()
	}
}

// Insert opens a new item for file at the given per-item gain, placing it
// immediately before next, or at the tail if next is nil. If the playlist
// had no decode head, the new item becomes it.
func (p *Playlist) Insert(file SourceFile, gain float64, next *Item) (*Item, error) {
	p.coord.mu.Lock()
	defer p.coord.mu.Unlock()
	if p.destroyed {
		return nil, ErrPlaylistClosed
	}

	item := &Item{ID: uuid.New(), file: file, gain: gain, playlist: p}

	if next == nil {
		item.prev = p.tail
		if p.tail != nil {
			p.tail.next = item
		} else {
			p.head = item
		}
		p.tail = item
	} else {
		item.next = next
		item.prev = next.prev
		if next.prev != nil {
			next.prev.next = item
		} else {
			p.head = item
		}
		next.prev = item
	}

	if p.decodeHead == nil {
		p.decodeHead = item
		p.sentEndOfQ = false
		p.coord.decodeHeadCond.Signal()
	}
	return item, nil
}

// unlinkLocked removes item from the list pointers. Callers must hold
// coord.mu.
func (p *Playlist) unlinkLocked(item *Item) {
	if item.prev != nil {
		item.prev.next = item.next
	} else {
		p.head = item.next
	}
	if item.next != nil {
		item.next.prev = item.prev
	} else {
		p.tail = item.prev
	}
}

// removeLocked implements Remove's body. Callers must hold coord.mu.
func (p *Playlist) removeLocked(item *Item) {
	if p.decodeHead == item {
		p.decodeHead = item.next
		if p.decodeHead != nil {
			p.coord.decodeHeadCond.Signal()
		}
	}

	p.coord.purgeItem = item
	for _, s := range p.sinkMap.allSinks() {
		s.queue.purgeSelf()
		if s.onPurge != nil {
			s.onPurge(item)
		}
	}
	p.coord.purgeItem = nil
	p.coord.signalDrainLocked()

	p.unlinkLocked(item)
}

// Remove purges item's buffers from every attached sink's queue and
// unlinks it from the playlist. It is the caller's responsibility to
// release the underlying file afterward.
func (p *Playlist) Remove(item *Item) {
	p.coord.mu.Lock()
	defer p.coord.mu.Unlock()
	p.removeLocked(item)
}

// Clear removes every item from the playlist.
func (p *Playlist) Clear() {
	p.coord.mu.Lock()
	defer p.coord.mu.Unlock()
	for item := p.head; item != nil; {
		next := item.next
		p.removeLocked(item)
		item = next
	}
}

// Seek moves the decode head to item and requests that its file seek to
// the given offset in seconds. The file's own seek lock, not the
// coordinator, guards the pending-seek fields the worker consumes.
func (p *Playlist) Seek(item *Item, seconds float64) error {
	p.coord.mu.Lock()
	if p.destroyed {
		p.coord.mu.Unlock()
		return ErrPlaylistClosed
	}
	p.decodeHead = item
	p.sentEndOfQ = false
	p.coord.decodeHeadCond.Signal()
	p.coord.mu.Unlock()

	item.file.LockSeek()
	pos := item.file.SeekSeconds(seconds)
	item.file.SetSeek(pos, true)
	item.file.UnlockSeek()
	return nil
}

// Play resumes decoding. If a decode head is set, its file is resumed too.
func (p *Playlist) Play() {
	p.coord.mu.Lock()
	defer p.coord.mu.Unlock()
	if !p.paused {
		return
	}
	p.paused = false
	if p.decodeHead != nil {
		p.decodeHead.file.Resume()
	}
	p.coord.decodeHeadCond.Signal()
	log.Printf("groovecore: playlist resumed")
}

// Pause suspends decoding without discarding any queued buffers.
func (p *Playlist) Pause() {
	p.coord.mu.Lock()
	defer p.coord.mu.Unlock()
	if p.paused {
		return
	}
	p.paused = true
	if p.decodeHead != nil {
		p.decodeHead.file.Pause()
	}
	log.Printf("groovecore: playlist paused")
}

// Playing reports whether the playlist is actively decoding.
func (p *Playlist) Playing() bool {
	p.coord.mu.Lock()
	defer p.coord.mu.Unlock()
	return !p.paused
}

// SetGain updates item's per-item gain; it takes effect on the next frame
// the worker decodes for that item. The effective volume (gain times
// playlist volume) then differs from the one the filter graph was built
// with, so FilterGraph.ensure rebuilds the graph.
func (p *Playlist) SetGain(item *Item, gain float64) {
	p.coord.mu.Lock()
	defer p.coord.mu.Unlock()
	item.gain = gain
}

// SetVolume updates the playlist-wide volume multiplier. A change here
// is picked up by FilterGraph.ensure on the worker's next iteration,
// which rebuilds the graph only if the new value differs from the one
// it was last built with.
func (p *Playlist) SetVolume(v float64) {
	p.coord.mu.Lock()
	defer p.coord.mu.Unlock()
	p.volume = v
}

// Volume returns the playlist-wide volume multiplier.
func (p *Playlist) Volume() float64 {
	p.coord.mu.Lock()
	defer p.coord.mu.Unlock()
	return p.volume
}

// SetFillMode changes how the worker judges sink backpressure and wakes
// it to re-evaluate immediately.
func (p *Playlist) SetFillMode(mode FillMode) {
	p.coord.mu.Lock()
	defer p.coord.mu.Unlock()
	p.fillMode = mode
	p.coord.drainCond.Signal()
}

// Position returns the current decode head and its file's audio clock in
// seconds, or (nil, 0) if the playlist has reached end of queue.
func (p *Playlist) Position() (*Item, float64) {
	p.coord.mu.Lock()
	defer p.coord.mu.Unlock()
	if p.decodeHead == nil {
		return nil, 0
	}
	return p.decodeHead, p.decodeHead.file.AudioClock()
}

// Count returns the number of items currently in the playlist.
func (p *Playlist) Count() int {
	p.coord.mu.Lock()
	defer p.coord.mu.Unlock()
	n := 0
	for item := p.head; item != nil; item = item.next {
		n++
	}
	return n
}

// sinksFull reports whether the configured FillMode considers every
// attached sink backpressured, per §4.7: EverySinkFull is vacuously true
// with no sinks attached, AnySinkFull is vacuously false.
func (p *Playlist) sinksFull() bool {
	switch p.fillMode {
	case FillAnySinkFull:
		return forEachSink(p.sinkMap, func(s *Sink) bool { return s.isFull() }, false)
	default:
		return forEachSink(p.sinkMap, func(s *Sink) bool { return s.isFull() }, true)
	}
}

package engine

import "sync"

// RawFrame is a block of decoded or filtered PCM handed up from the media
// framework collaborator. Planes holds one []byte per channel for planar
// formats, or a single interleaved []byte for packed formats.
type RawFrame struct {
	Planes     [][]byte
	FrameCount int
	Format     AudioFormat
	// HasPTS reports whether the source packet carried a presentation
	// timestamp; when false the worker estimates position from bytes
	// emitted instead of trusting Pos.
	HasPTS bool
	Pos    float64
}

func (f RawFrame) size() int {
	n := 0
	for _, p := range f.Planes {
		n += len(p)
	}
	return n
}

// Buffer is a reference-counted, immutable-after-publication unit of
// decoded PCM shared between the decode worker and every sink in a
// SinkMap group. It carries a weak, identity-only reference to the
// playlist Item it was decoded from so that Playlist.Remove can purge
// matching buffers from every sink queue.
type Buffer struct {
	mu         sync.Mutex
	planes     [][]byte
	frameCount int
	format     AudioFormat
	size       int
	pos        float64
	item       *Item
	refcount   int
}

// newBuffer wraps a RawFrame into a reference-counted Buffer owned by the
// given item, starting at refcount 1.
func newBuffer(item *Item, f RawFrame) *Buffer {
	return &Buffer{
		planes:     f.Planes,
		frameCount: f.FrameCount,
		format:     f.Format,
		size:       f.size(),
		pos:        f.Pos,
		item:       item,
		refcount:   1,
	}
}

// Ref increments the buffer's reference count. Called whenever a new
// holder (a sink queue) is about to receive the buffer.
func (b *Buffer) Ref() {
	b.mu.Lock()
	b.refcount++
	b.mu.Unlock()
}

// Unref decrements the reference count, releasing the underlying frame
// storage once it reaches zero. Safe to call exactly once per Ref plus
// once for the buffer's initial creation reference.
func (b *Buffer) Unref() {
	b.mu.Lock()
	b.refcount--
	zero := b.refcount == 0
	if zero {
		b.planes = nil
	}
	b.mu.Unlock()
}

// Data returns the buffer's PCM data: one plane per channel for planar
// formats, or a single interleaved plane for packed formats. The returned
// slices must not be retained past the matching Unref call.
func (b *Buffer) Data() [][]byte { return b.planes }

// FrameCount returns the number of PCM frames (samples per channel) in
// this buffer.
func (b *Buffer) FrameCount() int { return b.frameCount }

// Format returns the buffer's audio format.
func (b *Buffer) Format() AudioFormat { return b.format }

// Size returns the buffer's size in bytes across all planes.
func (b *Buffer) Size() int { return b.size }

// Pos returns the buffer's presentation position in seconds within its
// source item.
func (b *Buffer) Pos() float64 { return b.pos }

// item is used only for purge-predicate identity comparisons; it is never
// part of the public API since Buffer must not expose playlist internals.
func (b *Buffer) belongsTo(it *Item) bool { return b.item == it }

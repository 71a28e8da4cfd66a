package engine

import (
	"log"
	"sync"

	"github.com/google/uuid"
)

// defaultSinkBufferSize matches groove_sink_create's built-in 8192-frame
// default queue capacity.
const defaultSinkBufferSize = 8192

// SinkOption configures a Sink at construction, in the functional-options
// idiom the teacher uses for oto.NewContextOptions.
type SinkOption func(*Sink)

// WithFormat sets the sink's desired output audio format.
func WithFormat(f AudioFormat) SinkOption {
	return func(s *Sink) { s.format = f }
}

// WithBufferSampleCount requests fixed-size pulls of n samples per frame
// from the filter graph tail; 0 (the default) accepts variable-size
// frames as the graph produces them.
func WithBufferSampleCount(n int) SinkOption {
	return func(s *Sink) { s.bufferSampleCount = n }
}

// WithBufferSize sets the queue capacity in frames used to derive the
// byte threshold for backpressure.
func WithBufferSize(frames int) SinkOption {
	return func(s *Sink) { s.bufferSize = frames }
}

// WithDisableResample marks the sink as wanting the decode-head's native
// format verbatim; its group's filter tail omits the format-convert node.
func WithDisableResample() SinkOption {
	return func(s *Sink) { s.disableResample = true }
}

// OnPurge registers a hook invoked, after the queue's own lock has been
// released but still under the coordinator lock, whenever Playlist.Remove
// purges buffers belonging to item from this sink's queue.
func OnPurge(fn func(item *Item)) SinkOption {
	return func(s *Sink) { s.onPurge = fn }
}

// Sink is a consumer handle: a desired output format, a target queue
// fill level, and an attachment state. Sinks are created detached and
// must be attached to a Playlist before BufferGet/BufferPeek return
// anything but immediate underrun.
type Sink struct {
	ID uuid.UUID

	format            AudioFormat
	bufferSampleCount int
	bufferSize        int
	disableResample   bool
	onPurge           func(item *Item)

	bytesPerSec   int
	minQueueBytes int

	queue *Queue

	mu       sync.Mutex
	playlist *Playlist

	// queueBytes tracks bytes currently enqueued, mutated only from
	// within the queue's own lock via the queueCallbacks methods below.
	queueBytes int
}

// NewSink creates a detached sink with built-in defaults matching
// groove_sink_create (8192-frame buffer, variable-size frames, resample
// enabled).
func NewSink(opts ...SinkOption) *Sink {
	s := &Sink{
		ID:         uuid.New(),
		bufferSize: defaultSinkBufferSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.queue = newQueue(sinkQueueCallbacks{s})
	return s
}

// Format returns the sink's desired output format.
func (s *Sink) Format() AudioFormat { return s.format }

// BufferSampleCount returns the fixed pull size, or 0 for variable-size.
func (s *Sink) BufferSampleCount() int { return s.bufferSampleCount }

// DisableResample reports whether this sink wants pass-through format.
func (s *Sink) DisableResample() bool { return s.disableResample }

// BufferSize returns the configured queue capacity in frames.
func (s *Sink) BufferSize() int { return s.bufferSize }

// BytesPerSec returns the sink's output byte rate, valid once attached.
func (s *Sink) BytesPerSec() int { return s.bytesPerSec }

// formatsEqual reports whether two sinks belong in the same SinkMap group,
// per §4.4: equal buffer_sample_count, and either both disable_resample
// or neither does with identical (rate, channels, sample format).
func (s *Sink) formatsEqual(other *Sink) bool {
	if s.bufferSampleCount != other.bufferSampleCount {
		return false
	}
	if s.disableResample {
		return other.disableResample
	}
	if other.disableResample {
		return false
	}
	return s.format.Equal(other.format)
}

// Attach computes the sink's byte-rate derived fields, inserts it into
// the playlist's SinkMap, resets its queue, and signals both coordinator
// conditions so an idle worker re-evaluates backpressure.
func (s *Sink) Attach(p *Playlist) error {
	s.mu.Lock()
	if s.playlist != nil {
		s.mu.Unlock()
		return ErrSinkAttachConflict
	}
	s.mu.Unlock()

	bytesPerFrame := s.format.BytesPerFrame()
	s.bytesPerSec = bytesPerFrame * s.format.SampleRate
	s.minQueueBytes = s.bufferSize * bytesPerFrame
	log.Printf("groovecore: sink %s attached, queue threshold %d bytes", s.ID, s.minQueueBytes)

	p.coord.mu.Lock()
	if err := p.sinkMap.add(s); err != nil {
		p.coord.mu.Unlock()
		return err
	}
	p.coord.signalDrainLocked()
	p.coord.signalDecodeHead()
	p.coord.mu.Unlock()

	s.queue.Reset()

	s.mu.Lock()
	s.playlist = p
	s.mu.Unlock()
	return nil
}

// Detach aborts and flushes the sink's queue, then removes it from the
// playlist's SinkMap. Idempotent: detaching an already-detached sink
// returns ErrSinkNotAttached but performs no other action.
func (s *Sink) Detach() error {
	s.mu.Lock()
	p := s.playlist
	s.mu.Unlock()
	if p == nil {
		return ErrSinkNotAttached
	}

	s.queue.Abort()
	s.queue.Flush()

	p.coord.mu.Lock()
	err := p.sinkMap.remove(s)
	p.coord.mu.Unlock()

	s.mu.Lock()
	s.playlist = nil
	s.mu.Unlock()
	return err
}

// BufferResult is the outcome of BufferGet, distinguishing underrun from
// end-of-playlist.
type BufferResult int

const (
	BufferNo BufferResult = iota
	BufferYes
	BufferEnd
)

// BufferGet dequeues the next Buffer for this sink, mapping the sentinel
// to BufferEnd. The drain signal is sent here, after GetBuffer has
// released the queue's own lock, so the coordinator lock is never taken
// while the queue lock is held (see coordinator.go's lock-ordering note).
func (s *Sink) BufferGet(blocking bool) (BufferResult, *Buffer) {
	res, buf := s.queue.GetBuffer(blocking)
	if res == GetYes && !s.isFull() {
		s.mu.Lock()
		p := s.playlist
		s.mu.Unlock()
		if p != nil {
			p.coord.signalDrain()
		}
	}
	switch res {
	case GetYes:
		return BufferYes, buf
	case GetEnd:
		return BufferEnd, nil
	default:
		return BufferNo, nil
	}
}

// BufferPeek reports whether a buffer (or the sentinel) is available.
func (s *Sink) BufferPeek(blocking bool) bool {
	return s.queue.Peek(blocking)
}

// isFull reports whether the sink's queue has reached its backpressure
// threshold. It takes the queue's lock; the worker calls it with the
// coordinator lock held, BufferGet without it.
func (s *Sink) isFull() bool {
	s.queue.mu.Lock()
	defer s.queue.mu.Unlock()
	return s.queueBytes >= s.minQueueBytes
}

// sinkQueueCallbacks implements queueCallbacks, closing over the owning
// Sink per the Function-pointer-callbacks design note instead of sharing
// mutable context.
type sinkQueueCallbacks struct{ s *Sink }

func (c sinkQueueCallbacks) onPut(b *Buffer) {
	c.s.queueBytes += b.Size()
}

func (c sinkQueueCallbacks) onGet(b *Buffer) {
	// The caller of BufferGet now owns this reference and is responsible
	// for calling Buffer.Unref once it is done with the data; unlike
	// onCleanup this is not a path where the buffer was discarded
	// unconsumed. Runs under q.mu, so it only touches queueBytes; the
	// drain signal itself is sent by BufferGet once q.mu is released.
	c.s.queueBytes -= b.Size()
}

func (c sinkQueueCallbacks) onCleanup(b *Buffer) {
	c.s.queueBytes -= b.Size()
	b.Unref()
}

func (c sinkQueueCallbacks) purge(b *Buffer) bool {
	c.s.mu.Lock()
	p := c.s.playlist
	c.s.mu.Unlock()
	if p == nil {
		return false
	}
	return b.belongsTo(p.coord.purgeItem)
}

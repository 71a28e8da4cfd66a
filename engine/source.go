package engine

// SourceFile is the interface the DecodeWorker and FilterGraph need from
// an opened media file — the Go-native shape of §6's external media
// framework File/Codec contract. engine/avfile.File implements this
// against go-astiav; tests use a fake so the worker's coordination logic
// is exercised without linking libavformat/libavfilter.
type SourceFile interface {
	// InputFormat returns the file's current decoded-stream format.
	InputFormat() AudioFormat
	// TimeBase returns the file's stream time base.
	TimeBase() TimeBase
	// AudioClock returns the running presentation clock in seconds.
	AudioClock() float64
	// SetAudioClock sets the clock: the worker sets it from a frame's PTS,
	// or advances it by the frame's duration when PTS is absent.
	SetAudioClock(seconds float64)

	// AbortRequested reports whether the file is being torn down.
	AbortRequested() bool
	// Pause/Resume instruct the framework to pause or resume reads.
	Pause()
	Resume()

	// LockSeek/UnlockSeek guard the pending-seek state (SeekPos,
	// SeekFlush, SetSeek, ClearSeek, DoSeek). EOF/SetEOF are not covered
	// by this lock; the worker calls SetEOF without holding it.
	LockSeek()
	UnlockSeek()
	// SeekPos returns the pending seek target and whether one is pending.
	// Must be called with the seek lock held.
	SeekPos() (pos int64, pending bool)
	SeekFlush() bool
	// SeekSeconds converts a playlist-relative seek offset into this
	// file's native seek units (its stream time base).
	SeekSeconds(seconds float64) int64
	// SetSeek records a pending seek; must be called with the seek lock held.
	SetSeek(pos int64, flush bool)
	// ClearSeek resets seek state to "none pending"; must be called with
	// the seek lock held.
	ClearSeek()
	// DoSeek performs the underlying seek to pos (in the file's time
	// base); must be called with the seek lock held.
	DoSeek(pos int64) error

	// EOF reports whether the demuxer has reached end of stream.
	EOF() bool
	SetEOF(eof bool)
	// FlushDecoder discards any buffered codec state (used after a seek).
	FlushDecoder()
	// HasDelay reports whether the codec needs a final empty-packet
	// drain to emit its last frames.
	HasDelay() bool

	// ReadPacket reads the next audio-stream packet, transparently
	// skipping packets from other streams. ok is false only when the
	// packet belonged to another stream and the caller should treat
	// this as a no-op iteration; err is io.EOF at genuine end of stream.
	ReadPacket() (ok bool, err error)
	// DecodeFrames decodes every frame obtainable from the most recently
	// read packet.
	DecodeFrames() ([]RawFrame, error)
	// DrainDelayed flushes any frames buffered inside the codec after
	// EOF, for codecs where HasDelay is true.
	DrainDelayed() (frames []RawFrame, gotAny bool)
}

package engine

import (
	"io"
)

// fakeBackend is a no-op filterBackend: it records Build calls and lets
// WriteFrame/Pull pass RawFrames straight through a per-group channel-like
// slice, enough to exercise FilterGraph's rebuild-trigger logic and the
// worker's decode loop without linking libavfilter.
type fakeBackend struct {
	buildCount int
	lastGroups []GroupSpec
	pending    [][]RawFrame // indexed by group
}

func newFakeBackend() *fakeBackend { return &fakeBackend{} }

func (b *fakeBackend) Build(input AudioFormat, timeBase TimeBase, clampedVolume float64, groups []GroupSpec) error {
	b.buildCount++
	b.lastGroups = groups
	b.pending = make([][]RawFrame, len(groups))
	return nil
}

func (b *fakeBackend) WriteFrame(f RawFrame) error {
	for i := range b.pending {
		b.pending[i] = append(b.pending[i], f)
	}
	return nil
}

func (b *fakeBackend) Pull(groupIndex int, sampleCount int) ([]RawFrame, error) {
	if groupIndex >= len(b.pending) {
		return nil, nil
	}
	out := b.pending[groupIndex]
	b.pending[groupIndex] = nil
	return out, nil
}

// fakeFile is an in-memory SourceFile backed by a fixed slice of frames,
// standing in for engine/avfile.File in tests that must not link
// libavformat/libavfilter.
type fakeFile struct {
	format   AudioFormat
	timeBase TimeBase
	frames   []RawFrame
	idx      int
	hasDelay bool

	clock   float64
	paused  bool
	aborted bool

	seekPos     int64
	seekPending bool
	seekFlush   bool
	eof         bool

	doSeekFn func(pos int64) error
}

func newFakeFile(format AudioFormat, frames []RawFrame) *fakeFile {
	return &fakeFile{format: format, timeBase: TimeBase{Num: 1, Den: format.SampleRate}, frames: frames}
}

func (f *fakeFile) InputFormat() AudioFormat    { return f.format }
func (f *fakeFile) TimeBase() TimeBase          { return f.timeBase }
func (f *fakeFile) AudioClock() float64         { return f.clock }
func (f *fakeFile) SetAudioClock(seconds float64) { f.clock = seconds }
func (f *fakeFile) AbortRequested() bool        { return f.aborted }
func (f *fakeFile) Pause()                      { f.paused = true }
func (f *fakeFile) Resume()                     { f.paused = false }
func (f *fakeFile) LockSeek()                   {}
func (f *fakeFile) UnlockSeek()                 {}
func (f *fakeFile) SeekPos() (int64, bool)      { return f.seekPos, f.seekPending }
func (f *fakeFile) SeekFlush() bool             { return f.seekFlush }
func (f *fakeFile) SeekSeconds(seconds float64) int64 {
	return int64(seconds * float64(f.format.SampleRate))
}
func (f *fakeFile) SetSeek(pos int64, flush bool) {
	f.seekPos = pos
	f.seekPending = true
	f.seekFlush = flush
}
func (f *fakeFile) ClearSeek() { f.seekPending = false }
func (f *fakeFile) DoSeek(pos int64) error {
	if f.doSeekFn != nil {
		return f.doSeekFn(pos)
	}
	f.idx = 0
	f.eof = false
	return nil
}
func (f *fakeFile) EOF() bool        { return f.eof }
func (f *fakeFile) SetEOF(eof bool)  { f.eof = eof }
func (f *fakeFile) FlushDecoder()    {}
func (f *fakeFile) HasDelay() bool   { return f.hasDelay }

func (f *fakeFile) ReadPacket() (bool, error) {
	if f.idx >= len(f.frames) {
		return false, io.EOF
	}
	return true, nil
}

func (f *fakeFile) DecodeFrames() ([]RawFrame, error) {
	if f.idx >= len(f.frames) {
		return nil, nil
	}
	frame := f.frames[f.idx]
	f.idx++
	return []RawFrame{frame}, nil
}

func (f *fakeFile) DrainDelayed() ([]RawFrame, bool) {
	return nil, false
}

var _ SourceFile = (*fakeFile)(nil)
var _ filterBackend = (*fakeBackend)(nil)

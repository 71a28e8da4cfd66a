package avfile

import (
	"fmt"
	"io"
	"sync"

	"github.com/asticode/go-astiav"

	"github.com/riftaudio/groovecore/engine"
)

// File opens one media source (a local path or a URL) via libavformat and
// implements engine.SourceFile against it, the Go-native shape of
// audio_decode_frame/decode_one_frame (§4.7) and the file-seek mutex
// of §5.
type File struct {
	url     string
	seeker  *HTTPSeeker // non-nil only when url was opened over HTTP
	closer  io.Closer

	formatCtx  *astiav.FormatContext
	codecCtx   *astiav.CodecContext
	streamIdx  int
	timeBase   engine.TimeBase
	format     engine.AudioFormat
	hasDelay   bool

	packet *astiav.Packet
	frame  *astiav.Frame

	clockMu sync.Mutex
	clock   float64

	seekMu      sync.Mutex
	seekPos     int64
	seekPending bool
	seekFlush   bool

	stateMu  sync.Mutex
	eof      bool
	paused   bool
	aborted  bool
}

// Open opens path (a local filesystem path or a URL understood by
// libavformat's own protocol handlers) and locates its first audio
// stream, mirroring NewFFmpegDecoder's setup sequence.
func Open(path string) (*File, error) {
	f := &File{url: path, streamIdx: -1}

	f.formatCtx = astiav.AllocFormatContext()
	if f.formatCtx == nil {
		return nil, fmt.Errorf("groovecore/avfile: failed to allocate format context")
	}
	if err := f.formatCtx.OpenInput(path, nil, nil); err != nil {
		f.formatCtx.Free()
		return nil, fmt.Errorf("groovecore/avfile: opening %s: %w", path, err)
	}
	if err := f.probeStreams(path); err != nil {
		return nil, err
	}
	return f, nil
}

// OpenURL opens url through an HTTPSeeker instead of libavformat's own
// HTTP protocol handler, so retries and range-seeking go through
// retryablehttp rather than FFmpeg's built-in client.
func OpenURL(url string) (*File, error) {
	seeker, err := NewHTTPSeeker(url)
	if err != nil {
		return nil, err
	}

	f := &File{url: url, streamIdx: -1, seeker: seeker, closer: seeker}

	f.formatCtx = astiav.AllocFormatContext()
	if f.formatCtx == nil {
		seeker.Close()
		return nil, fmt.Errorf("groovecore/avfile: failed to allocate format context")
	}

	ioCtx, err := astiav.AllocIOContext(astiav.DefaultIOContextBufferSize, false, seeker.Read, nil, seeker.Seek)
	if err != nil {
		f.formatCtx.Free()
		seeker.Close()
		return nil, fmt.Errorf("groovecore/avfile: allocating custom I/O context for %s: %w", url, err)
	}
	f.formatCtx.SetPb(ioCtx)

	if err := f.formatCtx.OpenInput("", nil, nil); err != nil {
		f.formatCtx.Free()
		seeker.Close()
		return nil, fmt.Errorf("groovecore/avfile: opening %s: %w", url, err)
	}
	if err := f.probeStreams(url); err != nil {
		return nil, err
	}
	return f, nil
}

// probeStreams runs FindStreamInfo and locates the first audio stream,
// shared between Open and OpenURL once formatCtx has an input attached.
func (f *File) probeStreams(path string) error {
	if err := f.formatCtx.FindStreamInfo(nil); err != nil {
		f.cleanup()
		return fmt.Errorf("groovecore/avfile: probing %s: %w", path, err)
	}

	for _, stream := range f.formatCtx.Streams() {
		if stream.CodecParameters().MediaType() != astiav.MediaTypeAudio {
			continue
		}
		params := stream.CodecParameters()

		codec := astiav.FindDecoder(params.CodecID())
		if codec == nil {
			f.cleanup()
			return fmt.Errorf("groovecore/avfile: no decoder for codec %v", params.CodecID())
		}
		f.codecCtx = astiav.AllocCodecContext(codec)
		if f.codecCtx == nil {
			f.cleanup()
			return fmt.Errorf("groovecore/avfile: failed to allocate codec context")
		}
		if err := params.ToCodecContext(f.codecCtx); err != nil {
			f.cleanup()
			return fmt.Errorf("groovecore/avfile: copying codec parameters: %w", err)
		}
		if err := f.codecCtx.Open(codec, nil); err != nil {
			f.cleanup()
			return fmt.Errorf("groovecore/avfile: opening codec %s: %w", codec.Name(), err)
		}

		f.streamIdx = stream.Index()
		f.timeBase = engine.TimeBase{Num: stream.TimeBase().Num(), Den: stream.TimeBase().Den()}
		f.format = engine.AudioFormat{
			SampleRate:   f.codecCtx.SampleRate(),
			ChannelLayout: engine.ChannelLayout{Channels: params.ChannelLayout().Channels()},
			SampleFormat: fromAstiavSampleFormat(f.codecCtx.SampleFormat()),
		}
		f.hasDelay = codecHasDelay(codec.ID())
		break
	}
	if f.streamIdx < 0 {
		f.cleanup()
		return fmt.Errorf("groovecore/avfile: %s has no audio stream", path)
	}

	f.packet = astiav.AllocPacket()
	f.frame = astiav.AllocFrame()
	if f.packet == nil || f.frame == nil {
		f.cleanup()
		return fmt.Errorf("groovecore/avfile: failed to allocate packet/frame")
	}
	return nil
}

func (f *File) cleanup() {
	if f.packet != nil {
		f.packet.Free()
	}
	if f.frame != nil {
		f.frame.Free()
	}
	if f.codecCtx != nil {
		f.codecCtx.Free()
	}
	if f.formatCtx != nil {
		f.formatCtx.CloseInput()
		f.formatCtx.Free()
	}
	if f.closer != nil {
		f.closer.Close()
	}
}

// Close releases every resource Open acquired. The playlist never calls
// this itself (§4.6 leaves file lifetime to the caller); callers should
// invoke it once an Item has been removed and is no longer reachable
// from a decode worker.
func (f *File) Close() error {
	f.stateMu.Lock()
	f.aborted = true
	f.stateMu.Unlock()
	f.cleanup()
	return nil
}

func (f *File) InputFormat() engine.AudioFormat { return f.format }
func (f *File) TimeBase() engine.TimeBase       { return f.timeBase }

func (f *File) AudioClock() float64 {
	f.clockMu.Lock()
	defer f.clockMu.Unlock()
	return f.clock
}

func (f *File) SetAudioClock(seconds float64) {
	f.clockMu.Lock()
	f.clock = seconds
	f.clockMu.Unlock()
}

func (f *File) AbortRequested() bool {
	f.stateMu.Lock()
	defer f.stateMu.Unlock()
	return f.aborted
}

func (f *File) Pause() {
	f.stateMu.Lock()
	f.paused = true
	f.stateMu.Unlock()
}

func (f *File) Resume() {
	f.stateMu.Lock()
	f.paused = false
	f.stateMu.Unlock()
}

func (f *File) LockSeek()   { f.seekMu.Lock() }
func (f *File) UnlockSeek() { f.seekMu.Unlock() }

func (f *File) SeekPos() (int64, bool) { return f.seekPos, f.seekPending }
func (f *File) SeekFlush() bool        { return f.seekFlush }

// SeekSeconds converts a playlist-relative offset into the stream's own
// time base units, matching av_rescale_q(seconds * AV_TIME_BASE,
// AV_TIME_BASE_Q, stream->time_base).
func (f *File) SeekSeconds(seconds float64) int64 {
	if f.timeBase.Num == 0 || f.timeBase.Den == 0 {
		return 0
	}
	return int64(seconds * float64(f.timeBase.Den) / float64(f.timeBase.Num))
}

func (f *File) SetSeek(pos int64, flush bool) {
	f.seekPos = pos
	f.seekPending = true
	f.seekFlush = flush
}

func (f *File) ClearSeek() {
	f.seekPending = false
}

// DoSeek performs the actual av_seek_frame call on the audio stream.
func (f *File) DoSeek(pos int64) error {
	if err := f.formatCtx.SeekFrame(f.streamIdx, pos, astiav.SeekFlagBackward); err != nil {
		return fmt.Errorf("groovecore/avfile: seek failed: %w", err)
	}
	f.stateMu.Lock()
	f.eof = false
	f.stateMu.Unlock()
	return nil
}

func (f *File) EOF() bool {
	f.stateMu.Lock()
	defer f.stateMu.Unlock()
	return f.eof
}

func (f *File) SetEOF(eof bool) {
	f.stateMu.Lock()
	f.eof = eof
	f.stateMu.Unlock()
}

// FlushDecoder discards any buffered codec state, used after a seek.
func (f *File) FlushDecoder() {
	f.codecCtx.FlushBuffers()
}

func (f *File) HasDelay() bool { return f.hasDelay }

// ReadPacket reads the next packet from the demuxer, silently skipping
// (and unreffing) packets belonging to any stream other than the audio
// stream this File was opened against.
func (f *File) ReadPacket() (bool, error) {
	for {
		if err := f.formatCtx.ReadFrame(f.packet); err != nil {
			if err == astiav.ErrEof {
				return false, io.EOF
			}
			return false, fmt.Errorf("groovecore/avfile: reading packet: %w", err)
		}
		if f.packet.StreamIndex() != f.streamIdx {
			f.packet.Unref()
			return false, nil
		}
		return true, nil
	}
}

// DecodeFrames sends the most recently read packet to the decoder and
// drains every frame it yields.
func (f *File) DecodeFrames() ([]engine.RawFrame, error) {
	defer f.packet.Unref()

	if err := f.codecCtx.SendPacket(f.packet); err != nil {
		return nil, fmt.Errorf("groovecore/avfile: sending packet: %w", err)
	}

	var out []engine.RawFrame
	for {
		if err := f.codecCtx.ReceiveFrame(f.frame); err != nil {
			if err == astiav.ErrEagain || err == astiav.ErrEof {
				break
			}
			return nil, fmt.Errorf("groovecore/avfile: receiving frame: %w", err)
		}
		out = append(out, f.frameToRaw())
		f.frame.Unref()
	}
	return out, nil
}

// DrainDelayed flushes a delay-codec's remaining frames by sending a nil
// packet and reading until it reports exhaustion, matching
// decode_one_frame's end-of-file delay handling.
func (f *File) DrainDelayed() ([]engine.RawFrame, bool) {
	if err := f.codecCtx.SendPacket(nil); err != nil {
		return nil, false
	}
	var out []engine.RawFrame
	for {
		if err := f.codecCtx.ReceiveFrame(f.frame); err != nil {
			break
		}
		out = append(out, f.frameToRaw())
		f.frame.Unref()
	}
	return out, len(out) > 0
}

func (f *File) frameToRaw() engine.RawFrame {
	nbSamples := f.frame.NbSamples()
	sf := fromAstiavSampleFormat(f.frame.SampleFormat())
	channels := f.format.ChannelLayout.Channels

	buf := make([]byte, nbSamples*channels*sf.BytesPerSample())
	n, _ := f.frame.SamplesCopyToBuffer(buf, 1)

	raw := engine.RawFrame{
		FrameCount: nbSamples,
		Format: engine.AudioFormat{
			SampleRate:    f.format.SampleRate,
			ChannelLayout: f.format.ChannelLayout,
			SampleFormat:  sf,
		},
	}
	if sf.Planar() && channels > 1 {
		raw.Planes = splitPlanes(buf[:n], channels)
	} else {
		raw.Planes = [][]byte{buf[:n]}
	}

	if pts := f.frame.Pts(); pts != astiav.NoPtsValue {
		raw.HasPTS = true
		raw.Pos = float64(pts) * float64(f.timeBase.Num) / float64(f.timeBase.Den)
	}
	return raw
}

func splitPlanes(buf []byte, channels int) [][]byte {
	planeSize := len(buf) / channels
	planes := make([][]byte, channels)
	for i := 0; i < channels; i++ {
		planes[i] = buf[i*planeSize : (i+1)*planeSize]
	}
	return planes
}

func fromAstiavSampleFormat(sf astiav.SampleFormat) engine.SampleFormat {
	switch sf {
	case astiav.SampleFormatU8:
		return engine.SampleFormatU8
	case astiav.SampleFormatU8p:
		return engine.SampleFormatU8P
	case astiav.SampleFormatS16:
		return engine.SampleFormatS16
	case astiav.SampleFormatS16p:
		return engine.SampleFormatS16P
	case astiav.SampleFormatS32:
		return engine.SampleFormatS32
	case astiav.SampleFormatS32p:
		return engine.SampleFormatS32P
	case astiav.SampleFormatFlt:
		return engine.SampleFormatFlt
	case astiav.SampleFormatFltp:
		return engine.SampleFormatFltP
	case astiav.SampleFormatDbl:
		return engine.SampleFormatDbl
	case astiav.SampleFormatDblp:
		return engine.SampleFormatDblP
	default:
		return engine.SampleFormatUnknown
	}
}

// codecHasDelay reports whether codec id typically buffers frames
// internally and therefore needs the empty-packet flush DrainDelayed
// performs. AAC and many other modern codecs do; this mirrors the set
// decode_one_frame treats as delay codecs.
func codecHasDelay(id astiav.CodecID) bool {
	switch id {
	case astiav.CodecIDAac, astiav.CodecIDMp3, astiav.CodecIDVorbis, astiav.CodecIDOpus:
		return true
	default:
		return false
	}
}

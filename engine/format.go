package engine

import "fmt"

// SampleFormat names an audio sample format in the manner of FFmpeg's
// AVSampleFormat, without depending on the media framework's concrete type.
type SampleFormat int

const (
	SampleFormatUnknown SampleFormat = iota
	SampleFormatU8
	SampleFormatS16
	SampleFormatS32
	SampleFormatFlt
	SampleFormatDbl
	SampleFormatU8P
	SampleFormatS16P
	SampleFormatS32P
	SampleFormatFltP
	SampleFormatDblP
)

func (f SampleFormat) String() string {
	switch f {
	case SampleFormatU8:
		return "u8"
	case SampleFormatS16:
		return "s16"
	case SampleFormatS32:
		return "s32"
	case SampleFormatFlt:
		return "flt"
	case SampleFormatDbl:
		return "dbl"
	case SampleFormatU8P:
		return "u8p"
	case SampleFormatS16P:
		return "s16p"
	case SampleFormatS32P:
		return "s32p"
	case SampleFormatFltP:
		return "fltp"
	case SampleFormatDblP:
		return "dblp"
	default:
		return "unknown"
	}
}

// BytesPerSample returns the size in bytes of one sample in this format.
func (f SampleFormat) BytesPerSample() int {
	switch f {
	case SampleFormatU8, SampleFormatU8P:
		return 1
	case SampleFormatS16, SampleFormatS16P:
		return 2
	case SampleFormatS32, SampleFormatFlt, SampleFormatS32P, SampleFormatFltP:
		return 4
	case SampleFormatDbl, SampleFormatDblP:
		return 8
	default:
		return 0
	}
}

// Planar reports whether samples of this format are stored one plane per
// channel rather than interleaved.
func (f SampleFormat) Planar() bool {
	switch f {
	case SampleFormatU8P, SampleFormatS16P, SampleFormatS32P, SampleFormatFltP, SampleFormatDblP:
		return true
	default:
		return false
	}
}

// ChannelLayout identifies a channel count and arrangement. Only the
// channel count is modeled; it is sufficient for format-equivalence checks
// and byte-size arithmetic, which is all this engine needs of it.
type ChannelLayout struct {
	Channels int
	// Mask mirrors an AVChannelLayout-style bitmask when known; zero means
	// "unspecified, Channels is authoritative".
	Mask uint64
}

func (c ChannelLayout) String() string {
	return fmt.Sprintf("%dch", c.Channels)
}

// AudioFormat fully describes a PCM stream's shape.
type AudioFormat struct {
	SampleRate    int
	ChannelLayout ChannelLayout
	SampleFormat  SampleFormat
}

// Equal reports whether two formats describe identical PCM layouts.
func (f AudioFormat) Equal(other AudioFormat) bool {
	return f.SampleRate == other.SampleRate &&
		f.ChannelLayout.Channels == other.ChannelLayout.Channels &&
		f.SampleFormat == other.SampleFormat
}

// BytesPerFrame returns the number of bytes one PCM frame (one sample per
// channel) occupies in this format.
func (f AudioFormat) BytesPerFrame() int {
	return f.ChannelLayout.Channels * f.SampleFormat.BytesPerSample()
}

func (f AudioFormat) String() string {
	return fmt.Sprintf("%dHz %s %s", f.SampleRate, f.ChannelLayout, f.SampleFormat)
}

// TimeBase mirrors an AVRational time base (num/den seconds per tick).
type TimeBase struct {
	Num, Den int
}

func (t TimeBase) Equal(other TimeBase) bool {
	return t.Num == other.Num && t.Den == other.Den
}

package avfile

import (
	"fmt"

	"github.com/asticode/go-astiav"

	"github.com/riftaudio/groovecore/engine"
)

// graphTerminal is one SinkMap group's path through the filter graph: an
// optional format-convert node feeding a buffersink, matching one branch
// of init_filter_graph's per-group fan-out.
type graphTerminal struct {
	convertCtx *astiav.FilterContext
	sinkCtx    *astiav.FilterContext
	format     engine.AudioFormat
	sampleCount int
}

// Graph adapts engine.FilterGraph's filterBackend seam to libavfilter,
// built as source -> volume? -> split? -> per-group(aformat? -> buffersink),
// exactly the topology init_filter_graph constructs.
type Graph struct {
	ag *astiav.FilterGraph

	srcCtx    *astiav.FilterContext
	volumeCtx *astiav.FilterContext // nil when volume is 1.0

	terminals []graphTerminal

	frame *astiav.Frame

	// lastPos is the absolute source-clock position, in seconds, of the
	// most recent frame pushed via WriteFrame. Pulled output frames are
	// stamped with it since astiav does not expose a pts readback for
	// abuffersink frames scaled back to the source time base.
	lastPos float64
}

// NewGraph creates an unconfigured Graph; Build must be called before
// WriteFrame or Pull.
func NewGraph() *Graph {
	return &Graph{frame: astiav.AllocFrame()}
}

// Build tears down any existing graph and links a fresh one for the
// given input format and per-group terminal requirements, following
// init_filter_graph/maybe_init_filter_graph's construction order.
func (g *Graph) Build(input engine.AudioFormat, timeBase engine.TimeBase, clampedVolume float64, groups []engine.GroupSpec) error {
	if g.ag != nil {
		g.ag.Free()
	}
	g.ag = astiav.AllocFilterGraph()
	if g.ag == nil {
		return fmt.Errorf("groovecore/avfile: failed to allocate filter graph")
	}

	abuffer := astiav.FindFilterByName("abuffer")
	if abuffer == nil {
		return fmt.Errorf("groovecore/avfile: abuffer filter not found")
	}
	args := fmt.Sprintf(
		"time_base=%d/%d:sample_rate=%d:sample_fmt=%s:channel_layout=%dc",
		timeBase.Num, timeBase.Den, input.SampleRate,
		toAstiavSampleFormat(input.SampleFormat).Name(), input.ChannelLayout.Channels,
	)
	srcCtx, err := g.ag.NewFilterContext(abuffer, "src", args)
	if err != nil {
		return fmt.Errorf("groovecore/avfile: creating abuffer: %w", err)
	}
	g.srcCtx = srcCtx

	last := srcCtx
	if clampedVolume != 1.0 {
		volumeFilter := astiav.FindFilterByName("volume")
		if volumeFilter == nil {
			return fmt.Errorf("groovecore/avfile: volume filter not found")
		}
		volumeCtx, err := g.ag.NewFilterContext(volumeFilter, "vol", fmt.Sprintf("volume=%f", clampedVolume))
		if err != nil {
			return fmt.Errorf("groovecore/avfile: creating volume filter: %w", err)
		}
		if err := last.Link(0, volumeCtx, 0); err != nil {
			return fmt.Errorf("groovecore/avfile: linking volume filter: %w", err)
		}
		g.volumeCtx = volumeCtx
		last = volumeCtx
	} else {
		g.volumeCtx = nil
	}

	var splitOutputs []*astiav.FilterContext
	if len(groups) > 1 {
		asplit := astiav.FindFilterByName("asplit")
		if asplit == nil {
			return fmt.Errorf("groovecore/avfile: asplit filter not found")
		}
		splitCtx, err := g.ag.NewFilterContext(asplit, "split", fmt.Sprintf("%d", len(groups)))
		if err != nil {
			return fmt.Errorf("groovecore/avfile: creating asplit: %w", err)
		}
		if err := last.Link(0, splitCtx, 0); err != nil {
			return fmt.Errorf("groovecore/avfile: linking asplit: %w", err)
		}
		for i := range groups {
			splitOutputs = append(splitOutputs, splitCtx)
			_ = i
		}
	} else {
		splitOutputs = []*astiav.FilterContext{last}
	}

	g.terminals = make([]graphTerminal, len(groups))
	for i, spec := range groups {
		branch := splitOutputs[i]
		branchPad := 0
		if len(groups) > 1 {
			branchPad = i
		}

		term := graphTerminal{format: spec.Format, sampleCount: spec.BufferSampleCount}

		feed := branch
		feedPad := branchPad
		if !spec.DisableResample {
			aformat := astiav.FindFilterByName("aformat")
			if aformat == nil {
				return fmt.Errorf("groovecore/avfile: aformat filter not found")
			}
			fargs := fmt.Sprintf("sample_fmts=%s:sample_rates=%d:channel_layouts=%dc",
				toAstiavSampleFormat(spec.Format.SampleFormat).Name(), spec.Format.SampleRate, spec.Format.ChannelLayout.Channels)
			convertCtx, err := g.ag.NewFilterContext(aformat, fmt.Sprintf("fmt%d", i), fargs)
			if err != nil {
				return fmt.Errorf("groovecore/avfile: creating aformat: %w", err)
			}
			if err := feed.Link(feedPad, convertCtx, 0); err != nil {
				return fmt.Errorf("groovecore/avfile: linking aformat: %w", err)
			}
			term.convertCtx = convertCtx
			feed = convertCtx
			feedPad = 0
		}

		abuffersink := astiav.FindFilterByName("abuffersink")
		if abuffersink == nil {
			return fmt.Errorf("groovecore/avfile: abuffersink filter not found")
		}
		sinkCtx, err := g.ag.NewFilterContext(abuffersink, fmt.Sprintf("sink%d", i), "")
		if err != nil {
			return fmt.Errorf("groovecore/avfile: creating abuffersink: %w", err)
		}
		if err := feed.Link(feedPad, sinkCtx, 0); err != nil {
			return fmt.Errorf("groovecore/avfile: linking abuffersink: %w", err)
		}
		term.sinkCtx = sinkCtx

		g.terminals[i] = term
	}

	if err := g.ag.Configure(); err != nil {
		return fmt.Errorf("groovecore/avfile: configuring filter graph: %w", err)
	}
	return nil
}

// WriteFrame copies a RawFrame's PCM into an astiav.Frame and pushes it
// into the graph's source node.
func (g *Graph) WriteFrame(f engine.RawFrame) error {
	g.frame.Unref()
	g.frame.SetNbSamples(f.FrameCount)
	g.frame.SetSampleFormat(toAstiavSampleFormat(f.Format.SampleFormat))
	g.frame.SetSampleRate(f.Format.SampleRate)

	if err := g.frame.AllocBuffer(0); err != nil {
		return fmt.Errorf("groovecore/avfile: allocating frame buffer: %w", err)
	}
	for i, plane := range f.Planes {
		copy(g.frame.Data().Bytes(i), plane)
	}

	if err := g.srcCtx.BuffersrcAddFrame(g.frame, astiav.NewBuffersrcFlags()); err != nil {
		return fmt.Errorf("groovecore/avfile: pushing frame to filter graph: %w", err)
	}
	g.lastPos = f.Pos
	return nil
}

// Pull drains every frame currently available at groupIndex's terminal,
// optionally requesting fixed-size reads when sampleCount is non-zero.
func (g *Graph) Pull(groupIndex int, sampleCount int) ([]engine.RawFrame, error) {
	term := g.terminals[groupIndex]

	var out []engine.RawFrame
	tmp := astiav.AllocFrame()
	defer tmp.Free()

	for {
		if err := term.sinkCtx.BuffersinkGetFrame(tmp, astiav.NewBuffersinkFlags()); err != nil {
			if err == astiav.ErrEagain || err == astiav.ErrEof {
				break
			}
			return out, fmt.Errorf("groovecore/avfile: pulling from filter graph: %w", err)
		}
		if sampleCount > 0 && tmp.NbSamples() < sampleCount {
			tmp.Unref()
			continue
		}
		out = append(out, rawFromFilterFrame(tmp, term.format, g.lastPos))
		tmp.Unref()
	}
	return out, nil
}

func rawFromFilterFrame(frame *astiav.Frame, format engine.AudioFormat, pos float64) engine.RawFrame {
	nbSamples := frame.NbSamples()
	buf := make([]byte, nbSamples*format.BytesPerFrame())
	n, _ := frame.SamplesCopyToBuffer(buf, 1)

	raw := engine.RawFrame{FrameCount: nbSamples, Format: format, HasPTS: true, Pos: pos}
	if format.SampleFormat.Planar() && format.ChannelLayout.Channels > 1 {
		raw.Planes = splitPlanes(buf[:n], format.ChannelLayout.Channels)
	} else {
		raw.Planes = [][]byte{buf[:n]}
	}
	return raw
}

func toAstiavSampleFormat(sf engine.SampleFormat) astiav.SampleFormat {
	switch sf {
	case engine.SampleFormatU8:
		return astiav.SampleFormatU8
	case engine.SampleFormatU8P:
		return astiav.SampleFormatU8p
	case engine.SampleFormatS16:
		return astiav.SampleFormatS16
	case engine.SampleFormatS16P:
		return astiav.SampleFormatS16p
	case engine.SampleFormatS32:
		return astiav.SampleFormatS32
	case engine.SampleFormatS32P:
		return astiav.SampleFormatS32p
	case engine.SampleFormatFlt:
		return astiav.SampleFormatFlt
	case engine.SampleFormatFltP:
		return astiav.SampleFormatFltp
	case engine.SampleFormatDbl:
		return astiav.SampleFormatDbl
	case engine.SampleFormatDblP:
		return astiav.SampleFormatDblp
	default:
		return astiav.SampleFormatNone
	}
}

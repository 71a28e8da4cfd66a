package engine

import (
	"fmt"
	"sync"
)

// GroupSpec describes one SinkMap group's requirements to the filter
// graph backend: the output format its terminal node must produce (or,
// when DisableResample is set, no format-convert node at all) and
// whether it wants fixed- or variable-size pulls. Exported so that
// out-of-package filterBackend implementations (engine/avfile.Graph) can
// read it.
type GroupSpec struct {
	Format            AudioFormat
	BufferSampleCount int
	DisableResample   bool
}

// filterBackend is implemented by the media framework collaborator
// adapter (engine/avfile.Graph in production, against go-astiav's
// libavfilter bindings). This is the accept-an-interface seam that lets
// FilterGraph's rebuild-trigger logic be tested without linking
// libavfilter.
type filterBackend interface {
	// Build tears down any existing graph and constructs:
	//   source -> volume? -> split? -> per-group(format-convert? -> terminal)
	// in that link order, one terminal per entry in groups.
	Build(input AudioFormat, timeBase TimeBase, clampedVolume float64, groups []GroupSpec) error
	// WriteFrame pushes one decoded source frame into the graph's source node.
	WriteFrame(f RawFrame) error
	// Pull drains as many frames as are currently available from the
	// given group index's terminal node. sampleCount == 0 means
	// variable-size frames, matching the group's bufferSampleCount.
	Pull(groupIndex int, sampleCount int) ([]RawFrame, error)
}

// FilterGraph adapts the external media framework's filter-graph
// collaborator, rebuilding the topology whenever input format, sink
// membership, or volume invalidates it (§4.5).
type FilterGraph struct {
	backend filterBackend

	// mu guards built/inputFormat/timeBase/filterVolume/rebuildFlag. These
	// are read and cleared by ensure (called from the decode worker,
	// without coord.mu held) and written by markRebuild (called from
	// Attach/Detach with coord.mu held); a dedicated mutex keeps the two
	// call sites from racing without forcing the coordinator lock to be
	// held across a filter graph rebuild.
	mu sync.Mutex

	built        bool
	inputFormat  AudioFormat
	timeBase     TimeBase
	filterVolume float64 // the raw (unclamped) volume value the graph was last built with
	rebuildFlag  bool
}

func newFilterGraph(backend filterBackend) *FilterGraph {
	return &FilterGraph{backend: backend}
}

// ensure rebuilds the graph if required by §4.5's conditions: no graph
// yet, an explicit rebuild request (sink membership changed), the
// input's format or time base changed, or volume no longer matches the
// value the graph was built with.
func (g *FilterGraph) ensure(input AudioFormat, timeBase TimeBase, volume float64, groups []GroupSpec) error {
	g.mu.Lock()
	needsRebuild := !g.built ||
		g.rebuildFlag ||
		!g.inputFormat.Equal(input) ||
		!g.timeBase.Equal(timeBase) ||
		volume != g.filterVolume
	if !needsRebuild {
		g.mu.Unlock()
		return nil
	}
	g.mu.Unlock()

	clamped := volume
	if clamped > 1.0 {
		clamped = 1.0
	} else if clamped < 0.0 {
		clamped = 0.0
	}

	if err := g.backend.Build(input, timeBase, clamped, groups); err != nil {
		return fmt.Errorf("filter graph rebuild failed: %w", err)
	}

	g.mu.Lock()
	g.built = true
	g.inputFormat = input
	g.timeBase = timeBase
	g.filterVolume = volume
	g.rebuildFlag = false
	g.mu.Unlock()
	return nil
}

// markRebuild requests an unconditional rebuild on the next ensure call,
// used whenever SinkMap membership changes.
func (g *FilterGraph) markRebuild() {
	g.mu.Lock()
	g.rebuildFlag = true
	g.mu.Unlock()
}

// WriteFrame pushes one decoded source frame into the graph.
func (g *FilterGraph) WriteFrame(f RawFrame) error { return g.backend.WriteFrame(f) }

// Pull drains available output frames for one sink group.
func (g *FilterGraph) Pull(groupIndex, sampleCount int) ([]RawFrame, error) {
	return g.backend.Pull(groupIndex, sampleCount)
}

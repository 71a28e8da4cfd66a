package engine

import "github.com/riftaudio/groovecore/sharedutil"

// sinkGroup is one SinkMap entry: a stack of sinks sharing an equivalent
// output format, served by one filter-graph tail (identified by this
// group's position in sinkMap.groups, which FilterGraph.Pull takes as
// groupIndex). The representative is always sinks[0], mirroring the C
// SinkStack's head-is-representative invariant.
type sinkGroup struct {
	sinks []*Sink
}

func (g *sinkGroup) representative() *Sink { return g.sinks[0] }

// sinkMap groups a playlist's sinks by equivalent output format. Every
// successful add or remove calls onChange, which the owning playlist wires
// to FilterGraph.markRebuild; callers must hold the coordinator lock.
type sinkMap struct {
	groups []*sinkGroup
	onChange func()
}

// groupCount returns the number of distinct format groups, used to decide
// whether the filter graph needs an asplit node.
func (m *sinkMap) groupCount() int { return len(m.groups) }

// add inserts sink into the group whose representative is format-
// equivalent, or creates a new single-sink group.
func (m *sinkMap) add(s *Sink) error {
	for _, g := range m.groups {
		if g.representative().formatsEqual(s) {
			g.sinks = append(g.sinks, s)
			if m.onChange != nil {
				m.onChange()
			}
			return nil
		}
	}
	m.groups = append(m.groups, &sinkGroup{sinks: []*Sink{s}})
	if m.onChange != nil {
		m.onChange()
	}
	return nil
}

// remove locates sink by identity and pops it from its group's stack,
// removing the group entirely if it becomes empty.
func (m *sinkMap) remove(s *Sink) error {
	for gi, g := range m.groups {
		idx := -1
		for i, sk := range g.sinks {
			if sk == s {
				idx = i
				break
			}
		}
		if idx < 0 {
			continue
		}
		g.sinks = sharedutil.FilterSlice(g.sinks, func(sk *Sink) bool { return sk != s })
		if len(g.sinks) == 0 {
			m.groups = append(m.groups[:gi], m.groups[gi+1:]...)
		}
		if m.onChange != nil {
			m.onChange()
		}
		return nil
	}
	return ErrSinkNotFound
}

// allSinks returns every sink across every group, in group order then
// stack order, matching every_sink's traversal in the original.
func (m *sinkMap) allSinks() []*Sink {
	var out []*Sink
	for _, g := range m.groups {
		out = append(out, g.sinks...)
	}
	return out
}

// forEachSink calls fn for every sink across every group, stopping early
// and returning the first non-default value fn reports, mirroring the
// original's every_sink helper. If every call returns the default, that
// default is returned.
func forEachSink(m *sinkMap, fn func(*Sink) bool, defaultVal bool) bool {
	for _, g := range m.groups {
		for _, s := range g.sinks {
			if v := fn(s); v != defaultVal {
				return v
			}
		}
	}
	return defaultVal
}

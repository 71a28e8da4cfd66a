package engine

import "testing"

func TestSinkMapGroupsByFormat(t *testing.T) {
	var changes int
	m := &sinkMap{onChange: func() { changes++ }}

	sA1 := NewSink(WithFormat(testFormat()))
	sA2 := NewSink(WithFormat(testFormat()))
	other := AudioFormat{SampleRate: 48000, ChannelLayout: ChannelLayout{Channels: 2}, SampleFormat: SampleFormatFltP}
	sB := NewSink(WithFormat(other))

	if err := m.add(sA1); err != nil {
		t.Fatalf("add sA1: %v", err)
	}
	if err := m.add(sA2); err != nil {
		t.Fatalf("add sA2: %v", err)
	}
	if err := m.add(sB); err != nil {
		t.Fatalf("add sB: %v", err)
	}

	if got, want := m.groupCount(), 2; got != want {
		t.Fatalf("groupCount() = %d, want %d", got, want)
	}
	if changes != 3 {
		t.Fatalf("expected onChange called 3 times, got %d", changes)
	}

	allSinks := m.allSinks()
	if len(allSinks) != 3 {
		t.Fatalf("allSinks() returned %d sinks, want 3", len(allSinks))
	}
}

func TestSinkMapRemoveDropsEmptyGroup(t *testing.T) {
	m := &sinkMap{}
	s := NewSink(WithFormat(testFormat()))
	if err := m.add(s); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := m.remove(s); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if got, want := m.groupCount(), 0; got != want {
		t.Fatalf("groupCount() = %d, want %d after removing only sink in group", got, want)
	}
	if err := m.remove(s); err != ErrSinkNotFound {
		t.Fatalf("expected ErrSinkNotFound removing an absent sink, got %v", err)
	}
}

func TestForEachSinkDefaultsAndShortCircuits(t *testing.T) {
	m := &sinkMap{}
	s1 := NewSink(WithFormat(testFormat()))
	s2 := NewSink(WithFormat(testFormat()))
	m.add(s1)
	m.add(s2)

	var visited int
	result := forEachSink(m, func(s *Sink) bool {
		visited++
		return true // differs from defaultVal=false, short-circuits immediately
	}, false)
	if !result {
		t.Fatalf("expected short-circuit result true")
	}
	if visited != 1 {
		t.Fatalf("expected exactly 1 visit before short-circuit, got %d", visited)
	}

	visited = 0
	result = forEachSink(m, func(s *Sink) bool {
		visited++
		return false // equals defaultVal, no short-circuit
	}, false)
	if result {
		t.Fatalf("expected default result false")
	}
	if visited != 2 {
		t.Fatalf("expected both sinks visited, got %d", visited)
	}
}

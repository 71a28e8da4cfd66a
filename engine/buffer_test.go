package engine

import "testing"

func testFormat() AudioFormat {
	return AudioFormat{SampleRate: 44100, ChannelLayout: ChannelLayout{Channels: 2}, SampleFormat: SampleFormatS16}
}

func TestBufferRefUnrefReleasesAtZero(t *testing.T) {
	it := &Item{}
	buf := newBuffer(it, RawFrame{Planes: [][]byte{{1, 2, 3, 4}}, FrameCount: 1, Format: testFormat()})

	buf.Ref()
	buf.Ref()

	if buf.Data() == nil {
		t.Fatalf("expected data to be present before any Unref")
	}

	buf.Unref()
	if buf.Data() == nil {
		t.Fatalf("data freed too early: refcount should still be 2")
	}
	buf.Unref()
	if buf.Data() == nil {
		t.Fatalf("data freed too early: refcount should still be 1")
	}
	buf.Unref()
	if buf.Data() != nil {
		t.Fatalf("expected data to be released once refcount reaches zero")
	}
}

func TestBufferBelongsTo(t *testing.T) {
	itemA := &Item{}
	itemB := &Item{}
	buf := newBuffer(itemA, RawFrame{Planes: [][]byte{{1}}, FrameCount: 1, Format: testFormat()})

	if !buf.belongsTo(itemA) {
		t.Errorf("expected buffer to belong to itemA")
	}
	if buf.belongsTo(itemB) {
		t.Errorf("expected buffer not to belong to itemB")
	}
}

func TestBufferSizeSumsPlanes(t *testing.T) {
	buf := newBuffer(&Item{}, RawFrame{
		Planes:     [][]byte{{1, 2, 3}, {4, 5}},
		FrameCount: 3,
		Format:     testFormat(),
	})
	if got, want := buf.Size(), 5; got != want {
		t.Errorf("Size() = %d, want %d", got, want)
	}
}

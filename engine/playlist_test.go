package engine

import "testing"

func TestPlaylistInsertOrderingAndDecodeHead(t *testing.T) {
	p := NewPlaylist(newFakeBackend())

	f1 := newFakeFile(testFormat(), nil)
	f2 := newFakeFile(testFormat(), nil)
	f3 := newFakeFile(testFormat(), nil)

	item1, err := p.Insert(f1, 1.0, nil)
	if err != nil {
		t.Fatalf("Insert item1: %v", err)
	}
	item3, err := p.Insert(f3, 1.0, nil)
	if err != nil {
		t.Fatalf("Insert item3: %v", err)
	}
	item2, err := p.Insert(f2, 1.0, item3)
	if err != nil {
		t.Fatalf("Insert item2: %v", err)
	}

	if p.decodeHead != item1 {
		t.Fatalf("expected decode head to be the first inserted item")
	}
	if item1.Next() != item2 || item2.Next() != item3 || item3.Next() != nil {
		t.Fatalf("unexpected list ordering after inserting item2 before item3")
	}
	if item3.Prev() != item2 || item2.Prev() != item1 {
		t.Fatalf("unexpected prev pointers")
	}
	if got, want := p.Count(), 3; got != want {
		t.Fatalf("Count() = %d, want %d", got, want)
	}
}

func TestPlaylistRemoveAdvancesDecodeHeadAndUnlinks(t *testing.T) {
	p := NewPlaylist(newFakeBackend())
	f1 := newFakeFile(testFormat(), nil)
	f2 := newFakeFile(testFormat(), nil)

	item1, _ := p.Insert(f1, 1.0, nil)
	item2, _ := p.Insert(f2, 1.0, nil)

	p.Remove(item1)

	if p.decodeHead != item2 {
		t.Fatalf("expected decode head to advance to item2 after removing item1")
	}
	if p.head != item2 || item2.Prev() != nil {
		t.Fatalf("expected item2 to become the head after removing item1")
	}
	if got, want := p.Count(), 1; got != want {
		t.Fatalf("Count() = %d, want %d", got, want)
	}
}

func TestPlaylistClearEmptiesList(t *testing.T) {
	p := NewPlaylist(newFakeBackend())
	p.Insert(newFakeFile(testFormat(), nil), 1.0, nil)
	p.Insert(newFakeFile(testFormat(), nil), 1.0, nil)

	p.Clear()

	if got, want := p.Count(), 0; got != want {
		t.Fatalf("Count() = %d, want %d after Clear", got, want)
	}
	if p.decodeHead != nil || p.head != nil || p.tail != nil {
		t.Fatalf("expected empty list pointers after Clear")
	}
}

func TestPlaylistPlayPause(t *testing.T) {
	p := NewPlaylist(newFakeBackend())
	if p.Playing() {
		t.Fatalf("expected new playlist to start paused")
	}
	p.Play()
	if !p.Playing() {
		t.Fatalf("expected Playing() true after Play()")
	}
	p.Pause()
	if p.Playing() {
		t.Fatalf("expected Playing() false after Pause()")
	}
}

func TestPlaylistSetGainAndVolume(t *testing.T) {
	p := NewPlaylist(newFakeBackend())
	item, _ := p.Insert(newFakeFile(testFormat(), nil), 1.0, nil)

	p.SetGain(item, 0.5)
	if got, want := item.Gain(), 0.5; got != want {
		t.Fatalf("Gain() = %v, want %v", got, want)
	}

	p.SetVolume(0.25)
	if got, want := p.Volume(), 0.25; got != want {
		t.Fatalf("Volume() = %v, want %v", got, want)
	}
}

func TestPlaylistPositionReflectsDecodeHead(t *testing.T) {
	p := NewPlaylist(newFakeBackend())
	if item, pos := p.Position(); item != nil || pos != 0 {
		t.Fatalf("expected nil item and zero position on empty playlist")
	}

	file := newFakeFile(testFormat(), nil)
	file.clock = 12.5
	item, _ := p.Insert(file, 1.0, nil)

	gotItem, gotPos := p.Position()
	if gotItem != item || gotPos != 12.5 {
		t.Fatalf("Position() = (%v, %v), want (%v, 12.5)", gotItem, gotPos, item)
	}
}

func TestPlaylistSinksFullRespectsFillMode(t *testing.T) {
	p := NewPlaylist(newFakeBackend())
	full := NewSink(WithFormat(testFormat()), WithBufferSize(1))
	notFull := NewSink(WithFormat(AudioFormat{SampleRate: 48000, ChannelLayout: ChannelLayout{Channels: 2}, SampleFormat: SampleFormatS16}), WithBufferSize(1000))
	full.Attach(p)
	notFull.Attach(p)

	full.queue.Put(newBuffer(&Item{}, RawFrame{Planes: [][]byte{make([]byte, full.minQueueBytes)}, FrameCount: 1, Format: testFormat()}))

	p.SetFillMode(FillEverySinkFull)
	if p.sinksFull() {
		t.Fatalf("expected sinksFull false in EverySinkFull mode while one sink is not full")
	}

	p.SetFillMode(FillAnySinkFull)
	if !p.sinksFull() {
		t.Fatalf("expected sinksFull true in AnySinkFull mode once one sink is full")
	}
}

func TestPlaylistSinksFullVacuousWithNoSinks(t *testing.T) {
	p := NewPlaylist(newFakeBackend())
	if !p.sinksFull() {
		t.Fatalf("expected EverySinkFull to be vacuously true with no sinks attached")
	}
	p.SetFillMode(FillAnySinkFull)
	if p.sinksFull() {
		t.Fatalf("expected AnySinkFull to be vacuously false with no sinks attached")
	}
}

package engine

import (
	"context"
	"testing"
	"time"
)

func TestDecodeWorkerDecodesThenSignalsEnd(t *testing.T) {
	backend := newFakeBackend()
	p := NewPlaylist(backend)

	sink := NewSink(WithFormat(testFormat()), WithBufferSize(1000))
	if err := sink.Attach(p); err != nil {
		t.Fatalf("Attach: %v", err)
	}

	frames := []RawFrame{
		{Planes: [][]byte{make([]byte, 8)}, FrameCount: 2, Format: testFormat(), HasPTS: true, Pos: 0},
		{Planes: [][]byte{make([]byte, 8)}, FrameCount: 2, Format: testFormat(), HasPTS: true, Pos: 1},
	}
	file := newFakeFile(testFormat(), frames)
	if _, err := p.Insert(file, 1.0, nil); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	p.Play()

	worker := NewDecodeWorker(p)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go worker.Run(ctx)

	got := 0
	deadline := time.After(2 * time.Second)
	for {
		type result struct {
			res BufferResult
			buf *Buffer
		}
		resCh := make(chan result, 1)
		go func() {
			res, buf := sink.BufferGet(true)
			resCh <- result{res, buf}
		}()

		select {
		case r := <-resCh:
			if r.res == BufferEnd {
				if got != len(frames) {
					t.Fatalf("got %d frames before end-of-queue, want %d", got, len(frames))
				}
				return
			}
			if r.res != BufferYes {
				t.Fatalf("unexpected BufferResult %v", r.res)
			}
			got++
			r.buf.Unref()
		case <-deadline:
			t.Fatalf("timed out waiting for decoded buffers; got %d of %d", got, len(frames))
		}
	}
}

func TestDecodeWorkerStopsOnDestroy(t *testing.T) {
	p := NewPlaylist(newFakeBackend())
	worker := NewDecodeWorker(p)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		worker.Run(ctx)
		close(done)
	}()

	p.Destroy()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after Destroy")
	}
}

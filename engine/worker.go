package engine

import (
	"context"
	"io"
	"log"
)

// DecodeWorker drives one playlist's decode loop: pull packets from the
// decode head's file, decode them, push the resulting frames through the
// filter graph, and fan the filtered output out to every attached sink.
// It is the Go-native shape of decode_thread (§4.7), run as a goroutine
// rather than a pthread.
type DecodeWorker struct {
	playlist *Playlist
}

// NewDecodeWorker creates a worker for p. Callers start it with Run in
// its own goroutine.
func NewDecodeWorker(p *Playlist) *DecodeWorker {
	return &DecodeWorker{playlist: p}
}

// Run executes the decode loop until ctx is cancelled or the playlist is
// destroyed.
func (w *DecodeWorker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		if !w.step() {
			return
		}
	}
}

// step runs one iteration of the loop, returning false once the playlist
// has been destroyed. Most of its body mirrors decode_thread's
// if/else-if chain: nothing queued, paused, backpressured, or ready to
// decode.
func (w *DecodeWorker) step() bool {
	p := w.playlist

	p.coord.mu.Lock()
	if p.destroyed {
		p.coord.mu.Unlock()
		return false
	}

	if p.decodeHead == nil {
		if !p.sentEndOfQ {
			for _, s := range p.sinkMap.allSinks() {
				s.queue.putEnd()
			}
			p.sentEndOfQ = true
		}
		p.coord.decodeHeadCond.Wait()
		p.coord.mu.Unlock()
		return true
	}

	if p.paused {
		p.coord.decodeHeadCond.Wait()
		p.coord.mu.Unlock()
		return true
	}

	if p.sinksFull() {
		p.coord.drainCond.Wait()
		p.coord.mu.Unlock()
		return true
	}

	item := p.decodeHead
	groups := w.groupSpecsLocked()
	volume := item.gain * p.volume
	p.coord.mu.Unlock()

	w.decodeOneFrame(item, groups, volume)
	return true
}

// groupSpecsLocked builds the filter graph's per-group requirements from
// the current SinkMap. Callers must hold coord.mu.
func (w *DecodeWorker) groupSpecsLocked() []GroupSpec {
	groups := w.playlist.sinkMap.groups
	specs := make([]GroupSpec, len(groups))
	for i, g := range groups {
		rep := g.representative()
		specs[i] = GroupSpec{
			Format:            rep.format,
			BufferSampleCount: rep.bufferSampleCount,
			DisableResample:   rep.disableResample,
		}
	}
	return specs
}

// decodeOneFrame services any pending seek, reads and decodes one packet
// from item's file, and pushes the resulting frames through the filter
// graph to every attached sink. It is the Go-native shape of
// decode_one_frame/audio_decode_frame.
func (w *DecodeWorker) decodeOneFrame(item *Item, groups []GroupSpec, volume float64) {
	p := w.playlist
	file := item.file

	if file.AbortRequested() {
		w.advanceDecodeHead(item)
		return
	}

	file.LockSeek()
	pos, pending := file.SeekPos()
	flush := pending && file.SeekFlush()
	if pending {
		if err := file.DoSeek(pos); err != nil {
			log.Printf("groovecore: seek failed: %v", err)
		}
		if flush {
			file.FlushDecoder()
		}
		file.ClearSeek()
	}
	file.UnlockSeek()

	if flush {
		p.coord.mu.Lock()
		for _, s := range p.sinkMap.allSinks() {
			s.queue.Flush()
		}
		p.coord.mu.Unlock()
	}

	ok, err := file.ReadPacket()
	if err == io.EOF {
		w.handleEOF(item, file, groups, volume)
		return
	}
	if err != nil {
		log.Printf("groovecore: packet read failed: %v", err)
		return
	}
	if !ok {
		return
	}

	frames, err := file.DecodeFrames()
	if err != nil {
		log.Printf("groovecore: decode failed: %v", err)
		return
	}

	if err := p.filterGraph.ensure(file.InputFormat(), file.TimeBase(), volume, groups); err != nil {
		log.Printf("groovecore: %v", err)
		return
	}

	w.writeAndDrain(item, file, frames)
}

// handleEOF drains any delayed frames still buffered inside the codec,
// then advances the decode head to the next item, exactly as
// decode_thread does when av_read_frame returns end of stream.
func (w *DecodeWorker) handleEOF(item *Item, file SourceFile, groups []GroupSpec, volume float64) {
	p := w.playlist

	if frames, gotAny := file.DrainDelayed(); gotAny {
		if err := p.filterGraph.ensure(file.InputFormat(), file.TimeBase(), volume, groups); err == nil {
			w.writeAndDrain(item, file, frames)
		} else {
			log.Printf("groovecore: %v", err)
		}
	}
	file.SetEOF(true)
	w.advanceDecodeHead(item)
}

// advanceDecodeHead moves the decode head past item once it has nothing
// left to give, the shared tail of both the natural-EOF and abort-request
// paths through decode_one_frame.
func (w *DecodeWorker) advanceDecodeHead(item *Item) {
	p := w.playlist
	p.coord.mu.Lock()
	if p.decodeHead == item {
		p.decodeHead = item.next
		if p.decodeHead != nil {
			p.coord.decodeHeadCond.Signal()
		}
	}
	p.coord.mu.Unlock()
}

// writeAndDrain pushes frames into the filter graph, updating the file's
// audio clock as it goes, then fans the graph's available output out to
// every attached sink.
func (w *DecodeWorker) writeAndDrain(item *Item, file SourceFile, frames []RawFrame) {
	p := w.playlist
	for _, f := range frames {
		if f.HasPTS {
			file.SetAudioClock(f.Pos)
		} else {
			f.Pos = file.AudioClock()
			if bps := f.Format.BytesPerFrame() * f.Format.SampleRate; bps > 0 {
				file.SetAudioClock(f.Pos + float64(f.size())/float64(bps))
			}
		}
		if err := p.filterGraph.WriteFrame(f); err != nil {
			log.Printf("groovecore: filter graph write failed: %v", err)
			return
		}
	}
	w.drainGroups(item)
}

// drainGroups pulls every currently-available output frame for each
// SinkMap group and enqueues it to every sink in that group, giving the
// Buffer one reference per sink it is handed to (frame_to_groove_buffer's
// fan-out, §4.3-4.4).
func (w *DecodeWorker) drainGroups(item *Item) {
	p := w.playlist

	type groupSinks struct {
		sinks             []*Sink
		bufferSampleCount int
	}

	p.coord.mu.Lock()
	gs := make([]groupSinks, len(p.sinkMap.groups))
	for i, g := range p.sinkMap.groups {
		gs[i] = groupSinks{
			sinks:             append([]*Sink(nil), g.sinks...),
			bufferSampleCount: g.representative().bufferSampleCount,
		}
	}
	p.coord.mu.Unlock()

	for gi, g := range gs {
		if len(g.sinks) == 0 {
			continue
		}
		frames, err := p.filterGraph.Pull(gi, g.bufferSampleCount)
		if err != nil {
			log.Printf("groovecore: filter graph pull failed: %v", err)
			continue
		}
		for _, f := range frames {
			buf := newBuffer(item, f)
			for i := 1; i < len(g.sinks); i++ {
				buf.Ref()
			}
			for _, s := range g.sinks {
				s.queue.Put(buf)
			}
		}
	}
}

package engine

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/vincesynth/vince/midi"
	"github.com/vincesynth/vince/module"
)

// Display consumes the per-video-tick snapshot: the video sink frames plus
// whatever telemetry modules expose. The renderer must treat the snapshot
// as read-only.
type Display interface {
	Render(*Snapshot) error
}

// Snapshot is the read-only view handed to the renderer once per video
// tick. Frames and Traces are keyed by module id and are copies; the
// renderer may keep them.
type Snapshot struct {
	Width, Height int
	Frames        map[int][]float64
	Traces        map[int][]float64
	DroppedBlocks uint64
}

// Config are the engine parameters.
type Config struct {
	// SampleRate is the audio tick rate.
	SampleRate float64
	// FrameRate is the video tick rate.
	FrameRate float64
	// FrameWidth and FrameHeight size the video-domain frame buffers.
	FrameWidth  int
	FrameHeight int
	// BlockSize is the number of audio ticks executed per driver pass and
	// the size of the blocks exchanged with the device.
	BlockSize int
	// QueueCap bounds the outbound block queue. When the device consumer
	// falls behind, the oldest block is dropped rather than letting the
	// queue grow.
	QueueCap int
	// Display receives video snapshots. Optional.
	Display Display
}

// Sanitize cleans things up.
func (cfg *Config) Sanitize() error {
	if cfg.SampleRate <= 0 {
		return errors.New("sample rate must be positive")
	}
	if cfg.FrameRate <= 0 {
		cfg.FrameRate = 60
	}
	if cfg.FrameWidth < 1 || cfg.FrameHeight < 1 {
		cfg.FrameWidth, cfg.FrameHeight = 80, 45
	}
	if cfg.BlockSize < 16 {
		return errors.New("block size too small (16+ required)")
	}
	if cfg.QueueCap < 1 {
		cfg.QueueCap = 8
	}
	return nil
}

// Engine owns the tick drivers. The active Program pointer is the single
// piece of state shared with the reload coordinator; everything else is
// owned by exactly one goroutine.
type Engine struct {
	cfg Config

	prog atomic.Pointer[Program]

	outQ    chan []module.Sample
	inQ     chan []module.Sample
	midiQ   chan midi.Event
	pending []midi.Event // midi events not yet due, audio driver only

	dropped atomic.Uint64
	quit    chan struct{}

	tick  uint64 // audio frames stepped, audio driver only
	vtick uint64 // video frames stepped, video driver only

	drainBuf []module.Sample
}

// New builds an engine. Call Swap with a compiled Program before Run.
func New(cfg Config) (*Engine, error) {
	if err := cfg.Sanitize(); err != nil {
		return nil, errors.Wrap(err, "invalid engine config")
	}
	return &Engine{
		cfg:      cfg,
		outQ:     make(chan []module.Sample, cfg.QueueCap),
		inQ:      make(chan []module.Sample, cfg.QueueCap),
		midiQ:    make(chan midi.Event, 256),
		quit:     make(chan struct{}),
		drainBuf: make([]module.Sample, cfg.BlockSize),
	}, nil
}

// Swap atomically replaces the active program. The drivers pick the new
// program up at their next tick boundary; no tick ever sees a half-updated
// plan.
func (e *Engine) Swap(p *Program) {
	e.prog.Store(p)
}

// Program returns the active program.
func (e *Engine) Program() *Program {
	return e.prog.Load()
}

// Dropped reports how many outbound blocks have been dropped due to
// backpressure since start.
func (e *Engine) Dropped() uint64 {
	return e.dropped.Load()
}

// Run drives the audio and video loops until the context is canceled.
func (e *Engine) Run(ctx context.Context) error {
	defer close(e.quit)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return e.audioLoop(ctx) })
	g.Go(func() error { return e.videoLoop(ctx) })
	return g.Wait()
}

func (e *Engine) audioLoop(ctx context.Context) error {
	dur := time.Duration(float64(e.cfg.BlockSize) / e.cfg.SampleRate * float64(time.Second))
	ticker := time.NewTicker(dur)
	defer ticker.Stop()

	for {
		if block := e.stepBlock(); block != nil {
			e.enqueue(block)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (e *Engine) videoLoop(ctx context.Context) error {
	dur := time.Duration(float64(time.Second) / e.cfg.FrameRate)
	ticker := time.NewTicker(dur)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		e.stepVideoFrame()
	}
}

// stepBlock runs BlockSize audio ticks against the active plan and returns
// the mixed sink output. Nothing here blocks on anything slower than memory.
func (e *Engine) stepBlock() []module.Sample {
	p := e.prog.Load()
	if p == nil {
		return nil
	}

	horizon := float64(e.tick+uint64(e.cfg.BlockSize)) / e.cfg.SampleRate
	e.deliverMIDI(p, horizon)

	select {
	case in := <-e.inQ:
		for _, f := range p.audioFeeders {
			f.Feed(in)
		}
	default:
	}

	for i := 0; i < e.cfg.BlockSize; i++ {
		t := float64(e.tick) / e.cfg.SampleRate
		p.audio.run(t)
		e.tick++
	}

	block := make([]module.Sample, e.cfg.BlockSize)
	for _, s := range p.audioSinks {
		n := s.Drain(e.drainBuf)
		for k := 0; k < n; k++ {
			block[k] += e.drainBuf[k]
		}
	}
	return block
}

func (e *Engine) stepVideoFrame() {
	p := e.prog.Load()
	if p == nil {
		return
	}

	t := float64(e.vtick) / e.cfg.FrameRate
	p.video.run(t)
	e.vtick++

	if e.cfg.Display == nil {
		return
	}
	if err := e.cfg.Display.Render(e.snapshot(p)); err != nil {
		log.Printf("display render failed: %v", err)
	}
}

func (e *Engine) snapshot(p *Program) *Snapshot {
	snap := &Snapshot{
		Width:         e.cfg.FrameWidth,
		Height:        e.cfg.FrameHeight,
		Frames:        make(map[int][]float64, len(p.videoSinks)),
		Traces:        make(map[int][]float64, len(p.telemeters)),
		DroppedBlocks: e.dropped.Load(),
	}
	for _, vs := range p.videoSinks {
		frame := vs.ref.Frame()
		cp := make([]float64, len(frame))
		copy(cp, frame)
		snap.Frames[vs.id] = cp
	}
	for _, tm := range p.telemeters {
		snap.Traces[tm.id] = tm.ref.Telemetry()
	}
	return snap
}

// enqueue hands a block to the device consumer, dropping the oldest pending
// block when the queue is at capacity. The queue never grows past QueueCap
// and the audio driver never blocks here.
func (e *Engine) enqueue(block []module.Sample) {
	for {
		select {
		case e.outQ <- block:
			return
		default:
		}

		select {
		case <-e.outQ:
			if n := e.dropped.Add(1); n%64 == 1 {
				log.Printf("output consumer behind, dropped %d blocks", n)
			}
		default:
		}
	}
}

// NextBlock is the pull interface for the device collaborator: it blocks
// until the next output block is ready and copies it into dst. It returns 0
// with dst zeroed once the engine has shut down.
func (e *Engine) NextBlock(dst []module.Sample) int {
	select {
	case block := <-e.outQ:
		return copy(dst, block)
	case <-e.quit:
		for i := range dst {
			dst[i] = 0
		}
		return 0
	}
}

// FeedInput hands a block of external audio input to the engine. Excess
// input is dropped, oldest first.
func (e *Engine) FeedInput(block []module.Sample) {
	for {
		select {
		case e.inQ <- block:
			return
		default:
		}
		select {
		case <-e.inQ:
		default:
		}
	}
}

// InjectMIDI queues one event for delivery ahead of the audio tick that
// should observe it. Reports false when the queue is full.
func (e *Engine) InjectMIDI(ev midi.Event) bool {
	select {
	case e.midiQ <- ev:
		return true
	default:
		return false
	}
}

func (e *Engine) deliverMIDI(p *Program, horizon float64) {
	for {
		select {
		case ev := <-e.midiQ:
			e.pending = append(e.pending, ev)
			continue
		default:
		}
		break
	}

	kept := e.pending[:0]
	for _, ev := range e.pending {
		if ev.Time > horizon {
			kept = append(kept, ev)
			continue
		}
		for _, nt := range p.noteTargets {
			nt.Note(ev)
		}
	}
	e.pending = kept
}

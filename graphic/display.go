// Package graphic renders engine snapshots to the terminal: the video
// sink's luma frame as shaded cells, telemetry traces as bar rows along the
// bottom.
package graphic

import (
	"context"
	"fmt"
	"sort"

	"github.com/mattn/go-runewidth"
	"github.com/nsf/termbox-go"
	"github.com/pkg/errors"

	"github.com/vincesynth/vince/engine"
	"github.com/vincesynth/vince/util"
)

// shades maps luma to cells, darkest first.
var shades = [...]rune{' ', '░', '▒', '▓', '█'}

// barRunes are the eighth-block runes for the trace rows.
var barRunes = [...]rune{' ', '▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

const traceRows = 6

// Display draws snapshots with termbox.
type Display struct {
	running bool

	// scaleWindow tracks recent trace peaks so the bar rows ride the
	// signal level instead of clipping or vanishing.
	scaleWindow *util.MovingWindow
}

// New sets up the display.
func New() *Display {
	return &Display{
		scaleWindow: util.NewMovingWindow(120),
	}
}

// Init takes over the terminal.
func (d *Display) Init() error {
	if err := termbox.Init(); err != nil {
		return errors.Wrap(err, "failed to initialize termbox")
	}
	termbox.SetInputMode(termbox.InputEsc)
	termbox.HideCursor()
	d.running = true
	return nil
}

// Close restores the terminal.
func (d *Display) Close() error {
	if d.running {
		termbox.Close()
		d.running = false
	}
	return nil
}

// Start polls terminal events until quit; the returned context is canceled
// when the user asks to leave.
func (d *Display) Start(ctx context.Context) context.Context {
	ctx, cancel := context.WithCancel(ctx)
	go eventPoller(ctx, cancel)
	return ctx
}

func eventPoller(ctx context.Context, cancel context.CancelFunc) {
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		switch ev := termbox.PollEvent(); ev.Type {
		case termbox.EventKey:
			if ev.Ch == 'q' || ev.Ch == 'Q' || ev.Key == termbox.KeyCtrlC || ev.Key == termbox.KeyEsc {
				return
			}
		case termbox.EventInterrupt:
			return
		}
	}
}

// Render draws one snapshot. Called once per video tick by the engine.
func (d *Display) Render(snap *engine.Snapshot) error {
	if !d.running {
		return nil
	}

	if err := termbox.Clear(termbox.ColorDefault, termbox.ColorDefault); err != nil {
		return err
	}

	cWidth, cHeight := termbox.Size()
	frameRows := cHeight - traceRows
	if frameRows < 0 {
		frameRows = cHeight
	}

	d.drawFrames(snap, cWidth, frameRows)
	d.drawTraces(snap, cWidth, cHeight, frameRows)

	if snap.DroppedBlocks > 0 {
		label := fmt.Sprintf(" dropped %d ", snap.DroppedBlocks)
		drawLabel(label, cWidth-runewidth.StringWidth(label), 0)
	}

	return termbox.Flush()
}

// drawFrames paints the first video sink frame, nearest-neighbor scaled to
// the available cells.
func (d *Display) drawFrames(snap *engine.Snapshot, cWidth, rows int) {
	ids := make([]int, 0, len(snap.Frames))
	for id := range snap.Frames {
		ids = append(ids, id)
	}
	if len(ids) == 0 || rows < 1 || snap.Width < 1 || snap.Height < 1 {
		return
	}
	sort.Ints(ids)
	frame := snap.Frames[ids[0]]

	for y := 0; y < rows; y++ {
		sy := y * snap.Height / rows
		for x := 0; x < cWidth; x++ {
			sx := x * snap.Width / cWidth
			px := frame[sy*snap.Width+sx]
			termbox.SetCell(x, y, shadeOf(px), termbox.ColorDefault, termbox.ColorDefault)
		}
	}
}

// drawTraces stacks every telemetry trace into the bottom rows, each as one
// bar strip.
func (d *Display) drawTraces(snap *engine.Snapshot, cWidth, cHeight, from int) {
	ids := make([]int, 0, len(snap.Traces))
	for id := range snap.Traces {
		ids = append(ids, id)
	}
	if len(ids) == 0 || from >= cHeight {
		return
	}
	sort.Ints(ids)

	rows := cHeight - from
	perTrace := rows / len(ids)
	if perTrace < 1 {
		perTrace = 1
	}

	for ti, id := range ids {
		top := from + ti*perTrace
		if top >= cHeight {
			break
		}
		d.drawTrace(snap.Traces[id], id, cWidth, top, perTrace)
	}
}

func (d *Display) drawTrace(trace []float64, id, cWidth, top, rows int) {
	if len(trace) == 0 {
		return
	}

	peak := 0.0
	for _, v := range trace {
		if a := abs(v); a > peak {
			peak = a
		}
	}
	mean, stddev := d.scaleWindow.Update(peak)
	scale := mean + 1.5*stddev
	if scale < 1e-6 {
		scale = 1e-6
	}

	cells := float64(rows * len(barRunes))
	for x := 0; x < cWidth; x++ {
		v := abs(trace[x*len(trace)/cWidth]) / scale
		if v > 1 {
			v = 1
		}
		units := int(v * cells)

		for r := 0; r < rows; r++ {
			y := top + rows - 1 - r
			level := units - r*len(barRunes)
			switch {
			case level >= len(barRunes):
				termbox.SetCell(x, y, barRunes[len(barRunes)-1], termbox.ColorDefault, termbox.ColorDefault)
			case level > 0:
				termbox.SetCell(x, y, barRunes[level], termbox.ColorDefault, termbox.ColorDefault)
			}
		}
	}

	drawLabel(fmt.Sprintf(" M%d ", id), 0, top)
}

func drawLabel(s string, x, y int) {
	for _, r := range s {
		termbox.SetCell(x, y, r, termbox.AttrReverse, termbox.ColorDefault)
		x += runewidth.RuneWidth(r)
	}
}

func shadeOf(px float64) rune {
	if px < 0 {
		px = 0
	}
	if px > 1 {
		px = 1
	}
	i := int(px * float64(len(shades)-1))
	return shades[i]
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

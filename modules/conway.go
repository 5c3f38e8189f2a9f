package modules

import (
	"math/rand"

	"github.com/vincesynth/vince/module"
)

func init() {
	module.Register("Conway", newConway)
}

// conway runs Game of Life on the video frame, one generation per video
// tick. A generator for the video chain: live cells emit white.
//
// Params:
//
//	seed = 1
//	fill = 0.3   # initial live fraction
//
// Knobs:
//
//	0. gain applied to live cells
type conway struct {
	module.KnobBank

	w, h  int
	cells []uint8
	next  []uint8
}

func newConway(cfg module.Config) (module.Module, error) {
	knobs := cfg.Knobs
	if len(knobs) == 0 {
		knobs = []float64{1}
	}

	c := &conway{
		KnobBank: module.NewKnobBank(1, knobs),
		w:        cfg.FrameWidth,
		h:        cfg.FrameHeight,
		cells:    make([]uint8, cfg.FrameLen()),
		next:     make([]uint8, cfg.FrameLen()),
	}

	rng := rand.New(rand.NewSource(int64(cfg.Int("seed", 1))))
	fill := cfg.Float("fill", 0.3)
	for i := range c.cells {
		if rng.Float64() < fill {
			c.cells[i] = 1
		}
	}

	return c, nil
}

func (c *conway) Domain() module.Domain { return module.DomainVideo }
func (c *conway) Inputs() int           { return 0 }
func (c *conway) Outputs() int          { return 1 }
func (c *conway) DelaysSignal() bool    { return true }

func (c *conway) Step(t float64, in, out [][]float64) {
	gain := c.Knob(0)
	for i, alive := range c.cells {
		if alive == 1 {
			out[0][i] = gain
		} else {
			out[0][i] = 0
		}
	}

	for y := 0; y < c.h; y++ {
		for x := 0; x < c.w; x++ {
			n := c.neighbors(x, y)
			i := y*c.w + x
			switch {
			case c.cells[i] == 1 && (n == 2 || n == 3):
				c.next[i] = 1
			case c.cells[i] == 0 && n == 3:
				c.next[i] = 1
			default:
				c.next[i] = 0
			}
		}
	}
	c.cells, c.next = c.next, c.cells
}

func (c *conway) neighbors(x, y int) int {
	n := 0
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			// Toroidal wrap.
			nx := (x + dx + c.w) % c.w
			ny := (y + dy + c.h) % c.h
			n += int(c.cells[ny*c.w+nx])
		}
	}
	return n
}

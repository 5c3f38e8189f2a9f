package modules

import "github.com/vincesynth/vince/module"

func init() {
	module.Register("VideoOut", newVideoOut)
	module.Register("Contrast", newContrast)
	module.Register("Luma", newLuma)
}

// videoOut is the video sink: it keeps a copy of its input frame for the
// renderer to pick up after the tick.
//
// Knobs:
//
//	0. brightness, added to every pixel
type videoOut struct {
	module.KnobBank
	frame []float64
}

func newVideoOut(cfg module.Config) (module.Module, error) {
	return &videoOut{
		KnobBank: module.NewKnobBank(1, cfg.Knobs),
		frame:    make([]float64, cfg.FrameLen()),
	}, nil
}

func (v *videoOut) Domain() module.Domain { return module.DomainVideo }
func (v *videoOut) Inputs() int           { return 1 }
func (v *videoOut) Outputs() int          { return 0 }

func (v *videoOut) Step(t float64, in, out [][]float64) {
	b := v.Knob(0)
	for k, px := range in[0] {
		v.frame[k] = clamp01(px + b)
	}
}

// Frame returns the last rendered frame, valid until the next video tick.
func (v *videoOut) Frame() []float64 { return v.frame }

// contrast scales its frame around mid-gray.
//
// Knobs:
//
//	0. amount, 1 is identity
type contrast struct {
	module.KnobBank
}

func newContrast(cfg module.Config) (module.Module, error) {
	knobs := cfg.Knobs
	if len(knobs) == 0 {
		knobs = []float64{1}
	}
	return &contrast{KnobBank: module.NewKnobBank(1, knobs)}, nil
}

func (c *contrast) Domain() module.Domain { return module.DomainVideo }
func (c *contrast) Inputs() int           { return 1 }
func (c *contrast) Outputs() int          { return 1 }

func (c *contrast) Step(t float64, in, out [][]float64) {
	k := c.Knob(0)
	for i, px := range in[0] {
		out[0][i] = clamp01((px-0.5)*k + 0.5)
	}
}

// luma keys out pixels below a threshold.
//
// Knobs:
//
//	0. threshold in [0, 1]
//	1. softness of the key edge
type luma struct {
	module.KnobBank
}

func newLuma(cfg module.Config) (module.Module, error) {
	knobs := cfg.Knobs
	if len(knobs) == 0 {
		knobs = []float64{0.5, 0}
	}
	return &luma{KnobBank: module.NewKnobBank(2, knobs)}, nil
}

func (l *luma) Domain() module.Domain { return module.DomainVideo }
func (l *luma) Inputs() int           { return 1 }
func (l *luma) Outputs() int          { return 1 }

func (l *luma) Step(t float64, in, out [][]float64) {
	threshold := l.Knob(0)
	soft := l.Knob(1)

	for i, px := range in[0] {
		switch {
		case px >= threshold+soft:
			out[0][i] = px
		case soft > 0 && px > threshold:
			out[0][i] = px * (px - threshold) / soft
		default:
			out[0][i] = 0
		}
	}
}

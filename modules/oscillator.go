package modules

import (
	"math"

	"github.com/pkg/errors"

	"github.com/vincesynth/vince/module"
)

func init() {
	module.Register("Oscillator", newOscillator)
}

// oscillator outputs a generated wave.
//
// Outputs:
//
//	0. the wave signal in the range [K0-K2, K0+K2]
//
// Knobs:
//
//	0. shift, affects the signal vertically
//	1. speed in Hz
//	2. depth, the gain
//	3. phase, affects the signal horizontally
type oscillator struct {
	module.KnobBank
	fn waveFunc
}

type waveFunc func(t, phase float64) float64

func newOscillator(cfg module.Config) (module.Module, error) {
	osc := &oscillator{
		KnobBank: module.NewKnobBank(4, cfg.Knobs),
	}

	switch fn := cfg.String("func", "Sine"); fn {
	case "Sine":
		osc.fn = func(t, phase float64) float64 {
			return math.Sin(t*2*math.Pi - phase)
		}
	case "Triangle":
		osc.fn = func(t, phase float64) float64 {
			return 2 / math.Pi * math.Asin(math.Sin(t*2*math.Pi-phase))
		}
	case "Square":
		osc.fn = func(t, phase float64) float64 {
			if math.Sin(t*2*math.Pi-phase) >= 0 {
				return 1
			}
			return -1
		}
	case "Saw":
		osc.fn = func(t, phase float64) float64 {
			tp := t - phase/(2*math.Pi)
			return 2 * (tp - math.Floor(0.5+tp))
		}
	default:
		return nil, errors.Errorf("unknown oscillator func %q", fn)
	}

	return osc, nil
}

func (o *oscillator) Domain() module.Domain { return module.DomainAudio }
func (o *oscillator) Inputs() int           { return 0 }
func (o *oscillator) Outputs() int          { return 1 }

func (o *oscillator) Step(t float64, in, out [][]float64) {
	shift := o.Knob(0)
	speed := o.Knob(1)
	depth := o.Knob(2)
	phase := o.Knob(3)

	out[0][0] = o.fn(speed*t, phase)*depth + shift
}

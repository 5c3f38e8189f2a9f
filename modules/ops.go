package modules

import "github.com/vincesynth/vince/module"

func init() {
	module.Register("Mixer", newMixer)
	module.Register("Scaler", newScaler)
	module.Register("Inverter", newInverter)
	module.Register("Multiplier", newMultiplier)
}

// mixer sums four inputs through per-channel gains and a master gain.
//
// Knobs:
//
//	0-3. channel gains
//	4.   master gain
type mixer struct {
	module.KnobBank
}

func newMixer(cfg module.Config) (module.Module, error) {
	knobs := cfg.Knobs
	if len(knobs) == 0 {
		knobs = []float64{1, 1, 1, 1, 1}
	}
	return &mixer{KnobBank: module.NewKnobBank(5, knobs)}, nil
}

func (m *mixer) Domain() module.Domain { return module.DomainAudio }
func (m *mixer) Inputs() int           { return 4 }
func (m *mixer) Outputs() int          { return 1 }

func (m *mixer) Step(t float64, in, out [][]float64) {
	sum := 0.0
	for i := 0; i < 4; i++ {
		sum += in[i][0] * m.Knob(i)
	}
	out[0][0] = sum * m.Knob(4)
}

// scaler outputs in*K1 + K0.
type scaler struct {
	module.KnobBank
}

func newScaler(cfg module.Config) (module.Module, error) {
	knobs := cfg.Knobs
	if len(knobs) == 0 {
		knobs = []float64{0, 1}
	}
	return &scaler{KnobBank: module.NewKnobBank(2, knobs)}, nil
}

func (s *scaler) Domain() module.Domain { return module.DomainAudio }
func (s *scaler) Inputs() int           { return 1 }
func (s *scaler) Outputs() int          { return 1 }

func (s *scaler) Step(t float64, in, out [][]float64) {
	out[0][0] = in[0][0]*s.Knob(1) + s.Knob(0)
}

// inverter negates its input.
type inverter struct {
	module.KnobBank
}

func newInverter(cfg module.Config) (module.Module, error) {
	return &inverter{}, nil
}

func (iv *inverter) Domain() module.Domain { return module.DomainAudio }
func (iv *inverter) Inputs() int           { return 1 }
func (iv *inverter) Outputs() int          { return 1 }

func (iv *inverter) Step(t float64, in, out [][]float64) {
	out[0][0] = -in[0][0]
}

// multiplier outputs the product of its two inputs, useful for ring
// modulation and amplitude control.
type multiplier struct {
	module.KnobBank
}

func newMultiplier(cfg module.Config) (module.Module, error) {
	return &multiplier{}, nil
}

func (m *multiplier) Domain() module.Domain { return module.DomainAudio }
func (m *multiplier) Inputs() int           { return 2 }
func (m *multiplier) Outputs() int          { return 1 }

func (m *multiplier) Step(t float64, in, out [][]float64) {
	out[0][0] = in[0][0] * in[1][0]
}

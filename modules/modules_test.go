package modules

import (
	"testing"

	"github.com/vincesynth/vince/module"
)

func testCfg(params map[string]interface{}, knobs ...float64) module.Config {
	return module.Config{
		SampleRate:  100,
		FrameRate:   10,
		FrameWidth:  4,
		FrameHeight: 2,
		Params:      params,
		Knobs:       knobs,
	}
}

func mustNew(t *testing.T, kind string, cfg module.Config) module.Module {
	t.Helper()
	m, err := module.New(kind, cfg)
	if err != nil {
		t.Fatalf("New(%s): %v", kind, err)
	}
	return m
}

// step runs one tick with scalar inputs and returns the scalar outputs.
func step(m module.Module, t float64, in ...float64) []float64 {
	ins := make([][]float64, m.Inputs())
	for i := range ins {
		ins[i] = []float64{0}
		if i < len(in) {
			ins[i][0] = in[i]
		}
	}
	outs := make([][]float64, m.Outputs())
	for i := range outs {
		outs[i] = []float64{0}
	}
	m.Step(t, ins, outs)

	flat := make([]float64, len(outs))
	for i := range outs {
		flat[i] = outs[i][0]
	}
	return flat
}

// stepFrame runs one video tick on a full frame.
func stepFrame(m module.Module, t float64, in []float64) []float64 {
	out := make([]float64, len(in))
	outs := [][]float64{}
	if m.Outputs() > 0 {
		outs = [][]float64{out}
	}
	m.Step(t, [][]float64{in}, outs)
	return out
}

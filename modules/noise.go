package modules

import (
	"math/rand"

	"github.com/vincesynth/vince/module"
)

func init() {
	module.Register("Noise", newNoise)
}

// noise outputs uniform noise in [-K0, K0]. The generator is seeded from
// the rack file (default 1) so identical racks produce identical streams.
//
// Knobs:
//
//	0. depth
type noise struct {
	module.KnobBank
	rng *rand.Rand
}

func newNoise(cfg module.Config) (module.Module, error) {
	return &noise{
		KnobBank: module.NewKnobBank(1, cfg.Knobs),
		rng:      rand.New(rand.NewSource(int64(cfg.Int("seed", 1)))),
	}, nil
}

func (n *noise) Domain() module.Domain { return module.DomainAudio }
func (n *noise) Inputs() int           { return 0 }
func (n *noise) Outputs() int          { return 1 }

func (n *noise) Step(t float64, in, out [][]float64) {
	out[0][0] = (n.rng.Float64()*2 - 1) * n.Knob(0)
}

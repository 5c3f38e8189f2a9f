package engine

import (
	"testing"

	"github.com/pkg/errors"

	"github.com/vincesynth/vince/module"
	"github.com/vincesynth/vince/rack"
)

// Controllable kinds for exercising the graph machinery. Registered here,
// once per test binary.
func init() {
	module.Register("testConst", func(cfg module.Config) (module.Module, error) {
		return &constMod{KnobBank: module.NewKnobBank(1, cfg.Knobs)}, nil
	})
	module.Register("testSum", func(cfg module.Config) (module.Module, error) {
		return &sumMod{KnobBank: module.NewKnobBank(1, cfg.Knobs)}, nil
	})
	module.Register("testProbe", func(cfg module.Config) (module.Module, error) {
		return &probeMod{}, nil
	})
	module.Register("testDelay", func(cfg module.Config) (module.Module, error) {
		return &delayMod{}, nil
	})
	module.Register("testPanic", func(cfg module.Config) (module.Module, error) {
		return &panicMod{}, nil
	})
	module.Register("testVConst", func(cfg module.Config) (module.Module, error) {
		return &vconstMod{KnobBank: module.NewKnobBank(1, cfg.Knobs)}, nil
	})
	module.Register("testVProbe", func(cfg module.Config) (module.Module, error) {
		return &vprobeMod{}, nil
	})
}

// constMod outputs its single knob.
type constMod struct{ module.KnobBank }

func (*constMod) Domain() module.Domain { return module.DomainAudio }
func (*constMod) Inputs() int           { return 0 }
func (*constMod) Outputs() int          { return 1 }

func (c *constMod) Step(t float64, in, out [][]float64) {
	out[0][0] = c.Knob(0)
}

// sumMod adds its two inputs.
type sumMod struct{ module.KnobBank }

func (*sumMod) Domain() module.Domain { return module.DomainAudio }
func (*sumMod) Inputs() int           { return 2 }
func (*sumMod) Outputs() int          { return 1 }

func (s *sumMod) Step(t float64, in, out [][]float64) {
	out[0][0] = in[0][0] + in[1][0]
}

// probeMod passes its input through and records every value it sees.
type probeMod struct {
	module.KnobBank
	vals []float64
}

func (*probeMod) Domain() module.Domain { return module.DomainAudio }
func (*probeMod) Inputs() int           { return 1 }
func (*probeMod) Outputs() int          { return 1 }

func (p *probeMod) Step(t float64, in, out [][]float64) {
	p.vals = append(p.vals, in[0][0])
	out[0][0] = in[0][0]
}

// delayMod is a one-tick delay, the minimal state-delaying module.
type delayMod struct {
	module.KnobBank
	state float64
}

func (*delayMod) Domain() module.Domain { return module.DomainAudio }
func (*delayMod) Inputs() int           { return 1 }
func (*delayMod) Outputs() int          { return 1 }
func (*delayMod) DelaysSignal() bool    { return true }

func (d *delayMod) Step(t float64, in, out [][]float64) {
	out[0][0] = d.state
	d.state = in[0][0]
}

type panicMod struct{ module.KnobBank }

func (*panicMod) Domain() module.Domain { return module.DomainAudio }
func (*panicMod) Inputs() int           { return 1 }
func (*panicMod) Outputs() int          { return 1 }

func (*panicMod) Step(t float64, in, out [][]float64) {
	panic("boom")
}

// vconstMod fills its output frame with its knob.
type vconstMod struct{ module.KnobBank }

func (*vconstMod) Domain() module.Domain { return module.DomainVideo }
func (*vconstMod) Inputs() int           { return 0 }
func (*vconstMod) Outputs() int          { return 1 }

func (v *vconstMod) Step(t float64, in, out [][]float64) {
	for k := range out[0] {
		out[0][k] = v.Knob(0)
	}
}

// vprobeMod records the last frame it saw.
type vprobeMod struct {
	module.KnobBank
	frame []float64
}

func (*vprobeMod) Domain() module.Domain { return module.DomainVideo }
func (*vprobeMod) Inputs() int           { return 1 }
func (*vprobeMod) Outputs() int          { return 1 }

func (v *vprobeMod) Step(t float64, in, out [][]float64) {
	v.frame = append(v.frame[:0], in[0]...)
	copy(out[0], in[0])
}

func testConfig() Config {
	return Config{
		SampleRate:  100,
		FrameRate:   10,
		FrameWidth:  4,
		FrameHeight: 2,
		BlockSize:   16,
		QueueCap:    2,
	}
}

func desc(id int, kind string, knobs ...float64) rack.Descriptor {
	return rack.Descriptor{ID: id, Kind: kind, Knobs: knobs}
}

func testRack(descs []rack.Descriptor, patches ...rack.Patch) *rack.Rack {
	r := &rack.Rack{
		Modules: make(map[int]rack.Descriptor, len(descs)),
		Patches: patches,
	}
	for _, d := range descs {
		r.Modules[d.ID] = d
	}
	return r
}

func patch(t *testing.T, src, dst string) rack.Patch {
	t.Helper()
	s, err := rack.ParsePort(src)
	if err != nil {
		t.Fatal(err)
	}
	d, err := rack.ParsePort(dst)
	if err != nil {
		t.Fatal(err)
	}
	return rack.Patch{Source: s, Dest: d}
}

func mustBuild(t *testing.T, r *rack.Rack) *Graph {
	t.Helper()
	g, err := BuildGraph(testConfig(), r)
	if err != nil {
		t.Fatalf("BuildGraph: %v", err)
	}
	return g
}

func TestBuildGraphUnknownModule(t *testing.T) {
	r := testRack(
		[]rack.Descriptor{desc(1, "testConst", 1)},
		patch(t, "1M0O", "9M0I"),
	)
	if _, err := BuildGraph(testConfig(), r); !errors.Is(err, ErrUnknownModule) {
		t.Fatalf("err = %v, want ErrUnknownModule", err)
	}
}

func TestBuildGraphBadPort(t *testing.T) {
	r := testRack(
		[]rack.Descriptor{desc(1, "testConst", 1), desc(2, "testProbe")},
		patch(t, "1M3O", "2M0I"),
	)
	if _, err := BuildGraph(testConfig(), r); !errors.Is(err, ErrBadPort) {
		t.Fatalf("err = %v, want ErrBadPort", err)
	}
}

func TestBuildGraphEmptyRack(t *testing.T) {
	if _, err := BuildGraph(testConfig(), &rack.Rack{}); !errors.Is(err, ErrEmptyRack) {
		t.Fatalf("err = %v, want ErrEmptyRack", err)
	}
}

func TestBuildGraphUnknownKind(t *testing.T) {
	r := testRack([]rack.Descriptor{desc(1, "testNoSuchKind")})
	if _, err := BuildGraph(testConfig(), r); err == nil {
		t.Fatal("unknown kind accepted")
	}
}

func TestKnobSingleSource(t *testing.T) {
	r := testRack(
		[]rack.Descriptor{
			desc(1, "testConst", 1),
			desc(2, "testConst", 2),
			desc(3, "testSum"),
		},
		patch(t, "1M0O", "3M0K"),
		patch(t, "2M0O", "3M0K"),
	)
	if _, err := BuildGraph(testConfig(), r); !errors.Is(err, ErrKnobConflict) {
		t.Fatalf("err = %v, want ErrKnobConflict", err)
	}
}

func TestInputFanInAllowed(t *testing.T) {
	r := testRack(
		[]rack.Descriptor{
			desc(1, "testConst", 1),
			desc(2, "testConst", 2),
			desc(3, "testProbe"),
		},
		patch(t, "1M0O", "3M0I"),
		patch(t, "2M0O", "3M0I"),
	)
	if _, err := BuildGraph(testConfig(), r); err != nil {
		t.Fatalf("additive fan-in rejected: %v", err)
	}
}

func TestDomainCrossingNeedsBridge(t *testing.T) {
	r := testRack(
		[]rack.Descriptor{
			desc(1, "testConst", 1),
			desc(2, "testVProbe"),
		},
		patch(t, "1M0O", "2M0I"),
	)
	if _, err := BuildGraph(testConfig(), r); !errors.Is(err, ErrDomainCrossing) {
		t.Fatalf("err = %v, want ErrDomainCrossing", err)
	}
}

func TestDuplicatePatchesCollapse(t *testing.T) {
	r := testRack(
		[]rack.Descriptor{
			desc(1, "testConst", 1),
			desc(2, "testProbe"),
		},
		patch(t, "1M0O", "2M0I"),
		patch(t, "1M0O", "2M0I"),
	)
	g := mustBuild(t, r)
	if len(g.edges) != 1 {
		t.Fatalf("got %d edges, want 1", len(g.edges))
	}
}

func TestMigrateKeepsMatchingInstances(t *testing.T) {
	build := func() *Graph {
		return mustBuild(t, testRack(
			[]rack.Descriptor{
				desc(1, "testConst", 1),
				desc(2, "testProbe"),
			},
			patch(t, "1M0O", "2M0I"),
		))
	}

	old := build()
	fresh := build()

	pending := Migrate(old, fresh)
	if len(pending) != 0 {
		t.Fatalf("identical rack produced %d knob updates", len(pending))
	}
	if fresh.nodes[1].mod != old.nodes[1].mod {
		t.Error("matching module was not reused")
	}
}

func TestMigrateKindChangeDropsState(t *testing.T) {
	old := mustBuild(t, testRack([]rack.Descriptor{desc(1, "testConst", 1)}))
	fresh := mustBuild(t, testRack([]rack.Descriptor{desc(1, "testDelay")}))

	Migrate(old, fresh)
	if fresh.nodes[1].mod == old.nodes[1].mod {
		t.Error("instance survived a kind change")
	}
}

func TestMigrateKnobChangeDeferred(t *testing.T) {
	old := mustBuild(t, testRack([]rack.Descriptor{desc(1, "testConst", 1)}))
	fresh := mustBuild(t, testRack([]rack.Descriptor{desc(1, "testConst", 5)}))

	pending := Migrate(old, fresh)
	if len(pending) != 1 {
		t.Fatalf("got %d knob updates, want 1", len(pending))
	}
	if pending[0].Index != 0 || pending[0].Value != 5 {
		t.Errorf("pending = %+v", pending[0])
	}

	// Not applied yet: the old instance keeps running with the old value
	// until the owning tick driver picks the update up.
	if got := fresh.nodes[1].mod.Knob(0); got != 1 {
		t.Errorf("knob mutated before swap: %v", got)
	}
}

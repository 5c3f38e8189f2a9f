package module

import (
	"sort"

	"github.com/pkg/errors"
)

// Config is handed to a kind constructor when a rack is built.
type Config struct {
	SampleRate  float64
	FrameRate   float64
	FrameWidth  int
	FrameHeight int

	Name   string
	Params map[string]interface{}
	Knobs  []float64
}

// FrameLen is the width of one video-domain port buffer.
func (c Config) FrameLen() int {
	return c.FrameWidth * c.FrameHeight
}

// String returns the named kind-specific parameter, or def when absent.
func (c Config) String(key, def string) string {
	if s, ok := c.Params[key].(string); ok {
		return s
	}
	return def
}

// Float returns the named kind-specific parameter as a float, or def.
func (c Config) Float(key string, def float64) float64 {
	switch n := c.Params[key].(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	case int:
		return float64(n)
	default:
		return def
	}
}

// Int returns the named kind-specific parameter as an int, or def.
func (c Config) Int(key string, def int) int {
	switch n := c.Params[key].(type) {
	case int64:
		return int(n)
	case int:
		return n
	case float64:
		return int(n)
	default:
		return def
	}
}

// Bool returns the named kind-specific parameter as a bool, or def.
func (c Config) Bool(key string, def bool) bool {
	if b, ok := c.Params[key].(bool); ok {
		return b
	}
	return def
}

// Constructor builds one module instance for a kind.
type Constructor func(Config) (Module, error)

var kinds = map[string]Constructor{}

// Register registers a module kind globally. This function is not
// thread-safe, and kind packages should call it on init().
func Register(kind string, ctor Constructor) {
	if _, ok := kinds[kind]; ok {
		panic("module: kind registered twice: " + kind)
	}
	kinds[kind] = ctor
}

// New constructs a module of the given kind.
func New(kind string, cfg Config) (Module, error) {
	ctor, ok := kinds[kind]
	if !ok {
		return nil, errors.Errorf("unknown module kind %q; check list-kinds", kind)
	}
	m, err := ctor(cfg)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to construct %q module", kind)
	}
	return m, nil
}

// Kinds returns all registered kind tags, sorted.
func Kinds() []string {
	out := make([]string, 0, len(kinds))
	for k := range kinds {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

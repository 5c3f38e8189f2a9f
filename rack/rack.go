// Package rack loads declarative rack descriptions: the set of modules and
// the patches between their ports that make up one synthesizer configuration.
package rack

import (
	"sort"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// Descriptor describes one module instance in a rack file.
type Descriptor struct {
	ID     int
	Name   string
	Kind   string
	Params map[string]interface{}
	Knobs  []float64
}

// Patch is one directed edge from an output port to an input or knob port.
type Patch struct {
	Source Port
	Dest   Port
}

// Rack is a fully parsed rack description. Modules are keyed by id; ids need
// not be contiguous but must be unique, which the map enforces.
type Rack struct {
	Modules map[int]Descriptor
	Patches []Patch
}

// rackFile is the raw TOML shape:
//
//	[modules.1]
//	type = "Oscillator"
//	func = "Sine"
//	knobs = [0.0, 440.0, 1.0, 0.0]
//
//	[patches]
//	"1M0O" = ["0M0I"]
type rackFile struct {
	Modules map[string]map[string]interface{} `toml:"modules"`
	Patches map[string][]string               `toml:"patches"`
}

// Load reads and parses a rack file from disk.
func Load(path string) (*Rack, error) {
	var raw rackFile
	if _, err := toml.DecodeFile(path, &raw); err != nil {
		return nil, errors.Wrap(err, "failed to decode rack file")
	}
	return fromRaw(&raw)
}

// Parse parses a rack description from memory. Mostly for tests.
func Parse(data string) (*Rack, error) {
	var raw rackFile
	if _, err := toml.Decode(data, &raw); err != nil {
		return nil, errors.Wrap(err, "failed to decode rack data")
	}
	return fromRaw(&raw)
}

func fromRaw(raw *rackFile) (*Rack, error) {
	r := &Rack{
		Modules: make(map[int]Descriptor, len(raw.Modules)),
	}

	for key, table := range raw.Modules {
		desc, err := parseDescriptor(key, table)
		if err != nil {
			return nil, err
		}
		r.Modules[desc.ID] = desc
	}

	// Sort patch sources so load order never depends on map iteration.
	sources := make([]string, 0, len(raw.Patches))
	for src := range raw.Patches {
		sources = append(sources, src)
	}
	sort.Strings(sources)

	for _, src := range sources {
		srcPort, err := ParsePort(src)
		if err != nil {
			return nil, err
		}
		if srcPort.Kind != Output {
			return nil, errors.Errorf("patch source %q is not an output port", src)
		}
		for _, dst := range raw.Patches[src] {
			dstPort, err := ParsePort(dst)
			if err != nil {
				return nil, err
			}
			if dstPort.Kind == Output {
				return nil, errors.Errorf("patch destination %q is not an input or knob port", dst)
			}
			r.Patches = append(r.Patches, Patch{Source: srcPort, Dest: dstPort})
		}
	}

	return r, nil
}

func parseDescriptor(key string, table map[string]interface{}) (Descriptor, error) {
	var desc Descriptor

	id, err := parseID(key)
	if err != nil {
		return desc, err
	}
	desc.ID = id

	kind, ok := table["type"].(string)
	if !ok || kind == "" {
		return desc, errors.Errorf("module %d has no type", id)
	}
	desc.Kind = kind

	if name, ok := table["name"].(string); ok {
		desc.Name = name
	}

	if knobs, ok := table["knobs"].([]interface{}); ok {
		desc.Knobs = make([]float64, len(knobs))
		for i, v := range knobs {
			f, ok := toFloat(v)
			if !ok {
				return desc, errors.Errorf("module %d knob %d is not a number", id, i)
			}
			desc.Knobs[i] = f
		}
	}

	desc.Params = make(map[string]interface{}, len(table))
	for k, v := range table {
		switch k {
		case "type", "name", "knobs":
		default:
			desc.Params[k] = v
		}
	}

	return desc, nil
}

func parseID(key string) (int, error) {
	id := 0
	if key == "" {
		return 0, errors.New("empty module id")
	}
	for i := 0; i < len(key); i++ {
		if key[i] < '0' || key[i] > '9' {
			return 0, errors.Errorf("module id %q is not an integer", key)
		}
		id = id*10 + int(key[i]-'0')
	}
	return id, nil
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}

package rack

import (
	"fmt"
	"strconv"

	"github.com/pkg/errors"
)

// PortKind selects which slot group of a module a port addresses.
type PortKind uint8

const (
	Input PortKind = iota
	Output
	Knob
)

func (k PortKind) String() string {
	switch k {
	case Input:
		return "input"
	case Output:
		return "output"
	case Knob:
		return "knob"
	default:
		return "unknown"
	}
}

func (k PortKind) suffix() byte {
	switch k {
	case Input:
		return 'I'
	case Output:
		return 'O'
	case Knob:
		return 'K'
	default:
		return '?'
	}
}

// Port addresses one input, output or knob slot of one module.
type Port struct {
	Module int
	Kind   PortKind
	Index  int
}

// Spec formats the port back into the rack file grammar, e.g. "1M0O".
func (p Port) Spec() string {
	return fmt.Sprintf("%dM%d%c", p.Module, p.Index, p.Kind.suffix())
}

func (p Port) String() string {
	return p.Spec()
}

// ParsePort parses a port spec of the form "<module>M<index>[I|O|K]".
// Specs are parsed once at load time; ports never appear as strings on the
// tick path.
func ParsePort(spec string) (Port, error) {
	var p Port

	sep := -1
	for i := 0; i < len(spec); i++ {
		if spec[i] == 'M' {
			sep = i
			break
		}
	}
	if sep <= 0 || sep == len(spec)-1 {
		return p, errors.Errorf("malformed port spec %q", spec)
	}

	id, err := strconv.Atoi(spec[:sep])
	if err != nil || id < 0 {
		return p, errors.Errorf("malformed module id in port spec %q", spec)
	}
	p.Module = id

	switch spec[len(spec)-1] {
	case 'I':
		p.Kind = Input
	case 'O':
		p.Kind = Output
	case 'K':
		p.Kind = Knob
	default:
		return p, errors.Errorf("port spec %q must end in I, O or K", spec)
	}

	idx, err := strconv.Atoi(spec[sep+1 : len(spec)-1])
	if err != nil || idx < 0 {
		return p, errors.Errorf("malformed port index in port spec %q", spec)
	}
	p.Index = idx

	return p, nil
}

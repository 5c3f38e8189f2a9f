// Package modules holds the built-in module kinds. Each kind registers
// itself on init; import this package for its side effects to make the
// standard library of kinds available to the engine:
//
//	import _ "github.com/vincesynth/vince/modules"
package modules

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

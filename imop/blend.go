// Package imop implements the Porter-Duff composition operations and the separable
// blend modes used when a floating selection is anchored onto its target layer.
// The image/draw package implements only the source-over-destination and source
// operations; this package covers the rest.
package imop

import (
	"fmt"

	"github.com/esimov/fillfrom/utils"
)

// The supported blend modes.
const (
	Normal     = "normal"
	Darken     = "darken"
	Lighten    = "lighten"
	Multiply   = "multiply"
	Screen     = "screen"
	Overlay    = "overlay"
	Difference = "difference"
	Exclusion  = "exclusion"
)

var blendModes = []string{Normal, Darken, Lighten, Multiply, Screen, Overlay, Difference, Exclusion}

// Blend holds the currently active blend mode.
type Blend struct {
	OpType string
}

// NewBlend initializes a new Blend.
func NewBlend() *Blend {
	return &Blend{}
}

// Set activates one of the supported blend modes.
func (o *Blend) Set(opType string) error {
	if !utils.Contains(blendModes, opType) {
		return fmt.Errorf("unsupported blend mode: %q", opType)
	}
	o.OpType = opType
	return nil
}

// Get returns the currently active blend mode.
func (o *Blend) Get() string {
	return o.OpType
}

// mix blends the source color with the backdrop. The result is weighted by the
// backdrop alpha, so a source over a transparent backdrop keeps its own color.
func (o *Blend) mix(cs, cb Color) Color {
	fn := o.channelFn()
	if fn == nil {
		return cs
	}
	ab := cb.A
	return Color{
		R: (1-ab)*cs.R + ab*fn(cb.R, cs.R),
		G: (1-ab)*cs.G + ab*fn(cb.G, cs.G),
		B: (1-ab)*cs.B + ab*fn(cb.B, cs.B),
		A: cs.A,
	}
}

// channelFn returns the per channel blend function B(cb, cs).
func (o *Blend) channelFn() func(cb, cs float64) float64 {
	switch o.OpType {
	case Darken:
		return utils.Min[float64]
	case Lighten:
		return utils.Max[float64]
	case Multiply:
		return func(cb, cs float64) float64 { return cb * cs }
	case Screen:
		return screen
	case Overlay:
		return func(cb, cs float64) float64 {
			// Overlay is hard light with the layers swapped.
			if cb <= 0.5 {
				return cs * 2 * cb
			}
			return screen(cs, 2*cb-1)
		}
	case Difference:
		return func(cb, cs float64) float64 { return utils.Abs(cb - cs) }
	case Exclusion:
		return func(cb, cs float64) float64 { return cb + cs - 2*cb*cs }
	}
	return nil
}

func screen(cb, cs float64) float64 {
	return cb + cs - cb*cs
}

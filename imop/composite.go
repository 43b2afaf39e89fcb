package imop

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/esimov/fillfrom/utils"
)

// The supported Porter-Duff composition operations.
const (
	Clear   = "clear"
	Copy    = "copy"
	Dst     = "dst"
	SrcOver = "src_over"
	DstOver = "dst_over"
	SrcIn   = "src_in"
	DstIn   = "dst_in"
	SrcOut  = "src_out"
	DstOut  = "dst_out"
	SrcAtop = "src_atop"
	DstAtop = "dst_atop"
	Xor     = "xor"
)

// factors returns the Porter-Duff coefficients Fa and Fb of an operation,
// where as and ab are the source and backdrop alpha values.
type factors func(as, ab float64) (fa, fb float64)

var compOps = map[string]factors{
	Clear:   func(as, ab float64) (float64, float64) { return 0, 0 },
	Copy:    func(as, ab float64) (float64, float64) { return 1, 0 },
	Dst:     func(as, ab float64) (float64, float64) { return 0, 1 },
	SrcOver: func(as, ab float64) (float64, float64) { return 1, 1 - as },
	DstOver: func(as, ab float64) (float64, float64) { return 1 - ab, 1 },
	SrcIn:   func(as, ab float64) (float64, float64) { return ab, 0 },
	DstIn:   func(as, ab float64) (float64, float64) { return 0, as },
	SrcOut:  func(as, ab float64) (float64, float64) { return 1 - ab, 0 },
	DstOut:  func(as, ab float64) (float64, float64) { return 0, 1 - as },
	SrcAtop: func(as, ab float64) (float64, float64) { return ab, 1 - as },
	DstAtop: func(as, ab float64) (float64, float64) { return 1 - ab, as },
	Xor:     func(as, ab float64) (float64, float64) { return 1 - ab, 1 - as },
}

// Clip limits a composition to the pixels for which it returns true.
type Clip func(x, y int) bool

// Composite holds the currently active composition operation.
type Composite struct {
	current string
}

// InitOp returns a Composite using the source-over-destination operation.
func InitOp() *Composite {
	return &Composite{current: SrcOver}
}

// Set activates one of the supported composition operations.
func (op *Composite) Set(cop string) error {
	if _, ok := compOps[cop]; !ok {
		return fmt.Errorf("unsupported composition operation: %q", cop)
	}
	op.current = cop
	return nil
}

// Get returns the active composition operation.
func (op *Composite) Get() string {
	return op.current
}

// Draw composes the source image over dst inside the r rectangle (in dst coordinates).
// The sp point of src is aligned with r.Min. When blend is not nil the source colors
// are mixed with the backdrop before the composition. Pixels rejected by clip are left
// untouched; a nil clip accepts every pixel.
func (op *Composite) Draw(dst *image.NRGBA, r image.Rectangle, src *image.NRGBA, sp image.Point, clip Clip, blend *Blend) {
	r = r.Intersect(dst.Bounds())
	// Keep only the area which is covered by the source image.
	r = r.Intersect(src.Bounds().Add(r.Min.Sub(sp)))
	if r.Empty() {
		return
	}
	fn := compOps[op.current]

	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if clip != nil && !clip(x, y) {
				continue
			}
			sx, sy := x-r.Min.X+sp.X, y-r.Min.Y+sp.Y

			cs := toColor(src.NRGBAAt(sx, sy))
			cb := toColor(dst.NRGBAAt(x, y))

			if blend != nil && blend.OpType != "" {
				cs = blend.mix(cs, cb)
			}
			fa, fb := fn(cs.A, cb.A)

			ao := fa*cs.A + fb*cb.A
			if ao == 0 {
				dst.SetNRGBA(x, y, color.NRGBA{})
				continue
			}
			dst.SetNRGBA(x, y, color.NRGBA{
				R: toByte((fa*cs.A*cs.R + fb*cb.A*cb.R) / ao),
				G: toByte((fa*cs.A*cs.G + fb*cb.A*cb.G) / ao),
				B: toByte((fa*cs.A*cs.B + fb*cb.A*cb.B) / ao),
				A: toByte(ao),
			})
		}
	}
}

// Color is a non-premultiplied color with channels in the [0, 1] range.
type Color struct {
	R, G, B, A float64
}

func toColor(c color.NRGBA) Color {
	return Color{
		R: float64(c.R) / 255,
		G: float64(c.G) / 255,
		B: float64(c.B) / 255,
		A: float64(c.A) / 255,
	}
}

func toByte(v float64) uint8 {
	return uint8(utils.Clamp(math.Round(v*255), 0, 255))
}

package fillfrom

import (
	"image"
	"math"
	"time"

	"github.com/esimov/fillfrom/utils"
	"github.com/pkg/errors"
)

// InpaintConfig holds the options of the inpainting mode.
type InpaintConfig struct {
	WeightMultiplier float64 `yaml:"weight"`
	Randomize        bool    `yaml:"randomize"`
	// Seed of the direction shuffler. Zero means a time based seed.
	Seed int64 `yaml:"seed"`
}

// BlurConfig holds the options of the blurring mode.
type BlurConfig struct {
	WeightMultiplier float64 `yaml:"weight"`
	Randomize        bool    `yaml:"randomize"`
	Seed             int64   `yaml:"seed"`
	Strength         float64 `yaml:"strength"`
}

// Stats reports the work done by a fill operation.
type Stats struct {
	Passes int
	Writes int
}

// Inpaint fills the selected pixels with the weighted average of their
// unselected neighbours. After every pass the layer is committed and the
// selection shrinks by one ring, so the fill progresses from the selection
// border inwards, until nothing is selected anymore.
func Inpaint(l Layer, sel Selection, cfg InpaintConfig) (Stats, error) {
	if !isPositive(cfg.WeightMultiplier) {
		return Stats{}, ErrInvalidWeight
	}
	fn := InpaintWeight(cfg.WeightMultiplier)
	if !validWeights(fn) {
		return Stats{}, errors.Wrapf(ErrInvalidWeight, "weight multiplier %v out of the representable range", cfg.WeightMultiplier)
	}
	w := newWalker(fn, cfg.Randomize, seed(cfg.Seed))
	outside := func(x, y int) bool {
		return !sel.Contains(x, y)
	}
	return diffuse(l, sel, w, outside), nil
}

// Blur replaces the selected pixels with the weighted average of all their
// neighbours, selected or not. Since the selection shrinks after each pass,
// the pixels closer to the selection center are blurred more times.
func Blur(l Layer, sel Selection, cfg BlurConfig) (Stats, error) {
	if !isPositive(cfg.WeightMultiplier) {
		return Stats{}, ErrInvalidWeight
	}
	if !isPositive(cfg.Strength) {
		return Stats{}, ErrInvalidStrength
	}
	fn := BlurWeight(cfg.WeightMultiplier, cfg.Strength)
	if !validWeights(fn) {
		return Stats{}, errors.Wrapf(ErrInvalidWeight, "weight multiplier %v with strength %v out of the representable range",
			cfg.WeightMultiplier, cfg.Strength)
	}
	w := newWalker(fn, cfg.Randomize, seed(cfg.Seed))
	all := func(x, y int) bool {
		return true
	}
	return diffuse(l, sel, w, all), nil
}

// diffuse runs the pass - commit - shrink loop shared by the inpainting and blurring modes.
// Only the neighbours for which accept returns true contribute to the average.
// Selected pixels lying outside of the layer are not written.
func diffuse(l Layer, sel Selection, w *walker, accept func(x, y int) bool) Stats {
	var (
		stats  Stats
		bounds = l.Bounds()
		sum    = make([]float64, l.Channels())
	)

	for ok, r := sel.Bounds(); ok; ok, r = sel.Bounds() {
		for x := r.Min.X; x < r.Max.X; x++ {
			for y := r.Min.Y; y < r.Max.Y; y++ {
				if !sel.Contains(x, y) || !(image.Point{X: x, Y: y}).In(bounds) {
					continue
				}
				total, n := sample(l, bounds, x, y, w.order(), accept, sum)
				// Pixels surrounded only by selected pixels are revisited in a later pass.
				if n == 0 {
					continue
				}
				l.SetPixel(x, y, mean(sum, total))
				stats.Writes++
			}
		}
		l.Commit(bounds)
		stats.Passes++
		sel.Shrink(1)
	}
	return stats
}

// sample accumulates into sum the weighted channel values of the accepted
// in-bounds neighbours of (x, y). It returns the total weight and the
// number of neighbours taken into account.
func sample(
	l Layer,
	bounds image.Rectangle,
	x, y int,
	dirs []direction,
	accept func(x, y int) bool,
	sum []float64,
) (float64, int) {
	var (
		total float64
		n     int
	)
	for i := range sum {
		sum[i] = 0
	}
	for _, d := range dirs {
		nx, ny := x+d.offset.X, y+d.offset.Y
		if !(image.Point{X: nx, Y: ny}).In(bounds) || !accept(nx, ny) {
			continue
		}
		px := l.Pixel(nx, ny)
		for c := range sum {
			sum[c] += d.weight * float64(px[c])
		}
		total += d.weight
		n++
	}
	return total, n
}

// mean divides the weighted sums by the total weight and rounds the result.
func mean(sum []float64, total float64) Pixel {
	px := make(Pixel, len(sum))
	for c, s := range sum {
		px[c] = uint8(utils.Clamp(math.Round(s/total), 0, 255))
	}
	return px
}

func isPositive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

func seed(s int64) int64 {
	if s == 0 {
		return time.Now().UnixNano()
	}
	return s
}

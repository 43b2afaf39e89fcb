package fillfrom

import (
	"image"
	"math"
	"math/rand"
	"sort"
)

// epsilon keeps the weight function finite for a zero distance.
const epsilon = 1e-5

// WeightFunc maps the distance between two pixels to the weight
// of the neighbouring color in the average.
type WeightFunc func(dist float64) float64

// neighborhood holds the 8 offsets of a 3x3 window, without its center.
var neighborhood = []image.Point{
	{-1, -1}, {-1, 0}, {-1, 1},
	{0, -1}, {0, 1},
	{1, -1}, {1, 0}, {1, 1},
}

// InpaintWeight returns the weight function used by the inpainting mode.
func InpaintWeight(multiplier float64) WeightFunc {
	return func(dist float64) float64 {
		return multiplier / (dist + epsilon)
	}
}

// BlurWeight returns the weight function used by the blurring mode.
// A bigger strength flattens the weight curve, resulting in a more uniform blur.
func BlurWeight(multiplier, strength float64) WeightFunc {
	return func(dist float64) float64 {
		return multiplier / (dist/strength + epsilon)
	}
}

// direction is a neighbour offset with its precomputed weight.
type direction struct {
	offset image.Point
	dist   float64
	weight float64
}

// directions returns the neighbour offsets weighted by fn,
// sorted by descending weight (orthogonal neighbours first).
// The weights are scaled so that the largest one is 1. The scale cancels
// out of the weighted mean and keeps the channel sums finite.
func directions(fn WeightFunc) []direction {
	dirs := make([]direction, len(neighborhood))
	for i, p := range neighborhood {
		dist := math.Hypot(float64(p.X), float64(p.Y))
		dirs[i] = direction{offset: p, dist: dist, weight: fn(dist)}
	}
	sort.SliceStable(dirs, func(i, j int) bool {
		return dirs[i].weight > dirs[j].weight
	})
	if top := dirs[0].weight; top > 0 {
		for i := range dirs {
			dirs[i].weight /= top
		}
	}
	return dirs
}

// validWeights reports whether fn gives a finite, positive weight for every
// neighbour distance. The weight functions decrease with the distance,
// so checking the nearest and the farthest neighbour is enough.
func validWeights(fn WeightFunc) bool {
	return isPositive(fn(1)) && isPositive(fn(math.Sqrt2))
}

// walker hands out the neighbour scan order for every visited pixel.
// The order has no influence on the computed average; it's kept so that
// an order sensitive variant can be plugged in.
type walker struct {
	sorted []direction
	buf    []direction
	rnd    *rand.Rand
}

func newWalker(fn WeightFunc, randomize bool, seed int64) *walker {
	w := &walker{sorted: directions(fn)}
	if randomize {
		w.rnd = rand.New(rand.NewSource(seed))
		w.buf = make([]direction, len(w.sorted))
	}
	return w
}

// order returns the directions to scan for the next pixel.
func (w *walker) order() []direction {
	if w.rnd == nil {
		return w.sorted
	}
	copy(w.buf, w.sorted)
	w.rnd.Shuffle(len(w.buf), func(i, j int) {
		w.buf[i], w.buf[j] = w.buf[j], w.buf[i]
	})
	return w.buf
}

package fillfrom

import (
	"image"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeight_PositiveAndFinite(t *testing.T) {
	for _, m := range []float64{0.1, 0.5, 1, 3.7, 10} {
		for _, d := range []float64{1, math.Sqrt2} {
			w := InpaintWeight(m)(d)
			assert.True(t, w > 0 && !math.IsInf(w, 0), "inpaint m=%v d=%v", m, d)

			for _, s := range []float64{0.1, 1, 10} {
				w := BlurWeight(m, s)(d)
				assert.True(t, w > 0 && !math.IsInf(w, 0), "blur m=%v s=%v d=%v", m, s, d)
			}
		}
	}
	// The zero distance stays finite.
	assert.False(t, math.IsInf(InpaintWeight(1)(0), 0))
}

func TestWeight_Values(t *testing.T) {
	assert.InDelta(t, 1/(1+epsilon), InpaintWeight(1)(1), 1e-12)
	assert.InDelta(t, 2/(math.Sqrt2+epsilon), InpaintWeight(2)(math.Sqrt2), 1e-12)
	assert.InDelta(t, 1/(0.5+epsilon), BlurWeight(1, 2)(1), 1e-12)

	// The strength scales the weights up, the ratio of the diagonal and
	// orthogonal neighbours stays close to 1/sqrt(2).
	weak, strong := BlurWeight(1, 0.5), BlurWeight(1, 10)
	assert.Greater(t, strong(1), weak(1))
	assert.InDelta(t, 1/math.Sqrt2, weak(math.Sqrt2)/weak(1), 1e-3)
	assert.InDelta(t, 1/math.Sqrt2, strong(math.Sqrt2)/strong(1), 1e-3)
}

func TestWeight_DirectionsSorted(t *testing.T) {
	dirs := directions(InpaintWeight(1))
	require.Len(t, dirs, 8)
	assert.Equal(t, 1.0, dirs[0].weight)

	for i, d := range dirs {
		if i < 4 {
			assert.Equal(t, 1.0, d.dist, "orthogonal neighbours come first")
		} else {
			assert.InDelta(t, math.Sqrt2, d.dist, 1e-12)
		}
		if i > 0 {
			assert.GreaterOrEqual(t, dirs[i-1].weight, d.weight)
		}
	}
}

func TestWeight_DirectionsScaleFree(t *testing.T) {
	small, large := directions(InpaintWeight(0.1)), directions(InpaintWeight(1e306))
	for i := range small {
		assert.InDelta(t, small[i].weight, large[i].weight, 1e-12)
		assert.False(t, math.IsInf(large[i].weight, 0))
	}

	assert.True(t, validWeights(InpaintWeight(1e306)))
	assert.True(t, validWeights(BlurWeight(10, 0.1)))
	assert.False(t, validWeights(BlurWeight(math.MaxFloat64, 10)))
	assert.False(t, validWeights(BlurWeight(5e-324, 0.1)))
}

func TestWeight_WalkerShuffle(t *testing.T) {
	fn := InpaintWeight(1)

	plain := newWalker(fn, false, 1)
	assert.Equal(t, directions(fn), plain.order())

	a, b := newWalker(fn, true, 42), newWalker(fn, true, 42)
	for i := 0; i < 10; i++ {
		oa := append([]direction(nil), a.order()...)
		ob := append([]direction(nil), b.order()...)
		assert.Equal(t, oa, ob, "same seed, same order")
		assert.ElementsMatch(t, directions(fn), oa)
	}
}

func TestWeight_OrderInvariance(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	img := image.NewNRGBA(image.Rect(0, 0, 5, 5))
	rnd.Read(img.Pix)
	layer := NewDrawable(img)

	all := func(x, y int) bool { return true }
	fn := BlurWeight(1.3, 2.1)
	sorted := directions(fn)

	sum := make([]float64, 4)
	total, n := sample(layer, img.Bounds(), 2, 2, sorted, all, sum)
	want := mean(sum, total)
	require.Equal(t, 8, n)

	w := newWalker(fn, true, 99)
	for i := 0; i < 20; i++ {
		total, n := sample(layer, img.Bounds(), 2, 2, w.order(), all, sum)
		assert.Equal(t, 8, n)
		got := mean(sum, total)
		assert.True(t, compareBytes(want, got, 1), "want %v got %v", want, got)
	}
}

package fillfrom

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingLayer records the pixel writes and the commits of the wrapped layer.
type countingLayer struct {
	Layer
	writes  int
	commits []image.Rectangle
}

func (c *countingLayer) SetPixel(x, y int, px Pixel) {
	c.writes++
	c.Layer.SetPixel(x, y, px)
}

func (c *countingLayer) Commit(r image.Rectangle) {
	c.commits = append(c.commits, r)
	c.Layer.Commit(r)
}

func uniformImage(r image.Rectangle, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(r)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

var (
	red   = color.NRGBA{R: 255, A: 255}
	green = color.NRGBA{G: 255, A: 255}
)

func TestInpaint_SingleNeighbour(t *testing.T) {
	c := color.NRGBA{R: 12, G: 34, B: 56, A: 78}
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, c)
	img.SetNRGBA(1, 0, color.NRGBA{R: 255, G: 255, B: 255, A: 255})

	sel := MaskFromRect(img.Bounds(), image.Rect(1, 0, 2, 1))
	stats, err := Inpaint(NewDrawable(img), sel, InpaintConfig{WeightMultiplier: 3.3})
	require.NoError(t, err)

	assert.Equal(t, c, img.NRGBAAt(1, 0))
	assert.Equal(t, Stats{Passes: 1, Writes: 1}, stats)
}

func TestInpaint_EmptySelection(t *testing.T) {
	img := uniformImage(image.Rect(0, 0, 4, 4), red)
	layer := &countingLayer{Layer: NewDrawable(img)}

	stats, err := Inpaint(layer, NewMask(img.Bounds()), InpaintConfig{WeightMultiplier: 1})
	require.NoError(t, err)

	assert.Zero(t, layer.writes)
	assert.Empty(t, layer.commits)
	assert.Equal(t, Stats{}, stats)
}

func TestInpaint_SinglePixelExample(t *testing.T) {
	img := uniformImage(image.Rect(0, 0, 4, 4), red)
	img.SetNRGBA(1, 1, green)
	img.SetNRGBA(2, 2, color.NRGBA{B: 255, A: 255})

	sel := NewMask(img.Bounds())
	sel.Set(2, 2, true)
	layer := &countingLayer{Layer: NewDrawable(img)}

	stats, err := Inpaint(layer, sel, InpaintConfig{WeightMultiplier: 1})
	require.NoError(t, err)

	px := img.NRGBAAt(2, 2)
	assert.Equal(t, color.NRGBA{R: 229, G: 26, B: 0, A: 255}, px)
	assert.Greater(t, px.R, px.G, "the result should be biased toward red")

	assert.Equal(t, 1, stats.Passes)
	assert.Equal(t, 1, stats.Writes)
	assert.Equal(t, []image.Rectangle{img.Bounds()}, layer.commits)

	ok, _ := sel.Bounds()
	assert.False(t, ok, "the selection should be empty after the fill")
}

func TestInpaint_FillsFromBorderInwards(t *testing.T) {
	img := uniformImage(image.Rect(0, 0, 5, 5), green)
	sel := MaskFromRect(img.Bounds(), image.Rect(1, 1, 4, 4))
	for y := 1; y < 4; y++ {
		for x := 1; x < 4; x++ {
			img.SetNRGBA(x, y, red)
		}
	}

	var frames []int
	layer := NewDrawable(img)
	layer.OnCommit = func(_ *image.NRGBA, r image.Rectangle, pass int) {
		assert.Equal(t, img.Bounds(), r)
		frames = append(frames, pass)
	}

	stats, err := Inpaint(layer, sel, InpaintConfig{WeightMultiplier: 1})
	require.NoError(t, err)

	// The ring is filled in the first pass, the center in the second one.
	assert.Equal(t, Stats{Passes: 2, Writes: 9}, stats)
	assert.Equal(t, []int{1, 2}, frames)
	for y := 0; y < 5; y++ {
		for x := 0; x < 5; x++ {
			assert.Equal(t, green, img.NRGBAAt(x, y), "pixel (%d, %d)", x, y)
		}
	}
}

func TestInpaint_WholeImageSelected(t *testing.T) {
	img := uniformImage(image.Rect(0, 0, 3, 3), red)
	sel := MaskFromRect(img.Bounds(), img.Bounds())

	stats, err := Inpaint(NewDrawable(img), sel, InpaintConfig{WeightMultiplier: 1})
	require.NoError(t, err)

	// The first pass finds no unselected neighbour. After the border ring is
	// shrunk away, the center is filled from it.
	assert.Equal(t, Stats{Passes: 2, Writes: 1}, stats)
	assert.Equal(t, red, img.NRGBAAt(1, 1))
}

func TestInpaint_RandomizeSameResult(t *testing.T) {
	build := func() (*image.NRGBA, *Mask) {
		img := image.NewNRGBA(image.Rect(0, 0, 9, 9))
		for i := range img.Pix {
			img.Pix[i] = uint8(i * 37 % 251)
		}
		return img, MaskFromRect(img.Bounds(), image.Rect(2, 2, 7, 7))
	}

	want, sel := build()
	_, err := Inpaint(NewDrawable(want), sel, InpaintConfig{WeightMultiplier: 1})
	require.NoError(t, err)

	got, sel := build()
	_, err = Inpaint(NewDrawable(got), sel, InpaintConfig{WeightMultiplier: 1, Randomize: true, Seed: 5})
	require.NoError(t, err)

	assert.True(t, compareBytes(want.Pix, got.Pix, 1))
}

func TestInpaint_InvalidWeight(t *testing.T) {
	for _, m := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		img := uniformImage(image.Rect(0, 0, 3, 3), red)
		layer := &countingLayer{Layer: NewDrawable(img)}
		sel := MaskFromRect(img.Bounds(), image.Rect(1, 1, 2, 2))

		_, err := Inpaint(layer, sel, InpaintConfig{WeightMultiplier: m})
		assert.Equal(t, ErrInvalidWeight, err)
		assert.Zero(t, layer.writes)
		assert.Equal(t, 1, sel.Count(), "the selection should not be touched")
	}
}

func TestInpaint_LargeWeightMultiplier(t *testing.T) {
	c := color.NRGBA{R: 200, G: 100, B: 50, A: 255}
	for _, m := range []float64{1e306, math.MaxFloat64} {
		img := uniformImage(image.Rect(0, 0, 3, 3), c)
		img.SetNRGBA(1, 1, red)
		sel := MaskFromRect(img.Bounds(), image.Rect(1, 1, 2, 2))

		stats, err := Inpaint(NewDrawable(img), sel, InpaintConfig{WeightMultiplier: m})
		require.NoError(t, err)
		assert.Equal(t, c, img.NRGBAAt(1, 1), "multiplier %v", m)
		assert.Equal(t, Stats{Passes: 1, Writes: 1}, stats)
	}
}

func TestDiffusion_OverflowingWeights(t *testing.T) {
	img := uniformImage(image.Rect(0, 0, 3, 3), red)
	sel := MaskFromRect(img.Bounds(), image.Rect(1, 1, 2, 2))

	// The multiplier divided by the small blur denominator overflows.
	_, err := Blur(NewDrawable(img), sel, BlurConfig{WeightMultiplier: math.MaxFloat64, Strength: 10})
	assert.Equal(t, ErrInvalidWeight, errors.Cause(err))

	// A denormal multiplier underflows to zero weights.
	_, err = Blur(NewDrawable(img), sel, BlurConfig{WeightMultiplier: 5e-324, Strength: 0.1})
	assert.Equal(t, ErrInvalidWeight, errors.Cause(err))
	assert.Equal(t, 1, sel.Count())
}

func TestDiffusion_SelectionWiderThanLayer(t *testing.T) {
	img := uniformImage(image.Rect(0, 0, 4, 4), green)
	img.SetNRGBA(3, 1, red)

	sel := MaskFromRect(image.Rect(0, 0, 6, 4), image.Rect(3, 1, 6, 2))
	layer := &countingLayer{Layer: NewDrawable(img)}

	stats, err := Inpaint(layer, sel, InpaintConfig{WeightMultiplier: 1})
	require.NoError(t, err)
	assert.Equal(t, green, img.NRGBAAt(3, 1))
	assert.Equal(t, 1, layer.writes, "only the pixel inside the layer is written")
	assert.Equal(t, 1, stats.Writes)
	assert.Equal(t, uniformImage(img.Bounds(), green).Pix, img.Pix)

	_, err = Blur(NewDrawable(img), MaskFromRect(image.Rect(0, 0, 6, 6), image.Rect(2, 2, 6, 6)),
		BlurConfig{WeightMultiplier: 1, Strength: 1})
	require.NoError(t, err)
	assert.Equal(t, uniformImage(img.Bounds(), green).Pix, img.Pix)
}

func TestBlur_UniformIsNoop(t *testing.T) {
	c := color.NRGBA{R: 17, G: 131, B: 240, A: 200}
	for _, s := range []float64{0.1, 0.7, 1, 4.2, 10} {
		img := uniformImage(image.Rect(0, 0, 6, 6), c)
		sel := MaskFromRect(img.Bounds(), image.Rect(0, 0, 5, 6))

		_, err := Blur(NewDrawable(img), sel, BlurConfig{WeightMultiplier: 1, Strength: s})
		require.NoError(t, err)
		assert.Equal(t, uniformImage(img.Bounds(), c).Pix, img.Pix, "strength %v", s)
	}
}

func TestBlur_CornerSample(t *testing.T) {
	img := uniformImage(image.Rect(0, 0, 4, 4), red)
	layer := NewDrawable(img)
	fn := BlurWeight(1, 1)
	all := func(x, y int) bool { return true }

	sum := make([]float64, layer.Channels())
	total, n := sample(layer, img.Bounds(), 0, 0, directions(fn), all, sum)
	// The weights are relative to the orthogonal neighbours.
	diag := fn(math.Sqrt2) / fn(1)
	assert.Equal(t, 3, n)
	assert.InDelta(t, 2+diag, total, 1e-9)

	total, n = sample(layer, img.Bounds(), 3, 1, directions(fn), all, sum)
	assert.Equal(t, 5, n)
	assert.InDelta(t, 3+2*diag, total, 1e-9)
}

func TestBlur_UsesSelectedNeighbours(t *testing.T) {
	img := uniformImage(image.Rect(0, 0, 3, 3), red)
	img.SetNRGBA(1, 1, green)
	// The corner and the green center are selected.
	sel := NewMask(img.Bounds())
	sel.Set(0, 0, true)
	sel.Set(1, 1, true)

	stats, err := Blur(NewDrawable(img), sel, BlurConfig{WeightMultiplier: 1, Strength: 1})
	require.NoError(t, err)
	assert.Equal(t, Stats{Passes: 1, Writes: 2}, stats)

	// (0,0) is visited first and sees the green center, even if it's selected.
	corner := img.NRGBAAt(0, 0)
	assert.Greater(t, corner.G, uint8(0))
	assert.Less(t, corner.R, uint8(255))
	// The center sees the red ring and the already blended corner.
	center := img.NRGBAAt(1, 1)
	assert.Greater(t, center.R, uint8(200))
	assert.Less(t, center.G, uint8(40))
}

func TestBlur_MorePassesTowardsCenter(t *testing.T) {
	img := uniformImage(image.Rect(0, 0, 7, 7), red)
	sel := MaskFromRect(img.Bounds(), image.Rect(1, 1, 6, 6))
	layer := &countingLayer{Layer: NewDrawable(img)}

	stats, err := Blur(layer, sel, BlurConfig{WeightMultiplier: 2, Strength: 3})
	require.NoError(t, err)

	// 25 + 9 + 1 writes over 3 passes.
	assert.Equal(t, Stats{Passes: 3, Writes: 35}, stats)
	assert.Equal(t, 35, layer.writes)
	assert.Len(t, layer.commits, 3)
}

func TestBlur_InvalidConfig(t *testing.T) {
	img := uniformImage(image.Rect(0, 0, 3, 3), red)
	sel := MaskFromRect(img.Bounds(), img.Bounds())

	_, err := Blur(NewDrawable(img), sel, BlurConfig{WeightMultiplier: 0, Strength: 1})
	assert.Equal(t, ErrInvalidWeight, err)

	_, err = Blur(NewDrawable(img), sel, BlurConfig{WeightMultiplier: 1, Strength: 0})
	assert.Equal(t, ErrInvalidStrength, err)

	_, err = Blur(NewDrawable(img), sel, BlurConfig{WeightMultiplier: 1, Strength: math.Inf(1)})
	assert.Equal(t, ErrInvalidStrength, err)
}

func BenchmarkInpaint(b *testing.B) {
	src := image.NewNRGBA(image.Rect(0, 0, 256, 256))
	for i := range src.Pix {
		src.Pix[i] = uint8(i % 255)
	}
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		img := imgToNRGBA(src)
		sel := MaskFromRect(img.Bounds(), image.Rect(64, 64, 192, 192))
		if _, err := Inpaint(NewDrawable(img), sel, InpaintConfig{WeightMultiplier: 1}); err != nil {
			b.Fatalf("inpaint failed: %v", err)
		}
	}
}

func BenchmarkBlur(b *testing.B) {
	src := image.NewNRGBA(image.Rect(0, 0, 256, 256))
	for i := range src.Pix {
		src.Pix[i] = uint8(i % 255)
	}
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		img := imgToNRGBA(src)
		sel := MaskFromRect(img.Bounds(), image.Rect(64, 64, 192, 192))
		if _, err := Blur(NewDrawable(img), sel, BlurConfig{WeightMultiplier: 1, Strength: 2}); err != nil {
			b.Fatalf("blur failed: %v", err)
		}
	}
}

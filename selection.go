package fillfrom

import (
	"image"
	"image/color"

	"github.com/esimov/fillfrom/utils"
)

// Selection marks the pixels which should be filled.
// The fill engine only queries a selection and asks it to shrink,
// it never sets or clears individual pixels.
type Selection interface {
	// Bounds returns the bounding box of the selected region (Max is exclusive).
	// The first return value is false when nothing is selected.
	Bounds() (bool, image.Rectangle)
	// Contains reports whether the pixel at (x, y) is selected.
	Contains(x, y int) bool
	// Shrink erodes the selected region by px rings of pixels.
	Shrink(px int)
}

var _ Selection = (*Mask)(nil)

// Mask is a bitmap backed selection.
type Mask struct {
	rect image.Rectangle
	bits []bool
}

// NewMask returns an empty mask covering rect.
func NewMask(rect image.Rectangle) *Mask {
	return &Mask{
		rect: rect,
		bits: make([]bool, rect.Dx()*rect.Dy()),
	}
}

// MaskFromRect returns a mask over bounds with the area r selected.
func MaskFromRect(bounds, r image.Rectangle) *Mask {
	m := NewMask(bounds)
	m.Fill(r)
	return m
}

// MaskFromImage builds a mask out of an image, selecting every pixel whose
// luminance, premultiplied by its alpha, is above the threshold.
// A white pixel on a black background is therefore selected.
func MaskFromImage(img image.Image, threshold uint8) *Mask {
	b := img.Bounds()
	m := NewMask(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			// The color.Gray conversion works on alpha premultiplied values.
			g := color.GrayModel.Convert(img.At(x, y)).(color.Gray)
			if g.Y > threshold {
				m.bits[m.offset(x, y)] = true
			}
		}
	}
	return m
}

// Rect returns the area covered by the mask.
func (m *Mask) Rect() image.Rectangle {
	return m.rect
}

func (m *Mask) offset(x, y int) int {
	return (y-m.rect.Min.Y)*m.rect.Dx() + (x - m.rect.Min.X)
}

// Contains reports whether (x, y) is selected. Pixels outside the mask are never selected.
func (m *Mask) Contains(x, y int) bool {
	if !(image.Point{X: x, Y: y}).In(m.rect) {
		return false
	}
	return m.bits[m.offset(x, y)]
}

// Set selects or deselects a single pixel. Out of range coordinates are ignored.
func (m *Mask) Set(x, y int, selected bool) {
	if !(image.Point{X: x, Y: y}).In(m.rect) {
		return
	}
	m.bits[m.offset(x, y)] = selected
}

// Fill selects every pixel of r which lies inside the mask.
func (m *Mask) Fill(r image.Rectangle) {
	r = r.Intersect(m.rect)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			m.bits[m.offset(x, y)] = true
		}
	}
}

// Union adds the selected pixels of other to m.
func (m *Mask) Union(other *Mask) {
	if other == nil {
		return
	}
	r := other.rect.Intersect(m.rect)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if other.bits[other.offset(x, y)] {
				m.bits[m.offset(x, y)] = true
			}
		}
	}
}

// Count returns the number of selected pixels.
func (m *Mask) Count() int {
	var n int
	for _, b := range m.bits {
		if b {
			n++
		}
	}
	return n
}

// Clone returns a deep copy of the mask.
func (m *Mask) Clone() *Mask {
	bits := make([]bool, len(m.bits))
	copy(bits, m.bits)
	return &Mask{rect: m.rect, bits: bits}
}

// Bounds returns the bounding box of the selected pixels.
func (m *Mask) Bounds() (bool, image.Rectangle) {
	var (
		x0, y0 = m.rect.Max.X, m.rect.Max.Y
		x1, y1 = m.rect.Min.X, m.rect.Min.Y
		found  bool
	)
	for y := m.rect.Min.Y; y < m.rect.Max.Y; y++ {
		for x := m.rect.Min.X; x < m.rect.Max.X; x++ {
			if !m.bits[m.offset(x, y)] {
				continue
			}
			found = true
			x0, y0 = utils.Min(x0, x), utils.Min(y0, y)
			x1, y1 = utils.Max(x1, x+1), utils.Max(y1, y+1)
		}
	}
	if !found {
		return false, image.Rectangle{}
	}
	return true, image.Rect(x0, y0, x1, y1)
}

// Shrink erodes the selection by px rings. In every ring a pixel stays
// selected only if all of its 8 neighbours are selected as well.
// Neighbours outside the mask count as unselected, so the selection
// shrinks away from the image border too.
func (m *Mask) Shrink(px int) {
	for i := 0; i < px; i++ {
		ok, r := m.Bounds()
		if !ok {
			return
		}
		next := make([]bool, len(m.bits))
		for y := r.Min.Y; y < r.Max.Y; y++ {
			for x := r.Min.X; x < r.Max.X; x++ {
				idx := m.offset(x, y)
				next[idx] = m.bits[idx] && m.surrounded(x, y)
			}
		}
		m.bits = next
	}
}

// surrounded reports whether all the 8 neighbours of (x, y) are selected.
func (m *Mask) surrounded(x, y int) bool {
	for _, d := range neighborhood {
		if !m.Contains(x+d.X, y+d.Y) {
			return false
		}
	}
	return true
}

// Image renders the mask as a grayscale image, white where selected.
// It's used for debugging the selection.
func (m *Mask) Image() *image.Gray {
	dst := image.NewGray(m.rect)
	for y := m.rect.Min.Y; y < m.rect.Max.Y; y++ {
		for x := m.rect.Min.X; x < m.rect.Max.X; x++ {
			if m.bits[m.offset(x, y)] {
				dst.SetGray(x, y, color.Gray{Y: 0xff})
			}
		}
	}
	return dst
}

package fillfrom

import (
	"image"
)

// Pixel is an ordered tuple of channel values (R, G, B, A for an NRGBA layer).
type Pixel []uint8

// Layer is the pixel grid the fill engine reads from and writes into.
type Layer interface {
	Bounds() image.Rectangle
	Channels() int
	Pixel(x, y int) Pixel
	SetPixel(x, y int, px Pixel)
	// Commit flushes the pending writes of the region r.
	Commit(r image.Rectangle)
}

// CommitFn is invoked each time a region of a Drawable has been committed.
// The pass counter starts from 1.
type CommitFn func(img *image.NRGBA, r image.Rectangle, pass int)

var _ Layer = (*Drawable)(nil)

// Drawable is a Layer backed by an *image.NRGBA.
type Drawable struct {
	Img      *image.NRGBA
	OnCommit CommitFn

	passes int
}

// NewDrawable wraps img into a Drawable.
func NewDrawable(img *image.NRGBA) *Drawable {
	return &Drawable{Img: img}
}

// Bounds returns the image bounds.
func (d *Drawable) Bounds() image.Rectangle {
	return d.Img.Bounds()
}

// Channels returns the number of channels per pixel.
func (d *Drawable) Channels() int {
	return 4
}

// Pixel returns a copy of the pixel at (x, y).
func (d *Drawable) Pixel(x, y int) Pixel {
	i := d.Img.PixOffset(x, y)
	px := make(Pixel, 4)
	copy(px, d.Img.Pix[i:i+4])
	return px
}

// SetPixel overwrites the pixel at (x, y).
func (d *Drawable) SetPixel(x, y int, px Pixel) {
	i := d.Img.PixOffset(x, y)
	copy(d.Img.Pix[i:i+4], px)
}

// Commit notifies the commit hook, if any.
func (d *Drawable) Commit(r image.Rectangle) {
	d.passes++
	if d.OnCommit != nil {
		d.OnCommit(d.Img, r.Intersect(d.Img.Bounds()), d.passes)
	}
}

// Commits returns the number of commits done so far.
func (d *Drawable) Commits() int {
	return d.passes
}

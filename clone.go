package fillfrom

import (
	"image"
	"image/gif"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/esimov/fillfrom/imop"
	"github.com/esimov/fillfrom/utils"
	"github.com/pkg/errors"
)

// CloneConfig holds the options of the clone texture mode.
type CloneConfig struct {
	// TexturePath is a local file or an URL. It takes precedence over an in-memory texture.
	TexturePath string `yaml:"texture"`
	// Filter is the resampling filter used to scale the texture to the selection size.
	Filter string `yaml:"filter"`
	// Composite is the Porter-Duff operation used for anchoring, source over by default.
	Composite string `yaml:"composite"`
	// Blend is an optional blend mode applied while anchoring.
	Blend string `yaml:"blend"`
	// ClipToSelection pastes into the selection instead of covering its whole bounding box.
	ClipToSelection bool `yaml:"clip"`
}

// Texture is a layered image used as the clone source.
type Texture struct {
	Layers []*image.NRGBA
}

// NewTexture returns a single layer texture.
func NewTexture(img image.Image) *Texture {
	return &Texture{Layers: []*image.NRGBA{imgToNRGBA(img)}}
}

// TextureSource is either an already loaded texture or a path to load it from.
type TextureSource struct {
	Image *Texture
	Path  string
}

var resampleFilters = map[string]imaging.ResampleFilter{
	"":           imaging.Lanczos,
	"lanczos":    imaging.Lanczos,
	"catmullrom": imaging.CatmullRom,
	"linear":     imaging.Linear,
	"box":        imaging.Box,
	"nearest":    imaging.NearestNeighbor,
}

// CloneTexture scales the first layer of the texture to the selection bounding
// box and anchors it onto the destination at the selection position.
// Without a selection it does nothing. On error dst is left untouched.
func CloneTexture(dst *Drawable, sel Selection, src TextureSource, cfg CloneConfig) error {
	filter, ok := resampleFilters[strings.ToLower(cfg.Filter)]
	if !ok {
		return errors.Errorf("unsupported resampling filter: %q", cfg.Filter)
	}
	op := imop.InitOp()
	if cfg.Composite != "" {
		if err := op.Set(cfg.Composite); err != nil {
			return errors.Wrap(err, "clone texture")
		}
	}
	var blend *imop.Blend
	if cfg.Blend != "" {
		blend = imop.NewBlend()
		if err := blend.Set(cfg.Blend); err != nil {
			return errors.Wrap(err, "clone texture")
		}
	}

	texture, err := src.Load()
	if err != nil {
		return err
	}
	if len(texture.Layers) == 0 {
		return ErrNoLayers
	}

	ok, r := sel.Bounds()
	if !ok {
		return nil
	}
	layer := ScaleLayer(texture.Layers[0], r.Dx(), r.Dy(), filter)

	var clip imop.Clip
	if cfg.ClipToSelection {
		clip = sel.Contains
	}
	Paste(dst, CopyLayer(layer), r.Min, clip).Anchor(op, blend)
	dst.Commit(r)

	return nil
}

// Load returns the in-memory texture or loads it from the path.
func (ts TextureSource) Load() (*Texture, error) {
	if ts.Path != "" {
		return LoadTexture(ts.Path)
	}
	if ts.Image == nil {
		return nil, ErrNoTexture
	}
	return ts.Image, nil
}

// LoadTexture loads a texture from a local file or an URL.
// The frames of an animated GIF become the texture layers.
func LoadTexture(path string) (*Texture, error) {
	if utils.IsValidUrl(path) {
		f, err := utils.DownloadImage(path)
		if err != nil {
			return nil, errors.Wrap(err, "could not download the texture")
		}
		defer os.Remove(f.Name())
		defer f.Close()

		return decodeTexture(f.Name(), filepath.Ext(path))
	}
	return decodeTexture(path, filepath.Ext(path))
}

func decodeTexture(path, ext string) (*Texture, error) {
	if strings.EqualFold(ext, ".gif") {
		f, err := os.Open(path)
		if err != nil {
			return nil, errors.Wrap(err, "could not open the texture file")
		}
		defer f.Close()

		g, err := gif.DecodeAll(f)
		if err != nil {
			return nil, errors.Wrap(err, "could not decode the texture file")
		}
		tex := &Texture{}
		for _, frame := range g.Image {
			tex.Layers = append(tex.Layers, imgToNRGBA(frame))
		}
		return tex, nil
	}

	img, err := decodeImg(path)
	if err != nil {
		return nil, errors.Wrap(err, "could not load the texture")
	}
	return NewTexture(img), nil
}

// ScaleLayer resizes the layer to exactly width x height pixels.
func ScaleLayer(layer *image.NRGBA, width, height int, filter imaging.ResampleFilter) *image.NRGBA {
	return imaging.Resize(layer, width, height, filter)
}

// CopyLayer returns a copy of the layer, with its origin moved to (0, 0).
func CopyLayer(layer *image.NRGBA) *image.NRGBA {
	return imaging.Clone(layer)
}

// Floating is a pasted image which is not yet merged into its target layer.
type Floating struct {
	Img    *image.NRGBA
	Offset image.Point

	target *Drawable
	clip   imop.Clip
}

// Paste creates a floating selection out of img, positioned at offset over the target.
// When clip is not nil, anchoring affects only the pixels accepted by it.
func Paste(target *Drawable, img *image.NRGBA, offset image.Point, clip imop.Clip) *Floating {
	return &Floating{
		Img:    img,
		Offset: offset,
		target: target,
		clip:   clip,
	}
}

// Anchor merges the floating selection into its target layer.
func (f *Floating) Anchor(op *imop.Composite, blend *imop.Blend) {
	if op == nil {
		op = imop.InitOp()
	}
	r := f.Img.Bounds().Sub(f.Img.Bounds().Min).Add(f.Offset)
	op.Draw(f.target.Img, r, f.Img, f.Img.Bounds().Min, f.clip, blend)
}

package fillfrom

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/disintegration/imaging"
	"github.com/esimov/fillfrom/utils"
	"github.com/pkg/errors"
)

// Reporter receives the non-fatal messages addressed to the user.
type Reporter func(msg string)

// Processor options
type Processor struct {
	Mode    Mode
	Inpaint InpaintConfig
	Blur    BlurConfig
	Clone   CloneConfig
	// Texture is the in-memory clone source, used when Clone.TexturePath is empty.
	Texture *Texture

	// Selection sources. The final selection is the union of all of them.
	Selection     *Mask
	Rect          image.Rectangle
	MaskPath      string
	MaskThreshold uint8
	MaskFeather   float64
	FaceDetect    bool
	Classifier    string
	FaceAngle     float64
	FacePadding   float64

	// FramesDir, when set, receives a png file with the layer state after each pass.
	FramesDir string

	Spinner  *utils.Spinner
	Logger   *log.Logger
	Reporter Reporter
}

// Fill runs the processing mode over a copy of img and returns the result.
// The source image is never modified.
func (p *Processor) Fill(img image.Image) (*image.NRGBA, Stats, error) {
	var stats Stats

	dst := imgToNRGBA(img)
	sel, err := p.buildSelection(dst)
	if err != nil {
		return nil, stats, err
	}
	layer := NewDrawable(dst)
	layer.OnCommit = p.onCommit

	ok, r := sel.Bounds()
	p.logger().Debug("selection ready", "mode", p.Mode, "empty", !ok, "bounds", r, "pixels", sel.Count())

	switch p.Mode {
	case ModeInpaint:
		stats, err = Inpaint(layer, sel, p.Inpaint)
	case ModeBlur:
		stats, err = Blur(layer, sel, p.Blur)
	case ModeClone:
		src := TextureSource{Image: p.Texture, Path: p.Clone.TexturePath}
		if cerr := CloneTexture(layer, sel, src, p.Clone); cerr != nil {
			// Clone errors are not fatal: they are reported and the image is kept unchanged.
			p.report(fmt.Sprintf("Error in clone texture: %v", cerr))
		}
		stats.Passes = layer.Commits()
	default:
		err = errors.Wrapf(ErrUnknownMode, "%d", int(p.Mode))
	}
	if err != nil {
		return nil, stats, err
	}
	p.logger().Info("fill completed", "mode", p.Mode, "passes", stats.Passes, "writes", stats.Writes)

	return dst, stats, nil
}

// Process decodes the image read from r, fills the selection and encodes the
// result into w. The output format is deduced from the file extension when
// w is a file, otherwise a jpeg is written.
func (p *Processor) Process(r io.Reader, w io.Writer) error {
	src, _, err := image.Decode(r)
	if err != nil {
		return errors.Wrap(err, "could not decode the source image")
	}
	res, _, err := p.Fill(src)
	if err != nil {
		return err
	}
	return encodeImg(w, res)
}

// buildSelection merges all the configured selection sources into a single mask.
func (p *Processor) buildSelection(img *image.NRGBA) (*Mask, error) {
	var (
		bounds  = img.Bounds()
		mask    = NewMask(bounds)
		sources int
	)

	if p.Selection != nil {
		mask.Union(p.Selection)
		sources++
	}
	if !p.Rect.Empty() {
		mask.Fill(p.Rect)
		sources++
	}
	if p.MaskPath != "" {
		m, err := p.loadMask(bounds)
		if err != nil {
			return nil, err
		}
		mask.Union(m)
		sources++
	}
	if p.FaceDetect {
		fd, err := NewFaceDetector(p.Classifier)
		if err != nil {
			return nil, err
		}
		fd.Angle = p.FaceAngle
		fd.Padding = p.FacePadding

		faces := fd.Detect(img)
		p.logger().Debug("face detection", "faces", len(faces))
		for _, r := range faces {
			mask.Fill(r)
		}
		sources++
	}
	if sources == 0 {
		return nil, ErrNoSelection
	}
	return mask, nil
}

// loadMask loads the mask image, scales it to the source size when needed,
// feathers it and thresholds it into a selection.
func (p *Processor) loadMask(bounds image.Rectangle) (*Mask, error) {
	src, err := decodeImg(p.MaskPath)
	if err != nil {
		return nil, errors.Wrap(err, "could not load the mask")
	}
	img := imgToNRGBA(src)

	if img.Bounds().Size() != bounds.Size() {
		p.logger().Warn("mask size differs from the image size, rescaling",
			"mask", img.Bounds().Size(), "image", bounds.Size())
		img = imaging.Resize(img, bounds.Dx(), bounds.Dy(), imaging.Linear)
	}
	if p.MaskFeather > 0 {
		img = imaging.Blur(img, p.MaskFeather)
	}
	return MaskFromImage(img, p.MaskThreshold), nil
}

// onCommit is called after each committed pass.
func (p *Processor) onCommit(img *image.NRGBA, r image.Rectangle, pass int) {
	p.logger().Debug("pass committed", "pass", pass, "region", r)
	if p.Spinner != nil {
		p.Spinner.SetSuffix(fmt.Sprintf("pass %d", pass))
	}
	if p.FramesDir == "" {
		return
	}
	if err := writeFrame(p.FramesDir, img, pass); err != nil {
		p.logger().Warn("could not write the pass frame", "pass", pass, "err", err)
	}
}

func writeFrame(dir string, img *image.NRGBA, pass int) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	f, err := os.Create(filepath.Join(dir, fmt.Sprintf("pass-%03d.png", pass)))
	if err != nil {
		return err
	}
	defer f.Close()

	return png.Encode(f, img)
}

func (p *Processor) report(msg string) {
	p.logger().Warn(msg)
	if p.Reporter != nil {
		p.Reporter(msg)
	}
}

func (p *Processor) logger() *log.Logger {
	if p.Logger == nil {
		p.Logger = log.New(io.Discard)
	}
	return p.Logger
}

package fillfrom

import (
	"image"
	"os"

	"github.com/esimov/fillfrom/utils"
	pigo "github.com/esimov/pigo/core"
	"github.com/pkg/errors"
)

// FaceDetector finds faces in an image, so they can be selected for filling,
// e.g. blurring them out.
type FaceDetector struct {
	classifier *pigo.Pigo

	// Angle is the rotation angle of the faces (in radians, 0 means upright).
	Angle float64
	// MinSize is the smallest face size in pixels.
	MinSize int
	// Padding grows the detected area by the given percent on each side.
	Padding float64
	// Threshold drops the detections with a lower score.
	Threshold float32
}

// NewFaceDetector unpacks the cascade classifier stored at path.
func NewFaceDetector(path string) (*FaceDetector, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "could not read the cascade file")
	}
	return NewFaceDetectorFromBytes(data)
}

// NewFaceDetectorFromBytes unpacks a cascade classifier.
func NewFaceDetectorFromBytes(cascade []byte) (fd *FaceDetector, err error) {
	// The unpacker indexes into the data without checking its length.
	defer func() {
		if r := recover(); r != nil {
			fd, err = nil, errors.Errorf("malformed cascade file: %v", r)
		}
	}()

	p := pigo.NewPigo()
	classifier, err := p.Unpack(cascade)
	if err != nil {
		return nil, errors.Wrap(err, "error unpacking the cascade file")
	}
	return &FaceDetector{
		classifier: classifier,
		MinSize:    20,
		Threshold:  5.0,
	}, nil
}

// Detect returns the area of every face found in img.
func (fd *FaceDetector) Detect(img *image.NRGBA) []image.Rectangle {
	dx, dy := img.Bounds().Dx(), img.Bounds().Dy()

	cParams := pigo.CascadeParams{
		MinSize:     fd.MinSize,
		MaxSize:     utils.Max(dx, dy),
		ShiftFactor: 0.1,
		ScaleFactor: 1.1,

		ImageParams: pigo.ImageParams{
			Pixels: pigo.RgbToGrayscale(img),
			Rows:   dy,
			Cols:   dx,
			Dim:    dx,
		},
	}

	// Run the classifier over the obtained leaf nodes and return the detection results.
	// The result contains quadruplets representing the row, column, scale and detection score.
	faces := fd.classifier.RunCascade(cParams, fd.Angle)

	// Calculate the intersection over union (IoU) of two clusters.
	faces = fd.classifier.ClusterDetections(faces, 0.2)

	return detectionsToRects(faces, fd.Threshold, fd.Padding, img.Bounds())
}

// detectionsToRects converts the detections scoring above threshold into
// rectangles, grown by padding percent and clipped to bounds.
func detectionsToRects(dets []pigo.Detection, threshold float32, padding float64, bounds image.Rectangle) []image.Rectangle {
	rects := make([]image.Rectangle, 0, len(dets))
	for _, d := range dets {
		if d.Q < threshold {
			continue
		}
		half := d.Scale / 2
		pad := int(float64(d.Scale) * padding / 100)
		r := image.Rect(
			d.Col-half-pad, d.Row-half-pad,
			d.Col+half+pad, d.Row+half+pad,
		).Add(bounds.Min).Intersect(bounds)

		if !r.Empty() {
			rects = append(rects, r)
		}
	}
	return rects
}

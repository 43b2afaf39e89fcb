package fillfrom

import (
	"encoding/binary"
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"testing"

	pigo "github.com/esimov/pigo/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFace_DetectionsToRects(t *testing.T) {
	bounds := image.Rect(0, 0, 100, 80)
	dets := []pigo.Detection{
		{Row: 40, Col: 50, Scale: 20, Q: 9.5},
		// Below the score threshold.
		{Row: 20, Col: 20, Scale: 10, Q: 2},
		// Partly outside of the image.
		{Row: 5, Col: 95, Scale: 20, Q: 6},
	}

	rects := detectionsToRects(dets, 5.0, 0, bounds)
	require.Len(t, rects, 2)
	assert.Equal(t, image.Rect(40, 30, 60, 50), rects[0])
	assert.Equal(t, image.Rect(85, 0, 100, 15), rects[1])

	// Padding grows each side by the given percent of the face size.
	rects = detectionsToRects(dets[:1], 5.0, 10, bounds)
	require.Len(t, rects, 1)
	assert.Equal(t, image.Rect(38, 28, 62, 52), rects[0])
}

func TestFace_DetectionsOffsetBounds(t *testing.T) {
	bounds := image.Rect(10, 10, 50, 50)
	rects := detectionsToRects([]pigo.Detection{{Row: 20, Col: 20, Scale: 10, Q: 10}}, 5.0, 0, bounds)

	require.Len(t, rects, 1)
	assert.Equal(t, image.Rect(25, 25, 35, 35), rects[0])
}

func TestFace_InvalidCascade(t *testing.T) {
	_, err := NewFaceDetector(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "facefinder")
	require.NoError(t, os.WriteFile(path, []byte{1, 2, 3}, 0644))
	_, err = NewFaceDetector(path)
	assert.Error(t, err)
}

// singleLeafCascade packs a cascade made of one tree without any split node.
// Every scanned window scores pred - threshold.
func singleLeafCascade(pred, threshold float32) []byte {
	data := make([]byte, 8, 24)
	data = binary.LittleEndian.AppendUint32(data, 0) // tree depth
	data = binary.LittleEndian.AppendUint32(data, 1) // number of trees
	data = binary.LittleEndian.AppendUint32(data, math.Float32bits(pred))
	data = binary.LittleEndian.AppendUint32(data, math.Float32bits(threshold))
	return data
}

func TestFace_Detect(t *testing.T) {
	img := uniformImage(image.Rect(0, 0, 40, 40), color.NRGBA{R: 120, G: 120, B: 120, A: 255})

	fd, err := NewFaceDetectorFromBytes(singleLeafCascade(1, 0))
	require.NoError(t, err)
	fd.Threshold = 0

	faces := fd.Detect(img)
	require.NotEmpty(t, faces)
	for _, r := range faces {
		assert.False(t, r.Empty())
		assert.True(t, r.In(img.Bounds()), "%v", r)
		assert.GreaterOrEqual(t, r.Dx(), fd.MinSize)
	}

	// The clustered scores stay below a high threshold.
	fd.Threshold = 1e9
	assert.Empty(t, fd.Detect(img))

	// A cascade rejecting every window.
	fd, err = NewFaceDetectorFromBytes(singleLeafCascade(-1, 0))
	require.NoError(t, err)
	fd.Threshold = 0
	assert.Empty(t, fd.Detect(img))
}

func TestFace_BundledCascade(t *testing.T) {
	fd, err := NewFaceDetector(filepath.Join("testdata", "facefinder"))
	require.NoError(t, err)

	img := uniformImage(image.Rect(0, 0, 64, 64), color.NRGBA{R: 90, G: 60, B: 40, A: 255})
	for _, r := range fd.Detect(img) {
		assert.True(t, r.In(img.Bounds()), "%v", r)
	}
}

func TestFace_ProcessorSelection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cascade")
	require.NoError(t, os.WriteFile(path, singleLeafCascade(1, 0), 0644))

	c := color.NRGBA{R: 120, G: 80, B: 40, A: 255}
	p := newTestProcessor(ModeBlur)
	p.FaceDetect = true
	p.Classifier = path

	res, stats, err := p.Fill(uniformImage(image.Rect(0, 0, 40, 40), c))
	require.NoError(t, err)
	assert.Greater(t, stats.Writes, 0, "the detected faces are selected")
	assert.Equal(t, uniformImage(image.Rect(0, 0, 40, 40), c).Pix, res.Pix)
}

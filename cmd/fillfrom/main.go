// fillfrom fills an image area from its surroundings, blurs it or clones a texture into it.
//
// Usage:
//
//	fillfrom inpaint --in photo.jpg --out out.jpg --mask mask.png
//	fillfrom blur    --in photo.jpg --out out.jpg --face --cc facefinder --strength 2
//	fillfrom clone   --in photo.jpg --out out.jpg --rect 10,10,120,80 --texture grass.png
//
// Global flags:
//
//	--in, --out      - Source and destination: file, directory, URL (source only) or `-` for pipes
//	--mask           - Mask image, the pixels brighter than --threshold are selected
//	--rect           - Rectangular selection given as x0,y0,x1,y1
//	--face, --cc     - Select the faces found with the given cascade classifier
//	--config         - Preset file (default: ~/.fillfrom/preset.yaml or ./fillfrom.yaml)
package main

import (
	"fmt"
	"image"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/esimov/fillfrom"
	"github.com/esimov/fillfrom/utils"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

const helpBanner = `
┌─┐┬┬  ┬  ┌─┐┬─┐┌─┐┌┬┐
├┤ ││  │  ├┤ ├┬┘│ ││││
└  ┴┴─┘┴─┘└  ┴└─└─┘┴ ┴

Fill an image area from its surroundings.
    Version: %s
`

// pipeName is the file name that indicates stdin/stdout is being used.
const pipeName = "-"

// Version indicates the current build version.
var Version string

var (
	// Global flags
	flagSource     string
	flagDest       string
	flagMask       string
	flagThreshold  uint8
	flagFeather    float64
	flagRect       string
	flagFace       bool
	flagCascade    string
	flagFaceAngle  float64
	flagFacePad    float64
	flagWorkers    int
	flagFrames     string
	flagConfigPath string
	flagVerbose    bool
)

var logger = log.NewWithOptions(os.Stderr, log.Options{
	ReportTimestamp: true,
	Prefix:          "fillfrom",
})

func main() {
	if err := rootCmd.Execute(); err != nil {
		logger.Error(err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "fillfrom",
	Short: "Fill an image area by inpainting, blurring or cloning a texture",
	Long: fmt.Sprintf(helpBanner, Version) + `
Available commands:
  inpaint  - Fill the selection from its surroundings, from the border inwards
  blur     - Blur the selection, the center more than the border
  clone    - Paste a texture scaled to the selection bounds

Examples:
  fillfrom inpaint --in photo.jpg --out fixed.jpg --mask scratches.png
  fillfrom blur --in ./photos --out ./blurred --face --cc facefinder
  fillfrom clone --in photo.png --out out.png --rect 0,0,64,64 --texture https://example.com/grass.png`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		if flagVerbose {
			logger.SetLevel(log.DebugLevel)
		}
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagSource, "in", pipeName, "Source image, directory or URL")
	pf.StringVar(&flagDest, "out", pipeName, "Destination image or directory")
	pf.StringVar(&flagMask, "mask", "", "Mask image used as selection")
	pf.Uint8Var(&flagThreshold, "threshold", 128, "Mask threshold, the brighter pixels are selected")
	pf.Float64Var(&flagFeather, "feather", 0, "Mask feathering (blur sigma)")
	pf.StringVar(&flagRect, "rect", "", "Rectangular selection: x0,y0,x1,y1")
	pf.BoolVar(&flagFace, "face", false, "Select the detected faces")
	pf.StringVar(&flagCascade, "cc", "", "Cascade classifier used for face detection")
	pf.Float64Var(&flagFaceAngle, "angle", 0, "Plane rotated faces angle")
	pf.Float64Var(&flagFacePad, "padding", 10, "Grow the detected faces by this percent")
	pf.IntVar(&flagWorkers, "conc", 0, "Number of files to process concurrently (0 = preset or number of CPUs)")
	pf.StringVar(&flagFrames, "frames", "", "Directory where the image is saved after each pass")
	pf.StringVar(&flagConfigPath, "config", "", "Preset file")
	pf.BoolVarP(&flagVerbose, "verbose", "v", false, "Verbose logging")

	rootCmd.AddCommand(inpaintCmd)
	rootCmd.AddCommand(blurCmd)
	rootCmd.AddCommand(cloneCmd)
}

// newProcessor loads the preset and applies on top of it the global flags set on the command line.
func newProcessor(cmd *cobra.Command, mode fillfrom.Mode) (*fillfrom.Processor, fillfrom.Preset, error) {
	preset, err := fillfrom.LoadPreset(flagConfigPath)
	if err != nil {
		return nil, preset, err
	}
	logger.Debug("preset loaded", "mode", preset.Mode, "workers", preset.Workers)

	proc := &fillfrom.Processor{
		Logger: logger,
		Reporter: func(msg string) {
			fmt.Fprintln(os.Stderr, utils.DecorateText(msg, utils.ErrorMessage))
		},
	}
	preset.Apply(proc)
	proc.Mode = mode

	flags := cmd.Flags()
	if flags.Changed("mask") {
		proc.MaskPath = flagMask
	}
	if flags.Changed("threshold") {
		proc.MaskThreshold = flagThreshold
	}
	if flags.Changed("feather") {
		proc.MaskFeather = flagFeather
	}
	if flags.Changed("face") {
		proc.FaceDetect = flagFace
	}
	if flags.Changed("cc") {
		proc.Classifier = flagCascade
	}
	if flags.Changed("angle") {
		proc.FaceAngle = flagFaceAngle
	}
	if flags.Changed("padding") {
		proc.FacePadding = flagFacePad
	}
	if flags.Changed("conc") {
		preset.Workers = flagWorkers
	}
	proc.FramesDir = flagFrames

	if flagRect != "" {
		if proc.Rect, err = parseRect(flagRect); err != nil {
			return nil, preset, err
		}
	}
	if proc.FaceDetect && proc.Classifier == "" {
		return nil, preset, errors.New("please specify a face classifier (--cc) when using face detection")
	}
	if proc.Rect.Empty() && proc.MaskPath == "" && !proc.FaceDetect {
		return nil, preset, fillfrom.ErrNoSelection
	}
	return proc, preset, nil
}

// run executes the processor over the source and destination given by the global flags.
func run(proc *fillfrom.Processor, preset fillfrom.Preset) error {
	spinnerText := fmt.Sprintf("%s %s",
		utils.DecorateText("⚡ FILLFROM", utils.StatusMessage),
		utils.DecorateText(fmt.Sprintf("⇢ %s in progress...", proc.Mode), utils.DefaultMessage),
	)
	proc.Spinner = utils.NewSpinner(spinnerText, time.Millisecond*100, true)
	// The spinner and the log lines would be interleaved.
	if flagVerbose {
		proc.Spinner.SetWriter(io.Discard)
	}

	return proc.Execute(&fillfrom.Ops{
		Src:      flagSource,
		Dst:      flagDest,
		PipeName: pipeName,
		Workers:  preset.Workers,
	})
}

// parseRect parses a rectangle given as x0,y0,x1,y1.
func parseRect(s string) (image.Rectangle, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return image.Rectangle{}, errors.Errorf("invalid rectangle %q, expected x0,y0,x1,y1", s)
	}
	var c [4]int
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return image.Rectangle{}, errors.Wrapf(err, "invalid rectangle %q", s)
		}
		c[i] = v
	}
	r := image.Rect(c[0], c[1], c[2], c[3])
	if r.Empty() {
		return r, errors.Errorf("empty rectangle %q", s)
	}
	return r, nil
}

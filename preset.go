package fillfrom

import (
	_ "embed"
	"math"
	"os"
	"path/filepath"

	"github.com/esimov/fillfrom/utils"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// The accepted range of the weight multiplier and of the blur strength.
const (
	MinFactor = 0.1
	MaxFactor = 10.0
)

//go:embed preset.yaml
var defaultPresetYAML []byte

// Preset is the set of options which can be saved into a yaml file and
// reused between runs. Command line flags take precedence over it.
type Preset struct {
	// Mode is the processing mode set by Apply. The command line tool
	// always takes the mode from its subcommand instead.
	Mode    Mode          `yaml:"mode"`
	Inpaint InpaintConfig `yaml:"inpaint"`
	Blur    BlurConfig    `yaml:"blur"`
	Clone   CloneConfig   `yaml:"clone"`
	Mask    MaskPreset    `yaml:"mask"`
	Face    FacePreset    `yaml:"face"`
	Workers int           `yaml:"workers"`
}

// MaskPreset holds the options of a mask image based selection.
type MaskPreset struct {
	Path      string  `yaml:"path"`
	Threshold uint8   `yaml:"threshold"`
	Feather   float64 `yaml:"feather"`
}

// FacePreset holds the options of the face based selection.
type FacePreset struct {
	Enabled    bool    `yaml:"enabled"`
	Classifier string  `yaml:"classifier"`
	Angle      float64 `yaml:"angle"`
	Padding    float64 `yaml:"padding"`
}

// DefaultPreset returns the built-in preset.
func DefaultPreset() Preset {
	p, err := ParsePreset(defaultPresetYAML)
	if err != nil {
		// The embedded preset is known to be valid.
		panic(err)
	}
	return p
}

// LoadPreset loads a preset.
// Search order: path -> ~/.fillfrom/preset.yaml -> ./fillfrom.yaml -> embedded default.
// Only a preset given explicitly by path fails loudly, the implicit locations
// are skipped when missing or invalid.
func LoadPreset(path string) (Preset, error) {
	if path != "" {
		path, err := utils.ExpandHome(path)
		if err != nil {
			return Preset{}, err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return Preset{}, errors.Wrapf(err, "failed to read preset %s", path)
		}
		p, err := ParsePreset(data)
		if err != nil {
			return Preset{}, errors.Wrapf(err, "failed to parse preset %s", path)
		}
		return p, nil
	}

	for _, loc := range []string{userPresetPath(), "fillfrom.yaml"} {
		if loc == "" {
			continue
		}
		data, err := os.ReadFile(loc)
		if err != nil {
			continue
		}
		if p, err := ParsePreset(data); err == nil {
			return p, nil
		}
	}
	return DefaultPreset(), nil
}

// ParsePreset decodes a yaml preset. Missing values are taken from the default preset.
func ParsePreset(data []byte) (Preset, error) {
	var p Preset
	if err := yaml.Unmarshal(defaultPresetYAML, &p); err != nil {
		return p, errors.Wrap(err, "invalid default preset")
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return p, err
	}
	if err := p.Validate(); err != nil {
		return p, err
	}
	for _, path := range []*string{&p.Mask.Path, &p.Face.Classifier, &p.Clone.TexturePath} {
		expanded, err := utils.ExpandHome(*path)
		if err != nil {
			return p, err
		}
		*path = expanded
	}
	return p, nil
}

// Validate checks the preset values against their accepted ranges.
func (p Preset) Validate() error {
	if !inRange(p.Inpaint.WeightMultiplier) {
		return errors.Wrapf(ErrInvalidWeight, "inpaint weight %v not in [%v, %v]", p.Inpaint.WeightMultiplier, MinFactor, MaxFactor)
	}
	if !inRange(p.Blur.WeightMultiplier) {
		return errors.Wrapf(ErrInvalidWeight, "blur weight %v not in [%v, %v]", p.Blur.WeightMultiplier, MinFactor, MaxFactor)
	}
	if !inRange(p.Blur.Strength) {
		return errors.Wrapf(ErrInvalidStrength, "blur strength %v not in [%v, %v]", p.Blur.Strength, MinFactor, MaxFactor)
	}
	if p.Mask.Feather < 0 {
		return errors.Errorf("mask feather should not be negative: %v", p.Mask.Feather)
	}
	if p.Face.Padding < 0 {
		return errors.Errorf("face padding should not be negative: %v", p.Face.Padding)
	}
	if p.Workers < 0 {
		return errors.Errorf("the number of workers should not be negative: %d", p.Workers)
	}
	return nil
}

// Apply copies the preset values into the processor.
func (p Preset) Apply(proc *Processor) {
	proc.Mode = p.Mode
	proc.Inpaint = p.Inpaint
	proc.Blur = p.Blur
	proc.Clone = p.Clone
	proc.MaskPath = p.Mask.Path
	proc.MaskThreshold = p.Mask.Threshold
	proc.MaskFeather = p.Mask.Feather
	proc.FaceDetect = p.Face.Enabled
	proc.Classifier = p.Face.Classifier
	proc.FaceAngle = p.Face.Angle
	proc.FacePadding = p.Face.Padding
}

func inRange(v float64) bool {
	return !math.IsNaN(v) && v >= MinFactor && v <= MaxFactor
}

func userPresetPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".fillfrom", "preset.yaml")
}

package fillfrom

import (
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Mode is the processing mode used for filling the selection.
type Mode int

// The supported processing modes.
const (
	ModeInpaint Mode = iota
	ModeBlur
	ModeClone
)

var modeNames = map[Mode]string{
	ModeInpaint: "inpaint",
	ModeBlur:    "blur",
	ModeClone:   "clone",
}

func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return "unknown"
}

// ParseMode converts a mode name into a Mode.
// Besides the short names the dialog labels (e.g. "Clone Texture") are accepted too.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "inpaint", "inpainting":
		return ModeInpaint, nil
	case "blur", "blurring":
		return ModeBlur, nil
	case "clone", "clone texture", "clone_texture":
		return ModeClone, nil
	}
	return 0, errors.Wrapf(ErrUnknownMode, "%q", s)
}

// MarshalYAML implements the yaml.Marshaler interface.
func (m Mode) MarshalYAML() (any, error) {
	if _, ok := modeNames[m]; !ok {
		return nil, errors.Wrapf(ErrUnknownMode, "%d", int(m))
	}
	return m.String(), nil
}

// UnmarshalYAML implements the yaml.Unmarshaler interface.
func (m *Mode) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	mode, err := ParseMode(s)
	if err != nil {
		return errors.Wrapf(err, "line %d", value.Line)
	}
	*m = mode
	return nil
}

package fillfrom

import "github.com/pkg/errors"

var (
	// ErrInvalidWeight is returned when the weight multiplier is not a positive finite number.
	ErrInvalidWeight = errors.New("weight multiplier should be a positive number")
	// ErrInvalidStrength is returned when the blur strength is not a positive finite number.
	ErrInvalidStrength = errors.New("blur strength should be a positive number")
	// ErrNoSelection is returned when no selection source has been provided.
	ErrNoSelection = errors.New("no selection provided: use a mask, a rectangle or the face detector")
	// ErrNoLayers is returned when the texture image has no layers.
	ErrNoLayers = errors.New("the texture image has no layers")
	// ErrNoTexture is returned when neither a texture image nor a texture path is given.
	ErrNoTexture = errors.New("no texture image provided")
	// ErrUnsupportedFormat is returned for image formats which cannot be encoded.
	ErrUnsupportedFormat = errors.New("unsupported image format")
	// ErrUnknownMode is returned for unknown processing modes.
	ErrUnknownMode = errors.New("unknown processing mode")
)

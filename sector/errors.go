package sector

import (
	"fmt"
)

// ConfigErrorKind classifies a rejected configuration.
type ConfigErrorKind int

// The kinds of configuration errors.
const (
	Overlap ConfigErrorKind = iota + 1
	TooManySectors
	InvalidResolution
	InvalidFrequency
	InvalidAngle
	InvalidParameter
)

func (k ConfigErrorKind) String() string {
	switch k {
	case Overlap:
		return "overlapping sectors"
	case TooManySectors:
		return "too many sectors"
	case InvalidResolution:
		return "invalid resolution"
	case InvalidFrequency:
		return "invalid pulse frequency"
	case InvalidAngle:
		return "invalid angle"
	case InvalidParameter:
		return "invalid parameter"
	}
	return "configuration error"
}

// ConfigError is a configuration rejected before anything is sent to the device.
type ConfigError struct {
	Kind   ConfigErrorKind
	Detail string
}

func (e *ConfigError) Error() string {
	if e.Detail == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

// Is matches any ConfigError of the same kind, so errors.Is(err, ErrOverlap) works on detailed
// errors.
func (e *ConfigError) Is(target error) bool {
	t, ok := target.(*ConfigError)
	return ok && t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrOverlap           = &ConfigError{Kind: Overlap}
	ErrTooManySectors    = &ConfigError{Kind: TooManySectors}
	ErrInvalidResolution = &ConfigError{Kind: InvalidResolution}
	ErrInvalidFrequency  = &ConfigError{Kind: InvalidFrequency}
	ErrInvalidAngle      = &ConfigError{Kind: InvalidAngle}
	ErrInvalidParameter  = &ConfigError{Kind: InvalidParameter}
)

func newConfigError(kind ConfigErrorKind, format string, args ...interface{}) error {
	return &ConfigError{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

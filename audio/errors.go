package audio

import "github.com/joomcode/errorx"

// Errors is the namespace shared by every error kind reported by this module.
var Errors = errorx.NewNamespace("tempo")

var (
	// IOError marks a source that cannot be read or a destination that cannot be written.
	IOError = Errors.NewType("io")

	// ValidationError marks input that would otherwise produce garbage output:
	// empty buffers, non-positive sample rates, non-positive base tempo.
	ValidationError = Errors.NewType("validation")
)

// IsIO reports whether err is an IOError.
func IsIO(err error) bool {
	return errorx.IsOfType(err, IOError)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	return errorx.IsOfType(err, ValidationError)
}

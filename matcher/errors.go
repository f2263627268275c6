package matcher

import "fmt"

type compileErrorReason string

func (e compileErrorReason) Error() string { return string(e) }

var (
	ErrUnbalanced       = compileErrorReason("unbalanced bracket")
	ErrUnexpectedClose  = compileErrorReason("unexpected closing bracket")
	ErrTrailingEscape   = compileErrorReason("trailing escape character")
	ErrTooManyParts     = compileErrorReason("too many parts in capture")
	ErrUnknownModifier  = compileErrorReason("unknown modifier")
	ErrNotTemplatable   = compileErrorReason("pattern contains wildcards")
	ErrMissingValue     = compileErrorReason("missing value")
	ErrInvalidMember    = compileErrorReason("invalid member value")
	ErrUnsupportedField = compileErrorReason("unsupported field type")
)

// CompileError is returned by Err when a format string could not be
// compiled. Offset is the byte position in Format where the problem was
// detected.
type CompileError struct {
	Format string
	Offset int
	Err    error
}

func (err *CompileError) Error() string {
	return fmt.Sprintf("%q [%d]: %v", err.Format, err.Offset, err.Err)
}

func (err *CompileError) Unwrap() error { return err.Err }

func errorAt(offset int, err error) *CompileError {
	return &CompileError{Offset: offset, Err: err}
}

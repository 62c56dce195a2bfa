package sonar

import (
	"errors"
	"fmt"
)

var (
	ErrIndexOutOfRange     = errors.New("frame index out of range")
	ErrUnsupportedVersion  = errors.New("unsupported frame header version")
	ErrUnsupportedPingMode = errors.New("unsupported ping mode")
	ErrTruncated           = errors.New("truncated sonar file")
)

// DecodeError reports a failure to decode the file header (Frame == -1) or
// a single frame. Err is one of the package sentinels, possibly wrapped.
type DecodeError struct {
	Path  string
	Frame int
	Err   error
}

func (e *DecodeError) Error() string {
	if e.Frame < 0 {
		return fmt.Sprintf("decode %s header: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("decode %s frame %d: %v", e.Path, e.Frame, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

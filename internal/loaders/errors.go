package loaders

import (
	"errors"
	"fmt"
)

var (
	ErrNotMixTrace        = errors.New("file does not seem to be created from Intel SDE's '-mix' option")
	ErrNoIform            = errors.New("thread section has no iform table; was '-iform' used?")
	ErrTruncated          = errors.New("truncated section")
	ErrRecordBeforeHeader = errors.New("record before any thread header")
	ErrMalformed          = errors.New("malformed line")
	ErrNotMaskProfile     = errors.New("file does not seem to be created from Intel SDE's '-dyn_mask_profile' option")
)

// ParseError locates a fatal parse failure in a trace file.
type ParseError struct {
	File string
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("%s: %v", e.File, e.Err)
	}
	return fmt.Sprintf("%s:%d: %v", e.File, e.Line, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

package model

import (
	"errors"
	"fmt"
)

var (
	// ErrRetrieval marks a failed fetch or a fetch that produced no usable file.
	ErrRetrieval = errors.New("retrieval failed")
	// ErrExtraction marks a failed audio demux/transcode.
	ErrExtraction = errors.New("audio extraction failed")
	// ErrPrecondition marks invalid geometry, frame rate or an unreadable stream.
	ErrPrecondition = errors.New("precondition failed")
	// ErrConversion marks a frame that could not be converted.
	ErrConversion = errors.New("frame conversion failed")
)

// ConversionError reports the first failing frame of a conversion run.
type ConversionError struct {
	Index int
	Err   error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("%v: frame %d: %v", ErrConversion, e.Index, e.Err)
}

func (e *ConversionError) Unwrap() error { return e.Err }

func (e *ConversionError) Is(target error) bool { return target == ErrConversion }

// Preconditionf wraps a formatted message in ErrPrecondition.
func Preconditionf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrPrecondition, fmt.Sprintf(format, args...))
}

package convert

import (
	"fmt"
	"path/filepath"

	"scribe/internal/services"
)

// ConversionError reports a source that could not be decoded or re-encoded.
// It matches services.ErrConversion.
type ConversionError struct {
	Source string
	Err    error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("convert %s: %v", filepath.Base(e.Source), e.Err)
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}

func (e *ConversionError) Is(target error) bool {
	return target == services.ErrConversion
}

package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConversion marks a source that could not be re-encoded to the canonical format.
	ErrConversion = errors.New("conversion error")
	// ErrNoSegments marks a recording in which no speech segment could be isolated.
	ErrNoSegments = errors.New("no segments")
	// ErrUnrecognized marks a segment the speech-to-text backend could not understand.
	ErrUnrecognized = errors.New("speech unrecognized")
	// ErrService marks a speech-to-text or summarizer service failure (network, quota, 5xx).
	ErrService = errors.New("service error")
	// ErrNormalization marks an internal failure while cleaning transcript text.
	ErrNormalization = errors.New("normalization error")

	ErrExternalTool  = errors.New("external tool error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrTimeout       = errors.New("timeout")
	ErrTransient     = errors.New("transient failure")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Kind maps an error to a short, stable label used in batch reports and the
// run history. Nil maps to the empty string.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrConversion):
		return "conversion"
	case errors.Is(err, ErrNoSegments):
		return "no_segments"
	case errors.Is(err, ErrUnrecognized):
		return "unrecognized"
	case errors.Is(err, ErrService):
		return "service"
	case errors.Is(err, ErrNormalization):
		return "normalization"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrExternalTool):
		return "external_tool"
	default:
		return "internal"
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}

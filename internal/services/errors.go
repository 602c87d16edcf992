package services

import (
	"errors"
	"fmt"
	"strings"
)

// Fault markers for the four failure kinds the service distinguishes. Every
// error that crosses a package boundary is tagged with exactly one of these so
// the transport layer can classify it without knowing where it came from.
var (
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrNotFound          = errors.New("not found")
	ErrStorage           = errors.New("storage fault")
	ErrConversion        = errors.New("conversion fault")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrStorage
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Kind returns a short classification label for a tagged error, used for
// log fields and metric labels.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrUnsupportedFormat):
		return "unsupported_format"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrConversion):
		return "conversion_fault"
	case errors.Is(err, ErrStorage):
		return "storage_fault"
	default:
		return "internal"
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
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

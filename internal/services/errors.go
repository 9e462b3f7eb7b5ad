package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound marks lookups of unknown sources, manifests, or variations.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument marks malformed trim/speed parameters and similar caller mistakes.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrExternalTool marks adapter or renderer failures that cannot be treated as empty data.
	ErrExternalTool = errors.New("external tool error")
	// ErrDegradedInput marks adapters that returned no or partial data; recovered locally,
	// never propagated out of analysis.
	ErrDegradedInput = errors.New("degraded input")
	// ErrStateConflict marks lifecycle violations such as moving an archived manifest.
	ErrStateConflict = errors.New("state conflict")
	// ErrConfiguration marks missing or unusable component wiring.
	ErrConfiguration = errors.New("configuration error")
	// ErrTransient marks failures worth retrying by the caller.
	ErrTransient = errors.New("transient failure")
)

// Wrap builds an error message that includes component context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
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

package errors

import (
	"strings"
	"unicode"
)

// ValidateEventName validates a lineage label supplied as configuration.
//
// Event names are matched byte-for-byte against event headers in the graph,
// so the rules only reject values that can never match a header:
//   - No empty names
//   - No control characters
//   - No leading or trailing whitespace
//   - Maximum length of 256 characters
func ValidateEventName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidEvent, "event name cannot be empty")
	}

	if len(name) > 256 {
		return New(ErrCodeInvalidEvent, "event name too long (max 256 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidEvent, "event name %q contains control characters", name)
		}
	}

	if strings.TrimSpace(name) != name {
		return New(ErrCodeInvalidEvent, "event name %q has surrounding whitespace", name)
	}

	return nil
}

// ValidateEventSets validates the target and other-lineage label sets used
// by the classifier. Targets must be non-empty, every name must be valid,
// and the two sets must not share a label. Others may be empty.
func ValidateEventSets(targets, others []string) error {
	if len(targets) == 0 {
		return New(ErrCodeInvalidEvent, "at least one target event is required")
	}
	seen := make(map[string]bool, len(targets))
	for _, t := range targets {
		if err := ValidateEventName(t); err != nil {
			return err
		}
		seen[t] = true
	}
	for _, o := range others {
		if err := ValidateEventName(o); err != nil {
			return err
		}
		if seen[o] {
			return New(ErrCodeInvalidEvent, "event %q is both a target and an other-lineage event", o)
		}
	}
	return nil
}

// ValidatePath validates a relative file path for safety.
// It is applied to names that the HTTP API and the file store turn into
// paths on disk.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No absolute paths (must be relative)
//   - No path traversal sequences (..)
//   - No backslashes (Windows-style paths)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidPath, "path must be relative (cannot start with /)")
	}

	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
	}

	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}

	return nil
}

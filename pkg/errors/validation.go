package errors

import (
	"strings"
	"unicode"
)

// ValidateNodeID validates a node identifier for safety and correctness.
// IDs become cache key material and file name fragments, so the rules are
// intentionally conservative:
//   - No empty IDs
//   - No control characters
//   - No leading/trailing whitespace
//   - Maximum length of 256 characters
func ValidateNodeID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidNode, "node ID cannot be empty")
	}

	if len(id) > 256 {
		return New(ErrCodeInvalidNode, "node ID too long (max 256 characters)")
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidNode, "node ID contains invalid control characters")
		}
	}

	if strings.TrimSpace(id) != id {
		return New(ErrCodeInvalidNode, "node ID cannot have leading or trailing whitespace")
	}

	return nil
}

// ValidatePortName validates a port name on a node.
// Port names are optional anchors; when present they must be simple
// printable identifiers.
func ValidatePortName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidPort, "port name cannot be empty")
	}

	if len(name) > 64 {
		return New(ErrCodeInvalidPort, "port name too long (max 64 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidPort, "port name contains invalid characters")
		}
	}

	return nil
}

// ValidateLayoutName validates a stored layout name for the layout store.
// It ensures the name is a simple identifier without path components.
func ValidateLayoutName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "layout name cannot be empty")
	}

	if strings.ContainsAny(name, "/\\") {
		return New(ErrCodeInvalidInput, "layout name cannot contain path separators")
	}

	if strings.HasPrefix(name, ".") {
		return New(ErrCodeInvalidInput, "layout name cannot start with a dot")
	}

	if len(name) > 128 {
		return New(ErrCodeInvalidInput, "layout name too long (max 128 characters)")
	}

	return nil
}

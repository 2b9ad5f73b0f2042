package errors

import "unicode"

// Length limits for identifiers and file paths.
const (
	MaxIDLength   = 256
	MaxPathLength = 4096
)

// ValidateID checks a node, connection or product identifier. Identifiers
// come from the editor that owns the topology, so any printable text up to
// MaxIDLength bytes is accepted. code selects the error code reported on
// failure and kind names the identifier in the message.
func ValidateID(code Code, kind, id string) error {
	if id == "" {
		return New(code, "%s id is empty", kind)
	}
	return checkText(code, kind+" id", id, MaxIDLength)
}

// ValidatePath checks a snapshot or output path from the command line or
// a config file. Relative paths, including ones that climb with "..", are
// the caller's business.
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path is empty")
	}
	return checkText(ErrCodeInvalidPath, "path", path, MaxPathLength)
}

func checkText(code Code, what, s string, limit int) error {
	if len(s) > limit {
		return New(code, "%s longer than %d bytes", what, limit)
	}
	for i, r := range s {
		if unicode.IsControl(r) {
			return New(code, "%s %q has a control character at byte %d", what, s, i)
		}
	}
	return nil
}

package errors

import (
	"strings"
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		check func() error
		code  Code // empty when valid
	}{
		{"id", func() error { return ValidateID(ErrCodeInvalidNode, "node", "smelter-1") }, ""},
		{"unicode id", func() error { return ValidateID(ErrCodeInvalidNode, "node", "Schmelze ü") }, ""},
		{"empty id", func() error { return ValidateID(ErrCodeInvalidNode, "node", "") }, ErrCodeInvalidNode},
		{"newline in id", func() error { return ValidateID(ErrCodeInvalidConnection, "connection", "a\nb") }, ErrCodeInvalidConnection},
		{"null byte in id", func() error { return ValidateID(ErrCodeInvalidInput, "product", "a\x00b") }, ErrCodeInvalidInput},
		{"long id", func() error { return ValidateID(ErrCodeInvalidNode, "node", strings.Repeat("x", MaxIDLength+1)) }, ErrCodeInvalidNode},

		{"relative path", func() error { return ValidatePath("plans/main.yml") }, ""},
		{"parent path", func() error { return ValidatePath("../factory.json") }, ""},
		{"absolute path", func() error { return ValidatePath("/tmp/factory.yaml") }, ""},
		{"empty path", func() error { return ValidatePath("") }, ErrCodeInvalidPath},
		{"null byte in path", func() error { return ValidatePath("a\x00b") }, ErrCodeInvalidPath},
		{"long path", func() error { return ValidatePath(strings.Repeat("d/", MaxPathLength)) }, ErrCodeInvalidPath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.check()
			if tt.code == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !Is(err, tt.code) {
				t.Errorf("err = %v, want code %s", err, tt.code)
			}
		})
	}
}

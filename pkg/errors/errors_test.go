package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestErrorString(t *testing.T) {
	cause := errors.New("singular basis")
	tests := []struct {
		err  *Error
		want string
	}{
		{New(ErrCodeInvalidNode, "node %q has no id", "n3"), `INVALID_NODE: node "n3" has no id`},
		{Wrap(ErrCodeSolver, cause, "simplex on %d rows", 12), "SOLVER: simplex on 12 rows: singular basis"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}

func TestWrapUnwraps(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("open cache: %w", Wrap(ErrCodeInternal, cause, "redis"))

	if !errors.Is(err, cause) {
		t.Error("wrapped cause not reachable through errors.Is")
	}
	if !Is(err, ErrCodeInternal) {
		t.Error("code not found through fmt.Errorf wrapping")
	}
}

// TestClassify runs every code-inspecting helper against one error.
func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		code    Code
		message string
		status  int
		exit    int
	}{
		{"invalid node", New(ErrCodeInvalidNode, "bad slot"), ErrCodeInvalidNode, "bad slot", 400, ExitUsage},
		{"missing node", New(ErrCodeNodeNotFound, "no n9"), ErrCodeNodeNotFound, "no n9", 404, ExitUsage},
		{"missing file", New(ErrCodeFileNotFound, "no factory.json"), ErrCodeFileNotFound, "no factory.json", 404, ExitUsage},
		{"worker busy", New(ErrCodeBusy, "solve running"), ErrCodeBusy, "solve running", 409, ExitFailure},
		{"infeasible", New(ErrCodeInfeasible, "no plan"), ErrCodeInfeasible, "no plan", 422, ExitNoSupply},
		{"unsupported", New(ErrCodeUnsupported, "pdf"), ErrCodeUnsupported, "pdf", 501, ExitFailure},
		{"outer code wins", Wrap(ErrCodeSolver, New(ErrCodeInvalidInput, "inner"), "outer"), ErrCodeSolver, "outer", 500, ExitFailure},
		{"plain", errors.New("boom"), "", "boom", 500, ExitFailure},
		{"cancelled", context.Canceled, "", "context canceled", 500, ExitCancelled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.code {
				t.Errorf("GetCode() = %q, want %q", got, tt.code)
			}
			if tt.code != "" && !Is(tt.err, tt.code) {
				t.Errorf("Is(%q) = false", tt.code)
			}
			if Is(tt.err, ErrCodeNotFound) {
				t.Error("Is(NOT_FOUND) = true for unrelated error")
			}
			if got := UserMessage(tt.err); got != tt.message {
				t.Errorf("UserMessage() = %q, want %q", got, tt.message)
			}
			if got := HTTPStatus(tt.err); got != tt.status {
				t.Errorf("HTTPStatus() = %d, want %d", got, tt.status)
			}
			if got := ExitCode(tt.err); got != tt.exit {
				t.Errorf("ExitCode() = %d, want %d", got, tt.exit)
			}
		})
	}
}

func TestNilError(t *testing.T) {
	if Is(nil, ErrCodeInternal) || GetCode(nil) != "" || ExitCode(nil) != ExitOK {
		t.Error("nil error should carry no code and exit cleanly")
	}
}

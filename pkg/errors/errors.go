// Package errors gives flowplan failures a machine-readable [Code].
//
// Solver outcomes such as infeasibility or a short input are fields on
// result values, never errors. Codes mark the boundary failures: malformed
// snapshots, bad configuration, missing files and solver breakdowns. The
// CLI turns a code into an exit status with [ExitCode] and the API into a
// response status with [HTTPStatus].
//
//	if err := errors.ValidateID(errors.ErrCodeInvalidNode, "node", id); err != nil {
//	    return err
//	}
//	return errors.Wrap(errors.ErrCodeSolver, err, "simplex on %d rows", rows)
//
// Files that also need the standard errors package import it as
// stderrors.
package errors

import (
	"context"
	"errors"
	"fmt"
)

// Code is a stable, machine-readable failure class.
type Code string

// Codes. INVALID_* reject input, *NOT_FOUND name a missing resource.
const (
	ErrCodeInvalidInput      Code = "INVALID_INPUT"
	ErrCodeInvalidNode       Code = "INVALID_NODE"
	ErrCodeInvalidConnection Code = "INVALID_CONNECTION"
	ErrCodeInvalidConfig     Code = "INVALID_CONFIG"
	ErrCodeInvalidFormat     Code = "INVALID_FORMAT"
	ErrCodeInvalidPath       Code = "INVALID_PATH"

	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeNodeNotFound Code = "NODE_NOT_FOUND"
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"

	ErrCodeInfeasible Code = "INFEASIBLE"
	ErrCodeSolver     Code = "SOLVER"
	ErrCodeBusy       Code = "BUSY"

	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error carries a Code, a message for people and an optional cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

// Error formats as "CODE: message[: cause]".
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New returns an Error with a formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap is New with a cause.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Is reports whether the outermost *Error in err's chain has code.
func Is(err error, code Code) bool {
	return code != "" && GetCode(err) == code
}

// GetCode returns the code of the outermost *Error in err's chain, or "".
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage drops the code prefix and cause from coded errors.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// Process exit codes returned by [ExitCode].
const (
	ExitOK        = 0
	ExitFailure   = 1
	ExitUsage     = 2 // bad snapshot, flag or config
	ExitNoSupply  = 3 // solver found no feasible plan
	ExitCancelled = 130
)

// ExitCode maps err to the status the flowplan binary exits with.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	if errors.Is(err, context.Canceled) {
		return ExitCancelled
	}
	switch GetCode(err) {
	case ErrCodeInvalidInput, ErrCodeInvalidNode, ErrCodeInvalidConnection,
		ErrCodeInvalidFormat, ErrCodeInvalidConfig, ErrCodeInvalidPath,
		ErrCodeNodeNotFound, ErrCodeFileNotFound:
		return ExitUsage
	case ErrCodeInfeasible:
		return ExitNoSupply
	default:
		return ExitFailure
	}
}

// HTTPStatus maps an error code to the status the API answers with.
func HTTPStatus(err error) int {
	switch GetCode(err) {
	case ErrCodeInvalidInput, ErrCodeInvalidNode, ErrCodeInvalidConnection,
		ErrCodeInvalidFormat, ErrCodeInvalidConfig, ErrCodeInvalidPath:
		return 400
	case ErrCodeNotFound, ErrCodeNodeNotFound, ErrCodeFileNotFound:
		return 404
	case ErrCodeBusy:
		return 409
	case ErrCodeInfeasible:
		return 422
	case ErrCodeUnsupported:
		return 501
	default:
		return 500
	}
}

// Package errors defines the coded errors surfaced by stackgen.
package errors

import (
	"errors"
	"fmt"
	"io"
	"sort"
)

// Code is a stable error code string.
type Code string

const (
	EUsage         Code = "E_USAGE"
	EInvalidConfig Code = "E_INVALID_CONFIG"
	EMissingOption Code = "E_MISSING_OPTION"

	// filesystem
	EIO           Code = "E_IO"
	EPathConflict Code = "E_PATH_CONFLICT"

	// structured data
	EParse          Code = "E_PARSE"
	EAnchorNotFound Code = "E_ANCHOR_NOT_FOUND"
	ESchemaInvalid  Code = "E_SCHEMA_INVALID"

	// generator ordering
	EPrecondition Code = "E_PRECONDITION"

	// child processes
	EProcessFailed  Code = "E_PROCESS_FAILED"
	EProcessTimeout Code = "E_PROCESS_TIMEOUT"
)

// GenError is the error type returned by every stackgen package.
type GenError struct {
	Code    Code
	Msg     string
	Cause   error
	Details map[string]string
}

// Error returns the stable error format: "CODE: message".
func (e *GenError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *GenError) Unwrap() error {
	return e.Cause
}

func New(code Code, msg string) error {
	return &GenError{Code: code, Msg: msg}
}

func Newf(code Code, format string, args ...any) error {
	return &GenError{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// Wrap creates a new GenError wrapping an underlying error.
func Wrap(code Code, msg string, err error) error {
	return &GenError{Code: code, Msg: msg, Cause: err}
}

// WrapWithDetails is Wrap with structured context. The details map is copied.
func WrapWithDetails(code Code, msg string, err error, details map[string]string) error {
	return &GenError{Code: code, Msg: msg, Cause: err, Details: copyDetails(details)}
}

// GetCode extracts the error code from an error, or empty string if not a GenError.
func GetCode(err error) Code {
	var ge *GenError
	if errors.As(err, &ge) {
		return ge.Code
	}
	return ""
}

// Is reports whether err carries the given code anywhere in its chain.
func Is(err error, code Code) bool {
	for err != nil {
		var ge *GenError
		if !errors.As(err, &ge) {
			return false
		}
		if ge.Code == code {
			return true
		}
		err = ge.Cause
	}
	return false
}

func copyDetails(details map[string]string) map[string]string {
	if len(details) == 0 {
		return nil
	}
	cp := make(map[string]string, len(details))
	for k, v := range details {
		cp[k] = v
	}
	return cp
}

// ExitCode returns 0 for nil, 2 for usage and config errors, 1 otherwise.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	switch GetCode(err) {
	case EUsage, EInvalidConfig:
		return 2
	}
	return 1
}

// Print writes the error to w in the stable stderr format:
//
//	error_code: <CODE>
//	<message>
//	  <key>: <value>
func Print(w io.Writer, err error) {
	if err == nil {
		return
	}
	var ge *GenError
	if !errors.As(err, &ge) {
		fmt.Fprintln(w, err.Error())
		return
	}
	fmt.Fprintf(w, "error_code: %s\n", ge.Code)
	if ge.Cause != nil {
		fmt.Fprintf(w, "%s: %v\n", ge.Msg, ge.Cause)
	} else {
		fmt.Fprintln(w, ge.Msg)
	}
	keys := make([]string, 0, len(ge.Details))
	for k := range ge.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "  %s: %s\n", k, ge.Details[k])
	}
}

// Copyright (c) 2025 The covault developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package script

import "fmt"

// ErrorCode identifies a kind of error.
type ErrorCode int

const (
	// ErrInvalidThreshold indicates a multisig threshold outside the
	// 1..n range.
	ErrInvalidThreshold ErrorCode = iota

	// ErrUnsupportedAddressType indicates an address type tag outside
	// the supported set.
	ErrUnsupportedAddressType

	// ErrScriptParse indicates a script that could not be decomposed
	// into the expected pushes.
	ErrScriptParse
)

// Map of ErrorCode values back to their constant names for pretty printing.
var errorCodeStrings = map[ErrorCode]string{
	ErrInvalidThreshold:       "ErrInvalidThreshold",
	ErrUnsupportedAddressType: "ErrUnsupportedAddressType",
	ErrScriptParse:            "ErrScriptParse",
}

// String returns the ErrorCode as a human-readable name.
func (e ErrorCode) String() string {
	if s, ok := errorCodeStrings[e]; ok {
		return s
	}
	return fmt.Sprintf("Unknown ErrorCode (%d)", int(e))
}

// Error is a typed error for all errors arising during script
// construction and parsing.
type Error struct {
	ErrorCode   ErrorCode
	Description string
	Err         error
}

// Error satisfies the error interface and prints human-readable errors.
func (e Error) Error() string {
	if e.Err != nil {
		return e.Description + ": " + e.Err.Error()
	}
	return e.Description
}

// Unwrap returns the underlying error, if any.
func (e Error) Unwrap() error {
	return e.Err
}

// newError creates a new Error.
func newError(c ErrorCode, desc string, err error) Error {
	return Error{ErrorCode: c, Description: desc, Err: err}
}

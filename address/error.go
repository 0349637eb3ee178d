// Copyright (c) 2025 The covault developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package address

import (
	"errors"
	"fmt"
)

// ErrorCode identifies a kind of error.
type ErrorCode int

const (
	// ErrInvalidAddress indicates an address that does not decode under
	// the network's version bytes or bech32 prefix.
	ErrInvalidAddress ErrorCode = iota

	// ErrInvalidDerivationProperty indicates a missing or negative
	// chain or index on an address verification request.
	ErrInvalidDerivationProperty

	// ErrMissingCoinSpecific indicates an address verification request
	// without the coin-specific script material.
	ErrMissingCoinSpecific

	// ErrUnexpectedAddress indicates that the rederived address does
	// not match the supplied one.
	ErrUnexpectedAddress

	// ErrP2WSHUnsupported indicates a native segwit address was
	// requested on a network without P2WSH support.
	ErrP2WSHUnsupported

	// ErrUnsupportedAddressType indicates an address type tag outside
	// the supported set.
	ErrUnsupportedAddressType
)

// Map of ErrorCode values back to their constant names for pretty printing.
var errorCodeStrings = map[ErrorCode]string{
	ErrInvalidAddress:            "ErrInvalidAddress",
	ErrInvalidDerivationProperty: "ErrInvalidDerivationProperty",
	ErrMissingCoinSpecific:       "ErrMissingCoinSpecific",
	ErrUnexpectedAddress:         "ErrUnexpectedAddress",
	ErrP2WSHUnsupported:          "ErrP2WSHUnsupported",
	ErrUnsupportedAddressType:    "ErrUnsupportedAddressType",
}

// String returns the ErrorCode as a human-readable name.
func (e ErrorCode) String() string {
	if s, ok := errorCodeStrings[e]; ok {
		return s
	}
	return fmt.Sprintf("Unknown ErrorCode (%d)", int(e))
}

// Error is a typed error for all errors arising during address
// generation and verification.
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

// IsError reports whether err is an address Error with the given code.
func IsError(err error, code ErrorCode) bool {
	var aerr Error
	return errors.As(err, &aerr) && aerr.ErrorCode == code
}

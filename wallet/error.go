// Copyright (c) 2025 The covault developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import (
	"errors"
	"fmt"
)

// ErrWalletAddressNotFound is returned by AddressSource implementations
// when the wallet service does not know the queried address.  The
// prebuild parser treats it as proof that an output pays an external
// party.
var ErrWalletAddressNotFound = errors.New("wallet address not found")

// ErrorCode identifies a kind of error.
type ErrorCode int

const (
	// ErrTxDecode indicates raw transaction bytes that could not be
	// deserialized.
	ErrTxDecode ErrorCode = iota

	// ErrMissingRecipients indicates that an output the user requested
	// is absent from the prebuilt transaction.
	ErrMissingRecipients

	// ErrImplicitSpendLimitExceeded indicates that the prebuild pays
	// more to implicit external recipients than the pay-as-you-go
	// limit allows.
	ErrImplicitSpendLimitExceeded

	// ErrNegativeFee indicates a prebuild whose outputs exceed its
	// inputs.
	ErrNegativeFee

	// ErrKeychainIntegrity indicates a private/public key mismatch or
	// bad signatures over the secondary keychain public keys.
	ErrKeychainIntegrity

	// ErrInputSignatureFailure indicates that one or more inputs could
	// not be signed or that a produced signature failed verification.
	ErrInputSignatureFailure

	// ErrNetworkingDisabled indicates an operation that would require a
	// collaborator call while networking is forbidden.
	ErrNetworkingDisabled

	// ErrPrebuild indicates a malformed transaction prebuild.
	ErrPrebuild
)

// Map of ErrorCode values back to their constant names for pretty printing.
var errorCodeStrings = map[ErrorCode]string{
	ErrTxDecode:                   "ErrTxDecode",
	ErrMissingRecipients:          "ErrMissingRecipients",
	ErrImplicitSpendLimitExceeded: "ErrImplicitSpendLimitExceeded",
	ErrNegativeFee:                "ErrNegativeFee",
	ErrKeychainIntegrity:          "ErrKeychainIntegrity",
	ErrInputSignatureFailure:      "ErrInputSignatureFailure",
	ErrNetworkingDisabled:         "ErrNetworkingDisabled",
	ErrPrebuild:                   "ErrPrebuild",
}

// String returns the ErrorCode as a human-readable name.
func (e ErrorCode) String() string {
	if s, ok := errorCodeStrings[e]; ok {
		return s
	}
	return fmt.Sprintf("Unknown ErrorCode (%d)", int(e))
}

// Error is a typed error for all errors arising during transaction
// parsing, verification and signing.
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

// IsError reports whether err is a wallet Error with the given code.
func IsError(err error, code ErrorCode) bool {
	var werr Error
	return errors.As(err, &werr) && werr.ErrorCode == code
}

// InputSignError describes the failure to sign a single input.
type InputSignError struct {
	InputIndex int
	Unspent    Unspent
	Path       string
	Err        error
}

// Error satisfies the error interface.
func (e *InputSignError) Error() string {
	return fmt.Sprintf("input %d (%s, path %s): %v",
		e.InputIndex, e.Unspent.Address, e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *InputSignError) Unwrap() error {
	return e.Err
}

// Copyright (c) 2025 The covault developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package keychain

import "fmt"

// ErrorCode identifies a kind of error.
type ErrorCode int

const (
	// ErrKeyChain indicates a failure to parse an extended key or to
	// derive a child extended key.
	ErrKeyChain ErrorCode = iota

	// ErrKeyIsPublic indicates that a public key was used where a
	// private one was expected.
	ErrKeyIsPublic

	// ErrKeyNeuter indicates a problem when trying to neuter a private
	// key.
	ErrKeyNeuter

	// ErrKeyMismatch indicates that the key is not the expected one.
	ErrKeyMismatch

	// ErrCrypto indicates an error with the cryptography related
	// operations such as decrypting data or deriving a secret key from
	// a passphrase.
	ErrCrypto

	// ErrBadSignature indicates a signed message whose signature does
	// not recover to the expected signing address.
	ErrBadSignature
)

// Map of ErrorCode values back to their constant names for pretty printing.
var errorCodeStrings = map[ErrorCode]string{
	ErrKeyChain:     "ErrKeyChain",
	ErrKeyIsPublic:  "ErrKeyIsPublic",
	ErrKeyNeuter:    "ErrKeyNeuter",
	ErrKeyMismatch:  "ErrKeyMismatch",
	ErrCrypto:       "ErrCrypto",
	ErrBadSignature: "ErrBadSignature",
}

// String returns the ErrorCode as a human-readable name.
func (e ErrorCode) String() string {
	if s, ok := errorCodeStrings[e]; ok {
		return s
	}
	return fmt.Sprintf("Unknown ErrorCode (%d)", int(e))
}

// Error is a typed error for all errors arising during the operation of
// the keychain package.
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

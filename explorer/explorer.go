// Copyright (c) 2025 The covault developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package explorer talks to a public block explorer.  The wallet core
// uses it to resolve previous transactions during fee validation and to
// scan keychain-derived addresses during cold recovery.
package explorer

import (
	"context"
	"fmt"
)

// TxOutput is a single output of an explorer-reported transaction.
type TxOutput struct {
	Address string `json:"address"`
	Value   int64  `json:"value"`
}

// Tx is the subset of an explorer transaction record the core consumes.
type Tx struct {
	ID      string     `json:"id"`
	Outputs []TxOutput `json:"outputs"`
}

// AddressInfo summarizes an address as reported by the explorer.
type AddressInfo struct {
	TxCount      int64 `json:"txCount"`
	TotalBalance int64 `json:"totalBalance"`
}

// Unspent is an unspent output as reported by the explorer.
type Unspent struct {
	TxID    string `json:"txid"`
	Vout    uint32 `json:"vout"`
	Value   int64  `json:"value"`
	Address string `json:"address"`
}

// Source is the explorer surface the wallet core consumes.  All calls
// honor context cancellation.
type Source interface {
	// LatestBlockHeight returns the current chain tip height.
	LatestBlockHeight(ctx context.Context) (int64, error)

	// Transaction returns the transaction with the given id.
	Transaction(ctx context.Context, txid string) (*Tx, error)

	// AddressInfo returns the usage summary of an address.
	AddressInfo(ctx context.Context, address string) (*AddressInfo, error)

	// AddressUnspents returns the unspent outputs of an address.
	AddressUnspents(ctx context.Context, address string) ([]Unspent, error)
}

// UnavailableError wraps the underlying cause once the client has
// exhausted its retries.  Callers treat it as fatal for the operation in
// flight.
type UnavailableError struct {
	Endpoint string
	Err      error
}

// Error satisfies the error interface.
func (e *UnavailableError) Error() string {
	return fmt.Sprintf("explorer unavailable at %s: %v", e.Endpoint, e.Err)
}

// Unwrap returns the underlying error.
func (e *UnavailableError) Unwrap() error {
	return e.Err
}

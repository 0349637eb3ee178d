// Copyright (c) 2025 The covault developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package wallet implements the safety-critical core of a custodial
// multisig wallet: it independently proves that a server-supplied
// transaction prebuild matches user intent before any private key
// material is applied, verifies signatures across all supported input
// classes, and produces half- or fully-signed transactions.
package wallet

import (
	"context"

	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"github.com/covault/utxowallet/coinparams"
	"github.com/covault/utxowallet/explorer"
	"github.com/covault/utxowallet/keychain"
)

// KeychainSource fetches wallet keychains from the wallet service.
type KeychainSource interface {
	// Keychain returns the keychain with the given id.
	Keychain(ctx context.Context, id string) (*keychain.Keychain, error)
}

// AddressSource resolves wallet addresses against the wallet service.
type AddressSource interface {
	// WalletAddress returns the wallet's record of the given address.
	// Implementations return ErrWalletAddressNotFound when the address
	// does not belong to the wallet.
	WalletAddress(ctx context.Context, addr string) (*AddressRecord, error)
}

// CoinProfile is the per-coin capability surface of the core.  The
// algorithms take the profile by reference and never modify it.
type CoinProfile interface {
	// ChainParams returns the coin's network profile.
	ChainParams() *coinparams.Params

	// DefaultSigHashType is the sighash flag applied when signing.
	DefaultSigHashType() txscript.SigHashType

	// IsReplayProtectionUnspent reports whether an unspent is a
	// platform-signed replay protection input the user must not sign.
	IsReplayProtectionUnspent(u Unspent) bool

	// SupportsBlockTarget reports whether fee estimation by block
	// target is available.  The core does not consult it; collaborators
	// do.
	SupportsBlockTarget() bool

	// PostProcessPrebuild applies coin-specific adjustments to a
	// decoded prebuild before verification, e.g. pinning the locktime
	// to the chain tip.
	PostProcessPrebuild(ctx context.Context, tx *wire.MsgTx,
		chainInfo explorer.Source) error
}

// BaseProfile is the default CoinProfile.  Coins with divergent
// behavior embed it and override the relevant methods.
type BaseProfile struct {
	Params *coinparams.Params

	// PinLocktime enables pinning prebuild locktimes to the next block
	// height.
	PinLocktime bool
}

// NewBaseProfile returns a profile with default capabilities for the
// given network.
func NewBaseProfile(params *coinparams.Params) *BaseProfile {
	return &BaseProfile{Params: params}
}

// ChainParams returns the coin's network profile.
func (p *BaseProfile) ChainParams() *coinparams.Params {
	return p.Params
}

// DefaultSigHashType is the sighash flag applied when signing.
func (p *BaseProfile) DefaultSigHashType() txscript.SigHashType {
	return p.Params.DefaultSigHash
}

// IsReplayProtectionUnspent reports false; most coins have no replay
// protection inputs.
func (p *BaseProfile) IsReplayProtectionUnspent(Unspent) bool {
	return false
}

// SupportsBlockTarget reports whether fee estimation by block target is
// available.
func (p *BaseProfile) SupportsBlockTarget() bool {
	return true
}

// PostProcessPrebuild pins the locktime to latest height + 1 when the
// profile opts in, and leaves the transaction untouched otherwise.
func (p *BaseProfile) PostProcessPrebuild(ctx context.Context,
	tx *wire.MsgTx, chainInfo explorer.Source) error {

	if !p.PinLocktime {
		return nil
	}
	height, err := chainInfo.LatestBlockHeight(ctx)
	if err != nil {
		return err
	}
	tx.LockTime = uint32(height) + 1
	return nil
}

// Services bundles the collaborators a Wallet consumes.
type Services struct {
	Keychains KeychainSource
	Addresses AddressSource
	Explorer  explorer.Source
}

// Wallet is the verification and signing core for a single coin.  It
// holds no key material; keychains are passed per call and private keys
// never outlive the call that used them.
type Wallet struct {
	profile  CoinProfile
	services Services
}

// New returns a core bound to the given coin profile and collaborators.
func New(profile CoinProfile, services Services) *Wallet {
	return &Wallet{profile: profile, services: services}
}

// Profile returns the coin profile the core was built with.
func (w *Wallet) Profile() CoinProfile {
	return w.profile
}

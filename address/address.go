// Copyright (c) 2025 The covault developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package address derives the wallet's multisig addresses from its
// keychain triple and proves that a given address belongs to the wallet
// by rederiving it.
package address

import (
	"crypto/sha256"
	"fmt"

	"github.com/btcsuite/btcd/btcutil"

	"github.com/covault/utxowallet/coinparams"
	"github.com/covault/utxowallet/keychain"
	"github.com/covault/utxowallet/script"
)

// DefaultThreshold is the number of signatures a wallet multisig program
// requires unless a caller overrides it.
const DefaultThreshold = 2

// CoinSpecific is the script material backing an address.
type CoinSpecific struct {
	RedeemScript  []byte
	WitnessScript []byte
	OutputScript  []byte
}

// Address is a fully-derived wallet address record.  The address string
// is the canonical encoding of CoinSpecific.OutputScript under the
// network it was generated for.
type Address struct {
	Address      string
	Chain        uint32
	Index        uint32
	Type         coinparams.AddressType
	CoinSpecific *CoinSpecific
}

// GenerateParams bundles the inputs of Generate.
type GenerateParams struct {
	Type      coinparams.AddressType
	Keychains keychain.Triple

	// Threshold is the number of required signatures; zero selects
	// DefaultThreshold.
	Threshold int

	Chain  uint32
	Index  uint32
	Params *coinparams.Params
}

// Generate derives the multisig address at chain/index for the given
// address type, together with its redeem/witness/output scripts.
func Generate(p GenerateParams) (*Address, error) {
	if p.Type == coinparams.P2WSH && !p.Params.SupportsP2WSH {
		return nil, newError(ErrP2WSHUnsupported,
			fmt.Sprintf("%s does not support p2wsh addresses", p.Params.Name),
			nil)
	}
	switch p.Type {
	case coinparams.P2SH, coinparams.P2SHP2WSH, coinparams.P2WSH:
	default:
		return nil, newError(ErrUnsupportedAddressType,
			fmt.Sprintf("address type %v is not supported", p.Type), nil)
	}

	threshold := p.Threshold
	if threshold == 0 {
		threshold = DefaultThreshold
	}

	pubKeys, err := p.Keychains.PubTriple(p.Chain, p.Index)
	if err != nil {
		return nil, err
	}
	program, err := script.Multisig(pubKeys, threshold)
	if err != nil {
		return nil, err
	}
	set, err := script.ForType(p.Type, program)
	if err != nil {
		return nil, err
	}

	encoded, err := encode(p.Type, set, p.Params)
	if err != nil {
		return nil, err
	}

	return &Address{
		Address: encoded,
		Chain:   p.Chain,
		Index:   p.Index,
		Type:    p.Type,
		CoinSpecific: &CoinSpecific{
			RedeemScript:  set.RedeemScript,
			WitnessScript: set.WitnessScript,
			OutputScript:  set.OutputScript,
		},
	}, nil
}

// encode renders the canonical address string for a script set:
// base58check of the redeem script hash for P2SH classes, bech32 of the
// witness program for native segwit.
func encode(addrType coinparams.AddressType, set *script.Set,
	params *coinparams.Params) (string, error) {

	switch addrType {
	case coinparams.P2SH, coinparams.P2SHP2WSH:
		addr, err := btcutil.NewAddressScriptHashFromHash(
			btcutil.Hash160(set.RedeemScript), params.Net,
		)
		if err != nil {
			return "", newError(ErrInvalidAddress,
				"cannot encode script hash address", err)
		}
		return addr.EncodeAddress(), nil

	case coinparams.P2WSH:
		scriptHash := sha256.Sum256(set.WitnessScript)
		addr, err := btcutil.NewAddressWitnessScriptHash(
			scriptHash[:], params.Net,
		)
		if err != nil {
			return "", newError(ErrInvalidAddress,
				"cannot encode witness script hash address", err)
		}
		return addr.EncodeAddress(), nil
	}

	return "", newError(ErrUnsupportedAddressType,
		fmt.Sprintf("address type %v is not supported", addrType), nil)
}

// VerifyParams bundles the inputs of Verify.  Chain and Index are signed
// so that callers can represent records with missing derivation
// properties; negative values fail verification with
// ErrInvalidDerivationProperty.
type VerifyParams struct {
	Address      string
	Type         coinparams.AddressType
	Keychains    keychain.Triple
	CoinSpecific *CoinSpecific
	Chain        int64
	Index        int64
	Params       *coinparams.Params
}

// Verify proves that the supplied address is the wallet's own by
// rederiving it from the keychain triple and comparing.  The error
// ladder distinguishes malformed addresses, missing derivation
// properties, missing script material, and genuine mismatches so that
// callers can interpret each case differently.
func Verify(p VerifyParams) error {
	if _, err := btcutil.DecodeAddress(p.Address, p.Params.Net); err != nil {
		return newError(ErrInvalidAddress,
			fmt.Sprintf("invalid address %q on %s", p.Address, p.Params.Name),
			err)
	}
	if p.Chain < 0 || p.Index < 0 {
		return newError(ErrInvalidDerivationProperty,
			fmt.Sprintf("invalid derivation chain/index %d/%d for %s",
				p.Chain, p.Index, p.Address),
			nil)
	}
	if p.CoinSpecific == nil {
		return newError(ErrMissingCoinSpecific,
			fmt.Sprintf("no coin-specific data to verify %s", p.Address),
			nil)
	}

	derived, err := Generate(GenerateParams{
		Type:      p.Type,
		Keychains: p.Keychains,
		Chain:     uint32(p.Chain),
		Index:     uint32(p.Index),
		Params:    p.Params,
	})
	if err != nil {
		return err
	}

	if derived.Address != p.Address {
		return newError(ErrUnexpectedAddress,
			fmt.Sprintf("address %s is not the expected %s",
				p.Address, derived.Address),
			nil)
	}
	return nil
}

// TypeFromScripts infers the address type of an address record from the
// script material it carries.
func TypeFromScripts(hasRedeemScript, hasWitnessScript bool) coinparams.AddressType {
	switch {
	case hasWitnessScript && hasRedeemScript:
		return coinparams.P2SHP2WSH
	case hasWitnessScript:
		return coinparams.P2WSH
	default:
		return coinparams.P2SH
	}
}

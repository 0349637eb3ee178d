// Copyright (c) 2025 The covault developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package coinparams defines the per-coin network profiles the wallet core
// operates on.  A profile bundles the base58 address version bytes, the
// bech32 human readable prefix, and the capability bits that vary between
// Bitcoin-family chains.
package coinparams

import (
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
)

// Params describes a single Bitcoin-family network as consumed by the
// wallet core.  Net carries the canonical chaincfg parameters (address
// version bytes, bech32 HRP, HD key prefixes) while the remaining fields
// hold the capabilities that chaincfg has no notion of.
type Params struct {
	// Name is the short coin ticker, e.g. "btc" or "tltc".
	Name string

	// Net holds the address encoding parameters for the network.
	Net *chaincfg.Params

	// AltScriptHashVersion is an additional base58 script hash version
	// byte accepted for destination addresses when HasAltScriptHash is
	// set.  Litecoin carries its legacy "3"-prefix version here.
	AltScriptHashVersion byte
	HasAltScriptHash     bool

	// SupportsP2WSH indicates the network accepts native segwit
	// pay-to-witness-script-hash outputs.
	SupportsP2WSH bool

	// SupportsAltScriptDest indicates destination addresses encoded with
	// AltScriptHashVersion may be allowed when the caller opts in.
	SupportsAltScriptDest bool

	// DefaultSigHash is the sighash flag applied when signing inputs on
	// this network.
	DefaultSigHash txscript.SigHashType

	// Family identifies the coin family the network belongs to, e.g.
	// "btc" or "ltc".  Key recovery providers quote fees per family.
	Family string
}

var (
	// litecoinNet holds the address encoding parameters for the Litecoin
	// main network.  Only the fields consulted by the address codec and
	// the HD key prefixes are populated.
	litecoinNet = chaincfg.Params{
		Name:             "litecoin",
		Net:              wire.BitcoinNet(0xdbb6c0fb),
		PubKeyHashAddrID: 0x30, // starts with L
		ScriptHashAddrID: 0x32, // starts with M
		PrivateKeyID:     0xb0,
		Bech32HRPSegwit:  "ltc",
		HDPrivateKeyID:   [4]byte{0x04, 0x88, 0xad, 0xe4},
		HDPublicKeyID:    [4]byte{0x04, 0x88, 0xb2, 0x1e},
		HDCoinType:       2,
	}

	// litecoinTestNet4 holds the address encoding parameters for the
	// Litecoin test network.
	litecoinTestNet4 = chaincfg.Params{
		Name:             "litecointestnet4",
		Net:              wire.BitcoinNet(0xf1c8d2fd),
		PubKeyHashAddrID: 0x6f, // starts with m/n
		ScriptHashAddrID: 0x3a, // starts with Q
		PrivateKeyID:     0xef,
		Bech32HRPSegwit:  "tltc",
		HDPrivateKeyID:   [4]byte{0x04, 0x35, 0x83, 0x94},
		HDPublicKeyID:    [4]byte{0x04, 0x35, 0x87, 0xcf},
		HDCoinType:       1,
	}
)

func init() {
	// The bech32 prefix lookup used by the address codec consults the
	// chaincfg registry, so the hand-built networks must be registered.
	for _, params := range []*chaincfg.Params{&litecoinNet, &litecoinTestNet4} {
		if err := chaincfg.Register(params); err != nil &&
			err != chaincfg.ErrDuplicateNet {

			panic(err)
		}
	}
}

// BTCMain is the profile for the Bitcoin main network.
var BTCMain = &Params{
	Name:           "btc",
	Net:            &chaincfg.MainNetParams,
	SupportsP2WSH:  true,
	DefaultSigHash: txscript.SigHashAll,
	Family:         "btc",
}

// BTCTest is the profile for the Bitcoin test network (testnet3).
var BTCTest = &Params{
	Name:           "tbtc",
	Net:            &chaincfg.TestNet3Params,
	SupportsP2WSH:  true,
	DefaultSigHash: txscript.SigHashAll,
	Family:         "btc",
}

// LTCMain is the profile for the Litecoin main network.  The legacy "3"
// script hash version is carried as the alternate version byte so that
// old-style destination addresses may be allowed on opt-in.
var LTCMain = &Params{
	Name:                  "ltc",
	Net:                   &litecoinNet,
	AltScriptHashVersion:  0x05,
	HasAltScriptHash:      true,
	SupportsAltScriptDest: true,
	DefaultSigHash:        txscript.SigHashAll,
	Family:                "ltc",
}

// LTCTest is the profile for the Litecoin test network.
var LTCTest = &Params{
	Name:                  "tltc",
	Net:                   &litecoinTestNet4,
	AltScriptHashVersion:  0xc4,
	HasAltScriptHash:      true,
	SupportsAltScriptDest: true,
	DefaultSigHash:        txscript.SigHashAll,
	Family:                "ltc",
}

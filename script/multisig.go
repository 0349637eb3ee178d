// Copyright (c) 2025 The covault developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package script builds and decomposes the scripts a multisig wallet
// deals in: bare m-of-n programs, the per-type redeem/witness/output
// script sets, and the signature scripts found on transaction inputs.
package script

import (
	"crypto/sha256"
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/txscript"

	"github.com/covault/utxowallet/coinparams"
)

// Multisig assembles the m-of-n program OP_m <pub_1> ... <pub_n> OP_n
// OP_CHECKMULTISIG over the given serialized public keys.
func Multisig(pubKeys [][]byte, threshold int) ([]byte, error) {
	if threshold <= 0 || threshold > len(pubKeys) {
		str := fmt.Sprintf("threshold %d out of range for %d keys",
			threshold, len(pubKeys))
		return nil, newError(ErrInvalidThreshold, str, nil)
	}

	builder := txscript.NewScriptBuilder()
	builder.AddInt64(int64(threshold))
	for _, pubKey := range pubKeys {
		builder.AddData(pubKey)
	}
	builder.AddInt64(int64(len(pubKeys)))
	builder.AddOp(txscript.OP_CHECKMULTISIG)
	return builder.Script()
}

// Set is the script material backing a single wallet address.  Which
// fields are populated depends on the address type: P2SH addresses have
// no witness script, native P2WSH addresses no redeem script.
type Set struct {
	RedeemScript  []byte
	WitnessScript []byte
	OutputScript  []byte
}

// ForType derives the redeem/witness/output script set of the given
// address type from a multisig program.
func ForType(addrType coinparams.AddressType, program []byte) (*Set, error) {
	switch addrType {
	case coinparams.P2SH:
		outputScript, err := payToScriptHash(program)
		if err != nil {
			return nil, err
		}
		return &Set{
			RedeemScript: program,
			OutputScript: outputScript,
		}, nil

	case coinparams.P2SHP2WSH:
		redeemScript, err := witnessScriptHash(program)
		if err != nil {
			return nil, err
		}
		outputScript, err := payToScriptHash(redeemScript)
		if err != nil {
			return nil, err
		}
		return &Set{
			RedeemScript:  redeemScript,
			WitnessScript: program,
			OutputScript:  outputScript,
		}, nil

	case coinparams.P2WSH:
		outputScript, err := witnessScriptHash(program)
		if err != nil {
			return nil, err
		}
		return &Set{
			WitnessScript: program,
			OutputScript:  outputScript,
		}, nil
	}

	return nil, newError(ErrUnsupportedAddressType,
		fmt.Sprintf("address type %v is not supported", addrType), nil)
}

// payToScriptHash returns OP_HASH160 <HASH160(script)> OP_EQUAL.
func payToScriptHash(redeemScript []byte) ([]byte, error) {
	return txscript.NewScriptBuilder().
		AddOp(txscript.OP_HASH160).
		AddData(btcutil.Hash160(redeemScript)).
		AddOp(txscript.OP_EQUAL).
		Script()
}

// witnessScriptHash returns OP_0 <SHA256(script)>.
func witnessScriptHash(witnessScript []byte) ([]byte, error) {
	scriptHash := sha256.Sum256(witnessScript)
	return txscript.NewScriptBuilder().
		AddOp(txscript.OP_0).
		AddData(scriptHash[:]).
		Script()
}

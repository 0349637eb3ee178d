// Copyright (c) 2025 The covault developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package script

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
)

// ParsedSigScript is the decomposition of a transaction input into the
// material needed to verify its signatures.
type ParsedSigScript struct {
	// Signatures holds the DER signatures (with trailing sighash byte)
	// found on the input.  Half-signed inputs may contain zero-length
	// placeholder entries.
	Signatures [][]byte

	// PublicKeys holds the serialized public keys the signatures are to
	// be checked against, in script order.
	PublicKeys [][]byte

	// PubScript is the script code signatures commit to: the redeem
	// script for P2SH inputs, the witness script for segwit inputs, and
	// the reconstructed output script for P2PKH inputs.
	PubScript []byte

	// Class is the standard classification of the spent output.  For
	// bech32 inputs it is derived from a synthesized script
	// OP_0 <SHA256(witness script)>; that faux script exists only on
	// the verifier side and is never serialized.
	Class txscript.ScriptClass

	// IsSegwit reports whether the input carries a witness stack.
	IsSegwit bool

	// IsBech32 reports whether the input spends a native segwit output
	// (witness present, empty signature script).
	IsBech32 bool
}

// ParseSignatureScript decomposes the input at the given index of tx.
// Unknown input shapes are returned with Class set to NonStandardTy
// rather than as an error so callers can treat them as unverifiable.
func ParseSignatureScript(tx *wire.MsgTx, idx int) (*ParsedSigScript, error) {
	if idx < 0 || idx >= len(tx.TxIn) {
		str := fmt.Sprintf("input index %d out of range", idx)
		return nil, newError(ErrScriptParse, str, nil)
	}
	input := tx.TxIn[idx]

	if len(input.Witness) > 0 {
		return parseWitness(input)
	}
	return parseLegacy(input)
}

// parseWitness handles native P2WSH and P2SH-wrapped P2WSH inputs.  The
// last witness element is the witness script; everything before it,
// minus the CHECKMULTISIG dummy, are signature slots.
func parseWitness(input *wire.TxIn) (*ParsedSigScript, error) {
	witness := input.Witness
	witnessScript := witness[len(witness)-1]

	// Classify through the synthesized witness program so segwit inputs
	// take the same downstream path as outputs would.
	fauxPubScript, err := witnessScriptHash(witnessScript)
	if err != nil {
		return nil, newError(ErrScriptParse,
			"cannot synthesize witness program", err)
	}

	signatures := trimMultisigDummy(witness[:len(witness)-1])
	publicKeys, err := multisigPubKeys(witnessScript)
	if err != nil {
		return nil, err
	}

	return &ParsedSigScript{
		Signatures: signatures,
		PublicKeys: publicKeys,
		PubScript:  witnessScript,
		Class:      txscript.GetScriptClass(fauxPubScript),
		IsSegwit:   true,
		IsBech32:   len(input.SignatureScript) == 0,
	}, nil
}

// parseLegacy handles P2SH multisig and P2PKH inputs.
func parseLegacy(input *wire.TxIn) (*ParsedSigScript, error) {
	pushes, err := txscript.PushedData(input.SignatureScript)
	if err != nil {
		return nil, newError(ErrScriptParse,
			"cannot decompose signature script", err)
	}
	if len(pushes) == 0 {
		return &ParsedSigScript{Class: txscript.NonStandardTy}, nil
	}

	last := pushes[len(pushes)-1]
	if txscript.GetScriptClass(last) == txscript.MultiSigTy {
		publicKeys, err := multisigPubKeys(last)
		if err != nil {
			return nil, err
		}
		return &ParsedSigScript{
			Signatures: trimMultisigDummy(pushes[:len(pushes)-1]),
			PublicKeys: publicKeys,
			PubScript:  last,
			Class:      txscript.ScriptHashTy,
		}, nil
	}

	if len(pushes) == 2 && isSerializedPubKey(pushes[1]) {
		pubScript, err := payToPubKeyHash(pushes[1])
		if err != nil {
			return nil, err
		}
		return &ParsedSigScript{
			Signatures: pushes[:1],
			PublicKeys: pushes[1:2],
			PubScript:  pubScript,
			Class:      txscript.PubKeyHashTy,
		}, nil
	}

	return &ParsedSigScript{Class: txscript.NonStandardTy}, nil
}

// trimMultisigDummy drops the zero-length push consumed by the
// off-by-one bug in OP_CHECKMULTISIG, leaving only signature slots.
func trimMultisigDummy(pushes [][]byte) [][]byte {
	if len(pushes) > 0 && len(pushes[0]) == 0 {
		return pushes[1:]
	}
	return pushes
}

// multisigPubKeys extracts the public keys of a bare multisig program.
func multisigPubKeys(program []byte) ([][]byte, error) {
	if txscript.GetScriptClass(program) != txscript.MultiSigTy {
		return nil, nil
	}
	pushes, err := txscript.PushedData(program)
	if err != nil {
		return nil, newError(ErrScriptParse,
			"cannot decompose multisig program", err)
	}
	return pushes, nil
}

// payToPubKeyHash reconstructs the P2PKH output script of the given
// public key.
func payToPubKeyHash(pubKey []byte) ([]byte, error) {
	return txscript.NewScriptBuilder().
		AddOp(txscript.OP_DUP).
		AddOp(txscript.OP_HASH160).
		AddData(btcutil.Hash160(pubKey)).
		AddOp(txscript.OP_EQUALVERIFY).
		AddOp(txscript.OP_CHECKSIG).
		Script()
}

// isSerializedPubKey reports whether data looks like a serialized
// compressed or uncompressed secp256k1 public key.
func isSerializedPubKey(data []byte) bool {
	switch len(data) {
	case 33:
		return data[0] == 0x02 || data[0] == 0x03
	case 65:
		return data[0] == 0x04
	}
	return false
}

// Copyright (c) 2025 The covault developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import (
	"bytes"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"github.com/covault/utxowallet/script"
)

// VerifySignatureOptions narrows what VerifySignature checks.
type VerifySignatureOptions struct {
	// SignatureIndex restricts verification to the signature at the
	// given position within the input's signature list.
	SignatureIndex *int

	// PublicKey restricts verification to signatures by the given
	// serialized public key.
	PublicKey []byte
}

// VerifySignature checks the signatures on the input at idx.  amount is
// the value of the spent output and is required for segwit inputs.
//
// Without options, every signature present must verify against some
// distinct public key of the input's script.  With PublicKey set, a
// single successful verification of any signature against that key
// suffices.  With SignatureIndex set, only that signature is checked.
func VerifySignature(tx *wire.MsgTx, idx int, amount int64,
	opts *VerifySignatureOptions) bool {

	if opts == nil {
		opts = &VerifySignatureOptions{}
	}

	parsed, err := script.ParseSignatureScript(tx, idx)
	if err != nil {
		return false
	}
	switch parsed.Class {
	case txscript.ScriptHashTy, txscript.WitnessV0ScriptHashTy,
		txscript.PubKeyHashTy:
	default:
		return false
	}
	// BIP143 digests commit to the spent amount, so segwit inputs
	// cannot be checked without one.
	if parsed.IsSegwit && amount <= 0 {
		return false
	}

	signatures := make([][]byte, 0, len(parsed.Signatures))
	for _, sig := range parsed.Signatures {
		if len(sig) > 0 {
			signatures = append(signatures, sig)
		}
	}
	if len(signatures) == 0 {
		return false
	}
	if opts.SignatureIndex != nil {
		i := *opts.SignatureIndex
		if i < 0 || i >= len(signatures) {
			return false
		}
		signatures = signatures[i : i+1]
	}

	matchedKeys := make(map[int]bool, len(parsed.PublicKeys))
	for _, sig := range signatures {
		hashType := txscript.SigHashType(sig[len(sig)-1])
		derSig, err := ecdsa.ParseDERSignature(sig[:len(sig)-1])
		if err != nil {
			if opts.PublicKey != nil {
				continue
			}
			return false
		}

		sigHash, err := signatureHash(tx, idx, amount, parsed, hashType)
		if err != nil {
			return false
		}

		matched := false
		for keyIdx, pubKeyBytes := range parsed.PublicKeys {
			if matchedKeys[keyIdx] {
				continue
			}
			if opts.PublicKey != nil &&
				!bytes.Equal(pubKeyBytes, opts.PublicKey) {

				continue
			}
			pubKey, err := btcec.ParsePubKey(pubKeyBytes)
			if err != nil {
				continue
			}
			if derSig.Verify(sigHash, pubKey) {
				if opts.PublicKey != nil {
					return true
				}
				matchedKeys[keyIdx] = true
				matched = true
				break
			}
		}
		if opts.PublicKey == nil && !matched {
			return false
		}
	}

	// In targeted mode reaching this point means the key never signed;
	// otherwise every signature found its own key.
	return opts.PublicKey == nil
}

// signatureHash computes the digest a signature on the input commits
// to: the legacy algorithm for pre-segwit inputs, BIP143 otherwise.
func signatureHash(tx *wire.MsgTx, idx int, amount int64,
	parsed *script.ParsedSigScript, hashType txscript.SigHashType) (
	[]byte, error) {

	if !parsed.IsSegwit {
		return txscript.CalcSignatureHash(parsed.PubScript, hashType, tx, idx)
	}

	sigHashes := txscript.NewTxSigHashes(
		tx, txscript.NewCannedPrevOutputFetcher(parsed.PubScript, amount),
	)
	return txscript.CalcWitnessSigHash(
		parsed.PubScript, sigHashes, hashType, tx, idx, amount,
	)
}

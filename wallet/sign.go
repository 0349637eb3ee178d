// Copyright (c) 2025 The covault developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import (
	"bytes"
	"context"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/davecgh/go-spew/spew"

	"github.com/covault/utxowallet/keychain"
	"github.com/covault/utxowallet/script"
)

// SignRequest bundles the inputs of SignTransaction.
type SignRequest struct {
	// TxHex is the (possibly already half-signed) transaction.
	TxHex string

	// Unspents describes the spent outputs, aligned with the
	// transaction's inputs by index.
	Unspents []Unspent

	// Prv is the extended private key to sign with: the user key for
	// the first pass, the backup key when cosigning.
	Prv string

	// IsLastSignature marks this pass as producing the final, fully
	// signed transaction rather than a half-signed one for cosigning.
	// Both passes encode signatures the same way; the flag is recorded
	// for collaborators deciding whether to submit or cosign.
	IsLastSignature bool
}

// InputSignErrors aggregates the per-input failures of a signing pass.
type InputSignErrors []*InputSignError

// Error satisfies the error interface.
func (e InputSignErrors) Error() string {
	return fmt.Sprintf("%d inputs failed to sign", len(e))
}

// SignTransaction signs every input of the request's transaction with
// the request's private key, deriving the per-input leaf along each
// unspent's chain and index.  Inputs already carrying this key's
// signature are left unchanged, so re-signing is idempotent.  Failures are collected per
// input and reported together.
func (w *Wallet) SignTransaction(ctx context.Context, req *SignRequest) (string, error) {
	tx, err := DecodeTx(req.TxHex)
	if err != nil {
		return "", err
	}
	if len(req.Unspents) != len(tx.TxIn) {
		return "", newError(ErrPrebuild,
			fmt.Sprintf("transaction has %d inputs but %d unspents were "+
				"supplied", len(tx.TxIn), len(req.Unspents)), nil)
	}

	base, err := keychain.DeriveBase(req.Prv)
	if err != nil {
		return "", err
	}
	defer base.Zero()
	if !base.IsPrivate() {
		return "", newError(ErrInputSignatureFailure,
			"cannot sign with a public key", nil)
	}

	// The BIP143 midstate only commits to outpoints, sequences and
	// outputs, none of which signing changes, so it is computed once.
	sigHashes := txscript.NewTxSigHashes(
		tx, txscript.NewCannedPrevOutputFetcher(nil, 0),
	)
	hashType := w.profile.DefaultSigHashType()

	var issues InputSignErrors
	for i := range tx.TxIn {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		unspent := req.Unspents[i]
		if w.profile.IsReplayProtectionUnspent(unspent) {
			log.Debugf("Skipping replay protection input %d (%s)",
				i, unspent.Address)
			continue
		}

		err := w.signInput(tx, i, unspent, base, sigHashes, hashType)
		if err != nil {
			issues = append(issues, &InputSignError{
				InputIndex: i,
				Unspent:    unspent,
				Path:       keychain.LeafPath(unspent.Chain, unspent.Index),
				Err:        err,
			})
		}
	}

	if len(issues) > 0 {
		log.Debugf("Transaction signing failures: %v", spew.Sdump(issues))
		return "", newError(ErrInputSignatureFailure,
			fmt.Sprintf("signing failed on %d of %d inputs",
				len(issues), len(tx.TxIn)), issues)
	}

	return EncodeTx(tx)
}

// signInput derives the leaf key for one unspent, produces the
// signature matching the unspent's script shape, splices it into the
// input and verifies the result.
func (w *Wallet) signInput(tx *wire.MsgTx, idx int, unspent Unspent,
	base *hdkeychain.ExtendedKey, sigHashes *txscript.TxSigHashes,
	hashType txscript.SigHashType) error {

	leaf, err := keychain.DeriveLeafFromBase(base, unspent.Chain, unspent.Index)
	if err != nil {
		return err
	}
	defer leaf.Zero()
	privKey, err := leaf.ECPrivKey()
	if err != nil {
		return err
	}
	defer privKey.Zero()
	pubKey := privKey.PubKey().SerializeCompressed()

	switch {
	case len(unspent.WitnessScript) > 0:
		sig, err := txscript.RawTxInWitnessSignature(
			tx, sigHashes, idx, unspent.Value, unspent.WitnessScript,
			hashType, privKey,
		)
		if err != nil {
			return err
		}
		if err := spliceWitness(tx, idx, unspent, sig); err != nil {
			return err
		}

	case len(unspent.RedeemScript) > 0:
		sig, err := txscript.RawTxInSignature(
			tx, idx, unspent.RedeemScript, hashType, privKey,
		)
		if err != nil {
			return err
		}
		if err := spliceSigScript(tx, idx, unspent, sig); err != nil {
			return err
		}

	default:
		return fmt.Errorf("unspent %s:%d carries no redeem or witness "+
			"script", unspent.TxID, unspent.Vout)
	}

	if !VerifySignature(tx, idx, unspent.Value,
		&VerifySignatureOptions{PublicKey: pubKey}) {

		return fmt.Errorf("produced signature failed verification")
	}
	return nil
}

// spliceWitness rebuilds the witness stack of a segwit input with the
// new signature appended after any existing ones.  Native segwit inputs
// are witness-only, so their signature script is cleared; wrapped
// inputs push the redeem script there instead.
func spliceWitness(tx *wire.MsgTx, idx int, unspent Unspent, sig []byte) error {
	signatures := appendSignature(existingSignatures(tx, idx), sig)

	witness := make(wire.TxWitness, 0, len(signatures)+2)
	witness = append(witness, nil) // CHECKMULTISIG dummy
	witness = append(witness, signatures...)
	witness = append(witness, unspent.WitnessScript)
	tx.TxIn[idx].Witness = witness

	if len(unspent.RedeemScript) > 0 {
		sigScript, err := txscript.NewScriptBuilder().
			AddData(unspent.RedeemScript).
			Script()
		if err != nil {
			return err
		}
		tx.TxIn[idx].SignatureScript = sigScript
	} else {
		tx.TxIn[idx].SignatureScript = nil
	}
	return nil
}

// spliceSigScript rebuilds the signature script of a legacy P2SH input:
// the CHECKMULTISIG dummy, the signatures, and the redeem script push.
func spliceSigScript(tx *wire.MsgTx, idx int, unspent Unspent, sig []byte) error {
	signatures := appendSignature(existingSignatures(tx, idx), sig)

	builder := txscript.NewScriptBuilder().AddOp(txscript.OP_0)
	for _, signature := range signatures {
		builder.AddData(signature)
	}
	builder.AddData(unspent.RedeemScript)

	sigScript, err := builder.Script()
	if err != nil {
		return err
	}
	tx.TxIn[idx].SignatureScript = sigScript
	return nil
}

// existingSignatures returns the non-empty signatures already present
// on the input.
func existingSignatures(tx *wire.MsgTx, idx int) [][]byte {
	parsed, err := script.ParseSignatureScript(tx, idx)
	if err != nil {
		return nil
	}
	var signatures [][]byte
	for _, sig := range parsed.Signatures {
		if len(sig) > 0 {
			signatures = append(signatures, sig)
		}
	}
	return signatures
}

// appendSignature adds sig unless an identical one is already present.
// Signing is deterministic, so a repeated pass with the same key
// produces the same bytes and the input stays singly signed.
func appendSignature(signatures [][]byte, sig []byte) [][]byte {
	for _, existing := range signatures {
		if bytes.Equal(existing, sig) {
			return signatures
		}
	}
	return append(signatures, sig)
}

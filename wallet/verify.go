// Copyright (c) 2025 The covault developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import (
	"context"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/wire"
	"golang.org/x/sync/errgroup"

	"github.com/covault/utxowallet/keychain"
)

// Implicit external outputs may claim at most 150 basis points of the
// explicit external spend.  The ratio is checked in exact integer
// arithmetic as implicit*payGoLimitDenom <= explicit*payGoLimitNum.
const (
	payGoLimitNum   = 3
	payGoLimitDenom = 200
)

// prevTxConcurrency bounds the previous-transaction resolution fan-out.
const prevTxConcurrency = 8

// VerifyTransaction proves that a prebuild is safe to sign: the wallet's
// keychains are provably the user's, every requested recipient is paid,
// implicit external spend stays under the pay-as-you-go limit, and the
// fee is not negative.  Any error means the prebuild must not be signed.
func (w *Wallet) VerifyTransaction(ctx context.Context, req *ParseRequest) error {
	parsed, err := w.ParseTransaction(ctx, req)
	if err != nil {
		return err
	}

	disableNetworking := req.Verification != nil &&
		req.Verification.DisableNetworking

	if parsed.KeySignatures != nil {
		err := w.verifyKeySignatures(
			parsed.Keychains, parsed.KeySignatures,
			req.TxParams.WalletPassphrase,
		)
		if err != nil {
			return err
		}
	} else if disableNetworking {
		return newError(ErrKeychainIntegrity,
			"cannot verify keychain provenance without key signatures "+
				"while networking is disabled", nil)
	} else {
		log.Warnf("Wallet %v has no key signatures; keychain provenance "+
			"not verified", walletID(req.Wallet))
	}

	if len(parsed.MissingOutputs) > 0 {
		return newError(ErrMissingRecipients,
			fmt.Sprintf("expected outputs missing in transaction prebuild: %v",
				parsed.MissingOutputs), nil)
	}

	implicit := parsed.ImplicitExternalSpendAmount
	explicit := parsed.ExplicitExternalSpendAmount
	if implicit*payGoLimitDenom > explicit*payGoLimitNum {
		return newError(ErrImplicitSpendLimitExceeded,
			fmt.Sprintf("prebuild attempts to spend %d satoshis "+
				"implicitly, over the limit of %d", implicit,
				explicit*payGoLimitNum/payGoLimitDenom), nil)
	}

	return w.verifyFee(ctx, req, disableNetworking)
}

// verifyKeySignatures proves that the backup and platform public keys
// were endorsed by the user key: the user private key must match its
// published public key, and both secondary public keys must carry valid
// signed-message signatures from the user signing address.
func (w *Wallet) verifyKeySignatures(keychains keychain.Triple,
	sigs *keychain.KeySignatures, passphrase []byte) error {

	user := keychains.User()
	if user == nil {
		return newError(ErrKeychainIntegrity, "missing user keychain", nil)
	}

	prvStr := user.Prv
	if prvStr == "" {
		if len(user.EncryptedPrv) == 0 {
			return newError(ErrKeychainIntegrity,
				"no user private key available to verify key signatures", nil)
		}
		decrypted, err := keychain.DecryptPrv(user.EncryptedPrv, passphrase)
		if err != nil {
			return newError(ErrKeychainIntegrity,
				"cannot decrypt user private key", err)
		}
		prvStr = decrypted
	}

	prvKey, err := hdkeychain.NewKeyFromString(prvStr)
	if err != nil {
		return newError(ErrKeychainIntegrity,
			"malformed user private key", err)
	}
	defer prvKey.Zero()

	if !prvKey.IsPrivate() {
		return newError(ErrKeychainIntegrity,
			"user private key is neutered", nil)
	}
	neutered, err := prvKey.Neuter()
	if err != nil {
		return newError(ErrKeychainIntegrity,
			"cannot neuter user private key", err)
	}
	if neutered.String() != user.Pub {
		return newError(ErrKeychainIntegrity,
			"user private key does not match the published public key", nil)
	}

	signingAddr, err := keychain.SigningAddress(neutered)
	if err != nil {
		return newError(ErrKeychainIntegrity,
			"cannot derive user signing address", err)
	}

	backup, bitgo := keychains.Backup(), keychains.BitGo()
	if backup == nil || bitgo == nil {
		return newError(ErrKeychainIntegrity, "missing secondary keychains", nil)
	}
	if err := keychain.VerifyMessage(
		signingAddr, sigs.BackupPub, backup.Pub,
	); err != nil {
		return newError(ErrKeychainIntegrity,
			"invalid signature over the backup public key", err)
	}
	if err := keychain.VerifyMessage(
		signingAddr, sigs.BitGoPub, bitgo.Pub,
	); err != nil {
		return newError(ErrKeychainIntegrity,
			"invalid signature over the platform public key", err)
	}
	return nil
}

// verifyFee checks conservation: the prebuild's inputs must be worth at
// least its outputs.  Input values come from the prebuild's own
// previous transactions when supplied, the explorer otherwise.
func (w *Wallet) verifyFee(ctx context.Context, req *ParseRequest,
	disableNetworking bool) error {

	tx, err := DecodeTx(req.TxPrebuild.TxHex)
	if err != nil {
		return err
	}

	inputValues, err := w.resolveInputValues(
		ctx, tx, req.TxPrebuild.TxInfo.TxHexes, disableNetworking,
	)
	if err != nil {
		return err
	}

	var totalInput, totalOutput int64
	for _, value := range inputValues {
		totalInput += value
	}
	for _, txOut := range tx.TxOut {
		totalOutput += txOut.Value
	}

	if totalInput < totalOutput {
		return newError(ErrNegativeFee,
			fmt.Sprintf("attempting to spend %d satoshis, which exceeds "+
				"the input amount of %d satoshis", totalOutput, totalInput),
			nil)
	}
	return nil
}

// resolveInputValues returns the value of every input in input order.
// Previous transactions are resolved from the supplied hexes first and
// the explorer as a fallback, cached per call by txid.
func (w *Wallet) resolveInputValues(ctx context.Context, tx *wire.MsgTx,
	txHexes map[string]string, disableNetworking bool) ([]int64, error) {

	type prevOutput struct {
		outputs []int64
	}

	// Decode the locally supplied transactions up front, validating
	// that each hex really is the transaction it claims to be.
	cache := make(map[string]*prevOutput, len(tx.TxIn))
	for txid, txHex := range txHexes {
		prevTx, err := DecodeTx(txHex)
		if err != nil {
			return nil, err
		}
		if prevTx.TxHash().String() != txid {
			return nil, newError(ErrPrebuild,
				fmt.Sprintf("previous transaction hex does not match its "+
					"id %s", txid), nil)
		}
		values := make([]int64, len(prevTx.TxOut))
		for i, txOut := range prevTx.TxOut {
			values[i] = txOut.Value
		}
		cache[txid] = &prevOutput{outputs: values}
	}

	// Fetch whatever is missing from the explorer, one call per unique
	// transaction id.
	var missing []string
	seen := make(map[string]struct{})
	for _, txIn := range tx.TxIn {
		txid := txIn.PreviousOutPoint.Hash.String()
		if _, ok := cache[txid]; ok {
			continue
		}
		if _, ok := seen[txid]; ok {
			continue
		}
		seen[txid] = struct{}{}
		missing = append(missing, txid)
	}

	if len(missing) > 0 {
		if disableNetworking || w.services.Explorer == nil {
			return nil, newError(ErrNetworkingDisabled,
				fmt.Sprintf("networking is disabled and %d previous "+
					"transactions were not supplied", len(missing)), nil)
		}

		fetched := make([]*prevOutput, len(missing))
		group, groupCtx := errgroup.WithContext(ctx)
		group.SetLimit(prevTxConcurrency)
		for i, txid := range missing {
			i, txid := i, txid
			group.Go(func() error {
				prevTx, err := w.services.Explorer.Transaction(groupCtx, txid)
				if err != nil {
					return err
				}
				values := make([]int64, len(prevTx.Outputs))
				for j, out := range prevTx.Outputs {
					values[j] = out.Value
				}
				fetched[i] = &prevOutput{outputs: values}
				return nil
			})
		}
		if err := group.Wait(); err != nil {
			return nil, err
		}
		for i, txid := range missing {
			cache[txid] = fetched[i]
		}
	}

	values := make([]int64, len(tx.TxIn))
	for i, txIn := range tx.TxIn {
		txid := txIn.PreviousOutPoint.Hash.String()
		prev := cache[txid]
		vout := int(txIn.PreviousOutPoint.Index)
		if vout >= len(prev.outputs) {
			return nil, newError(ErrPrebuild,
				fmt.Sprintf("input %d spends nonexistent output %d of %s",
					i, vout, txid), nil)
		}
		values[i] = prev.outputs[vout]
	}
	return values, nil
}

// PostProcessPrebuild applies the coin profile's prebuild adjustments
// and re-serializes the transaction.
func (w *Wallet) PostProcessPrebuild(ctx context.Context, txHex string) (string, error) {
	tx, err := DecodeTx(txHex)
	if err != nil {
		return "", err
	}
	if err := w.profile.PostProcessPrebuild(ctx, tx, w.services.Explorer); err != nil {
		return "", err
	}
	return EncodeTx(tx)
}

// walletID renders a wallet identifier for logging.
func walletID(wallet *WalletInfo) string {
	if wallet == nil {
		return "<unknown>"
	}
	return wallet.ID
}

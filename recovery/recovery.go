// Copyright (c) 2025 The covault developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package recovery sweeps a wallet's funds without the wallet service:
// it rederives the wallet's addresses from the three keychains, scans a
// public block explorer for balances, and builds a signed (or
// offline-signable) transaction to a recovery destination.
package recovery

import (
	"context"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/btcsuite/btcwallet/wallet/txrules"
	"github.com/btcsuite/btcwallet/wallet/txsizes"

	"github.com/covault/utxowallet/coinparams"
	"github.com/covault/utxowallet/explorer"
	"github.com/covault/utxowallet/keychain"
	"github.com/covault/utxowallet/krs"
	"github.com/covault/utxowallet/wallet"
)

var (
	// ErrNoFunds indicates that the scan found nothing to sweep.
	ErrNoFunds = errors.New("no funds to recover")

	// ErrInsufficientFunds indicates a balance too small to cover the
	// sweep fee.
	ErrInsufficientFunds = errors.New(
		"total balance cannot cover the recovery fee")
)

// Fee estimation treats every input as a worst-case P2SH multisig
// redemption.  The output size is the standard P2PKH estimate shared
// with the wallet's size tables.
const (
	// txOverheadVSize covers version, locktime and the in/out counts.
	txOverheadVSize = 10

	// p2shInputVSize is the worst case size of an input redeeming a
	// 2-of-3 multisig P2SH output: outpoint (36), script length (3),
	// two 73-byte signatures, the 105-byte redeem script with push
	// opcodes, and the sequence (4).
	p2shInputVSize = 296

	outputVSize = txsizes.P2PKHOutputSize

	// defaultFeePerByte is the fallback fee rate; recovery has no fee
	// estimator to consult.
	defaultFeePerByte = 100

	// defaultScanWindow is how many consecutive unused indices end a
	// chain scan.
	defaultScanWindow = 20
)

// Mode describes how much of the sweep could be signed locally.
type Mode string

const (
	// ModeFullSweep cosigns with the user and backup keys.
	ModeFullSweep Mode = "full"

	// ModeKRS signs with the user key only; the backup key is held by
	// a key recovery service that countersigns out of band.
	ModeKRS Mode = "krs"

	// ModeUnsignedSweep builds an unsigned transaction for an offline
	// vault holding the private keys.
	ModeUnsignedSweep Mode = "unsigned"
)

// Options configures a recovery run.
type Options struct {
	// UserKey, BackupKey and BitGoKey are the wallet's extended keys
	// in their fixed order.  Private user/backup keys select the
	// signing mode.
	UserKey   string
	BackupKey string
	BitGoKey  string

	// RecoveryDestination receives the swept funds.
	RecoveryDestination string

	// Scan is the dry-streak window ending each chain scan; zero
	// selects the default of 20.
	Scan int

	// IgnoreAddressTypes lists address types to skip.  Nil selects the
	// default of skipping native P2WSH; an empty slice scans all.
	IgnoreAddressTypes []coinparams.AddressType

	// KRSProvider names the key recovery service holding the backup
	// key, for ModeKRS.
	KRSProvider string

	// KRSFeeAddress overrides the provider's fee address.
	KRSFeeAddress string

	// FeePerByte is the sweep fee rate; zero selects the fallback.
	FeePerByte int64

	Explorer explorer.Source
	Params   *coinparams.Params
	RateFeed krs.RateFeed
}

// Result is the outcome of a recovery run.
type Result struct {
	Mode  Mode
	TxHex string

	// Vault is the offline-vault descriptor, set for unsigned sweeps
	// instead of a signed TxHex.
	Vault *OfflineVault

	InputAmount    int64
	FeeAmount      int64
	KRSFee         int64
	RecoveryAmount int64

	Unspents []wallet.Unspent
}

// Recover scans the wallet's address space and sweeps everything it
// finds to the recovery destination.
func Recover(ctx context.Context, opts *Options) (*Result, error) {
	keys, mode, err := resolveKeys(opts)
	if err != nil {
		return nil, err
	}

	var provider *krs.Provider
	if mode == ModeKRS {
		provider, err = krs.Lookup(opts.KRSProvider)
		if err != nil {
			return nil, err
		}
		if !provider.SupportsFamily(opts.Params.Family) {
			return nil, fmt.Errorf("provider %s does not support %s",
				provider.Name, opts.Params.Family)
		}
	}

	destScript, err := destinationScript(opts)
	if err != nil {
		return nil, err
	}

	unspents, totalInput, err := scanUnspents(ctx, opts, keys.triple)
	if err != nil {
		return nil, err
	}
	if totalInput == 0 {
		return nil, ErrNoFunds
	}
	log.Infof("Recovering %d satoshis across %d unspents",
		totalInput, len(unspents))

	krsFee, krsFeeScript, err := krsFeeOutput(ctx, opts, provider, mode)
	if err != nil {
		return nil, err
	}

	outputs := 1
	if krsFeeScript != nil {
		outputs = 2
	}
	feePerByte := opts.FeePerByte
	if feePerByte == 0 {
		feePerByte = defaultFeePerByte
	}
	vsize := int64(txOverheadVSize + outputVSize*outputs +
		p2shInputVSize*len(unspents))
	fee := vsize * feePerByte

	recoveryAmount := totalInput - fee - krsFee
	if recoveryAmount < 0 {
		return nil, fmt.Errorf("%w: balance %d, fee %d, provider fee %d",
			ErrInsufficientFunds, totalInput, fee, krsFee)
	}

	tx := wire.NewMsgTx(wire.TxVersion)
	for _, unspent := range unspents {
		hash, err := chainHashFromStr(unspent.TxID)
		if err != nil {
			return nil, err
		}
		tx.AddTxIn(wire.NewTxIn(wire.NewOutPoint(hash, unspent.Vout), nil, nil))
	}
	recoveryOut := wire.NewTxOut(recoveryAmount, destScript)
	if txrules.IsDustOutput(recoveryOut, txrules.DefaultRelayFeePerKb) {
		return nil, fmt.Errorf("%w: recovery amount %d is dust",
			ErrInsufficientFunds, recoveryAmount)
	}
	tx.AddTxOut(recoveryOut)
	if krsFeeScript != nil {
		tx.AddTxOut(wire.NewTxOut(krsFee, krsFeeScript))
	}

	result := &Result{
		Mode:           mode,
		InputAmount:    totalInput,
		FeeAmount:      fee,
		KRSFee:         krsFee,
		RecoveryAmount: recoveryAmount,
		Unspents:       unspents,
	}

	txHex, err := wallet.EncodeTx(tx)
	if err != nil {
		return nil, err
	}
	if mode == ModeUnsignedSweep {
		result.Vault = newOfflineVault(txHex, unspents, opts.Params.Name)
		return result, nil
	}

	signed, err := signSweep(ctx, opts, keys, mode, txHex, unspents)
	if err != nil {
		return nil, err
	}
	result.TxHex = signed
	return result, nil
}

// sweepKeys carries the parsed key material of a recovery run.  The
// triple always holds public keys for derivation; the private keys are
// kept separately and only for the modes that sign.
type sweepKeys struct {
	triple    keychain.Triple
	userPrv   string
	backupPrv string
}

// resolveKeys parses the three keys, derives the signing mode from
// which of them are private, and neuters the triple for derivation.
func resolveKeys(opts *Options) (*sweepKeys, Mode, error) {
	parsed := make([]*hdkeychain.ExtendedKey, 3)
	pubs := make([]string, 3)
	for i, raw := range []string{opts.UserKey, opts.BackupKey, opts.BitGoKey} {
		key, err := hdkeychain.NewKeyFromString(raw)
		if err != nil {
			return nil, "", fmt.Errorf("invalid key %d: %w", i, err)
		}
		parsed[i] = key
		if key.IsPrivate() {
			neutered, err := key.Neuter()
			if err != nil {
				return nil, "", err
			}
			pubs[i] = neutered.String()
		} else {
			pubs[i] = key.String()
		}
	}

	keys := &sweepKeys{triple: keychain.NewTriple(
		&keychain.Keychain{Pub: pubs[0]},
		&keychain.Keychain{Pub: pubs[1]},
		&keychain.Keychain{Pub: pubs[2]},
	)}

	userPrivate := parsed[0].IsPrivate()
	backupPrivate := parsed[1].IsPrivate()
	switch {
	case userPrivate && backupPrivate:
		keys.userPrv = opts.UserKey
		keys.backupPrv = opts.BackupKey
		return keys, ModeFullSweep, nil

	case userPrivate && opts.KRSProvider != "":
		keys.userPrv = opts.UserKey
		return keys, ModeKRS, nil

	case !userPrivate && !backupPrivate:
		return keys, ModeUnsignedSweep, nil
	}
	return nil, "", errors.New(
		"unsupported key combination: a private backup key requires a " +
			"private user key, a public one requires a recovery service")
}

// destinationScript renders the output script of the recovery
// destination, accepting the alternate script hash version when the
// network supports it.
func destinationScript(opts *Options) ([]byte, error) {
	params := opts.Params
	if !coinparams.IsValidAddress(params, opts.RecoveryDestination, true) {
		return nil, fmt.Errorf("invalid recovery destination %q on %s",
			opts.RecoveryDestination, params.Name)
	}
	decoded, err := btcutil.DecodeAddress(opts.RecoveryDestination, params.Net)
	if err != nil {
		// btcutil only knows the network's own version bytes, so an
		// alternate-version script hash is re-encoded under the primary one.
		hash, version, decErr := base58.CheckDecode(opts.RecoveryDestination)
		if decErr != nil || !params.HasAltScriptHash ||
			version != params.AltScriptHashVersion {

			return nil, fmt.Errorf("invalid recovery destination: %w", err)
		}
		decoded, err = btcutil.NewAddressScriptHashFromHash(hash, params.Net)
		if err != nil {
			return nil, fmt.Errorf("invalid recovery destination: %w", err)
		}
	}
	return txscript.PayToAddrScript(decoded)
}

// krsFeeOutput computes the provider fee and, when a fee address is
// known, the output script paying it.
func krsFeeOutput(ctx context.Context, opts *Options, provider *krs.Provider,
	mode Mode) (int64, []byte, error) {

	if mode != ModeKRS || opts.RateFeed == nil {
		return 0, nil, nil
	}

	fee, err := krs.CalculateFee(ctx, provider, opts.Params.Family, opts.RateFeed)
	if err != nil {
		return 0, nil, err
	}

	feeAddress := opts.KRSFeeAddress
	if feeAddress == "" {
		feeAddress, err = provider.FeeAddress(opts.Params.Family)
		if err != nil {
			log.Warnf("No fee address for provider %s; fee will be "+
				"billed out of band", provider.Name)
			return 0, nil, nil
		}
	}
	decoded, err := btcutil.DecodeAddress(feeAddress, opts.Params.Net)
	if err != nil {
		return 0, nil, fmt.Errorf("invalid provider fee address: %w", err)
	}
	script, err := txscript.PayToAddrScript(decoded)
	if err != nil {
		return 0, nil, err
	}
	return fee, script, nil
}

// signSweep signs the sweep with the user key and, for full sweeps,
// cosigns with the backup key.  Every produced signature is verified
// before the transaction is returned.
func signSweep(ctx context.Context, opts *Options, keys *sweepKeys,
	mode Mode, txHex string, unspents []wallet.Unspent) (string, error) {

	core := wallet.New(wallet.NewBaseProfile(opts.Params), wallet.Services{})

	halfSigned, err := core.SignTransaction(ctx, &wallet.SignRequest{
		TxHex:           txHex,
		Unspents:        unspents,
		Prv:             keys.userPrv,
		IsLastSignature: mode == ModeKRS,
	})
	if err != nil {
		return "", err
	}
	if mode != ModeFullSweep {
		return halfSigned, nil
	}

	return core.SignTransaction(ctx, &wallet.SignRequest{
		TxHex:           halfSigned,
		Unspents:        unspents,
		Prv:             keys.backupPrv,
		IsLastSignature: true,
	})
}

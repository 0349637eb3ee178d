// Copyright (c) 2025 The covault developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/covault/utxowallet/address"
	"github.com/covault/utxowallet/keychain"
)

// classifyConcurrency bounds the per-output classification fan-out.
const classifyConcurrency = 8

// ParseRequest bundles the inputs of ParseTransaction.
type ParseRequest struct {
	TxParams     TxParams
	TxPrebuild   *TxPrebuild
	Wallet       *WalletInfo
	Verification *VerificationOptions
}

// ParseTransaction classifies every output of a prebuild as internal or
// external and diffs the result against the user's intent.  It is the
// analysis half of transaction verification; VerifyTransaction enforces
// the limits on what it reports.
func (w *Wallet) ParseTransaction(ctx context.Context,
	req *ParseRequest) (*ParsedTransaction, error) {

	if req.TxPrebuild == nil {
		return nil, newError(ErrPrebuild, "missing transaction prebuild", nil)
	}

	verification := req.Verification
	if verification == nil {
		verification = &VerificationOptions{}
	}

	keychains, err := w.resolveKeychains(ctx, req.Wallet, verification)
	if err != nil {
		return nil, err
	}

	explanation, err := Explain(
		req.TxPrebuild.TxHex,
		req.TxPrebuild.TxInfo.ChangeAddresses,
		w.profile.ChainParams(),
	)
	if err != nil {
		return nil, err
	}

	// The change split above is only the server's claim; ownership of
	// every output is decided by rederivation below.
	allOutputs := make([]Output, 0,
		len(explanation.Outputs)+len(explanation.ChangeOutputs))
	allOutputs = append(allOutputs, explanation.Outputs...)
	allOutputs = append(allOutputs, explanation.ChangeOutputs...)

	missing := missingOutputs(req.TxParams.Recipients, allOutputs)

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(classifyConcurrency)
	for i := range allOutputs {
		i := i
		group.Go(func() error {
			external, err := w.classifyOutput(
				groupCtx, allOutputs[i].Address, req, keychains,
				verification,
			)
			if err != nil {
				return err
			}
			allOutputs[i].External = external
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	explicit, implicit := splitExpected(allOutputs, req.TxParams.Recipients)

	parsed := &ParsedTransaction{
		Keychains:      keychains,
		Outputs:        allOutputs,
		MissingOutputs: missing,
	}
	if req.Wallet != nil {
		parsed.KeySignatures = req.Wallet.KeySignatures
	}
	for _, out := range allOutputs {
		if !out.External {
			parsed.ChangeOutputs = append(parsed.ChangeOutputs, out)
		}
	}
	for _, out := range explicit {
		if out.External {
			parsed.ExplicitExternalOutputs =
				append(parsed.ExplicitExternalOutputs, out)
			parsed.ExplicitExternalSpendAmount += out.Amount
		}
	}
	for _, out := range implicit {
		if out.External {
			parsed.ImplicitExternalOutputs =
				append(parsed.ImplicitExternalOutputs, out)
			parsed.ImplicitExternalSpendAmount += out.Amount
		}
	}
	return parsed, nil
}

// resolveKeychains returns the wallet's keychain triple, preferring
// verification-supplied keychains over a wallet service fetch.
func (w *Wallet) resolveKeychains(ctx context.Context, wallet *WalletInfo,
	verification *VerificationOptions) (keychain.Triple, error) {

	if verification.Keychains != nil {
		return *verification.Keychains, nil
	}
	if verification.DisableNetworking {
		return keychain.Triple{}, newError(ErrNetworkingDisabled,
			"networking is disabled and no keychains were supplied", nil)
	}
	if wallet == nil || w.services.Keychains == nil {
		return keychain.Triple{}, newError(ErrPrebuild,
			"no wallet keychains available", nil)
	}

	var triple keychain.Triple
	for i, id := range wallet.KeychainIDs {
		kc, err := w.services.Keychains.Keychain(ctx, id)
		if err != nil {
			return keychain.Triple{}, fmt.Errorf(
				"cannot fetch keychain %s: %w", id, err)
		}
		triple[i] = kc
	}
	return triple, nil
}

// classifyOutput decides whether a single output pays an external
// party.  The decision is fail-safe: only the outcomes enumerated here
// may classify an output; every other error aborts parsing so that an
// unprovable output is never silently treated as external.
func (w *Wallet) classifyOutput(ctx context.Context, addr string,
	req *ParseRequest, keychains keychain.Triple,
	verification *VerificationOptions) (bool, error) {

	record := req.TxPrebuild.TxInfo.WalletAddressDetails[addr].
		merge(verification.Addresses[addr])

	if record == nil {
		if verification.DisableNetworking || w.services.Addresses == nil {
			log.Warnf("No record of output address %s and networking "+
				"is unavailable; treating as external", addr)
			return w.classifyUnknownAddress(addr, req), nil
		}
		fetched, err := w.services.Addresses.WalletAddress(ctx, addr)
		switch {
		case errors.Is(err, ErrWalletAddressNotFound):
			return w.classifyUnknownAddress(addr, req), nil
		case err != nil:
			return false, err
		}
		record = fetched
	}

	err := w.verifyRecord(addr, record, keychains)
	switch {
	case err == nil:
		return false, nil

	case address.IsError(err, address.ErrUnexpectedAddress):
		return w.classifyUnknownAddress(addr, req), nil

	case address.IsError(err, address.ErrInvalidDerivationProperty) &&
		addr == req.TxParams.ChangeAddress:
		// The user nominated this change address; missing derivation
		// properties are expected for custom change.
		return false, nil
	}
	return false, err
}

// classifyUnknownAddress handles addresses the wallet has no proof of
// ownership for.  The base address of a migrated legacy wallet is still
// the wallet's own.
func (w *Wallet) classifyUnknownAddress(addr string, req *ParseRequest) bool {
	if req.Wallet != nil && req.Wallet.MigratedFrom == addr {
		return false
	}
	return true
}

// verifyRecord runs address verification for a wallet address record.
func (w *Wallet) verifyRecord(addr string, record *AddressRecord,
	keychains keychain.Triple) error {

	hasRedeem := record.CoinSpecific != nil &&
		len(record.CoinSpecific.RedeemScript) > 0
	hasWitness := record.CoinSpecific != nil &&
		len(record.CoinSpecific.WitnessScript) > 0

	chain, index := int64(-1), int64(-1)
	if record.Chain != nil {
		chain = int64(*record.Chain)
	}
	if record.Index != nil {
		index = int64(*record.Index)
	}

	return address.Verify(address.VerifyParams{
		Address:      addr,
		Type:         address.TypeFromScripts(hasRedeem, hasWitness),
		Keychains:    keychains,
		CoinSpecific: record.CoinSpecific,
		Chain:        chain,
		Index:        index,
		Params:       w.profile.ChainParams(),
	})
}

// outputKey is the composite multiset key outputs and recipients are
// matched on.
type outputKey struct {
	address string
	amount  int64
}

// missingOutputs returns the recipients with no matching output,
// honoring multiplicity: two identical recipients need two identical
// outputs.
func missingOutputs(recipients []Recipient, outputs []Output) []Recipient {
	remaining := make(map[outputKey]int, len(outputs))
	for _, out := range outputs {
		remaining[outputKey{out.Address, out.Amount}]++
	}

	var missing []Recipient
	for _, recipient := range recipients {
		key := outputKey{recipient.Address, recipient.Amount}
		if remaining[key] > 0 {
			remaining[key]--
			continue
		}
		missing = append(missing, recipient)
	}
	return missing
}

// splitExpected partitions outputs into those matching a recipient
// (explicit) and the rest (implicit), consuming each recipient at most
// once.
func splitExpected(outputs []Output, recipients []Recipient) (
	explicit, implicit []Output) {

	remaining := make(map[outputKey]int, len(recipients))
	for _, recipient := range recipients {
		remaining[outputKey{recipient.Address, recipient.Amount}]++
	}

	for _, out := range outputs {
		key := outputKey{out.Address, out.Amount}
		if remaining[key] > 0 {
			remaining[key]--
			explicit = append(explicit, out)
		} else {
			implicit = append(implicit, out)
		}
	}
	return explicit, implicit
}

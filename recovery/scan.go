// Copyright (c) 2025 The covault developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package recovery

import (
	"context"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/covault/utxowallet/address"
	"github.com/covault/utxowallet/coinparams"
	"github.com/covault/utxowallet/keychain"
	"github.com/covault/utxowallet/wallet"
)

// scanUnspents walks the wallet's address space on the explorer.  For
// every not-ignored address type it scans the type's deposit and change
// chains index by index, stopping a chain once the dry streak of unused
// addresses reaches the scan window.
func scanUnspents(ctx context.Context, opts *Options,
	triple keychain.Triple) ([]wallet.Unspent, int64, error) {

	window := opts.Scan
	if window <= 0 {
		window = defaultScanWindow
	}

	ignored := opts.IgnoreAddressTypes
	if ignored == nil {
		// Native segwit sweeps need explorer support most chains lack.
		ignored = []coinparams.AddressType{coinparams.P2WSH}
	}
	ignoredSet := make(map[coinparams.AddressType]struct{}, len(ignored))
	for _, addrType := range ignored {
		ignoredSet[addrType] = struct{}{}
	}

	var (
		unspents []wallet.Unspent
		total    int64
	)
	for _, addrType := range coinparams.AddressTypes {
		if _, skip := ignoredSet[addrType]; skip {
			continue
		}
		if addrType == coinparams.P2WSH && !opts.Params.SupportsP2WSH {
			continue
		}

		for _, change := range []bool{false, true} {
			chain := coinparams.ChainForType(addrType, change)
			found, amount, err := scanChain(
				ctx, opts, triple, addrType, chain, window,
			)
			if err != nil {
				return nil, 0, err
			}
			unspents = append(unspents, found...)
			total += amount
		}
	}
	return unspents, total, nil
}

// scanChain scans one derivation chain until the dry streak reaches the
// window.
func scanChain(ctx context.Context, opts *Options, triple keychain.Triple,
	addrType coinparams.AddressType, chain uint32, window int) (
	[]wallet.Unspent, int64, error) {

	var (
		unspents []wallet.Unspent
		total    int64
		streak   int
	)
	for index := uint32(0); streak < window; index++ {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}

		derived, err := address.Generate(address.GenerateParams{
			Type:      addrType,
			Keychains: triple,
			Chain:     chain,
			Index:     index,
			Params:    opts.Params,
		})
		if err != nil {
			return nil, 0, err
		}

		info, err := opts.Explorer.AddressInfo(ctx, derived.Address)
		if err != nil {
			return nil, 0, err
		}
		if info.TxCount == 0 {
			streak++
			continue
		}
		streak = 0

		if info.TotalBalance <= 0 {
			continue
		}
		log.Infof("Found %d satoshis at %s (chain %d, index %d)",
			info.TotalBalance, derived.Address, chain, index)

		found, err := opts.Explorer.AddressUnspents(ctx, derived.Address)
		if err != nil {
			return nil, 0, err
		}
		for _, u := range found {
			unspents = append(unspents, wallet.Unspent{
				TxID:          u.TxID,
				Vout:          u.Vout,
				Value:         u.Value,
				Address:       derived.Address,
				Chain:         chain,
				Index:         index,
				RedeemScript:  derived.CoinSpecific.RedeemScript,
				WitnessScript: derived.CoinSpecific.WitnessScript,
			})
			total += u.Value
		}
	}
	return unspents, total, nil
}

// chainHashFromStr parses a transaction id.
func chainHashFromStr(txid string) (*chainhash.Hash, error) {
	hash, err := chainhash.NewHashFromStr(txid)
	if err != nil {
		return nil, fmt.Errorf("invalid transaction id %q: %w", txid, err)
	}
	return hash, nil
}

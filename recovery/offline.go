// Copyright (c) 2025 The covault developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package recovery

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/covault/utxowallet/wallet"
)

// OfflineVault is the export format consumed by an offline signing
// vault: the unsigned sweep plus everything needed to rebuild and sign
// it without network access.
type OfflineVault struct {
	TxHex   string        `json:"txHex"`
	TxInfo  OfflineTxInfo `json:"txInfo"`
	FeeInfo struct{}      `json:"feeInfo"`
	Coin    string        `json:"coin"`
}

// OfflineTxInfo carries the unspent descriptors of an offline vault
// export.
type OfflineTxInfo struct {
	Unspents []OfflineUnspent `json:"unspents"`
}

// OfflineUnspent describes one swept output for offline signing.
type OfflineUnspent struct {
	Chain         uint32 `json:"chain"`
	Index         uint32 `json:"index"`
	RedeemScript  string `json:"redeemScript,omitempty"`
	WitnessScript string `json:"witnessScript,omitempty"`
	Value         int64  `json:"value"`
}

// newOfflineVault renders the unsigned sweep in the offline-vault
// format.
func newOfflineVault(txHex string, unspents []wallet.Unspent,
	coin string) *OfflineVault {

	vault := &OfflineVault{TxHex: txHex, Coin: coin}
	for _, u := range unspents {
		vault.TxInfo.Unspents = append(vault.TxInfo.Unspents, OfflineUnspent{
			Chain:         u.Chain,
			Index:         u.Index,
			RedeemScript:  hex.EncodeToString(u.RedeemScript),
			WitnessScript: hex.EncodeToString(u.WitnessScript),
			Value:         u.Value,
		})
	}
	return vault
}

// ParseChainPath extracts the chain and index from a leaf derivation
// path of the canonical m/0/0/chain/index form.
func ParseChainPath(path string) (chain, index uint32, err error) {
	parts := strings.Split(path, "/")
	if len(parts) != 5 || parts[0] != "m" {
		return 0, 0, fmt.Errorf("malformed chain path %q", path)
	}
	chain64, err := strconv.ParseUint(parts[3], 10, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("malformed chain in path %q: %w", path, err)
	}
	index64, err := strconv.ParseUint(parts[4], 10, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("malformed index in path %q: %w", path, err)
	}
	return uint32(chain64), uint32(index64), nil
}

// Copyright (c) 2025 The covault developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package coinparams

import "fmt"

// AddressType identifies the script class a wallet address belongs to.
type AddressType int

const (
	// P2SH is a pay-to-script-hash address wrapping a bare multisig
	// program.
	P2SH AddressType = iota

	// P2SHP2WSH is a pay-to-script-hash address wrapping a segwit
	// witness script hash program.
	P2SHP2WSH

	// P2WSH is a native segwit pay-to-witness-script-hash address.
	P2WSH
)

// String returns the AddressType as a human-readable name.
func (t AddressType) String() string {
	switch t {
	case P2SH:
		return "p2sh"
	case P2SHP2WSH:
		return "p2shP2wsh"
	case P2WSH:
		return "p2wsh"
	}
	return fmt.Sprintf("unknown address type %d", int(t))
}

// AddressTypes lists every supported address type, ordered by chain code.
var AddressTypes = []AddressType{P2SH, P2SHP2WSH, P2WSH}

// Derivation chain codes.  Each address type owns a pair of chains, one
// for deposit addresses and one for change.  The type is recoverable from
// a chain code as (chain % 10 selects deposit/change, chain / 10 selects
// the type).
const (
	chainStride = 10

	// ExternalChain and InternalChain are the chain codes of the legacy
	// P2SH address type.
	ExternalChain uint32 = 0
	InternalChain uint32 = 1
)

// ChainForType returns the derivation chain code for the given address
// type.  Change addresses live on the odd chain of the pair.
func ChainForType(addrType AddressType, change bool) uint32 {
	chain := uint32(addrType) * chainStride
	if change {
		chain++
	}
	return chain
}

// TypeForChain maps a derivation chain code back to its address type.  An
// error is returned for chain codes outside the known pairs.
func TypeForChain(chain uint32) (AddressType, error) {
	if chain%chainStride > 1 || chain/chainStride > uint32(P2WSH) {
		return 0, fmt.Errorf("chain %d does not map to a known address type", chain)
	}
	return AddressType(chain / chainStride), nil
}

// IsChangeChain reports whether the chain code denotes the change chain
// of its address type pair.
func IsChangeChain(chain uint32) bool {
	return chain%chainStride == 1
}

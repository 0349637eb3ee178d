// Copyright (c) 2025 The covault developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import (
	"github.com/covault/utxowallet/address"
	"github.com/covault/utxowallet/keychain"
)

// Recipient is a single user-requested payment.  Recipients are matched
// against prebuild outputs as a multiset keyed on (address, amount), so
// the same pair may appear more than once.
type Recipient struct {
	Address string
	Amount  int64
}

// TxParams captures the user's intent for a transaction.
type TxParams struct {
	Recipients []Recipient

	// ChangeAddress optionally names a custom change address supplied
	// by the user.  Outputs paying it are never counted as external
	// even when their derivation cannot be proven.
	ChangeAddress string

	// WalletPassphrase unlocks the user keychain's encrypted private
	// key during keychain integrity verification.
	WalletPassphrase []byte
}

// Unspent is a wallet output referenced by a prebuild input.  The
// witness script is present exactly for segwit types, the redeem script
// exactly for P2SH classes.
type Unspent struct {
	TxID    string
	Vout    uint32
	Value   int64
	Address string
	Chain   uint32
	Index   uint32

	RedeemScript  []byte
	WitnessScript []byte
}

// AddressRecord is the wallet's record of one of its addresses.  Chain
// and Index are pointers because records assembled from partial sources
// may lack them; address verification fails such records with a
// distinct error so the parser can apply its carve-outs.
type AddressRecord struct {
	Address      string
	Chain        *uint32
	Index        *uint32
	CoinSpecific *address.CoinSpecific
}

// RecordFromAddress converts a fully-derived address into a record.
func RecordFromAddress(addr *address.Address) *AddressRecord {
	chain, index := addr.Chain, addr.Index
	return &AddressRecord{
		Address:      addr.Address,
		Chain:        &chain,
		Index:        &index,
		CoinSpecific: addr.CoinSpecific,
	}
}

// merge overlays other on top of r field by field, mirroring how
// verification-supplied records override prebuild-supplied ones.
func (r *AddressRecord) merge(other *AddressRecord) *AddressRecord {
	if r == nil {
		return other
	}
	if other == nil {
		return r
	}
	merged := *r
	if other.Chain != nil {
		merged.Chain = other.Chain
	}
	if other.Index != nil {
		merged.Index = other.Index
	}
	if other.CoinSpecific != nil {
		merged.CoinSpecific = other.CoinSpecific
	}
	return &merged
}

// TxInfo is the supporting material a prebuild travels with.
type TxInfo struct {
	Unspents []Unspent

	// TxHexes maps a previous transaction id to its raw hex, letting
	// input amounts be validated without touching the network.
	TxHexes map[string]string

	// WalletAddressDetails maps an output address to the wallet's
	// record of it.
	WalletAddressDetails map[string]*AddressRecord

	// ChangeAddresses lists the addresses the server claims are change
	// outputs.  The claim is advisory; every output is re-verified.
	ChangeAddresses []string
}

// TxPrebuild is a server-proposed transaction awaiting independent
// verification.
type TxPrebuild struct {
	TxHex  string
	TxInfo TxInfo
}

// Output is a decoded transaction output with its classification.
type Output struct {
	Address string
	Amount  int64

	// External is true when the output could not be proven to pay a
	// wallet-owned address.
	External bool
}

// WalletInfo identifies the wallet a prebuild spends from.
type WalletInfo struct {
	ID string

	// KeychainIDs names the user, backup and platform keychains in
	// their fixed order.
	KeychainIDs [3]string

	// KeySignatures carries the user-key signatures over the secondary
	// public keys, when the wallet has them.
	KeySignatures *keychain.KeySignatures

	// MigratedFrom names the base address of a legacy wallet this one
	// was migrated from.  Outputs paying it are wallet-owned even
	// though they cannot be rederived.
	MigratedFrom string
}

// VerificationOptions lets a caller supply out-of-band material so that
// parsing can proceed without collaborator calls.
type VerificationOptions struct {
	// Keychains overrides the keychain fetch.
	Keychains *keychain.Triple

	// Addresses supplements the wallet address details of the
	// prebuild; entries here override the prebuild's own records.
	Addresses map[string]*AddressRecord

	// DisableNetworking forbids all collaborator calls.  Parsing fails
	// when no keychains were supplied; an output address with no local
	// record is classified external instead of being looked up.
	DisableNetworking bool
}

// ParsedTransaction is the verdict of the prebuild parser: every output
// classified, the user's intent diffed against the prebuild, and the
// external spend totals the verifier enforces limits on.
type ParsedTransaction struct {
	Keychains     keychain.Triple
	KeySignatures *keychain.KeySignatures

	Outputs        []Output
	MissingOutputs []Recipient

	ExplicitExternalOutputs []Output
	ImplicitExternalOutputs []Output
	ChangeOutputs           []Output

	ExplicitExternalSpendAmount int64
	ImplicitExternalSpendAmount int64
}

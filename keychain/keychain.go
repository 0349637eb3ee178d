// Copyright (c) 2025 The covault developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package keychain models the fixed user/backup/platform key triple a
// multisig wallet is built from and provides BIP32 derivation along the
// wallet's canonical path.
package keychain

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
)

// Derivation path constants.  Leaf keys live at m/0/0/chain/index; the
// base key at m/0/0 is used when scanning chains during recovery.
const (
	purposeIndex = 0
	accountIndex = 0
)

// KeySignatures carries the signatures the user key produced over the
// backup and platform public keys when the wallet was created.
type KeySignatures struct {
	// BackupPub is the base64 encoded signed-message signature over the
	// backup keychain's extended public key string.
	BackupPub string

	// BitGoPub is the base64 encoded signed-message signature over the
	// platform keychain's extended public key string.
	BitGoPub string
}

// Keychain is one of the three extended keys backing a multisig wallet.
// Prv is only populated for keys the caller holds; EncryptedPrv carries
// the passphrase-encrypted private key when it is held in escrow.
type Keychain struct {
	ID           string
	Pub          string
	Prv          string
	EncryptedPrv []byte
	Signatures   *KeySignatures
}

// HasPrv reports whether the keychain carries a plaintext private key.
func (k *Keychain) HasPrv() bool {
	return k.Prv != ""
}

// Positions of the keychains within a Triple.  The order is fixed by the
// platform and determines the public key order inside every multisig
// program, so it must never be re-sorted.
const (
	UserKeyIndex = iota
	BackupKeyIndex
	BitGoKeyIndex
	numKeychains
)

// Triple is the ordered set of keychains backing a wallet.
type Triple [numKeychains]*Keychain

// NewTriple builds a Triple from the user, backup and platform keychains.
func NewTriple(user, backup, bitgo *Keychain) Triple {
	return Triple{user, backup, bitgo}
}

// User returns the user keychain.
func (t Triple) User() *Keychain { return t[UserKeyIndex] }

// Backup returns the backup keychain.
func (t Triple) Backup() *Keychain { return t[BackupKeyIndex] }

// BitGo returns the platform keychain.
func (t Triple) BitGo() *Keychain { return t[BitGoKeyIndex] }

// DeriveBase derives the m/0/0 base key from the given extended key
// string.  Both public and private extended keys are accepted.
func DeriveBase(xkey string) (*hdkeychain.ExtendedKey, error) {
	key, err := hdkeychain.NewKeyFromString(xkey)
	if err != nil {
		return nil, newError(ErrKeyChain, "invalid extended key", err)
	}
	return deriveBase(key)
}

func deriveBase(key *hdkeychain.ExtendedKey) (*hdkeychain.ExtendedKey, error) {
	base := key
	for _, childIndex := range []uint32{purposeIndex, accountIndex} {
		child, err := base.Derive(childIndex)
		if err != nil {
			str := fmt.Sprintf("cannot derive child %d", childIndex)
			return nil, newError(ErrKeyChain, str, err)
		}
		base = child
	}
	return base, nil
}

// DeriveLeaf derives the leaf key at m/0/0/chain/index from the given
// extended key string.
func DeriveLeaf(xkey string, chain, index uint32) (*hdkeychain.ExtendedKey, error) {
	base, err := DeriveBase(xkey)
	if err != nil {
		return nil, err
	}
	return DeriveLeafFromBase(base, chain, index)
}

// DeriveLeafFromBase derives the chain/index leaf below an already
// derived m/0/0 base key.  Recovery scans use this to avoid re-deriving
// the base for every index.
func DeriveLeafFromBase(base *hdkeychain.ExtendedKey, chain, index uint32) (
	*hdkeychain.ExtendedKey, error) {

	chainKey, err := base.Derive(chain)
	if err != nil {
		str := fmt.Sprintf("cannot derive chain %d", chain)
		return nil, newError(ErrKeyChain, str, err)
	}
	leaf, err := chainKey.Derive(index)
	if err != nil {
		str := fmt.Sprintf("cannot derive index %d on chain %d", index, chain)
		return nil, newError(ErrKeyChain, str, err)
	}
	return leaf, nil
}

// LeafPath returns the canonical string form of the leaf derivation path
// for the given chain and index.
func LeafPath(chain, index uint32) string {
	return fmt.Sprintf("m/0/0/%d/%d", chain, index)
}

// PubTriple derives the three compressed leaf public keys of the triple
// at the given chain and index.  The user/backup/platform order of the
// triple is preserved.
func (t Triple) PubTriple(chain, index uint32) ([][]byte, error) {
	pubKeys := make([][]byte, 0, len(t))
	for _, kc := range t {
		leaf, err := DeriveLeaf(kc.Pub, chain, index)
		if err != nil {
			return nil, err
		}
		ecPub, err := leaf.ECPubKey()
		if err != nil {
			return nil, newError(ErrKeyChain, "cannot obtain leaf pubkey", err)
		}
		pubKeys = append(pubKeys, ecPub.SerializeCompressed())
	}
	return pubKeys, nil
}

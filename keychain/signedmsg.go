// Copyright (c) 2025 The covault developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package keychain

import (
	"bytes"
	"encoding/base64"

	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// messageSignatureHeader is the magic prepended to signed messages.  Key
// signatures are always produced and checked with the Bitcoin mainnet
// magic, no matter which coin the wallet lives on.
const messageSignatureHeader = "Bitcoin Signed Message:\n"

// messageHash returns the double-SHA256 digest a signed message commits
// to: varstring(magic) || varstring(message).
func messageHash(message string) []byte {
	var buf bytes.Buffer
	_ = wire.WriteVarString(&buf, 0, messageSignatureHeader)
	_ = wire.WriteVarString(&buf, 0, message)
	return chainhash.DoubleHashB(buf.Bytes())
}

// SigningAddress returns the legacy P2PKH address of the root public key
// of the given extended key.  It is always encoded with the Bitcoin
// mainnet version byte since key signatures are network-agnostic.
func SigningAddress(key *hdkeychain.ExtendedKey) (string, error) {
	ecPub, err := key.ECPubKey()
	if err != nil {
		return "", newError(ErrKeyChain, "cannot obtain signing pubkey", err)
	}
	addr, err := btcutil.NewAddressPubKeyHash(
		btcutil.Hash160(ecPub.SerializeCompressed()),
		&chaincfg.MainNetParams,
	)
	if err != nil {
		return "", newError(ErrKeyChain, "cannot build signing address", err)
	}
	return addr.EncodeAddress(), nil
}

// SignMessage produces a base64 encoded compact signature over message
// using the root private key of the given extended key.
func SignMessage(key *hdkeychain.ExtendedKey, message string) (string, error) {
	if !key.IsPrivate() {
		return "", newError(ErrKeyIsPublic,
			"message signing requires a private key", nil)
	}
	ecPriv, err := key.ECPrivKey()
	if err != nil {
		return "", newError(ErrKeyChain, "cannot obtain signing privkey", err)
	}
	defer ecPriv.Zero()

	sig := ecdsa.SignCompact(ecPriv, messageHash(message), true)
	return base64.StdEncoding.EncodeToString(sig), nil
}

// VerifyMessage checks that the base64 encoded compact signature over
// message recovers to the public key behind the given signing address.
func VerifyMessage(address, signature, message string) error {
	sig, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return newError(ErrBadSignature, "malformed signature encoding", err)
	}

	pub, wasCompressed, err := ecdsa.RecoverCompact(sig, messageHash(message))
	if err != nil {
		return newError(ErrBadSignature, "cannot recover signing key", err)
	}

	var serialized []byte
	if wasCompressed {
		serialized = pub.SerializeCompressed()
	} else {
		serialized = pub.SerializeUncompressed()
	}

	addr, err := btcutil.DecodeAddress(address, &chaincfg.MainNetParams)
	if err != nil {
		return newError(ErrBadSignature, "malformed signing address", err)
	}
	pkh, ok := addr.(*btcutil.AddressPubKeyHash)
	if !ok {
		return newError(ErrBadSignature,
			"signing address is not pay-to-pubkey-hash", nil)
	}
	if !bytes.Equal(btcutil.Hash160(serialized), pkh.Hash160()[:]) {
		return newError(ErrBadSignature,
			"signature does not match signing address", nil)
	}
	return nil
}

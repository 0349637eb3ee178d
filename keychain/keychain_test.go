// Copyright (c) 2025 The covault developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package keychain

import (
	"bytes"
	"testing"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/stretchr/testify/require"
)

// testMaster derives a deterministic master key from the given seed byte.
func testMaster(t *testing.T, seedByte byte) *hdkeychain.ExtendedKey {
	t.Helper()

	seed := bytes.Repeat([]byte{seedByte}, 32)
	master, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	require.NoError(t, err)
	return master
}

// testTriple builds a keychain triple with plaintext user private key and
// public backup/platform keys.
func testTriple(t *testing.T) (Triple, *hdkeychain.ExtendedKey) {
	t.Helper()

	user := testMaster(t, 0x01)
	backup := testMaster(t, 0x02)
	bitgo := testMaster(t, 0x03)

	toPub := func(key *hdkeychain.ExtendedKey) string {
		neutered, err := key.Neuter()
		require.NoError(t, err)
		return neutered.String()
	}

	triple := NewTriple(
		&Keychain{Pub: toPub(user), Prv: user.String()},
		&Keychain{Pub: toPub(backup)},
		&Keychain{Pub: toPub(bitgo)},
	)
	return triple, user
}

// TestDeriveLeaf checks that deriving a leaf from a private key and from
// its neutered counterpart yields the same public key.
func TestDeriveLeaf(t *testing.T) {
	t.Parallel()

	master := testMaster(t, 0x2a)
	neutered, err := master.Neuter()
	require.NoError(t, err)

	prvLeaf, err := DeriveLeaf(master.String(), 11, 7)
	require.NoError(t, err)
	pubLeaf, err := DeriveLeaf(neutered.String(), 11, 7)
	require.NoError(t, err)

	prvPub, err := prvLeaf.ECPubKey()
	require.NoError(t, err)
	pubPub, err := pubLeaf.ECPubKey()
	require.NoError(t, err)
	require.Equal(t, prvPub.SerializeCompressed(), pubPub.SerializeCompressed())

	require.True(t, prvLeaf.IsPrivate())
	require.False(t, pubLeaf.IsPrivate())
}

// TestDeriveLeafFromBase checks that splitting the derivation at the
// m/0/0 base yields the same leaf as the direct path.
func TestDeriveLeafFromBase(t *testing.T) {
	t.Parallel()

	master := testMaster(t, 0x2b)

	base, err := DeriveBase(master.String())
	require.NoError(t, err)
	viaBase, err := DeriveLeafFromBase(base, 20, 3)
	require.NoError(t, err)
	direct, err := DeriveLeaf(master.String(), 20, 3)
	require.NoError(t, err)

	require.Equal(t, direct.String(), viaBase.String())
}

// TestDeriveLeafInvalidKey checks the typed error for malformed keys.
func TestDeriveLeafInvalidKey(t *testing.T) {
	t.Parallel()

	_, err := DeriveLeaf("xprvnotakey", 0, 0)
	require.Error(t, err)

	var kerr Error
	require.ErrorAs(t, err, &kerr)
	require.Equal(t, ErrKeyChain, kerr.ErrorCode)
}

// TestPubTriple checks that the pubkey triple preserves the fixed
// user/backup/platform order.
func TestPubTriple(t *testing.T) {
	t.Parallel()

	triple, _ := testTriple(t)

	pubKeys, err := triple.PubTriple(0, 5)
	require.NoError(t, err)
	require.Len(t, pubKeys, 3)

	for i, kc := range triple {
		leaf, err := DeriveLeaf(kc.Pub, 0, 5)
		require.NoError(t, err)
		ecPub, err := leaf.ECPubKey()
		require.NoError(t, err)
		require.Equal(t, ecPub.SerializeCompressed(), pubKeys[i])
	}
}

// TestLeafPath checks canonical path rendering.
func TestLeafPath(t *testing.T) {
	t.Parallel()

	require.Equal(t, "m/0/0/10/42", LeafPath(10, 42))
}

// TestSignedMessage exercises the sign/verify round-trip and the
// negative paths.
func TestSignedMessage(t *testing.T) {
	t.Parallel()

	user := testMaster(t, 0x07)
	other := testMaster(t, 0x08)

	addr, err := SigningAddress(user)
	require.NoError(t, err)

	const message = "xpub-of-the-backup-keychain"
	sig, err := SignMessage(user, message)
	require.NoError(t, err)

	require.NoError(t, VerifyMessage(addr, sig, message))

	// Tampered message.
	err = VerifyMessage(addr, sig, message+"x")
	require.Error(t, err)

	// Signature by a different key.
	otherSig, err := SignMessage(other, message)
	require.NoError(t, err)
	err = VerifyMessage(addr, otherSig, message)
	require.Error(t, err)

	var kerr Error
	require.ErrorAs(t, err, &kerr)
	require.Equal(t, ErrBadSignature, kerr.ErrorCode)

	// Public keys cannot sign.
	neutered, err := user.Neuter()
	require.NoError(t, err)
	_, err = SignMessage(neutered, message)
	require.ErrorAs(t, err, &kerr)
	require.Equal(t, ErrKeyIsPublic, kerr.ErrorCode)
}

// TestEncryptDecryptPrv checks the passphrase encryption round-trip.
func TestEncryptDecryptPrv(t *testing.T) {
	t.Parallel()

	master := testMaster(t, 0x0c)
	passphrase := []byte("correct horse battery staple")

	encrypted, err := EncryptPrv(master.String(), passphrase)
	require.NoError(t, err)

	decrypted, err := DecryptPrv(encrypted, []byte("correct horse battery staple"))
	require.NoError(t, err)
	require.Equal(t, master.String(), decrypted)

	_, err = DecryptPrv(encrypted, []byte("wrong passphrase"))
	require.Error(t, err)

	_, err = DecryptPrv(encrypted[:1], passphrase)
	require.Error(t, err)
}

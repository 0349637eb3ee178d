// Copyright (c) 2025 The covault developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"

	"github.com/covault/utxowallet/address"
	"github.com/covault/utxowallet/coinparams"
	"github.com/covault/utxowallet/explorer"
	"github.com/covault/utxowallet/keychain"
	"github.com/covault/utxowallet/wallet"
)

// testWallet bundles the deterministic fixtures most wallet tests need.
type testWallet struct {
	masters   [3]*hdkeychain.ExtendedKey
	triple    keychain.Triple
	userPrv   string
	backupPrv string
}

// newTestWallet builds a wallet whose user keychain carries a plaintext
// private key and whose secondary keychains are public.
func newTestWallet(t *testing.T) *testWallet {
	t.Helper()

	tw := &testWallet{}
	keychains := make([]*keychain.Keychain, 3)
	for i := range keychains {
		seed := bytes.Repeat([]byte{byte(i + 0x11)}, 32)
		master, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
		require.NoError(t, err)
		neutered, err := master.Neuter()
		require.NoError(t, err)

		tw.masters[i] = master
		keychains[i] = &keychain.Keychain{Pub: neutered.String()}
	}
	tw.userPrv = tw.masters[0].String()
	tw.backupPrv = tw.masters[1].String()
	keychains[0].Prv = tw.userPrv

	tw.triple = keychain.NewTriple(keychains[0], keychains[1], keychains[2])
	return tw
}

// generate derives a wallet address of the given type at chain/index.
func (tw *testWallet) generate(t *testing.T, addrType coinparams.AddressType,
	chain, index uint32) *address.Address {

	t.Helper()

	generated, err := address.Generate(address.GenerateParams{
		Type:      addrType,
		Keychains: tw.triple,
		Chain:     chain,
		Index:     index,
		Params:    coinparams.BTCMain,
	})
	require.NoError(t, err)
	return generated
}

// keySignatures signs the secondary public keys with the user key.
func (tw *testWallet) keySignatures(t *testing.T) *keychain.KeySignatures {
	t.Helper()

	backupSig, err := keychain.SignMessage(tw.masters[0], tw.triple.Backup().Pub)
	require.NoError(t, err)
	bitgoSig, err := keychain.SignMessage(tw.masters[0], tw.triple.BitGo().Pub)
	require.NoError(t, err)
	return &keychain.KeySignatures{BackupPub: backupSig, BitGoPub: bitgoSig}
}

// externalAddress derives a P2PKH address outside the wallet.
func externalAddress(t *testing.T, seedByte byte) string {
	t.Helper()

	_, pub := btcec.PrivKeyFromBytes(bytes.Repeat([]byte{seedByte}, 32))
	addr, err := btcutil.NewAddressPubKeyHash(
		btcutil.Hash160(pub.SerializeCompressed()), &chaincfg.MainNetParams,
	)
	require.NoError(t, err)
	return addr.EncodeAddress()
}

// outputScriptFor renders the output script paying the given address.
func outputScriptFor(t *testing.T, addr string) []byte {
	t.Helper()

	decoded, err := btcutil.DecodeAddress(addr, &chaincfg.MainNetParams)
	require.NoError(t, err)
	pkScript, err := txscript.PayToAddrScript(decoded)
	require.NoError(t, err)
	return pkScript
}

// encodeTx serializes a transaction to hex.
func encodeTx(t *testing.T, tx *wire.MsgTx) string {
	t.Helper()

	txHex, err := wallet.EncodeTx(tx)
	require.NoError(t, err)
	return txHex
}

// fakeKeychainSource serves keychains from a map.
type fakeKeychainSource map[string]*keychain.Keychain

func (f fakeKeychainSource) Keychain(_ context.Context, id string) (
	*keychain.Keychain, error) {

	kc, ok := f[id]
	if !ok {
		return nil, wallet.ErrWalletAddressNotFound
	}
	return kc, nil
}

// fakeAddressSource serves wallet address records from a map and
// reports everything else as not found.
type fakeAddressSource struct {
	records map[string]*wallet.AddressRecord
	calls   int
}

func (f *fakeAddressSource) WalletAddress(_ context.Context, addr string) (
	*wallet.AddressRecord, error) {

	f.calls++
	if record, ok := f.records[addr]; ok {
		return record, nil
	}
	return nil, wallet.ErrWalletAddressNotFound
}

// fakeExplorer serves canned explorer responses.
type fakeExplorer struct {
	height   int64
	txs      map[string]*explorer.Tx
	info     map[string]*explorer.AddressInfo
	unspents map[string][]explorer.Unspent
}

func (f *fakeExplorer) LatestBlockHeight(context.Context) (int64, error) {
	return f.height, nil
}

func (f *fakeExplorer) Transaction(_ context.Context, txid string) (
	*explorer.Tx, error) {

	tx, ok := f.txs[txid]
	if !ok {
		return nil, &explorer.UnavailableError{Endpoint: txid}
	}
	return tx, nil
}

func (f *fakeExplorer) AddressInfo(_ context.Context, addr string) (
	*explorer.AddressInfo, error) {

	if info, ok := f.info[addr]; ok {
		return info, nil
	}
	return &explorer.AddressInfo{}, nil
}

func (f *fakeExplorer) AddressUnspents(_ context.Context, addr string) (
	[]explorer.Unspent, error) {

	return f.unspents[addr], nil
}

// Copyright (c) 2025 The covault developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package script

import (
	"bytes"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"

	"github.com/covault/utxowallet/coinparams"
)

// testPubKeys derives n deterministic compressed public keys.
func testPubKeys(t *testing.T, n int) [][]byte {
	t.Helper()

	pubKeys := make([][]byte, n)
	for i := 0; i < n; i++ {
		keyBytes := bytes.Repeat([]byte{byte(i + 1)}, 32)
		_, pub := btcec.PrivKeyFromBytes(keyBytes)
		pubKeys[i] = pub.SerializeCompressed()
	}
	return pubKeys
}

// TestMultisig checks program assembly and threshold validation.
func TestMultisig(t *testing.T) {
	t.Parallel()

	pubKeys := testPubKeys(t, 3)

	program, err := Multisig(pubKeys, 2)
	require.NoError(t, err)
	require.Equal(t, txscript.MultiSigTy, txscript.GetScriptClass(program))

	pushes, err := txscript.PushedData(program)
	require.NoError(t, err)
	require.Equal(t, pubKeys, pushes)

	for _, threshold := range []int{0, -1, 4} {
		_, err := Multisig(pubKeys, threshold)
		require.Error(t, err)

		var serr Error
		require.ErrorAs(t, err, &serr)
		require.Equal(t, ErrInvalidThreshold, serr.ErrorCode)
	}
}

// TestForType checks the script set derived for each address type.
func TestForType(t *testing.T) {
	t.Parallel()

	program, err := Multisig(testPubKeys(t, 3), 2)
	require.NoError(t, err)

	t.Run("p2sh", func(t *testing.T) {
		set, err := ForType(coinparams.P2SH, program)
		require.NoError(t, err)
		require.Equal(t, program, set.RedeemScript)
		require.Nil(t, set.WitnessScript)
		require.Equal(t, txscript.ScriptHashTy,
			txscript.GetScriptClass(set.OutputScript))
	})

	t.Run("p2shP2wsh", func(t *testing.T) {
		set, err := ForType(coinparams.P2SHP2WSH, program)
		require.NoError(t, err)
		require.Equal(t, program, set.WitnessScript)
		require.Equal(t, txscript.WitnessV0ScriptHashTy,
			txscript.GetScriptClass(set.RedeemScript))
		require.Equal(t, txscript.ScriptHashTy,
			txscript.GetScriptClass(set.OutputScript))
	})

	t.Run("p2wsh", func(t *testing.T) {
		set, err := ForType(coinparams.P2WSH, program)
		require.NoError(t, err)
		require.Equal(t, program, set.WitnessScript)
		require.Nil(t, set.RedeemScript)
		require.Equal(t, txscript.WitnessV0ScriptHashTy,
			txscript.GetScriptClass(set.OutputScript))
	})

	t.Run("unknown type", func(t *testing.T) {
		_, err := ForType(coinparams.AddressType(99), program)
		var serr Error
		require.ErrorAs(t, err, &serr)
		require.Equal(t, ErrUnsupportedAddressType, serr.ErrorCode)
	})
}

// testTx returns a single-input transaction spending a fake outpoint.
func testTx() *wire.MsgTx {
	tx := wire.NewMsgTx(wire.TxVersion)
	tx.AddTxIn(wire.NewTxIn(&wire.OutPoint{Index: 0}, nil, nil))
	tx.AddTxOut(wire.NewTxOut(10_000, []byte{txscript.OP_TRUE}))
	return tx
}

// TestParseSignatureScript exercises the input decomposition for every
// supported input shape.
func TestParseSignatureScript(t *testing.T) {
	t.Parallel()

	pubKeys := testPubKeys(t, 3)
	program, err := Multisig(pubKeys, 2)
	require.NoError(t, err)

	fakeSig1 := append(bytes.Repeat([]byte{0x30}, 70), byte(txscript.SigHashAll))
	fakeSig2 := append(bytes.Repeat([]byte{0x31}, 70), byte(txscript.SigHashAll))

	t.Run("p2sh multisig", func(t *testing.T) {
		sigScript, err := txscript.NewScriptBuilder().
			AddOp(txscript.OP_0).
			AddData(fakeSig1).
			AddData(fakeSig2).
			AddData(program).
			Script()
		require.NoError(t, err)

		tx := testTx()
		tx.TxIn[0].SignatureScript = sigScript

		parsed, err := ParseSignatureScript(tx, 0)
		require.NoError(t, err)
		require.Equal(t, txscript.ScriptHashTy, parsed.Class)
		require.False(t, parsed.IsSegwit)
		require.Equal(t, [][]byte{fakeSig1, fakeSig2}, parsed.Signatures)
		require.Equal(t, pubKeys, parsed.PublicKeys)
		require.Equal(t, program, parsed.PubScript)
	})

	t.Run("p2pkh", func(t *testing.T) {
		sigScript, err := txscript.NewScriptBuilder().
			AddData(fakeSig1).
			AddData(pubKeys[0]).
			Script()
		require.NoError(t, err)

		tx := testTx()
		tx.TxIn[0].SignatureScript = sigScript

		parsed, err := ParseSignatureScript(tx, 0)
		require.NoError(t, err)
		require.Equal(t, txscript.PubKeyHashTy, parsed.Class)
		require.Equal(t, [][]byte{fakeSig1}, parsed.Signatures)
		require.Equal(t, [][]byte{pubKeys[0]}, parsed.PublicKeys)
		require.Equal(t, txscript.PubKeyHashTy,
			txscript.GetScriptClass(parsed.PubScript))
	})

	t.Run("native p2wsh", func(t *testing.T) {
		tx := testTx()
		tx.TxIn[0].Witness = wire.TxWitness{nil, fakeSig1, program}

		parsed, err := ParseSignatureScript(tx, 0)
		require.NoError(t, err)
		require.Equal(t, txscript.WitnessV0ScriptHashTy, parsed.Class)
		require.True(t, parsed.IsSegwit)
		require.True(t, parsed.IsBech32)
		require.Equal(t, [][]byte{fakeSig1}, parsed.Signatures)
		require.Equal(t, pubKeys, parsed.PublicKeys)
		require.Equal(t, program, parsed.PubScript)
	})

	t.Run("p2sh wrapped p2wsh", func(t *testing.T) {
		set, err := ForType(coinparams.P2SHP2WSH, program)
		require.NoError(t, err)

		sigScript, err := txscript.NewScriptBuilder().
			AddData(set.RedeemScript).
			Script()
		require.NoError(t, err)

		tx := testTx()
		tx.TxIn[0].SignatureScript = sigScript
		tx.TxIn[0].Witness = wire.TxWitness{nil, fakeSig1, fakeSig2, program}

		parsed, err := ParseSignatureScript(tx, 0)
		require.NoError(t, err)
		require.True(t, parsed.IsSegwit)
		require.False(t, parsed.IsBech32)
		require.Equal(t, [][]byte{fakeSig1, fakeSig2}, parsed.Signatures)
		require.Equal(t, program, parsed.PubScript)
	})

	t.Run("empty input", func(t *testing.T) {
		tx := testTx()

		parsed, err := ParseSignatureScript(tx, 0)
		require.NoError(t, err)
		require.Equal(t, txscript.NonStandardTy, parsed.Class)
	})

	t.Run("index out of range", func(t *testing.T) {
		_, err := ParseSignatureScript(testTx(), 3)
		require.Error(t, err)
	})
}

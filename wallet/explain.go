// Copyright (c) 2025 The covault developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import (
	"bytes"
	"encoding/hex"

	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"github.com/covault/utxowallet/coinparams"
)

// Explanation is the structured view of a raw transaction: its outputs
// split into spends and change according to a supplied change address
// set.  The split is tentative; the prebuild parser re-verifies every
// output and its verdict wins on conflict.
type Explanation struct {
	ID            string
	Outputs       []Output
	ChangeOutputs []Output

	// OutputAmount and ChangeAmount total the two output groups.
	OutputAmount int64
	ChangeAmount int64
}

// DecodeTx deserializes a raw transaction from hex.
func DecodeTx(txHex string) (*wire.MsgTx, error) {
	raw, err := hex.DecodeString(txHex)
	if err != nil {
		return nil, newError(ErrTxDecode, "transaction is not valid hex", err)
	}
	tx := wire.NewMsgTx(wire.TxVersion)
	if err := tx.Deserialize(bytes.NewReader(raw)); err != nil {
		return nil, newError(ErrTxDecode, "cannot deserialize transaction", err)
	}
	return tx, nil
}

// EncodeTx serializes a transaction to hex, including any witness data.
func EncodeTx(tx *wire.MsgTx) (string, error) {
	var buf bytes.Buffer
	buf.Grow(tx.SerializeSize())
	if err := tx.Serialize(&buf); err != nil {
		return "", newError(ErrTxDecode, "cannot serialize transaction", err)
	}
	return hex.EncodeToString(buf.Bytes()), nil
}

// Explain decodes a raw transaction and classifies its outputs as spend
// or change by membership in changeAddresses.  Outputs whose scripts do
// not encode an address (e.g. data carriers) are skipped.
func Explain(txHex string, changeAddresses []string,
	params *coinparams.Params) (*Explanation, error) {

	tx, err := DecodeTx(txHex)
	if err != nil {
		return nil, err
	}
	return explainTx(tx, changeAddresses, params)
}

func explainTx(tx *wire.MsgTx, changeAddresses []string,
	params *coinparams.Params) (*Explanation, error) {

	changeSet := make(map[string]struct{}, len(changeAddresses))
	for _, addr := range changeAddresses {
		changeSet[addr] = struct{}{}
	}

	explanation := &Explanation{ID: tx.TxHash().String()}
	for _, txOut := range tx.TxOut {
		addr, ok := outputAddress(txOut.PkScript, params)
		if !ok {
			continue
		}
		output := Output{Address: addr, Amount: txOut.Value}
		if _, isChange := changeSet[addr]; isChange {
			explanation.ChangeOutputs = append(explanation.ChangeOutputs, output)
			explanation.ChangeAmount += output.Amount
		} else {
			explanation.Outputs = append(explanation.Outputs, output)
			explanation.OutputAmount += output.Amount
		}
	}
	return explanation, nil
}

// outputAddress renders the address of an output script, if it has one.
func outputAddress(pkScript []byte, params *coinparams.Params) (string, bool) {
	_, addrs, _, err := txscript.ExtractPkScriptAddrs(pkScript, params.Net)
	if err != nil || len(addrs) != 1 {
		return "", false
	}
	return addrs[0].EncodeAddress(), true
}

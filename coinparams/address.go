// Copyright (c) 2025 The covault developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package coinparams

import (
	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/btcsuite/btcd/btcutil/bech32"
)

// AddressVersion returns the base58check version byte of the given
// address.  An error is returned when the address is not valid base58check.
func AddressVersion(addr string) (byte, error) {
	_, version, err := base58.CheckDecode(addr)
	if err != nil {
		return 0, err
	}
	return version, nil
}

// IsValidAddress reports whether addr is a well-formed address on the
// network described by p.  Base58 addresses must decode to a 20 byte hash
// under one of the network's version bytes; the alternate script hash
// version is accepted only when the network supports it and the caller
// opts in via allowAlt.  Bech32 addresses must carry the network HRP and
// a version 0 witness program of standard length.
func IsValidAddress(p *Params, addr string, allowAlt bool) bool {
	if decoded, version, err := base58.CheckDecode(addr); err == nil {
		if len(decoded) != 20 {
			return false
		}
		if version == p.Net.PubKeyHashAddrID ||
			version == p.Net.ScriptHashAddrID {

			return true
		}
		return allowAlt && p.SupportsAltScriptDest &&
			p.HasAltScriptHash && version == p.AltScriptHashVersion
	}

	hrp, data, err := bech32.Decode(addr)
	if err != nil || hrp != p.Net.Bech32HRPSegwit || len(data) < 1 {
		return false
	}
	if data[0] != 0 {
		return false
	}
	program, err := bech32.ConvertBits(data[1:], 5, 8, false)
	if err != nil {
		return false
	}
	return len(program) == 20 || len(program) == 32
}

// Copyright (c) 2025 The covault developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package coinparams

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestIsValidAddress exercises the base58 and bech32 validity rules,
// including the Litecoin legacy script hash version opt-in.
func TestIsValidAddress(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		params   *Params
		addr     string
		allowAlt bool
		valid    bool
	}{{
		name:   "btc p2sh",
		params: BTCMain,
		addr:   "3P14159f73E4gFr7JterCCQh9QjiTjiZrG",
		valid:  true,
	}, {
		name:   "btc p2sh bad checksum",
		params: BTCMain,
		addr:   "3P14159f73E4gFr7JterCCQh9QjiTjiZrR",
		valid:  false,
	}, {
		name:   "btc p2pkh",
		params: BTCMain,
		addr:   "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa",
		valid:  true,
	}, {
		name:   "ltc legacy script hash rejected by default",
		params: LTCMain,
		addr:   "3Ps3MeHaYm2s5WPsRo1kHkCvS8EFawzG7Q",
		valid:  false,
	}, {
		name:     "ltc legacy script hash allowed on opt-in",
		params:   LTCMain,
		addr:     "3Ps3MeHaYm2s5WPsRo1kHkCvS8EFawzG7Q",
		allowAlt: true,
		valid:    true,
	}, {
		name:   "tltc script hash",
		params: LTCTest,
		addr:   "QeKCcxtfqprzZsWZihRgxJk2QJrrLMjS4c",
		valid:  true,
	}, {
		name:   "tltc script hash bad checksum",
		params: LTCTest,
		addr:   "QeKCcxtfqprzZsWZihRgxJk2QJrrLMjS4s",
		valid:  false,
	}, {
		name:   "btc address on tltc",
		params: LTCTest,
		addr:   "3P14159f73E4gFr7JterCCQh9QjiTjiZrG",
		valid:  false,
	}, {
		name:   "bech32 p2wsh",
		params: BTCMain,
		addr: "bc1qrp33g0q5c5txsp9arysrx4k6zdkfs4nce4xj0gdcccefvpysxf3" +
			"qccfmv3",
		valid: true,
	}, {
		name:   "bech32 wrong hrp",
		params: LTCMain,
		addr: "bc1qrp33g0q5c5txsp9arysrx4k6zdkfs4nce4xj0gdcccefvpysxf3" +
			"qccfmv3",
		valid: false,
	}}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			valid := IsValidAddress(test.params, test.addr, test.allowAlt)
			require.Equal(t, test.valid, valid)
		})
	}
}

// TestChainTable checks the address type to derivation chain mapping in
// both directions.
func TestChainTable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		addrType AddressType
		main     uint32
		change   uint32
	}{
		{P2SH, 0, 1},
		{P2SHP2WSH, 10, 11},
		{P2WSH, 20, 21},
	}

	for _, test := range tests {
		require.Equal(t, test.main, ChainForType(test.addrType, false))
		require.Equal(t, test.change, ChainForType(test.addrType, true))

		for _, chain := range []uint32{test.main, test.change} {
			addrType, err := TypeForChain(chain)
			require.NoError(t, err)
			require.Equal(t, test.addrType, addrType)
		}

		require.False(t, IsChangeChain(test.main))
		require.True(t, IsChangeChain(test.change))
	}

	for _, chain := range []uint32{2, 9, 15, 22, 30} {
		_, err := TypeForChain(chain)
		require.Error(t, err)
	}
}

// TestAddressVersion checks version byte extraction against the known
// network constants.
func TestAddressVersion(t *testing.T) {
	t.Parallel()

	version, err := AddressVersion("3P14159f73E4gFr7JterCCQh9QjiTjiZrG")
	require.NoError(t, err)
	require.Equal(t, BTCMain.Net.ScriptHashAddrID, version)

	_, err = AddressVersion("not an address")
	require.Error(t, err)
}

// Copyright (c) 2025 The covault developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package explorer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/covault/utxowallet/reqid"
)

// TestClientEndpoints checks path construction, request id propagation
// and response decoding for every endpoint.
func TestClientEndpoints(t *testing.T) {
	t.Parallel()

	var gotReqID atomic.Value
	server := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			gotReqID.Store(r.Header.Get("X-Request-Id"))

			switch r.URL.Path {
			case "/public/block/latest":
				fmt.Fprint(w, `{"height": 810000}`)
			case "/public/tx/deadbeef":
				fmt.Fprint(w, `{"id": "deadbeef", "outputs": [`+
					`{"address": "addr1", "value": 5000},`+
					`{"address": "addr2", "value": 7000}]}`)
			case "/public/btc/addr/addr1/info":
				fmt.Fprint(w, `{"txCount": 3, "totalBalance": 12000}`)
			case "/public/btc/addr/addr1/unspents":
				fmt.Fprint(w, `[{"txid": "deadbeef", "vout": 0, `+
					`"value": 5000, "address": "addr1"}]`)
			default:
				http.NotFound(w, r)
			}
		}))
	defer server.Close()

	client := NewClient(server.URL, "btc")
	ctx := reqid.WithContext(context.Background(), "req-7")

	height, err := client.LatestBlockHeight(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 810000, height)
	require.Equal(t, "req-7", gotReqID.Load())

	tx, err := client.Transaction(ctx, "deadbeef")
	require.NoError(t, err)
	require.Equal(t, "deadbeef", tx.ID)
	require.Len(t, tx.Outputs, 2)
	require.EqualValues(t, 5000, tx.Outputs[0].Value)

	info, err := client.AddressInfo(ctx, "addr1")
	require.NoError(t, err)
	require.EqualValues(t, 3, info.TxCount)
	require.EqualValues(t, 12000, info.TotalBalance)

	unspents, err := client.AddressUnspents(ctx, "addr1")
	require.NoError(t, err)
	require.Len(t, unspents, 1)
	require.Equal(t, "deadbeef", unspents[0].TxID)
}

// TestClientRetries checks that transient failures are retried and that
// exhaustion surfaces an UnavailableError.
func TestClientRetries(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) < 3 {
				http.Error(w, "boom", http.StatusBadGateway)
				return
			}
			fmt.Fprint(w, `{"height": 1}`)
		}))
	defer server.Close()

	client := NewClient(server.URL, "btc")

	// Two failures then success fits inside the retry budget.
	height, err := client.LatestBlockHeight(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 1, height)
	require.EqualValues(t, 3, calls.Load())

	// A permanently failing endpoint exhausts retries.
	calls.Store(-100)
	_, err = client.LatestBlockHeight(context.Background())
	require.Error(t, err)

	var unavailable *UnavailableError
	require.True(t, errors.As(err, &unavailable))
}

// Copyright (c) 2025 The covault developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package krs

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// fixedFeed quotes a constant price.
type fixedFeed struct {
	price decimal.Decimal
	err   error
}

func (f *fixedFeed) MarketPriceUSD(context.Context, string) (decimal.Decimal, error) {
	return f.price, f.err
}

// TestCalculateFee checks the flat-USD satoshi conversion including
// the rounding-up behavior.
func TestCalculateFee(t *testing.T) {
	t.Parallel()

	provider, err := Lookup("keyternal")
	require.NoError(t, err)

	// 99 / 33000 * 1e8 is exactly 300000 satoshis.
	fee, err := CalculateFee(context.Background(), provider, "btc",
		&fixedFeed{price: decimal.NewFromInt(33_000)})
	require.NoError(t, err)
	require.EqualValues(t, 300_000, fee)

	// 99 / 7000 * 1e8 rounds up to the next satoshi.
	fee, err = CalculateFee(context.Background(), provider, "btc",
		&fixedFeed{price: decimal.NewFromInt(7_000)})
	require.NoError(t, err)
	require.EqualValues(t, 1_414_286, fee)

	// A non-positive price cannot be converted.
	_, err = CalculateFee(context.Background(), provider, "btc",
		&fixedFeed{price: decimal.Zero})
	require.Error(t, err)

	// Feed failures propagate.
	feedErr := errors.New("feed down")
	_, err = CalculateFee(context.Background(), provider, "btc",
		&fixedFeed{err: feedErr})
	require.ErrorIs(t, err, feedErr)
}

// TestCalculateFeeUnknownStructure checks rejection of unimplemented
// fee structures.
func TestCalculateFeeUnknownStructure(t *testing.T) {
	t.Parallel()

	provider := &Provider{
		Name:         "oddball",
		FeeStructure: FeeStructure("percentage"),
	}
	_, err := CalculateFee(context.Background(), provider, "btc",
		&fixedFeed{price: decimal.NewFromInt(1)})
	require.ErrorIs(t, err, ErrFeeStructureNotImplemented)
}

// TestLookup checks the provider directory.
func TestLookup(t *testing.T) {
	t.Parallel()

	provider, err := Lookup("keyternal")
	require.NoError(t, err)
	require.True(t, provider.SupportsFamily("btc"))
	require.False(t, provider.SupportsFamily("doge"))

	_, err = Lookup("nobody")
	require.ErrorIs(t, err, ErrUnknownProvider)
}

// TestHTTPRateFeedRetries checks the two-retry budget of the price
// feed.
func TestHTTPRateFeedRetries(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/market/price/btc", r.URL.Path)
			if calls.Add(1) < 3 {
				http.Error(w, "down", http.StatusServiceUnavailable)
				return
			}
			fmt.Fprint(w, `{"usd": "65000.25"}`)
		}))
	defer server.Close()

	feed := NewHTTPRateFeed(server.URL)
	price, err := feed.MarketPriceUSD(context.Background(), "btc")
	require.NoError(t, err)
	require.True(t, price.Equal(decimal.RequireFromString("65000.25")))

	// A persistent failure exhausts the retry budget.
	calls.Store(-100)
	_, err = feed.MarketPriceUSD(context.Background(), "btc")
	require.Error(t, err)
}

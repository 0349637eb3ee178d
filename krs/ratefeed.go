// Copyright (c) 2025 The covault developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package krs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// priceFeedRetries is how many times a failed price request is
	// retried.
	priceFeedRetries = 2

	priceFeedBackoff = 500 * time.Millisecond
	priceFeedTimeout = 15 * time.Second
)

// HTTPRateFeed quotes market prices from a REST price endpoint.
type HTTPRateFeed struct {
	baseURL    string
	httpClient *http.Client
}

// A compile-time check that HTTPRateFeed implements RateFeed.
var _ RateFeed = (*HTTPRateFeed)(nil)

// NewHTTPRateFeed returns a price feed rooted at baseURL.
func NewHTTPRateFeed(baseURL string) *HTTPRateFeed {
	return &HTTPRateFeed{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: priceFeedTimeout},
	}
}

// MarketPriceUSD returns the current price of one coin of the given
// family in US dollars.
func (f *HTTPRateFeed) MarketPriceUSD(ctx context.Context, family string) (
	decimal.Decimal, error) {

	endpoint := fmt.Sprintf("%s/market/price/%s", f.baseURL, family)

	var lastErr error
	for attempt := 0; attempt <= priceFeedRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(priceFeedBackoff):
			case <-ctx.Done():
				return decimal.Zero, ctx.Err()
			}
		}

		price, err := f.fetch(ctx, endpoint)
		if err == nil {
			return price, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return decimal.Zero, ctx.Err()
		}
	}
	return decimal.Zero, fmt.Errorf("market price unavailable: %w", lastErr)
}

func (f *HTTPRateFeed) fetch(ctx context.Context, endpoint string) (
	decimal.Decimal, error) {

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return decimal.Zero, err
	}
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return decimal.Zero, fmt.Errorf("unexpected status %d: %s",
			resp.StatusCode, body)
	}

	var payload struct {
		USD decimal.Decimal `json:"usd"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return decimal.Zero, err
	}
	return payload.USD, nil
}

// Copyright (c) 2025 The covault developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package explorer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/covault/utxowallet/reqid"
)

const (
	// defaultRetries is how many times a failed request is retried
	// before the client reports the explorer unavailable.
	defaultRetries = 2

	// retryBackoff is the pause between retries.
	retryBackoff = 500 * time.Millisecond

	defaultTimeout = 30 * time.Second
)

// Client is a REST JSON block-explorer client implementing Source.
type Client struct {
	baseURL    string
	coin       string
	httpClient *http.Client
	retries    int
}

// A compile-time check that Client implements Source.
var _ Source = (*Client)(nil)

// NewClient returns a client rooted at baseURL.  The coin ticker selects
// the per-coin address endpoints.
func NewClient(baseURL, coin string) *Client {
	return &Client{
		baseURL:    baseURL,
		coin:       coin,
		httpClient: &http.Client{Timeout: defaultTimeout},
		retries:    defaultRetries,
	}
}

// LatestBlockHeight returns the current chain tip height.
func (c *Client) LatestBlockHeight(ctx context.Context) (int64, error) {
	var resp struct {
		Height int64 `json:"height"`
	}
	if err := c.get(ctx, "/public/block/latest", &resp); err != nil {
		return 0, err
	}
	return resp.Height, nil
}

// Transaction returns the transaction with the given id.
func (c *Client) Transaction(ctx context.Context, txid string) (*Tx, error) {
	var resp Tx
	path := "/public/tx/" + url.PathEscape(txid)
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	if resp.ID == "" {
		resp.ID = txid
	}
	return &resp, nil
}

// AddressInfo returns the usage summary of an address.
func (c *Client) AddressInfo(ctx context.Context, address string) (*AddressInfo, error) {
	var resp AddressInfo
	path := fmt.Sprintf("/public/%s/addr/%s/info", c.coin, url.PathEscape(address))
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// AddressUnspents returns the unspent outputs of an address.
func (c *Client) AddressUnspents(ctx context.Context, address string) ([]Unspent, error) {
	var resp []Unspent
	path := fmt.Sprintf("/public/%s/addr/%s/unspents", c.coin, url.PathEscape(address))
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// get performs a GET against path, retrying transient failures, and
// decodes the JSON response body into out.
func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	endpoint := c.baseURL + path

	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			log.Debugf("Retrying explorer request %s (attempt %d): %v",
				path, attempt, lastErr)
			select {
			case <-time.After(retryBackoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		lastErr = c.getOnce(ctx, endpoint, out)
		if lastErr == nil {
			return nil
		}
		// Context errors are not retried; the caller has gone away.
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}

	return &UnavailableError{Endpoint: endpoint, Err: lastErr}
}

func (c *Client) getOnce(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	if id := reqid.FromContext(ctx); id != "" {
		req.Header.Set("X-Request-Id", id)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, body)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

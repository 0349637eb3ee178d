// Copyright (c) 2025 The covault developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package krs describes the key recovery service providers a wallet's
// backup key may be held by, and converts their recovery fees into
// satoshis.
package krs

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrUnknownProvider is returned when a provider name is not in the
// directory.
var ErrUnknownProvider = errors.New("unknown key recovery service provider")

// ErrFeeStructureNotImplemented is returned for providers whose fee
// structure the fee calculator does not support.
var ErrFeeStructureNotImplemented = errors.New(
	"key recovery service fee structure not implemented")

// FeeStructure names how a provider charges for recoveries.
type FeeStructure string

// FlatUSD is a fixed per-recovery fee denominated in US dollars.  It is
// the only structure the fee calculator implements.
const FlatUSD FeeStructure = "flatUsd"

// Provider is one entry of the key recovery service directory.
type Provider struct {
	Name string

	// SupportedFamilies lists the coin families the provider custodies
	// backup keys for.
	SupportedFamilies []string

	// FeeAddresses maps a coin family to the address the provider's
	// recovery fee is paid to.
	FeeAddresses map[string]string

	FeeStructure FeeStructure
	FeeUSD       decimal.Decimal
}

// SupportsFamily reports whether the provider serves the given coin
// family.
func (p *Provider) SupportsFamily(family string) bool {
	for _, supported := range p.SupportedFamilies {
		if supported == family {
			return true
		}
	}
	return false
}

// FeeAddress returns the provider's fee address for a coin family.
func (p *Provider) FeeAddress(family string) (string, error) {
	addr, ok := p.FeeAddresses[family]
	if !ok {
		return "", fmt.Errorf("provider %s has no fee address for %s",
			p.Name, family)
	}
	return addr, nil
}

// providers is the built-in directory.
var providers = map[string]*Provider{
	// Fee addresses are rotated by the providers and configured at
	// deploy time rather than baked in.
	"keyternal": {
		Name:              "keyternal",
		SupportedFamilies: []string{"btc", "ltc"},
		FeeAddresses:      map[string]string{},
		FeeStructure:      FlatUSD,
		FeeUSD:            decimal.NewFromInt(99),
	},
	"coincover": {
		Name:              "coincover",
		SupportedFamilies: []string{"btc", "ltc"},
		FeeAddresses:      map[string]string{},
		FeeStructure:      FlatUSD,
		FeeUSD:            decimal.NewFromInt(50),
	},
}

// Lookup returns the provider with the given name.
func Lookup(name string) (*Provider, error) {
	provider, ok := providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, name)
	}
	return provider, nil
}

// RateFeed quotes the market price of a coin family in US dollars.
type RateFeed interface {
	MarketPriceUSD(ctx context.Context, family string) (decimal.Decimal, error)
}

// baseFactor converts whole coins to base units.
var baseFactor = decimal.NewFromInt(1e8)

// CalculateFee converts the provider's recovery fee into satoshis at
// the current market price: ceil(feeUsd / priceUsd * 1e8).
func CalculateFee(ctx context.Context, provider *Provider, family string,
	feed RateFeed) (int64, error) {

	if provider.FeeStructure != FlatUSD {
		return 0, fmt.Errorf("%w: %s", ErrFeeStructureNotImplemented,
			provider.FeeStructure)
	}

	price, err := feed.MarketPriceUSD(ctx, family)
	if err != nil {
		return 0, err
	}
	if price.Sign() <= 0 {
		return 0, fmt.Errorf("invalid market price %s for %s", price, family)
	}

	fee := provider.FeeUSD.Div(price).Mul(baseFactor).Ceil()
	return fee.IntPart(), nil
}

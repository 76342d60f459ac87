package model

import "time"

// TVLBreakdown is the instantaneous per-venue TVL summary in the reference
// asset. OmnipoolTokens is the token-amount sum across omnipool positions,
// not a valuation; all fields cover the same set of assets, so the venue
// fields sum to Total.
type TVLBreakdown struct {
	Total          float64 `json:"total"`
	Omnipool       float64 `json:"omnipool"`
	OmnipoolTokens float64 `json:"omnipoolTokens"`
	Stableswap     float64 `json:"stableswap"`
	XYK            float64 `json:"xyk"`
	MoneyMarket    float64 `json:"moneyMarket"`
}

// AssetComposition is one row of the ranked asset-composition list.
type AssetComposition struct {
	Asset      Asset   `json:"asset"`
	Amount     float64 `json:"amount"`
	TVL        float64 `json:"tvl"`
	Percentage float64 `json:"percentage"`
	Venue      Venue   `json:"venue"`
	PoolID     string  `json:"poolId,omitempty"`
	PoolName   string  `json:"poolName,omitempty"`
}

// HistoricalTVLPoint is one sample of the historical TVL series, produced per
// selected block height.
type HistoricalTVLPoint struct {
	Timestamp   time.Time `json:"timestamp"`
	Omnipool    float64   `json:"omnipool"`
	Stableswap  float64   `json:"stableswap"`
	XYK         float64   `json:"xyk"`
	MoneyMarket float64   `json:"moneyMarket"`
	Total       float64   `json:"total"`
	BlockHeight uint64    `json:"blockHeight"`
}

// AssetTVLSeries maps asset ids to their TVL samples in block-height
// ascending order. Series are ragged: an asset only gains a sample for the
// heights it appears at.
type AssetTVLSeries map[string][]float64

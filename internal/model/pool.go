package model

// PoolAssetEntry is one asset's share of a pool snapshot. Amount is the
// normalized token amount. TVL is the reference-asset (USD) value as reported
// by the source; omnipool entries carry TVL 0 and are valued through the
// price table instead.
type PoolAssetEntry struct {
	AssetID string  `json:"assetId"`
	Amount  float64 `json:"amount"`
	TVL     float64 `json:"tvl"`
}

// PoolSnapshot is one venue pool's state observed at a block height,
// reshaped into the common per-pool, per-asset record.
type PoolSnapshot struct {
	Venue       Venue            `json:"venue"`
	PoolID      string           `json:"poolId"`
	PoolName    string           `json:"poolName,omitempty"`
	Assets      []PoolAssetEntry `json:"assets"`
	TVL         float64          `json:"tvl"`
	BlockHeight uint64           `json:"blockHeight"`
}

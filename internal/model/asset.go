package model

import "encoding/json"

// Asset kinds as reported by the indexers.
const (
	KindToken      = "Token"
	KindErc20      = "Erc20"
	KindShareToken = "ShareToken"
)

// Asset is an identity record in the in-memory asset registry. RegistryID is
// the alternate identifier used by the price-oracle source; it may differ
// from the native chain id.
type Asset struct {
	ID         string `json:"id"`
	RegistryID string `json:"registryId,omitempty"`
	Name       string `json:"name"`
	Symbol     string `json:"symbol"`
	Decimals   int32  `json:"decimals"`
	Kind       string `json:"kind,omitempty"`
}

// PriceTable maps asset identifiers (either scheme) to a USD unit price
// observed at one block height.
type PriceTable map[string]float64

// RawBalances is the tagged on-chain balance record:
// {t: "AccountBalances", d: [free, reserved, miscFrozen, feeFrozen, ...]}
// with each element an integer-like decimal string.
type RawBalances struct {
	T string   `json:"t"`
	D []string `json:"d"`
}

// BalancesTag is the only tagged-record shape the normalizer understands.
const BalancesTag = "AccountBalances"

// UnmarshalRawBalances decodes the raw balances payload, tolerating any shape.
// A payload that does not match the tagged record yields a zero RawBalances.
func UnmarshalRawBalances(data []byte) RawBalances {
	var raw RawBalances
	if err := json.Unmarshal(data, &raw); err != nil {
		return RawBalances{}
	}
	return raw
}

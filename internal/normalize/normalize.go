// Package normalize converts raw on-chain integer balances into token
// amounts and token amounts into reference-asset (USD) value.
package normalize

import (
	"github.com/shopspring/decimal"

	"github.com/jak-pan/hydration-stats/internal/model"
)

// TokenAmount converts a tagged raw-balance record into a token amount:
// (free + reserved) / 10^decimals. Upstream schema drift is expected, so any
// shape the function does not recognize yields exactly 0 rather than an
// error: wrong tag, no balance array, or digits that do not parse. Missing
// array elements count as zero.
func TokenAmount(raw model.RawBalances, decimals int32) float64 {
	if raw.T != model.BalancesTag || raw.D == nil {
		return 0
	}

	free, ok := parseField(raw.D, 0)
	if !ok {
		return 0
	}
	reserved, ok := parseField(raw.D, 1)
	if !ok {
		return 0
	}

	total := free.Add(reserved)
	if total.Sign() == 0 {
		return 0
	}
	amount, _ := total.Shift(-decimals).Float64()
	return amount
}

func parseField(d []string, i int) (decimal.Decimal, bool) {
	if i >= len(d) || d[i] == "" {
		return decimal.Zero, true
	}
	v, err := decimal.NewFromString(d[i])
	if err != nil {
		return decimal.Zero, false
	}
	return v, true
}

// RawAmount converts a bare integer-string balance by the asset's decimal
// scale. Unparseable input yields 0.
func RawAmount(balance string, decimals int32) float64 {
	if balance == "" {
		return 0
	}
	v, err := decimal.NewFromString(balance)
	if err != nil {
		return 0
	}
	amount, _ := v.Shift(-decimals).Float64()
	return amount
}

// ReferenceValue converts a token amount into the reference asset using the
// price table. It never guesses: a missing or non-positive price yields 0.
func ReferenceValue(amount float64, assetID string, prices model.PriceTable) float64 {
	price, ok := prices[assetID]
	if !ok || price <= 0 {
		return 0
	}
	return amount * price
}

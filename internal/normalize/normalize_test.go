package normalize

import (
	"testing"

	"github.com/jak-pan/hydration-stats/internal/model"
)

func TestTokenAmount(t *testing.T) {
	cases := []struct {
		name     string
		raw      model.RawBalances
		decimals int32
		want     float64
	}{
		{
			name:     "free only",
			raw:      model.RawBalances{T: model.BalancesTag, D: []string{"5000000000000", "0"}},
			decimals: 12,
			want:     5,
		},
		{
			name:     "free plus reserved",
			raw:      model.RawBalances{T: model.BalancesTag, D: []string{"1500000", "500000"}},
			decimals: 6,
			want:     2,
		},
		{
			name:     "wrong tag",
			raw:      model.RawBalances{T: "SomethingElse", D: []string{"1000000"}},
			decimals: 6,
			want:     0,
		},
		{
			name:     "nil balance array",
			raw:      model.RawBalances{T: model.BalancesTag},
			decimals: 6,
			want:     0,
		},
		{
			name:     "unparseable digits",
			raw:      model.RawBalances{T: model.BalancesTag, D: []string{"not-a-number", "0"}},
			decimals: 6,
			want:     0,
		},
		{
			name:     "missing reserved element",
			raw:      model.RawBalances{T: model.BalancesTag, D: []string{"3000000"}},
			decimals: 6,
			want:     3,
		},
		{
			name:     "zero balances",
			raw:      model.RawBalances{T: model.BalancesTag, D: []string{"0", "0"}},
			decimals: 12,
			want:     0,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := TokenAmount(tc.raw, tc.decimals)
			if got != tc.want {
				t.Fatalf("TokenAmount = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestRawAmount(t *testing.T) {
	if got := RawAmount("2500000000000", 12); got != 2.5 {
		t.Fatalf("RawAmount = %v, want 2.5", got)
	}
	if got := RawAmount("", 12); got != 0 {
		t.Fatalf("RawAmount empty = %v, want 0", got)
	}
	if got := RawAmount("garbage", 12); got != 0 {
		t.Fatalf("RawAmount garbage = %v, want 0", got)
	}
}

func TestReferenceValue(t *testing.T) {
	prices := model.PriceTable{"5": 2.5, "9": -1}

	if got := ReferenceValue(4, "5", prices); got != 10 {
		t.Fatalf("ReferenceValue = %v, want 10", got)
	}
	if got := ReferenceValue(4, "unknown", prices); got != 0 {
		t.Fatalf("ReferenceValue unknown asset = %v, want 0", got)
	}
	if got := ReferenceValue(4, "9", prices); got != 0 {
		t.Fatalf("ReferenceValue negative price = %v, want 0", got)
	}
}

package model

import (
	"reflect"
	"testing"
)

func TestParseVenue(t *testing.T) {
	for _, name := range []string{"omnipool", "stableswap", "xyk", "moneymarket"} {
		v, err := ParseVenue(name)
		if err != nil {
			t.Fatalf("valid venue %q rejected: %v", name, err)
		}
		if string(v) != name {
			t.Fatalf("venue round trip: %q != %q", v, name)
		}
	}
	if _, err := ParseVenue("lbp"); err == nil {
		t.Fatalf("expected error for unknown venue")
	}
}

func TestUnmarshalRawBalances(t *testing.T) {
	raw := UnmarshalRawBalances([]byte(`{"t":"AccountBalances","d":["100","5","0","0"]}`))
	want := RawBalances{T: BalancesTag, D: []string{"100", "5", "0", "0"}}
	if !reflect.DeepEqual(raw, want) {
		t.Fatalf("decoded %+v, want %+v", raw, want)
	}

	if got := UnmarshalRawBalances([]byte(`not json`)); !reflect.DeepEqual(got, RawBalances{}) {
		t.Fatalf("malformed payload decoded to %+v", got)
	}
	if got := UnmarshalRawBalances([]byte(`{"t":"Other","d":null}`)); got.T != "Other" || got.D != nil {
		t.Fatalf("foreign tag decoded to %+v", got)
	}
}

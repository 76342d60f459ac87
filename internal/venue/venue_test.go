package venue

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jak-pan/hydration-stats/internal/graphql"
	"github.com/jak-pan/hydration-stats/internal/model"
	"github.com/jak-pan/hydration-stats/internal/registry"
)

// gqlStub dispatches canned responses by GraphQL operation name.
func gqlStub(t *testing.T, responses map[string]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Query string `json:"query"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		for op, body := range responses {
			if strings.Contains(req.Query, op) {
				w.Write([]byte(body))
				return
			}
		}
		t.Fatalf("unexpected query: %.120s", req.Query)
	}))
}

func newTestService(t *testing.T, responses map[string]string) (*Service, *registry.Registry) {
	t.Helper()
	srv := gqlStub(t, responses)
	t.Cleanup(srv.Close)
	client := graphql.NewClient(srv.URL, nil, 0, nil)
	reg := registry.New()
	return New(client, client, reg, 10, nil), reg
}

func TestLatestHeight(t *testing.T) {
	s, _ := newTestService(t, map[string]string{
		"GetLatestBlock": `{"data":{"assetHistoricalData":{"nodes":[{"paraBlockHeight":7531902}]}}}`,
	})
	height, err := s.LatestHeight(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if height != 7531902 {
		t.Fatalf("height = %d, want 7531902", height)
	}
}

func TestAssetsFallsBackToGenericEndpoint(t *testing.T) {
	var whaleCalls, genericCalls int
	whale := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		whaleCalls++
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer whale.Close()
	generic := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		genericCalls++
		w.Write([]byte(`{"data":{"assets":{"nodes":[{"id":"5","symbol":"DOT","name":"Polkadot","decimals":10,"assetType":"Token"}]}}}`))
	}))
	defer generic.Close()

	reg := registry.New()
	s := New(
		graphql.NewClient(whale.URL, nil, 0, nil),
		graphql.NewClient(generic.URL, nil, 0, nil),
		reg, 10, nil)

	count, err := s.Assets(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 1 || whaleCalls != 1 || genericCalls != 1 {
		t.Fatalf("count=%d whale=%d generic=%d", count, whaleCalls, genericCalls)
	}
	if a, ok := reg.Get("5"); !ok || a.Symbol != "DOT" || a.Kind != model.KindToken {
		t.Fatalf("asset not registered: %+v", a)
	}
}

func TestOmnipoolSnapshot(t *testing.T) {
	s, reg := newTestService(t, map[string]string{
		"GetOmnipoolFromBlock": `{"data":{"omnipoolAssetHistoricalData":{"nodes":[
			{"assetId":"5","freeBalance":"50000000000","tvlInRefAssetNorm":"1000"},
			{"assetId":"1","freeBalance":"2000000000000","tvlInRefAssetNorm":"2"}
		]}}}`,
	})
	reg.Put(model.Asset{ID: "5", Symbol: "DOT", Decimals: 10})
	reg.Put(model.Asset{ID: "1", Symbol: "H2O", Decimals: 12})

	snaps, err := s.Omnipool(context.Background(), 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(snaps) != 1 {
		t.Fatalf("expected one omnipool snapshot, got %d", len(snaps))
	}
	snap := snaps[0]
	if snap.PoolID != "omnipool" || snap.PoolName != "Omnipool" || snap.BlockHeight != 100 {
		t.Fatalf("snapshot identity: %+v", snap)
	}
	if len(snap.Assets) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(snap.Assets))
	}
	if snap.Assets[0].Amount != 5 {
		t.Fatalf("DOT amount = %v, want 5", snap.Assets[0].Amount)
	}
	if snap.Assets[1].Amount != 2 {
		t.Fatalf("H2O amount = %v, want 2", snap.Assets[1].Amount)
	}
	// Omnipool entries are valued downstream against the price table.
	if snap.Assets[0].TVL != 0 {
		t.Fatalf("omnipool entry carries TVL: %v", snap.Assets[0].TVL)
	}
}

func TestStableswapSnapshot(t *testing.T) {
	s, _ := newTestService(t, map[string]string{
		"GetStablepoolsFromBlock": `{"data":{"stableswapHistoricalData":{"nodes":[{
			"poolId":"100",
			"tvlTotalInRefAssetNorm":"300",
			"pool":{"shareToken":{"id":"100","symbol":"2-Pool","name":"","decimals":18}},
			"stableswapAssetHistoricalDataByPoolHistoricalDataId":{"nodes":[
				{"assetId":"10","freeBalance":"100000000","tvlInRefAssetNorm":"100","asset":{"id":"10","symbol":"USDT","name":"Tether","decimals":6}},
				{"assetId":"21","freeBalance":"200000000","tvlInRefAssetNorm":"200","asset":{"id":"21","symbol":"USDC","name":"USD Coin","decimals":6}}
			]}
		}]}}}`,
	})

	snaps, err := s.Stableswap(context.Background(), 200)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(snaps) != 1 {
		t.Fatalf("expected one pool, got %d", len(snaps))
	}
	snap := snaps[0]
	if snap.TVL != 300 {
		t.Fatalf("pool TVL = %v, want 300", snap.TVL)
	}
	if snap.PoolName != "2-Pool" {
		t.Fatalf("pool name = %q, want share token symbol", snap.PoolName)
	}
	if snap.Assets[0].TVL != 100 || snap.Assets[1].TVL != 200 {
		t.Fatalf("per-asset TVLs: %+v", snap.Assets)
	}
	if snap.Assets[0].Amount != 100 || snap.Assets[1].Amount != 200 {
		t.Fatalf("per-asset amounts: %+v", snap.Assets)
	}
}

func TestXYKSplitsTVLBetweenSides(t *testing.T) {
	s, _ := newTestService(t, map[string]string{
		"GetXYKPoolsFromBlock": `{"data":{"xykpoolHistoricalData":{"nodes":[{
			"poolId":"7LX...abc",
			"assetAId":"5","assetBId":"16",
			"assetABalance":"10000000000","assetBBalance":"50000000000000",
			"tvlInRefAssetNorm":"400",
			"assetA":{"id":"5","symbol":"DOT","name":"Polkadot","decimals":10},
			"assetB":{"id":"16","symbol":"GLMR","name":"Moonbeam","decimals":12}
		}]}}}`,
	})

	snaps, err := s.XYK(context.Background(), 300)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(snaps) != 1 {
		t.Fatalf("expected one pool, got %d", len(snaps))
	}
	snap := snaps[0]
	if snap.TVL != 400 {
		t.Fatalf("pool TVL = %v, want 400", snap.TVL)
	}
	if snap.PoolName != "DOT / GLMR" {
		t.Fatalf("pool name = %q", snap.PoolName)
	}
	for _, entry := range snap.Assets {
		if entry.TVL != 200 {
			t.Fatalf("side %s TVL = %v, want half of pool", entry.AssetID, entry.TVL)
		}
	}
	if snap.Assets[0].Amount != 1 || snap.Assets[1].Amount != 50 {
		t.Fatalf("side amounts: %+v", snap.Assets)
	}
}

func TestMoneyMarketSnapshot(t *testing.T) {
	s, _ := newTestService(t, map[string]string{
		"GetMoneyMarketFromBlock": `{"data":{"aavepoolHistoricalData":{"nodes":[
			{
				"id":"r1","tvlInRefAssetNorm":"150","aTokenTotalSupply":"30000000000","paraBlockHeight":399,
				"pool":{"id":"mm-dot","reserveAsset":{"id":"5","symbol":"DOT","name":"Polkadot","decimals":10}}
			},
			{"id":"r2","tvlInRefAssetNorm":"99","aTokenTotalSupply":"1","paraBlockHeight":399,"pool":null}
		]}}}`,
	})

	snaps, err := s.MoneyMarket(context.Background(), 400)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(snaps) != 1 {
		t.Fatalf("reserve without pool metadata not skipped: %d", len(snaps))
	}
	snap := snaps[0]
	if snap.TVL != 150 || snap.PoolID != "mm-dot" {
		t.Fatalf("snapshot: %+v", snap)
	}
	if snap.PoolName != "DOT Money Market" {
		t.Fatalf("pool name = %q", snap.PoolName)
	}
	if snap.Assets[0].Amount != 3 {
		t.Fatalf("supply amount = %v, want 3", snap.Assets[0].Amount)
	}
	if snap.BlockHeight != 399 {
		t.Fatalf("block height = %d, want the record's own height", snap.BlockHeight)
	}
}

package history

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jak-pan/hydration-stats/internal/graphql"
	"github.com/jak-pan/hydration-stats/internal/model"
)

type omnipoolHistNode struct {
	AssetID           string `json:"assetId"`
	TVLInRefAssetNorm string `json:"tvlInRefAssetNorm"`
	ParaBlockHeight   uint64 `json:"paraBlockHeight"`
}

type stableswapHistNode struct {
	TVLTotalInRefAssetNorm string `json:"tvlTotalInRefAssetNorm"`
	ParaBlockHeight        uint64 `json:"paraBlockHeight"`
	Assets                 graphql.Nodes[struct {
		AssetID           string `json:"assetId"`
		TVLInRefAssetNorm string `json:"tvlInRefAssetNorm"`
	}] `json:"stableswapAssetHistoricalDataByPoolHistoricalDataId"`
}

type xykHistNode struct {
	AssetAID          string `json:"assetAId"`
	AssetBID          string `json:"assetBId"`
	TVLInRefAssetNorm string `json:"tvlInRefAssetNorm"`
	ParaBlockHeight   uint64 `json:"paraBlockHeight"`
}

type moneyMarketHistNode struct {
	TVLInRefAssetNorm string `json:"tvlInRefAssetNorm"`
	ParaBlockHeight   uint64 `json:"paraBlockHeight"`
	Pool              *struct {
		ReserveAsset *struct {
			ID string `json:"id"`
		} `json:"reserveAsset"`
	} `json:"pool"`
}

type venueHistory struct {
	omnipool    []omnipoolHistNode
	stableswap  []stableswapHistNode
	xyk         []xykHistNode
	moneyMarket []moneyMarketHistNode
}

// bulkFetch pulls all four venues' records for the resolved height set in
// parallel. Each request rides the process-wide deduplicator, so a
// concurrent run over the same heights shares the round trips.
func (e *Engine) bulkFetch(ctx context.Context, heights []uint64) (*venueHistory, error) {
	vars := map[string]any{"blockHeights": heights}
	xykVars := map[string]any{
		"blockHeights": heights,
		"minTvl":       fmt.Sprintf("%g", e.minXYKTVL),
	}

	var omnipool struct {
		Data graphql.Nodes[omnipoolHistNode] `json:"omnipoolAssetHistoricalData"`
	}
	var stableswap struct {
		Data graphql.Nodes[stableswapHistNode] `json:"stableswapHistoricalData"`
	}
	var xyk struct {
		Data graphql.Nodes[xykHistNode] `json:"xykpoolHistoricalData"`
	}
	var moneyMarket struct {
		Data graphql.Nodes[moneyMarketHistNode] `json:"aavepoolHistoricalData"`
	}

	var g errgroup.Group
	g.Go(func() error {
		return e.client.Query(ctx, graphql.QueryOmnipoolHistorical, vars, &omnipool)
	})
	g.Go(func() error {
		return e.client.Query(ctx, graphql.QueryStableswapHistorical, vars, &stableswap)
	})
	g.Go(func() error {
		return e.client.Query(ctx, graphql.QueryXYKHistorical, xykVars, &xyk)
	})
	g.Go(func() error {
		return e.client.Query(ctx, graphql.QueryMoneyMarketHistorical, vars, &moneyMarket)
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("bulk fetch: %w", err)
	}

	return &venueHistory{
		omnipool:    omnipool.Data.Nodes,
		stableswap:  stableswap.Data.Nodes,
		xyk:         xyk.Data.Nodes,
		moneyMarket: moneyMarket.Data.Nodes,
	}, nil
}

// blockTotals accumulates one block height's contributions. The omnipool is
// summed twice, once including and once excluding the designated asset;
// every other venue is identical in both variants.
type blockTotals struct {
	omnipool          float64
	omnipoolExcluding float64
	stableswap        float64
	xyk               float64
	moneyMarket       float64
	assetTVL          map[string]float64
}

// merge folds the four venues' records into per-block-height TVL points and
// per-asset series. Venue order is irrelevant: contributions are summed, so
// the merge is commutative across venues.
func (e *Engine) merge(period Period, venues *venueHistory, timestamps map[uint64]time.Time) *Series {
	byHeight := make(map[uint64]*blockTotals)
	totals := func(height uint64) *blockTotals {
		bt, ok := byHeight[height]
		if !ok {
			bt = &blockTotals{assetTVL: make(map[string]float64)}
			byHeight[height] = bt
		}
		return bt
	}

	for _, node := range venues.omnipool {
		tvl := parseFloat(node.TVLInRefAssetNorm)
		bt := totals(node.ParaBlockHeight)
		bt.omnipool += tvl
		if node.AssetID != e.excludedAsset {
			bt.omnipoolExcluding += tvl
		}
		bt.assetTVL[node.AssetID] += tvl
	}

	for _, node := range venues.stableswap {
		bt := totals(node.ParaBlockHeight)
		bt.stableswap += parseFloat(node.TVLTotalInRefAssetNorm)
		for _, assetNode := range node.Assets.Nodes {
			bt.assetTVL[assetNode.AssetID] += parseFloat(assetNode.TVLInRefAssetNorm)
		}
	}

	for _, node := range venues.xyk {
		poolTVL := parseFloat(node.TVLInRefAssetNorm)
		bt := totals(node.ParaBlockHeight)
		bt.xyk += poolTVL
		if node.AssetAID != "" {
			bt.assetTVL[node.AssetAID] += poolTVL / 2
		}
		if node.AssetBID != "" {
			bt.assetTVL[node.AssetBID] += poolTVL / 2
		}
	}

	for _, node := range venues.moneyMarket {
		tvl := parseFloat(node.TVLInRefAssetNorm)
		bt := totals(node.ParaBlockHeight)
		bt.moneyMarket += tvl
		if node.Pool != nil && node.Pool.ReserveAsset != nil {
			bt.assetTVL[node.Pool.ReserveAsset.ID] += tvl
		}
	}

	heights := make([]uint64, 0, len(byHeight))
	for height := range byHeight {
		heights = append(heights, height)
	}
	sort.Slice(heights, func(i, j int) bool { return heights[i] < heights[j] })

	series := &Series{
		Period:               period,
		Points:               make([]model.HistoricalTVLPoint, 0, len(heights)),
		PointsExcluding:      make([]model.HistoricalTVLPoint, 0, len(heights)),
		AssetSeries:          make(model.AssetTVLSeries),
		AssetSeriesExcluding: make(model.AssetTVLSeries),
	}

	for _, height := range heights {
		bt := byHeight[height]
		ts, ok := timestamps[height]
		if !ok {
			ts = e.now()
		}

		series.Points = append(series.Points, model.HistoricalTVLPoint{
			Timestamp:   ts,
			Omnipool:    bt.omnipool,
			Stableswap:  bt.stableswap,
			XYK:         bt.xyk,
			MoneyMarket: bt.moneyMarket,
			Total:       bt.omnipool + bt.stableswap + bt.xyk + bt.moneyMarket,
			BlockHeight: height,
		})
		series.PointsExcluding = append(series.PointsExcluding, model.HistoricalTVLPoint{
			Timestamp:   ts,
			Omnipool:    bt.omnipoolExcluding,
			Stableswap:  bt.stableswap,
			XYK:         bt.xyk,
			MoneyMarket: bt.moneyMarket,
			Total:       bt.omnipoolExcluding + bt.stableswap + bt.xyk + bt.moneyMarket,
			BlockHeight: height,
		})

		for assetID, tvl := range bt.assetTVL {
			series.AssetSeries[assetID] = append(series.AssetSeries[assetID], tvl)
			if assetID != e.excludedAsset {
				series.AssetSeriesExcluding[assetID] = append(series.AssetSeriesExcluding[assetID], tvl)
			}
		}
	}

	return series
}

func parseFloat(raw string) float64 {
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	return v
}

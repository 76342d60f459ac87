package venue

import (
	"context"
	"fmt"

	"github.com/jak-pan/hydration-stats/internal/graphql"
	"github.com/jak-pan/hydration-stats/internal/model"
	"github.com/jak-pan/hydration-stats/internal/normalize"
	"github.com/jak-pan/hydration-stats/internal/registry"
)

type stableswapAssetNode struct {
	AssetID           string    `json:"assetId"`
	FreeBalance       string    `json:"freeBalance"`
	TVLInRefAssetNorm string    `json:"tvlInRefAssetNorm"`
	Asset             *assetRef `json:"asset"`
}

type stableswapNode struct {
	PoolID                 string `json:"poolId"`
	TVLTotalInRefAssetNorm string `json:"tvlTotalInRefAssetNorm"`
	Pool                   *struct {
		ShareToken *assetRef `json:"shareToken"`
	} `json:"pool"`
	Assets graphql.Nodes[stableswapAssetNode] `json:"stableswapAssetHistoricalDataByPoolHistoricalDataId"`
}

type stableswapResponse struct {
	StableswapHistoricalData graphql.Nodes[stableswapNode] `json:"stableswapHistoricalData"`
}

// Stableswap fetches stable-swap pools at the given height (0 means current
// head). Per-asset and pool-level TVL come pre-computed from the source.
func (s *Service) Stableswap(ctx context.Context, height uint64) ([]model.PoolSnapshot, error) {
	height, err := s.resolveHeight(ctx, height)
	if err != nil {
		return nil, err
	}

	var resp stableswapResponse
	err = s.whale.Query(ctx, graphql.QueryStableswapAtBlock, map[string]any{"blockHeight": height}, &resp)
	if err != nil {
		return nil, fmt.Errorf("fetch stableswap: %w", err)
	}

	snapshots := make([]model.PoolSnapshot, 0, len(resp.StableswapHistoricalData.Nodes))
	for _, node := range resp.StableswapHistoricalData.Nodes {
		entries := make([]model.PoolAssetEntry, 0, len(node.Assets.Nodes))
		for _, assetNode := range node.Assets.Nodes {
			if assetNode.Asset != nil {
				s.registry.Put(model.Asset{
					ID:       assetNode.AssetID,
					Name:     assetNode.Asset.Name,
					Symbol:   assetNode.Asset.Symbol,
					Decimals: assetNode.Asset.Decimals,
				})
			}
			asset := s.registry.Resolve(assetNode.AssetID, registry.DefaultEVMDecimals)
			entries = append(entries, model.PoolAssetEntry{
				AssetID: assetNode.AssetID,
				Amount:  normalize.RawAmount(assetNode.FreeBalance, asset.Decimals),
				TVL:     parseTVL(assetNode.TVLInRefAssetNorm),
			})
		}

		name := fmt.Sprintf("Pool %s", node.PoolID)
		if node.Pool != nil && node.Pool.ShareToken != nil {
			if node.Pool.ShareToken.Name != "" {
				name = node.Pool.ShareToken.Name
			} else if node.Pool.ShareToken.Symbol != "" {
				name = node.Pool.ShareToken.Symbol
			}
		}

		snapshots = append(snapshots, model.PoolSnapshot{
			Venue:       model.VenueStableswap,
			PoolID:      node.PoolID,
			PoolName:    name,
			Assets:      entries,
			TVL:         parseTVL(node.TVLTotalInRefAssetNorm),
			BlockHeight: height,
		})
	}
	return snapshots, nil
}

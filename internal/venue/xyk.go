package venue

import (
	"context"
	"fmt"

	"github.com/jak-pan/hydration-stats/internal/graphql"
	"github.com/jak-pan/hydration-stats/internal/model"
	"github.com/jak-pan/hydration-stats/internal/normalize"
	"github.com/jak-pan/hydration-stats/internal/registry"
)

type xykNode struct {
	PoolID            string    `json:"poolId"`
	AssetAID          string    `json:"assetAId"`
	AssetBID          string    `json:"assetBId"`
	AssetABalance     string    `json:"assetABalance"`
	AssetBBalance     string    `json:"assetBBalance"`
	TVLInRefAssetNorm string    `json:"tvlInRefAssetNorm"`
	AssetA            *assetRef `json:"assetA"`
	AssetB            *assetRef `json:"assetB"`
}

type xykResponse struct {
	XYKPoolHistoricalData graphql.Nodes[xykNode] `json:"xykpoolHistoricalData"`
}

// XYK fetches constant-product pools at the given height (0 means current
// head). Pools below the minimum reported TVL are filtered out at the source
// query. Each pool's TVL splits evenly between its two constituent assets.
func (s *Service) XYK(ctx context.Context, height uint64) ([]model.PoolSnapshot, error) {
	height, err := s.resolveHeight(ctx, height)
	if err != nil {
		return nil, err
	}

	var resp xykResponse
	err = s.whale.Query(ctx, graphql.QueryXYKAtBlock, map[string]any{
		"blockHeight": height,
		"minTvl":      fmt.Sprintf("%g", s.minXYKTVL),
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("fetch xyk: %w", err)
	}

	snapshots := make([]model.PoolSnapshot, 0, len(resp.XYKPoolHistoricalData.Nodes))
	for _, node := range resp.XYKPoolHistoricalData.Nodes {
		poolTVL := parseTVL(node.TVLInRefAssetNorm)
		half := poolTVL / 2

		entries := make([]model.PoolAssetEntry, 0, 2)
		for _, side := range []struct {
			id      string
			balance string
			ref     *assetRef
		}{
			{node.AssetAID, node.AssetABalance, node.AssetA},
			{node.AssetBID, node.AssetBBalance, node.AssetB},
		} {
			if side.id == "" {
				continue
			}
			if side.ref != nil {
				s.registry.Put(model.Asset{
					ID:       side.id,
					Name:     side.ref.Name,
					Symbol:   side.ref.Symbol,
					Decimals: side.ref.Decimals,
					Kind:     side.ref.Kind,
				})
			}
			asset := s.registry.Resolve(side.id, registry.DefaultDecimals)
			entries = append(entries, model.PoolAssetEntry{
				AssetID: side.id,
				Amount:  normalize.RawAmount(side.balance, asset.Decimals),
				TVL:     half,
			})
		}

		snapshots = append(snapshots, model.PoolSnapshot{
			Venue:       model.VenueXYK,
			PoolID:      node.PoolID,
			PoolName:    xykPoolName(s.registry, node),
			Assets:      entries,
			TVL:         poolTVL,
			BlockHeight: height,
		})
	}
	return snapshots, nil
}

func xykPoolName(reg *registry.Registry, node xykNode) string {
	symA := reg.Resolve(node.AssetAID, registry.DefaultDecimals).Symbol
	symB := reg.Resolve(node.AssetBID, registry.DefaultDecimals).Symbol
	return fmt.Sprintf("%s / %s", symA, symB)
}

package venue

import (
	"context"
	"fmt"

	"github.com/jak-pan/hydration-stats/internal/graphql"
	"github.com/jak-pan/hydration-stats/internal/model"
	"github.com/jak-pan/hydration-stats/internal/normalize"
	"github.com/jak-pan/hydration-stats/internal/registry"
)

type moneyMarketNode struct {
	ID                string `json:"id"`
	TVLInRefAssetNorm string `json:"tvlInRefAssetNorm"`
	ATokenTotalSupply string `json:"aTokenTotalSupply"`
	ParaBlockHeight   uint64 `json:"paraBlockHeight"`
	Pool              *struct {
		ID           string    `json:"id"`
		ReserveAsset *assetRef `json:"reserveAsset"`
	} `json:"pool"`
}

type moneyMarketResponse struct {
	AavepoolHistoricalData graphql.Nodes[moneyMarketNode] `json:"aavepoolHistoricalData"`
}

// MoneyMarket fetches the lending reserves at or before the given height (0
// means current head), one snapshot per reserve. TVL comes pre-computed; the
// token amount is the yield-bearing token's total supply scaled by the
// reserve asset's decimals.
func (s *Service) MoneyMarket(ctx context.Context, height uint64) ([]model.PoolSnapshot, error) {
	height, err := s.resolveHeight(ctx, height)
	if err != nil {
		return nil, err
	}

	var resp moneyMarketResponse
	err = s.whale.Query(ctx, graphql.QueryMoneyMarketAtBlock, map[string]any{"blockHeight": height}, &resp)
	if err != nil {
		return nil, fmt.Errorf("fetch money market: %w", err)
	}

	snapshots := make([]model.PoolSnapshot, 0, len(resp.AavepoolHistoricalData.Nodes))
	for _, node := range resp.AavepoolHistoricalData.Nodes {
		if node.Pool == nil || node.Pool.ReserveAsset == nil {
			continue
		}
		reserve := node.Pool.ReserveAsset
		s.registry.Put(model.Asset{
			ID:       reserve.ID,
			Name:     reserve.Name,
			Symbol:   reserve.Symbol,
			Decimals: reserve.Decimals,
			Kind:     model.KindToken,
		})

		asset := s.registry.Resolve(reserve.ID, registry.DefaultDecimals)
		tvl := parseTVL(node.TVLInRefAssetNorm)
		snapshots = append(snapshots, model.PoolSnapshot{
			Venue:    model.VenueMoneyMarket,
			PoolID:   node.Pool.ID,
			PoolName: fmt.Sprintf("%s Money Market", asset.Symbol),
			Assets: []model.PoolAssetEntry{{
				AssetID: reserve.ID,
				Amount:  normalize.RawAmount(node.ATokenTotalSupply, asset.Decimals),
				TVL:     tvl,
			}},
			TVL:         tvl,
			BlockHeight: node.ParaBlockHeight,
		})
	}
	return snapshots, nil
}

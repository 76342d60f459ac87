package venue

import (
	"context"
	"fmt"

	"github.com/jak-pan/hydration-stats/internal/graphql"
	"github.com/jak-pan/hydration-stats/internal/model"
	"github.com/jak-pan/hydration-stats/internal/normalize"
	"github.com/jak-pan/hydration-stats/internal/registry"
)

type omnipoolNode struct {
	AssetID           string    `json:"assetId"`
	FreeBalance       string    `json:"freeBalance"`
	TVLInRefAssetNorm string    `json:"tvlInRefAssetNorm"`
	Asset             *assetRef `json:"asset"`
}

type omnipoolResponse struct {
	OmnipoolAssetHistoricalData graphql.Nodes[omnipoolNode] `json:"omnipoolAssetHistoricalData"`
}

// Omnipool fetches the omnipool's per-asset state at the given height (0
// means current head) as a single snapshot with one entry per asset held
// directly by the pool. Entries carry token amounts only; reference value is
// derived downstream through the price table.
func (s *Service) Omnipool(ctx context.Context, height uint64) ([]model.PoolSnapshot, error) {
	height, err := s.resolveHeight(ctx, height)
	if err != nil {
		return nil, err
	}

	var resp omnipoolResponse
	err = s.whale.Query(ctx, graphql.QueryOmnipoolAtBlock, map[string]any{"blockHeight": height}, &resp)
	if err != nil {
		return nil, fmt.Errorf("fetch omnipool: %w", err)
	}

	entries := make([]model.PoolAssetEntry, 0, len(resp.OmnipoolAssetHistoricalData.Nodes))
	for _, node := range resp.OmnipoolAssetHistoricalData.Nodes {
		if registry.IsEVMAssetID(node.AssetID) && node.Asset != nil {
			s.registerEVMAsset(node.AssetID, node.Asset)
		}

		asset := s.registry.Resolve(node.AssetID, registry.DefaultDecimals)
		raw := model.RawBalances{T: model.BalancesTag, D: []string{node.FreeBalance, "0", "0", "0", "0", "0"}}
		entries = append(entries, model.PoolAssetEntry{
			AssetID: node.AssetID,
			Amount:  normalize.TokenAmount(raw, asset.Decimals),
		})
	}

	if len(entries) == 0 {
		return nil, nil
	}
	return []model.PoolSnapshot{{
		Venue:       model.VenueOmnipool,
		PoolID:      "omnipool",
		PoolName:    "Omnipool",
		Assets:      entries,
		BlockHeight: height,
	}}, nil
}

func (s *Service) registerEVMAsset(id string, ref *assetRef) {
	if _, known := s.registry.Get(id); known {
		return
	}
	decimals := ref.Decimals
	if decimals == 0 {
		decimals = registry.DefaultEVMDecimals
	}
	s.registry.Put(model.Asset{
		ID:       id,
		Name:     ref.Name,
		Symbol:   ref.Symbol,
		Decimals: decimals,
		Kind:     model.KindErc20,
	})
}

// Package venue fetches per-venue pool state at a block height and reshapes
// it into the common snapshot record.
package venue

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/jak-pan/hydration-stats/internal/graphql"
	"github.com/jak-pan/hydration-stats/internal/model"
	"github.com/jak-pan/hydration-stats/internal/registry"
)

// Service fetches snapshots from the whale indexer, with the generic endpoint
// as the fallback source for the basic asset list.
type Service struct {
	whale     *graphql.Client
	generic   *graphql.Client
	registry  *registry.Registry
	minXYKTVL float64
	logger    *zap.Logger
}

// New wires a venue service. minXYKTVL is the source-level cutoff for
// constant-product pools, in reference-asset units.
func New(whale, generic *graphql.Client, reg *registry.Registry, minXYKTVL float64, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		whale:     whale,
		generic:   generic,
		registry:  reg,
		minXYKTVL: minXYKTVL,
		logger:    logger,
	}
}

type assetRef struct {
	ID       string `json:"id"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Decimals int32  `json:"decimals"`
	Kind     string `json:"assetType"`
}

type headResponse struct {
	AssetHistoricalData graphql.Nodes[struct {
		ParaBlockHeight uint64 `json:"paraBlockHeight"`
	}] `json:"assetHistoricalData"`
}

// LatestHeight resolves the chain's current head height. The underlying
// request is deduplicated, so concurrent venue fetches share one lookup.
func (s *Service) LatestHeight(ctx context.Context) (uint64, error) {
	var resp headResponse
	if err := s.whale.Query(ctx, graphql.QueryLatestBlock, nil, &resp); err != nil {
		return 0, fmt.Errorf("latest height: %w", err)
	}
	if len(resp.AssetHistoricalData.Nodes) == 0 {
		return 0, fmt.Errorf("latest height: no data")
	}
	return resp.AssetHistoricalData.Nodes[0].ParaBlockHeight, nil
}

type blockResponse struct {
	Blocks graphql.Nodes[model.BlockPoint] `json:"blocks"`
}

// BlockAt resolves a block's timestamp by height. Returns nil when the block
// is unknown to the indexer.
func (s *Service) BlockAt(ctx context.Context, height uint64) (*model.BlockPoint, error) {
	var resp blockResponse
	err := s.whale.Query(ctx, graphql.QueryBlockByHeight, map[string]any{"blockHeight": height}, &resp)
	if err != nil {
		return nil, fmt.Errorf("block %d: %w", height, err)
	}
	if len(resp.Blocks.Nodes) == 0 {
		return nil, nil
	}
	point := resp.Blocks.Nodes[0]
	return &point, nil
}

type assetsResponse struct {
	Assets graphql.Nodes[struct {
		assetRef
		AssetRegistryID string `json:"assetRegistryId"`
	}] `json:"assets"`
}

// Assets loads the full asset list into the registry, falling back to the
// generic endpoint's basic list when the whale indexer is unavailable.
// Returns the number of assets loaded.
func (s *Service) Assets(ctx context.Context) (int, error) {
	var resp assetsResponse
	if err := s.whale.Query(ctx, graphql.QueryAllAssets, nil, &resp); err != nil {
		s.logger.Warn("asset list from whale indexer failed, falling back", zap.Error(err))
		if err := s.generic.Query(ctx, graphql.QueryBasicAssets, nil, &resp); err != nil {
			return 0, fmt.Errorf("fetch assets: %w", err)
		}
	}

	for _, node := range resp.Assets.Nodes {
		s.registry.Put(model.Asset{
			ID:         node.ID,
			RegistryID: node.AssetRegistryID,
			Name:       node.Name,
			Symbol:     node.Symbol,
			Decimals:   node.Decimals,
			Kind:       node.Kind,
		})
	}
	return len(resp.Assets.Nodes), nil
}

// resolveHeight turns the optional height argument into a concrete one.
func (s *Service) resolveHeight(ctx context.Context, height uint64) (uint64, error) {
	if height != 0 {
		return height, nil
	}
	return s.LatestHeight(ctx)
}

func parseTVL(raw string) float64 {
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	return v
}

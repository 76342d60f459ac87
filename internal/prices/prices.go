// Package prices builds the USD price table from the price-oracle records at
// one block height.
package prices

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/jak-pan/hydration-stats/internal/graphql"
	"github.com/jak-pan/hydration-stats/internal/model"
	"github.com/jak-pan/hydration-stats/internal/registry"
)

// Builder fetches the latest known USD price for every tracked asset as of a
// block height. Upstream sources disagree on identifier schemes, so each
// price is stored under both the registry id and the native id.
type Builder struct {
	client   *graphql.Client
	registry *registry.Registry
	head     func(context.Context) (uint64, error)
	logger   *zap.Logger
}

// NewBuilder wires a price builder. head resolves the chain's current head
// height when Build is called without one.
func NewBuilder(client *graphql.Client, reg *registry.Registry, head func(context.Context) (uint64, error), logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{client: client, registry: reg, head: head, logger: logger}
}

type assetRef struct {
	ID       string `json:"id"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Decimals int32  `json:"decimals"`
}

type priceNode struct {
	AssetID            string    `json:"assetId"`
	AssetRegistryID    string    `json:"assetRegistryId"`
	USDPriceNormalised string    `json:"usdPriceNormalised"`
	Asset              *assetRef `json:"asset"`
}

type pricesResponse struct {
	AssetHistoricalData graphql.Nodes[priceNode] `json:"assetHistoricalData"`
}

// Build fetches price records at the given height (0 means current head) and
// returns a fresh table. Within one build only the first positive price seen
// per key is retained. Unknown assets carried on hex-format price records are
// registered as a side effect.
func (b *Builder) Build(ctx context.Context, height uint64) (model.PriceTable, error) {
	if height == 0 {
		h, err := b.head(ctx)
		if err != nil {
			return nil, fmt.Errorf("resolve head: %w", err)
		}
		height = h
	}

	var resp pricesResponse
	err := b.client.Query(ctx, graphql.QueryPricesAtBlock, map[string]any{"blockHeight": height}, &resp)
	if err != nil {
		return nil, fmt.Errorf("fetch prices: %w", err)
	}

	table := make(model.PriceTable)
	for _, node := range resp.AssetHistoricalData.Nodes {
		price, err := strconv.ParseFloat(node.USDPriceNormalised, 64)
		if err != nil || price <= 0 {
			continue
		}

		if registry.IsEVMAssetID(node.AssetID) && node.Asset != nil {
			if _, known := b.registry.Get(node.AssetID); !known {
				decimals := node.Asset.Decimals
				if decimals == 0 {
					decimals = registry.DefaultEVMDecimals
				}
				b.registry.Put(model.Asset{
					ID:       node.AssetID,
					Name:     node.Asset.Name,
					Symbol:   node.Asset.Symbol,
					Decimals: decimals,
					Kind:     model.KindErc20,
				})
			}
		}

		// First-write-wins under both identifier schemes.
		if node.AssetRegistryID != "" {
			if _, ok := table[node.AssetRegistryID]; !ok {
				table[node.AssetRegistryID] = price
			}
		}
		if node.AssetID != "" && node.AssetID != node.AssetRegistryID {
			if _, ok := table[node.AssetID]; !ok {
				table[node.AssetID] = price
			}
		}
	}

	b.logger.Debug("price table built",
		zap.Uint64("height", height),
		zap.Int("entries", len(table)),
	)
	return table, nil
}

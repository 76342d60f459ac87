// Package blocks translates wall-clock timestamps into concrete block
// height/timestamp pairs.
package blocks

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/alitto/pond/v2"
	"go.uber.org/zap"

	"github.com/jak-pan/hydration-stats/internal/graphql"
	"github.com/jak-pan/hydration-stats/internal/model"
)

// Locator resolves target instants to blocks with one bounded point-query
// per target, capped to a fixed number of in-flight requests.
type Locator struct {
	client      *graphql.Client
	concurrency int
	logger      *zap.Logger
}

// NewLocator wires a locator. concurrency bounds simultaneous point-queries.
func NewLocator(client *graphql.Client, concurrency int, logger *zap.Logger) *Locator {
	if concurrency <= 0 {
		concurrency = 10
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Locator{client: client, concurrency: concurrency, logger: logger}
}

type blockResponse struct {
	Blocks graphql.Nodes[model.BlockPoint] `json:"blocks"`
}

// ClosestAtOrBefore returns the most recent block with timestamp <= target,
// or nil when none exists (target before the data source's horizon).
func (l *Locator) ClosestAtOrBefore(ctx context.Context, target time.Time) (*model.BlockPoint, error) {
	var resp blockResponse
	err := l.client.Query(ctx, graphql.QueryBlockByTimestamp, map[string]any{
		"targetTime": target.UTC().Format(time.RFC3339),
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("block at %s: %w", target.UTC().Format(time.RFC3339), err)
	}
	if len(resp.Blocks.Nodes) == 0 {
		return nil, nil
	}
	point := resp.Blocks.Nodes[0]
	return &point, nil
}

// ResolveGrid resolves every target instant to its closest block. Nearby
// targets often land on the same block, so results are deduplicated by
// height and returned in ascending height order. A failed point-query drops
// that target only.
func (l *Locator) ResolveGrid(ctx context.Context, targets []time.Time) ([]model.BlockPoint, error) {
	if len(targets) == 0 {
		return nil, nil
	}

	resolved := make([]*model.BlockPoint, len(targets))
	pool := pond.NewPool(l.concurrency)
	group := pool.NewGroupContext(ctx)

	for i, target := range targets {
		i, target := i, target
		group.Submit(func() {
			point, err := l.ClosestAtOrBefore(ctx, target)
			if err != nil {
				l.logger.Warn("resolve block", zap.Time("target", target), zap.Error(err))
				return
			}
			resolved[i] = point
		})
	}

	if err := group.Wait(); err != nil {
		pool.StopAndWait()
		return nil, err
	}
	pool.StopAndWait()

	seen := make(map[uint64]model.BlockPoint)
	for _, point := range resolved {
		if point != nil {
			seen[point.Height] = *point
		}
	}

	out := make([]model.BlockPoint, 0, len(seen))
	for _, point := range seen {
		out = append(out, point)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Height < out[j].Height })
	return out, nil
}

// NearestWithinRange picks the candidate minimizing absolute timestamp
// distance to target; ties go to the first encountered. It is the in-memory
// counterpart of ClosestAtOrBefore for callers that already hold a candidate
// window, and returns nil only for an empty candidate set.
func NearestWithinRange(target time.Time, candidates []model.BlockPoint) *model.BlockPoint {
	var best *model.BlockPoint
	var bestDist time.Duration
	for i := range candidates {
		dist := candidates[i].Timestamp.Sub(target)
		if dist < 0 {
			dist = -dist
		}
		if best == nil || dist < bestDist {
			best = &candidates[i]
			bestDist = dist
		}
	}
	return best
}

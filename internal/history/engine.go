// Package history reconstructs the historical TVL time series: it samples a
// time window into a block-height grid, bulk-fetches all four venues at those
// heights, merges the results into per-block and per-asset series, and caches
// them per period.
package history

import (
	"context"
	"fmt"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/jak-pan/hydration-stats/internal/blocks"
	"github.com/jak-pan/hydration-stats/internal/graphql"
	"github.com/jak-pan/hydration-stats/internal/model"
)

// Period selects a lookback window for the historical series.
type Period string

const (
	PeriodWeek        Period = "1w"
	PeriodMonth       Period = "1m"
	PeriodThreeMonths Period = "3m"
)

// ParsePeriod validates a period label.
func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case PeriodWeek, PeriodMonth, PeriodThreeMonths:
		return Period(s), nil
	}
	return "", fmt.Errorf("unknown period: %s", s)
}

type periodSpec struct {
	lookback time.Duration
	samples  int
}

var periodSpecs = map[Period]periodSpec{
	PeriodWeek:        {lookback: 7 * 24 * time.Hour, samples: 50},
	PeriodMonth:       {lookback: 30 * 24 * time.Hour, samples: 60},
	PeriodThreeMonths: {lookback: 90 * 24 * time.Hour, samples: 90},
}

// Series is one period's reconstructed output, in both aggregation modes.
// The Excluding variants omit the designated excluded asset from the
// omnipool totals and from the per-asset series.
type Series struct {
	Period               Period                     `json:"period"`
	Points               []model.HistoricalTVLPoint `json:"points"`
	PointsExcluding      []model.HistoricalTVLPoint `json:"pointsExcluding"`
	AssetSeries          model.AssetTVLSeries       `json:"assetSeries"`
	AssetSeriesExcluding model.AssetTVLSeries       `json:"assetSeriesExcluding"`
	FetchedAt            time.Time                  `json:"fetchedAt"`
}

// Empty reports whether the series has no points.
func (s *Series) Empty() bool {
	return s == nil || len(s.Points) == 0
}

type cacheEntry struct {
	series  *Series
	fetched time.Time
}

// Engine orchestrates the block locator and the four venue historical
// queries across a period's time window.
type Engine struct {
	client        *graphql.Client
	locator       *blocks.Locator
	excludedAsset string
	minXYKTVL     float64
	ttl           time.Duration
	cache         *xsync.MapOf[Period, cacheEntry]
	runs          singleflight.Group
	now           func() time.Time
	logger        *zap.Logger
}

// Config holds the engine's tunables.
type Config struct {
	// ExcludedAssetID is the designated asset optionally hidden from TVL math.
	ExcludedAssetID string
	// MinXYKTVL is the source-level cutoff for constant-product pools.
	MinXYKTVL float64
	// CacheTTL bounds how long a period's series is served from cache.
	CacheTTL time.Duration
}

// NewEngine wires the engine against the whale indexer client and a locator.
func NewEngine(cfg Config, client *graphql.Client, locator *blocks.Locator, logger *zap.Logger) *Engine {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		client:        client,
		locator:       locator,
		excludedAsset: cfg.ExcludedAssetID,
		minXYKTVL:     cfg.MinXYKTVL,
		ttl:           cfg.CacheTTL,
		cache:         xsync.NewMapOf[Period, cacheEntry](),
		now:           time.Now,
		logger:        logger,
	}
}

// Fetch returns the period's series, from cache when fresh. Concurrent calls
// for the same period collapse onto one run; other periods run independently.
// A run that resolves zero blocks yields an empty series (not an error) and
// drops the period's cache entry; a run that fails leaves prior cache state
// untouched.
func (e *Engine) Fetch(ctx context.Context, period Period) (*Series, error) {
	spec, ok := periodSpecs[period]
	if !ok {
		return nil, fmt.Errorf("unknown period: %s", period)
	}

	v, err, _ := e.runs.Do(string(period), func() (any, error) {
		if entry, ok := e.cache.Load(period); ok {
			if e.now().Sub(entry.fetched) < e.ttl && !entry.series.Empty() {
				e.logger.Debug("historical cache hit", zap.String("period", string(period)))
				return entry.series, nil
			}
		}
		return e.fetch(ctx, period, spec)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Series), nil
}

// ClearCache drops every period's cached series.
func (e *Engine) ClearCache() {
	e.cache.Clear()
}

func (e *Engine) fetch(ctx context.Context, period Period, spec periodSpec) (*Series, error) {
	now := e.now()
	start := now.Add(-spec.lookback)

	points, err := e.locator.ResolveGrid(ctx, timestampGrid(start, now, spec.samples))
	if err != nil {
		return nil, fmt.Errorf("resolve grid: %w", err)
	}

	// The source's horizon may begin after the requested window start; in
	// that case regenerate the grid over the actually-available range so the
	// leading samples are not sparse.
	if len(points) > 0 {
		interval := spec.lookback / time.Duration(spec.samples-1)
		if earliest := points[0].Timestamp; earliest.After(start.Add(interval)) {
			e.logger.Debug("regenerating grid for available range",
				zap.String("period", string(period)),
				zap.Time("requested_start", start),
				zap.Time("available_start", earliest),
			)
			points, err = e.locator.ResolveGrid(ctx, timestampGrid(earliest, now, spec.samples))
			if err != nil {
				return nil, fmt.Errorf("resolve grid: %w", err)
			}
		}
	}

	if len(points) == 0 {
		e.logger.Warn("no blocks in range", zap.String("period", string(period)))
		e.cache.Delete(period)
		return &Series{
			Period:               period,
			AssetSeries:          model.AssetTVLSeries{},
			AssetSeriesExcluding: model.AssetTVLSeries{},
			FetchedAt:            now,
		}, nil
	}

	heights := make([]uint64, len(points))
	timestamps := make(map[uint64]time.Time, len(points))
	for i, p := range points {
		heights[i] = p.Height
		timestamps[p.Height] = p.Timestamp
	}

	venues, err := e.bulkFetch(ctx, heights)
	if err != nil {
		return nil, err
	}

	series := e.merge(period, venues, timestamps)
	series.FetchedAt = now
	e.cache.Store(period, cacheEntry{series: series, fetched: now})

	e.logger.Info("historical series built",
		zap.String("period", string(period)),
		zap.Int("blocks", len(points)),
		zap.Int("assets", len(series.AssetSeries)),
	)
	return series, nil
}

// timestampGrid produces samples evenly spaced instants spanning [start, end],
// end inclusive as the final point.
func timestampGrid(start, end time.Time, samples int) []time.Time {
	if samples < 2 {
		return []time.Time{end}
	}
	interval := end.Sub(start) / time.Duration(samples-1)
	grid := make([]time.Time, samples)
	for i := 0; i < samples; i++ {
		grid[i] = start.Add(time.Duration(i) * interval)
	}
	grid[samples-1] = end
	return grid
}

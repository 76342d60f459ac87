// Package stats holds the aggregated market state: the latest venue
// snapshots, the active price table, and the reconstructed historical
// series, behind read views for the API layer.
package stats

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jak-pan/hydration-stats/internal/history"
	"github.com/jak-pan/hydration-stats/internal/model"
	"github.com/jak-pan/hydration-stats/internal/prices"
	"github.com/jak-pan/hydration-stats/internal/registry"
	"github.com/jak-pan/hydration-stats/internal/venue"
)

// Store is the single in-process state container. All mutation goes through
// the refresh actions; readers get copies, never live references.
type Store struct {
	mu sync.RWMutex

	registry *registry.Registry
	venues   *venue.Service
	prices   *prices.Builder
	history  *history.Engine
	logger   *zap.Logger

	excludedAsset   string
	includeExcluded bool

	priceTable  model.PriceTable
	snapshots   map[model.Venue][]model.PoolSnapshot
	venueErrs   map[model.Venue]string
	series      map[history.Period]*history.Series
	latestBlock *model.BlockPoint
	lastUpdated time.Time
	lastErr     string

	loading           bool
	historicalLoading bool
}

// New wires the store against its data sources. The excluded asset starts
// hidden from TVL math, matching the default presentation.
func New(reg *registry.Registry, venues *venue.Service, priceBuilder *prices.Builder, engine *history.Engine, excludedAsset string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		registry:      reg,
		venues:        venues,
		prices:        priceBuilder,
		history:       engine,
		logger:        logger,
		excludedAsset: excludedAsset,
		priceTable:    make(model.PriceTable),
		snapshots:     make(map[model.Venue][]model.PoolSnapshot),
		venueErrs:     make(map[model.Venue]string),
		series:        make(map[history.Period]*history.Series),
	}
}

// SetIncludeExcludedAsset toggles whether the designated excluded asset
// participates in TVL totals and composition rankings.
func (s *Store) SetIncludeExcludedAsset(include bool) {
	s.mu.Lock()
	s.includeExcluded = include
	s.mu.Unlock()
}

// IncludeExcludedAsset reports the current toggle state.
func (s *Store) IncludeExcludedAsset() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.includeExcluded
}

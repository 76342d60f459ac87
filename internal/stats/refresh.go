package stats

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/jak-pan/hydration-stats/internal/history"
	"github.com/jak-pan/hydration-stats/internal/model"
)

const refreshFailedMsg = "failed to refresh market data"

// RefreshAll rebuilds the entire snapshot state: asset metadata, the price
// table, all four venues at the current head, and the default historical
// period. Venues are fetched in parallel; a failing venue keeps its previous
// snapshot and records a per-venue error, while successful venues still land.
func (s *Store) RefreshAll(ctx context.Context) error {
	s.mu.Lock()
	if s.loading {
		s.mu.Unlock()
		return nil
	}
	s.loading = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.loading = false
		s.mu.Unlock()
	}()

	var failed atomic.Bool

	if count, err := s.venues.Assets(ctx); err != nil {
		s.logger.Warn("asset metadata refresh failed", zap.Error(err))
		failed.Store(true)
	} else {
		s.logger.Info("asset metadata refreshed", zap.Int("assets", count))
	}

	head, err := s.venues.LatestHeight(ctx)
	if err != nil {
		s.setLastError(refreshFailedMsg)
		return fmt.Errorf("latest height: %w", err)
	}

	if block, err := s.venues.BlockAt(ctx, head); err != nil {
		s.logger.Warn("block lookup failed", zap.Uint64("height", head), zap.Error(err))
	} else if block != nil {
		s.mu.Lock()
		s.latestBlock = block
		s.mu.Unlock()
	}

	if table, err := s.prices.Build(ctx, head); err != nil {
		s.logger.Warn("price table refresh failed", zap.Error(err))
		failed.Store(true)
	} else {
		s.mu.Lock()
		s.priceTable = table
		s.mu.Unlock()
	}

	var wg sync.WaitGroup
	for _, v := range model.Venues {
		wg.Add(1)
		go func(v model.Venue) {
			defer wg.Done()
			s.refreshVenue(ctx, v, head)
		}(v)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := s.RefreshHistorical(ctx, history.PeriodMonth); err != nil {
			s.logger.Warn("historical refresh failed", zap.Error(err))
			failed.Store(true)
		}
	}()
	wg.Wait()

	s.mu.Lock()
	s.lastUpdated = time.Now()
	if len(s.venueErrs) > 0 {
		failed.Store(true)
	}
	if failed.Load() {
		s.lastErr = refreshFailedMsg
	} else {
		s.lastErr = ""
	}
	s.mu.Unlock()
	return nil
}

// RefreshVenue refetches a single venue at the current head.
func (s *Store) RefreshVenue(ctx context.Context, v model.Venue) error {
	head, err := s.venues.LatestHeight(ctx)
	if err != nil {
		return fmt.Errorf("latest height: %w", err)
	}
	s.refreshVenue(ctx, v, head)
	s.mu.RLock()
	msg, failed := s.venueErrs[v]
	s.mu.RUnlock()
	if failed {
		return fmt.Errorf("refresh %s: %s", v, msg)
	}
	return nil
}

func (s *Store) refreshVenue(ctx context.Context, v model.Venue, head uint64) {
	var (
		snaps []model.PoolSnapshot
		err   error
	)
	switch v {
	case model.VenueOmnipool:
		snaps, err = s.venues.Omnipool(ctx, head)
	case model.VenueStableswap:
		snaps, err = s.venues.Stableswap(ctx, head)
	case model.VenueXYK:
		snaps, err = s.venues.XYK(ctx, head)
	case model.VenueMoneyMarket:
		snaps, err = s.venues.MoneyMarket(ctx, head)
	default:
		err = fmt.Errorf("unknown venue: %s", v)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.logger.Warn("venue refresh failed", zap.String("venue", string(v)), zap.Error(err))
		s.venueErrs[v] = err.Error()
		return
	}
	delete(s.venueErrs, v)
	s.snapshots[v] = snaps
}

// RefreshHistorical rebuilds one period's series through the engine, which
// serves from cache when the previous run is still fresh.
func (s *Store) RefreshHistorical(ctx context.Context, period history.Period) error {
	s.mu.Lock()
	s.historicalLoading = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.historicalLoading = false
		s.mu.Unlock()
	}()

	series, err := s.history.Fetch(ctx, period)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.series[period] = series
	s.mu.Unlock()
	return nil
}

// ClearHistoricalCache drops every cached period, both in the engine and in
// the store's own per-period series. The next fetch rebuilds from source.
func (s *Store) ClearHistoricalCache() {
	s.history.ClearCache()
	s.mu.Lock()
	s.series = make(map[history.Period]*history.Series)
	s.mu.Unlock()
}

func (s *Store) setLastError(msg string) {
	s.mu.Lock()
	s.lastErr = msg
	s.mu.Unlock()
}

package stats

import (
	"sort"
	"time"

	"github.com/jak-pan/hydration-stats/internal/history"
	"github.com/jak-pan/hydration-stats/internal/model"
	"github.com/jak-pan/hydration-stats/internal/normalize"
	"github.com/jak-pan/hydration-stats/internal/registry"
)

// TVL returns the instantaneous per-venue breakdown. Omnipool positions carry
// raw token amounts and are valued here against the active price table; the
// other venues arrive pre-valued from the indexer. Every field uses the
// variant consistent with the exclusion toggle, so the venue fields always
// sum to Total.
func (s *Store) TVL() model.TVLBreakdown {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var omnipool, tokens float64
	for _, snap := range s.snapshots[model.VenueOmnipool] {
		for _, entry := range snap.Assets {
			if !s.includeExcluded && entry.AssetID == s.excludedAsset {
				continue
			}
			omnipool += normalize.ReferenceValue(entry.Amount, entry.AssetID, s.priceTable)
			tokens += entry.Amount
		}
	}

	b := model.TVLBreakdown{
		Omnipool:       omnipool,
		OmnipoolTokens: tokens,
		Stableswap:     venueTotal(s.snapshots[model.VenueStableswap]),
		XYK:            venueTotal(s.snapshots[model.VenueXYK]),
		MoneyMarket:    venueTotal(s.snapshots[model.VenueMoneyMarket]),
	}
	b.Total = b.Omnipool + b.Stableswap + b.XYK + b.MoneyMarket
	return b
}

// Composition returns every position across all venues, ranked by TVL
// descending. Percentages are of the grand total under the current toggle;
// a zero grand total yields an empty list.
func (s *Store) Composition() []model.AssetComposition {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rows []model.AssetComposition
	for _, v := range model.Venues {
		for _, snap := range s.snapshots[v] {
			for _, entry := range snap.Assets {
				if !s.includeExcluded && entry.AssetID == s.excludedAsset {
					continue
				}
				tvl := entry.TVL
				if v == model.VenueOmnipool {
					tvl = normalize.ReferenceValue(entry.Amount, entry.AssetID, s.priceTable)
				}
				rows = append(rows, model.AssetComposition{
					Asset:    s.registry.Resolve(entry.AssetID, registry.DefaultDecimals),
					Amount:   entry.Amount,
					TVL:      tvl,
					Venue:    v,
					PoolID:   snap.PoolID,
					PoolName: snap.PoolName,
				})
			}
		}
	}

	var grand float64
	for _, row := range rows {
		grand += row.TVL
	}
	if grand == 0 {
		return nil
	}
	for i := range rows {
		rows[i].Percentage = rows[i].TVL / grand * 100
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].TVL > rows[j].TVL })
	return rows
}

// HistoricalView is the toggle-resolved slice of a period's series.
type HistoricalView struct {
	Period      history.Period             `json:"period"`
	Points      []model.HistoricalTVLPoint `json:"points"`
	AssetSeries model.AssetTVLSeries       `json:"assetSeries"`
	FetchedAt   time.Time                  `json:"fetchedAt"`
}

// Historical returns the stored series for a period, resolved through the
// exclusion toggle. The second return is false when the period has not been
// fetched yet.
func (s *Store) Historical(period history.Period) (HistoricalView, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	series, ok := s.series[period]
	if !ok || series == nil {
		return HistoricalView{Period: period}, false
	}
	view := HistoricalView{Period: period, FetchedAt: series.FetchedAt}
	if s.includeExcluded {
		view.Points = series.Points
		view.AssetSeries = series.AssetSeries
	} else {
		view.Points = series.PointsExcluding
		view.AssetSeries = series.AssetSeriesExcluding
	}
	return view, true
}

// Status summarizes the store's freshness and health for the status endpoint.
type Status struct {
	LastUpdated          time.Time              `json:"lastUpdated"`
	LatestBlock          *model.BlockPoint      `json:"latestBlock,omitempty"`
	AssetCount           int                    `json:"assetCount"`
	Loading              bool                   `json:"loading"`
	HistoricalLoading    bool                   `json:"historicalLoading"`
	LastError            string                 `json:"lastError,omitempty"`
	VenueErrors          map[model.Venue]string `json:"venueErrors,omitempty"`
	IncludeExcludedAsset bool                   `json:"includeExcludedAsset"`
}

// Status returns a copy of the store's operational state.
func (s *Store) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Status{
		LastUpdated:          s.lastUpdated,
		LatestBlock:          s.latestBlock,
		AssetCount:           s.registry.Len(),
		Loading:              s.loading,
		HistoricalLoading:    s.historicalLoading,
		LastError:            s.lastErr,
		IncludeExcludedAsset: s.includeExcluded,
	}
	if len(s.venueErrs) > 0 {
		st.VenueErrors = make(map[model.Venue]string, len(s.venueErrs))
		for v, msg := range s.venueErrs {
			st.VenueErrors[v] = msg
		}
	}
	return st
}

// Assets returns the full known-asset list in registration order.
func (s *Store) Assets() []model.Asset {
	return s.registry.All()
}

func venueTotal(snaps []model.PoolSnapshot) float64 {
	var total float64
	for _, snap := range snaps {
		total += snap.TVL
	}
	return total
}

package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/jak-pan/hydration-stats/internal/history"
	"github.com/jak-pan/hydration-stats/internal/model"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "hydration-stats",
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.store.Status())
}

func (s *Server) handleAssets(w http.ResponseWriter, r *http.Request) {
	assets := s.store.Assets()
	respondJSON(w, http.StatusOK, map[string]any{
		"count":  len(assets),
		"assets": assets,
	})
}

func (s *Server) handleTVL(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.store.TVL())
}

func (s *Server) handleComposition(w http.ResponseWriter, r *http.Request) {
	rows := s.store.Composition()
	if rows == nil {
		rows = []model.AssetComposition{}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"count":       len(rows),
		"composition": rows,
	})
}

func (s *Server) handleHistorical(w http.ResponseWriter, r *http.Request) {
	period, err := history.ParsePeriod(mux.Vars(r)["period"])
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	view, ok := s.store.Historical(period)
	if !ok {
		if err := s.store.RefreshHistorical(r.Context(), period); err != nil {
			s.logger.Warn("historical fetch failed", zap.String("period", string(period)), zap.Error(err))
			respondError(w, http.StatusBadGateway, "historical data unavailable")
			return
		}
		view, _ = s.store.Historical(period)
	}
	respondJSON(w, http.StatusOK, view)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := s.store.RefreshAll(r.Context()); err != nil {
		s.logger.Warn("refresh failed", zap.Error(err))
		respondError(w, http.StatusBadGateway, "refresh failed")
		return
	}
	respondJSON(w, http.StatusOK, s.store.Status())
}

func (s *Server) handleRefreshVenue(w http.ResponseWriter, r *http.Request) {
	venue, err := model.ParseVenue(mux.Vars(r)["venue"])
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.store.RefreshVenue(r.Context(), venue); err != nil {
		s.logger.Warn("venue refresh failed", zap.String("venue", string(venue)), zap.Error(err))
		respondError(w, http.StatusBadGateway, "refresh failed")
		return
	}
	respondJSON(w, http.StatusOK, s.store.Status())
}

func (s *Server) handleRefreshHistorical(w http.ResponseWriter, r *http.Request) {
	period, err := history.ParsePeriod(mux.Vars(r)["period"])
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.store.RefreshHistorical(r.Context(), period); err != nil {
		s.logger.Warn("historical refresh failed", zap.String("period", string(period)), zap.Error(err))
		respondError(w, http.StatusBadGateway, "refresh failed")
		return
	}
	view, _ := s.store.Historical(period)
	respondJSON(w, http.StatusOK, view)
}

func (s *Server) handleClearHistoricalCache(w http.ResponseWriter, r *http.Request) {
	s.store.ClearHistoricalCache()
	respondJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

type excludedAssetSetting struct {
	Include bool `json:"include"`
}

func (s *Server) handleExcludedAssetSetting(w http.ResponseWriter, r *http.Request) {
	var req excludedAssetSetting
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.store.SetIncludeExcludedAsset(req.Include)
	respondJSON(w, http.StatusOK, map[string]bool{"include": req.Include})
}

package api

import (
	"net/http"

	"github.com/kjannette/marketpulse/internal/models"
)

const defaultLatestLimit = 30

func (s *Server) handleAssetLatest(w http.ResponseWriter, r *http.Request) {
	symbol := models.MarketSymbol(r.PathValue("symbol"))
	if symbol.YahooTicker() == "" {
		writeError(w, http.StatusNotFound, "unknown asset symbol")
		return
	}

	rows, err := s.data.LatestN(r.Context(), symbol, parseLimit(r, defaultLatestLimit))
	if err != nil {
		s.log.Error().Err(err).Str("symbol", symbol.String()).Msg("asset latest failed")
		writeError(w, http.StatusInternalServerError, "failed to fetch prices")
		return
	}
	writeJSON(w, http.StatusOK, toPriceJSON(rows))
}

func (s *Server) handleMetricLatest(w http.ResponseWriter, r *http.Request) {
	name := models.MarketSymbol(r.PathValue("name"))
	if !name.IsKnown() {
		writeError(w, http.StatusNotFound, "unknown metric")
		return
	}

	rows, err := s.metrics.LatestN(r.Context(), name, parseLimit(r, defaultLatestLimit))
	if err != nil {
		s.log.Error().Err(err).Str("metric", name.String()).Msg("metric latest failed")
		writeError(w, http.StatusInternalServerError, "failed to fetch metric")
		return
	}
	writeJSON(w, http.StatusOK, toMetricJSON(rows))
}

func (s *Server) handleMetricRange(w http.ResponseWriter, r *http.Request) {
	name := models.MarketSymbol(r.PathValue("name"))
	if !name.IsKnown() {
		writeError(w, http.StatusNotFound, "unknown metric")
		return
	}

	q := r.URL.Query()
	fromStr, toStr := q.Get("from"), q.Get("to")
	if !validateDate(fromStr) || !validateDate(toStr) {
		writeError(w, http.StatusBadRequest, "invalid date format, expected YYYY-MM-DD")
		return
	}
	from, _ := models.ParseDate(fromStr)
	to, _ := models.ParseDate(toStr)
	if from.After(to) {
		writeError(w, http.StatusBadRequest, "from must not be after to")
		return
	}

	rows, err := s.metrics.Range(r.Context(), name, from, to)
	if err != nil {
		s.log.Error().Err(err).Str("metric", name.String()).Msg("metric range failed")
		writeError(w, http.StatusInternalServerError, "failed to fetch metric")
		return
	}
	writeJSON(w, http.StatusOK, toMetricJSON(rows))
}

package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/grupoip3/siigo-dashboard-service/internal/report"
	"github.com/grupoip3/siigo-dashboard-service/internal/siigo"
)

// DateRangeView echoes the effective date filter back to the caller.
type DateRangeView struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Filters is the filter block of every dashboard response.
type Filters struct {
	DateRange DateRangeView `json:"dateRange"`
}

// Envelope is the uniform dashboard response. success stays true even
// when the payload is the empty fallback; source tells the UI which it
// got.
type Envelope[T any] struct {
	Success bool         `json:"success"`
	Data    T            `json:"data"`
	Filters Filters      `json:"filters"`
	Source  siigo.Source `json:"source"`
	Error   string       `json:"error,omitempty"`
}

func filtersFor(r report.DateRange) Filters {
	return Filters{DateRange: DateRangeView{Start: r.StartString(), End: r.EndString()}}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

func writeEnvelope[T any](w http.ResponseWriter, res siigo.Result[T], rng report.DateRange) {
	writeJSON(w, http.StatusOK, Envelope[T]{
		Success: true,
		Data:    res.Data,
		Filters: filtersFor(rng),
		Source:  res.Source,
		Error:   res.Err,
	})
}

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/foliolabs/folio/internal/services/visits"
	"github.com/foliolabs/folio/pkg/httpext"
)

type visitResponse struct {
	Count int64 `json:"count"`
}

// HandleGetVisits reads the visit counter.
func HandleGetVisits(visitsService *visits.Service, w http.ResponseWriter, r *http.Request) {
	count, err := visitsService.Count(r.Context())
	if err != nil {
		writeVisitError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(visitResponse{Count: count})
}

// HandleRecordVisit increments the visit counter and returns the new total.
func HandleRecordVisit(visitsService *visits.Service, w http.ResponseWriter, r *http.Request) {
	count, err := visitsService.RecordVisit(r.Context())
	if err != nil {
		writeVisitError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(visitResponse{Count: count})
}

func writeVisitError(w http.ResponseWriter, err error) {
	if errors.Is(err, visits.ErrUnavailable) {
		httpext.JsonError(w, "Visit counter is unavailable", http.StatusServiceUnavailable)
		return
	}
	log.Error().Err(err).Msg("Visit counter operation failed")
	httpext.JsonError(w, "Failed to access visit counter", http.StatusInternalServerError)
}

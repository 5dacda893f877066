package routes

import (
	"errors"
	"net/http"
	"storefront-e2e/internal/report"
	"time"
)

// Summarize reduces a posted JSON array of test outcomes to a summary report.
func Summarize(clock func() time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		outcomes, err := report.ParseOutcomes(http.MaxBytesReader(w, r.Body, maxUploadSize))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		summary, err := report.Summarize(outcomes)
		if err != nil {
			if errors.Is(err, report.ErrIntegrity) {
				http.Error(w, err.Error(), http.StatusUnprocessableEntity)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		writeJSON(w, r, http.StatusOK, report.NewSummaryReport(summary, clock()))
	}
}

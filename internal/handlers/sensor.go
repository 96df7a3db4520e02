package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/AzahwaCelinaLatifa/smartecobin-pangaea/internal/ingest"
	"github.com/AzahwaCelinaLatifa/smartecobin-pangaea/internal/models"
	"github.com/AzahwaCelinaLatifa/smartecobin-pangaea/pkg/utils"
)

// IngestReading accepts one sensor reading from a device publisher.
//
// Duplicate and out-of-order outcomes are deliberate non-errors: the device
// link may redeliver, and the response tells it apart from a real failure.
func IngestReading(ing *ingest.Ingestor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var reading models.SensorReading
		if err := json.NewDecoder(r.Body).Decode(&reading); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		result, err := ing.Ingest(reading)
		if errors.Is(err, ingest.ErrUnavailable) {
			utils.Error(w, http.StatusServiceUnavailable, "bin busy, retry")
			return
		}
		if err != nil {
			utils.Error(w, http.StatusInternalServerError, "ingest failed")
			return
		}

		status := http.StatusOK
		if result.Status == ingest.StatusRejectedInvalid {
			status = http.StatusUnprocessableEntity
		}
		utils.JSON(w, status, result)
	}
}

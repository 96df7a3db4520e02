package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/AzahwaCelinaLatifa/smartecobin-pangaea/internal/models"
	"github.com/AzahwaCelinaLatifa/smartecobin-pangaea/internal/registry"
	"github.com/AzahwaCelinaLatifa/smartecobin-pangaea/pkg/utils"
)

// GetBins returns the current state of every bin, straight from the
// registry's in-memory snapshots.
func GetBins(reg *registry.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bins := reg.List()
		responses := make([]models.BinResponse, len(bins))
		for i, bin := range bins {
			responses[i] = bin.ToBinResponse()
		}
		utils.JSON(w, http.StatusOK, responses)
	}
}

func GetBin(reg *registry.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		bin, err := reg.Get(id)
		if errors.Is(err, registry.ErrNotFound) {
			utils.Error(w, http.StatusNotFound, "bin not found")
			return
		}
		utils.JSON(w, http.StatusOK, bin.ToBinResponse())
	}
}

func CreateBin(reg *registry.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.CreateBinRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if req.BinNumber <= 0 {
			utils.Error(w, http.StatusBadRequest, "bin_number must be positive")
			return
		}
		if req.FillPercentage < 0 || req.FillPercentage > 100 {
			utils.Error(w, http.StatusBadRequest, "fill_percentage outside [0,100]")
			return
		}

		bin := &models.Bin{
			ID:             uuid.New().String(),
			BinNumber:      req.BinNumber,
			Zone:           req.Zone,
			Latitude:       req.Latitude,
			Longitude:      req.Longitude,
			CapacityLiters: req.CapacityLiters,
			FillPercentage: req.FillPercentage,
			LidState:       models.LidClosed,
		}

		if err := reg.Register(bin); err != nil {
			if errors.Is(err, registry.ErrDuplicateID) {
				utils.Error(w, http.StatusConflict, "bin already registered")
				return
			}
			utils.Error(w, http.StatusInternalServerError, "failed to register bin")
			return
		}

		created, err := reg.Get(bin.ID)
		if err != nil {
			utils.Error(w, http.StatusInternalServerError, "failed to read bin back")
			return
		}
		utils.JSON(w, http.StatusCreated, created.ToBinResponse())
	}
}

func DeleteBin(reg *registry.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := reg.Deregister(id); err != nil {
			if errors.Is(err, registry.ErrNotFound) {
				utils.Error(w, http.StatusNotFound, "bin not found")
				return
			}
			utils.Error(w, http.StatusInternalServerError, "failed to deregister bin")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

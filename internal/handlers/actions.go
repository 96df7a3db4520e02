package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/AzahwaCelinaLatifa/smartecobin-pangaea/internal/actions"
	"github.com/AzahwaCelinaLatifa/smartecobin-pangaea/internal/database"
	"github.com/AzahwaCelinaLatifa/smartecobin-pangaea/internal/middleware"
	"github.com/AzahwaCelinaLatifa/smartecobin-pangaea/internal/models"
	"github.com/AzahwaCelinaLatifa/smartecobin-pangaea/pkg/utils"
)

type submitActionRequest struct {
	BinID         string             `json:"bin_id"`
	CommandType   models.CommandType `json:"command_type"`
	IssuedVersion int64              `json:"issued_version,omitempty"`
}

// SubmitAction resolves one control command. The requester identity comes
// from the verified claims on the request; callers without credentials act
// as the public role. The response always carries the full resolved
// command record, rejections included — a stale or invalid-state outcome is
// information, not an error.
func SubmitAction(arb *actions.Arbiter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, _ := middleware.GetUserFromContext(r)

		var req submitActionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if req.BinID == "" {
			utils.Error(w, http.StatusBadRequest, "bin_id is required")
			return
		}

		cmd, err := arb.Submit(actions.SubmitRequest{
			BinID:         req.BinID,
			Type:          req.CommandType,
			RequesterID:   claims.UserID,
			RequesterRole: claims.Role,
			IssuedVersion: req.IssuedVersion,
		})
		if errors.Is(err, actions.ErrUnknownCommand) {
			utils.Error(w, http.StatusBadRequest, "unknown command type")
			return
		}
		if err != nil {
			utils.Error(w, http.StatusInternalServerError, "command submission failed")
			return
		}

		status := http.StatusOK
		if cmd.Outcome == models.OutcomeRejectedUnauthorized {
			status = http.StatusForbidden
		}
		utils.JSON(w, status, cmd)
	}
}

// GetBinActions returns the audit trail of resolved commands for one bin.
func GetBinActions(store *database.ActionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		binID := chi.URLParam(r, "id")
		cmds, err := store.ListActionCommands(binID, 100)
		if err != nil {
			utils.Error(w, http.StatusInternalServerError, "failed to fetch actions")
			return
		}
		utils.JSON(w, http.StatusOK, cmds)
	}
}

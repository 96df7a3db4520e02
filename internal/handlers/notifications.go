package handlers

import (
	"net/http"
	"strconv"

	"github.com/AzahwaCelinaLatifa/smartecobin-pangaea/internal/database"
	"github.com/AzahwaCelinaLatifa/smartecobin-pangaea/pkg/utils"
)

// GetNotifications lists the notification history, newest first. Accepts
// optional ?bin_id= and ?limit= filters.
func GetNotifications(store *database.NotificationStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		binID := r.URL.Query().Get("bin_id")
		limit := 100
		if v := r.URL.Query().Get("limit"); v != "" {
			if parsed, err := strconv.Atoi(v); err == nil {
				limit = parsed
			}
		}

		notifications, err := store.ListNotifications(binID, limit)
		if err != nil {
			utils.Error(w, http.StatusInternalServerError, "failed to fetch notifications")
			return
		}
		utils.JSON(w, http.StatusOK, notifications)
	}
}

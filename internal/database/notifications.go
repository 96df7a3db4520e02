package database

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/AzahwaCelinaLatifa/smartecobin-pangaea/internal/models"
)

// NotificationStore persists notifications and their delivery outcomes. It
// implements alert.Store.
type NotificationStore struct {
	db *sqlx.DB
}

func NewNotificationStore(db *sqlx.DB) *NotificationStore {
	return &NotificationStore{db: db}
}

func (s *NotificationStore) InsertNotification(n models.Notification) error {
	_, err := s.db.Exec(`
		INSERT INTO notifications (id, bin_id, bin_number, severity, reason, message,
		                           bin_version, delivery_status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, n.ID, n.BinID, n.BinNumber, string(n.Severity), string(n.Reason), n.Message,
		n.BinVersion, string(n.DeliveryStatus), n.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert notification %s: %w", n.ID, err)
	}
	return nil
}

func (s *NotificationStore) UpdateNotificationStatus(id string, status models.DeliveryStatus) error {
	_, err := s.db.Exec(`UPDATE notifications SET delivery_status = $1 WHERE id = $2`, string(status), id)
	if err != nil {
		return fmt.Errorf("update notification %s: %w", id, err)
	}
	return nil
}

type notificationRow struct {
	ID             string `db:"id"`
	BinID          string `db:"bin_id"`
	BinNumber      int    `db:"bin_number"`
	Severity       string `db:"severity"`
	Reason         string `db:"reason"`
	Message        string `db:"message"`
	BinVersion     int64  `db:"bin_version"`
	DeliveryStatus string `db:"delivery_status"`
	CreatedAt      int64  `db:"created_at"`
}

// ListNotifications returns recent notifications, newest first, optionally
// filtered to one bin.
func (s *NotificationStore) ListNotifications(binID string, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	var rows []notificationRow
	var err error
	if binID != "" {
		err = s.db.Select(&rows, `
			SELECT id, bin_id, bin_number, severity, reason, message, bin_version, delivery_status, created_at
			FROM notifications WHERE bin_id = $1
			ORDER BY created_at DESC LIMIT $2
		`, binID, limit)
	} else {
		err = s.db.Select(&rows, `
			SELECT id, bin_id, bin_number, severity, reason, message, bin_version, delivery_status, created_at
			FROM notifications
			ORDER BY created_at DESC LIMIT $1
		`, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}

	out := make([]models.Notification, len(rows))
	for i, r := range rows {
		out[i] = models.Notification{
			ID:             r.ID,
			BinID:          r.BinID,
			BinNumber:      r.BinNumber,
			Severity:       models.Severity(r.Severity),
			Reason:         models.ReasonCode(r.Reason),
			Message:        r.Message,
			BinVersion:     r.BinVersion,
			DeliveryStatus: models.DeliveryStatus(r.DeliveryStatus),
			CreatedAt:      r.CreatedAt,
		}
	}
	return out, nil
}

package database

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

// FCMTokenStore keeps push tokens for staff devices.
type FCMTokenStore struct {
	db *sqlx.DB
}

func NewFCMTokenStore(db *sqlx.DB) *FCMTokenStore {
	return &FCMTokenStore{db: db}
}

// UpsertToken registers (or refreshes) one device token for a user.
func (s *FCMTokenStore) UpsertToken(userID, token, deviceType string) error {
	_, err := s.db.Exec(`
		INSERT INTO fcm_tokens (user_id, token, device_type)
		VALUES ($1, $2, $3)
		ON CONFLICT (token) DO UPDATE SET
			user_id = EXCLUDED.user_id,
			device_type = EXCLUDED.device_type,
			updated_at = EXTRACT(EPOCH FROM NOW())::BIGINT
	`, userID, token, deviceType)
	if err != nil {
		return fmt.Errorf("upsert fcm token: %w", err)
	}
	return nil
}

// StaffTokens returns every registered token belonging to officers and
// admins — the audience for bin alerts.
func (s *FCMTokenStore) StaffTokens() ([]string, error) {
	var tokens []string
	err := s.db.Select(&tokens, `
		SELECT t.token
		FROM fcm_tokens t
		JOIN users u ON u.id = t.user_id
		WHERE u.role IN ('officer', 'admin')
	`)
	if err != nil {
		return nil, fmt.Errorf("staff tokens: %w", err)
	}
	return tokens, nil
}

package database

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/AzahwaCelinaLatifa/smartecobin-pangaea/internal/models"
)

// ActionStore retains resolved commands as audit records. It implements
// actions.Audit.
type ActionStore struct {
	db *sqlx.DB
}

func NewActionStore(db *sqlx.DB) *ActionStore {
	return &ActionStore{db: db}
}

func (s *ActionStore) InsertActionCommand(cmd models.ActionCommand) error {
	_, err := s.db.Exec(`
		INSERT INTO action_commands (id, bin_id, command_type, requester_id, requester_role,
		                             requested_at, issued_version, outcome, detail,
		                             resolved_version, resolved_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, cmd.ID, cmd.BinID, string(cmd.Type), cmd.RequesterID, cmd.RequesterRole,
		cmd.RequestedAt, cmd.IssuedVersion, string(cmd.Outcome), cmd.Detail,
		cmd.ResolvedVersion, cmd.ResolvedAt)
	if err != nil {
		return fmt.Errorf("insert action command %s: %w", cmd.ID, err)
	}
	return nil
}

type actionRow struct {
	ID              string `db:"id"`
	BinID           string `db:"bin_id"`
	CommandType     string `db:"command_type"`
	RequesterID     string `db:"requester_id"`
	RequesterRole   string `db:"requester_role"`
	RequestedAt     int64  `db:"requested_at"`
	IssuedVersion   int64  `db:"issued_version"`
	Outcome         string `db:"outcome"`
	Detail          string `db:"detail"`
	ResolvedVersion int64  `db:"resolved_version"`
	ResolvedAt      int64  `db:"resolved_at"`
}

// ListActionCommands returns the audit trail for one bin, newest first.
func (s *ActionStore) ListActionCommands(binID string, limit int) ([]models.ActionCommand, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	var rows []actionRow
	err := s.db.Select(&rows, `
		SELECT id, bin_id, command_type, requester_id, requester_role, requested_at,
		       issued_version, outcome, detail, resolved_version, resolved_at
		FROM action_commands WHERE bin_id = $1
		ORDER BY requested_at DESC LIMIT $2
	`, binID, limit)
	if err != nil {
		return nil, fmt.Errorf("list action commands: %w", err)
	}

	out := make([]models.ActionCommand, len(rows))
	for i, r := range rows {
		out[i] = models.ActionCommand{
			ID:              r.ID,
			BinID:           r.BinID,
			Type:            models.CommandType(r.CommandType),
			RequesterID:     r.RequesterID,
			RequesterRole:   r.RequesterRole,
			RequestedAt:     r.RequestedAt,
			IssuedVersion:   r.IssuedVersion,
			Outcome:         models.Outcome(r.Outcome),
			Detail:          r.Detail,
			ResolvedVersion: r.ResolvedVersion,
			ResolvedAt:      r.ResolvedAt,
		}
	}
	return out, nil
}

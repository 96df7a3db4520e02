package database

import (
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/AzahwaCelinaLatifa/smartecobin-pangaea/internal/models"
)

// BinStore persists registry snapshots. It implements registry.Persister.
type BinStore struct {
	db *sqlx.DB
}

func NewBinStore(db *sqlx.DB) *BinStore {
	return &BinStore{db: db}
}

// binRow maps the bins table; the per-device sequence and active-alert maps
// travel as JSONB.
type binRow struct {
	ID             string   `db:"id"`
	BinNumber      int      `db:"bin_number"`
	Zone           string   `db:"zone"`
	Latitude       *float64 `db:"latitude"`
	Longitude      *float64 `db:"longitude"`
	CapacityLiters int      `db:"capacity_liters"`
	FillPercentage int      `db:"fill_percentage"`
	LidState       string   `db:"lid_state"`
	BatteryLow     bool     `db:"battery_low"`
	DeviceFault    bool     `db:"device_fault"`
	LastReadingAt  *int64   `db:"last_reading_at"`
	LastActionAt   *int64   `db:"last_action_at"`
	Version        int64    `db:"version"`
	DeviceSeqs     []byte   `db:"device_seqs"`
	ActiveAlerts   []byte   `db:"active_alerts"`
	CreatedAt      int64    `db:"created_at"`
	UpdatedAt      int64    `db:"updated_at"`
}

// SaveBin upserts one snapshot. The version guard keeps a late-arriving
// older snapshot from clobbering a newer row; the registry persists outside
// its lock, so snapshots may arrive out of order.
func (s *BinStore) SaveBin(b *models.Bin) error {
	seqs, err := json.Marshal(b.DeviceSeqs)
	if err != nil {
		return fmt.Errorf("marshal device seqs: %w", err)
	}
	alerts, err := json.Marshal(b.ActiveAlerts)
	if err != nil {
		return fmt.Errorf("marshal active alerts: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO bins (id, bin_number, zone, latitude, longitude, capacity_liters,
		                  fill_percentage, lid_state, battery_low, device_fault,
		                  last_reading_at, last_action_at, version, device_seqs, active_alerts,
		                  created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (id) DO UPDATE SET
			zone = EXCLUDED.zone,
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			capacity_liters = EXCLUDED.capacity_liters,
			fill_percentage = EXCLUDED.fill_percentage,
			lid_state = EXCLUDED.lid_state,
			battery_low = EXCLUDED.battery_low,
			device_fault = EXCLUDED.device_fault,
			last_reading_at = EXCLUDED.last_reading_at,
			last_action_at = EXCLUDED.last_action_at,
			version = EXCLUDED.version,
			device_seqs = EXCLUDED.device_seqs,
			active_alerts = EXCLUDED.active_alerts,
			updated_at = EXCLUDED.updated_at
		WHERE bins.version < EXCLUDED.version
	`, b.ID, b.BinNumber, b.Zone, b.Latitude, b.Longitude, b.CapacityLiters,
		b.FillPercentage, string(b.LidState), b.BatteryLow, b.DeviceFault,
		b.LastReadingAt, b.LastActionAt, b.Version, seqs, alerts,
		b.CreatedAt, b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save bin %s: %w", b.ID, err)
	}
	return nil
}

// DeleteBin removes a deregistered bin's snapshot.
func (s *BinStore) DeleteBin(binID string) error {
	if _, err := s.db.Exec(`DELETE FROM bins WHERE id = $1`, binID); err != nil {
		return fmt.Errorf("delete bin %s: %w", binID, err)
	}
	return nil
}

// LoadBins reads every snapshot; called once at startup to seed the registry.
func (s *BinStore) LoadBins() ([]*models.Bin, error) {
	var rows []binRow
	err := s.db.Select(&rows, `
		SELECT id, bin_number, zone, latitude, longitude, capacity_liters,
		       fill_percentage, lid_state, battery_low, device_fault,
		       last_reading_at, last_action_at, version, device_seqs, active_alerts,
		       created_at, updated_at
		FROM bins
		ORDER BY bin_number ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("load bins: %w", err)
	}

	bins := make([]*models.Bin, 0, len(rows))
	for _, r := range rows {
		b := &models.Bin{
			ID:             r.ID,
			BinNumber:      r.BinNumber,
			Zone:           r.Zone,
			Latitude:       r.Latitude,
			Longitude:      r.Longitude,
			CapacityLiters: r.CapacityLiters,
			FillPercentage: r.FillPercentage,
			LidState:       models.LidState(r.LidState),
			BatteryLow:     r.BatteryLow,
			DeviceFault:    r.DeviceFault,
			LastReadingAt:  r.LastReadingAt,
			LastActionAt:   r.LastActionAt,
			Version:        r.Version,
			CreatedAt:      r.CreatedAt,
			UpdatedAt:      r.UpdatedAt,
		}
		if len(r.DeviceSeqs) > 0 {
			if err := json.Unmarshal(r.DeviceSeqs, &b.DeviceSeqs); err != nil {
				return nil, fmt.Errorf("bin %s device seqs: %w", r.ID, err)
			}
		}
		if len(r.ActiveAlerts) > 0 {
			if err := json.Unmarshal(r.ActiveAlerts, &b.ActiveAlerts); err != nil {
				return nil, fmt.Errorf("bin %s active alerts: %w", r.ID, err)
			}
		}
		bins = append(bins, b)
	}
	return bins, nil
}

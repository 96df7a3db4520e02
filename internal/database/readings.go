package database

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/AzahwaCelinaLatifa/smartecobin-pangaea/internal/models"
)

// ReadingStore archives accepted sensor readings. Rows are insert-only.
type ReadingStore struct {
	db *sqlx.DB
}

func NewReadingStore(db *sqlx.DB) *ReadingStore {
	return &ReadingStore{db: db}
}

func (s *ReadingStore) InsertReading(r models.SensorReading, binVersion int64) error {
	deviceID := r.DeviceID
	if deviceID == "" {
		deviceID = r.BinID
	}
	_, err := s.db.Exec(`
		INSERT INTO sensor_readings (bin_id, device_id, fill_percentage, sequence_number,
		                             device_timestamp, battery_low, device_fault, bin_version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, r.BinID, deviceID, r.FillPercentage, r.SequenceNumber,
		r.DeviceTime, r.Health.BatteryLow, r.Health.DeviceFault, binVersion)
	if err != nil {
		return fmt.Errorf("archive reading bin=%s seq=%d: %w", r.BinID, r.SequenceNumber, err)
	}
	return nil
}

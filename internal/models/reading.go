package models

// HealthFlags are the device-reported health bits that ride along with
// every fill-level reading.
type HealthFlags struct {
	BatteryLow  bool `json:"battery_low"`
	DeviceFault bool `json:"device_fault"`
}

// SensorReading is one telemetry record from a bin's sensor. Immutable
// once accepted; the ingestor consumes it exactly once and the archive
// keeps an insert-only copy.
type SensorReading struct {
	BinID          string      `json:"bin_id"`
	DeviceID       string      `json:"device_id,omitempty"` // defaults to the bin's built-in sensor
	FillPercentage int         `json:"fill_percentage"`
	SequenceNumber int64       `json:"sequence_number"` // monotonic per device
	DeviceTime     int64       `json:"device_timestamp"` // Unix timestamp, device clock
	Health         HealthFlags `json:"health"`
}

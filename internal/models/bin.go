package models

import "time"

// LidState is the bin's lid/compactor actuator state.
type LidState string

const (
	LidClosed     LidState = "closed"
	LidOpen       LidState = "open"
	LidCompacting LidState = "compacting"
	LidFault      LidState = "fault"
)

// Bin is the authoritative state of one smart bin. It is owned by the
// registry; everything outside the registry works on clones.
type Bin struct {
	ID             string   `json:"id"`
	BinNumber      int      `json:"bin_number"`
	Zone           string   `json:"zone"`
	Latitude       *float64 `json:"latitude,omitempty"`
	Longitude      *float64 `json:"longitude,omitempty"`
	CapacityLiters int      `json:"capacity_liters"`

	FillPercentage int      `json:"fill_percentage"` // always within [0,100]
	LidState       LidState `json:"lid_state"`
	BatteryLow     bool     `json:"battery_low"`
	DeviceFault    bool     `json:"device_fault"`

	LastReadingAt *int64 `json:"last_reading_at,omitempty"` // Unix timestamp
	LastActionAt  *int64 `json:"last_action_at,omitempty"`  // Unix timestamp

	// Version increments on every accepted mutation and never decreases.
	Version int64 `json:"version"`

	// DeviceSeqs holds the last applied sequence number per reporting device.
	DeviceSeqs map[string]int64 `json:"device_seqs,omitempty"`

	// ActiveAlerts is the set of currently firing reason codes, keyed to the
	// severity they last fired at. Maintained by the alert engine inside the
	// same compare-and-apply step as the bin mutation, so de-duplication
	// never races with the state it derives from.
	ActiveAlerts map[ReasonCode]Severity `json:"active_alerts,omitempty"`

	CreatedAt int64 `json:"created_at"`
	UpdatedAt int64 `json:"updated_at"`
}

// Clone returns a deep copy, including the per-device sequence and
// active-alert maps.
func (b *Bin) Clone() *Bin {
	c := *b
	if b.Latitude != nil {
		v := *b.Latitude
		c.Latitude = &v
	}
	if b.Longitude != nil {
		v := *b.Longitude
		c.Longitude = &v
	}
	if b.LastReadingAt != nil {
		v := *b.LastReadingAt
		c.LastReadingAt = &v
	}
	if b.LastActionAt != nil {
		v := *b.LastActionAt
		c.LastActionAt = &v
	}
	if b.DeviceSeqs != nil {
		c.DeviceSeqs = make(map[string]int64, len(b.DeviceSeqs))
		for k, v := range b.DeviceSeqs {
			c.DeviceSeqs[k] = v
		}
	}
	if b.ActiveAlerts != nil {
		c.ActiveAlerts = make(map[ReasonCode]Severity, len(b.ActiveAlerts))
		for k, v := range b.ActiveAlerts {
			c.ActiveAlerts[k] = v
		}
	}
	return &c
}

// BinResponse is the dashboard-facing view of a bin with ISO timestamps.
type BinResponse struct {
	ID             string   `json:"id"`
	BinNumber      int      `json:"bin_number"`
	Zone           string   `json:"zone"`
	Latitude       *float64 `json:"latitude,omitempty"`
	Longitude      *float64 `json:"longitude,omitempty"`
	CapacityLiters int      `json:"capacity_liters"`
	FillPercentage int      `json:"fill_percentage"`
	LidState       LidState `json:"lid_state"`
	BatteryLow     bool     `json:"battery_low"`
	DeviceFault    bool     `json:"device_fault"`
	LastReadingIso *string  `json:"lastReadingIso,omitempty"`
	LastActionIso  *string  `json:"lastActionIso,omitempty"`
	Version        int64    `json:"version"`
}

// ToBinResponse converts a Bin to BinResponse
func (b *Bin) ToBinResponse() BinResponse {
	resp := BinResponse{
		ID:             b.ID,
		BinNumber:      b.BinNumber,
		Zone:           b.Zone,
		Latitude:       b.Latitude,
		Longitude:      b.Longitude,
		CapacityLiters: b.CapacityLiters,
		FillPercentage: b.FillPercentage,
		LidState:       b.LidState,
		BatteryLow:     b.BatteryLow,
		DeviceFault:    b.DeviceFault,
		Version:        b.Version,
	}

	if b.LastReadingAt != nil {
		iso := time.Unix(*b.LastReadingAt, 0).UTC().Format(time.RFC3339)
		resp.LastReadingIso = &iso
	}
	if b.LastActionAt != nil {
		iso := time.Unix(*b.LastActionAt, 0).UTC().Format(time.RFC3339)
		resp.LastActionIso = &iso
	}

	return resp
}

// CreateBinRequest is the request body for POST /api/bins
type CreateBinRequest struct {
	BinNumber      int      `json:"bin_number"`
	Zone           string   `json:"zone"`
	Latitude       *float64 `json:"latitude,omitempty"`
	Longitude      *float64 `json:"longitude,omitempty"`
	CapacityLiters int      `json:"capacity_liters"`
	FillPercentage int      `json:"fill_percentage"`
}

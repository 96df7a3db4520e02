package models

type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

type ReasonCode string

const (
	ReasonFillThreshold ReasonCode = "fill-threshold"
	ReasonFillCleared   ReasonCode = "fill-cleared"
	ReasonDeviceFault   ReasonCode = "device-fault"
	ReasonActionFailed  ReasonCode = "action-failed"
)

type DeliveryStatus string

const (
	DeliveryPending    DeliveryStatus = "pending"
	DeliveryDelivered  DeliveryStatus = "delivered"
	DeliverySuppressed DeliveryStatus = "suppressed"
)

// Notification is one alert raised for a bin. At most one pending or
// delivered notification per (bin, reason) exists per threshold crossing;
// the bin's ActiveAlerts set enforces that at emit time.
type Notification struct {
	ID             string         `json:"id"`
	BinID          string         `json:"bin_id"`
	BinNumber      int            `json:"bin_number"`
	Severity       Severity       `json:"severity"`
	Reason         ReasonCode     `json:"reason"`
	Message        string         `json:"message"`
	BinVersion     int64          `json:"bin_version"` // version of the mutation that triggered it
	CreatedAt      int64          `json:"created_at"`
	DeliveryStatus DeliveryStatus `json:"delivery_status"`
}

package alert

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/AzahwaCelinaLatifa/smartecobin-pangaea/internal/models"
)

// Engine decides which notifications a bin state transition fires. It is
// deliberately pure: Evaluate is called inside the registry's
// compare-and-apply step, reads prev vs next, updates next.ActiveAlerts,
// and returns the notifications to emit. It never returns an error — a
// missed alert is preferable to blocking telemetry ingestion.
type Engine struct {
	loader *Loader
}

func NewEngine(loader *Loader) *Engine {
	return &Engine{loader: loader}
}

// Evaluate applies the threshold rules to a (previous, next) state pair.
// Rules run in fixed order, first match per category wins:
//  1. fill level crossing critical, then warning
//  2. fill level dropping back below warning minus hysteresis (config-gated)
//  3. device fault
//
// Re-firing is suppressed through next.ActiveAlerts, which lives on the bin
// itself so de-duplication commits atomically with the mutation: crossing a
// threshold again without first dropping below threshold-minus-hysteresis
// never produces a second notification.
func (e *Engine) Evaluate(prev, next *models.Bin) []models.Notification {
	cfg := e.loader.Config()

	var out []models.Notification
	if next.ActiveAlerts == nil {
		next.ActiveAlerts = make(map[models.ReasonCode]models.Severity)
	}

	// Fill-level category.
	active := next.ActiveAlerts[models.ReasonFillThreshold]
	switch {
	case next.FillPercentage >= cfg.CriticalThreshold:
		if active != models.SeverityCritical {
			next.ActiveAlerts[models.ReasonFillThreshold] = models.SeverityCritical
			out = append(out, e.build(next, models.SeverityCritical, models.ReasonFillThreshold,
				fmt.Sprintf("Bin #%d is %d%% full (critical threshold %d%%)", next.BinNumber, next.FillPercentage, cfg.CriticalThreshold)))
		}
	case next.FillPercentage >= cfg.WarningThreshold:
		if active == "" {
			next.ActiveAlerts[models.ReasonFillThreshold] = models.SeverityWarning
			out = append(out, e.build(next, models.SeverityWarning, models.ReasonFillThreshold,
				fmt.Sprintf("Bin #%d is %d%% full (warning threshold %d%%)", next.BinNumber, next.FillPercentage, cfg.WarningThreshold)))
		} else if active == models.SeverityCritical && next.FillPercentage < cfg.CriticalThreshold-cfg.Hysteresis {
			// Dropped out of the critical band: critical re-arms, the
			// warning stays latched without re-firing.
			next.ActiveAlerts[models.ReasonFillThreshold] = models.SeverityWarning
		}
	case next.FillPercentage < cfg.WarningThreshold-cfg.Hysteresis:
		// Fully below the warning band: the category re-arms.
		if active != "" {
			delete(next.ActiveAlerts, models.ReasonFillThreshold)
			if cfg.EmitCleared {
				out = append(out, e.build(next, models.SeverityInfo, models.ReasonFillCleared,
					fmt.Sprintf("Bin #%d dropped to %d%% full", next.BinNumber, next.FillPercentage)))
			}
		}
	default:
		// Inside the hysteresis band below critical: a critical alert
		// downgrades so it can re-fire, the warning stays latched.
		if active == models.SeverityCritical && next.FillPercentage < cfg.CriticalThreshold-cfg.Hysteresis {
			next.ActiveAlerts[models.ReasonFillThreshold] = models.SeverityWarning
		}
	}

	// Device-fault category.
	if next.DeviceFault {
		if _, firing := next.ActiveAlerts[models.ReasonDeviceFault]; !firing {
			next.ActiveAlerts[models.ReasonDeviceFault] = models.SeverityCritical
			out = append(out, e.build(next, models.SeverityCritical, models.ReasonDeviceFault,
				fmt.Sprintf("Bin #%d reported a device fault", next.BinNumber)))
		}
	} else if prev.DeviceFault {
		// Fault gone: re-arm silently.
		delete(next.ActiveAlerts, models.ReasonDeviceFault)
	}

	return out
}

func (e *Engine) build(b *models.Bin, sev models.Severity, reason models.ReasonCode, msg string) models.Notification {
	return models.Notification{
		ID:             uuid.New().String(),
		BinID:          b.ID,
		BinNumber:      b.BinNumber,
		Severity:       sev,
		Reason:         reason,
		Message:        msg,
		BinVersion:     b.Version,
		CreatedAt:      time.Now().Unix(),
		DeliveryStatus: models.DeliveryPending,
	}
}

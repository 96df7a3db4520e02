package alert

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AzahwaCelinaLatifa/smartecobin-pangaea/internal/models"
)

func engineWith(cfg Config) *Engine {
	return NewEngine(&Loader{current: cfg})
}

// step feeds one fill level through the engine the way the ingestor does:
// clone the bin, apply the new level, evaluate prev vs next, commit next.
func step(e *Engine, bin *models.Bin, fill int) (*models.Bin, []models.Notification) {
	next := bin.Clone()
	next.Version++
	next.FillPercentage = fill
	notes := e.Evaluate(bin, next)
	return next, notes
}

func TestFillThresholdLifecycle(t *testing.T) {
	e := engineWith(DefaultConfig()) // warn 80, crit 95, hysteresis 5
	bin := &models.Bin{ID: "bin-1", BinNumber: 7, LidState: models.LidClosed}

	// 70: below everything, quiet.
	bin, notes := step(e, bin, 70)
	assert.Empty(t, notes)

	// 82: crosses warning.
	bin, notes = step(e, bin, 82)
	require.Len(t, notes, 1)
	assert.Equal(t, models.SeverityWarning, notes[0].Severity)
	assert.Equal(t, models.ReasonFillThreshold, notes[0].Reason)
	assert.Equal(t, bin.Version, notes[0].BinVersion)

	// 90: still in the warning band, latched, no re-fire.
	bin, notes = step(e, bin, 90)
	assert.Empty(t, notes)

	// 96: crosses critical.
	bin, notes = step(e, bin, 96)
	require.Len(t, notes, 1)
	assert.Equal(t, models.SeverityCritical, notes[0].Severity)

	// 60: collected. Drops below warning-hysteresis, latch clears silently
	// (emit_cleared defaults to false).
	bin, notes = step(e, bin, 60)
	assert.Empty(t, notes)
	assert.NotContains(t, bin.ActiveAlerts, models.ReasonFillThreshold)

	// 85: the warning fires again after the re-arm.
	_, notes = step(e, bin, 85)
	require.Len(t, notes, 1)
	assert.Equal(t, models.SeverityWarning, notes[0].Severity)
}

func TestCriticalDedupAndRearm(t *testing.T) {
	e := engineWith(DefaultConfig())
	bin := &models.Bin{ID: "bin-1", BinNumber: 7}

	bin, notes := step(e, bin, 96)
	require.Len(t, notes, 1)
	assert.Equal(t, models.SeverityCritical, notes[0].Severity)

	// 92 is inside the critical hysteresis band (>= 90): stays latched.
	bin, notes = step(e, bin, 92)
	assert.Empty(t, notes)

	// Back above critical without leaving the band: no second notification.
	bin, notes = step(e, bin, 97)
	assert.Empty(t, notes)

	// 88 drops out of the critical band; the critical re-arms but the
	// warning stays latched without re-firing.
	bin, notes = step(e, bin, 88)
	assert.Empty(t, notes)
	assert.Equal(t, models.SeverityWarning, bin.ActiveAlerts[models.ReasonFillThreshold])

	// Re-crossing critical now fires again.
	_, notes = step(e, bin, 96)
	require.Len(t, notes, 1)
	assert.Equal(t, models.SeverityCritical, notes[0].Severity)
}

func TestHysteresisBandHoldsLatch(t *testing.T) {
	e := engineWith(DefaultConfig())
	bin := &models.Bin{ID: "bin-1", BinNumber: 7}

	bin, notes := step(e, bin, 84)
	require.Len(t, notes, 1)

	// 78 is inside [75,80): latched, no clear, no re-fire room.
	bin, notes = step(e, bin, 78)
	assert.Empty(t, notes)
	assert.Equal(t, models.SeverityWarning, bin.ActiveAlerts[models.ReasonFillThreshold])

	// Bouncing back up must stay silent.
	_, notes = step(e, bin, 83)
	assert.Empty(t, notes)
}

func TestEmitClearedNotification(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EmitCleared = true
	e := engineWith(cfg)
	bin := &models.Bin{ID: "bin-1", BinNumber: 7}

	bin, _ = step(e, bin, 85)
	_, notes := step(e, bin, 40)
	require.Len(t, notes, 1)
	assert.Equal(t, models.SeverityInfo, notes[0].Severity)
	assert.Equal(t, models.ReasonFillCleared, notes[0].Reason)
}

func TestJumpStraightToCritical(t *testing.T) {
	e := engineWith(DefaultConfig())
	bin := &models.Bin{ID: "bin-1", BinNumber: 7}

	// A single reading can skip the warning band entirely; only the
	// critical fires.
	_, notes := step(e, bin, 100)
	require.Len(t, notes, 1)
	assert.Equal(t, models.SeverityCritical, notes[0].Severity)
}

func TestDeviceFaultLatch(t *testing.T) {
	e := engineWith(DefaultConfig())
	bin := &models.Bin{ID: "bin-1", BinNumber: 7}

	fault := func(b *models.Bin, faulted bool) (*models.Bin, []models.Notification) {
		next := b.Clone()
		next.Version++
		next.DeviceFault = faulted
		return next, e.Evaluate(b, next)
	}

	bin, notes := fault(bin, true)
	require.Len(t, notes, 1)
	assert.Equal(t, models.ReasonDeviceFault, notes[0].Reason)
	assert.Equal(t, models.SeverityCritical, notes[0].Severity)

	// Fault persists across readings: latched, single notification.
	bin, notes = fault(bin, true)
	assert.Empty(t, notes)

	// Fault clears silently and re-arms.
	bin, notes = fault(bin, false)
	assert.Empty(t, notes)
	assert.NotContains(t, bin.ActiveAlerts, models.ReasonDeviceFault)

	_, notes = fault(bin, true)
	require.Len(t, notes, 1)
}

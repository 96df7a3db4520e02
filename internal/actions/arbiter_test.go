package actions

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AzahwaCelinaLatifa/smartecobin-pangaea/internal/alert"
	"github.com/AzahwaCelinaLatifa/smartecobin-pangaea/internal/models"
	"github.com/AzahwaCelinaLatifa/smartecobin-pangaea/internal/registry"
)

type fakeAudit struct {
	mu   sync.Mutex
	cmds []models.ActionCommand
}

func (f *fakeAudit) InsertActionCommand(cmd models.ActionCommand) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cmds = append(f.cmds, cmd)
	return nil
}

type noteStore struct {
	mu       sync.Mutex
	inserted []models.Notification
}

func (s *noteStore) InsertNotification(n models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inserted = append(s.inserted, n)
	return nil
}

func (s *noteStore) UpdateNotificationStatus(id string, status models.DeliveryStatus) error {
	return nil
}

func newTestArbiter(t *testing.T, state models.LidState) (*Arbiter, *registry.Registry, *fakeAudit, *noteStore) {
	t.Helper()
	reg := registry.New(nil)
	require.NoError(t, reg.Register(&models.Bin{
		ID:        "bin-1",
		BinNumber: 7,
		LidState:  state,
	}))
	audit := &fakeAudit{}
	store := &noteStore{}
	dispatcher := alert.NewDispatcher(store, nil, 32)
	return New(reg, dispatcher, audit, nil), reg, audit, store
}

func TestSubmitUnknownCommand(t *testing.T) {
	arb, _, audit, _ := newTestArbiter(t, models.LidClosed)

	_, err := arb.Submit(SubmitRequest{BinID: "bin-1", Type: "self-destruct"})
	assert.ErrorIs(t, err, ErrUnknownCommand)
	assert.Empty(t, audit.cmds)
}

func TestSubmitPublicOpenLid(t *testing.T) {
	arb, reg, audit, _ := newTestArbiter(t, models.LidClosed)

	cmd, err := arb.Submit(SubmitRequest{
		BinID: "bin-1",
		Type:  models.CommandOpenLid,
		// no requester: anonymous public caller
	})
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeCompleted, cmd.Outcome)
	assert.Equal(t, models.RolePublic, cmd.RequesterRole)
	assert.Equal(t, int64(1), cmd.ResolvedVersion)
	assert.NotZero(t, cmd.ResolvedAt)

	bin, _ := reg.Get("bin-1")
	assert.Equal(t, models.LidOpen, bin.LidState)
	require.NotNil(t, bin.LastActionAt)

	require.Len(t, audit.cmds, 1)
	assert.Equal(t, models.OutcomeCompleted, audit.cmds[0].Outcome)
}

func TestSubmitPublicStartCompactUnauthorized(t *testing.T) {
	arb, reg, audit, _ := newTestArbiter(t, models.LidClosed)

	cmd, err := arb.Submit(SubmitRequest{
		BinID:         "bin-1",
		Type:          models.CommandStartCompact,
		RequesterRole: models.RolePublic,
	})
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeRejectedUnauthorized, cmd.Outcome)

	// Rejected before the registry is touched: state and version unchanged.
	bin, _ := reg.Get("bin-1")
	assert.Equal(t, models.LidClosed, bin.LidState)
	assert.Equal(t, int64(0), bin.Version)

	require.Len(t, audit.cmds, 1)
	assert.Equal(t, models.OutcomeRejectedUnauthorized, audit.cmds[0].Outcome)
}

func TestSubmitOfficerStartCompact(t *testing.T) {
	arb, reg, _, _ := newTestArbiter(t, models.LidClosed)

	cmd, err := arb.Submit(SubmitRequest{
		BinID:         "bin-1",
		Type:          models.CommandStartCompact,
		RequesterID:   "officer-1",
		RequesterRole: models.RoleOfficer,
	})
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeCompleted, cmd.Outcome)

	bin, _ := reg.Get("bin-1")
	assert.Equal(t, models.LidCompacting, bin.LidState)
}

func TestSubmitInvalidTransition(t *testing.T) {
	arb, reg, _, _ := newTestArbiter(t, models.LidClosed)

	// reset-fault only applies from the fault state.
	cmd, err := arb.Submit(SubmitRequest{
		BinID:         "bin-1",
		Type:          models.CommandResetFault,
		RequesterRole: models.RoleOfficer,
	})
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeRejectedInvalidState, cmd.Outcome)
	assert.Contains(t, cmd.Detail, "closed")

	bin, _ := reg.Get("bin-1")
	assert.Equal(t, models.LidClosed, bin.LidState)
	assert.Equal(t, int64(0), bin.Version)
}

func TestSubmitOpenLidWhileCompacting(t *testing.T) {
	arb, _, _, _ := newTestArbiter(t, models.LidCompacting)

	cmd, err := arb.Submit(SubmitRequest{BinID: "bin-1", Type: models.CommandOpenLid})
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeRejectedInvalidState, cmd.Outcome)
}

func TestSubmitCloseLidFromCompacting(t *testing.T) {
	arb, reg, _, _ := newTestArbiter(t, models.LidCompacting)

	cmd, err := arb.Submit(SubmitRequest{BinID: "bin-1", Type: models.CommandCloseLid})
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeCompleted, cmd.Outcome)

	bin, _ := reg.Get("bin-1")
	assert.Equal(t, models.LidClosed, bin.LidState)
}

func TestSubmitResetFaultClearsFault(t *testing.T) {
	arb, reg, _, _ := newTestArbiter(t, models.LidFault)

	// Simulate the fault alert latched by a prior fault reading.
	_, err := reg.CompareAndApply("bin-1", registry.VersionAny, func(b *models.Bin) error {
		b.DeviceFault = true
		b.ActiveAlerts = map[models.ReasonCode]models.Severity{
			models.ReasonDeviceFault: models.SeverityCritical,
		}
		return nil
	})
	require.NoError(t, err)

	cmd, err := arb.Submit(SubmitRequest{
		BinID:         "bin-1",
		Type:          models.CommandResetFault,
		RequesterID:   "officer-1",
		RequesterRole: models.RoleOfficer,
	})
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeCompleted, cmd.Outcome)

	bin, _ := reg.Get("bin-1")
	assert.Equal(t, models.LidClosed, bin.LidState)
	assert.False(t, bin.DeviceFault)
	assert.NotContains(t, bin.ActiveAlerts, models.ReasonDeviceFault)
}

func TestSubmitStaleVersion(t *testing.T) {
	arb, reg, _, _ := newTestArbiter(t, models.LidClosed)

	// Move the bin past the version the caller saw.
	_, err := reg.CompareAndApply("bin-1", registry.VersionAny, func(b *models.Bin) error { return nil })
	require.NoError(t, err)

	cmd, err := arb.Submit(SubmitRequest{
		BinID:         "bin-1",
		Type:          models.CommandStartCompact,
		RequesterRole: models.RoleOfficer,
		IssuedVersion: 5,
	})
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeRejectedStale, cmd.Outcome)

	bin, _ := reg.Get("bin-1")
	assert.Equal(t, models.LidClosed, bin.LidState)
}

func TestSubmitPinnedVersionMatches(t *testing.T) {
	arb, reg, _, _ := newTestArbiter(t, models.LidClosed)

	_, err := reg.CompareAndApply("bin-1", registry.VersionAny, func(b *models.Bin) error { return nil })
	require.NoError(t, err)

	cmd, err := arb.Submit(SubmitRequest{
		BinID:         "bin-1",
		Type:          models.CommandStartCompact,
		RequesterRole: models.RoleOfficer,
		IssuedVersion: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeCompleted, cmd.Outcome)
	assert.Equal(t, int64(2), cmd.ResolvedVersion)
}

func TestSubmitUnknownBinFailsWithNotification(t *testing.T) {
	arb, _, audit, store := newTestArbiter(t, models.LidClosed)

	cmd, err := arb.Submit(SubmitRequest{
		BinID:         "ghost",
		Type:          models.CommandOpenLid,
		RequesterRole: models.RoleOfficer,
	})
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeFailed, cmd.Outcome)
	assert.Equal(t, "bin not found", cmd.Detail)

	require.Len(t, audit.cmds, 1)

	// Failed commands raise an action-failed warning so staff notice
	// unresponsive bins.
	require.Len(t, store.inserted, 1)
	assert.Equal(t, models.ReasonActionFailed, store.inserted[0].Reason)
	assert.Equal(t, models.SeverityWarning, store.inserted[0].Severity)
}

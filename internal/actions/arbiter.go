package actions

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/AzahwaCelinaLatifa/smartecobin-pangaea/internal/alert"
	"github.com/AzahwaCelinaLatifa/smartecobin-pangaea/internal/metrics"
	"github.com/AzahwaCelinaLatifa/smartecobin-pangaea/internal/models"
	"github.com/AzahwaCelinaLatifa/smartecobin-pangaea/internal/registry"
)

// ErrUnknownCommand rejects malformed submissions before anything is
// audited or touched.
var ErrUnknownCommand = errors.New("unknown command type")

// errInvalidTransition aborts the compare-and-apply closure.
var errInvalidTransition = errors.New("transition not allowed")

// transition is one row of the allowed lid/compactor state machine. The
// fault state is only ever entered from an external fault signal (see the
// ingestor), never from a command.
type transition struct {
	from models.LidState
	to   models.LidState
}

var transitions = map[models.CommandType][]transition{
	models.CommandOpenLid:      {{models.LidClosed, models.LidOpen}},
	models.CommandCloseLid:     {{models.LidOpen, models.LidClosed}, {models.LidCompacting, models.LidClosed}},
	models.CommandStartCompact: {{models.LidClosed, models.LidCompacting}},
	models.CommandResetFault:   {{models.LidFault, models.LidClosed}},
}

var allowedRoles = map[models.CommandType]map[string]bool{
	models.CommandOpenLid:      {models.RolePublic: true, models.RoleOfficer: true, models.RoleAdmin: true},
	models.CommandCloseLid:     {models.RolePublic: true, models.RoleOfficer: true, models.RoleAdmin: true},
	models.CommandStartCompact: {models.RoleOfficer: true, models.RoleAdmin: true},
	models.CommandResetFault:   {models.RoleOfficer: true, models.RoleAdmin: true},
}

// SubmitRequest is one control request against a bin. The requester
// identity arrives pre-verified from the auth boundary; unauthenticated
// callers are the public role.
type SubmitRequest struct {
	BinID         string             `json:"bin_id"`
	Type          models.CommandType `json:"command_type"`
	RequesterID   string             `json:"requester_id"`
	RequesterRole string             `json:"requester_role"`
	// IssuedVersion, when positive, pins the command to the bin version the
	// caller saw; a mismatch resolves as rejected-stale instead of applying.
	IssuedVersion int64 `json:"issued_version,omitempty"`
}

// Audit retains resolved commands as immutable records.
type Audit interface {
	InsertActionCommand(cmd models.ActionCommand) error
}

// Broadcaster pushes state changes to live dashboard clients.
type Broadcaster interface {
	BinUpdated(b *models.Bin)
}

// Arbiter resolves action commands against bin state. It shares the
// registry's compare-and-apply discipline with the telemetry ingestor, so
// a command and a reading racing on the same bin serialize cleanly and the
// transition check always runs against the state at the instant of
// application.
type Arbiter struct {
	reg        *registry.Registry
	dispatcher *alert.Dispatcher
	audit      Audit
	broadcast  Broadcaster
}

// New wires an arbiter. audit and broadcast may be nil.
func New(reg *registry.Registry, dispatcher *alert.Dispatcher, audit Audit, broadcast Broadcaster) *Arbiter {
	return &Arbiter{reg: reg, dispatcher: dispatcher, audit: audit, broadcast: broadcast}
}

// Submit resolves one command synchronously and returns the audit record
// with its outcome set. Only ErrUnknownCommand is returned as an error;
// every other failure mode is an explicit outcome on the record.
func (a *Arbiter) Submit(req SubmitRequest) (*models.ActionCommand, error) {
	if !models.ValidCommandType(req.Type) {
		return nil, ErrUnknownCommand
	}

	role := req.RequesterRole
	if role == "" {
		role = models.RolePublic
	}

	cmd := &models.ActionCommand{
		ID:            uuid.New().String(),
		BinID:         req.BinID,
		Type:          req.Type,
		RequesterID:   req.RequesterID,
		RequesterRole: role,
		RequestedAt:   time.Now().Unix(),
		IssuedVersion: req.IssuedVersion,
		Outcome:       models.OutcomeAccepted,
	}

	if !allowedRoles[req.Type][role] {
		// Rejected before the registry is touched.
		a.resolve(cmd, models.OutcomeRejectedUnauthorized,
			fmt.Sprintf("role %q may not issue %s", role, req.Type))
		return cmd, nil
	}

	expected := registry.VersionAny
	if req.IssuedVersion > 0 {
		expected = req.IssuedVersion
	}

	newBin, err := a.reg.CompareAndApply(req.BinID, expected, func(b *models.Bin) error {
		var target models.LidState
		found := false
		for _, tr := range transitions[req.Type] {
			if b.LidState == tr.from {
				target = tr.to
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("%w: %s from state %s", errInvalidTransition, req.Type, b.LidState)
		}
		b.LidState = target
		if req.Type == models.CommandResetFault {
			b.DeviceFault = false
			// The fault alert re-arms with the reset.
			delete(b.ActiveAlerts, models.ReasonDeviceFault)
		}
		now := time.Now().Unix()
		b.LastActionAt = &now
		return nil
	})

	switch {
	case err == nil:
		cmd.ResolvedVersion = newBin.Version
		a.resolve(cmd, models.OutcomeCompleted, "")
		if a.broadcast != nil {
			a.broadcast.BinUpdated(newBin)
		}
	case errors.Is(err, errInvalidTransition):
		a.resolve(cmd, models.OutcomeRejectedInvalidState, err.Error())
	case errors.Is(err, registry.ErrVersionConflict):
		a.resolve(cmd, models.OutcomeRejectedStale,
			fmt.Sprintf("bin moved past version %d", req.IssuedVersion))
	case errors.Is(err, registry.ErrNotFound):
		a.fail(cmd, "bin not found")
	default:
		a.fail(cmd, err.Error())
	}

	return cmd, nil
}

func (a *Arbiter) resolve(cmd *models.ActionCommand, outcome models.Outcome, detail string) {
	cmd.Outcome = outcome
	cmd.Detail = detail
	cmd.ResolvedAt = time.Now().Unix()
	metrics.CommandsResolved.WithLabelValues(string(cmd.Type), string(outcome)).Inc()
	if a.audit != nil {
		if err := a.audit.InsertActionCommand(*cmd); err != nil {
			log.Printf("actions: audit command %s: %v", cmd.ID, err)
		}
	}
}

// fail marks the command failed and raises an action-failed notification so
// officers hear about bins that stopped responding to control.
func (a *Arbiter) fail(cmd *models.ActionCommand, detail string) {
	a.resolve(cmd, models.OutcomeFailed, detail)
	if a.dispatcher == nil {
		return
	}
	a.dispatcher.Enqueue(models.Notification{
		ID:             uuid.New().String(),
		BinID:          cmd.BinID,
		Severity:       models.SeverityWarning,
		Reason:         models.ReasonActionFailed,
		Message:        fmt.Sprintf("Command %s on bin %s failed: %s", cmd.Type, cmd.BinID, detail),
		CreatedAt:      time.Now().Unix(),
		DeliveryStatus: models.DeliveryPending,
	})
}

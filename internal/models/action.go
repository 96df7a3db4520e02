package models

type CommandType string

const (
	CommandOpenLid      CommandType = "open-lid"
	CommandCloseLid     CommandType = "close-lid"
	CommandStartCompact CommandType = "start-compact"
	CommandResetFault   CommandType = "reset-fault"
)

// ValidCommandType reports whether t is one of the known command types.
func ValidCommandType(t CommandType) bool {
	switch t {
	case CommandOpenLid, CommandCloseLid, CommandStartCompact, CommandResetFault:
		return true
	}
	return false
}

type Outcome string

const (
	OutcomeAccepted             Outcome = "accepted"
	OutcomeRejectedStale        Outcome = "rejected-stale"
	OutcomeRejectedUnauthorized Outcome = "rejected-unauthorized"
	OutcomeRejectedInvalidState Outcome = "rejected-invalid-state"
	OutcomeFailed               Outcome = "failed"
	OutcomeCompleted            Outcome = "completed"
)

// Requester roles. Officers and admins are authenticated staff; public is
// anyone operating a bin without credentials (e.g. the open-lid button in
// the app).
const (
	RolePublic  = "public"
	RoleOfficer = "officer"
	RoleAdmin   = "admin"
)

// ActionCommand is a remote control request against one bin plus its
// resolution. Retained as an immutable audit record once resolved.
type ActionCommand struct {
	ID            string      `json:"id"`
	BinID         string      `json:"bin_id"`
	Type          CommandType `json:"command_type"`
	RequesterID   string      `json:"requester_id"`
	RequesterRole string      `json:"requester_role"`
	RequestedAt   int64       `json:"requested_at"`
	// IssuedVersion is the bin version the caller saw when issuing the
	// command. Zero means "apply against whatever is current" — public
	// callers never see versions.
	IssuedVersion   int64   `json:"issued_version,omitempty"`
	Outcome         Outcome `json:"outcome"`
	Detail          string  `json:"detail,omitempty"`
	ResolvedVersion int64   `json:"resolved_version,omitempty"`
	ResolvedAt      int64   `json:"resolved_at,omitempty"`
}

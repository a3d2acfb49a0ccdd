package mirror

import (
	"errors"
	"fmt"
)

var (
	// ErrSyncInvalidRequest indicates a malformed sync request
	ErrSyncInvalidRequest = errors.New("mirror: userId and a non-empty accountIds list are required")
	// ErrLaneInvalidTransition indicates a forbidden lane state transition
	ErrLaneInvalidTransition = errors.New("mirror: invalid lane state transition")
)

// SyncRequest is the ephemeral input to one synchronization run.
type SyncRequest struct {
	UserID     int64
	AccountIDs []int64
}

// Validate checks the request before any lane starts.
func (r *SyncRequest) Validate() error {
	if r.UserID <= 0 || len(r.AccountIDs) == 0 {
		return ErrSyncInvalidRequest
	}
	for _, id := range r.AccountIDs {
		if id <= 0 {
			return ErrSyncInvalidRequest
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Progress events
// ---------------------------------------------------------------------------

// EventKind names the lifecycle events emitted while a sync runs.
type EventKind string

const (
	// EventFetching signals discovery has started for an account
	EventFetching EventKind = "fetching"
	// EventFound carries the listing count about to be written (may be zero)
	EventFound EventKind = "found"
	// EventProgress carries the cumulative saved count after a sub-batch commit
	EventProgress EventKind = "progress"
	// EventError carries a human-readable failure message
	EventError EventKind = "error"
	// EventComplete is the terminal, request-scoped summary event
	EventComplete EventKind = "complete"
)

// ProgressEvent is one message on the per-request event stream. Kind-specific
// payload fields are pointers/zero values so the serialized form only carries
// what the event kind defines.
type ProgressEvent struct {
	Kind      EventKind `json:"-"`
	AccountID int64     `json:"accountId,omitempty"`
	Nickname  string    `json:"nickname,omitempty"`
	Count     *int      `json:"count,omitempty"`
	Saved     *int      `json:"saved,omitempty"`
	Error     string    `json:"error,omitempty"`

	// Terminal summary, set only on EventComplete.
	Success bool            `json:"success,omitempty"`
	Synced  []SyncedAccount `json:"synced,omitempty"`
	Errors  []SyncError     `json:"errors,omitempty"`
}

// SyncedAccount records one successfully synchronized account in the summary.
type SyncedAccount struct {
	AccountID int64  `json:"accountId"`
	Nickname  string `json:"nickname,omitempty"`
	Count     int    `json:"count"`
}

// SyncError records one failed account lane in the summary.
type SyncError struct {
	AccountID int64  `json:"accountId"`
	Nickname  string `json:"nickname,omitempty"`
	Error     string `json:"error"`
}

// EventSink receives progress events in emission order. The sync engine
// guarantees per-account ordering; cross-account interleaving is undefined.
type EventSink func(ProgressEvent)

// ---------------------------------------------------------------------------
// Lane state machine
// ---------------------------------------------------------------------------

// LaneState is the per-account sync state:
// idle → fetching → saving → completed, with error terminal from
// fetching or saving.
type LaneState string

const (
	LaneIdle      LaneState = "idle"
	LaneFetching  LaneState = "fetching"
	LaneSaving    LaneState = "saving"
	LaneCompleted LaneState = "completed"
	LaneError     LaneState = "error"
)

// IsTerminal reports whether the lane has finished, successfully or not.
func (s LaneState) IsTerminal() bool {
	return s == LaneCompleted || s == LaneError
}

// canTransition encodes the legal lane transitions.
func (s LaneState) canTransition(to LaneState) bool {
	switch s {
	case LaneIdle:
		return to == LaneFetching || to == LaneError
	case LaneFetching:
		return to == LaneSaving || to == LaneError
	case LaneSaving:
		return to == LaneCompleted || to == LaneError
	default:
		return false
	}
}

// AccountProgress tracks one account's lane through a single sync run.
// It exists only for the duration of the run and is never persisted.
type AccountProgress struct {
	AccountID int64
	Nickname  string
	State     LaneState
	Found     int
	Saved     int
	Err       string
}

// NewAccountProgress returns an idle lane for the account.
func NewAccountProgress(accountID int64) *AccountProgress {
	return &AccountProgress{AccountID: accountID, State: LaneIdle}
}

// transition moves the lane to the target state or fails.
func (p *AccountProgress) transition(to LaneState) error {
	if !p.State.canTransition(to) {
		return fmt.Errorf("%w: %s -> %s", ErrLaneInvalidTransition, p.State, to)
	}
	p.State = to
	return nil
}

// StartFetching moves the lane into discovery.
func (p *AccountProgress) StartFetching() error {
	return p.transition(LaneFetching)
}

// StartSaving records the discovery result and moves the lane into writing.
func (p *AccountProgress) StartSaving(found int) error {
	if found < 0 {
		return fmt.Errorf("%w: negative found count", ErrLaneInvalidTransition)
	}
	if err := p.transition(LaneSaving); err != nil {
		return err
	}
	p.Found = found
	return nil
}

// RecordSaved advances the cumulative saved count; it never decreases.
func (p *AccountProgress) RecordSaved(n int) error {
	if p.State != LaneSaving {
		return fmt.Errorf("%w: saved count outside saving state", ErrLaneInvalidTransition)
	}
	if n < 0 {
		return fmt.Errorf("%w: negative batch size", ErrLaneInvalidTransition)
	}
	p.Saved += n
	return nil
}

// Complete finishes the lane successfully.
func (p *AccountProgress) Complete() error {
	return p.transition(LaneCompleted)
}

// Fail terminates the lane with an error message. Failing is always legal
// from a non-terminal state so lanes can abort at any stage.
func (p *AccountProgress) Fail(msg string) error {
	if p.State.IsTerminal() {
		return fmt.Errorf("%w: %s -> %s", ErrLaneInvalidTransition, p.State, LaneError)
	}
	p.State = LaneError
	p.Err = msg
	return nil
}

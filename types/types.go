package types

import (
	"math/big"
	"time"
)

// TransferState is a lifecycle state of a single token transfer attempt.
// States are strictly ordered; the only way back is an explicit Reset.
type TransferState string

const (
	StateIdle              TransferState = "idle"
	StateSimulating        TransferState = "simulating"
	StateAwaitingSignature TransferState = "awaiting_signature"
	StatePending           TransferState = "pending"
	StateConfirming        TransferState = "confirming"
	StateSuccess           TransferState = "success"
	StateError             TransferState = "error"
)

func (s TransferState) String() string {
	return string(s)
}

// IsTerminal reports whether the state has no further automatic transitions.
func (s TransferState) IsTerminal() bool {
	return s == StateSuccess || s == StateError
}

// TransferRequest describes a stablecoin transfer the user intends to send.
// AmountBase is the amount in the token's smallest unit, derived from
// AmountDisplay at the configured decimal scale.
type TransferRequest struct {
	// Recipient is a hex chain address (0x + 40 hex chars).
	Recipient string `json:"recipient" validate:"required"`

	// AmountDisplay is the decimal string the user typed, e.g. "5.00".
	AmountDisplay string `json:"amountDisplay" validate:"required"`

	// AmountBase is AmountDisplay scaled to base units. Always > 0 for a
	// request that entered the state machine.
	AmountBase *big.Int `json:"amountBase"`
}

// TransferSnapshot is the state-machine output produced for the view layer.
// It is re-derived on every relevant change.
type TransferSnapshot struct {
	State     TransferState `json:"state"`
	TxHash    string        `json:"txHash,omitempty"`
	Err       *TippinError  `json:"error,omitempty"`
	StartTime time.Time     `json:"startTime,omitempty"`

	// PollCount is a display value recomputed from elapsed wall-clock time,
	// not from the number of actual receipt polls.
	PollCount int `json:"pollCount"`

	// Advisory is set once PollCount reaches the poll ceiling while still
	// confirming. It never fails the attempt.
	Advisory bool `json:"advisory"`

	AttemptID string `json:"attemptId,omitempty"`
}

// ResolutionStatus classifies the outcome of a username resolution.
type ResolutionStatus string

const (
	ResolutionIdle     ResolutionStatus = "idle"
	ResolutionLoading  ResolutionStatus = "loading"
	ResolutionSuccess  ResolutionStatus = "success"
	ResolutionNotFound ResolutionStatus = "not_found"
	ResolutionError    ResolutionStatus = "error"
)

// ResolutionResult is the snapshot produced for the view layer by the
// resolution cache.
type ResolutionResult struct {
	Status ResolutionStatus `json:"status"`

	// Address is the resolved recipient address, set on success.
	Address string `json:"address,omitempty"`

	// Username is the display form including the leading sigil, e.g. "@alice".
	Username string `json:"username,omitempty"`

	// ClaimedAt is the provenance timestamp reported by the lookup origin.
	ClaimedAt *time.Time `json:"claimedAt,omitempty"`

	Err *TippinError `json:"error,omitempty"`
}

// LookupResponse is the 200 payload of the username lookup endpoint.
type LookupResponse struct {
	Username      string `json:"username"`
	WalletAddress string `json:"walletAddress"`
	ClaimedAt     string `json:"claimedAt,omitempty"`
}

// LookupErrorResponse is the payload returned on 4xx/5xx.
type LookupErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

package clients

import "errors"

// ErrUserRejected marks a signature request the user declined in their
// wallet. The transfer machine treats it as a silent reset, never as a
// visible error.
var ErrUserRejected = errors.New("user rejected the signature request")

// errReceiptNotFound is returned between polls while the transaction is not
// yet included. It is internal to the polling loop and never escapes
// WaitForReceipt.
var errReceiptNotFound = errors.New("receipt not available yet")

const (
	// -----------------------------
	// SIMULATION / SUBMISSION
	// -----------------------------
	ErrSimulationReverted   = "simulation_reverted"
	ErrInvalidSignedPayload = "invalid_signed_payload"
	ErrBroadcastFailed      = "broadcast_failed"

	// -----------------------------
	// CONFIRMATION
	// -----------------------------
	ErrTransactionReverted     = "transaction_reverted"
	ErrConfirmationTimedOut    = "confirmation_timed_out"
	ErrConfirmationInterrupted = "confirmation_interrupted"

	// -----------------------------
	// LOOKUP
	// -----------------------------
	ErrLookupBadStatus    = "lookup_bad_status"
	ErrLookupDecodeFailed = "lookup_decode_failed"
	ErrLookupUnreachable  = "lookup_unreachable"
)

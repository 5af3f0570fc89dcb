package types

// TippinError is a structured error surfaced through state snapshots and
// resolution results. It is never thrown past a module boundary; callers
// observe error state instead of catching.
type TippinError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func (e *TippinError) Error() string {
	return e.Message
}

// NewTippinError builds a structured error with the given code.
func NewTippinError(code, message string) *TippinError {
	return &TippinError{Code: code, Message: message}
}

// Error taxonomy. Every member except ErrSignatureRejected and
// ErrLookupNotFound is presented to the user with a retry affordance.
// ErrSignatureRejected is swallowed: the machine resets to idle silently.
const (
	ErrSimulationFailed   = "simulation_failed"
	ErrSignatureRejected  = "signature_rejected"
	ErrSubmissionFailed   = "submission_failed"
	ErrReceiptWaitFailed  = "receipt_wait_failed"
	ErrLookupNotFound     = "lookup_not_found"
	ErrLookupNetworkError = "lookup_network_error"
	ErrConfigError        = "config_error"
)

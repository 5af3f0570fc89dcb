package types

import "time"

// Config contains global configuration for the tipping core.
type Config struct {
	// LookupEndpoint is the username lookup URL, queried as
	// <LookupEndpoint>?username=<identifier>.
	LookupEndpoint string `json:"lookupEndpoint" validate:"required,url"`

	// RPCUrl is the chain RPC endpoint. Optional when a chain client is
	// injected directly.
	RPCUrl string `json:"rpcUrl,omitempty" validate:"omitempty,url"`

	// TokenAddress is the stablecoin contract the transfer machine sends.
	TokenAddress string `json:"tokenAddress,omitempty"`

	// TokenDecimals is the display-to-base scale of the token.
	TokenDecimals int `json:"tokenDecimals,omitempty" validate:"omitempty,min=0,max=36"`

	// CacheTTL bounds how long a resolved username stays fresh.
	CacheTTL time.Duration `json:"cacheTtl,omitempty"`

	// MinIdentifierLength is the shortest username that triggers a lookup.
	MinIdentifierLength int `json:"minIdentifierLength,omitempty"`

	// PollInterval is the receipt polling cadence.
	PollInterval time.Duration `json:"pollInterval,omitempty"`

	// ReceiptTimeout is the soft confirmation ceiling. Reaching it raises an
	// advisory; it does not cancel the underlying wait.
	ReceiptTimeout time.Duration `json:"receiptTimeout,omitempty"`

	// DisplayRefresh is the cadence at which the display poll counter is
	// recomputed while confirming.
	DisplayRefresh time.Duration `json:"displayRefresh,omitempty"`

	// DebounceDelay is how long rapidly-changing identifier input settles
	// before a resolution is issued.
	DebounceDelay time.Duration `json:"debounceDelay,omitempty"`

	// RetryCount is the total number of lookup attempts on network failure.
	RetryCount int `json:"retryCount,omitempty" validate:"omitempty,min=1"`

	// DefaultTimeout bounds individual collaborator calls.
	DefaultTimeout time.Duration `json:"defaultTimeout,omitempty"`

	LogLevel      string `json:"logLevel,omitempty"`
	EnableMetrics bool   `json:"enableMetrics,omitempty"`
}

// Defaults mirrored from the web client's behavior.
const (
	DefaultTokenDecimals       = 18
	DefaultCacheTTL            = 5 * time.Minute
	DefaultMinIdentifierLength = 3
	DefaultPollInterval        = 2 * time.Second
	DefaultReceiptTimeout      = 60 * time.Second
	DefaultDisplayRefresh      = 500 * time.Millisecond
	DefaultDebounceDelay       = 500 * time.Millisecond
	DefaultRetryCount          = 3
	DefaultCallTimeout         = 30 * time.Second
)

// ApplyDefaults fills zero-valued fields with the defaults above.
func (c *Config) ApplyDefaults() {
	if c.TokenDecimals == 0 {
		c.TokenDecimals = DefaultTokenDecimals
	}
	if c.CacheTTL == 0 {
		c.CacheTTL = DefaultCacheTTL
	}
	if c.MinIdentifierLength == 0 {
		c.MinIdentifierLength = DefaultMinIdentifierLength
	}
	if c.PollInterval == 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.ReceiptTimeout == 0 {
		c.ReceiptTimeout = DefaultReceiptTimeout
	}
	if c.DisplayRefresh == 0 {
		c.DisplayRefresh = DefaultDisplayRefresh
	}
	if c.DebounceDelay == 0 {
		c.DebounceDelay = DefaultDebounceDelay
	}
	if c.RetryCount == 0 {
		c.RetryCount = DefaultRetryCount
	}
	if c.DefaultTimeout == 0 {
		c.DefaultTimeout = DefaultCallTimeout
	}
}

// Package tippinbit implements the core of a crypto tipping flow: a
// transfer lifecycle state machine and a username resolution cache, wired to
// injectable chain, wallet, and lookup collaborators.
package tippinbit

import (
	"context"
	"fmt"
	"math/big"
	"net/http"

	"github.com/Zolldyk/TippinBit-sub000/clients"
	"github.com/Zolldyk/TippinBit-sub000/logger"
	"github.com/Zolldyk/TippinBit-sub000/metrics"
	"github.com/Zolldyk/TippinBit-sub000/resolution"
	"github.com/Zolldyk/TippinBit-sub000/storage"
	"github.com/Zolldyk/TippinBit-sub000/transfer"
	"github.com/Zolldyk/TippinBit-sub000/types"
	"github.com/Zolldyk/TippinBit-sub000/utils"
)

// TippinBit is the main entry point wiring the resolver and transfer
// machines to their collaborators.
type TippinBit struct {
	config   *types.Config
	log      logger.Logger
	rec      metrics.Recorder
	store    storage.Store
	http     *http.Client
	chain    clients.ChainClient
	signer   clients.WalletSigner
	lookup   clients.LookupSource
	resolver *resolution.Resolver
}

// New builds a TippinBit instance from config. Collaborators not injected
// through options are constructed from config: the lookup client always, the
// EVM chain client when RPCUrl is set.
func New(config *types.Config, opts ...Option) (*TippinBit, error) {
	if config == nil {
		return nil, types.NewTippinError(types.ErrConfigError, "config is required")
	}
	config.ApplyDefaults()

	t := &TippinBit{config: config}
	for _, opt := range opts {
		opt(t)
	}

	if err := utils.ValidateStruct(config); err != nil {
		return nil, types.NewTippinError(types.ErrConfigError, fmt.Sprintf("invalid config: %v", err))
	}

	if t.log == nil {
		if config.LogLevel != "" {
			t.log = logger.NewZapLogger(config.LogLevel)
		} else {
			t.log = logger.NoopLogger{}
		}
	}
	if t.rec == nil {
		if config.EnableMetrics {
			t.rec = metrics.NewPrometheusRecorder()
		} else {
			t.rec = metrics.NoopRecorder{}
		}
	}
	if t.store == nil {
		t.store = storage.NewSessionStore()
	}
	if t.lookup == nil {
		t.lookup = clients.NewLookupClient(config.LookupEndpoint, config.RetryCount, t.http)
	}

	if t.chain == nil && config.RPCUrl != "" {
		chain, err := clients.NewEVMClient(config.RPCUrl, config.TokenAddress, "")
		if err != nil {
			return nil, err
		}
		t.chain = chain
	}

	t.resolver = resolution.NewResolver(t.lookup, t.store, config, t.log, t.rec)
	return t, nil
}

// NewWithDefaults builds an instance with default tuning for the given
// lookup endpoint.
func NewWithDefaults(lookupEndpoint string) (*TippinBit, error) {
	return New(&types.Config{LookupEndpoint: lookupEndpoint})
}

// Resolve resolves a username identifier to its claimed wallet address,
// serving fresh cache entries without a network call.
func (t *TippinBit) Resolve(ctx context.Context, identifier string) types.ResolutionResult {
	return t.resolver.Resolve(ctx, identifier)
}

// Resolver exposes the resolution cache for callers that bind their own
// input debouncing.
func (t *TippinBit) Resolver() *resolution.Resolver {
	return t.resolver
}

// NewBinder builds a debounced input binder over the resolver, using the
// configured settle delay.
func (t *TippinBit) NewBinder() *resolution.Binder {
	return resolution.NewBinder(t.resolver, t.config.DebounceDelay)
}

// NewTransfer builds a transfer state machine over the configured chain
// client and wallet signer.
func (t *TippinBit) NewTransfer() (*transfer.Machine, error) {
	if t.chain == nil {
		return nil, types.NewTippinError(types.ErrConfigError, "no chain client configured")
	}
	if t.signer == nil {
		return nil, types.NewTippinError(types.ErrConfigError, "no wallet signer configured")
	}

	return transfer.NewMachine(t.chain, t.signer, t.store, t.config, t.log, t.rec), nil
}

// UseLocalSigner wires an in-process key signer over the given backend.
func (t *TippinBit) UseLocalSigner(hexKey string, chainID *big.Int, backend clients.TxBackend) error {
	signer, err := clients.NewLocalSigner(hexKey, chainID, t.config.TokenAddress, backend)
	if err != nil {
		return err
	}

	t.signer = signer
	return nil
}

// Store exposes the session-scoped storage shared by the cache and the
// failure counter.
func (t *TippinBit) Store() storage.Store {
	return t.store
}

// EndSession clears all session-scoped state: cached resolutions and the
// failure counter.
func (t *TippinBit) EndSession() {
	t.store.Clear()
}

// Close releases the chain client connection.
func (t *TippinBit) Close() {
	if t.chain != nil {
		t.chain.Close()
	}
}

// Version information
const Version = "1.0.0"

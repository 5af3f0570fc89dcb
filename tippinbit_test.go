package tippinbit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zolldyk/TippinBit-sub000/clients"
	"github.com/Zolldyk/TippinBit-sub000/types"
)

type staticLookup struct {
	calls int
}

func (s *staticLookup) Lookup(ctx context.Context, username string) (*types.LookupResponse, error) {
	s.calls++
	return &types.LookupResponse{
		Username:      username,
		WalletAddress: "0x742d35Cc6634C0532925a3b844Bc454e4438f44e",
		ClaimedAt:     "2025-01-15T10:00:00Z",
	}, nil
}

type stubChain struct{}

func (stubChain) Simulate(ctx context.Context, req *types.TransferRequest) error { return nil }
func (stubChain) Submit(ctx context.Context, signed *clients.SignedTransfer) (string, error) {
	return "0xabc", nil
}
func (stubChain) WaitForReceipt(ctx context.Context, txHash string, opts clients.ReceiptWaitOptions) (*clients.Receipt, error) {
	return &clients.Receipt{TxHash: txHash, Status: 1}, nil
}
func (stubChain) Close() {}

type stubSigner struct{}

func (stubSigner) SignTransfer(ctx context.Context, req *types.TransferRequest) (*clients.SignedTransfer, error) {
	return &clients.SignedTransfer{Raw: []byte{0x01}, TxHash: "0xabc"}, nil
}

func TestNewRequiresConfig(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err)

	_, err = New(&types.Config{})
	require.Error(t, err, "lookup endpoint is required")
}

func TestNewAppliesDefaults(t *testing.T) {
	tb, err := New(&types.Config{LookupEndpoint: "http://127.0.0.1/api/resolve"})
	require.NoError(t, err)
	defer tb.Close()

	assert.Equal(t, 5*time.Minute, tb.config.CacheTTL)
	assert.Equal(t, 2*time.Second, tb.config.PollInterval)
	assert.Equal(t, 60*time.Second, tb.config.ReceiptTimeout)
	assert.Equal(t, 18, tb.config.TokenDecimals)
}

func TestResolveThroughFacade(t *testing.T) {
	lookup := &staticLookup{}
	tb, err := New(
		&types.Config{LookupEndpoint: "http://127.0.0.1/api/resolve"},
		WithLookupSource(lookup),
	)
	require.NoError(t, err)
	defer tb.Close()

	result := tb.Resolve(context.Background(), "@testuser")
	require.Equal(t, types.ResolutionSuccess, result.Status)
	assert.Equal(t, "@testuser", result.Username)
	assert.Equal(t, 1, lookup.calls)

	// Second resolve is served by the session cache.
	result = tb.Resolve(context.Background(), "testuser")
	require.Equal(t, types.ResolutionSuccess, result.Status)
	assert.Equal(t, 1, lookup.calls)
}

func TestNewTransferRequiresCollaborators(t *testing.T) {
	tb, err := New(&types.Config{LookupEndpoint: "http://127.0.0.1/api/resolve"})
	require.NoError(t, err)
	defer tb.Close()

	_, err = tb.NewTransfer()
	require.Error(t, err)

	tb, err = New(
		&types.Config{LookupEndpoint: "http://127.0.0.1/api/resolve"},
		WithChainClient(stubChain{}),
		WithWalletSigner(stubSigner{}),
	)
	require.NoError(t, err)
	defer tb.Close()

	m, err := tb.NewTransfer()
	require.NoError(t, err)
	assert.Equal(t, types.StateIdle, m.State())
}

func TestEndSessionClearsState(t *testing.T) {
	lookup := &staticLookup{}
	tb, err := New(
		&types.Config{LookupEndpoint: "http://127.0.0.1/api/resolve"},
		WithLookupSource(lookup),
	)
	require.NoError(t, err)
	defer tb.Close()

	tb.Resolve(context.Background(), "testuser")
	_, ok := tb.Store().Get("username-resolution:testuser")
	require.True(t, ok)

	tb.EndSession()
	_, ok = tb.Store().Get("username-resolution:testuser")
	assert.False(t, ok)
}

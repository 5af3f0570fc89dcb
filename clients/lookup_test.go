package clients

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tbtypes "github.com/Zolldyk/TippinBit-sub000/types"
)

func TestLookupSuccess(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		assert.Equal(t, "testuser", r.URL.Query().Get("username"))
		json.NewEncoder(w).Encode(tbtypes.LookupResponse{
			Username:      "testuser",
			WalletAddress: "0x742d35Cc6634C0532925a3b844Bc454e4438f44e",
			ClaimedAt:     "2025-01-15T10:00:00Z",
		})
	}))
	defer srv.Close()

	client := NewLookupClient(srv.URL, 3, nil)
	resp, err := client.Lookup(context.Background(), "testuser")

	require.NoError(t, err)
	assert.Equal(t, "testuser", resp.Username)
	assert.Equal(t, "0x742d35Cc6634C0532925a3b844Bc454e4438f44e", resp.WalletAddress)
	assert.Equal(t, "2025-01-15T10:00:00Z", resp.ClaimedAt)
	assert.Equal(t, int32(1), requests.Load())
}

func TestLookupNotFoundIsNotRetried(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(tbtypes.LookupErrorResponse{Error: "username not claimed", Code: "NOT_FOUND"})
	}))
	defer srv.Close()

	client := NewLookupClient(srv.URL, 3, nil)
	_, err := client.Lookup(context.Background(), "ghost")

	var te *tbtypes.TippinError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, tbtypes.ErrLookupNotFound, te.Code)
	assert.Equal(t, int32(1), requests.Load(), "404 must short-circuit the retry loop")
}

func TestLookupRetriesTransientFailure(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(tbtypes.LookupResponse{Username: "alice", WalletAddress: "0x742d35Cc6634C0532925a3b844Bc454e4438f44e"})
	}))
	defer srv.Close()

	client := NewLookupClient(srv.URL, 3, nil)
	resp, err := client.Lookup(context.Background(), "alice")

	require.NoError(t, err)
	assert.Equal(t, "alice", resp.Username)
	assert.Equal(t, int32(3), requests.Load())
}

func TestLookupExhaustsRetries(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewLookupClient(srv.URL, 3, nil)
	_, err := client.Lookup(context.Background(), "alice")

	var te *tbtypes.TippinError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, tbtypes.ErrLookupNetworkError, te.Code)
	assert.Equal(t, int32(3), requests.Load())
}

func TestLookupTransportFailure(t *testing.T) {
	// Connection refused on a closed server.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	client := NewLookupClient(srv.URL, 2, nil)
	_, err := client.Lookup(context.Background(), "alice")

	var te *tbtypes.TippinError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, tbtypes.ErrLookupNetworkError, te.Code)
}

func TestLookupEscapesIdentifier(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "we ird/user", r.URL.Query().Get("username"))
		json.NewEncoder(w).Encode(tbtypes.LookupResponse{Username: "we ird/user", WalletAddress: "0x0"})
	}))
	defer srv.Close()

	client := NewLookupClient(srv.URL, 1, nil)
	_, err := client.Lookup(context.Background(), "we ird/user")
	require.NoError(t, err)
}

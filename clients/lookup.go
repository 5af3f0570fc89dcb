package clients

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	tbtypes "github.com/Zolldyk/TippinBit-sub000/types"
)

var _ LookupSource = (*LookupClient)(nil)

// LookupClient queries the username lookup endpoint. A 404 is returned
// immediately as lookup_not_found; any other failure is retried up to
// retryCount total attempts before surfacing lookup_network_error.
type LookupClient struct {
	endpoint   string
	retryCount int
	httpClient *http.Client
}

func NewLookupClient(endpoint string, retryCount int, httpClient *http.Client) *LookupClient {
	if retryCount < 1 {
		retryCount = 1
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &LookupClient{
		endpoint:   endpoint,
		retryCount: retryCount,
		httpClient: httpClient,
	}
}

// Lookup resolves a sigil-stripped username to its claimed wallet address.
func (l *LookupClient) Lookup(ctx context.Context, username string) (*tbtypes.LookupResponse, error) {
	var lastErr error

	for attempt := 0; attempt < l.retryCount; attempt++ {
		resp, err := l.doRequest(ctx, username)
		if err == nil {
			return resp, nil
		}

		var te *tbtypes.TippinError
		if errors.As(err, &te) && te.Code == tbtypes.ErrLookupNotFound {
			return nil, err
		}

		lastErr = err

		select {
		case <-ctx.Done():
			return nil, tbtypes.NewTippinError(tbtypes.ErrLookupNetworkError, ctx.Err().Error())
		default:
		}
	}

	return nil, tbtypes.NewTippinError(tbtypes.ErrLookupNetworkError,
		fmt.Sprintf("lookup failed after %d attempts: %v", l.retryCount, lastErr))
}

func (l *LookupClient) doRequest(ctx context.Context, username string) (*tbtypes.LookupResponse, error) {
	reqURL := fmt.Sprintf("%s?username=%s", l.endpoint, url.QueryEscape(username))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrLookupUnreachable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrLookupUnreachable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var payload tbtypes.LookupResponse
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			return nil, fmt.Errorf("%s: %w", ErrLookupDecodeFailed, err)
		}
		return &payload, nil

	case http.StatusNotFound:
		var body tbtypes.LookupErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&body)
		msg := body.Error
		if msg == "" {
			msg = fmt.Sprintf("username %q is not claimed", username)
		}
		return nil, tbtypes.NewTippinError(tbtypes.ErrLookupNotFound, msg)

	default:
		return nil, fmt.Errorf("%s: status %d", ErrLookupBadStatus, resp.StatusCode)
	}
}

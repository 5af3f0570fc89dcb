package tippinbit

import (
	"net/http"

	"github.com/Zolldyk/TippinBit-sub000/clients"
	"github.com/Zolldyk/TippinBit-sub000/logger"
	"github.com/Zolldyk/TippinBit-sub000/metrics"
	"github.com/Zolldyk/TippinBit-sub000/storage"
)

type Option func(*TippinBit)

func WithLogger(l logger.Logger) Option {
	return func(t *TippinBit) {
		t.log = l
	}
}

func WithMetrics(r metrics.Recorder) Option {
	return func(t *TippinBit) {
		t.rec = r
	}
}

func WithHTTPClient(c *http.Client) Option {
	return func(t *TippinBit) {
		t.http = c
	}
}

func WithStore(s storage.Store) Option {
	return func(t *TippinBit) {
		t.store = s
	}
}

func WithChainClient(c clients.ChainClient) Option {
	return func(t *TippinBit) {
		t.chain = c
	}
}

func WithWalletSigner(s clients.WalletSigner) Option {
	return func(t *TippinBit) {
		t.signer = s
	}
}

func WithLookupSource(l clients.LookupSource) Option {
	return func(t *TippinBit) {
		t.lookup = l
	}
}

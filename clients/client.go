package clients

import (
	"context"
	"time"

	tbtypes "github.com/Zolldyk/TippinBit-sub000/types"
)

// ReceiptWaitOptions controls receipt polling. A Timeout <= 0 means no hard
// deadline: the caller tracks its own advisory ceiling and the wait runs
// until the receipt arrives or the context is canceled.
type ReceiptWaitOptions struct {
	PollInterval time.Duration
	Timeout      time.Duration
}

// Receipt is the minimal inclusion proof the transfer machine needs.
type Receipt struct {
	TxHash      string
	BlockNumber uint64
	Status      uint64
}

// SignedTransfer is the wallet signer's output, ready for network submission.
type SignedTransfer struct {
	Raw    []byte
	TxHash string
	From   string
}

// ChainClient is the chain collaborator capability the transfer state machine
// depends on. Implementations exist per backend; tests substitute fakes.
type ChainClient interface {
	Simulate(ctx context.Context, req *tbtypes.TransferRequest) error
	Submit(ctx context.Context, signed *SignedTransfer) (string, error)
	WaitForReceipt(ctx context.Context, txHash string, opts ReceiptWaitOptions) (*Receipt, error)
	Close()
}

// WalletSigner is the wallet collaborator capability. A rejected signature
// request must be reported as ErrUserRejected so the machine can swallow it.
type WalletSigner interface {
	SignTransfer(ctx context.Context, req *tbtypes.TransferRequest) (*SignedTransfer, error)
}

// LookupSource is the username lookup collaborator consumed by the
// resolution cache.
type LookupSource interface {
	Lookup(ctx context.Context, username string) (*tbtypes.LookupResponse, error)
}

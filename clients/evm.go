package clients

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	tbtypes "github.com/Zolldyk/TippinBit-sub000/types"
)

var _ ChainClient = (*EVMClient)(nil)

const erc20TransferABI = `
[
  {
    "name": "transfer",
    "type": "function",
    "stateMutability": "nonpayable",
    "inputs": [
      { "name": "to", "type": "address" },
      { "name": "value", "type": "uint256" }
    ],
    "outputs": [
      { "name": "", "type": "bool" }
    ]
  }
]
`

// EVMClient drives a stablecoin transfer against an EVM network: speculative
// simulation via eth_call, raw transaction submission, and receipt polling.
type EVMClient struct {
	rpcURL   string
	client   *ethclient.Client
	token    common.Address
	from     common.Address
	tokenABI abi.ABI
}

// NewEVMClient dials the RPC endpoint. token is the stablecoin contract the
// transfers move; from is the sender address used for simulation calls.
func NewEVMClient(rpcURL, token, from string) (*EVMClient, error) {
	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RPC: %w", err)
	}

	parsed, err := abi.JSON(strings.NewReader(erc20TransferABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse token ABI: %w", err)
	}

	return &EVMClient{
		rpcURL:   rpcURL,
		client:   client,
		token:    common.HexToAddress(token),
		from:     common.HexToAddress(from),
		tokenABI: parsed,
	}, nil
}

// Simulate runs the transfer as an eth_call against the token contract. A
// revert means the transfer would fail and must keep the machine out of the
// signing path.
func (e *EVMClient) Simulate(ctx context.Context, req *tbtypes.TransferRequest) error {
	callData, err := e.tokenABI.Pack("transfer", common.HexToAddress(req.Recipient), req.AmountBase)
	if err != nil {
		return fmt.Errorf("failed to encode transfer call: %w", err)
	}

	msg := ethereum.CallMsg{
		From: e.from,
		To:   &e.token,
		Data: callData,
	}

	if _, err := e.client.CallContract(ctx, msg, nil); err != nil {
		return fmt.Errorf("%s: %w", ErrSimulationReverted, err)
	}

	return nil
}

// Submit broadcasts a signed transfer and returns the transaction hash the
// network accepted it under.
func (e *EVMClient) Submit(ctx context.Context, signed *SignedTransfer) (string, error) {
	tx := new(ethtypes.Transaction)
	if err := tx.UnmarshalBinary(signed.Raw); err != nil {
		return "", fmt.Errorf("%s: %w", ErrInvalidSignedPayload, err)
	}

	if err := e.client.SendTransaction(ctx, tx); err != nil {
		return "", fmt.Errorf("%s: %w", ErrBroadcastFailed, err)
	}

	return tx.Hash().Hex(), nil
}

// WaitForReceipt polls for the receipt at opts.PollInterval. With
// opts.Timeout <= 0 the wait has no hard deadline and runs until the receipt
// arrives or ctx is canceled; the caller layers its own advisory on top.
func (e *EVMClient) WaitForReceipt(ctx context.Context, txHash string, opts ReceiptWaitOptions) (*Receipt, error) {
	interval := opts.PollInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}

	var deadline <-chan time.Time
	if opts.Timeout > 0 {
		timer := time.NewTimer(opts.Timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	hash := common.HexToHash(txHash)
	for {
		receipt, err := e.poll(ctx, hash)
		if err == nil {
			return receipt, nil
		}
		if !errors.Is(err, errReceiptNotFound) {
			return nil, err
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%s: %w", ErrConfirmationInterrupted, ctx.Err())
		case <-deadline:
			return nil, fmt.Errorf("%s after %s", ErrConfirmationTimedOut, opts.Timeout)
		case <-ticker.C:
		}
	}
}

func (e *EVMClient) poll(ctx context.Context, hash common.Hash) (*Receipt, error) {
	receipt, err := e.client.TransactionReceipt(ctx, hash)
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return nil, errReceiptNotFound
		}
		return nil, fmt.Errorf("receipt query failed: %w", err)
	}

	if receipt.Status != ethtypes.ReceiptStatusSuccessful {
		return nil, fmt.Errorf("%s: tx %s", ErrTransactionReverted, hash.Hex())
	}

	var blockNumber uint64
	if receipt.BlockNumber != nil {
		blockNumber = receipt.BlockNumber.Uint64()
	}

	return &Receipt{
		TxHash:      hash.Hex(),
		BlockNumber: blockNumber,
		Status:      receipt.Status,
	}, nil
}

// Close releases the underlying RPC connection.
func (e *EVMClient) Close() {
	if e.client != nil {
		e.client.Close()
	}
}

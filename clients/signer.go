package clients

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	tbtypes "github.com/Zolldyk/TippinBit-sub000/types"
)

// transferGasLimit covers an ERC20 transfer with headroom.
const transferGasLimit = 100_000

// TxBackend is the slice of an RPC client the local signer needs to assemble
// a transaction. *ethclient.Client satisfies it.
type TxBackend interface {
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
}

var _ WalletSigner = (*LocalSigner)(nil)

// LocalSigner signs token transfers with an in-process private key. It stands
// in for a browser wallet in server-side and test environments; interactive
// wallets implement WalletSigner elsewhere and surface ErrUserRejected when
// the user declines.
type LocalSigner struct {
	key      *ecdsa.PrivateKey
	from     common.Address
	chainID  *big.Int
	token    common.Address
	backend  TxBackend
	tokenABI abi.ABI
}

func NewLocalSigner(hexKey string, chainID *big.Int, token string, backend TxBackend) (*LocalSigner, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}

	parsed, err := abi.JSON(strings.NewReader(erc20TransferABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse token ABI: %w", err)
	}

	return &LocalSigner{
		key:      key,
		from:     crypto.PubkeyToAddress(key.PublicKey),
		chainID:  chainID,
		token:    common.HexToAddress(token),
		backend:  backend,
		tokenABI: parsed,
	}, nil
}

// From returns the signer's address.
func (s *LocalSigner) From() common.Address {
	return s.from
}

// SignTransfer assembles and signs an ERC20 transfer, returning the raw
// transaction bytes ready for submission.
func (s *LocalSigner) SignTransfer(ctx context.Context, req *tbtypes.TransferRequest) (*SignedTransfer, error) {
	nonce, err := s.backend.PendingNonceAt(ctx, s.from)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch nonce: %w", err)
	}

	gasPrice, err := s.backend.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch gas price: %w", err)
	}

	callData, err := s.tokenABI.Pack("transfer", common.HexToAddress(req.Recipient), req.AmountBase)
	if err != nil {
		return nil, fmt.Errorf("failed to encode transfer call: %w", err)
	}

	tx := ethtypes.NewTransaction(nonce, s.token, big.NewInt(0), transferGasLimit, gasPrice, callData)

	signer := ethtypes.NewEIP155Signer(s.chainID)
	signedTx, err := ethtypes.SignTx(tx, signer, s.key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}

	raw, err := signedTx.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("failed to encode transaction: %w", err)
	}

	return &SignedTransfer{
		Raw:    raw,
		TxHash: signedTx.Hash().Hex(),
		From:   s.from.Hex(),
	}, nil
}

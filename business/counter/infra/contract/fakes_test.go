package contract

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	chainDomain "github.com/fd1az/counter-dapp/business/chain/domain"
)

var (
	counterAddress = common.HexToAddress("0xA003003C47fb65291CB0B079CBd6028a7aF60Fa2")
	errRPC         = errors.New("rpc failure")
)

// fakeBackend implements chainApp.Backend with canned responses.
type fakeBackend struct {
	mu sync.Mutex

	callResult []byte
	callErr    error
	calls      []ethereum.CallMsg

	// simErr fails only calls sent from an account, as simulations are.
	simErr error

	nonce   uint64
	sendErr error
	sent    []*types.Transaction

	// receipts are returned in order; a nil entry means not yet mined.
	receipts     []*types.Receipt
	receiptCalls int
}

func (f *fakeBackend) ChainID(context.Context) (*big.Int, error) { return big.NewInt(80001), nil }

func (f *fakeBackend) BlockNumber(context.Context) (uint64, error) { return 77, nil }

func (f *fakeBackend) HeaderByNumber(context.Context, *big.Int) (*types.Header, error) {
	return &types.Header{Number: big.NewInt(77)}, nil
}

func (f *fakeBackend) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, msg)
	if f.simErr != nil && msg.From != (common.Address{}) {
		return nil, f.simErr
	}
	return f.callResult, f.callErr
}

func (f *fakeBackend) EstimateGas(context.Context, ethereum.CallMsg) (uint64, error) {
	return 26000, nil
}

func (f *fakeBackend) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	return f.nonce, nil
}

func (f *fakeBackend) SuggestGasPrice(context.Context) (*big.Int, error) {
	return big.NewInt(2_000_000_000), nil
}

func (f *fakeBackend) SuggestGasTipCap(context.Context) (*big.Int, error) {
	return big.NewInt(1_000_000_000), nil
}

func (f *fakeBackend) SendTransaction(_ context.Context, tx *types.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, tx)
	return nil
}

func (f *fakeBackend) TransactionReceipt(context.Context, common.Hash) (*types.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.receiptCalls
	f.receiptCalls++
	if i >= len(f.receipts) || f.receipts[i] == nil {
		return nil, ethereum.NotFound
	}
	return f.receipts[i], nil
}

// keySigner signs with an in-memory key.
type keySigner struct {
	key *ecdsa.PrivateKey
}

func newKeySigner() *keySigner {
	key, err := crypto.GenerateKey()
	if err != nil {
		panic(err)
	}
	return &keySigner{key: key}
}

func (s *keySigner) address() common.Address {
	return crypto.PubkeyToAddress(s.key.PublicKey)
}

func (s *keySigner) SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	return types.SignTx(tx, types.LatestSignerForChainID(chainID), s.key)
}

type fakeOracle struct {
	fees        chainDomain.FeeSuggestion
	estimateErr error
	estimates   int
}

func (o *fakeOracle) GetGasPrice(context.Context) (*chainDomain.GasPrice, error) {
	return chainDomain.NewGasPrice(big.NewInt(2_000_000_000)), nil
}

func (o *fakeOracle) SuggestFees(context.Context) (chainDomain.FeeSuggestion, error) {
	return o.fees, nil
}

func (o *fakeOracle) EstimateGas(context.Context, ethereum.CallMsg) (uint64, error) {
	o.estimates++
	if o.estimateErr != nil {
		return 0, o.estimateErr
	}
	return 28600, nil
}

func dynamicFees() chainDomain.FeeSuggestion {
	return chainDomain.FeeSuggestion{
		GasTipCap: big.NewInt(1_000_000_000),
		GasFeeCap: big.NewInt(3_000_000_000),
	}
}

package ethereum

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"sync/atomic"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/fd1az/counter-dapp/business/chain/app"
	"github.com/fd1az/counter-dapp/business/chain/domain"
)

type fakeBackend struct {
	chainID  int64
	baseFee  *big.Int
	gasPrice *big.Int
	tipCap   *big.Int
	gas      uint64

	failBlockNumber atomic.Bool
	blockCalls      atomic.Int32
	priceCalls      atomic.Int32
	closed          atomic.Bool
}

func (f *fakeBackend) ChainID(context.Context) (*big.Int, error) {
	return big.NewInt(f.chainID), nil
}

func (f *fakeBackend) BlockNumber(context.Context) (uint64, error) {
	f.blockCalls.Add(1)
	if f.failBlockNumber.Load() {
		return 0, errors.New("connection reset")
	}
	return 100, nil
}

func (f *fakeBackend) HeaderByNumber(context.Context, *big.Int) (*types.Header, error) {
	return &types.Header{Number: big.NewInt(100), BaseFee: f.baseFee}, nil
}

func (f *fakeBackend) CallContract(context.Context, ethereum.CallMsg, *big.Int) ([]byte, error) {
	return nil, nil
}

func (f *fakeBackend) EstimateGas(context.Context, ethereum.CallMsg) (uint64, error) {
	return f.gas, nil
}

func (f *fakeBackend) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	return 0, nil
}

func (f *fakeBackend) SuggestGasPrice(context.Context) (*big.Int, error) {
	f.priceCalls.Add(1)
	return f.gasPrice, nil
}

func (f *fakeBackend) SuggestGasTipCap(context.Context) (*big.Int, error) {
	return f.tipCap, nil
}

func (f *fakeBackend) SendTransaction(context.Context, *types.Transaction) error {
	return nil
}

func (f *fakeBackend) TransactionReceipt(context.Context, common.Hash) (*types.Receipt, error) {
	return nil, ethereum.NotFound
}

func (f *fakeBackend) Close() {
	f.closed.Store(true)
}

// staticSource always returns the same backend.
type staticSource struct {
	mu      sync.Mutex
	backend *fakeBackend
}

func (s *staticSource) Current() (app.Backend, domain.ChainInfo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.backend == nil {
		return nil, domain.ChainInfo{}, false
	}
	return s.backend, domain.NewChainInfo(uint64(s.backend.chainID)), true
}

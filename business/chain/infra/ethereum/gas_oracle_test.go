package ethereum

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/counter-dapp/internal/apperror"
	"github.com/fd1az/counter-dapp/internal/logger"
)

func newTestOracle(t *testing.T, source BackendSource) *GasOracle {
	t.Helper()
	cfg := DefaultGasOracleConfig()
	cfg.CacheTTL = time.Minute
	g, err := NewGasOracle(cfg, source, logger.NewDiscard())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { g.Close() })
	return g
}

func TestGasOracle_DynamicFees(t *testing.T) {
	backend := &fakeBackend{chainID: 1, baseFee: big.NewInt(10e9), tipCap: big.NewInt(2e9)}
	g := newTestOracle(t, &staticSource{backend: backend})

	fees, err := g.SuggestFees(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if fees.Legacy {
		t.Fatal("expected dynamic fees")
	}
	if fees.GasFeeCap.Cmp(big.NewInt(22e9)) != 0 {
		t.Errorf("expected fee cap 22 gwei, got %s", fees.GasFeeCap)
	}
	if fees.GasTipCap.Cmp(big.NewInt(2e9)) != 0 {
		t.Errorf("expected tip 2 gwei, got %s", fees.GasTipCap)
	}
}

func TestGasOracle_LegacyFeesAndCache(t *testing.T) {
	backend := &fakeBackend{chainID: 137, gasPrice: big.NewInt(30e9)}
	g := newTestOracle(t, &staticSource{backend: backend})

	for i := 0; i < 3; i++ {
		fees, err := g.SuggestFees(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if !fees.Legacy || fees.GasPrice.Cmp(big.NewInt(30e9)) != 0 {
			t.Fatalf("unexpected fees %+v", fees)
		}
	}

	if got := backend.priceCalls.Load(); got != 1 {
		t.Errorf("expected one gas price fetch, got %d", got)
	}
}

func TestGasOracle_CapsGasPrice(t *testing.T) {
	backend := &fakeBackend{chainID: 1, gasPrice: big.NewInt(900e9)}
	g := newTestOracle(t, &staticSource{backend: backend})

	price, err := g.GetGasPrice(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if price.Gwei().String() != "500" {
		t.Errorf("expected cap at 500 gwei, got %s", price.Gwei())
	}
}

func TestGasOracle_EstimateAddsMargin(t *testing.T) {
	backend := &fakeBackend{chainID: 1, gas: 30_000}
	g := newTestOracle(t, &staticSource{backend: backend})

	to := common.HexToAddress("0x01")
	gas, err := g.EstimateGas(context.Background(), ethereum.CallMsg{To: &to})
	if err != nil {
		t.Fatal(err)
	}
	if gas != 33_000 {
		t.Errorf("expected 33000, got %d", gas)
	}
}

func TestGasOracle_NoProvider(t *testing.T) {
	g := newTestOracle(t, &staticSource{})

	_, err := g.SuggestFees(context.Background())
	if apperror.GetCode(err) != apperror.CodeProviderUnavailable {
		t.Errorf("expected provider unavailable, got %v", err)
	}
}

package app

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	chainApp "github.com/fd1az/counter-dapp/business/chain/app"
	chainDomain "github.com/fd1az/counter-dapp/business/chain/domain"
	"github.com/fd1az/counter-dapp/business/counter/domain"
	walletDomain "github.com/fd1az/counter-dapp/business/wallet/domain"
	"github.com/fd1az/counter-dapp/internal/apm"
	"github.com/fd1az/counter-dapp/internal/logger"
)

var testAddress = common.HexToAddress("0x00000000000000000000000000000000000000aa")

// journal records calls and state transitions in order.
type journal struct {
	mu      sync.Mutex
	entries []string
}

func (j *journal) add(e string) {
	j.mu.Lock()
	j.entries = append(j.entries, e)
	j.mu.Unlock()
}

func (j *journal) list() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.entries...)
}

func (j *journal) count(e string) int {
	n := 0
	for _, got := range j.list() {
		if got == e {
			n++
		}
	}
	return n
}

type fakeClient struct {
	log *journal

	readResult  string
	readErr     error
	blockErr    error
	simulateErr error
	writeErr    error
	waitErr     error
	status      uint64

	// waitGate, when set, blocks WaitForTransaction until closed.
	waitGate chan struct{}
	written  chan struct{}
}

func newFakeClient(log *journal) *fakeClient {
	return &fakeClient{
		log:        log,
		readResult: `"5"`,
		status:     types.ReceiptStatusSuccessful,
		written:    make(chan struct{}, 1),
	}
}

func (f *fakeClient) ReadContract(_ context.Context, fn string) ([]byte, error) {
	f.log.add("read:" + fn)
	if f.readErr != nil {
		return nil, f.readErr
	}
	return []byte(f.readResult), nil
}

func (f *fakeClient) BlockNumber(context.Context) (uint64, error) {
	f.log.add("block")
	if f.blockErr != nil {
		return 0, f.blockErr
	}
	return 1234, nil
}

func (f *fakeClient) Chain() chainDomain.ChainInfo {
	return chainDomain.NewChainInfo(80001)
}

func (f *fakeClient) SimulateContract(_ context.Context, req domain.SimulateRequest) (*domain.PreparedRequest, error) {
	f.log.add("simulate:" + req.FunctionName)
	if f.simulateErr != nil {
		return nil, f.simulateErr
	}
	return &domain.PreparedRequest{From: req.From, FunctionName: req.FunctionName}, nil
}

func (f *fakeClient) WriteContract(context.Context, *domain.PreparedRequest) (common.Hash, error) {
	f.log.add("write")
	if f.writeErr != nil {
		return common.Hash{}, f.writeErr
	}
	select {
	case f.written <- struct{}{}:
	default:
	}
	return common.HexToHash("0xbeef"), nil
}

func (f *fakeClient) WaitForTransaction(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	f.log.add("wait")
	if f.waitGate != nil {
		select {
		case <-f.waitGate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.waitErr != nil {
		return nil, f.waitErr
	}
	return &types.Receipt{TxHash: hash, Status: f.status, BlockNumber: big.NewInt(1235)}, nil
}

// loadingReporter journals loading flag transitions and keeps the latest state.
type loadingReporter struct {
	log *journal

	mu      sync.Mutex
	loading bool
	last    State
	reports atomic.Int32
}

func (r *loadingReporter) Report(s State) {
	r.reports.Add(1)
	r.mu.Lock()
	defer r.mu.Unlock()
	if s.Version < r.last.Version {
		return
	}
	if s.IsLoading != r.loading {
		r.loading = s.IsLoading
		if s.IsLoading {
			r.log.add("loading=true")
		} else {
			r.log.add("loading=false")
		}
	}
	r.last = s
}

func (r *loadingReporter) latest() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

type fakeConnector struct {
	calls     atomic.Int32
	connected atomic.Bool
	connErr   error
}

func (c *fakeConnector) CurrentAccount() walletDomain.Account {
	c.calls.Add(1)
	if c.connected.Load() {
		return walletDomain.Connected(testAddress)
	}
	return walletDomain.Disconnected()
}

func (c *fakeConnector) Connect(context.Context) error {
	if c.connErr != nil {
		return c.connErr
	}
	c.connected.Store(true)
	return nil
}

func (c *fakeConnector) Disconnect() {
	c.connected.Store(false)
}

func (c *fakeConnector) SignTx(tx *types.Transaction, _ *big.Int) (*types.Transaction, error) {
	return tx, nil
}

type fakeFactory struct {
	client *fakeClient
	made   atomic.Int32
}

func (f *fakeFactory) NewClient(chainApp.Backend, chainDomain.ChainInfo) Client {
	f.made.Add(1)
	return f.client
}

func newTestPanel(log *journal, events <-chan chainApp.ProviderEvent, factory ClientFactory, connector *fakeConnector) (*Panel, *loadingReporter) {
	rep := &loadingReporter{log: log}
	p, err := NewPanel(PanelConfig{
		Connector:    connector,
		PollInterval: time.Millisecond,
		Events:       events,
		Clients:      factory,
		Reporter:     rep,
		Logger:       logger.NewDiscard(),
		Tracer:       apm.NewTracer("test"),
	})
	if err != nil {
		panic(err)
	}
	return p, rep
}

func waitUntil(cond func() bool) error {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return nil
		}
		time.Sleep(time.Millisecond)
	}
	return errors.New("condition not met")
}

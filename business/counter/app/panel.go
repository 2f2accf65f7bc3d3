package app

import (
	"context"
	"math/big"
	"sync"
	"time"

	chainApp "github.com/fd1az/counter-dapp/business/chain/app"
	chainDomain "github.com/fd1az/counter-dapp/business/chain/domain"
	"github.com/fd1az/counter-dapp/business/counter/domain"
	walletApp "github.com/fd1az/counter-dapp/business/wallet/app"
	walletDomain "github.com/fd1az/counter-dapp/business/wallet/domain"
	"github.com/fd1az/counter-dapp/internal/apm"
	"github.com/fd1az/counter-dapp/internal/apperror"
	"github.com/fd1az/counter-dapp/internal/logger"
)

// PanelConfig wires a Panel.
type PanelConfig struct {
	Connector    walletApp.Connector
	PollInterval time.Duration
	Events       <-chan chainApp.ProviderEvent
	Clients      ClientFactory
	Reporter     Reporter
	Logger       logger.LoggerInterface
	Tracer       apm.Tracer
}

// Panel owns the counter view state and the flows that write to it.
// After Unmount every write is a no-op.
type Panel struct {
	mu     sync.Mutex
	state  State
	client Client
	closed bool

	connector walletApp.Connector
	events    <-chan chainApp.ProviderEvent
	clients   ClientFactory
	reporter  Reporter
	logger    logger.LoggerInterface

	poller    *walletApp.Poller
	reader    *ChainReader
	initiator *Initiator

	lifeMu sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

var (
	_ Store                 = (*Panel)(nil)
	_ Alerter               = (*Panel)(nil)
	_ walletApp.AccountSink = (*Panel)(nil)
)

// NewPanel creates an unmounted Panel.
func NewPanel(cfg PanelConfig) (*Panel, error) {
	p := &Panel{
		connector: cfg.Connector,
		events:    cfg.Events,
		clients:   cfg.Clients,
		reporter:  cfg.Reporter,
		logger:    cfg.Logger,
	}

	tracer := cfg.Tracer
	if tracer == nil {
		tracer = apm.NewTracer(tracerName)
	}

	p.poller = walletApp.NewPoller(cfg.Connector, p, cfg.PollInterval, cfg.Logger)
	p.reader = NewChainReader(p, cfg.Logger, tracer)

	initiator, err := NewInitiator(p, p.reader, p, cfg.Logger, tracer)
	if err != nil {
		return nil, err
	}
	p.initiator = initiator

	return p, nil
}

// Mount starts the account poller and the provider watch. Calling Mount on
// a mounted panel does nothing.
func (p *Panel) Mount(ctx context.Context) {
	p.lifeMu.Lock()
	defer p.lifeMu.Unlock()

	if p.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.mu.Lock()
	p.closed = false
	p.mu.Unlock()

	p.poller.Start(ctx)

	p.wg.Add(1)
	go p.watchProvider(ctx)

	p.update(func(*State) {})
	p.logger.Info(ctx, "counter panel mounted")
}

// Unmount stops polling and the provider watch and waits for both to exit.
// In-flight reads and transactions are cancelled; their late results are
// dropped.
func (p *Panel) Unmount() {
	p.lifeMu.Lock()
	defer p.lifeMu.Unlock()

	if p.cancel == nil {
		return
	}

	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	p.cancel()
	p.cancel = nil

	p.poller.Stop()
	p.wg.Wait()
	p.reader.Wait()

	p.logger.Info(context.Background(), "counter panel unmounted")
}

func (p *Panel) watchProvider(ctx context.Context) {
	defer p.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-p.events:
			if !ok {
				return
			}
			p.onProvider(ctx, ev)
		}
	}
}

func (p *Panel) onProvider(ctx context.Context, ev chainApp.ProviderEvent) {
	if !ev.Present {
		p.setClient(nil, chainDomain.ChainInfo{})
		p.reader.Observe(ctx, nil)
		p.logger.Warn(ctx, "read client unavailable")
		return
	}

	client := p.clients.NewClient(ev.Backend, ev.Chain)
	p.setClient(client, ev.Chain)
	p.reader.Observe(ctx, client)
	p.logger.Info(ctx, "read client available", "chain", ev.Chain.Name, "chain_id", ev.Chain.ID)
}

func (p *Panel) setClient(client Client, chain chainDomain.ChainInfo) {
	p.update(func(s *State) {
		p.client = client
		s.ProviderPresent = client != nil
		s.Chain = chainDomain.ChainSnapshot{Chain: chain}
	})
}

func (p *Panel) currentClient() Client {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.client
}

// update applies fn under the lock and publishes the result. Writes after
// Unmount are dropped.
func (p *Panel) update(fn func(*State)) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	fn(&p.state)
	p.state.Version++
	snapshot := p.state
	p.mu.Unlock()

	if p.reporter != nil {
		p.reporter.Report(snapshot)
	}
}

// Snapshot returns the current state.
func (p *Panel) Snapshot() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Increment runs the transaction flow against the current client.
func (p *Panel) Increment(ctx context.Context) domain.Outcome {
	return p.initiator.Increment(ctx, p.currentClient())
}

// Refresh re-reads the counter through the current client.
func (p *Panel) Refresh(ctx context.Context) (*big.Int, error) {
	return p.reader.ReadCounter(ctx, p.currentClient())
}

// ToggleConnectionInfo flips the connection info visibility.
func (p *Panel) ToggleConnectionInfo() {
	p.update(func(s *State) {
		s.ShowConnectionInfo = !s.ShowConnectionInfo
	})
}

// ToggleWallet connects the wallet when disconnected and disconnects it
// otherwise. The panel sees the change on the next poll.
func (p *Panel) ToggleWallet(ctx context.Context) error {
	if p.connector.CurrentAccount().IsConnected {
		p.connector.Disconnect()
		return nil
	}

	if err := p.connector.Connect(ctx); err != nil {
		p.logger.Error(ctx, "wallet connect failed", "error", err)
		p.Alert(apperror.Message(apperror.GetCode(err)))
		return err
	}
	return nil
}

// DismissAlert clears the pending alert.
func (p *Panel) DismissAlert() {
	p.update(func(s *State) {
		s.Alert = ""
	})
}

// Alert implements Alerter.
func (p *Panel) Alert(message string) {
	p.update(func(s *State) {
		s.Alert = message
	})
}

// SetAccount implements walletApp.AccountSink.
func (p *Panel) SetAccount(a walletDomain.Account) {
	p.update(func(s *State) {
		s.Account = a
	})
}

// Account implements Store.
func (p *Panel) Account() walletDomain.Account {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state.Account
}

// SetCount implements Store.
func (p *Panel) SetCount(n *big.Int) {
	p.update(func(s *State) {
		s.Count = n
	})
}

// SetBlockNumber implements Store.
func (p *Panel) SetBlockNumber(n uint64) {
	p.update(func(s *State) {
		s.Chain = s.Chain.WithBlockNumber(n)
	})
}

// SetLoading implements Store.
func (p *Panel) SetLoading(loading bool) {
	p.update(func(s *State) {
		s.IsLoading = loading
	})
}

// SetOutcome implements Store.
func (p *Panel) SetOutcome(out domain.Outcome) {
	p.update(func(s *State) {
		s.LastOutcome = &out
	})
}

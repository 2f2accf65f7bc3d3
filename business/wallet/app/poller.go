package app

import (
	"context"
	"sync"
	"time"

	"github.com/fd1az/counter-dapp/internal/logger"
)

// DefaultPollInterval is the account sampling period.
const DefaultPollInterval = time.Second

// Poller periodically copies the connector's account into a sink.
type Poller struct {
	source   AccountSource
	sink     AccountSink
	interval time.Duration
	logger   logger.LoggerInterface

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewPoller creates a Poller. A non-positive interval uses DefaultPollInterval.
func NewPoller(source AccountSource, sink AccountSink, interval time.Duration, log logger.LoggerInterface) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{
		source:   source,
		sink:     sink,
		interval: interval,
		logger:   log,
	}
}

// Start begins sampling on every tick. It is a no-op while running.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})

	go p.run(ctx, p.done)

	p.logger.Debug(ctx, "account poller started", "interval", p.interval)
}

func (p *Poller) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// A tick can race with cancellation; never write after it.
			if ctx.Err() != nil {
				return
			}
			p.sink.SetAccount(p.source.CurrentAccount())
		}
	}
}

// Stop cancels the ticker and waits for the loop to exit. After Stop
// returns the sink receives no further writes. Stop is idempotent.
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

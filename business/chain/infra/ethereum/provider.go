// Package ethereum provides Ethereum blockchain infrastructure adapters.
package ethereum

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/counter-dapp/business/chain/app"
	"github.com/fd1az/counter-dapp/business/chain/domain"
	"github.com/fd1az/counter-dapp/internal/apperror"
	"github.com/fd1az/counter-dapp/internal/circuitbreaker"
	"github.com/fd1az/counter-dapp/internal/httpclient"
	"github.com/fd1az/counter-dapp/internal/logger"
)

const probeFailureThreshold = 3

const (
	tracerName = "github.com/fd1az/counter-dapp/business/chain/infra/ethereum"
	meterName  = "github.com/fd1az/counter-dapp/business/chain/infra/ethereum"
)

// rpcClient is a Backend that owns a connection.
type rpcClient interface {
	app.Backend
	Close()
}

// DialFunc opens an RPC connection to url.
type DialFunc func(ctx context.Context, url string) (rpcClient, error)

// newEthclientDialer dials url with go-ethereum. HTTP endpoints go through
// hc so JSON-RPC requests are traced and counted; websockets dial directly.
func newEthclientDialer(hc *http.Client) DialFunc {
	return func(ctx context.Context, url string) (rpcClient, error) {
		var opts []rpc.ClientOption
		if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
			opts = append(opts, rpc.WithHTTPClient(hc))
		}
		rc, err := rpc.DialOptions(ctx, url, opts...)
		if err != nil {
			return nil, err
		}
		return ethclient.NewClient(rc), nil
	}
}

// ProviderConfig holds configuration for the provider watcher.
type ProviderConfig struct {
	WSURL          string        // WebSocket endpoint (primary)
	HTTPURL        string        // HTTP endpoint (fallback)
	ReconnectDelay time.Duration // Delay before redialing a lost provider
	HealthInterval time.Duration // Liveness probe period while connected
	BufferSize     int           // Event channel buffer size
}

// DefaultProviderConfig returns sensible defaults.
func DefaultProviderConfig(wsURL, httpURL string) ProviderConfig {
	return ProviderConfig{
		WSURL:          wsURL,
		HTTPURL:        httpURL,
		ReconnectDelay: 5 * time.Second,
		HealthInterval: 15 * time.Second,
		BufferSize:     4,
	}
}

// providerMetrics holds OTEL metric instruments.
type providerMetrics struct {
	connectionState  metric.Int64Gauge
	healthErrors     metric.Int64Counter
	reconnects       metric.Int64Counter
	httpFallbackUsed metric.Int64Counter
	probeLatency     metric.Float64Histogram
}

// Provider implements ProviderWatcher using go-ethereum.
// It dials WebSocket first with HTTP as fallback, probes liveness with
// eth_blockNumber and redials after a failed probe.
type Provider struct {
	config ProviderConfig
	logger logger.LoggerInterface
	dial   DialFunc

	// Live connection
	client   rpcClient
	chain    domain.ChainInfo
	clientMu sync.RWMutex

	// State
	state      domain.ConnectionState
	stateMu    sync.RWMutex
	usingHTTP  atomic.Bool
	lastBlock  atomic.Uint64
	lastCheck  atomic.Int64
	reconnects atomic.Int32

	// Channels
	events  chan app.ProviderEvent
	done    chan struct{}
	closeMu sync.Mutex
	closed  atomic.Bool

	// Circuit breaker around liveness probes
	cb *circuitbreaker.CircuitBreaker[uint64]

	// Observability
	tracer  trace.Tracer
	metrics *providerMetrics
}

// NewProvider creates a new provider watcher.
func NewProvider(cfg ProviderConfig, log logger.LoggerInterface) (*Provider, error) {
	hc, err := httpclient.New(
		httpclient.WithProviderName("ethereum-rpc"),
		httpclient.WithRequestTimeout(30*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create rpc http client: %w", err)
	}
	return newProvider(cfg, log, newEthclientDialer(hc))
}

func newProvider(cfg ProviderConfig, log logger.LoggerInterface, dial DialFunc) (*Provider, error) {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1
	}

	p := &Provider{
		config: cfg,
		logger: log,
		dial:   dial,
		state:  domain.StateDisconnected,
		events: make(chan app.ProviderEvent, cfg.BufferSize),
		done:   make(chan struct{}),
		tracer: otel.Tracer(tracerName),
	}

	if err := p.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	return p, nil
}

// initMetrics initializes OTEL metric instruments.
func (p *Provider) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	p.metrics = &providerMetrics{}

	p.metrics.connectionState, err = meter.Int64Gauge(
		"eth_connection_state",
		metric.WithDescription("Ethereum provider state (0=disconnected, 1=connecting, 2=connected, 3=reconnecting)"),
		metric.WithUnit("{state}"),
	)
	if err != nil {
		return err
	}

	p.metrics.healthErrors, err = meter.Int64Counter(
		"eth_health_errors_total",
		metric.WithDescription("Total failed provider liveness probes"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return err
	}

	p.metrics.reconnects, err = meter.Int64Counter(
		"eth_reconnects_total",
		metric.WithDescription("Total provider reconnect attempts"),
		metric.WithUnit("{reconnect}"),
	)
	if err != nil {
		return err
	}

	p.metrics.httpFallbackUsed, err = meter.Int64Counter(
		"eth_http_fallback_total",
		metric.WithDescription("Times HTTP fallback was used"),
		metric.WithUnit("{fallback}"),
	)
	if err != nil {
		return err
	}

	p.metrics.probeLatency, err = meter.Float64Histogram(
		"eth_probe_latency_ms",
		metric.WithDescription("Latency of provider liveness probes"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	return nil
}

// initCircuitBreaker starts a fresh liveness breaker for a new connection.
// The connection is dropped once the breaker opens.
func (p *Provider) initCircuitBreaker() {
	cfg := circuitbreaker.DefaultConfig("eth-provider")
	cfg.FailureThreshold = probeFailureThreshold
	cfg.OnStateChange = func(name string, from, to gobreaker.State) {
		p.logger.Info(context.Background(), "circuit breaker state change",
			"breaker", name, "from", from.String(), "to", to.String())
	}
	p.cb = circuitbreaker.New[uint64](cfg)
}

// Events returns the provider availability stream.
func (p *Provider) Events() <-chan app.ProviderEvent {
	return p.events
}

// Run connects and supervises the provider until ctx is done or Close is
// called. Without any configured endpoint it returns immediately and the
// provider stays absent.
func (p *Provider) Run(ctx context.Context) {
	if p.config.WSURL == "" && p.config.HTTPURL == "" {
		p.logger.Warn(ctx, "no ethereum provider configured")
		return
	}

	for {
		if p.stopped(ctx) {
			return
		}

		if err := p.connect(ctx); err != nil {
			p.logger.Warn(ctx, "provider unavailable", "error", err)
			p.setState(domain.StateReconnecting)
			if !p.sleep(ctx, p.config.ReconnectDelay) {
				return
			}
			p.reconnects.Add(1)
			p.metrics.reconnects.Add(ctx, 1)
			continue
		}

		p.supervise(ctx)

		p.release(ctx)
		if p.stopped(ctx) {
			return
		}

		p.setState(domain.StateReconnecting)
		if !p.sleep(ctx, p.config.ReconnectDelay) {
			return
		}
		p.reconnects.Add(1)
		p.metrics.reconnects.Add(ctx, 1)
	}
}

// connect dials WS, falls back to HTTP, resolves the chain and publishes
// the backend as present.
func (p *Provider) connect(ctx context.Context) error {
	ctx, span := p.tracer.Start(ctx, "eth.connect",
		trace.WithAttributes(
			attribute.String("ws_url", p.config.WSURL),
			attribute.String("http_url", p.config.HTTPURL),
		),
	)
	defer span.End()

	p.setState(domain.StateConnecting)

	client, usingHTTP, err := p.dialAny(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "both connections failed")
		p.setState(domain.StateDisconnected)
		return apperror.New(apperror.CodeEthereumConnectionFailed,
			apperror.WithCause(err),
			apperror.WithContext("failed to connect via WS and HTTP"))
	}

	chainID, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		span.RecordError(err)
		span.SetStatus(codes.Error, "chain id failed")
		p.setState(domain.StateDisconnected)
		return apperror.New(apperror.CodeEthereumRPCError,
			apperror.WithCause(err),
			apperror.WithContext("failed to get chain id"))
	}
	chain := domain.NewChainInfo(chainID.Uint64())
	p.initCircuitBreaker()

	p.clientMu.Lock()
	p.client = client
	p.chain = chain
	p.clientMu.Unlock()

	p.usingHTTP.Store(usingHTTP)
	if usingHTTP {
		p.metrics.httpFallbackUsed.Add(ctx, 1)
	}
	p.setState(domain.StateConnected)

	span.SetAttributes(
		attribute.Int64("chain_id", int64(chain.ID)),
		attribute.Bool("using_http", usingHTTP),
	)
	span.SetStatus(codes.Ok, "connected")

	p.logger.Info(ctx, "ethereum provider connected",
		"chain", chain.Name, "chain_id", chain.ID, "using_http", usingHTTP)

	return p.emit(ctx, app.ProviderEvent{Present: true, Backend: client, Chain: chain})
}

// dialAny tries the WebSocket endpoint and then the HTTP endpoint.
func (p *Provider) dialAny(ctx context.Context) (rpcClient, bool, error) {
	var wsErr error
	if p.config.WSURL != "" {
		client, err := p.dial(ctx, p.config.WSURL)
		if err == nil {
			return client, false, nil
		}
		wsErr = fmt.Errorf("dial ws: %w", err)
		p.logger.Warn(ctx, "ws connection failed, trying http fallback", "error", err)
	}

	if p.config.HTTPURL == "" {
		if wsErr == nil {
			wsErr = errors.New("no endpoint configured")
		}
		return nil, false, wsErr
	}

	client, err := p.dial(ctx, p.config.HTTPURL)
	if err != nil {
		return nil, false, errors.Join(wsErr, fmt.Errorf("dial http: %w", err))
	}
	return client, true, nil
}

// supervise probes the live connection until the probe breaker opens or
// the provider is stopped.
func (p *Provider) supervise(ctx context.Context) {
	ticker := time.NewTicker(p.config.HealthInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			err := p.probe(ctx)
			if err == nil {
				continue
			}
			if apperror.GetCode(err) == apperror.CodeCircuitOpen || p.cb.State() == gobreaker.StateOpen {
				p.logger.Error(ctx, "provider lost", "error", err)
				return
			}
			p.logger.Warn(ctx, "provider liveness probe failed", "error", err)
		}
	}
}

// probe checks the connection with eth_blockNumber through the breaker.
func (p *Provider) probe(ctx context.Context) error {
	ctx, span := p.tracer.Start(ctx, "eth.probe")
	defer span.End()

	p.clientMu.RLock()
	client := p.client
	p.clientMu.RUnlock()

	if client == nil {
		err := errors.New("no client")
		span.RecordError(err)
		return err
	}

	start := time.Now()
	number, err := p.cb.Execute(func() (uint64, error) {
		return client.BlockNumber(ctx)
	})
	p.metrics.probeLatency.Record(ctx, float64(time.Since(start).Milliseconds()))
	p.lastCheck.Store(time.Now().UnixNano())

	if err != nil {
		p.metrics.healthErrors.Add(ctx, 1)
		span.RecordError(err)
		span.SetStatus(codes.Error, "probe failed")
		return err
	}

	p.lastBlock.Store(number)
	span.SetAttributes(attribute.Int64("block_number", int64(number)))
	span.SetStatus(codes.Ok, "alive")
	return nil
}

// release drops the live connection and publishes absence.
func (p *Provider) release(ctx context.Context) {
	p.clientMu.Lock()
	client := p.client
	p.client = nil
	p.chain = domain.ChainInfo{}
	p.clientMu.Unlock()

	if client == nil {
		return
	}
	client.Close()

	p.setState(domain.StateDisconnected)
	if err := p.emit(ctx, app.ProviderEvent{Present: false}); err != nil {
		p.logger.Debug(ctx, "provider absence not delivered", "error", err)
	}
}

// emit delivers ev, blocking so that no presence transition is lost.
func (p *Provider) emit(ctx context.Context, ev app.ProviderEvent) error {
	select {
	case p.events <- ev:
		return nil
	case <-p.done:
		return errors.New("provider closed")
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Provider) sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return true
	case <-p.done:
		return false
	case <-ctx.Done():
		return false
	}
}

func (p *Provider) stopped(ctx context.Context) bool {
	if p.closed.Load() {
		return true
	}
	return ctx.Err() != nil
}

// Current returns the live backend, if any.
func (p *Provider) Current() (app.Backend, domain.ChainInfo, bool) {
	p.clientMu.RLock()
	defer p.clientMu.RUnlock()

	if p.client == nil {
		return nil, domain.ChainInfo{}, false
	}
	return p.client, p.chain, true
}

// State returns the current connection state.
func (p *Provider) State() domain.ConnectionState {
	p.stateMu.RLock()
	defer p.stateMu.RUnlock()
	return p.state
}

// Status returns detailed connection status.
func (p *Provider) Status() domain.ProviderStatus {
	_, chain, _ := p.Current()

	var lastCheck time.Time
	if ns := p.lastCheck.Load(); ns > 0 {
		lastCheck = time.Unix(0, ns)
	}

	return domain.ProviderStatus{
		State:      p.State(),
		Chain:      chain,
		LastBlock:  p.lastBlock.Load(),
		LastCheck:  lastCheck,
		Reconnects: int(p.reconnects.Load()),
		UsingHTTP:  p.usingHTTP.Load(),
	}
}

// Close stops supervision and drops the connection.
func (p *Provider) Close() error {
	p.closeMu.Lock()
	defer p.closeMu.Unlock()

	if p.closed.Load() {
		return nil
	}

	p.logger.Info(context.Background(), "closing ethereum provider")

	p.closed.Store(true)
	close(p.done)

	p.clientMu.Lock()
	if p.client != nil {
		p.client.Close()
		p.client = nil
	}
	p.clientMu.Unlock()

	p.setState(domain.StateDisconnected)

	return nil
}

// setState updates the connection state and records metrics.
func (p *Provider) setState(state domain.ConnectionState) {
	p.stateMu.Lock()
	p.state = state
	p.stateMu.Unlock()

	p.metrics.connectionState.Record(context.Background(), state.GaugeValue())
}

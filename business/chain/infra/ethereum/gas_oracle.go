package ethereum

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/counter-dapp/business/chain/app"
	"github.com/fd1az/counter-dapp/business/chain/domain"
	"github.com/fd1az/counter-dapp/internal/apperror"
	"github.com/fd1az/counter-dapp/internal/cache"
	"github.com/fd1az/counter-dapp/internal/circuitbreaker"
	"github.com/fd1az/counter-dapp/internal/logger"
)

// BackendSource yields the live backend, if any.
type BackendSource interface {
	Current() (app.Backend, domain.ChainInfo, bool)
}

// GasOracleConfig holds configuration for the gas oracle.
type GasOracleConfig struct {
	CacheTTL    time.Duration // How long to cache fee lookups
	MaxGasPrice *big.Int      // Upper bound applied to any per-gas price
}

// DefaultGasOracleConfig returns sensible defaults.
func DefaultGasOracleConfig() GasOracleConfig {
	maxGas := new(big.Int)
	maxGas.SetString("500000000000", 10) // 500 gwei max

	return GasOracleConfig{
		CacheTTL:    12 * time.Second, // ~1 block
		MaxGasPrice: maxGas,
	}
}

// gasOracleMetrics holds OTEL metric instruments.
type gasOracleMetrics struct {
	gasPriceFetches metric.Int64Counter
	gasPriceGwei    metric.Float64Gauge
	estimateGas     metric.Int64Counter
	cacheHits       metric.Int64Counter
	cacheMisses     metric.Int64Counter
}

// GasOracle implements app.GasOracle against whichever backend the
// provider currently holds. Cached values are keyed by chain.
type GasOracle struct {
	config GasOracleConfig
	logger logger.LoggerInterface
	source BackendSource

	priceCache *cache.Cache[string, *domain.GasPrice]
	feeCache   *cache.Cache[string, domain.FeeSuggestion]

	cb *circuitbreaker.CircuitBreaker[*big.Int]

	// Observability
	tracer  trace.Tracer
	metrics *gasOracleMetrics
}

// NewGasOracle creates a new gas oracle instance.
func NewGasOracle(cfg GasOracleConfig, source BackendSource, log logger.LoggerInterface) (*GasOracle, error) {
	g := &GasOracle{
		config:     cfg,
		logger:     log,
		source:     source,
		priceCache: cache.New[string, *domain.GasPrice](5 * time.Minute),
		feeCache:   cache.New[string, domain.FeeSuggestion](5 * time.Minute),
		tracer:     otel.Tracer(tracerName),
	}

	if err := g.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	g.cb = circuitbreaker.New[*big.Int](circuitbreaker.DefaultConfig("gas-oracle"))

	return g, nil
}

// initMetrics initializes OTEL metric instruments.
func (g *GasOracle) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	g.metrics = &gasOracleMetrics{}

	g.metrics.gasPriceFetches, err = meter.Int64Counter(
		"gas_price_fetches_total",
		metric.WithDescription("Total gas price fetch attempts"),
		metric.WithUnit("{fetch}"),
	)
	if err != nil {
		return err
	}

	g.metrics.gasPriceGwei, err = meter.Float64Gauge(
		"gas_price_gwei",
		metric.WithDescription("Current gas price in gwei"),
		metric.WithUnit("gwei"),
	)
	if err != nil {
		return err
	}

	g.metrics.estimateGas, err = meter.Int64Counter(
		"gas_estimate_total",
		metric.WithDescription("Total gas estimation calls"),
		metric.WithUnit("{estimate}"),
	)
	if err != nil {
		return err
	}

	g.metrics.cacheHits, err = meter.Int64Counter(
		"gas_cache_hits_total",
		metric.WithDescription("Gas price cache hits"),
		metric.WithUnit("{hit}"),
	)
	if err != nil {
		return err
	}

	g.metrics.cacheMisses, err = meter.Int64Counter(
		"gas_cache_misses_total",
		metric.WithDescription("Gas price cache misses"),
		metric.WithUnit("{miss}"),
	)
	if err != nil {
		return err
	}

	return nil
}

func (g *GasOracle) backend() (app.Backend, domain.ChainInfo, error) {
	backend, chain, ok := g.source.Current()
	if !ok {
		return nil, domain.ChainInfo{}, apperror.New(apperror.CodeProviderUnavailable,
			apperror.WithContext("gas oracle has no provider"))
	}
	return backend, chain, nil
}

// GetGasPrice retrieves the current gas price with caching.
func (g *GasOracle) GetGasPrice(ctx context.Context) (*domain.GasPrice, error) {
	ctx, span := g.tracer.Start(ctx, "gas.get_price")
	defer span.End()

	backend, chain, err := g.backend()
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	key := fmt.Sprintf("price:%d", chain.ID)
	if price, found := g.priceCache.Get(ctx, key); found {
		g.metrics.cacheHits.Add(ctx, 1)
		span.AddEvent("cache_hit")
		return price, nil
	}

	g.metrics.cacheMisses.Add(ctx, 1)
	g.metrics.gasPriceFetches.Add(ctx, 1)

	wei, err := g.cb.Execute(func() (*big.Int, error) {
		return backend.SuggestGasPrice(ctx)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return nil, apperror.New(apperror.CodeEthereumRPCError,
			apperror.WithCause(err),
			apperror.WithContext("failed to get gas price"))
	}

	price := domain.NewGasPrice(g.capped(ctx, wei))
	g.priceCache.Set(ctx, key, price, g.config.CacheTTL)

	gwei, _ := price.Gwei().Float64()
	g.metrics.gasPriceGwei.Record(ctx, gwei)

	span.SetAttributes(attribute.Float64("gwei", gwei))
	span.SetStatus(codes.Ok, "fetched")

	return price, nil
}

// SuggestFees returns EIP-1559 fee caps, or a legacy gas price when the
// chain has no base fee. The fee cap is 2*baseFee + tip.
func (g *GasOracle) SuggestFees(ctx context.Context) (domain.FeeSuggestion, error) {
	ctx, span := g.tracer.Start(ctx, "gas.suggest_fees")
	defer span.End()

	backend, chain, err := g.backend()
	if err != nil {
		span.RecordError(err)
		return domain.FeeSuggestion{}, err
	}

	key := fmt.Sprintf("fees:%d", chain.ID)
	if fees, found := g.feeCache.Get(ctx, key); found {
		g.metrics.cacheHits.Add(ctx, 1)
		span.AddEvent("cache_hit")
		return fees, nil
	}
	g.metrics.cacheMisses.Add(ctx, 1)

	head, err := backend.HeaderByNumber(ctx, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "header failed")
		return domain.FeeSuggestion{}, apperror.New(apperror.CodeEthereumRPCError,
			apperror.WithCause(err),
			apperror.WithContext("failed to get latest header"))
	}

	var fees domain.FeeSuggestion
	if head.BaseFee == nil {
		price, err := g.GetGasPrice(ctx)
		if err != nil {
			span.RecordError(err)
			return domain.FeeSuggestion{}, err
		}
		fees = domain.FeeSuggestion{GasPrice: price.Wei, Legacy: true}
	} else {
		tip, err := g.cb.Execute(func() (*big.Int, error) {
			return backend.SuggestGasTipCap(ctx)
		})
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "tip cap failed")
			return domain.FeeSuggestion{}, apperror.New(apperror.CodeEthereumRPCError,
				apperror.WithCause(err),
				apperror.WithContext("failed to get gas tip cap"))
		}

		feeCap := new(big.Int).Mul(head.BaseFee, big.NewInt(2))
		feeCap.Add(feeCap, tip)
		feeCap = g.capped(ctx, feeCap)
		if tip.Cmp(feeCap) > 0 {
			tip = feeCap
		}
		fees = domain.FeeSuggestion{GasTipCap: tip, GasFeeCap: feeCap}
	}

	g.feeCache.Set(ctx, key, fees, g.config.CacheTTL)

	span.SetAttributes(attribute.Bool("legacy", fees.Legacy))
	span.SetStatus(codes.Ok, "suggested")
	return fees, nil
}

// EstimateGas estimates the gas needed for msg plus a 10% margin.
func (g *GasOracle) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	to := ""
	if msg.To != nil {
		to = msg.To.Hex()
	}

	ctx, span := g.tracer.Start(ctx, "gas.estimate",
		trace.WithAttributes(
			attribute.String("to", to),
			attribute.Int("data_len", len(msg.Data)),
		),
	)
	defer span.End()

	g.metrics.estimateGas.Add(ctx, 1)

	backend, _, err := g.backend()
	if err != nil {
		span.RecordError(err)
		return 0, err
	}

	gas, err := backend.EstimateGas(ctx, msg)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "estimate failed")
		return 0, apperror.New(apperror.CodeGasEstimationFailed,
			apperror.WithCause(err),
			apperror.WithContext(fmt.Sprintf("failed to estimate gas for %s", to)))
	}

	gas = gas + (gas / 10)

	span.SetAttributes(attribute.Int64("gas", int64(gas)))
	span.SetStatus(codes.Ok, "estimated")

	return gas, nil
}

func (g *GasOracle) capped(ctx context.Context, wei *big.Int) *big.Int {
	if g.config.MaxGasPrice != nil && wei.Cmp(g.config.MaxGasPrice) > 0 {
		g.logger.Warn(ctx, "gas price exceeds max", "wei", wei.String())
		return new(big.Int).Set(g.config.MaxGasPrice)
	}
	return wei
}

// Close releases the caches.
func (g *GasOracle) Close() error {
	g.priceCache.Close()
	g.feeCache.Close()
	return nil
}

package app

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/fd1az/counter-dapp/business/counter/domain"
	"github.com/fd1az/counter-dapp/internal/apm"
	"github.com/fd1az/counter-dapp/internal/apperror"
	"github.com/fd1az/counter-dapp/internal/logger"
)

const (
	tracerName = "github.com/fd1az/counter-dapp/business/counter/app"
	meterName  = "github.com/fd1az/counter-dapp/business/counter/app"
)

// initiatorMetrics holds OTEL metric instruments.
type initiatorMetrics struct {
	increments metric.Int64Counter
	duration   metric.Float64Histogram
}

// Initiator runs the increment flow:
// simulate -> submit -> confirm -> refresh. At most one flow is in flight.
type Initiator struct {
	store   Store
	reader  *ChainReader
	alerter Alerter
	logger  logger.LoggerInterface
	tracer  apm.Tracer
	metrics *initiatorMetrics

	busy atomic.Bool
}

// NewInitiator creates an Initiator.
func NewInitiator(store Store, reader *ChainReader, alerter Alerter, log logger.LoggerInterface, tracer apm.Tracer) (*Initiator, error) {
	i := &Initiator{
		store:   store,
		reader:  reader,
		alerter: alerter,
		logger:  log,
		tracer:  tracer,
	}

	if err := i.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	return i, nil
}

// initMetrics initializes OTEL metric instruments.
func (i *Initiator) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	i.metrics = &initiatorMetrics{}

	i.metrics.increments, err = meter.Int64Counter(
		"counter_increments_total",
		metric.WithDescription("Increment flows by result and failing stage"),
		metric.WithUnit("{flow}"),
	)
	if err != nil {
		return err
	}

	i.metrics.duration, err = meter.Float64Histogram(
		"counter_increment_duration_ms",
		metric.WithDescription("Increment flow duration including confirmation"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	return nil
}

// Increment runs the flow against client. A disconnected wallet triggers
// an alert and nothing else; a second call while one is in flight returns
// ErrBusy. Otherwise the counter is always re-read and the loading flag
// cleared, whatever stage failed.
func (i *Initiator) Increment(ctx context.Context, client Client) domain.Outcome {
	account := i.store.Account()
	if !account.IsConnected || account.Address == nil {
		i.alerter.Alert(apperror.Message(apperror.CodeWalletNotConnected))
		return i.finish(ctx, domain.Outcome{Err: domain.ErrNotConnected}, time.Now())
	}

	if !i.busy.CompareAndSwap(false, true) {
		return i.finish(ctx, domain.Outcome{Err: domain.ErrBusy}, time.Now())
	}
	defer i.busy.Store(false)

	start := time.Now()
	ctx, span := i.tracer.StartSpanFromContext(ctx, "counter.increment")
	defer span.End()
	span.SetAttributes(attribute.String("from", account.Address.Hex()))

	out := i.submit(ctx, client, *account.Address)
	if out.Err != nil {
		span.NoticeError(out.Err)
		i.logger.Error(ctx, "increment failed", "stage", out.Stage.String(), "error", out.Err)
	} else {
		span.Ok("mined")
	}

	// Refreshing
	span.AddEvent(domain.StageRefreshing.String())
	if client != nil {
		i.reader.ReadCounter(ctx, client)
	}
	i.store.SetLoading(false)
	i.store.SetOutcome(out)

	return i.finish(ctx, out, start)
}

// submit runs the stages up to confirmation.
func (i *Initiator) submit(ctx context.Context, client Client, from common.Address) domain.Outcome {
	if client == nil {
		return domain.Outcome{Stage: domain.StageSimulating, Err: domain.ErrNoProvider}
	}

	req, err := client.SimulateContract(ctx, domain.SimulateRequest{
		From:         from,
		FunctionName: domain.FunctionIncrement,
	})
	if err != nil {
		return domain.Outcome{Stage: domain.StageSimulating, Err: err}
	}

	hash, err := client.WriteContract(ctx, req)
	if err != nil {
		return domain.Outcome{Stage: domain.StageSubmitted, Quote: req.Quote, Err: err}
	}
	i.store.SetLoading(true)
	i.logger.Info(ctx, "increment submitted", "tx", hash.Hex())

	receipt, err := client.WaitForTransaction(ctx, hash)
	if err != nil {
		return domain.Outcome{Stage: domain.StageConfirming, TxHash: &hash, Quote: req.Quote, Err: err}
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return domain.Outcome{
			Stage:   domain.StageConfirming,
			TxHash:  &hash,
			Receipt: receipt,
			Quote:   req.Quote,
			Err: apperror.New(apperror.CodeTransactionReverted,
				apperror.WithContext(hash.Hex())),
		}
	}

	i.logger.Info(ctx, "increment mined", "tx", hash.Hex(), "block", receipt.BlockNumber, "gas_used", receipt.GasUsed)
	return domain.Outcome{TxHash: &hash, Receipt: receipt, Quote: req.Quote}
}

func (i *Initiator) finish(ctx context.Context, out domain.Outcome, start time.Time) domain.Outcome {
	result := "ok"
	if out.Err != nil {
		result = string(apperror.GetCode(out.Err))
	}
	attrs := metric.WithAttributes(
		attribute.String("result", result),
		attribute.String("stage", out.Stage.String()),
	)
	i.metrics.increments.Add(ctx, 1, attrs)
	i.metrics.duration.Record(ctx, float64(time.Since(start).Milliseconds()), attrs)
	return out
}

package app

import (
	"context"
	"math/big"
	"sync"

	"go.opentelemetry.io/otel/attribute"

	"github.com/fd1az/counter-dapp/business/counter/domain"
	"github.com/fd1az/counter-dapp/internal/apm"
	"github.com/fd1az/counter-dapp/internal/logger"
)

// ChainReader fetches the counter and block height when a read client
// appears. It fires once per absent->present transition.
type ChainReader struct {
	store  Store
	logger logger.LoggerInterface
	tracer apm.Tracer

	mu      sync.Mutex
	present bool
	wg      sync.WaitGroup
}

// NewChainReader creates a ChainReader writing into store.
func NewChainReader(store Store, log logger.LoggerInterface, tracer apm.Tracer) *ChainReader {
	return &ChainReader{
		store:  store,
		logger: log,
		tracer: tracer,
	}
}

// Observe records the current read client; nil means absent. On a
// transition to present it starts the counter read and the block height
// read concurrently and reports true. Failures are logged and leave the
// previous values in place.
func (r *ChainReader) Observe(ctx context.Context, client ReadClient) bool {
	r.mu.Lock()
	if client == nil {
		r.present = false
		r.mu.Unlock()
		return false
	}
	if r.present {
		r.mu.Unlock()
		return false
	}
	r.present = true
	r.mu.Unlock()

	r.wg.Add(2)
	go func() {
		defer r.wg.Done()
		r.ReadCounter(ctx, client)
	}()
	go func() {
		defer r.wg.Done()
		r.readBlockNumber(ctx, client)
	}()

	return true
}

// Wait blocks until in-flight fetches started by Observe finish.
func (r *ChainReader) Wait() {
	r.wg.Wait()
}

// ReadCounter reads retrieve() and stores the parsed value. Without a
// client it does nothing.
func (r *ChainReader) ReadCounter(ctx context.Context, client ReadClient) (*big.Int, error) {
	if client == nil {
		return nil, domain.ErrNoProvider
	}

	ctx, span := r.tracer.StartSpanFromContext(ctx, "counter.read")
	defer span.End()

	raw, err := client.ReadContract(ctx, domain.FunctionRetrieve)
	if err != nil {
		span.NoticeError(err)
		r.logger.Error(ctx, "counter read failed", "error", err)
		return nil, err
	}

	count, err := domain.ParseCount(raw)
	if err != nil {
		span.NoticeError(err)
		r.logger.Error(ctx, "counter result unparsable", "raw", string(raw), "error", err)
		return nil, err
	}

	r.store.SetCount(count)

	span.SetAttributes(attribute.String("count", count.String()))
	span.Ok("read")
	return count, nil
}

func (r *ChainReader) readBlockNumber(ctx context.Context, client ReadClient) {
	ctx, span := r.tracer.StartSpanFromContext(ctx, "counter.block_number")
	defer span.End()

	n, err := client.BlockNumber(ctx)
	if err != nil {
		span.NoticeError(err)
		r.logger.Error(ctx, "block number read failed", "error", err)
		return
	}

	r.store.SetBlockNumber(n)

	span.SetAttributes(attribute.Int64("block_number", int64(n)))
	span.Ok("read")
}

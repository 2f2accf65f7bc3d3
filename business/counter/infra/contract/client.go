// Package contract implements the counter read and write clients over a
// go-ethereum backend.
package contract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	chainApp "github.com/fd1az/counter-dapp/business/chain/app"
	chainDomain "github.com/fd1az/counter-dapp/business/chain/domain"
	"github.com/fd1az/counter-dapp/business/counter/app"
	"github.com/fd1az/counter-dapp/business/counter/domain"
	walletApp "github.com/fd1az/counter-dapp/business/wallet/app"
	"github.com/fd1az/counter-dapp/internal/apperror"
	"github.com/fd1az/counter-dapp/internal/circuitbreaker"
	"github.com/fd1az/counter-dapp/internal/logger"
	"github.com/fd1az/counter-dapp/internal/ratelimit"
)

const (
	tracerName = "counter-contract"
	meterName  = "counter-contract"
)

// Ensure Client implements app.Client.
var _ app.Client = (*Client)(nil)

// Config holds contract client settings.
type Config struct {
	Address             common.Address
	ReceiptPollInterval time.Duration
	RPCRatePerSecond    float64
}

// DefaultConfig returns settings for address with a 2s receipt poll and
// 10 RPC calls per second.
func DefaultConfig(address common.Address) Config {
	return Config{
		Address:             address,
		ReceiptPollInterval: 2 * time.Second,
		RPCRatePerSecond:    10,
	}
}

// clientMetrics holds OTEL metric instruments.
type clientMetrics struct {
	callsTotal   metric.Int64Counter
	callLatency  metric.Float64Histogram
	callErrors   metric.Int64Counter
	txsSubmitted metric.Int64Counter
	receiptPolls metric.Int64Counter
}

// Factory builds a Client for every backend the provider watcher hands out.
// The limiter, breakers and metrics are shared across clients. Reads and
// simulations have separate breakers.
type Factory struct {
	config  Config
	abi     abi.ABI
	signer  walletApp.Signer
	oracle  chainApp.GasOracle
	limiter *ratelimit.Limiter
	readCB  *circuitbreaker.CircuitBreaker[[]byte]
	simCB   *circuitbreaker.CircuitBreaker[[]byte]
	logger  logger.LoggerInterface

	tracer  trace.Tracer
	metrics *clientMetrics
}

// Ensure Factory implements app.ClientFactory.
var _ app.ClientFactory = (*Factory)(nil)

// NewFactory creates a Factory for the Counter contract at cfg.Address.
func NewFactory(cfg Config, signer walletApp.Signer, oracle chainApp.GasOracle, log logger.LoggerInterface) (*Factory, error) {
	parsedABI, err := abi.JSON(strings.NewReader(CounterABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse counter ABI: %w", err)
	}

	if cfg.ReceiptPollInterval <= 0 {
		cfg.ReceiptPollInterval = 2 * time.Second
	}
	if cfg.RPCRatePerSecond <= 0 {
		cfg.RPCRatePerSecond = 10
	}

	// A revert is the node answering; only transport failures trip simCB
	simCfg := circuitbreaker.DefaultConfig("counter-simulate")
	simCfg.IsSuccessful = func(err error) bool {
		return err == nil || isRevert(err)
	}

	f := &Factory{
		config:  cfg,
		abi:     parsedABI,
		signer:  signer,
		oracle:  oracle,
		limiter: ratelimit.New(cfg.RPCRatePerSecond),
		readCB:  circuitbreaker.New[[]byte](circuitbreaker.DefaultConfig("counter-read")),
		simCB:   circuitbreaker.New[[]byte](simCfg),
		logger:  log,
		tracer:  otel.Tracer(tracerName),
	}

	if err := f.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to init metrics: %w", err)
	}

	return f, nil
}

func (f *Factory) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	f.metrics = &clientMetrics{}

	f.metrics.callsTotal, err = meter.Int64Counter(
		"contract_calls_total",
		metric.WithDescription("Total contract calls by function"),
	)
	if err != nil {
		return err
	}

	f.metrics.callLatency, err = meter.Float64Histogram(
		"contract_call_latency_ms",
		metric.WithDescription("Contract call latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	f.metrics.callErrors, err = meter.Int64Counter(
		"contract_call_errors_total",
		metric.WithDescription("Total contract call errors"),
	)
	if err != nil {
		return err
	}

	f.metrics.txsSubmitted, err = meter.Int64Counter(
		"contract_transactions_submitted_total",
		metric.WithDescription("Transactions accepted by the node"),
	)
	if err != nil {
		return err
	}

	f.metrics.receiptPolls, err = meter.Int64Counter(
		"contract_receipt_polls_total",
		metric.WithDescription("Receipt lookups while waiting for confirmation"),
	)
	if err != nil {
		return err
	}

	return nil
}

// NewClient binds a Client to backend on chain.
func (f *Factory) NewClient(backend chainApp.Backend, chain chainDomain.ChainInfo) app.Client {
	return &Client{
		Factory: f,
		backend: backend,
		chain:   chain,
	}
}

// Client talks to the Counter contract through one backend.
type Client struct {
	*Factory

	backend chainApp.Backend
	chain   chainDomain.ChainInfo
}

// Chain returns the chain the client is bound to.
func (c *Client) Chain() chainDomain.ChainInfo {
	return c.chain
}

// ReadContract calls a view function and returns its decoded result as JSON.
// A single return value is encoded on its own; uint256 values become bare
// JSON numbers.
func (c *Client) ReadContract(ctx context.Context, functionName string) ([]byte, error) {
	ctx, span := c.tracer.Start(ctx, "contract.read",
		trace.WithAttributes(attribute.String("function", functionName)),
	)
	defer span.End()

	start := time.Now()
	attrs := metric.WithAttributes(attribute.String("function", functionName))
	c.metrics.callsTotal.Add(ctx, 1, attrs)

	raw, err := c.read(ctx, functionName)
	c.metrics.callLatency.Record(ctx, float64(time.Since(start).Milliseconds()), attrs)
	if err != nil {
		c.metrics.callErrors.Add(ctx, 1, attrs)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(codes.Ok, "read")
	return raw, nil
}

func (c *Client) read(ctx context.Context, functionName string) ([]byte, error) {
	method, ok := c.abi.Methods[functionName]
	if !ok || !method.IsConstant() {
		return nil, apperror.New(apperror.CodeInvalidInput,
			apperror.WithContext(fmt.Sprintf("%s is not a view function", functionName)))
	}

	callData, err := c.abi.Pack(functionName)
	if err != nil {
		return nil, fmt.Errorf("failed to encode call: %w", err)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	result, err := c.readCB.Execute(func() ([]byte, error) {
		return c.backend.CallContract(ctx, ethereum.CallMsg{
			To:   &c.config.Address,
			Data: callData,
		}, nil)
	})
	if err != nil {
		return nil, apperror.New(apperror.CodeContractCallFailed,
			apperror.WithCause(err),
			apperror.WithContext(functionName))
	}

	outputs, err := c.abi.Unpack(functionName, result)
	if err != nil {
		return nil, apperror.New(apperror.CodeInvalidContractResult,
			apperror.WithCause(err),
			apperror.WithContext(functionName))
	}

	var value any = outputs
	if len(outputs) == 1 {
		value = outputs[0]
	}

	encoded, err := json.Marshal(value)
	if err != nil {
		return nil, apperror.New(apperror.CodeInvalidContractResult,
			apperror.WithCause(err),
			apperror.WithContext(functionName))
	}
	return encoded, nil
}

// BlockNumber returns the current block height.
func (c *Client) BlockNumber(ctx context.Context) (uint64, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, err
	}

	n, err := c.backend.BlockNumber(ctx)
	if err != nil {
		return 0, apperror.New(apperror.CodeEthereumRPCError,
			apperror.WithCause(err),
			apperror.WithContext("eth_blockNumber"))
	}
	return n, nil
}

// SimulateContract dry-runs the write from req.From and prices it. A call
// that would revert is rejected here, before anything is signed.
func (c *Client) SimulateContract(ctx context.Context, req domain.SimulateRequest) (*domain.PreparedRequest, error) {
	ctx, span := c.tracer.Start(ctx, "contract.simulate",
		trace.WithAttributes(
			attribute.String("function", req.FunctionName),
			attribute.String("from", req.From.Hex()),
		),
	)
	defer span.End()

	prepared, err := c.simulate(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int64("gas_limit", int64(prepared.Quote.GasLimit)))
	span.SetStatus(codes.Ok, "simulated")
	return prepared, nil
}

func (c *Client) simulate(ctx context.Context, req domain.SimulateRequest) (*domain.PreparedRequest, error) {
	if _, ok := c.abi.Methods[req.FunctionName]; !ok {
		return nil, apperror.New(apperror.CodeInvalidInput,
			apperror.WithContext(fmt.Sprintf("unknown function %s", req.FunctionName)))
	}

	callData, err := c.abi.Pack(req.FunctionName)
	if err != nil {
		return nil, fmt.Errorf("failed to encode call: %w", err)
	}

	msg := ethereum.CallMsg{
		From: req.From,
		To:   &c.config.Address,
		Data: callData,
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	if _, err := c.simCB.Execute(func() ([]byte, error) {
		return c.backend.CallContract(ctx, msg, nil)
	}); err != nil {
		return nil, apperror.New(apperror.CodeSimulationFailed,
			apperror.WithCause(err),
			apperror.WithContext(req.FunctionName))
	}

	gasLimit, err := c.oracle.EstimateGas(ctx, msg)
	if err != nil {
		return nil, apperror.New(apperror.CodeSimulationFailed,
			apperror.WithCause(err),
			apperror.WithContext("gas estimation"))
	}

	fees, err := c.oracle.SuggestFees(ctx)
	if err != nil {
		return nil, err
	}

	return &domain.PreparedRequest{
		From:         req.From,
		To:           c.config.Address,
		FunctionName: req.FunctionName,
		Data:         callData,
		Quote:        chainDomain.NewFeeQuote(gasLimit, fees),
	}, nil
}

// WriteContract signs the prepared request with the connected wallet and
// broadcasts it.
func (c *Client) WriteContract(ctx context.Context, req *domain.PreparedRequest) (common.Hash, error) {
	if req == nil || req.Quote == nil {
		return common.Hash{}, apperror.New(apperror.CodeInvalidInput,
			apperror.WithContext("write requires a simulated request"))
	}

	ctx, span := c.tracer.Start(ctx, "contract.write",
		trace.WithAttributes(
			attribute.String("function", req.FunctionName),
			attribute.String("from", req.From.Hex()),
		),
	)
	defer span.End()

	hash, err := c.write(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return common.Hash{}, err
	}

	c.metrics.txsSubmitted.Add(ctx, 1, metric.WithAttributes(attribute.String("function", req.FunctionName)))
	span.SetAttributes(attribute.String("tx_hash", hash.Hex()))
	span.SetStatus(codes.Ok, "submitted")

	c.logger.Info(ctx, "transaction submitted",
		"tx", hash.Hex(),
		"function", req.FunctionName,
		"gas_limit", req.Quote.GasLimit,
		"max_cost_eth", req.Quote.MaxCostEther().String(),
	)
	return hash, nil
}

func (c *Client) write(ctx context.Context, req *domain.PreparedRequest) (common.Hash, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return common.Hash{}, err
	}

	nonce, err := c.backend.PendingNonceAt(ctx, req.From)
	if err != nil {
		return common.Hash{}, apperror.New(apperror.CodeEthereumRPCError,
			apperror.WithCause(err),
			apperror.WithContext("eth_getTransactionCount"))
	}

	chainID := c.chain.BigID()
	tx := buildTx(chainID, nonce, req)

	signed, err := c.signer.SignTx(tx, chainID)
	if err != nil {
		return common.Hash{}, err
	}

	sender, err := types.Sender(types.LatestSignerForChainID(chainID), signed)
	if err != nil || sender != req.From {
		return common.Hash{}, apperror.New(apperror.CodeSigningFailed,
			apperror.WithCause(err),
			apperror.WithContext(fmt.Sprintf("signed by %s, expected %s", sender.Hex(), req.From.Hex())))
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return common.Hash{}, err
	}

	if err := c.backend.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, apperror.New(apperror.CodeTransactionSubmitError,
			apperror.WithCause(err))
	}

	return signed.Hash(), nil
}

// revertErrorCode is the JSON-RPC error code nodes use for execution reverts.
const revertErrorCode = 3

// isRevert reports whether err is the EVM rejecting the call rather than
// the node or transport failing.
func isRevert(err error) bool {
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) && rpcErr.ErrorCode() == revertErrorCode {
		return true
	}
	return strings.Contains(err.Error(), "execution reverted")
}

// buildTx creates an EIP-1559 transaction, or a legacy one when the chain
// has no base fee.
func buildTx(chainID *big.Int, nonce uint64, req *domain.PreparedRequest) *types.Transaction {
	to := req.To
	fees := req.Quote.Fees

	if fees.Legacy {
		return types.NewTx(&types.LegacyTx{
			Nonce:    nonce,
			GasPrice: fees.GasPrice,
			Gas:      req.Quote.GasLimit,
			To:       &to,
			Data:     req.Data,
		})
	}

	return types.NewTx(&types.DynamicFeeTx{
		ChainID:   chainID,
		Nonce:     nonce,
		GasTipCap: fees.GasTipCap,
		GasFeeCap: fees.GasFeeCap,
		Gas:       req.Quote.GasLimit,
		To:        &to,
		Data:      req.Data,
	})
}

// WaitForTransaction polls for the receipt of hash until it is mined or ctx
// is done. Lookup errors other than not-found are logged and polled through.
func (c *Client) WaitForTransaction(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	ctx, span := c.tracer.Start(ctx, "contract.wait",
		trace.WithAttributes(attribute.String("tx_hash", hash.Hex())),
	)
	defer span.End()

	ticker := time.NewTicker(c.config.ReceiptPollInterval)
	defer ticker.Stop()

	for {
		c.metrics.receiptPolls.Add(ctx, 1)

		receipt, err := c.backend.TransactionReceipt(ctx, hash)
		if err == nil {
			span.SetAttributes(
				attribute.Int64("status", int64(receipt.Status)),
				attribute.Int64("gas_used", int64(receipt.GasUsed)),
			)
			span.SetStatus(codes.Ok, "mined")
			return receipt, nil
		}
		if !errors.Is(err, ethereum.NotFound) {
			c.logger.Warn(ctx, "receipt lookup failed", "tx", hash.Hex(), "error", err)
		}

		select {
		case <-ctx.Done():
			err := apperror.New(apperror.CodeConfirmationFailed,
				apperror.WithCause(ctx.Err()),
				apperror.WithContext(hash.Hex()))
			span.RecordError(err)
			span.SetStatus(codes.Error, "not confirmed")
			return nil, err
		case <-ticker.C:
		}
	}
}

// Package app contains application services and port definitions for the chain context.
package app

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/fd1az/counter-dapp/business/chain/domain"
)

// Backend is the JSON-RPC surface the dapp uses from a live provider.
// *ethclient.Client satisfies it.
type Backend interface {
	ChainID(ctx context.Context) (*big.Int, error)
	BlockNumber(ctx context.Context) (uint64, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// ProviderEvent reports a change in provider availability. Backend and
// Chain are set only when Present is true.
type ProviderEvent struct {
	Present bool
	Backend Backend
	Chain   domain.ChainInfo
}

// ProviderWatcher keeps an RPC connection alive and reports when it
// appears or disappears.
type ProviderWatcher interface {
	// Run connects and supervises the provider until ctx is done.
	Run(ctx context.Context)

	// Events returns the availability stream. An absent event always
	// precedes the next present one.
	Events() <-chan ProviderEvent

	// Current returns the live backend, if any.
	Current() (Backend, domain.ChainInfo, bool)

	// Status returns detailed connection status.
	Status() domain.ProviderStatus
}

// GasOracle defines the interface for fee information.
type GasOracle interface {
	// GetGasPrice retrieves the current legacy gas price.
	GetGasPrice(ctx context.Context) (*domain.GasPrice, error)

	// SuggestFees returns fee caps for a new transaction.
	SuggestFees(ctx context.Context) (domain.FeeSuggestion, error)

	// EstimateGas estimates the gas needed for msg, with a safety margin.
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
}

// Package app contains the counter panel and its flows.
package app

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	chainApp "github.com/fd1az/counter-dapp/business/chain/app"
	chainDomain "github.com/fd1az/counter-dapp/business/chain/domain"
	"github.com/fd1az/counter-dapp/business/counter/domain"
)

// ReadClient performs read-only calls against the Counter contract.
type ReadClient interface {
	// ReadContract calls a view function and returns its result as JSON.
	ReadContract(ctx context.Context, functionName string) ([]byte, error)

	// BlockNumber returns the current block height.
	BlockNumber(ctx context.Context) (uint64, error)

	// Chain identifies the chain the client reads from.
	Chain() chainDomain.ChainInfo
}

// WriteClient prepares and submits contract writes.
type WriteClient interface {
	SimulateContract(ctx context.Context, req domain.SimulateRequest) (*domain.PreparedRequest, error)
	WriteContract(ctx context.Context, req *domain.PreparedRequest) (common.Hash, error)
}

// ConfirmationWaiter blocks until a transaction is mined.
type ConfirmationWaiter interface {
	WaitForTransaction(ctx context.Context, hash common.Hash) (*types.Receipt, error)
}

// Client is everything the panel needs from a live provider.
type Client interface {
	ReadClient
	WriteClient
	ConfirmationWaiter
}

// ClientFactory binds a Client to a newly available provider.
type ClientFactory interface {
	NewClient(backend chainApp.Backend, chain chainDomain.ChainInfo) Client
}

// Reporter receives every published panel state. Snapshots may arrive out
// of order from concurrent flows; Version orders them.
type Reporter interface {
	Report(State)
}

// Alerter surfaces a blocking, user-facing message.
type Alerter interface {
	Alert(message string)
}

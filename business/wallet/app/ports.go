// Package app contains application services and port definitions for the wallet context.
package app

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/core/types"

	"github.com/fd1az/counter-dapp/business/wallet/domain"
)

// AccountSource is the synchronous "current wallet account" accessor.
type AccountSource interface {
	CurrentAccount() domain.Account
}

// AccountSink receives polled account snapshots.
type AccountSink interface {
	SetAccount(domain.Account)
}

// Signer signs transactions for the connected account.
type Signer interface {
	SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error)
}

// Connector manages the user's account connection.
type Connector interface {
	AccountSource
	Signer

	// Connect unlocks the configured key.
	Connect(ctx context.Context) error

	// Disconnect forgets the unlocked key.
	Disconnect()
}

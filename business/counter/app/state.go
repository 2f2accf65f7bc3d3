package app

import (
	"fmt"
	"math/big"

	chainDomain "github.com/fd1az/counter-dapp/business/chain/domain"
	"github.com/fd1az/counter-dapp/business/counter/domain"
	walletDomain "github.com/fd1az/counter-dapp/business/wallet/domain"
)

// State is an immutable snapshot of the panel.
type State struct {
	// Version increases with every published change.
	Version uint64

	Account         walletDomain.Account
	ProviderPresent bool
	Chain           chainDomain.ChainSnapshot

	// Count is nil until the first successful read.
	Count              *big.Int
	IsLoading          bool
	ShowConnectionInfo bool

	// Alert is a pending modal message, empty when none.
	Alert       string
	LastOutcome *domain.Outcome
}

// Store is the panel state the flows read and write.
type Store interface {
	Account() walletDomain.Account
	SetCount(n *big.Int)
	SetBlockNumber(n uint64)
	SetLoading(loading bool)
	SetOutcome(out domain.Outcome)
}

// AccountText describes the wallet connection.
func (s State) AccountText() string {
	if s.Account.IsConnected {
		return fmt.Sprintf("Address %s is connected to this dapp", s.Account.Hex())
	}
	return "No account connected. Connect wallet to interact with dapp"
}

// ProviderText describes the read provider.
func (s State) ProviderText() string {
	if !s.ProviderPresent {
		return "No Ethereum provider available. Configure ethereum.websocket_url or ethereum.http_url"
	}
	return fmt.Sprintf("Connected to %s (chain ID %d)", s.Chain.Chain.Name, s.Chain.Chain.ID)
}

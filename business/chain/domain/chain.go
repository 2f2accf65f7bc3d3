// Package domain contains the core domain types for the chain context.
package domain

import (
	"fmt"
	"math/big"
	"time"
)

// knownChains maps chain IDs to display names.
var knownChains = map[uint64]string{
	1:        "Ethereum",
	5:        "Goerli",
	10:       "OP Mainnet",
	137:      "Polygon",
	1337:     "Localhost",
	8453:     "Base",
	31337:    "Hardhat",
	42161:    "Arbitrum One",
	80001:    "Polygon Mumbai",
	80002:    "Polygon Amoy",
	84532:    "Base Sepolia",
	11155111: "Sepolia",
}

// ChainInfo identifies the chain a provider is connected to.
type ChainInfo struct {
	ID   uint64
	Name string
}

// NewChainInfo resolves the display name for id.
func NewChainInfo(id uint64) ChainInfo {
	name, ok := knownChains[id]
	if !ok {
		name = fmt.Sprintf("Chain %d", id)
	}
	return ChainInfo{ID: id, Name: name}
}

// BigID returns the chain ID in the form transaction signers expect.
func (c ChainInfo) BigID() *big.Int {
	return new(big.Int).SetUint64(c.ID)
}

// IsZero reports whether no chain has been observed.
func (c ChainInfo) IsZero() bool {
	return c.ID == 0
}

// ChainSnapshot holds the latest observed chain facts. BlockNumber is nil
// until the first read completes.
type ChainSnapshot struct {
	Chain       ChainInfo
	BlockNumber *uint64
}

// WithBlockNumber returns a copy of s carrying n.
func (s ChainSnapshot) WithBlockNumber(n uint64) ChainSnapshot {
	s.BlockNumber = &n
	return s
}

// ConnectionState represents the state of the provider connection.
type ConnectionState string

const (
	StateDisconnected ConnectionState = "disconnected"
	StateConnecting   ConnectionState = "connecting"
	StateConnected    ConnectionState = "connected"
	StateReconnecting ConnectionState = "reconnecting"
)

// GaugeValue returns the state as exported by the connection gauge.
func (s ConnectionState) GaugeValue() int64 {
	switch s {
	case StateConnecting:
		return 1
	case StateConnected:
		return 2
	case StateReconnecting:
		return 3
	default:
		return 0
	}
}

// ProviderStatus contains detailed connection information.
type ProviderStatus struct {
	State      ConnectionState
	Chain      ChainInfo
	LastBlock  uint64
	LastCheck  time.Time
	Reconnects int
	UsingHTTP  bool // true if the WS endpoint failed and HTTP is in use
}

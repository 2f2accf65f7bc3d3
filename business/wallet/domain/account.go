// Package domain contains the core domain types for the wallet context.
package domain

import (
	"github.com/ethereum/go-ethereum/common"
)

// Account is a snapshot of the wallet connection. IsConnected implies
// Address is set; the converse does not hold.
type Account struct {
	Address     *common.Address
	IsConnected bool
}

// Connected returns the account for a connected address.
func Connected(addr common.Address) Account {
	return Account{Address: &addr, IsConnected: true}
}

// Disconnected returns the account with no connection.
func Disconnected() Account {
	return Account{}
}

// Hex returns the address in checksum form, or "" when unset.
func (a Account) Hex() string {
	if a.Address == nil {
		return ""
	}
	return a.Address.Hex()
}

// Short returns an abbreviated address for display.
func (a Account) Short() string {
	h := a.Hex()
	if len(h) < 10 {
		return h
	}
	return h[:6] + "…" + h[len(h)-4:]
}

// Equal reports whether both snapshots describe the same connection.
func (a Account) Equal(b Account) bool {
	if a.IsConnected != b.IsConnected {
		return false
	}
	if a.Address == nil || b.Address == nil {
		return a.Address == nil && b.Address == nil
	}
	return *a.Address == *b.Address
}

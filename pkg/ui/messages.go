// Package ui provides the Bubble Tea TUI for the counter dapp.
package ui

import (
	"github.com/fd1az/counter-dapp/business/counter/app"
	"github.com/fd1az/counter-dapp/business/counter/domain"
)

// Message types for TUI updates

// StateMsg carries a published panel snapshot.
type StateMsg struct {
	State app.State
}

// OutcomeMsg is sent when an increment flow returns.
type OutcomeMsg struct {
	Outcome domain.Outcome
}

// WalletToggledMsg is sent when a connect or disconnect request returns.
type WalletToggledMsg struct {
	Err error
}

// TickMsg is sent periodically for UI updates.
type TickMsg struct{}

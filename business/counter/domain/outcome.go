package domain

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	chainDomain "github.com/fd1az/counter-dapp/business/chain/domain"
	"github.com/fd1az/counter-dapp/internal/apperror"
)

// Stage is a step of the increment flow.
type Stage int

const (
	StageIdle Stage = iota
	StageSimulating
	StageSubmitted
	StageConfirming
	StageRefreshing
)

// String returns the stage name.
func (s Stage) String() string {
	switch s {
	case StageSimulating:
		return "simulating"
	case StageSubmitted:
		return "submitted"
	case StageConfirming:
		return "confirming"
	case StageRefreshing:
		return "refreshing"
	default:
		return "idle"
	}
}

// Failure kinds. Match with errors.Is; adapter errors carrying the same
// code match too.
var (
	ErrNotConnected = apperror.New(apperror.CodeWalletNotConnected)
	ErrBusy         = apperror.New(apperror.CodeTransactionInFlight)
	ErrNoProvider   = apperror.New(apperror.CodeProviderUnavailable)
	ErrReverted     = apperror.New(apperror.CodeTransactionReverted)
)

// Outcome is the result of one increment flow. Stage is the stage that
// failed, or StageIdle when the flow succeeded or was rejected by a guard.
type Outcome struct {
	Stage   Stage
	TxHash  *common.Hash
	Receipt *types.Receipt
	Quote   *chainDomain.FeeQuote
	Err     error
}

// Ok reports whether the transaction was mined successfully.
func (o Outcome) Ok() bool {
	return o.Err == nil
}

// Summary is a one-line human description.
func (o Outcome) Summary() string {
	switch {
	case o.Err == nil && o.TxHash != nil:
		return "Counter incremented in tx " + o.TxHash.Hex()
	case o.Err == nil:
		return "Counter incremented"
	case o.Stage == StageIdle:
		return apperror.Message(apperror.GetCode(o.Err))
	default:
		return "Increment failed while " + o.Stage.String() + ": " + apperror.Message(apperror.GetCode(o.Err))
	}
}

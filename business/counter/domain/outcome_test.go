package domain

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/counter-dapp/internal/apperror"
)

func TestOutcome_Summary(t *testing.T) {
	hash := common.HexToHash("0x01")

	tests := []struct {
		name string
		out  Outcome
		want string
	}{
		{"success", Outcome{TxHash: &hash}, "Counter incremented in tx " + hash.Hex()},
		{"guard", Outcome{Err: ErrNotConnected}, "Connect wallet to update blockchain data"},
		{"reverted", Outcome{Stage: StageConfirming, Err: ErrReverted},
			"Increment failed while confirming: " + apperror.Message(apperror.CodeTransactionReverted)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.out.Summary(); got != tt.want {
				t.Errorf("Summary() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFailureKindsMatchByCode(t *testing.T) {
	err := apperror.New(apperror.CodeTransactionReverted, apperror.WithContext("0xabc"))
	if !errors.Is(err, ErrReverted) {
		t.Error("expected adapter error to match ErrReverted")
	}
	if errors.Is(err, ErrBusy) {
		t.Error("expected no match across codes")
	}
}

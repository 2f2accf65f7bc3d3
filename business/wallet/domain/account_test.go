package domain

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestAccount_Equal(t *testing.T) {
	a := common.HexToAddress("0xA003003C47fb65291CB0B079CBd6028a7aF60Fa2")
	b := common.HexToAddress("0x0000000000000000000000000000000000000001")

	tests := []struct {
		name string
		x, y Account
		want bool
	}{
		{"both disconnected", Disconnected(), Disconnected(), true},
		{"same address", Connected(a), Connected(a), true},
		{"different address", Connected(a), Connected(b), false},
		{"connected vs disconnected", Connected(a), Disconnected(), false},
		{"lingering address", Account{Address: &a}, Disconnected(), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.x.Equal(tt.y); got != tt.want {
				t.Errorf("Equal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAccount_Short(t *testing.T) {
	a := Connected(common.HexToAddress("0xA003003C47fb65291CB0B079CBd6028a7aF60Fa2"))
	if got := a.Short(); got != "0xA003…0Fa2" {
		t.Errorf("Short() = %s", got)
	}
	if Disconnected().Short() != "" {
		t.Error("expected empty short address")
	}
}

package infra

import (
	"bytes"
	"context"
	"math/big"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/counter-dapp/business/counter/app"
	"github.com/fd1az/counter-dapp/business/counter/domain"
	walletDomain "github.com/fd1az/counter-dapp/business/wallet/domain"
	"github.com/fd1az/counter-dapp/internal/apperror"
	"github.com/fd1az/counter-dapp/pkg/ui"
)

func TestConsoleReporter_PrintsChanges(t *testing.T) {
	var out, errOut bytes.Buffer
	r := NewConsoleReporterTo(&out, &errOut)

	r.Report(app.State{Version: 1})
	if !strings.Contains(out.String(), "No account connected") {
		t.Errorf("expected disconnected line, got %q", out.String())
	}
	if !strings.Contains(out.String(), "No Ethereum provider") {
		t.Errorf("expected provider prompt, got %q", out.String())
	}

	out.Reset()
	addr := common.HexToAddress("0xA003003C47fb65291CB0B079CBd6028a7aF60Fa2")
	r.Report(app.State{Version: 2, Account: walletDomain.Connected(addr), Count: big.NewInt(5)})

	got := out.String()
	if !strings.Contains(got, "Address "+addr.Hex()+" is connected to this dapp") {
		t.Errorf("expected connected line, got %q", got)
	}
	if !strings.Contains(got, "Count: 5") {
		t.Errorf("expected count line, got %q", got)
	}
	if strings.Contains(got, "provider") {
		t.Errorf("unchanged provider should not be printed, got %q", got)
	}
}

func TestConsoleReporter_DropsStaleAndAlertsToErrStream(t *testing.T) {
	var out, errOut bytes.Buffer
	r := NewConsoleReporterTo(&out, &errOut)

	r.Report(app.State{Version: 5, Count: big.NewInt(9)})
	out.Reset()

	r.Report(app.State{Version: 4, Count: big.NewInt(1)})
	if out.Len() != 0 {
		t.Errorf("expected stale snapshot dropped, got %q", out.String())
	}

	msg := apperror.Message(apperror.CodeWalletNotConnected)
	r.Report(app.State{Version: 6, Count: big.NewInt(9), Alert: msg})
	if !strings.Contains(errOut.String(), msg) {
		t.Errorf("expected alert on error stream, got %q", errOut.String())
	}
	if strings.Contains(out.String(), msg) {
		t.Error("alert should not go to stdout")
	}
}

func TestConsoleReporter_Outcome(t *testing.T) {
	var out, errOut bytes.Buffer
	r := NewConsoleReporterTo(&out, &errOut)

	hash := common.HexToHash("0x01")
	r.Report(app.State{Version: 1})
	r.Report(app.State{Version: 2, IsLoading: true})
	r.Report(app.State{Version: 3, LastOutcome: &domain.Outcome{TxHash: &hash}})

	got := out.String()
	if !strings.Contains(got, "Waiting for confirmation") {
		t.Errorf("expected loading line, got %q", got)
	}
	if !strings.Contains(got, "Counter incremented in tx "+hash.Hex()) {
		t.Errorf("expected outcome summary, got %q", got)
	}
}

type recordingSender struct {
	mu   sync.Mutex
	msgs []tea.Msg
}

func (s *recordingSender) Send(msg tea.Msg) {
	s.mu.Lock()
	s.msgs = append(s.msgs, msg)
	s.mu.Unlock()
}

func (s *recordingSender) last() (ui.StateMsg, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.msgs) == 0 {
		return ui.StateMsg{}, 0
	}
	return s.msgs[len(s.msgs)-1].(ui.StateMsg), len(s.msgs)
}

func TestTUIReporter_ForwardsNewest(t *testing.T) {
	r := NewTUIReporter()

	// Queued before Run; only the newest survives.
	r.Report(app.State{Version: 1})
	r.Report(app.State{Version: 3})
	r.Report(app.State{Version: 2})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sender := &recordingSender{}
	go r.Run(ctx, sender)

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if msg, n := sender.last(); n > 0 {
			if n != 1 || msg.State.Version != 3 {
				t.Errorf("expected one message with version 3, got %d messages, version %d", n, msg.State.Version)
			}
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("expected a forwarded state")
}

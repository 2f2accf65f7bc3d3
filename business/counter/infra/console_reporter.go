// Package infra contains infrastructure adapters for the counter context.
package infra

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	chainDomain "github.com/fd1az/counter-dapp/business/chain/domain"
	"github.com/fd1az/counter-dapp/business/counter/app"
)

// ConsoleReporter implements app.Reporter for CLI output. It prints only
// what changed since the previous snapshot; alerts go to the error stream.
type ConsoleReporter struct {
	out    io.Writer
	errOut io.Writer

	mu   sync.Mutex
	last app.State
	seen bool
}

// NewConsoleReporter creates a ConsoleReporter writing to stdout and stderr.
func NewConsoleReporter() *ConsoleReporter {
	return NewConsoleReporterTo(os.Stdout, os.Stderr)
}

// NewConsoleReporterTo creates a ConsoleReporter with explicit writers.
func NewConsoleReporterTo(out, errOut io.Writer) *ConsoleReporter {
	return &ConsoleReporter{
		out:    out,
		errOut: errOut,
	}
}

// Report prints the differences between s and the last printed state.
// Snapshots older than the last one seen are dropped.
func (r *ConsoleReporter) Report(s app.State) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.seen && s.Version <= r.last.Version {
		return
	}
	prev := r.last
	first := !r.seen
	r.last = s
	r.seen = true

	ts := time.Now().Format("15:04:05")

	if first || !prev.Account.Equal(s.Account) {
		fmt.Fprintf(r.out, "[%s] %s\n", ts, s.AccountText())
	}
	if first || prev.ProviderPresent != s.ProviderPresent || prev.Chain.Chain != s.Chain.Chain {
		fmt.Fprintf(r.out, "[%s] %s\n", ts, s.ProviderText())
	}
	if s.Chain.BlockNumber != nil && (prev.Chain.BlockNumber == nil || *prev.Chain.BlockNumber != *s.Chain.BlockNumber) {
		fmt.Fprintf(r.out, "[%s] Block number: %d\n", ts, *s.Chain.BlockNumber)
	}
	if s.Count != nil && (prev.Count == nil || prev.Count.Cmp(s.Count) != 0) {
		fmt.Fprintf(r.out, "[%s] Count: %s\n", ts, s.Count.String())
	}
	if s.IsLoading != prev.IsLoading {
		if s.IsLoading {
			fmt.Fprintf(r.out, "[%s] Waiting for confirmation...\n", ts)
		} else if !first {
			fmt.Fprintf(r.out, "[%s] Done\n", ts)
		}
	}
	if s.ShowConnectionInfo != prev.ShowConnectionInfo {
		visibility := "hidden"
		if s.ShowConnectionInfo {
			visibility = "shown"
		}
		fmt.Fprintf(r.out, "[%s] Connection info %s\n", ts, visibility)
	}
	if s.LastOutcome != nil && s.LastOutcome != prev.LastOutcome {
		fmt.Fprintf(r.out, "[%s] %s\n", ts, s.LastOutcome.Summary())
		if q := s.LastOutcome.Quote; q != nil {
			fmt.Fprintf(r.out, "[%s]   gas limit %d, max fee %s gwei, max cost %s ETH\n",
				ts, q.GasLimit, chainDomain.WeiToGwei(q.Fees.PerGas()).StringFixed(2), q.MaxCostEther().StringFixed(6))
		}
	}
	if s.Alert != "" && s.Alert != prev.Alert {
		fmt.Fprintf(r.errOut, "ALERT: %s\n", s.Alert)
	}
}

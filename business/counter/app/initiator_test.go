package app

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/core/types"

	"github.com/fd1az/counter-dapp/business/counter/domain"
	walletDomain "github.com/fd1az/counter-dapp/business/wallet/domain"
	"github.com/fd1az/counter-dapp/internal/apperror"
)

func connectedPanel(t *testing.T, client *fakeClient, log *journal) (*Panel, *loadingReporter) {
	t.Helper()
	p, rep := newTestPanel(log, nil, &fakeFactory{client: client}, &fakeConnector{})
	p.SetAccount(walletDomain.Connected(testAddress))
	if client != nil {
		p.setClient(client, client.Chain())
	}
	return p, rep
}

func TestIncrement_StageOrder(t *testing.T) {
	log := &journal{}
	client := newFakeClient(log)
	p, rep := connectedPanel(t, client, log)

	out := p.Increment(context.Background())
	if !out.Ok() {
		t.Fatalf("expected success, got %v", out.Err)
	}
	if out.TxHash == nil || out.Receipt == nil {
		t.Error("expected hash and receipt on success")
	}

	want := []string{
		"simulate:increment",
		"write",
		"loading=true",
		"wait",
		"read:retrieve",
		"loading=false",
	}
	got := log.list()
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("step %d: expected %s, got %s", i, want[i], got[i])
		}
	}

	state := rep.latest()
	if state.Count == nil || state.Count.Int64() != 5 {
		t.Errorf("expected refreshed count 5, got %v", state.Count)
	}
	if state.LastOutcome == nil || !state.LastOutcome.Ok() {
		t.Error("expected successful outcome in state")
	}
}

func TestIncrement_DisconnectedAlertsOnly(t *testing.T) {
	log := &journal{}
	client := newFakeClient(log)
	p, rep := newTestPanel(log, nil, &fakeFactory{client: client}, &fakeConnector{})
	p.setClient(client, client.Chain())

	out := p.Increment(context.Background())

	if !errors.Is(out.Err, domain.ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", out.Err)
	}
	if n := len(log.list()); n != 0 {
		t.Errorf("expected no client calls, got %v", log.list())
	}
	state := rep.latest()
	if state.Alert != apperror.Message(apperror.CodeWalletNotConnected) {
		t.Errorf("unexpected alert %q", state.Alert)
	}
	if state.IsLoading {
		t.Error("expected loading to stay false")
	}
	if state.LastOutcome != nil {
		t.Error("expected no outcome recorded for the guard")
	}
}

func TestIncrement_SimulationFailureStillRefreshes(t *testing.T) {
	log := &journal{}
	client := newFakeClient(log)
	client.simulateErr = apperror.New(apperror.CodeSimulationFailed)
	p, rep := connectedPanel(t, client, log)

	out := p.Increment(context.Background())

	if out.Stage != domain.StageSimulating {
		t.Errorf("expected simulating stage, got %s", out.Stage)
	}
	if apperror.GetCode(out.Err) != apperror.CodeSimulationFailed {
		t.Errorf("expected simulation error, got %v", out.Err)
	}
	if log.count("write") != 0 {
		t.Error("expected no write after failed simulation")
	}
	if log.count("read:retrieve") != 1 {
		t.Error("expected counter refresh after failure")
	}
	if log.count("loading=true") != 0 {
		t.Error("loading should never be set before submission")
	}
	if rep.latest().IsLoading {
		t.Error("expected loading false")
	}
}

func TestIncrement_WriteFailure(t *testing.T) {
	log := &journal{}
	client := newFakeClient(log)
	client.writeErr = apperror.New(apperror.CodeTransactionSubmitError)
	p, rep := connectedPanel(t, client, log)

	out := p.Increment(context.Background())

	if out.Stage != domain.StageSubmitted {
		t.Errorf("expected submitted stage, got %s", out.Stage)
	}
	if log.count("wait") != 0 {
		t.Error("expected no wait after failed write")
	}
	if log.count("read:retrieve") != 1 {
		t.Error("expected counter refresh after failure")
	}
	if rep.latest().IsLoading {
		t.Error("expected loading false")
	}
}

func TestIncrement_RevertedReceipt(t *testing.T) {
	log := &journal{}
	client := newFakeClient(log)
	client.status = types.ReceiptStatusFailed
	p, rep := connectedPanel(t, client, log)

	out := p.Increment(context.Background())

	if !errors.Is(out.Err, domain.ErrReverted) {
		t.Fatalf("expected ErrReverted, got %v", out.Err)
	}
	if out.Stage != domain.StageConfirming {
		t.Errorf("expected confirming stage, got %s", out.Stage)
	}
	if out.Receipt == nil {
		t.Error("expected receipt kept on revert")
	}
	if log.count("read:retrieve") != 1 {
		t.Error("expected counter refresh after revert")
	}
	if rep.latest().IsLoading {
		t.Error("expected loading false")
	}
}

func TestIncrement_NoProvider(t *testing.T) {
	log := &journal{}
	p, rep := connectedPanel(t, nil, log)

	out := p.Increment(context.Background())

	if !errors.Is(out.Err, domain.ErrNoProvider) {
		t.Fatalf("expected ErrNoProvider, got %v", out.Err)
	}
	if rep.latest().IsLoading {
		t.Error("expected loading false")
	}
}

func TestIncrement_SecondCallWhileInFlightIsBusy(t *testing.T) {
	log := &journal{}
	client := newFakeClient(log)
	client.waitGate = make(chan struct{})
	p, _ := connectedPanel(t, client, log)

	first := make(chan domain.Outcome, 1)
	go func() {
		first <- p.Increment(context.Background())
	}()
	<-client.written

	out := p.Increment(context.Background())
	if !errors.Is(out.Err, domain.ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", out.Err)
	}
	if log.count("simulate:increment") != 1 {
		t.Errorf("expected a single simulation, got %d", log.count("simulate:increment"))
	}

	close(client.waitGate)
	if res := <-first; !res.Ok() {
		t.Errorf("expected first flow to succeed, got %v", res.Err)
	}

	// The guard releases once the flow completes.
	if out := p.Increment(context.Background()); !out.Ok() {
		t.Errorf("expected third flow to succeed, got %v", out.Err)
	}
}

func TestIncrement_CancelledWhileConfirming(t *testing.T) {
	log := &journal{}
	client := newFakeClient(log)
	client.waitGate = make(chan struct{})
	p, rep := connectedPanel(t, client, log)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan domain.Outcome, 1)
	go func() {
		done <- p.Increment(ctx)
	}()
	<-client.written
	cancel()

	out := <-done
	if out.Stage != domain.StageConfirming {
		t.Errorf("expected confirming stage, got %s", out.Stage)
	}
	if out.TxHash == nil {
		t.Error("expected hash kept for a submitted tx")
	}
	if rep.latest().IsLoading {
		t.Error("expected loading false")
	}
}

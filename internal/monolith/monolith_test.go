package monolith

import (
	"context"
	"errors"
	"testing"

	"github.com/fd1az/counter-dapp/internal/config"
	"github.com/fd1az/counter-dapp/internal/di"
	"github.com/fd1az/counter-dapp/internal/logger"
)

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

type recordingModule struct {
	name  string
	order *[]string
}

func (m recordingModule) RegisterServices(di.Container) error {
	*m.order = append(*m.order, "register:"+m.name)
	return nil
}

func (m recordingModule) Startup(context.Context, Monolith) error {
	*m.order = append(*m.order, "start:"+m.name)
	return nil
}

func TestApp_ModulesRunInOrder(t *testing.T) {
	mono := New(&config.Config{}, logger.NewDiscard())

	var order []string
	mods := []Module{
		recordingModule{name: "chain", order: &order},
		recordingModule{name: "wallet", order: &order},
	}

	if err := mono.RegisterModules(mods...); err != nil {
		t.Fatal(err)
	}
	if err := mono.StartModules(context.Background(), mods...); err != nil {
		t.Fatal(err)
	}

	want := []string{"register:chain", "register:wallet", "start:chain", "start:wallet"}
	if len(order) != len(want) {
		t.Fatalf("expected %v, got %v", want, order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("step %d: expected %s, got %s", i, want[i], order[i])
		}
	}
}

func TestApp_CloseReverseOrderAndJoinsErrors(t *testing.T) {
	mono := New(&config.Config{}, logger.NewDiscard())

	var closed []int
	boom := errors.New("boom")
	mono.OnClose(closerFunc(func() error { closed = append(closed, 1); return nil }))
	mono.OnClose(closerFunc(func() error { closed = append(closed, 2); return boom }))

	err := mono.Close()
	if !errors.Is(err, boom) {
		t.Errorf("expected joined error to contain boom, got %v", err)
	}
	if len(closed) != 2 || closed[0] != 2 || closed[1] != 1 {
		t.Errorf("expected reverse close order [2 1], got %v", closed)
	}
	if err := mono.Close(); err != nil {
		t.Errorf("expected second Close to be a no-op, got %v", err)
	}
}

func TestApp_ExposesSharedServices(t *testing.T) {
	cfg := &config.Config{}
	mono := New(cfg, logger.NewDiscard())

	if mono.Services().Get("config").(*config.Config) != cfg {
		t.Error("expected config registered in container")
	}
}

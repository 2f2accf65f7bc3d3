// Package counter implements the counter bounded context: the panel that
// reads and increments the Counter contract.
package counter

import (
	"context"

	chainDI "github.com/fd1az/counter-dapp/business/chain/di"
	"github.com/fd1az/counter-dapp/business/counter/app"
	counterDI "github.com/fd1az/counter-dapp/business/counter/di"
	"github.com/fd1az/counter-dapp/business/counter/infra"
	"github.com/fd1az/counter-dapp/business/counter/infra/contract"
	walletDI "github.com/fd1az/counter-dapp/business/wallet/di"
	"github.com/fd1az/counter-dapp/internal/config"
	"github.com/fd1az/counter-dapp/internal/di"
	"github.com/fd1az/counter-dapp/internal/logger"
	"github.com/fd1az/counter-dapp/internal/monolith"
)

// Module implements the counter bounded context. It depends on the chain
// and wallet modules being registered first.
type Module struct{}

// RegisterServices registers all counter services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, counterDI.ClientFactory, func(sr di.ServiceRegistry) *contract.Factory {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		clientCfg := contract.DefaultConfig(cfg.Contract.AddressHex())
		if cfg.Ethereum.ReceiptPollInterval > 0 {
			clientCfg.ReceiptPollInterval = cfg.Ethereum.ReceiptPollInterval
		}
		if cfg.Ethereum.RPCRatePerSecond > 0 {
			clientCfg.RPCRatePerSecond = cfg.Ethereum.RPCRatePerSecond
		}

		f, err := contract.NewFactory(clientCfg, walletDI.GetConnector(sr), chainDI.GetChainService(sr).GasOracle(), log)
		if err != nil {
			panic("failed to create contract client factory: " + err.Error())
		}
		return f
	})

	di.RegisterToken(c, counterDI.TUIReporter, func(di.ServiceRegistry) *infra.TUIReporter {
		return infra.NewTUIReporter()
	})

	di.RegisterToken(c, counterDI.ConsoleReporter, func(di.ServiceRegistry) *infra.ConsoleReporter {
		return infra.NewConsoleReporter()
	})

	di.RegisterToken(c, counterDI.Panel, func(sr di.ServiceRegistry) *app.Panel {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		var reporter app.Reporter = counterDI.GetConsoleReporter(sr)
		if cfg.TUIMode {
			reporter = counterDI.GetTUIReporter(sr)
		}

		panel, err := app.NewPanel(app.PanelConfig{
			Connector:    walletDI.GetConnector(sr),
			PollInterval: cfg.Wallet.PollInterval,
			Events:       chainDI.GetChainService(sr).ProviderEvents(),
			Clients:      counterDI.GetClientFactory(sr),
			Reporter:     reporter,
			Logger:       log,
		})
		if err != nil {
			panic("failed to create counter panel: " + err.Error())
		}
		return panel
	})

	return nil
}

// Startup mounts the panel. It is unmounted when the monolith closes.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()
	cfg := mono.Config()

	panel := counterDI.GetPanel(mono.Services())
	panel.Mount(ctx)
	mono.OnClose(closerFunc(func() error {
		panel.Unmount()
		return nil
	}))

	log.Info(ctx, "counter module started",
		"contract", cfg.Contract.AddressHex().Hex(),
		"tui", cfg.TUIMode)
	return nil
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

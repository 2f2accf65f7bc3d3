// Package chain implements the chain bounded context: provider supervision
// and fee lookups.
package chain

import (
	"context"

	"github.com/fd1az/counter-dapp/business/chain/app"
	chainDI "github.com/fd1az/counter-dapp/business/chain/di"
	"github.com/fd1az/counter-dapp/business/chain/infra/ethereum"
	"github.com/fd1az/counter-dapp/internal/config"
	"github.com/fd1az/counter-dapp/internal/di"
	"github.com/fd1az/counter-dapp/internal/logger"
	"github.com/fd1az/counter-dapp/internal/monolith"
)

// Module implements the chain bounded context.
type Module struct{}

// RegisterServices registers all chain services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, chainDI.Provider, func(sr di.ServiceRegistry) *ethereum.Provider {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		provCfg := ethereum.DefaultProviderConfig(cfg.Ethereum.WebSocketURL, cfg.Ethereum.HTTPURL)
		if cfg.Ethereum.ReconnectDelay > 0 {
			provCfg.ReconnectDelay = cfg.Ethereum.ReconnectDelay
		}
		if cfg.Ethereum.HealthInterval > 0 {
			provCfg.HealthInterval = cfg.Ethereum.HealthInterval
		}

		p, err := ethereum.NewProvider(provCfg, log)
		if err != nil {
			panic("failed to create provider: " + err.Error())
		}
		return p
	})

	di.RegisterToken(c, chainDI.GasOracle, func(sr di.ServiceRegistry) *ethereum.GasOracle {
		log := sr.Get("logger").(logger.LoggerInterface)

		oracle, err := ethereum.NewGasOracle(ethereum.DefaultGasOracleConfig(), chainDI.GetProvider(sr), log)
		if err != nil {
			panic("failed to create gas oracle: " + err.Error())
		}
		return oracle
	})

	di.RegisterToken(c, chainDI.ChainService, func(sr di.ServiceRegistry) *app.ChainService {
		return app.NewChainService(chainDI.GetProvider(sr), chainDI.GetGasOracle(sr))
	})

	return nil
}

// Startup launches provider supervision. A missing or unreachable provider
// is not fatal: the panel renders without chain data until one appears.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()

	provider := chainDI.GetProvider(mono.Services())
	oracle := chainDI.GetGasOracle(mono.Services())
	mono.OnClose(provider)
	mono.OnClose(oracle)

	go provider.Run(ctx)

	log.Info(ctx, "chain module started",
		"provider_configured", mono.Config().Ethereum.HasProvider())
	return nil
}

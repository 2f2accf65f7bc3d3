// Package di contains dependency injection tokens for the chain context.
package di

import (
	"github.com/fd1az/counter-dapp/business/chain/app"
	"github.com/fd1az/counter-dapp/business/chain/infra/ethereum"
	"github.com/fd1az/counter-dapp/internal/di"
)

// Public service tokens - exposed to other modules
var (
	ChainService = di.NewToken[*app.ChainService]("chain.ChainService")
)

// Private dependency tokens - internal to chain module
var (
	Provider  = di.NewToken[*ethereum.Provider]("chain:provider")
	GasOracle = di.NewToken[*ethereum.GasOracle]("chain:gasOracle")
)

// Helper functions for type-safe access
func GetChainService(c di.ServiceRegistry) *app.ChainService {
	return di.GetToken(c, ChainService)
}

func GetProvider(c di.ServiceRegistry) *ethereum.Provider {
	return di.GetToken(c, Provider)
}

func GetGasOracle(c di.ServiceRegistry) *ethereum.GasOracle {
	return di.GetToken(c, GasOracle)
}

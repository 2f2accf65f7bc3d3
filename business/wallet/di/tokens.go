// Package di contains dependency injection tokens for the wallet context.
package di

import (
	"github.com/fd1az/counter-dapp/business/wallet/infra/keystore"
	"github.com/fd1az/counter-dapp/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Connector = di.NewToken[*keystore.Connector]("wallet.Connector")
)

// GetConnector returns the wallet connector.
func GetConnector(c di.ServiceRegistry) *keystore.Connector {
	return di.GetToken(c, Connector)
}

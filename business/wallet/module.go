// Package wallet implements the wallet bounded context: the local key
// connector and the account poller.
package wallet

import (
	"context"

	walletDI "github.com/fd1az/counter-dapp/business/wallet/di"
	"github.com/fd1az/counter-dapp/business/wallet/infra/keystore"
	"github.com/fd1az/counter-dapp/internal/config"
	"github.com/fd1az/counter-dapp/internal/di"
	"github.com/fd1az/counter-dapp/internal/logger"
	"github.com/fd1az/counter-dapp/internal/monolith"
)

// Module implements the wallet bounded context.
type Module struct{}

// RegisterServices registers all wallet services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, walletDI.Connector, func(sr di.ServiceRegistry) *keystore.Connector {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		return keystore.NewConnector(keystore.Config{
			PrivateKey:         cfg.Wallet.PrivateKey,
			KeystorePath:       cfg.Wallet.KeystorePath,
			KeystorePassphrase: cfg.Wallet.KeystorePassphrase,
		}, log)
	})

	return nil
}

// Startup connects the wallet when auto_connect is set. A failure leaves
// the wallet disconnected; the user can retry from the panel.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()
	cfg := mono.Config()

	connector := walletDI.GetConnector(mono.Services())
	mono.OnClose(closerFunc(func() error {
		connector.Disconnect()
		return nil
	}))

	if cfg.Wallet.AutoConnect && connector.Configured() {
		if err := connector.Connect(ctx); err != nil {
			log.Error(ctx, "wallet auto-connect failed", "error", err)
		}
	}

	log.Info(ctx, "wallet module started", "key_configured", connector.Configured())
	return nil
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

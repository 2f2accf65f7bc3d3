// Package di contains dependency injection tokens for the counter context.
package di

import (
	"github.com/fd1az/counter-dapp/business/counter/app"
	"github.com/fd1az/counter-dapp/business/counter/infra"
	"github.com/fd1az/counter-dapp/business/counter/infra/contract"
	"github.com/fd1az/counter-dapp/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Panel       = di.NewToken[*app.Panel]("counter.Panel")
	TUIReporter = di.NewToken[*infra.TUIReporter]("counter.TUIReporter")
)

// Private dependency tokens - internal to counter module
var (
	ClientFactory   = di.NewToken[*contract.Factory]("counter:clientFactory")
	ConsoleReporter = di.NewToken[*infra.ConsoleReporter]("counter:consoleReporter")
)

// Helper functions for type-safe access
func GetPanel(c di.ServiceRegistry) *app.Panel {
	return di.GetToken(c, Panel)
}

func GetTUIReporter(c di.ServiceRegistry) *infra.TUIReporter {
	return di.GetToken(c, TUIReporter)
}

func GetClientFactory(c di.ServiceRegistry) *contract.Factory {
	return di.GetToken(c, ClientFactory)
}

func GetConsoleReporter(c di.ServiceRegistry) *infra.ConsoleReporter {
	return di.GetToken(c, ConsoleReporter)
}

package app

import (
	"github.com/fd1az/counter-dapp/business/chain/domain"
)

// ChainService coordinates provider supervision and fee lookups.
type ChainService struct {
	watcher   ProviderWatcher
	gasOracle GasOracle
}

// NewChainService creates a new ChainService.
func NewChainService(watcher ProviderWatcher, gasOracle GasOracle) *ChainService {
	return &ChainService{
		watcher:   watcher,
		gasOracle: gasOracle,
	}
}

// ProviderEvents returns the provider availability stream.
func (s *ChainService) ProviderEvents() <-chan ProviderEvent {
	return s.watcher.Events()
}

// GasOracle returns the fee oracle bound to the live provider.
func (s *ChainService) GasOracle() GasOracle {
	return s.gasOracle
}

// Status returns the provider connection status.
func (s *ChainService) Status() domain.ProviderStatus {
	return s.watcher.Status()
}

// ProviderPresent reports whether a live backend is available.
func (s *ChainService) ProviderPresent() bool {
	_, _, ok := s.watcher.Current()
	return ok
}

// Package keystore provides a local-key wallet connector.
package keystore

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"os"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/counter-dapp/business/wallet/domain"
	"github.com/fd1az/counter-dapp/internal/apperror"
	"github.com/fd1az/counter-dapp/internal/logger"
)

const tracerName = "github.com/fd1az/counter-dapp/business/wallet/infra/keystore"

// Config selects the key source. Exactly one of PrivateKey or KeystorePath
// must be set for Connect to succeed.
type Config struct {
	PrivateKey         string // hex, with or without 0x
	KeystorePath       string // encrypted JSON key file
	KeystorePassphrase string
}

// Connector implements app.Connector with a key held in memory.
type Connector struct {
	config Config
	logger logger.LoggerInterface
	tracer trace.Tracer

	mu        sync.RWMutex
	key       *ecdsa.PrivateKey
	address   common.Address
	connected bool
}

// NewConnector creates a disconnected Connector.
func NewConnector(cfg Config, log logger.LoggerInterface) *Connector {
	return &Connector{
		config: cfg,
		logger: log,
		tracer: otel.Tracer(tracerName),
	}
}

// Configured reports whether a key source is set.
func (c *Connector) Configured() bool {
	return c.config.PrivateKey != "" || c.config.KeystorePath != ""
}

// Connect loads and unlocks the configured key.
func (c *Connector) Connect(ctx context.Context) error {
	ctx, span := c.tracer.Start(ctx, "wallet.connect")
	defer span.End()

	key, err := c.loadKey()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "key load failed")
		return err
	}

	addr := crypto.PubkeyToAddress(key.PublicKey)

	c.mu.Lock()
	c.key = key
	c.address = addr
	c.connected = true
	c.mu.Unlock()

	span.SetAttributes(attribute.String("address", addr.Hex()))
	span.SetStatus(codes.Ok, "connected")
	c.logger.Info(ctx, "wallet connected", "address", addr.Hex())

	return nil
}

func (c *Connector) loadKey() (*ecdsa.PrivateKey, error) {
	switch {
	case c.config.PrivateKey != "":
		key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(c.config.PrivateKey), "0x"))
		if err != nil {
			return nil, apperror.New(apperror.CodeWalletKeyInvalid,
				apperror.WithCause(err),
				apperror.WithContext("private key"))
		}
		return key, nil

	case c.config.KeystorePath != "":
		data, err := os.ReadFile(c.config.KeystorePath)
		if err != nil {
			return nil, apperror.New(apperror.CodeWalletKeyMissing,
				apperror.WithCause(err),
				apperror.WithContext(c.config.KeystorePath))
		}
		k, err := keystore.DecryptKey(data, c.config.KeystorePassphrase)
		if err != nil {
			return nil, apperror.New(apperror.CodeWalletKeyInvalid,
				apperror.WithCause(err),
				apperror.WithContext(c.config.KeystorePath))
		}
		return k.PrivateKey, nil

	default:
		return nil, apperror.New(apperror.CodeWalletKeyMissing)
	}
}

// Disconnect forgets the key. It is safe to call while disconnected.
func (c *Connector) Disconnect() {
	c.mu.Lock()
	wasConnected := c.connected
	c.key = nil
	c.address = common.Address{}
	c.connected = false
	c.mu.Unlock()

	if wasConnected {
		c.logger.Info(context.Background(), "wallet disconnected")
	}
}

// CurrentAccount returns the connection snapshot without blocking on I/O.
func (c *Connector) CurrentAccount() domain.Account {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.connected {
		return domain.Disconnected()
	}
	return domain.Connected(c.address)
}

// SignTx signs tx for chainID with the connected key.
func (c *Connector) SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	c.mu.RLock()
	key := c.key
	c.mu.RUnlock()

	if key == nil {
		return nil, apperror.New(apperror.CodeWalletNotConnected)
	}

	signed, err := types.SignTx(tx, types.LatestSignerForChainID(chainID), key)
	if err != nil {
		return nil, apperror.New(apperror.CodeSigningFailed, apperror.WithCause(err))
	}
	return signed, nil
}

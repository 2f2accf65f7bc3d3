package domain

import (
	"math/big"
	"time"

	"github.com/shopspring/decimal"
)

// GasPrice represents a legacy gas price quote.
type GasPrice struct {
	Wei       *big.Int
	Timestamp time.Time
}

// NewGasPrice creates a GasPrice from wei.
func NewGasPrice(wei *big.Int) *GasPrice {
	return &GasPrice{
		Wei:       wei,
		Timestamp: time.Now(),
	}
}

// Gwei returns the price in gwei.
func (g *GasPrice) Gwei() decimal.Decimal {
	return WeiToGwei(g.Wei)
}

// FeeSuggestion holds the fee parameters for a new transaction. On chains
// without a base fee Legacy is set and only GasPrice is meaningful.
type FeeSuggestion struct {
	GasTipCap *big.Int
	GasFeeCap *big.Int
	GasPrice  *big.Int
	Legacy    bool
}

// PerGas returns the most a unit of gas may cost under this suggestion.
func (f FeeSuggestion) PerGas() *big.Int {
	if f.Legacy || f.GasFeeCap == nil {
		return f.GasPrice
	}
	return f.GasFeeCap
}

// FeeQuote is the upper bound on what a prepared transaction can spend.
type FeeQuote struct {
	GasLimit uint64
	Fees     FeeSuggestion
}

// NewFeeQuote creates a quote for gasLimit units at fees.
func NewFeeQuote(gasLimit uint64, fees FeeSuggestion) *FeeQuote {
	return &FeeQuote{GasLimit: gasLimit, Fees: fees}
}

// MaxCostWei returns gasLimit * per-gas cap.
func (q *FeeQuote) MaxCostWei() *big.Int {
	perGas := q.Fees.PerGas()
	if perGas == nil {
		return new(big.Int)
	}
	return new(big.Int).Mul(perGas, new(big.Int).SetUint64(q.GasLimit))
}

// MaxCostEther returns the maximum cost in the native token.
func (q *FeeQuote) MaxCostEther() decimal.Decimal {
	return WeiToEther(q.MaxCostWei())
}

// WeiToGwei converts wei to gwei.
func WeiToGwei(wei *big.Int) decimal.Decimal {
	if wei == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(wei, -9)
}

// WeiToEther converts wei to ether.
func WeiToEther(wei *big.Int) decimal.Decimal {
	if wei == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(wei, -18)
}

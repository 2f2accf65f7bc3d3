package domain

import (
	"github.com/ethereum/go-ethereum/common"

	chainDomain "github.com/fd1az/counter-dapp/business/chain/domain"
)

// SimulateRequest asks for a dry run of a contract write.
type SimulateRequest struct {
	From         common.Address
	FunctionName string
}

// PreparedRequest is a validated write ready for signing.
type PreparedRequest struct {
	From         common.Address
	To           common.Address
	FunctionName string
	Data         []byte
	Quote        *chainDomain.FeeQuote
}

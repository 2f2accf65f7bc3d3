// Package domain contains the core domain types for the counter context.
package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"math/big"

	"github.com/fd1az/counter-dapp/internal/apperror"
)

// Contract function names.
const (
	FunctionRetrieve  = "retrieve"
	FunctionIncrement = "increment"
)

// ParseCount parses the JSON-encoded result of a retrieve call. Both a bare
// number (5) and a quoted one ("5") are accepted; anything else, including
// fractions and negative values, is rejected.
func ParseCount(raw []byte) (*big.Int, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, invalidCount(err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, invalidCount(errors.New("trailing data"))
	}

	var text string
	switch t := v.(type) {
	case json.Number:
		text = t.String()
	case string:
		text = t
	default:
		return nil, invalidCount(errors.New("not a number"))
	}

	n, ok := new(big.Int).SetString(text, 10)
	if !ok {
		return nil, invalidCount(errors.New("not an integer: " + text))
	}
	if n.Sign() < 0 {
		return nil, invalidCount(errors.New("negative count"))
	}
	return n, nil
}

func invalidCount(cause error) error {
	return apperror.New(apperror.CodeInvalidContractResult,
		apperror.WithCause(cause),
		apperror.WithContext(FunctionRetrieve))
}

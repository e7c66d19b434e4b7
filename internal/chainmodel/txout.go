package chainmodel

import (
	"fmt"

	"github.com/tinychain-go/tinychain/internal/codec"
)

// TxOut is one output of a transaction. Immutable.
type TxOut struct {
	Value     uint64 `json:"value"`
	ToAddress string `json:"to_address"`
}

func (t TxOut) TypeTag() string { return "TxOut" }

func (t TxOut) CanonicalFields() map[string]interface{} {
	return map[string]interface{}{
		"value":      t.Value,
		"to_address": t.ToAddress,
	}
}

func txOutFromFields(m map[string]interface{}) (interface{}, error) {
	valNum, err := codec.Number(m, "value")
	if err != nil {
		return nil, err
	}
	val, err := valNum.Int64()
	if err != nil {
		return nil, fmt.Errorf("chainmodel: value: %w", err)
	}
	addr, err := codec.String(m, "to_address")
	if err != nil {
		return nil, err
	}
	return TxOut{Value: uint64(val), ToAddress: addr}, nil
}

func init() {
	codec.Register("TxOut", txOutFromFields)
}

package chainmodel

import (
	"fmt"

	"github.com/tinychain-go/tinychain/internal/codec"
)

// OutPoint identifies one output of one transaction. Immutable.
type OutPoint struct {
	TxID     string `json:"txid"`
	TxOutIdx uint32 `json:"txout_idx"`
}

func (o OutPoint) TypeTag() string { return "OutPoint" }

func (o OutPoint) CanonicalFields() map[string]interface{} {
	return map[string]interface{}{
		"txid":      o.TxID,
		"txout_idx": o.TxOutIdx,
	}
}

func outPointFromFields(m map[string]interface{}) (interface{}, error) {
	txid, err := codec.String(m, "txid")
	if err != nil {
		return nil, err
	}
	idxNum, err := codec.Number(m, "txout_idx")
	if err != nil {
		return nil, err
	}
	idx, err := idxNum.Int64()
	if err != nil {
		return nil, fmt.Errorf("chainmodel: txout_idx: %w", err)
	}
	return OutPoint{TxID: txid, TxOutIdx: uint32(idx)}, nil
}

func init() {
	codec.Register("OutPoint", outPointFromFields)
}

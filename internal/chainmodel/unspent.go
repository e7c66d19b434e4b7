package chainmodel

import (
	"fmt"

	"github.com/tinychain-go/tinychain/internal/codec"
)

// UnspentTxOut is an enriched TxOut record held in the UTXO set.
type UnspentTxOut struct {
	Value      uint64 `json:"value"`
	ToAddress  string `json:"to_address"`
	TxID       string `json:"txid"`
	TxOutIdx   uint32 `json:"txout_idx"`
	IsCoinbase bool   `json:"is_coinbase"`
	Height     uint32 `json:"height"`
}

// OutPoint returns the OutPoint this entry is keyed by.
func (u UnspentTxOut) OutPoint() OutPoint {
	return OutPoint{TxID: u.TxID, TxOutIdx: u.TxOutIdx}
}

func (u UnspentTxOut) TypeTag() string { return "UnspentTxOut" }

func (u UnspentTxOut) CanonicalFields() map[string]interface{} {
	return map[string]interface{}{
		"value":       u.Value,
		"to_address":  u.ToAddress,
		"txid":        u.TxID,
		"txout_idx":   u.TxOutIdx,
		"is_coinbase": u.IsCoinbase,
		"height":      u.Height,
	}
}

func unspentFromFields(m map[string]interface{}) (interface{}, error) {
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
	isCoinbase, _ := m["is_coinbase"].(bool)
	heightNum, err := codec.Number(m, "height")
	if err != nil {
		return nil, err
	}
	height, err := heightNum.Int64()
	if err != nil {
		return nil, fmt.Errorf("chainmodel: height: %w", err)
	}

	return UnspentTxOut{
		Value:      uint64(val),
		ToAddress:  addr,
		TxID:       txid,
		TxOutIdx:   uint32(idx),
		IsCoinbase: isCoinbase,
		Height:     uint32(height),
	}, nil
}

func init() {
	codec.Register("UnspentTxOut", unspentFromFields)
}

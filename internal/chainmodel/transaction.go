package chainmodel

import (
	"encoding/json"
	"fmt"

	"github.com/tinychain-go/tinychain/internal/codec"
	"github.com/tinychain-go/tinychain/internal/primitives"
)

// Transaction is a set of inputs spending prior outputs and a set of new
// outputs. Its id is the double-SHA-256 of its canonical serialization.
type Transaction struct {
	TxIns    []TxIn  `json:"txins"`
	TxOuts   []TxOut `json:"txouts"`
	Locktime *uint32 `json:"locktime"`
}

// IsCoinbase holds iff len(txins)=1 and txins[0].to_spend = NONE.
func (t Transaction) IsCoinbase() bool {
	return len(t.TxIns) == 1 && t.TxIns[0].IsCoinbaseInput()
}

// ID returns the transaction's double-SHA-256 id as 64 hex characters.
func (t Transaction) ID() (string, error) {
	raw, err := codec.Serialize(t)
	if err != nil {
		return "", fmt.Errorf("chainmodel: serialize transaction: %w", err)
	}
	return primitives.SHA256DHex(raw), nil
}

func (t Transaction) TypeTag() string { return "Transaction" }

func (t Transaction) CanonicalFields() map[string]interface{} {
	txins := make([]interface{}, len(t.TxIns))
	for i, in := range t.TxIns {
		txins[i] = in
	}
	txouts := make([]interface{}, len(t.TxOuts))
	for i, out := range t.TxOuts {
		txouts[i] = out
	}
	fields := map[string]interface{}{
		"txins":  txins,
		"txouts": txouts,
	}
	if t.Locktime != nil {
		fields["locktime"] = *t.Locktime
	} else {
		fields["locktime"] = nil
	}
	return fields
}

func transactionFromFields(m map[string]interface{}) (interface{}, error) {
	txinsRaw, err := codec.List(m, "txins")
	if err != nil {
		return nil, err
	}
	txins := make([]TxIn, len(txinsRaw))
	for i, raw := range txinsRaw {
		decoded, err := codec.DecodeValue(raw)
		if err != nil {
			return nil, err
		}
		in, ok := decoded.(TxIn)
		if !ok {
			return nil, fmt.Errorf("chainmodel: txins[%d] is not a TxIn", i)
		}
		txins[i] = in
	}

	txoutsRaw, err := codec.List(m, "txouts")
	if err != nil {
		return nil, err
	}
	txouts := make([]TxOut, len(txoutsRaw))
	for i, raw := range txoutsRaw {
		decoded, err := codec.DecodeValue(raw)
		if err != nil {
			return nil, err
		}
		out, ok := decoded.(TxOut)
		if !ok {
			return nil, fmt.Errorf("chainmodel: txouts[%d] is not a TxOut", i)
		}
		txouts[i] = out
	}

	var locktime *uint32
	if raw, ok := m["locktime"]; ok && raw != nil {
		n, ok := raw.(json.Number)
		if !ok {
			return nil, fmt.Errorf("chainmodel: locktime is not numeric")
		}
		v, err := n.Int64()
		if err != nil {
			return nil, fmt.Errorf("chainmodel: locktime: %w", err)
		}
		lt := uint32(v)
		locktime = &lt
	}

	return Transaction{TxIns: txins, TxOuts: txouts, Locktime: locktime}, nil
}

func init() {
	codec.Register("Transaction", transactionFromFields)
}

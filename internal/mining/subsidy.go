package mining

import "github.com/tinychain-go/tinychain/internal/chainmodel"

// CalculateFees sums (input value - output value) over every non-coinbase
// transaction in txns (the first element is skipped as the coinbase),
// given a lookup for resolving input values. Inputs the lookup cannot
// resolve contribute nothing, and a transaction whose resolved inputs do
// not exceed its outputs adds no fee.
func CalculateFees(txns []chainmodel.Transaction, resolveValue func(op chainmodel.OutPoint) (uint64, bool)) uint64 {
	var fees uint64
	for i, tx := range txns {
		if i == 0 {
			continue
		}
		var in, out uint64
		for _, txin := range tx.TxIns {
			if txin.ToSpend == nil {
				continue
			}
			if v, ok := resolveValue(*txin.ToSpend); ok {
				in += v
			}
		}
		for _, txout := range tx.TxOuts {
			out += txout.Value
		}
		if in > out {
			fees += in - out
		}
	}
	return fees
}

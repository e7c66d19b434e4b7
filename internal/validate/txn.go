package validate

import (
	"github.com/tinychain-go/tinychain/internal/chainmodel"
	"github.com/tinychain-go/tinychain/internal/codec"
)

// UTXOLookup resolves a confirmed unspent output.
type UTXOLookup interface {
	Get(outpoint chainmodel.OutPoint) (chainmodel.UnspentTxOut, bool)
}

// MempoolLookup resolves a pending transaction by id, for spending
// unconfirmed outputs.
type MempoolLookup interface {
	Get(txid string) (chainmodel.Transaction, bool)
}

// TxnOptions configures validate_txn per §4.D.
type TxnOptions struct {
	AsCoinbase           bool
	SiblingsInBlock      []chainmodel.Transaction
	AllowUTXOFromMempool bool
	CurrentHeight        uint32
}

// ValidateTxn implements validate_txn: basic structural checks, UTXO
// resolution (confirmed set, then block siblings, then mempool), coinbase
// maturity, signature verification, and the value balance.
func ValidateTxn(tx chainmodel.Transaction, utxos UTXOLookup, mempool MempoolLookup, opts TxnOptions) error {
	if err := validateTxnBasics(tx, opts.AsCoinbase); err != nil {
		return err
	}

	if opts.AsCoinbase {
		return nil
	}

	siblingOuts := indexSiblingOutputs(opts.SiblingsInBlock)

	var totalIn uint64
	var totalOut uint64
	for _, out := range tx.TxOuts {
		totalOut += out.Value
	}

	for _, in := range tx.TxIns {
		if in.ToSpend == nil {
			return newTxnErr("non-coinbase input missing to_spend")
		}

		utxo, found := resolveUTXO(*in.ToSpend, utxos, siblingOuts, mempool, opts.AllowUTXOFromMempool)
		if !found {
			return newOrphanTxnErr("referenced utxo not found", tx)
		}

		if utxo.IsCoinbase {
			if opts.CurrentHeight < utxo.Height || opts.CurrentHeight-utxo.Height < chainmodel.CoinbaseMaturity {
				return newTxnErr("spend of immature coinbase")
			}
		}

		if err := VerifySpend(*in.ToSpend, in.UnlockSig, in.UnlockPK, in.Sequence, tx.TxOuts, utxo.ToAddress); err != nil {
			return newTxnErr("signature verification failed: " + err.Error())
		}

		totalIn += utxo.Value
	}

	if totalIn < totalOut {
		return newTxnErr("input value less than output value")
	}

	return nil
}

func validateTxnBasics(tx chainmodel.Transaction, asCoinbase bool) error {
	if len(tx.TxOuts) == 0 {
		return newTxnErr("transaction has no outputs")
	}
	if !asCoinbase && len(tx.TxIns) == 0 {
		return newTxnErr("non-coinbase transaction has no inputs")
	}

	var totalOut uint64
	for _, out := range tx.TxOuts {
		totalOut += out.Value
	}
	if totalOut > chainmodel.MaxMoney {
		return newTxnErr("sum of outputs exceeds max money")
	}

	raw, err := codec.Serialize(tx)
	if err != nil {
		return newTxnErr("serialize: " + err.Error())
	}
	if len(raw) > chainmodel.MaxBlockSerializedSize {
		return newTxnErr("transaction exceeds max block serialized size")
	}

	return nil
}

func indexSiblingOutputs(siblings []chainmodel.Transaction) map[chainmodel.OutPoint]chainmodel.TxOut {
	out := make(map[chainmodel.OutPoint]chainmodel.TxOut)
	for _, tx := range siblings {
		txid, err := tx.ID()
		if err != nil {
			continue
		}
		for idx, txout := range tx.TxOuts {
			out[chainmodel.OutPoint{TxID: txid, TxOutIdx: uint32(idx)}] = txout
		}
	}
	return out
}

func resolveUTXO(op chainmodel.OutPoint, utxos UTXOLookup, siblingOuts map[chainmodel.OutPoint]chainmodel.TxOut, mempool MempoolLookup, allowMempool bool) (chainmodel.UnspentTxOut, bool) {
	if u, ok := utxos.Get(op); ok {
		return u, true
	}
	if txout, ok := siblingOuts[op]; ok {
		return chainmodel.UnspentTxOut{
			Value:     txout.Value,
			ToAddress: txout.ToAddress,
			TxID:      op.TxID,
			TxOutIdx:  op.TxOutIdx,
		}, true
	}
	if allowMempool && mempool != nil {
		if tx, ok := mempool.Get(op.TxID); ok && int(op.TxOutIdx) < len(tx.TxOuts) {
			txout := tx.TxOuts[op.TxOutIdx]
			return chainmodel.UnspentTxOut{
				Value:     txout.Value,
				ToAddress: txout.ToAddress,
				TxID:      op.TxID,
				TxOutIdx:  op.TxOutIdx,
			}, true
		}
	}
	return chainmodel.UnspentTxOut{}, false
}

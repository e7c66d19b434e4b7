package chainmodel

import (
	"fmt"

	"github.com/tinychain-go/tinychain/internal/codec"
)

// TxIn spends one referenced output. ToSpend is absent (NONE) for a
// coinbase input, whose UnlockSig instead carries the block height as
// opaque bytes. Immutable.
type TxIn struct {
	ToSpend   *OutPoint `json:"to_spend"`
	UnlockSig []byte    `json:"unlock_sig"`
	UnlockPK  []byte    `json:"unlock_pk"`
	Sequence  uint32    `json:"sequence"`
}

// IsCoinbaseInput reports whether this input marks a coinbase transaction.
func (t TxIn) IsCoinbaseInput() bool {
	return t.ToSpend == nil
}

func (t TxIn) TypeTag() string { return "TxIn" }

func (t TxIn) CanonicalFields() map[string]interface{} {
	fields := map[string]interface{}{
		"sequence": t.Sequence,
	}
	if t.ToSpend != nil {
		fields["to_spend"] = *t.ToSpend
	} else {
		fields["to_spend"] = nil
	}
	if t.UnlockSig != nil {
		fields["unlock_sig"] = codec.HexEncode(t.UnlockSig)
	} else {
		fields["unlock_sig"] = nil
	}
	if t.UnlockPK != nil {
		fields["unlock_pk"] = codec.HexEncode(t.UnlockPK)
	} else {
		fields["unlock_pk"] = nil
	}
	return fields
}

func txInFromFields(m map[string]interface{}) (interface{}, error) {
	var outPoint *OutPoint
	if raw, ok := m["to_spend"]; ok && raw != nil {
		decoded, err := codec.Object(m, "to_spend")
		if err != nil {
			return nil, err
		}
		op, ok := decoded.(OutPoint)
		if !ok {
			return nil, fmt.Errorf("chainmodel: to_spend is not an OutPoint")
		}
		outPoint = &op
	}

	unlockSig, _, err := codec.OptionalBytes(m, "unlock_sig")
	if err != nil {
		return nil, err
	}
	unlockPK, _, err := codec.OptionalBytes(m, "unlock_pk")
	if err != nil {
		return nil, err
	}
	seqNum, err := codec.Number(m, "sequence")
	if err != nil {
		return nil, err
	}
	seq, err := seqNum.Int64()
	if err != nil {
		return nil, fmt.Errorf("chainmodel: sequence: %w", err)
	}

	return TxIn{
		ToSpend:   outPoint,
		UnlockSig: unlockSig,
		UnlockPK:  unlockPK,
		Sequence:  uint32(seq),
	}, nil
}

func init() {
	codec.Register("TxIn", txInFromFields)
}

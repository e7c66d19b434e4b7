package validate

import (
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"

	"github.com/tinychain-go/tinychain/internal/chainmodel"
	"github.com/tinychain-go/tinychain/internal/codec"
	"github.com/tinychain-go/tinychain/internal/primitives"
)

// BuildSpendMessage is the node's analog of SIGHASH_ALL: a signature over
// this message commits to the specific outpoint being spent, the signer's
// public key, the input's sequence number, and every output of the
// spending transaction.
func BuildSpendMessage(outpoint chainmodel.OutPoint, pk []byte, sequence uint32, txouts []chainmodel.TxOut) ([]byte, error) {
	opBytes, err := codec.Serialize(outpoint)
	if err != nil {
		return nil, err
	}

	outsRaw, err := serializeTxOuts(txouts)
	if err != nil {
		return nil, err
	}

	msg := make([]byte, 0, len(opBytes)+4+len(pk)+len(outsRaw))
	msg = append(msg, opBytes...)
	msg = append(msg, uint32ToBE(sequence)...)
	msg = append(msg, pk...)
	msg = append(msg, outsRaw...)

	digest := primitives.SHA256D(msg)
	return digest[:], nil
}

func uint32ToBE(v uint32) []byte {
	return []byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
}

// serializeTxOuts canonically serializes each output in order and
// concatenates the results into a single blob, with no list brackets or
// separators between them.
func serializeTxOuts(txouts []chainmodel.TxOut) ([]byte, error) {
	parts := make([][]byte, len(txouts))
	for i, o := range txouts {
		raw, err := codec.Serialize(o)
		if err != nil {
			return nil, err
		}
		parts[i] = raw
	}
	total := 0
	for _, p := range parts {
		total += len(p)
	}
	out := make([]byte, 0, total)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out, nil
}

// VerifySpend checks that unlockPK hashes to toAddress and that unlockSig is
// a valid secp256k1/ECDSA signature over the spend message derived from
// outpoint, unlockPK, sequence, and txouts.
func VerifySpend(outpoint chainmodel.OutPoint, unlockSig, unlockPK []byte, sequence uint32, txouts []chainmodel.TxOut, toAddress string) error {
	derivedAddr := primitives.PubkeyToAddress(unlockPK)
	if derivedAddr != toAddress {
		return &SpendUnlockError{Reason: "unlock_pk does not derive to_address"}
	}

	pubKey, err := secp256k1.ParsePubKey(unlockPK)
	if err != nil {
		return &SpendUnlockError{Reason: "malformed unlock_pk: " + err.Error()}
	}

	sig, err := ecdsa.ParseDERSignature(unlockSig)
	if err != nil {
		return &SpendUnlockError{Reason: "malformed unlock_sig: " + err.Error()}
	}

	msg, err := BuildSpendMessage(outpoint, unlockPK, sequence, txouts)
	if err != nil {
		return &SpendUnlockError{Reason: "build spend message: " + err.Error()}
	}

	if !sig.Verify(msg, pubKey) {
		return &SpendUnlockError{Reason: "signature does not verify"}
	}
	return nil
}

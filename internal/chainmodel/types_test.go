package chainmodel

import (
	"testing"

	"github.com/tinychain-go/tinychain/internal/codec"
)

func sampleTxOut() TxOut {
	return TxOut{Value: 5_000_000_000, ToAddress: "143UVyz7ooiAv1pMqbwPPpnH4BV9ifJGFF"}
}

func sampleCoinbaseTx(height uint32) Transaction {
	heightBytes := []byte{byte(height)}
	return Transaction{
		TxIns: []TxIn{{
			ToSpend:   nil,
			UnlockSig: heightBytes,
			UnlockPK:  nil,
			Sequence:  0,
		}},
		TxOuts: []TxOut{sampleTxOut()},
	}
}

func TestOutPointRoundTrip(t *testing.T) {
	op := OutPoint{TxID: "abc123", TxOutIdx: 7}
	raw, err := codec.Serialize(op)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	decoded, err := codec.Deserialize(raw)
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	got, ok := decoded.(OutPoint)
	if !ok {
		t.Fatalf("decoded value has wrong type: %T", decoded)
	}
	if got != op {
		t.Fatalf("round trip mismatch: got %+v want %+v", got, op)
	}
}

func TestTxInRoundTripWithNilFields(t *testing.T) {
	in := TxIn{ToSpend: nil, UnlockSig: []byte{0x00}, UnlockPK: nil, Sequence: 0}
	raw, err := codec.Serialize(in)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	decoded, err := codec.Deserialize(raw)
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	got, ok := decoded.(TxIn)
	if !ok {
		t.Fatalf("decoded value has wrong type: %T", decoded)
	}
	if !got.IsCoinbaseInput() {
		t.Fatal("expected coinbase input after round trip")
	}
	if len(got.UnlockSig) != 1 || got.UnlockSig[0] != 0x00 {
		t.Fatalf("unlock_sig mismatch: %v", got.UnlockSig)
	}
}

func TestTransactionIDDeterministic(t *testing.T) {
	tx := sampleCoinbaseTx(0)
	id1, err := tx.ID()
	if err != nil {
		t.Fatalf("ID: %v", err)
	}
	id2, err := tx.ID()
	if err != nil {
		t.Fatalf("ID: %v", err)
	}
	if id1 != id2 {
		t.Fatalf("transaction id not deterministic: %s != %s", id1, id2)
	}
	if len(id1) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(id1))
	}
}

func TestTransactionIDChangesWithOutput(t *testing.T) {
	tx := sampleCoinbaseTx(0)
	id1, _ := tx.ID()

	tx.TxOuts[0].Value = tx.TxOuts[0].Value - 1
	id2, _ := tx.ID()

	if id1 == id2 {
		t.Fatal("expected id to change when an output changes")
	}
}

func TestTransactionRoundTrip(t *testing.T) {
	tx := sampleCoinbaseTx(1)
	raw, err := codec.Serialize(tx)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	decoded, err := codec.Deserialize(raw)
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	got, ok := decoded.(Transaction)
	if !ok {
		t.Fatalf("decoded value has wrong type: %T", decoded)
	}
	gotID, _ := got.ID()
	wantID, _ := tx.ID()
	if gotID != wantID {
		t.Fatalf("round trip changed transaction id: %s != %s", gotID, wantID)
	}
}

func TestBlockIDIgnoresTxnsList(t *testing.T) {
	base := Block{
		Version:       0,
		PrevBlockHash: GenesisParentSentinel,
		MerkleHash:    "deadbeef",
		Timestamp:     1501821412,
		Bits:          24,
		Nonce:         10126761,
		Txns:          []Transaction{sampleCoinbaseTx(0)},
	}
	id1, err := base.ID()
	if err != nil {
		t.Fatalf("ID: %v", err)
	}

	withExtraTxn := base
	withExtraTxn.Txns = append(withExtraTxn.Txns, sampleCoinbaseTx(1))
	id2, err := withExtraTxn.ID()
	if err != nil {
		t.Fatalf("ID: %v", err)
	}

	if id1 != id2 {
		t.Fatal("block id must be computed over the header only, not txns")
	}
}

func TestBlockRoundTrip(t *testing.T) {
	b := Block{
		Version:       0,
		PrevBlockHash: GenesisParentSentinel,
		MerkleHash:    "deadbeef",
		Timestamp:     1501821412,
		Bits:          24,
		Nonce:         10126761,
		Txns:          []Transaction{sampleCoinbaseTx(0)},
	}
	raw, err := codec.Serialize(b)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	decoded, err := codec.Deserialize(raw)
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	got, ok := decoded.(Block)
	if !ok {
		t.Fatalf("decoded value has wrong type: %T", decoded)
	}
	gotID, _ := got.ID()
	wantID, _ := b.ID()
	if gotID != wantID {
		t.Fatalf("round trip changed block id: %s != %s", gotID, wantID)
	}
	if len(got.Txns) != len(b.Txns) {
		t.Fatalf("txns count mismatch: %d != %d", len(got.Txns), len(b.Txns))
	}
}

func TestMerkleNodeRoundTrip(t *testing.T) {
	leaf1 := MerkleNode{Val: "aaaa"}
	leaf2 := MerkleNode{Val: "bbbb"}
	root := MerkleNode{Val: "cccc", Children: []MerkleNode{leaf1, leaf2}}

	raw, err := codec.Serialize(root)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	decoded, err := codec.Deserialize(raw)
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	got, ok := decoded.(MerkleNode)
	if !ok {
		t.Fatalf("decoded value has wrong type: %T", decoded)
	}
	if got.Val != root.Val || len(got.Children) != 2 {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

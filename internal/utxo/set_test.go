package utxo

import (
	"testing"

	"github.com/tinychain-go/tinychain/internal/chainmodel"
)

func TestSetAddGetRemove(t *testing.T) {
	s := New()
	u := chainmodel.UnspentTxOut{Value: 100, ToAddress: "addr", TxID: "abc", TxOutIdx: 0, IsCoinbase: true, Height: 1}
	s.Add(u)

	got, ok := s.Get(u.OutPoint())
	if !ok {
		t.Fatal("expected entry to exist")
	}
	if got != u {
		t.Fatalf("mismatch: got %+v want %+v", got, u)
	}
	if !s.Contains(u.OutPoint()) {
		t.Fatal("expected Contains to be true")
	}
	if s.Len() != 1 {
		t.Fatalf("expected len 1, got %d", s.Len())
	}

	s.Remove(u.TxID, u.TxOutIdx)
	if s.Contains(u.OutPoint()) {
		t.Fatal("expected entry to be removed")
	}
	if s.Len() != 0 {
		t.Fatalf("expected len 0, got %d", s.Len())
	}
}

func TestSetAllSnapshot(t *testing.T) {
	s := New()
	s.Add(chainmodel.UnspentTxOut{TxID: "a", TxOutIdx: 0})
	s.Add(chainmodel.UnspentTxOut{TxID: "b", TxOutIdx: 0})

	all := s.All()
	if len(all) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(all))
	}
}

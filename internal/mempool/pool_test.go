package mempool

import (
	"testing"

	"github.com/tinychain-go/tinychain/internal/chainmodel"
)

func sampleTx(value uint64) chainmodel.Transaction {
	return chainmodel.Transaction{
		TxIns:  []chainmodel.TxIn{{UnlockSig: []byte{0x01}}},
		TxOuts: []chainmodel.TxOut{{Value: value, ToAddress: "addr"}},
	}
}

func TestPoolAddGetRemove(t *testing.T) {
	p := New()
	tx := sampleTx(1)
	p.Add("tx1", tx)

	got, ok := p.Get("tx1")
	if !ok {
		t.Fatal("expected tx1 to exist")
	}
	if got.TxOuts[0].Value != 1 {
		t.Fatalf("unexpected value: %d", got.TxOuts[0].Value)
	}
	if !p.Contains("tx1") {
		t.Fatal("expected Contains true")
	}
	if p.Len() != 1 {
		t.Fatalf("expected len 1, got %d", p.Len())
	}

	p.Remove("tx1")
	if p.Contains("tx1") {
		t.Fatal("expected tx1 removed")
	}
	if p.Len() != 0 {
		t.Fatalf("expected len 0, got %d", p.Len())
	}
}

func TestPoolOrderedIDsPreservesInsertionOrder(t *testing.T) {
	p := New()
	p.Add("tx2", sampleTx(2))
	p.Add("tx1", sampleTx(1))
	p.Add("tx3", sampleTx(3))

	want := []string{"tx2", "tx1", "tx3"}
	got := p.OrderedIDs()
	if len(got) != len(want) {
		t.Fatalf("expected %d ids, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order mismatch at %d: got %s want %s", i, got[i], want[i])
		}
	}
}

func TestPoolOverwriteKeepsPosition(t *testing.T) {
	p := New()
	p.Add("tx1", sampleTx(1))
	p.Add("tx2", sampleTx(2))
	p.Add("tx1", sampleTx(99))

	want := []string{"tx1", "tx2"}
	got := p.OrderedIDs()
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order mismatch at %d: got %s want %s", i, got[i], want[i])
		}
	}
	tx, _ := p.Get("tx1")
	if tx.TxOuts[0].Value != 99 {
		t.Fatalf("expected overwritten value 99, got %d", tx.TxOuts[0].Value)
	}
}

func TestPoolOrphans(t *testing.T) {
	p := New()
	p.AddOrphan("orphan1", sampleTx(5))
	if p.OrphanCount() != 1 {
		t.Fatalf("expected 1 orphan, got %d", p.OrphanCount())
	}

	taken := p.TakeOrphans()
	if len(taken) != 1 {
		t.Fatalf("expected 1 taken orphan, got %d", len(taken))
	}
	if _, ok := taken["orphan1"]; !ok {
		t.Fatal("expected orphan1 in taken map")
	}
	if p.OrphanCount() != 0 {
		t.Fatalf("expected orphans cleared after take, got %d", p.OrphanCount())
	}
}

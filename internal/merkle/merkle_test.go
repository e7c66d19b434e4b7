package merkle

import (
	"testing"

	"github.com/tinychain-go/tinychain/internal/chainmodel"
	"github.com/tinychain-go/tinychain/internal/primitives"
)

func TestGetMerkleRootSingleLeaf(t *testing.T) {
	root := GetMerkleRoot([]string{"a"})
	want := primitives.SHA256DHex([]byte("a"))
	if root.Val != want {
		t.Fatalf("single-leaf root = %s, want %s", root.Val, want)
	}
}

func TestGetMerkleRootOddLeafCountDuplicatesLast(t *testing.T) {
	three := GetMerkleRoot([]string{"a", "b", "c"})
	four := GetMerkleRoot([]string{"a", "b", "c", "c"})
	if three.Val != four.Val {
		t.Fatalf("odd-leaf duplication mismatch: %s != %s", three.Val, four.Val)
	}
}

func TestGetMerkleRootDeterministic(t *testing.T) {
	leaves := []string{"a", "b", "c", "d"}
	r1 := GetMerkleRoot(leaves)
	r2 := GetMerkleRoot(leaves)
	if r1.Val != r2.Val {
		t.Fatal("merkle root not deterministic")
	}
}

func TestGetMerkleRootOrderSensitive(t *testing.T) {
	r1 := GetMerkleRoot([]string{"a", "b"})
	r2 := GetMerkleRoot([]string{"b", "a"})
	if r1.Val == r2.Val {
		t.Fatal("expected different roots for different leaf orders")
	}
}

func TestGetMerkleRootOfTxnsMatchesManualLeaves(t *testing.T) {
	tx := chainmodel.Transaction{
		TxIns:  []chainmodel.TxIn{{UnlockSig: []byte{0x00}}},
		TxOuts: []chainmodel.TxOut{{Value: 1, ToAddress: "addr"}},
	}
	txID, err := tx.ID()
	if err != nil {
		t.Fatalf("ID: %v", err)
	}

	fromTxns, err := GetMerkleRootOfTxns([]chainmodel.Transaction{tx})
	if err != nil {
		t.Fatalf("GetMerkleRootOfTxns: %v", err)
	}
	fromLeaves := GetMerkleRoot([]string{txID})

	if fromTxns.Val != fromLeaves.Val {
		t.Fatalf("mismatch between GetMerkleRootOfTxns and GetMerkleRoot: %s != %s", fromTxns.Val, fromLeaves.Val)
	}
}

package persist

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/tinychain-go/tinychain/internal/chainmodel"
)

func TestSaveLoadChainRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chain.dat")

	blocks := []chainmodel.Block{
		{
			Version:       0,
			PrevBlockHash: chainmodel.GenesisParentSentinel,
			MerkleHash:    "deadbeef",
			Timestamp:     1,
			Bits:          24,
			Nonce:         7,
			Txns: []chainmodel.Transaction{{
				TxIns:  []chainmodel.TxIn{{UnlockSig: []byte{0}}},
				TxOuts: []chainmodel.TxOut{{Value: 5_000_000_000, ToAddress: "addr"}},
			}},
		},
	}

	if err := SaveChain(path, blocks); err != nil {
		t.Fatalf("SaveChain: %v", err)
	}

	loaded, err := LoadChain(path)
	if err != nil {
		t.Fatalf("LoadChain: %v", err)
	}
	if len(loaded) != 1 {
		t.Fatalf("expected 1 block, got %d", len(loaded))
	}

	origID, _ := blocks[0].ID()
	loadedID, _ := loaded[0].ID()
	if origID != loadedID {
		t.Fatalf("id mismatch after round-trip: %s != %s", origID, loadedID)
	}
}

func TestLoadChainMissingFileIsNonFatalError(t *testing.T) {
	_, err := LoadChain(filepath.Join(t.TempDir(), "does-not-exist.dat"))
	if err == nil {
		t.Fatal("expected an error for a missing chain file")
	}
}

func TestLoadChainCorruptFileIsNonFatalError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chain.dat")
	if err := os.WriteFile(path, []byte{0x00, 0x00, 0x00, 0x10, 0xff, 0xff, 0xff}, 0o600); err != nil {
		t.Fatalf("write garbage file: %v", err)
	}

	_, err := LoadChain(path)
	if err == nil {
		t.Fatal("expected an error for a corrupt chain file")
	}
}

package wallet

import (
	"path/filepath"
	"testing"
)

func TestLoadOrCreateGeneratesAndPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wallet.dat")

	w1, err := LoadOrCreate(path)
	if err != nil {
		t.Fatalf("LoadOrCreate: %v", err)
	}
	if w1.Address == "" {
		t.Fatal("expected a derived address")
	}

	w2, err := LoadOrCreate(path)
	if err != nil {
		t.Fatalf("LoadOrCreate second time: %v", err)
	}
	if w1.Address != w2.Address {
		t.Fatalf("expected same address on reload, got %s != %s", w1.Address, w2.Address)
	}
}

package addrbook

import (
	"path/filepath"
	"sort"
	"testing"
)

func TestStoreAddAllRemove(t *testing.T) {
	path := filepath.Join(t.TempDir(), "peers.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	for _, h := range []string{"10.0.0.1:9999", "10.0.0.2:9999"} {
		if err := store.Add(h); err != nil {
			t.Fatalf("Add(%s): %v", h, err)
		}
	}

	all, err := store.All()
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	sort.Strings(all)
	if len(all) != 2 || all[0] != "10.0.0.1:9999" || all[1] != "10.0.0.2:9999" {
		t.Fatalf("unexpected peers: %v", all)
	}

	if err := store.Remove("10.0.0.1:9999"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	all, _ = store.All()
	if len(all) != 1 || all[0] != "10.0.0.2:9999" {
		t.Fatalf("unexpected peers after remove: %v", all)
	}
}

func TestStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "peers.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := store.Add("10.0.0.5:9999"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	store.Close()

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	all, err := reopened.All()
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(all) != 1 || all[0] != "10.0.0.5:9999" {
		t.Fatalf("peer not persisted: %v", all)
	}
}

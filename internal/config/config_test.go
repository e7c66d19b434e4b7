package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"TC_LOG_LEVEL", "TC_CHAIN_PATH", "TC_WALLET_PATH", "TC_PEERS", "TC_PORT"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ChainPath != "chain.dat" {
		t.Errorf("ChainPath = %q, want chain.dat", cfg.ChainPath)
	}
	if cfg.WalletPath != "wallet.dat" {
		t.Errorf("WalletPath = %q, want wallet.dat", cfg.WalletPath)
	}
	if cfg.Port != 9999 {
		t.Errorf("Port = %d, want 9999", cfg.Port)
	}
	if len(cfg.Peers) != 0 {
		t.Errorf("Peers = %v, want empty", cfg.Peers)
	}
}

func TestLoadPeersAndPort(t *testing.T) {
	t.Setenv("TC_PEERS", "10.0.0.1:9999, 10.0.0.2:9999")
	t.Setenv("TC_PORT", "7777")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Peers) != 2 || cfg.Peers[0] != "10.0.0.1:9999" || cfg.Peers[1] != "10.0.0.2:9999" {
		t.Fatalf("unexpected peers: %v", cfg.Peers)
	}
	if cfg.Port != 7777 {
		t.Errorf("Port = %d, want 7777", cfg.Port)
	}
}

func TestLoadInvalidPort(t *testing.T) {
	t.Setenv("TC_PORT", "not-a-number")
	if _, err := Load(); err == nil {
		t.Fatal("expected an error for a non-numeric TC_PORT")
	}
}

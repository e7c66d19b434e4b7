// Package config loads tinychain's runtime configuration from environment
// variables. The teacher pack carries no flags/env third-party library, so
// this stays on os.Getenv + strconv rather than introducing one.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds every environment-configurable setting a node needs.
type Config struct {
	LogLevel     string
	LogLabel     string
	ChainPath    string
	WalletPath   string
	AddrbookPath string
	DataDir      string
	Peers        []string
	Port         int
	EnableMDNS   bool
}

// Load reads Config from the process environment, applying spec.md §6's
// defaults for anything unset.
func Load() (Config, error) {
	cfg := Config{
		LogLevel:     getenv("TC_LOG_LEVEL", "info"),
		LogLabel:     getenv("TC_LOG_LABEL", ""),
		ChainPath:    getenv("TC_CHAIN_PATH", "chain.dat"),
		WalletPath:   getenv("TC_WALLET_PATH", "wallet.dat"),
		AddrbookPath: getenv("TC_ADDRBOOK_PATH", "peers.db"),
		DataDir:      getenv("TC_DATA_DIR", "."),
		EnableMDNS:   getenv("TC_ENABLE_MDNS", "true") == "true",
	}

	if peers := strings.TrimSpace(os.Getenv("TC_PEERS")); peers != "" {
		for _, p := range strings.Split(peers, ",") {
			p = strings.TrimSpace(p)
			if p != "" {
				cfg.Peers = append(cfg.Peers, p)
			}
		}
	}

	portStr := getenv("TC_PORT", "9999")
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return Config{}, fmt.Errorf("config: TC_PORT %q is not an integer: %w", portStr, err)
	}
	cfg.Port = port

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Package wallet manages the node's single secp256k1 keypair: load it from
// a hex-encoded file if present, otherwise generate and persist one.
package wallet

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/tinychain-go/tinychain/internal/primitives"
)

// Wallet holds the node's payout keypair and derived address.
type Wallet struct {
	PrivateKey *secp256k1.PrivateKey
	Address    string
}

// LoadOrCreate reads a hex-encoded private key from path; if the file does
// not exist, a new key is generated and persisted there.
func LoadOrCreate(path string) (*Wallet, error) {
	raw, err := os.ReadFile(path)
	if err == nil {
		return fromHex(strings.TrimSpace(string(raw)))
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("wallet: read %s: %w", path, err)
	}

	priv, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, fmt.Errorf("wallet: generate key: %w", err)
	}
	encoded := hex.EncodeToString(priv.Serialize())
	if err := os.WriteFile(path, []byte(encoded), 0o600); err != nil {
		return nil, fmt.Errorf("wallet: write %s: %w", path, err)
	}

	return &Wallet{
		PrivateKey: priv,
		Address:    primitives.PubkeyToAddress(priv.PubKey().SerializeCompressed()),
	}, nil
}

func fromHex(encoded string) (*Wallet, error) {
	raw, err := hex.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("wallet: decode key: %w", err)
	}
	priv := secp256k1.PrivKeyFromBytes(raw)
	return &Wallet{
		PrivateKey: priv,
		Address:    primitives.PubkeyToAddress(priv.PubKey().SerializeCompressed()),
	}, nil
}

// Package primitives implements the node's hashing and address primitives:
// double SHA-256 and base58check addresses over RIPEMD160(SHA256(pubkey)).
package primitives

import (
	"encoding/hex"
	"fmt"

	"github.com/mr-tron/base58"
	sha256simd "github.com/minio/sha256-simd"
	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // address derivation requires this exact hash
)

// AddressVersion is the single-byte version prefix for base58check addresses.
const AddressVersion = 0x00

// SHA256D computes SHA256(SHA256(data)).
func SHA256D(data []byte) [32]byte {
	first := sha256simd.Sum256(data)
	return sha256simd.Sum256(first[:])
}

// SHA256DHex computes SHA256(SHA256(data)) and renders it as 64 lowercase hex
// characters, the node's canonical hash representation.
func SHA256DHex(data []byte) string {
	h := SHA256D(data)
	return hex.EncodeToString(h[:])
}

// PubkeyToAddress derives a base58check address from a serialized public key:
// base58check(0x00 || RIPEMD160(SHA256(pubkey))).
func PubkeyToAddress(pubkey []byte) string {
	sha := sha256simd.Sum256(pubkey)
	ripe := ripemd160.New()
	ripe.Write(sha[:])
	pkHash := ripe.Sum(nil)

	payload := make([]byte, 0, 1+len(pkHash))
	payload = append(payload, AddressVersion)
	payload = append(payload, pkHash...)

	checksum := SHA256D(payload)
	full := append(payload, checksum[:4]...)
	return base58.Encode(full)
}

// DecodeAddress validates and decodes a base58check address, returning the
// 20-byte pubkey hash it commits to.
func DecodeAddress(address string) ([]byte, error) {
	full, err := base58.Decode(address)
	if err != nil {
		return nil, fmt.Errorf("base58 decode: %w", err)
	}
	if len(full) != 1+20+4 {
		return nil, fmt.Errorf("address has wrong length: %d", len(full))
	}
	payload := full[:1+20]
	checksum := full[1+20:]
	want := SHA256D(payload)
	for i := range checksum {
		if checksum[i] != want[i] {
			return nil, fmt.Errorf("address checksum mismatch")
		}
	}
	if payload[0] != AddressVersion {
		return nil, fmt.Errorf("unexpected address version 0x%02x", payload[0])
	}
	return payload[1:], nil
}

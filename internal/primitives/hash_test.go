package primitives

import "testing"

func TestSHA256DHexDeterministic(t *testing.T) {
	a := SHA256DHex([]byte("tinychain"))
	b := SHA256DHex([]byte("tinychain"))
	if a != b {
		t.Fatalf("SHA256DHex not deterministic: %s != %s", a, b)
	}
	if len(a) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(a))
	}
}

func TestPubkeyToAddressRoundTrip(t *testing.T) {
	pubkey := []byte{0x02, 0x01, 0x02, 0x03, 0x04}
	addr := PubkeyToAddress(pubkey)
	if addr == "" {
		t.Fatal("empty address")
	}
	hash, err := DecodeAddress(addr)
	if err != nil {
		t.Fatalf("DecodeAddress: %v", err)
	}
	if len(hash) != 20 {
		t.Fatalf("expected 20-byte hash, got %d", len(hash))
	}
}

func TestDecodeAddressRejectsBadChecksum(t *testing.T) {
	addr := PubkeyToAddress([]byte("some-key"))
	tampered := addr[:len(addr)-1] + "x"
	if _, err := DecodeAddress(tampered); err == nil {
		t.Fatal("expected checksum error")
	}
}

package p2p

import (
	"bytes"
	"testing"

	"github.com/tinychain-go/tinychain/internal/chainmodel"
	"github.com/tinychain-go/tinychain/internal/codec"
)

func TestMessageRoundTrip(t *testing.T) {
	// Comparable (slice-free) message shapes round-trip through == directly.
	cases := []codec.Canonical{
		GetBlocksMsg{FromBlockID: "abc123"},
		GetUTXOsMsg{},
		GetMempoolMsg{},
		GetActiveChainMsg{},
		AddPeerMsg{PeerHostname: "10.0.0.1:9999"},
	}

	for _, original := range cases {
		raw, err := codec.Serialize(original)
		if err != nil {
			t.Fatalf("serialize %T: %v", original, err)
		}
		decoded, err := codec.Deserialize(raw)
		if err != nil {
			t.Fatalf("deserialize %T: %v", original, err)
		}
		if decoded != original {
			t.Fatalf("round trip mismatch for %T: got %+v want %+v", original, decoded, original)
		}
	}
}

func TestInvMsgRoundTrip(t *testing.T) {
	original := InvMsg{Blocks: []chainmodel.Block{{PrevBlockHash: chainmodel.GenesisParentSentinel, Bits: 24}}}
	raw, err := codec.Serialize(original)
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	decoded, err := codec.Deserialize(raw)
	if err != nil {
		t.Fatalf("deserialize: %v", err)
	}
	got, ok := decoded.(InvMsg)
	if !ok || len(got.Blocks) != 1 || got.Blocks[0].PrevBlockHash != chainmodel.GenesisParentSentinel {
		t.Fatalf("mismatch: got %+v", got)
	}
}

func TestUTXOsMsgRoundTrip(t *testing.T) {
	original := UTXOsMsg{Entries: []chainmodel.UnspentTxOut{{TxID: "a", Value: 5}}}
	raw, err := codec.Serialize(original)
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	decoded, err := codec.Deserialize(raw)
	if err != nil {
		t.Fatalf("deserialize: %v", err)
	}
	got, ok := decoded.(UTXOsMsg)
	if !ok || len(got.Entries) != 1 || got.Entries[0].TxID != "a" || got.Entries[0].Value != 5 {
		t.Fatalf("mismatch: got %+v", got)
	}
}

func TestMempoolMsgRoundTrip(t *testing.T) {
	original := MempoolMsg{TxIDs: []string{"a", "b"}}
	raw, err := codec.Serialize(original)
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	decoded, err := codec.Deserialize(raw)
	if err != nil {
		t.Fatalf("deserialize: %v", err)
	}
	got, ok := decoded.(MempoolMsg)
	if !ok || len(got.TxIDs) != 2 || got.TxIDs[0] != "a" || got.TxIDs[1] != "b" {
		t.Fatalf("mismatch: got %+v", got)
	}
}

func TestMessageRoundTripAcrossFrameSplit(t *testing.T) {
	msg := GetBlocksMsg{FromBlockID: "genesisid"}
	raw, err := codec.Serialize(msg)
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}

	var framed bytes.Buffer
	if err := codec.WriteFrame(&framed, raw); err != nil {
		t.Fatalf("frame: %v", err)
	}
	full := framed.Bytes()

	var acc codec.FrameAccumulator
	mid := len(full) / 2
	acc.Feed(full[:mid])
	if _, ok, err := acc.Next(); ok || err != nil {
		t.Fatalf("expected no complete frame yet, got ok=%v err=%v", ok, err)
	}
	acc.Feed(full[mid:])
	payload, ok, err := acc.Next()
	if err != nil || !ok {
		t.Fatalf("expected a complete frame, got ok=%v err=%v", ok, err)
	}

	decoded, err := codec.Deserialize(payload)
	if err != nil {
		t.Fatalf("deserialize reassembled frame: %v", err)
	}
	got, ok := decoded.(GetBlocksMsg)
	if !ok || got != msg {
		t.Fatalf("mismatch after reassembly: got %+v want %+v", decoded, msg)
	}
}

package chainstate

import (
	"testing"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"go.uber.org/zap"

	"github.com/tinychain-go/tinychain/internal/chainmodel"
	"github.com/tinychain-go/tinychain/internal/merkle"
	"github.com/tinychain-go/tinychain/internal/mining"
	"github.com/tinychain-go/tinychain/internal/primitives"
	"github.com/tinychain-go/tinychain/internal/validate"
)

const testBits = 4 // low difficulty so tests mine near-instantly

func coinbaseTx(height uint32, payTo string, value uint64) chainmodel.Transaction {
	return chainmodel.Transaction{
		TxIns:  []chainmodel.TxIn{{UnlockSig: heightBytes(height)}},
		TxOuts: []chainmodel.TxOut{{Value: value, ToAddress: payTo}},
	}
}

func heightBytes(height uint32) []byte {
	return []byte{byte(height >> 24), byte(height >> 16), byte(height >> 8), byte(height)}
}

func mineOn(t *testing.T, prevBlockHash string, txns []chainmodel.Transaction, timestamp uint32) chainmodel.Block {
	t.Helper()
	root, err := merkle.GetMerkleRootOfTxns(txns)
	if err != nil {
		t.Fatalf("merkle root: %v", err)
	}
	b := chainmodel.Block{
		Version:       0,
		PrevBlockHash: prevBlockHash,
		MerkleHash:    root.Val,
		Timestamp:     timestamp,
		Bits:          testBits,
		Txns:          txns,
	}
	for nonce := uint64(0); ; nonce++ {
		b.Nonce = nonce
		id, err := b.ID()
		if err != nil {
			t.Fatalf("id: %v", err)
		}
		if mining.MeetsTarget(id, b.Bits) {
			return b
		}
	}
}

func TestConnectBlockGenesisOnly(t *testing.T) {
	s := New(zap.NewNop())
	genesis := mineOn(t, chainmodel.GenesisParentSentinel, []chainmodel.Transaction{
		coinbaseTx(0, "genesis-addr", 5_000_000_000),
	}, 1_600_000_000)

	idx, err := s.ConnectBlock(genesis, false)
	if err != nil {
		t.Fatalf("connect genesis: %v", err)
	}
	if idx != 0 {
		t.Fatalf("expected active idx 0, got %d", idx)
	}
	if s.ActiveHeight() != 1 {
		t.Fatalf("expected height 1, got %d", s.ActiveHeight())
	}
	if s.UTXOSet().Len() != 1 {
		t.Fatalf("expected 1 utxo, got %d", s.UTXOSet().Len())
	}
}

func TestConnectBlockMineOneBlockOnTopOfGenesis(t *testing.T) {
	s := New(zap.NewNop())
	genesis := mineOn(t, chainmodel.GenesisParentSentinel, []chainmodel.Transaction{
		coinbaseTx(0, "genesis-addr", 5_000_000_000),
	}, 1_600_000_000)
	if _, err := s.ConnectBlock(genesis, false); err != nil {
		t.Fatalf("connect genesis: %v", err)
	}
	genesisID, _ := genesis.ID()

	subsidy := mining.Subsidy(1)
	next := mineOn(t, genesisID, []chainmodel.Transaction{
		coinbaseTx(1, "miner-addr", subsidy),
	}, 1_600_000_100)

	idx, err := s.ConnectBlock(next, false)
	if err != nil {
		t.Fatalf("connect block 1: %v", err)
	}
	if idx != 0 {
		t.Fatalf("expected active idx 0, got %d", idx)
	}
	if s.ActiveHeight() != 2 {
		t.Fatalf("expected height 2, got %d", s.ActiveHeight())
	}
	if s.UTXOSet().Len() != 2 {
		t.Fatalf("expected 2 utxos, got %d", s.UTXOSet().Len())
	}
}

func TestCoinbaseMaturityEnforced(t *testing.T) {
	priv, _ := secp256k1.GeneratePrivateKey()
	addr := primitives.PubkeyToAddress(priv.PubKey().SerializeCompressed())

	s := New(zap.NewNop())
	genesis := mineOn(t, chainmodel.GenesisParentSentinel, []chainmodel.Transaction{
		coinbaseTx(0, addr, 5_000_000_000),
	}, 1_600_000_000)
	if _, err := s.ConnectBlock(genesis, false); err != nil {
		t.Fatalf("connect genesis: %v", err)
	}
	genesisTxID, _ := genesis.Txns[0].ID()
	op := chainmodel.OutPoint{TxID: genesisTxID, TxOutIdx: 0}

	outs := []chainmodel.TxOut{{Value: 4_000_000_000, ToAddress: "dest"}}
	msg, err := validate.BuildSpendMessage(op, priv.PubKey().SerializeCompressed(), 0, outs)
	if err != nil {
		t.Fatalf("build spend message: %v", err)
	}
	sig := ecdsa.Sign(priv, msg)
	spend := chainmodel.Transaction{
		TxIns: []chainmodel.TxIn{{
			ToSpend:   &op,
			UnlockSig: sig.Serialize(),
			UnlockPK:  priv.PubKey().SerializeCompressed(),
		}},
		TxOuts: outs,
	}

	// At height 1 (current active height), spending the height-0 coinbase
	// is immature: 1 - 0 = 1 < CoinbaseMaturity(2).
	err = validate.ValidateTxn(spend, s.UTXOSet(), s.Mempool(), validate.TxnOptions{
		CurrentHeight: uint32(s.ActiveHeight()),
	})
	if err == nil {
		t.Fatal("expected immature coinbase spend to be rejected")
	}

	genesisID, _ := genesis.ID()
	next := mineOn(t, genesisID, []chainmodel.Transaction{
		coinbaseTx(1, "miner-addr", mining.Subsidy(1)),
	}, 1_600_000_100)
	if _, err := s.ConnectBlock(next, false); err != nil {
		t.Fatalf("connect block 1: %v", err)
	}

	err = validate.ValidateTxn(spend, s.UTXOSet(), s.Mempool(), validate.TxnOptions{
		CurrentHeight: uint32(s.ActiveHeight()),
	})
	if err != nil {
		t.Fatalf("expected mature coinbase spend to validate, got %v", err)
	}
}

func TestOrphanBlockRecordedWithoutAdvancingActiveChain(t *testing.T) {
	s := New(zap.NewNop())
	orphan := mineOn(t, "unknown-parent-hash", []chainmodel.Transaction{
		coinbaseTx(5, "addr", 1000),
	}, 1_600_000_000)

	_, err := s.ConnectBlock(orphan, false)
	if err == nil {
		t.Fatal("expected orphan block to be rejected")
	}
	if s.ActiveHeight() != 0 {
		t.Fatalf("expected active height unchanged, got %d", s.ActiveHeight())
	}
	orphanID, _ := orphan.ID()
	if _, ok := s.OrphanBlocks().Get(orphanID); !ok {
		t.Fatal("expected orphan to be recorded")
	}
}

func TestReorgLongerSideBranchWins(t *testing.T) {
	s := New(zap.NewNop())
	genesis := mineOn(t, chainmodel.GenesisParentSentinel, []chainmodel.Transaction{
		coinbaseTx(0, "addr0", 5_000_000_000),
	}, 1_600_000_000)
	if _, err := s.ConnectBlock(genesis, false); err != nil {
		t.Fatalf("connect genesis: %v", err)
	}
	genesisID, _ := genesis.ID()

	b1 := mineOn(t, genesisID, []chainmodel.Transaction{coinbaseTx(1, "addr1", mining.Subsidy(1))}, 1_600_000_100)
	if _, err := s.ConnectBlock(b1, false); err != nil {
		t.Fatalf("connect b1: %v", err)
	}
	b1ID, _ := b1.ID()

	b2 := mineOn(t, b1ID, []chainmodel.Transaction{coinbaseTx(2, "addr2", mining.Subsidy(2))}, 1_600_000_200)
	if _, err := s.ConnectBlock(b2, false); err != nil {
		t.Fatalf("connect b2: %v", err)
	}

	// Active chain is now [genesis, b1, b2], height 3.
	// Build a side branch off b1: side1, side2 (height 4 total).
	side1 := mineOn(t, b1ID, []chainmodel.Transaction{coinbaseTx(2, "side-addr1", mining.Subsidy(2))}, 1_600_000_300)
	if _, err := s.ConnectBlock(side1, false); err != nil {
		t.Fatalf("connect side1: %v", err)
	}
	if s.ActiveHeight() != 3 {
		t.Fatalf("side branch of equal height must not trigger reorg, height=%d", s.ActiveHeight())
	}
	side1ID, _ := side1.ID()

	side2 := mineOn(t, side1ID, []chainmodel.Transaction{coinbaseTx(3, "side-addr2", mining.Subsidy(3))}, 1_600_000_400)
	if _, err := s.ConnectBlock(side2, false); err != nil {
		t.Fatalf("connect side2: %v", err)
	}

	if s.ActiveHeight() != 4 {
		t.Fatalf("expected reorg to promote the longer side branch, height=%d", s.ActiveHeight())
	}
	newTip, ok := s.ActiveTip()
	if !ok {
		t.Fatal("expected active tip")
	}
	side2ID, _ := side2.ID()
	newTipID, _ := newTip.ID()
	if newTipID != side2ID {
		t.Fatalf("expected new tip to be side2, got different block")
	}
	if s.SideBranchCount() != 1 {
		t.Fatalf("expected former active tail demoted to a side branch, got %d branches", s.SideBranchCount())
	}
}

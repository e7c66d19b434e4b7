package chainmodel

import (
	"fmt"

	"github.com/tinychain-go/tinychain/internal/codec"
	"github.com/tinychain-go/tinychain/internal/primitives"
)

// Block is a proof-of-work-sealed batch of transactions. PrevBlockHash is
// the literal string "None" for the hard-coded genesis block.
type Block struct {
	Version       uint32        `json:"version"`
	PrevBlockHash string        `json:"prev_block_hash"`
	MerkleHash    string        `json:"merkle_hash"`
	Timestamp     uint32        `json:"timestamp"`
	Bits          uint32        `json:"bits"`
	Nonce         uint64        `json:"nonce"`
	Txns          []Transaction `json:"txns"`
}

// ID returns the block's double-SHA-256 id, computed over the header fields
// only (version, prev_block_hash, merkle_hash, timestamp, bits, nonce) —
// never over the transaction list.
func (b Block) ID() (string, error) {
	raw, err := codec.Serialize(blockHeader(b))
	if err != nil {
		return "", fmt.Errorf("chainmodel: serialize block header: %w", err)
	}
	return primitives.SHA256DHex(raw), nil
}

// IsGenesisParent reports whether this is the sentinel "None" parent hash.
func IsGenesisParent(prevBlockHash string) bool {
	return prevBlockHash == GenesisParentSentinel
}

func (b Block) TypeTag() string { return "Block" }

func (b Block) CanonicalFields() map[string]interface{} {
	txns := make([]interface{}, len(b.Txns))
	for i, tx := range b.Txns {
		txns[i] = tx
	}
	fields := blockHeader(b).CanonicalFields()
	fields["txns"] = txns
	return fields
}

// blockHeader is the 6-field subset of Block hashed to produce the block
// id; it shares Block's "Block" type tag since it is only ever serialized,
// never decoded standalone.
type blockHeader Block

func (h blockHeader) TypeTag() string { return "Block" }

func (h blockHeader) CanonicalFields() map[string]interface{} {
	return map[string]interface{}{
		"version":         h.Version,
		"prev_block_hash": h.PrevBlockHash,
		"merkle_hash":     h.MerkleHash,
		"timestamp":       h.Timestamp,
		"bits":            h.Bits,
		"nonce":           h.Nonce,
	}
}

func blockFromFields(m map[string]interface{}) (interface{}, error) {
	versionNum, err := codec.Number(m, "version")
	if err != nil {
		return nil, err
	}
	version, err := versionNum.Int64()
	if err != nil {
		return nil, fmt.Errorf("chainmodel: version: %w", err)
	}

	prevHash, err := codec.String(m, "prev_block_hash")
	if err != nil {
		return nil, err
	}
	merkleHash, err := codec.String(m, "merkle_hash")
	if err != nil {
		return nil, err
	}

	timestampNum, err := codec.Number(m, "timestamp")
	if err != nil {
		return nil, err
	}
	timestamp, err := timestampNum.Int64()
	if err != nil {
		return nil, fmt.Errorf("chainmodel: timestamp: %w", err)
	}

	bitsNum, err := codec.Number(m, "bits")
	if err != nil {
		return nil, err
	}
	bits, err := bitsNum.Int64()
	if err != nil {
		return nil, fmt.Errorf("chainmodel: bits: %w", err)
	}

	nonceNum, err := codec.Number(m, "nonce")
	if err != nil {
		return nil, err
	}
	nonce, err := nonceNum.Int64()
	if err != nil {
		return nil, fmt.Errorf("chainmodel: nonce: %w", err)
	}

	txnsRaw, err := codec.List(m, "txns")
	if err != nil {
		return nil, err
	}
	txns := make([]Transaction, len(txnsRaw))
	for i, raw := range txnsRaw {
		decoded, err := codec.DecodeValue(raw)
		if err != nil {
			return nil, err
		}
		tx, ok := decoded.(Transaction)
		if !ok {
			return nil, fmt.Errorf("chainmodel: txns[%d] is not a Transaction", i)
		}
		txns[i] = tx
	}

	return Block{
		Version:       uint32(version),
		PrevBlockHash: prevHash,
		MerkleHash:    merkleHash,
		Timestamp:     uint32(timestamp),
		Bits:          uint32(bits),
		Nonce:         uint64(nonce),
		Txns:          txns,
	}, nil
}

func init() {
	codec.Register("Block", blockFromFields)
}

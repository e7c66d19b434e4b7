// Package persist implements the on-disk chain file: the same
// length-prefixed framing used on the wire, wrapping a serialized
// ChainList. Corruption or a missing file is non-fatal — callers restart
// from genesis.
package persist

import (
	"bytes"
	"fmt"
	"os"

	"github.com/tinychain-go/tinychain/internal/chainmodel"
	"github.com/tinychain-go/tinychain/internal/codec"
)

// SaveChain writes encode_framed(active_chain) to path, replacing any
// existing file atomically via a temp-file rename.
func SaveChain(path string, blocks []chainmodel.Block) error {
	raw, err := codec.Serialize(chainmodel.ChainList{Blocks: blocks})
	if err != nil {
		return fmt.Errorf("persist: serialize chain: %w", err)
	}

	var buf bytes.Buffer
	if err := codec.WriteFrame(&buf, raw); err != nil {
		return fmt.Errorf("persist: frame chain: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("persist: write temp chain file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("persist: rename chain file: %w", err)
	}
	return nil
}

// LoadChain reads and decodes the chain file at path. Any failure —
// missing file, truncated frame, bad canonical encoding, wrong type tag —
// is returned as an error; callers should treat it as non-fatal and start
// from genesis instead of propagating it.
func LoadChain(path string) ([]chainmodel.Block, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("persist: open chain file: %w", err)
	}
	defer f.Close()

	raw, err := codec.ReadFrame(f)
	if err != nil {
		return nil, fmt.Errorf("persist: read chain frame: %w", err)
	}

	decoded, err := codec.Deserialize(raw)
	if err != nil {
		return nil, fmt.Errorf("persist: decode chain: %w", err)
	}

	chainList, ok := decoded.(chainmodel.ChainList)
	if !ok {
		return nil, fmt.Errorf("persist: chain file does not contain a ChainList")
	}
	return chainList.Blocks, nil
}

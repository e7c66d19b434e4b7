package chainmodel

import (
	"fmt"

	"github.com/tinychain-go/tinychain/internal/codec"
)

// ChainList is an ordered list of blocks, the shape used to persist the
// active chain to disk.
type ChainList struct {
	Blocks []Block `json:"blocks"`
}

func (c ChainList) TypeTag() string { return "ChainList" }

func (c ChainList) CanonicalFields() map[string]interface{} {
	blocks := make([]interface{}, len(c.Blocks))
	for i, b := range c.Blocks {
		blocks[i] = b
	}
	return map[string]interface{}{"blocks": blocks}
}

func chainListFromFields(m map[string]interface{}) (interface{}, error) {
	raw, err := codec.List(m, "blocks")
	if err != nil {
		return nil, err
	}
	blocks := make([]Block, len(raw))
	for i, item := range raw {
		decoded, err := codec.DecodeValue(item)
		if err != nil {
			return nil, err
		}
		b, ok := decoded.(Block)
		if !ok {
			return nil, fmt.Errorf("chainmodel: list element is not a Block")
		}
		blocks[i] = b
	}
	return ChainList{Blocks: blocks}, nil
}

func init() {
	codec.Register("ChainList", chainListFromFields)
}

// Wire messages for the block/transaction sync protocol. Unlike the mining
// worker's cbor IPC, these travel over the canonical codec so they share
// the exact serialization used for block and transaction ids.
package p2p

import (
	"fmt"

	"github.com/tinychain-go/tinychain/internal/chainmodel"
	"github.com/tinychain-go/tinychain/internal/codec"
)

// GetBlocksChunkSize bounds how many blocks one InvMsg carries.
const GetBlocksChunkSize = 50

// GetBlocksMsg asks a peer for blocks starting after from_blockid.
type GetBlocksMsg struct {
	FromBlockID string `json:"from_blockid"`
}

func (m GetBlocksMsg) TypeTag() string { return "GetBlocksMsg" }

func (m GetBlocksMsg) CanonicalFields() map[string]interface{} {
	return map[string]interface{}{"from_blockid": m.FromBlockID}
}

func getBlocksMsgFromFields(m map[string]interface{}) (interface{}, error) {
	fromID, err := codec.String(m, "from_blockid")
	if err != nil {
		return nil, err
	}
	return GetBlocksMsg{FromBlockID: fromID}, nil
}

// InvMsg carries a contiguous run of blocks, offered in response to
// GetBlocksMsg or GetActiveChainMsg. Freshly mined blocks are broadcast as
// a bare Block, not as an InvMsg.
type InvMsg struct {
	Blocks []chainmodel.Block `json:"blocks"`
}

func (m InvMsg) TypeTag() string { return "InvMsg" }

func (m InvMsg) CanonicalFields() map[string]interface{} {
	blocks := make([]interface{}, len(m.Blocks))
	for i, b := range m.Blocks {
		blocks[i] = b
	}
	return map[string]interface{}{"blocks": blocks}
}

func invMsgFromFields(m map[string]interface{}) (interface{}, error) {
	raw, err := codec.List(m, "blocks")
	if err != nil {
		return nil, err
	}
	blocks := make([]chainmodel.Block, len(raw))
	for i, item := range raw {
		decoded, err := codec.DecodeValue(item)
		if err != nil {
			return nil, err
		}
		b, ok := decoded.(chainmodel.Block)
		if !ok {
			return nil, fmt.Errorf("p2p: InvMsg.blocks[%d] is not a Block", i)
		}
		blocks[i] = b
	}
	return InvMsg{Blocks: blocks}, nil
}

// GetUTXOsMsg requests the full UTXO set, as a list of UnspentTxOut entries.
type GetUTXOsMsg struct{}

func (m GetUTXOsMsg) TypeTag() string { return "GetUTXOsMsg" }

func (m GetUTXOsMsg) CanonicalFields() map[string]interface{} {
	return map[string]interface{}{}
}

func getUTXOsMsgFromFields(map[string]interface{}) (interface{}, error) {
	return GetUTXOsMsg{}, nil
}

// UTXOsMsg answers GetUTXOsMsg.
type UTXOsMsg struct {
	Entries []chainmodel.UnspentTxOut `json:"entries"`
}

func (m UTXOsMsg) TypeTag() string { return "UTXOsMsg" }

func (m UTXOsMsg) CanonicalFields() map[string]interface{} {
	entries := make([]interface{}, len(m.Entries))
	for i, e := range m.Entries {
		entries[i] = e
	}
	return map[string]interface{}{"entries": entries}
}

func utxosMsgFromFields(m map[string]interface{}) (interface{}, error) {
	raw, err := codec.List(m, "entries")
	if err != nil {
		return nil, err
	}
	entries := make([]chainmodel.UnspentTxOut, len(raw))
	for i, item := range raw {
		decoded, err := codec.DecodeValue(item)
		if err != nil {
			return nil, err
		}
		e, ok := decoded.(chainmodel.UnspentTxOut)
		if !ok {
			return nil, fmt.Errorf("p2p: UTXOsMsg.entries[%d] is not an UnspentTxOut", i)
		}
		entries[i] = e
	}
	return UTXOsMsg{Entries: entries}, nil
}

// GetMempoolMsg requests the list of mempool txids.
type GetMempoolMsg struct{}

func (m GetMempoolMsg) TypeTag() string { return "GetMempoolMsg" }

func (m GetMempoolMsg) CanonicalFields() map[string]interface{} {
	return map[string]interface{}{}
}

func getMempoolMsgFromFields(map[string]interface{}) (interface{}, error) {
	return GetMempoolMsg{}, nil
}

// MempoolMsg answers GetMempoolMsg.
type MempoolMsg struct {
	TxIDs []string `json:"txids"`
}

func (m MempoolMsg) TypeTag() string { return "MempoolMsg" }

func (m MempoolMsg) CanonicalFields() map[string]interface{} {
	ids := make([]interface{}, len(m.TxIDs))
	for i, id := range m.TxIDs {
		ids[i] = id
	}
	return map[string]interface{}{"txids": ids}
}

func mempoolMsgFromFields(m map[string]interface{}) (interface{}, error) {
	raw, err := codec.List(m, "txids")
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(raw))
	for i, item := range raw {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("p2p: MempoolMsg.txids[%d] is not a string", i)
		}
		ids[i] = s
	}
	return MempoolMsg{TxIDs: ids}, nil
}

// GetActiveChainMsg requests the full active chain.
type GetActiveChainMsg struct{}

func (m GetActiveChainMsg) TypeTag() string { return "GetActiveChainMsg" }

func (m GetActiveChainMsg) CanonicalFields() map[string]interface{} {
	return map[string]interface{}{}
}

func getActiveChainMsgFromFields(map[string]interface{}) (interface{}, error) {
	return GetActiveChainMsg{}, nil
}

// AddPeerMsg announces a peer's own host:port so the recipient can add it
// to peer_hostnames.
type AddPeerMsg struct {
	PeerHostname string `json:"peer_hostname"`
}

func (m AddPeerMsg) TypeTag() string { return "AddPeerMsg" }

func (m AddPeerMsg) CanonicalFields() map[string]interface{} {
	return map[string]interface{}{"peer_hostname": m.PeerHostname}
}

func addPeerMsgFromFields(m map[string]interface{}) (interface{}, error) {
	host, err := codec.String(m, "peer_hostname")
	if err != nil {
		return nil, err
	}
	return AddPeerMsg{PeerHostname: host}, nil
}

func init() {
	codec.Register("GetBlocksMsg", getBlocksMsgFromFields)
	codec.Register("InvMsg", invMsgFromFields)
	codec.Register("GetUTXOsMsg", getUTXOsMsgFromFields)
	codec.Register("UTXOsMsg", utxosMsgFromFields)
	codec.Register("GetMempoolMsg", getMempoolMsgFromFields)
	codec.Register("MempoolMsg", mempoolMsgFromFields)
	codec.Register("GetActiveChainMsg", getActiveChainMsgFromFields)
	codec.Register("AddPeerMsg", addPeerMsgFromFields)
}

package p2p

import (
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/tinychain-go/tinychain/internal/chainmodel"
	"github.com/tinychain-go/tinychain/internal/chainstate"
	"github.com/tinychain-go/tinychain/internal/codec"
	"github.com/tinychain-go/tinychain/internal/mempool"
	"github.com/tinychain-go/tinychain/internal/metrics"
	"github.com/tinychain-go/tinychain/internal/validate"
)

// connReadLimit and connReadBurst configure the token-bucket limiter that
// handleConn creates for each accepted connection. Each connection gets a
// fresh limiter and carries a single message, so the limiter never drops a
// connection; there is no limit across connections from the same peer.
const (
	connReadLimit = rate.Limit(20)
	connReadBurst = 40
)

// Server accepts inbound connections and dispatches one framed message per
// connection, per the wire protocol's message table.
type Server struct {
	state  *chainstate.State
	logger *zap.Logger

	// OnBlockConnected is invoked after a block, received bare or inside an
	// InvMsg, is accepted onto the active chain or a side branch, so the
	// caller can persist and rebroadcast. May be nil.
	OnBlockConnected func(chainmodel.Block)

	// OnPeerAdded is invoked for every AddPeerMsg, after its hostname is
	// added to peer_hostnames (whether or not it was already known), so the
	// caller can persist it to the address book. May be nil.
	OnPeerAdded func(hostname string)
}

// NewServer wires a Server against shared chain state.
func NewServer(state *chainstate.State, logger *zap.Logger) *Server {
	return &Server{state: state, logger: logger}
}

// Serve accepts connections on ln until it is closed.
func (s *Server) Serve(ln net.Listener) error {
	for {
		conn, err := ln.Accept()
		if err != nil {
			return fmt.Errorf("p2p: accept: %w", err)
		}
		go s.handleConn(conn)
	}
}

func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()

	limiter := rate.NewLimiter(connReadLimit, connReadBurst)
	if !limiter.Allow() {
		metrics.PeerIOErrors.Inc()
		return
	}

	conn.SetDeadline(time.Now().Add(10 * time.Second))
	payload, err := codec.ReadFrame(conn)
	if err != nil {
		s.logger.Debug("p2p: read frame failed", zap.Error(err))
		metrics.PeerIOErrors.Inc()
		return
	}

	msg, err := codec.Deserialize(payload)
	if err != nil {
		s.logger.Debug("p2p: decode message failed", zap.Error(err))
		return
	}

	reply, err := s.dispatch(msg)
	if err != nil {
		s.logger.Debug("p2p: handler error", zap.Error(err))
		return
	}
	if reply == nil {
		return
	}

	raw, err := codec.Serialize(reply)
	if err != nil {
		s.logger.Warn("p2p: serialize reply failed", zap.Error(err))
		return
	}
	conn.SetDeadline(time.Now().Add(10 * time.Second))
	if err := codec.WriteFrame(conn, raw); err != nil {
		s.logger.Debug("p2p: write reply failed", zap.Error(err))
	}
}

// dispatch implements the message table in full: each case returns the
// response payload to frame back to the peer, or nil for fire-and-forget
// messages.
func (s *Server) dispatch(msg interface{}) (codec.Canonical, error) {
	switch m := msg.(type) {
	case GetBlocksMsg:
		return s.handleGetBlocks(m), nil

	case InvMsg:
		return nil, s.handleInv(m)

	case GetUTXOsMsg:
		entries := s.state.UTXOSet().All()
		return UTXOsMsg{Entries: entries}, nil

	case GetMempoolMsg:
		return MempoolMsg{TxIDs: s.state.Mempool().OrderedIDs()}, nil

	case GetActiveChainMsg:
		return InvMsg{Blocks: s.state.ActiveChainSnapshot()}, nil

	case AddPeerMsg:
		s.state.AddPeer(m.PeerHostname)
		if s.OnPeerAdded != nil {
			s.OnPeerAdded(m.PeerHostname)
		}
		return nil, nil

	case chainmodel.Transaction:
		return nil, s.addTxnToMempool(m)

	case chainmodel.Block:
		return nil, s.connectBlock(m)

	default:
		return nil, fmt.Errorf("p2p: unhandled message type %T", msg)
	}
}

func (s *Server) handleGetBlocks(m GetBlocksMsg) InvMsg {
	height, _, found := s.state.FindInActiveChain(m.FromBlockID)
	start := height + 1
	if !found {
		start = 1
	}
	active := s.state.ActiveChainSnapshot()
	end := start + GetBlocksChunkSize
	if end > len(active) {
		end = len(active)
	}
	if start >= len(active) {
		return InvMsg{Blocks: nil}
	}
	return InvMsg{Blocks: active[start:end]}
}

func (s *Server) handleInv(m InvMsg) error {
	anyUnknown := false
	for _, b := range m.Blocks {
		id, err := b.ID()
		if err != nil {
			continue
		}
		if _, _, found := s.state.FindInActiveChain(id); found {
			continue
		}
		anyUnknown = true
		if err := s.connectBlock(b); err != nil {
			s.logger.Debug("p2p: inv block rejected", zap.String("block_id", id), zap.Error(err))
		}
	}
	if !anyUnknown {
		s.logger.Debug("p2p: inv had no unknown blocks, IBD converged")
	}
	return nil
}

func (s *Server) connectBlock(b chainmodel.Block) error {
	id, err := b.ID()
	if err != nil {
		return fmt.Errorf("p2p: block id: %w", err)
	}
	if _, _, found := s.state.FindInActiveChain(id); found {
		return nil
	}
	if _, found := s.state.FindInSideBranches(id); found {
		return nil
	}

	_, err = s.state.ConnectBlock(b, false)
	if err != nil {
		if _, isOrphan := validate.IsOrphanBlock(err); isOrphan {
			metrics.BlocksConnected.WithLabelValues("orphan").Inc()
			return nil
		}
		metrics.BlocksConnected.WithLabelValues("rejected").Inc()
		return err
	}
	metrics.BlocksConnected.WithLabelValues("accepted").Inc()
	if s.OnBlockConnected != nil {
		s.OnBlockConnected(b)
	}
	return nil
}

func (s *Server) addTxnToMempool(tx chainmodel.Transaction) error {
	txid, err := tx.ID()
	if err != nil {
		return fmt.Errorf("p2p: transaction id: %w", err)
	}
	err = validate.ValidateTxn(tx, s.state.UTXOSet(), mempoolLookup{s.state.Mempool()}, validate.TxnOptions{
		AllowUTXOFromMempool: true,
		CurrentHeight:        uint32(s.state.ActiveHeight()),
	})
	if err != nil {
		if orphan, isOrphan := validate.IsOrphan(err); isOrphan {
			s.state.Mempool().AddOrphan(txid, orphan)
			s.state.RefreshMetrics()
			return nil
		}
		return fmt.Errorf("p2p: reject txn %s: %w", txid, err)
	}
	s.state.Mempool().Add(txid, tx)
	s.state.RefreshMetrics()
	return nil
}

// mempoolLookup adapts *mempool.Pool to validate.MempoolLookup.
type mempoolLookup struct{ pool *mempool.Pool }

func (m mempoolLookup) Get(txid string) (chainmodel.Transaction, bool) { return m.pool.Get(txid) }

// Package node wires together every subsystem — chain state, persistence,
// mempool/mining, P2P, the wallet, and metrics — into a running tinychain
// process.
package node

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/tinychain-go/tinychain/internal/addrbook"
	"github.com/tinychain-go/tinychain/internal/chainmodel"
	"github.com/tinychain-go/tinychain/internal/chainstate"
	"github.com/tinychain-go/tinychain/internal/config"
	"github.com/tinychain-go/tinychain/internal/metrics"
	"github.com/tinychain-go/tinychain/internal/mining"
	"github.com/tinychain-go/tinychain/internal/p2p"
	"github.com/tinychain-go/tinychain/internal/persist"
	"github.com/tinychain-go/tinychain/internal/wallet"
)

// Node owns every long-lived subsystem for one tinychain process.
type Node struct {
	cfg    config.Config
	logger *zap.Logger

	state    *chainstate.State
	wallet   *wallet.Wallet
	addrs    *addrbook.Store
	server   *p2p.Server
	client   *p2p.Client
	discNode *p2p.Node
}

// New constructs a Node from cfg, loading the chain from disk and the
// wallet keypair. If the chain file cannot be loaded, the node starts from
// the Genesis block; if a loaded block fails to connect, New returns an
// error.
func New(cfg config.Config, logger *zap.Logger) (*Node, error) {
	state := chainstate.New(logger)

	if err := loadOrSeedChain(state, cfg.ChainPath, logger); err != nil {
		return nil, err
	}

	w, err := wallet.LoadOrCreate(cfg.WalletPath)
	if err != nil {
		return nil, fmt.Errorf("node: load wallet: %w", err)
	}

	addrs, err := addrbook.Open(cfg.AddrbookPath)
	if err != nil {
		return nil, fmt.Errorf("node: open addrbook: %w", err)
	}
	for _, p := range cfg.Peers {
		state.AddPeer(p)
	}
	persisted, err := addrs.All()
	if err != nil {
		logger.Warn("node: failed to load persisted peers", zap.Error(err))
	}
	for _, p := range persisted {
		state.AddPeer(p)
	}

	server := p2p.NewServer(state, logger)
	client := p2p.NewClient(state, logger)

	n := &Node{
		cfg:    cfg,
		logger: logger,
		state:  state,
		wallet: w,
		addrs:  addrs,
		server: server,
		client: client,
	}
	server.OnBlockConnected = func(b chainmodel.Block) {
		if err := persist.SaveChain(cfg.ChainPath, state.ActiveChainSnapshot()); err != nil {
			logger.Warn("node: persist chain failed", zap.Error(err))
		}
		n.broadcastBlock(b)
	}
	server.OnPeerAdded = func(hostname string) {
		if err := addrs.Add(hostname); err != nil {
			logger.Warn("node: persist peer failed", zap.Error(err))
		}
	}

	return n, nil
}

func loadOrSeedChain(state *chainstate.State, path string, logger *zap.Logger) error {
	blocks, err := persist.LoadChain(path)
	if err != nil {
		logger.Info("node: starting from genesis", zap.Error(err))
		blocks = []chainmodel.Block{Genesis}
	}
	for _, b := range blocks {
		if _, err := state.ConnectBlock(b, false); err != nil {
			return fmt.Errorf("node: replay chain block: %w", err)
		}
	}
	return nil
}

// Run starts the P2P listener, optional discovery, IBD, and mining loop.
// It blocks until ctx is canceled.
func (n *Node) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", n.cfg.Port))
	if err != nil {
		return fmt.Errorf("node: listen on port %d: %w", n.cfg.Port, err)
	}
	go func() {
		if err := n.server.Serve(ln); err != nil {
			n.logger.Info("node: p2p server stopped", zap.Error(err))
		}
	}()

	if n.cfg.DataDir != "" {
		discNode, err := p2p.NewNode(ctx, n.cfg.Port+1, n.cfg.DataDir, n.logger)
		if err != nil {
			n.logger.Warn("node: discovery host unavailable", zap.Error(err))
		} else {
			n.discNode = discNode
			if err := discNode.StartDiscovery(ctx, n.cfg.DataDir, n.cfg.EnableMDNS, nil); err != nil {
				n.logger.Warn("node: discovery start failed", zap.Error(err))
			}
			go n.watchDiscoveredPeers(ctx)
		}
	}

	go n.serveMetrics()

	p2p.RunIBD(n.client, n.state, n.logger, n.mineForever)

	<-ctx.Done()
	if n.discNode != nil {
		n.discNode.Close()
	}
	ln.Close()
	return nil
}

// Close releases the node's on-disk resources.
func (n *Node) Close() error {
	return n.addrs.Close()
}

// watchDiscoveredPeers refreshes the PeersConnected gauge with the size of
// peer_hostnames each time libp2p discovery reports a peer. Discovered
// peers are not added to peer_hostnames; host:port exchange goes through
// AddPeerMsg only.
func (n *Node) watchDiscoveredPeers(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-n.discNode.PeerFound():
			metrics.PeersConnected.Set(float64(len(n.state.Peers())))
		}
	}
}

func (n *Node) serveMetrics() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	addr := fmt.Sprintf(":%d", n.cfg.Port+1000)
	if err := http.ListenAndServe(addr, mux); err != nil {
		n.logger.Warn("node: metrics server stopped", zap.Error(err))
	}
}

// mineForever implements mine_forever: loop mining on top of the active
// tip, reloading the payout address each time, connecting and persisting
// whatever block results.
func (n *Node) mineForever() {
	for {
		payTo := n.wallet.Address
		if w, err := wallet.LoadOrCreate(n.cfg.WalletPath); err != nil {
			n.logger.Warn("node: mining: reload wallet failed", zap.Error(err))
		} else {
			payTo = w.Address
		}

		tip, hasTip := n.state.ActiveTip()
		prevHash := chainmodel.GenesisParentSentinel
		height := uint32(0)
		if hasTip {
			id, err := tip.ID()
			if err != nil {
				n.logger.Warn("node: mining: tip id failed", zap.Error(err))
				continue
			}
			prevHash = id
			height = uint32(n.state.ActiveHeight())
		}

		bits, err := n.state.NextWorkRequired(prevHash)
		if err != nil {
			n.logger.Warn("node: mining: next work required failed", zap.Error(err))
			continue
		}

		block, ok, err := mining.AssembleAndSolveBlock(
			prevHash, bits, height, uint32(time.Now().Unix()), payTo,
			n.state.Mempool(), n.state.UTXOSet().Contains, n.resolveUTXOValue, nil,
			n.state.MineInterrupt().C(),
		)
		if err != nil {
			n.logger.Warn("node: mining: assemble failed", zap.Error(err))
			continue
		}
		if !ok {
			continue
		}

		if _, err := n.state.ConnectBlock(block, false); err != nil {
			n.logger.Warn("node: mining: connect mined block failed", zap.Error(err))
			continue
		}
		metrics.BlocksMined.Inc()
		if err := persist.SaveChain(n.cfg.ChainPath, n.state.ActiveChainSnapshot()); err != nil {
			n.logger.Warn("node: persist chain failed", zap.Error(err))
		}
		n.broadcastBlock(block)
	}
}

func (n *Node) resolveUTXOValue(op chainmodel.OutPoint) (uint64, bool) {
	u, ok := n.state.UTXOSet().Get(op)
	if !ok {
		return 0, false
	}
	return u.Value, true
}

// broadcastBlock relays block to every known peer, per connect_block step 7.
// Inbound connections are identified only by ephemeral remote address, not
// peer_hostnames, so the sender can't be singled out for exclusion here;
// the receiving end's own connectBlock skips rebroadcast for an
// already-known block id, which bounds the resulting flood to one hop per
// peer pair.
func (n *Node) broadcastBlock(block chainmodel.Block) {
	for _, peer := range n.state.Peers() {
		if _, err := n.client.SendToPeer(peer, block); err != nil {
			n.logger.Debug("node: broadcast to peer failed", zap.String("peer", peer), zap.Error(err))
		}
	}
}

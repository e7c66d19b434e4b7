package p2p

import (
	"context"
	"fmt"
	"time"

	"github.com/libp2p/go-libp2p"
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/network"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/libp2p/go-libp2p/p2p/muxer/yamux"
	"github.com/libp2p/go-libp2p/p2p/net/connmgr"
	"github.com/libp2p/go-libp2p/p2p/security/noise"

	ma "github.com/multiformats/go-multiaddr"
	"go.uber.org/zap"
)

// Node wraps a libp2p host used STRICTLY for optional peer discovery
// (mDNS/DHT). It never carries block/transaction traffic — that travels
// over the plain net.Listener Server/Client in server.go/client.go.
type Node struct {
	Host   host.Host
	Logger *zap.Logger

	discovery *Discovery

	// peerFound receives a libp2p peer.ID whenever discovery connects to
	// someone new. The peer's host:port is not learned from it; node's
	// watchDiscoveredPeers only refreshes the PeersConnected gauge on it.
	peerFound chan peer.ID
}

// NewNode creates a libp2p host for discovery purposes only. Call
// StartDiscovery once the node is otherwise ready to receive peers.
func NewNode(ctx context.Context, listenPort int, dataDir string, logger *zap.Logger) (*Node, error) {
	listenAddr := fmt.Sprintf("/ip4/0.0.0.0/tcp/%d", listenPort)

	// Load or create persistent identity (stable peer ID across restarts)
	privKey, err := LoadOrCreateIdentity(dataDir)
	if err != nil {
		return nil, fmt.Errorf("load identity: %w", err)
	}

	cm, err := connmgr.NewConnManager(50, 100, connmgr.WithGracePeriod(time.Minute))
	if err != nil {
		return nil, fmt.Errorf("create connection manager: %w", err)
	}

	h, err := libp2p.New(
		libp2p.Identity(privKey),
		libp2p.ListenAddrStrings(listenAddr),
		libp2p.Security(noise.ID, noise.New),
		libp2p.Muxer(yamux.ID, yamux.DefaultTransport),
		libp2p.ConnectionManager(cm),
	)
	if err != nil {
		return nil, fmt.Errorf("create libp2p host: %w", err)
	}

	node := &Node{
		Host:      h,
		Logger:    logger,
		peerFound: make(chan peer.ID, 16),
	}

	h.Network().Notify(&peerNotifiee{peerFound: node.peerFound})

	logger.Info("p2p discovery host started",
		zap.String("peer_id", h.ID().String()),
		zap.Int("port", listenPort),
	)
	for _, addr := range h.Addrs() {
		logger.Info("discovery listening on", zap.String("addr", fmt.Sprintf("%s/p2p/%s", addr, h.ID())))
	}

	return node, nil
}

// StartDiscovery begins mDNS and DHT peer discovery, backed by dataDir for
// the DHT routing table's persistent datastore.
func (n *Node) StartDiscovery(ctx context.Context, dataDir string, enableMDNS bool, bootnodes []string) error {
	var err error
	n.discovery, err = NewDiscovery(ctx, n.Host, dataDir, enableMDNS, bootnodes, n.Logger)
	if err != nil {
		return fmt.Errorf("setup discovery: %w", err)
	}
	return nil
}

// PeerFound returns a channel of libp2p peer IDs discovered via mDNS/DHT.
func (n *Node) PeerFound() <-chan peer.ID {
	return n.peerFound
}

// PeerCount returns the number of connected discovery peers.
func (n *Node) PeerCount() int {
	return len(n.Host.Network().Peers())
}

// Close shuts down the discovery host.
func (n *Node) Close() error {
	return n.Host.Close()
}

// peerNotifiee implements network.Notifiee to detect new peer connections.
type peerNotifiee struct {
	peerFound chan peer.ID
}

func (pn *peerNotifiee) Connected(_ network.Network, conn network.Conn) {
	select {
	case pn.peerFound <- conn.RemotePeer():
	default:
	}
}

func (pn *peerNotifiee) Disconnected(network.Network, network.Conn) {}
func (pn *peerNotifiee) Listen(network.Network, ma.Multiaddr)      {}
func (pn *peerNotifiee) ListenClose(network.Network, ma.Multiaddr) {}

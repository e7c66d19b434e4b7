package p2p

import (
	"fmt"
	"math/rand"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/tinychain-go/tinychain/internal/chainstate"
	"github.com/tinychain-go/tinychain/internal/codec"
	"github.com/tinychain-go/tinychain/internal/metrics"
)

// SendAttempts and SendTimeout implement send-to-peer's retry policy.
const (
	SendAttempts = 3
	SendTimeout  = 10 * time.Second
)

// Client sends messages to peers and reads back at most one reply.
type Client struct {
	state  *chainstate.State
	logger *zap.Logger
}

// NewClient wires a Client against shared chain state, for peer eviction
// on repeated send failure.
func NewClient(state *chainstate.State, logger *zap.Logger) *Client {
	return &Client{state: state, logger: logger}
}

// SendToPeer sends msg to hostname, or to a uniformly random known peer if
// hostname is empty. It retries up to SendAttempts times with SendTimeout
// per attempt; on exhaustion the peer is evicted from peer_hostnames.
// Returns the decoded reply, or nil if the peer sent none.
func (c *Client) SendToPeer(hostname string, msg codec.Canonical) (interface{}, error) {
	if hostname == "" {
		peers := c.state.Peers()
		if len(peers) == 0 {
			return nil, fmt.Errorf("p2p: no known peers")
		}
		hostname = peers[rand.Intn(len(peers))]
	}

	raw, err := codec.Serialize(msg)
	if err != nil {
		return nil, fmt.Errorf("p2p: serialize message: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < SendAttempts; attempt++ {
		reply, err := c.attempt(hostname, raw)
		if err == nil {
			return reply, nil
		}
		lastErr = err
		metrics.PeerIOErrors.Inc()
		c.logger.Debug("p2p: send attempt failed",
			zap.String("peer", hostname), zap.Int("attempt", attempt+1), zap.Error(err))
	}

	c.state.RemovePeer(hostname)
	c.logger.Warn("p2p: evicting unresponsive peer", zap.String("peer", hostname))
	return nil, fmt.Errorf("p2p: send to %s failed after %d attempts: %w", hostname, SendAttempts, lastErr)
}

func (c *Client) attempt(hostname string, raw []byte) (interface{}, error) {
	conn, err := net.DialTimeout("tcp", hostname, SendTimeout)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(SendTimeout))
	if err := codec.WriteFrame(conn, raw); err != nil {
		return nil, fmt.Errorf("write: %w", err)
	}

	// The send itself succeeded once the frame is written. Replies are
	// optional: fire-and-forget messages (bare Transaction/Block,
	// AddPeerMsg, InvMsg) get no response frame, so a failure to read one
	// back is not a send failure.
	conn.SetReadDeadline(time.Now().Add(SendTimeout))
	payload, err := codec.ReadFrame(conn)
	if err != nil {
		return nil, nil
	}
	reply, err := codec.Deserialize(payload)
	if err != nil {
		return nil, nil
	}
	return reply, nil
}

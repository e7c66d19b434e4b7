package p2p

import (
	"time"

	"go.uber.org/zap"

	"github.com/tinychain-go/tinychain/internal/chainstate"
)

// MineForeverGrace is how long startup waits for IBD before mining begins
// regardless of sync progress.
const MineForeverGrace = 60 * time.Second

// RunIBD drives Initial Block Download: ping-pong GetBlocksMsg/InvMsg
// against a known peer until a response carries no unknown blocks. The
// sync loop runs in its own goroutine (it is skipped when the node has no
// known peers), so RunIBD returns immediately. startMining is called
// exactly once, after MineForeverGrace has elapsed, regardless of how far
// IBD has gotten.
func RunIBD(client *Client, state *chainstate.State, logger *zap.Logger, startMining func()) {
	if len(state.Peers()) == 0 {
		logger.Info("p2p: no known peers, skipping IBD")
	} else {
		go syncLoop(client, state, logger)
	}

	go func() {
		time.Sleep(MineForeverGrace)
		startMining()
	}()
}

func syncLoop(client *Client, state *chainstate.State, logger *zap.Logger) {
	anchor := state.ActiveTipID()
	for {
		reply, err := client.SendToPeer("", GetBlocksMsg{FromBlockID: anchor})
		if err != nil {
			logger.Debug("p2p: ibd request failed", zap.Error(err))
			return
		}
		inv, ok := reply.(InvMsg)
		if !ok || len(inv.Blocks) == 0 {
			logger.Info("p2p: ibd converged", zap.String("tip", state.ActiveTipID()))
			return
		}

		anyUnknown := false
		for _, b := range inv.Blocks {
			id, err := b.ID()
			if err != nil {
				continue
			}
			if _, _, found := state.FindInActiveChain(id); found {
				continue
			}
			anyUnknown = true
			if _, err := state.ConnectBlock(b, false); err != nil {
				logger.Debug("p2p: ibd block rejected", zap.String("block_id", id), zap.Error(err))
			}
		}
		if !anyUnknown {
			logger.Info("p2p: ibd converged", zap.String("tip", state.ActiveTipID()))
			return
		}
		anchor = state.ActiveTipID()
	}
}

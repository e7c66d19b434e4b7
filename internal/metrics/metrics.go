// Package metrics exposes tinychain's runtime counters over Prometheus,
// served from /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ActiveChainHeight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "tinychain",
		Name:      "active_chain_height",
		Help:      "Number of blocks in the active chain.",
	})

	SideBranchCount = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "tinychain",
		Name:      "side_branch_count",
		Help:      "Number of known side branches off the active chain.",
	})

	MempoolSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "tinychain",
		Name:      "mempool_size",
		Help:      "Number of pending transactions in the mempool.",
	})

	OrphanTxnCount = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "tinychain",
		Name:      "orphan_txn_count",
		Help:      "Number of transactions held in the orphan pool.",
	})

	UTXOSetSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "tinychain",
		Name:      "utxo_set_size",
		Help:      "Number of entries in the UTXO set.",
	})

	PeersConnected = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "tinychain",
		Name:      "peers_connected",
		Help:      "Number of known P2P peers.",
	})

	// LocalHashrate is registered and exported, but nothing in tinychain
	// sets it, so it always reads 0.
	LocalHashrate = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "tinychain",
		Name:      "local_hashrate",
		Help:      "Estimated local mining hashrate in H/s.",
	})

	BlocksMined = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "tinychain",
		Name:      "blocks_mined_total",
		Help:      "Total blocks successfully mined by this node.",
	})

	BlocksConnected = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tinychain",
		Name:      "blocks_connected_total",
		Help:      "Blocks accepted via connect_block, labeled by outcome (accepted/orphan/rejected).",
	}, []string{"result"})

	ReorgsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "tinychain",
		Name:      "reorgs_total",
		Help:      "Total successful chain reorganizations.",
	})

	PeerIOErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "tinychain",
		Name:      "peer_io_errors_total",
		Help:      "Total peer connect/send failures.",
	})
)

func init() {
	prometheus.MustRegister(
		ActiveChainHeight,
		SideBranchCount,
		MempoolSize,
		OrphanTxnCount,
		UTXOSetSize,
		PeersConnected,
		LocalHashrate,
		BlocksMined,
		BlocksConnected,
		ReorgsTotal,
		PeerIOErrors,
	)
}

// Handler returns the HTTP handler to mount at /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

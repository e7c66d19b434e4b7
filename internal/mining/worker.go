package mining

import (
	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"

	"github.com/tinychain-go/tinychain/internal/chainmodel"
)

// NonceBatchSize bounds how many nonces the worker tries between
// interrupt checks, keeping cancellation latency low without paying a
// channel-select cost per nonce.
const NonceBatchSize = 4096

// jobRequest is the header tuple handed to the mining worker, framed as
// CBOR the way the node's worker IPC is specified (§5) — distinct from the
// canonical JSON wire codec used for peer messages.
type jobRequest struct {
	JobID      string `cbor:"job_id"`
	Version    uint32 `cbor:"version"`
	PrevHash   string `cbor:"prev_hash"`
	MerkleHash string `cbor:"merkle_hash"`
	Timestamp  uint32 `cbor:"timestamp"`
	Bits       uint32 `cbor:"bits"`
	StartNonce uint64 `cbor:"start_nonce"`
	BatchSize  uint64 `cbor:"batch_size"`
}

// jobResponse is the worker's reply: either a solving nonce or no-solution
// for this batch.
type jobResponse struct {
	JobID string `cbor:"job_id"`
	Nonce uint64 `cbor:"nonce"`
	Found bool   `cbor:"found"`
}

// Mine finds a nonce such that the block id satisfies block.Bits,
// cooperatively interruptible via the interrupt channel (closed by
// chainstate.MineInterrupt.Set whenever the active tip moves). It models
// the source's child mining worker as an in-process goroutine exchanging
// CBOR-framed request/response values correlated by a job id, rather than
// a literal OS subprocess — the framing and correlation are real, only the
// process boundary is collapsed.
func Mine(block chainmodel.Block, interrupt <-chan struct{}) (chainmodel.Block, bool, error) {
	jobID := uuid.NewString()

	resultCh := make(chan jobResponse, 1)
	go runWorker(jobID, block, resultCh)

	for {
		select {
		case resp := <-resultCh:
			if resp.JobID != jobID {
				continue
			}
			if !resp.Found {
				// Batch exhausted without a solution; issue the next batch
				// starting where the last left off.
				nextReq := jobRequest{
					JobID:      jobID,
					Version:    block.Version,
					PrevHash:   block.PrevBlockHash,
					MerkleHash: block.MerkleHash,
					Timestamp:  block.Timestamp,
					Bits:       block.Bits,
					StartNonce: resp.Nonce,
					BatchSize:  NonceBatchSize,
				}
				go runWorkerFromRequest(nextReq, resultCh)
				continue
			}
			solved := block
			solved.Nonce = resp.Nonce
			return solved, true, nil
		case <-interrupt:
			return chainmodel.Block{}, false, nil
		}
	}
}

func runWorker(jobID string, block chainmodel.Block, out chan<- jobResponse) {
	req := jobRequest{
		JobID:      jobID,
		Version:    block.Version,
		PrevHash:   block.PrevBlockHash,
		MerkleHash: block.MerkleHash,
		Timestamp:  block.Timestamp,
		Bits:       block.Bits,
		StartNonce: 0,
		BatchSize:  NonceBatchSize,
	}
	runWorkerFromRequest(req, out)
}

// runWorkerFromRequest performs one batch of nonce search, round-tripping
// the request and response through CBOR to exercise the same wire shape a
// real out-of-process worker would use.
func runWorkerFromRequest(req jobRequest, out chan<- jobResponse) {
	encoded, err := cbor.Marshal(req)
	if err != nil {
		out <- jobResponse{JobID: req.JobID, Found: false}
		return
	}
	var decoded jobRequest
	if err := cbor.Unmarshal(encoded, &decoded); err != nil {
		out <- jobResponse{JobID: req.JobID, Found: false}
		return
	}

	header := chainmodel.Block{
		Version:       decoded.Version,
		PrevBlockHash: decoded.PrevHash,
		MerkleHash:    decoded.MerkleHash,
		Timestamp:     decoded.Timestamp,
		Bits:          decoded.Bits,
	}

	for n := decoded.StartNonce; n < decoded.StartNonce+decoded.BatchSize; n++ {
		header.Nonce = n
		id, err := header.ID()
		if err != nil {
			continue
		}
		if MeetsTarget(id, header.Bits) {
			resp := jobResponse{JobID: decoded.JobID, Nonce: n, Found: true}
			emit(resp, out)
			return
		}
	}

	emit(jobResponse{JobID: decoded.JobID, Nonce: decoded.StartNonce + decoded.BatchSize, Found: false}, out)
}

func emit(resp jobResponse, out chan<- jobResponse) {
	encoded, err := cbor.Marshal(resp)
	if err != nil {
		out <- jobResponse{JobID: resp.JobID, Found: false}
		return
	}
	var decoded jobResponse
	if err := cbor.Unmarshal(encoded, &decoded); err != nil {
		out <- jobResponse{JobID: resp.JobID, Found: false}
		return
	}
	out <- decoded
}

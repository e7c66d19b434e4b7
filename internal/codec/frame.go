package codec

import (
	"encoding/binary"
	"fmt"
	"io"
)

// MaxFrameSize bounds a single framed payload so a malicious or corrupt
// peer/file cannot force an unbounded allocation from a forged length
// prefix.
const MaxFrameSize = 64 << 20 // 64MiB; generous relative to MAX_BLOCK_SERIALIZED_SIZE

// WriteFrame writes a u32be length prefix followed by payload, the framing
// shared by every socket message and by the on-disk chain file.
func WriteFrame(w io.Writer, payload []byte) error {
	if len(payload) > MaxFrameSize {
		return fmt.Errorf("codec: frame payload too large: %d bytes", len(payload))
	}
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(payload)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return fmt.Errorf("codec: write frame length: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("codec: write frame payload: %w", err)
	}
	return nil
}

// ReadFrame reads one u32be-length-prefixed payload from r.
func ReadFrame(r io.Reader) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	if n > MaxFrameSize {
		return nil, fmt.Errorf("codec: frame length %d exceeds max %d", n, MaxFrameSize)
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("codec: read frame payload: %w", err)
	}
	return payload, nil
}

// FrameAccumulator incrementally reassembles framed messages from a stream
// of arbitrarily-split reads, the shape a non-blocking socket reader needs:
// feed it whatever bytes just arrived, drain whatever complete frames are
// now available.
type FrameAccumulator struct {
	buf []byte
}

// Feed appends newly-read bytes to the accumulator.
func (a *FrameAccumulator) Feed(b []byte) {
	a.buf = append(a.buf, b...)
}

// Next returns the next complete frame's payload and true if one is fully
// buffered, consuming it from the accumulator. Returns false if more bytes
// are needed.
func (a *FrameAccumulator) Next() ([]byte, bool, error) {
	if len(a.buf) < 4 {
		return nil, false, nil
	}
	n := binary.BigEndian.Uint32(a.buf[:4])
	if n > MaxFrameSize {
		return nil, false, fmt.Errorf("codec: frame length %d exceeds max %d", n, MaxFrameSize)
	}
	total := 4 + int(n)
	if len(a.buf) < total {
		return nil, false, nil
	}
	payload := make([]byte, n)
	copy(payload, a.buf[4:total])
	a.buf = a.buf[total:]
	return payload, true, nil
}

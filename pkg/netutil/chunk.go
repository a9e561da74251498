package netutil

import (
	"bytes"
	"io"
)

const ReadBufferSize = 8192

// ChunkReader reads one bounded chunk per call and splits it into
// newline separated messages. Peers write one JSON value per write,
// optionally newline terminated, and send a bare "\n" as keep-alive.
type ChunkReader struct {
	buf []byte
}

func NewChunkReader(size int) *ChunkReader {
	if size <= 0 {
		size = ReadBufferSize
	}
	return &ChunkReader{buf: make([]byte, size)}
}

// Next performs a single Read on r. The returned messages alias the
// internal buffer and are only valid until the next call. Messages read
// before an error are returned together with it.
func (c *ChunkReader) Next(r io.Reader) ([][]byte, error) {
	n, err := r.Read(c.buf)
	if n == 0 {
		return nil, err
	}

	var messages [][]byte
	for _, line := range bytes.Split(c.buf[:n], []byte{'\n'}) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		messages = append(messages, line)
	}

	return messages, err
}

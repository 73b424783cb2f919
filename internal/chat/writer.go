package chat

import (
	"bufio"
	"io"
	"sync"
)

// frameWriter serializes whole-frame writes to one connection. Broadcasts
// from other handlers and self-replies from the owning handler go through
// the same mutex, so a peer never sees interleaved bytes from two frames.
type frameWriter struct {
	mu sync.Mutex
	w  *bufio.Writer
}

func newFrameWriter(w io.Writer) *frameWriter {
	return &frameWriter{w: bufio.NewWriter(w)}
}

// writeFrame appends the newline terminator and flushes so the frame is on
// the wire before the lock is released.
func (fw *frameWriter) writeFrame(frame []byte) error {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if _, err := fw.w.Write(frame); err != nil {
		return err
	}
	if err := fw.w.WriteByte('\n'); err != nil {
		return err
	}
	return fw.w.Flush()
}

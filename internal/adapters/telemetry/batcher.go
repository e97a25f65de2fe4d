// Package telemetry bridges action spans to OpenTelemetry and the renderer.
package telemetry

import (
	"bytes"
	"errors"
	"sync"
	"time"
)

const (
	// DefaultSizeLimit is the default buffer size (4KB) if not specified.
	DefaultSizeLimit = 4096
	// DefaultTimeLimit is the default flush interval (50ms) if not specified.
	DefaultTimeLimit = 50 * time.Millisecond
)

// ErrBatcherClosed is returned by writes after Close.
var ErrBatcherClosed = errors.New("batch processor is closed")

// BatchProcessor buffers action output. Once the buffer exceeds the size limit it
// flushes up to the last complete line; partial lines go out on the ticker or on Close.
// It is safe for concurrent use.
type BatchProcessor struct {
	sizeLimit int
	timeLimit time.Duration
	onFlush   func([]byte)

	mu     sync.Mutex
	buffer bytes.Buffer
	ticker *time.Ticker
	stopCh chan struct{}
	closed bool
}

// NewBatchProcessor returns a started BatchProcessor. Call Close to stop its ticker.
func NewBatchProcessor(sizeLimit int, timeLimit time.Duration, onFlush func([]byte)) *BatchProcessor {
	if sizeLimit <= 0 {
		sizeLimit = DefaultSizeLimit
	}
	if timeLimit <= 0 {
		timeLimit = DefaultTimeLimit
	}

	bp := &BatchProcessor{
		sizeLimit: sizeLimit,
		timeLimit: timeLimit,
		onFlush:   onFlush,
		stopCh:    make(chan struct{}),
		ticker:    time.NewTicker(timeLimit),
	}
	go bp.run()
	return bp
}

// Write appends p to the buffer.
func (bp *BatchProcessor) Write(p []byte) (int, error) {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	if bp.closed {
		return 0, ErrBatcherClosed
	}

	n, _ := bp.buffer.Write(p)
	if bp.buffer.Len() >= bp.sizeLimit {
		if i := bytes.LastIndexByte(bp.buffer.Bytes(), '\n'); i >= 0 {
			bp.emitLocked(i + 1)
		} else {
			bp.emitLocked(bp.buffer.Len())
		}
		bp.ticker.Reset(bp.timeLimit)
	}
	return n, nil
}

// Flush sends everything buffered.
func (bp *BatchProcessor) Flush() {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	if bp.closed {
		return
	}
	bp.emitLocked(bp.buffer.Len())
}

// Close stops the ticker after a final flush.
func (bp *BatchProcessor) Close() error {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	if bp.closed {
		return nil
	}
	bp.closed = true
	close(bp.stopCh)
	bp.emitLocked(bp.buffer.Len())
	return nil
}

func (bp *BatchProcessor) run() {
	for {
		select {
		case <-bp.ticker.C:
			bp.Flush()
		case <-bp.stopCh:
			bp.ticker.Stop()
			return
		}
	}
}

// emitLocked hands the first n buffered bytes to onFlush. mu must be held.
func (bp *BatchProcessor) emitLocked(n int) {
	if n == 0 {
		return
	}
	data := make([]byte, n)
	copy(data, bp.buffer.Next(n))

	// onFlush runs under the lock to keep chunks ordered.
	if bp.onFlush != nil {
		bp.onFlush(data)
	}
}

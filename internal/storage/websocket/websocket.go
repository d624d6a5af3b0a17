package websocket

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/OCAP2/drivesim/pkg/core"
	"github.com/OCAP2/drivesim/pkg/streaming"
)

const defaultAckTimeout = 10 * time.Second

// Config holds WebSocket backend configuration.
type Config struct {
	URL         string
	Token       string
	SampleEvery int // stream every Nth frame, 1 when unset
	AckTimeout  time.Duration
}

// Backend streams run data over WebSocket to a live viewer.
// Frames are fire-and-forget; start and end of a run wait for an ack.
type Backend struct {
	conn   *connection
	cfg    Config
	runID  atomic.Uint64
	frames atomic.Uint64
}

// New creates a new WebSocket storage backend.
func New(cfg Config, logger *slog.Logger) *Backend {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.SampleEvery < 1 {
		cfg.SampleEvery = 1
	}
	if cfg.AckTimeout <= 0 {
		cfg.AckTimeout = defaultAckTimeout
	}
	return &Backend{
		conn: newConnection(logger.With("backend", "websocket")),
		cfg:  cfg,
	}
}

// Init connects to the WebSocket server.
func (b *Backend) Init() error {
	return b.conn.dial(b.cfg.URL, b.cfg.Token)
}

// Close disconnects from the WebSocket server.
func (b *Backend) Close() error {
	return b.conn.close()
}

// Dropped is the number of messages discarded because the send queue was full.
func (b *Backend) Dropped() uint64 {
	return b.conn.dropped.Load()
}

// marshalEnvelope builds a JSON-encoded Envelope from a message type and payload.
func marshalEnvelope(msgType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", msgType, err)
	}
	data, err := json.Marshal(streaming.Envelope{Type: msgType, Payload: raw})
	if err != nil {
		return nil, fmt.Errorf("marshal %s envelope: %w", msgType, err)
	}
	return data, nil
}

// StartRun sends the run header and world and waits for the server ack.
func (b *Backend) StartRun(run *core.Run, obstacles []core.Obstacle) error {
	data, err := marshalEnvelope(streaming.TypeStartRun, streaming.StartRunPayload{Run: run, Obstacles: obstacles})
	if err != nil {
		return err
	}

	b.conn.mu.Lock()
	b.conn.startMsg = data
	b.conn.mu.Unlock()
	b.runID.Store(uint64(run.ID))
	b.frames.Store(0)

	return b.conn.sendAndWait(data, streaming.TypeStartRun, b.cfg.AckTimeout)
}

// RecordFrame streams every SampleEvery-th frame.
func (b *Backend) RecordFrame(f *core.Frame) error {
	n := b.frames.Add(1)
	if (n-1)%uint64(b.cfg.SampleEvery) != 0 {
		return nil
	}
	data, err := marshalEnvelope(streaming.TypeFrame, f)
	if err != nil {
		return err
	}
	b.conn.send(data)
	return nil
}

// EndRun sends end_run and waits for the server ack.
func (b *Backend) EndRun(summary *core.RunSummary) error {
	data, err := marshalEnvelope(streaming.TypeEndRun, streaming.EndRunPayload{
		RunID:   uint(b.runID.Load()),
		Summary: summary,
		Dropped: b.Dropped(),
	})
	if err != nil {
		return err
	}
	err = b.conn.sendAndWait(data, streaming.TypeEndRun, b.cfg.AckTimeout)

	b.conn.mu.Lock()
	b.conn.startMsg = nil
	b.conn.mu.Unlock()

	return err
}

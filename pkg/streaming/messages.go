// Package streaming defines the JSON messages a recorder sends to a live
// viewer over WebSocket.
package streaming

import (
	"encoding/json"

	"github.com/OCAP2/drivesim/pkg/core"
)

// Message type constants matching the streaming protocol.
const (
	TypeStartRun = "start_run"
	TypeEndRun   = "end_run"
	TypeFrame    = "frame"
	TypeAck      = "ack"
)

// Envelope wraps all messages sent over the WebSocket.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// AckMessage is the server's acknowledgement response.
type AckMessage struct {
	Type string `json:"type"` // always "ack"
	For  string `json:"for"`  // the message type being acknowledged
}

// StartRunPayload carries the run header and the static world.
type StartRunPayload struct {
	Run       *core.Run       `json:"run"`
	Obstacles []core.Obstacle `json:"obstacles"`
}

// EndRunPayload closes a run.
type EndRunPayload struct {
	RunID   uint             `json:"runId"`
	Summary *core.RunSummary `json:"summary"`
	Dropped uint64           `json:"dropped"`
}

// Decode unmarshals the payload of e into v.
func (e Envelope) Decode(v any) error {
	return json.Unmarshal(e.Payload, v)
}

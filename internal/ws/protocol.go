package ws

import (
	"time"

	"github.com/plume-sim/backend/internal/sim"
)

type MessageType string

const (
	MsgSnapshot MessageType = "snapshot"
	MsgError    MessageType = "error"
)

type WSMessage struct {
	Type    MessageType `json:"type"`
	Payload interface{} `json:"payload"`
}

// CloudPayload carries the particle positions with their coordinate-frame
// label and timestamp. Points is empty when no model is configured.
type CloudPayload struct {
	FrameID string        `json:"frameId"`
	Stamp   time.Time     `json:"stamp"`
	Points  []sim.Vector3 `json:"points"`
}

// SnapshotPayload is one published frame: renderable markers plus the
// companion point cloud. Both collections are empty when no model is
// configured, telling observers to clear stale renders.
type SnapshotPayload struct {
	Markers []sim.Marker `json:"markers"`
	Cloud   CloudPayload `json:"cloud"`
}

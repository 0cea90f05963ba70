package domain

import (
	"encoding/json"
	"time"
)

type SessionID string
type PeerID string

// DrawingCommand is an opaque, order-significant drawing record. Its internal
// shape (tool, geometry, style) is owned by the clients and the persistence
// store; the relay only passes it through.
type DrawingCommand json.RawMessage

func (c DrawingCommand) MarshalJSON() ([]byte, error) {
	if len(c) == 0 {
		return []byte("null"), nil
	}
	return c, nil
}

func (c *DrawingCommand) UnmarshalJSON(data []byte) error {
	*c = append((*c)[0:0], data...)
	return nil
}

// Board is the persisted whiteboard document.
type Board struct {
	SessionID       SessionID        `json:"sessionId"`
	CreatorUsername string           `json:"creatorUsername"`
	CanvasState     []DrawingCommand `json:"canvasState"`
	CreatedAt       time.Time        `json:"createdAt"`
}

package domain

import "encoding/json"

type EnvelopeType string

// Client-originated envelope types.
const (
	EnvelopeJoin   EnvelopeType = "join"
	EnvelopeSignal EnvelopeType = "signal"
	EnvelopeDraw   EnvelopeType = "draw"
	EnvelopeLeave  EnvelopeType = "leave"
)

// Server-originated envelope types.
const (
	EnvelopePeerJoined EnvelopeType = "peer-joined"
	EnvelopePeerLeft   EnvelopeType = "peer-left"
	EnvelopeHistory    EnvelopeType = "history"
	EnvelopeError      EnvelopeType = "error"
)

// Envelope is the tagged message unit exchanged over the persistent channel.
// Inbound frames carry the sender's own id in PeerID; on relayed envelopes the
// server stamps SenderPeerID so recipients know the origin.
type Envelope struct {
	Type         EnvelopeType    `json:"type"`
	SessionID    SessionID       `json:"sessionId,omitempty"`
	PeerID       PeerID          `json:"peerId,omitempty"`
	SenderPeerID PeerID          `json:"senderPeerId,omitempty"`
	TargetPeerID PeerID          `json:"targetPeerId,omitempty"`
	Payload      json.RawMessage `json:"payload,omitempty"`
}

// IsTargeted reports whether the envelope is a point-to-point signaling
// message rather than a session-wide broadcast.
func (e *Envelope) IsTargeted() bool {
	return e.TargetPeerID != ""
}

// ErrorPayload is the payload of an "error" envelope.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewErrorEnvelope builds a server-originated error notice.
func NewErrorEnvelope(code, message string) *Envelope {
	payload, _ := json.Marshal(ErrorPayload{Code: code, Message: message})
	return &Envelope{
		Type:    EnvelopeError,
		Payload: payload,
	}
}

// NewHistoryEnvelope wraps an ordered command sequence for a joining peer.
// An empty history marshals as an empty array, never null.
func NewHistoryEnvelope(sessionID SessionID, history []DrawingCommand) *Envelope {
	if history == nil {
		history = []DrawingCommand{}
	}
	payload, _ := json.Marshal(history)
	return &Envelope{
		Type:      EnvelopeHistory,
		SessionID: sessionID,
		Payload:   payload,
	}
}

// NewPeerJoinedEnvelope builds the membership notice broadcast to existing members.
func NewPeerJoinedEnvelope(sessionID SessionID, peerID PeerID) *Envelope {
	return &Envelope{
		Type:      EnvelopePeerJoined,
		SessionID: sessionID,
		PeerID:    peerID,
	}
}

// NewPeerLeftEnvelope builds the membership notice broadcast after a leave.
func NewPeerLeftEnvelope(sessionID SessionID, peerID PeerID) *Envelope {
	return &Envelope{
		Type:      EnvelopePeerLeft,
		SessionID: sessionID,
		PeerID:    peerID,
	}
}

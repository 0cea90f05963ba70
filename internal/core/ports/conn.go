package ports

import "github.com/Uttham-412/Whiteboard/internal/core/domain"

// PeerConn is the outbound delivery handle a Session holds for each member.
// Send enqueues an envelope for asynchronous delivery preserving per-connection
// order; it never blocks the caller and returns domain.ErrSendQueueFull when
// the bounded queue overflows (the slow peer is then dropped rather than
// stalling the session). The transport owns the connection; sessions only
// reference it.
type PeerConn interface {
	PeerID() domain.PeerID
	Send(env *domain.Envelope) error
	Close(reason string)
}

package signal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Uttham-412/Whiteboard/internal/core/domain"
	"github.com/Uttham-412/Whiteboard/internal/core/services"
	apperrors "github.com/Uttham-412/Whiteboard/pkg/errors"
	"github.com/Uttham-412/Whiteboard/pkg/tracing"
	"github.com/Uttham-412/Whiteboard/pkg/validation"

	"go.uber.org/zap"
)

// Policy holds the routing decisions the spec leaves to deployment.
type Policy struct {
	// NotifyUnknownTarget controls whether a targeted signal to an absent
	// peer answers the sender with an error envelope or only logs the drop.
	NotifyUnknownTarget bool
}

// Router classifies inbound envelopes and dispatches them to session
// operations. It is the only component that mutates the connection->session
// attachment, so the linkage is never observable half-updated.
type Router struct {
	registry *services.Registry
	policy   Policy
	logger   *zap.SugaredLogger
}

func NewRouter(registry *services.Registry, policy Policy, logger *zap.SugaredLogger) *Router {
	return &Router{
		registry: registry,
		policy:   policy,
		logger:   logger,
	}
}

// HandleFrame processes one raw inbound frame from c. All failures are
// contained to this connection: the frame is dropped, the sender notified,
// and the connection stays open unless the transport itself failed.
func (r *Router) HandleFrame(ctx context.Context, c *Client, frame []byte) {
	var env domain.Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		r.logger.Debugw("malformed frame", "peer_id", c.PeerID(), "error", err)
		r.notify(c, apperrors.ErrCodeMalformedEnvelope, "envelope could not be decoded")
		return
	}

	ctx, span := tracing.TraceEnvelope(ctx, string(env.Type), string(c.PeerID()), string(env.SessionID))
	defer span.End()

	switch env.Type {
	case domain.EnvelopeJoin:
		r.handleJoin(ctx, c, &env)
	case domain.EnvelopeSignal, domain.EnvelopeDraw:
		r.handleRelay(ctx, c, &env)
	case domain.EnvelopeLeave:
		r.leave(c)
	default:
		r.notify(c, apperrors.ErrCodeMalformedEnvelope, fmt.Sprintf("unknown envelope type %q", env.Type))
	}
}

// HandleClose runs the leave path when the transport detects a close. The
// session attachment makes this idempotent: an explicit leave envelope
// followed by the read-loop teardown performs the membership removal once.
func (r *Router) HandleClose(c *Client) {
	r.leave(c)
	c.Close("connection closed")
}

func (r *Router) handleJoin(ctx context.Context, c *Client, env *domain.Envelope) {
	if err := validation.ValidateSessionID(string(env.SessionID)); err != nil {
		r.notify(c, apperrors.ErrCodeInvalidInput, err.Error())
		return
	}
	if env.PeerID != "" && env.PeerID != c.PeerID() {
		r.notify(c, apperrors.ErrCodeInvalidInput,
			fmt.Sprintf("peerId mismatch: connection identity is %q", c.PeerID()))
		return
	}
	if _, joined := c.attachment(); joined {
		r.notify(c, apperrors.ErrCodeConflict, "connection already joined to a session")
		return
	}

	session, history, err := r.registry.JoinSession(ctx, env.SessionID, c.PeerID(), c)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicatePeer) {
			r.notify(c, apperrors.ErrCodeDuplicatePeer,
				fmt.Sprintf("peer %q already present in session %q", c.PeerID(), env.SessionID))
			return
		}
		tracing.RecordError(ctx, err)
		r.logger.Errorw("join failed", "peer_id", c.PeerID(), "session_id", env.SessionID, "error", err)
		r.notify(c, apperrors.ErrCodeInternal, "join failed")
		return
	}

	c.attach(session)
	if err := c.Send(domain.NewHistoryEnvelope(session.ID(), history)); err != nil {
		r.logger.Warnw("history delivery failed", "peer_id", c.PeerID(), "session_id", session.ID(), "error", err)
	}
}

func (r *Router) handleRelay(ctx context.Context, c *Client, env *domain.Envelope) {
	session, joined := c.attachment()
	if !joined {
		r.notify(c, apperrors.ErrCodeNotJoined, "join a session before sending signal or draw envelopes")
		return
	}

	err := session.Relay(ctx, c.PeerID(), env)
	if err == nil {
		return
	}
	if errors.Is(err, domain.ErrUnknownTarget) {
		r.logger.Infow("dropped envelope for unknown target",
			"session_id", session.ID(), "peer_id", c.PeerID(), "target_peer_id", env.TargetPeerID)
		if r.policy.NotifyUnknownTarget {
			r.notify(c, apperrors.ErrCodeUnknownTarget,
				fmt.Sprintf("peer %q is not in session %q", env.TargetPeerID, session.ID()))
		}
		return
	}
	tracing.RecordError(ctx, err)
	r.logger.Errorw("relay failed", "session_id", session.ID(), "peer_id", c.PeerID(), "error", err)
}

// leave detaches c from its session, if any, and reaps the session when it
// became empty.
func (r *Router) leave(c *Client) {
	session := c.detach()
	if session == nil {
		return
	}
	_, empty := session.Leave(c.PeerID())
	if empty {
		r.registry.RemoveIfEmpty(session.ID())
	}
}

func (r *Router) notify(c *Client, code apperrors.ErrorCode, message string) {
	if err := c.Send(domain.NewErrorEnvelope(string(code), message)); err != nil {
		r.logger.Debugw("error notice not delivered", "peer_id", c.PeerID(), "code", code, "error", err)
	}
}

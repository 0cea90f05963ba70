package domain

import "errors"

var (
	ErrMalformedEnvelope = errors.New("malformed envelope")
	ErrNotJoined         = errors.New("connection not joined to a session")
	ErrDuplicatePeer     = errors.New("peer id already present in session")
	ErrUnknownTarget     = errors.New("target peer not in session")
	ErrSessionNotFound   = errors.New("session not found")
	ErrBoardNotFound     = errors.New("board not found")
	ErrBoardExists       = errors.New("board already exists")
	ErrStoreUnavailable  = errors.New("history store unavailable")
	ErrSendQueueFull     = errors.New("outbound send queue full")
	ErrConnectionClosed  = errors.New("connection closed")
)

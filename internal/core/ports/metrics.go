package ports

import "github.com/Uttham-412/Whiteboard/internal/core/domain"

// RelayMetrics decouples core services from the metrics backend.
type RelayMetrics interface {
	RecordSessionCreated(sessionID domain.SessionID)
	RecordSessionReaped(sessionID domain.SessionID)
	RecordPeerJoined(sessionID domain.SessionID)
	RecordPeerLeft(sessionID domain.SessionID)
	RecordEnvelopeRelayed(envType domain.EnvelopeType)
	RecordDroppedDelivery(reason string)
	RecordHistoryAppend(ok bool)
	RecordBackpressureDisconnect()
}

// NopRelayMetrics is used where metrics are disabled (and in tests).
type NopRelayMetrics struct{}

func (NopRelayMetrics) RecordSessionCreated(domain.SessionID)       {}
func (NopRelayMetrics) RecordSessionReaped(domain.SessionID)        {}
func (NopRelayMetrics) RecordPeerJoined(domain.SessionID)           {}
func (NopRelayMetrics) RecordPeerLeft(domain.SessionID)             {}
func (NopRelayMetrics) RecordEnvelopeRelayed(domain.EnvelopeType)   {}
func (NopRelayMetrics) RecordDroppedDelivery(string)                {}
func (NopRelayMetrics) RecordHistoryAppend(bool)                    {}
func (NopRelayMetrics) RecordBackpressureDisconnect()               {}

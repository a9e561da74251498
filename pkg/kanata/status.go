package kanata

import "go.uber.org/atomic"

// Status is the health of the kanata channel, shared between the read loop
// that detects failures and the dispatch path that has to react to them.
type Status struct {
	disconnected     *atomic.Bool
	reconnectPending *atomic.Bool
}

func NewStatus() *Status {
	return &Status{
		disconnected:     atomic.NewBool(false),
		reconnectPending: atomic.NewBool(false),
	}
}

// Disconnected is true while the read loop is waiting for kanata to come back.
func (s *Status) Disconnected() bool {
	return s.disconnected.Load()
}

// ReconnectPending is true once kanata is reachable again but the writer
// still holds the old connection.
func (s *Status) ReconnectPending() bool {
	return s.reconnectPending.Load()
}

func (s *Status) markDisconnected() {
	s.disconnected.Store(true)
}

func (s *Status) markReconnected() {
	s.reconnectPending.Store(true)
	s.disconnected.Store(false)
}

func (s *Status) markReconnectPending() {
	s.reconnectPending.Store(true)
}

func (s *Status) clearReconnectPending() {
	s.reconnectPending.Store(false)
}

package dispatch

import (
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"
)

// WSSession represents a connected provider app.
type WSSession struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *WSSession) Send(offer JobOffer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(offer)
}

// WSRegistry holds provider sessions keyed by provider id.
type WSRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*WSSession
	log      *slog.Logger
}

func NewWSRegistry(logger *slog.Logger) *WSRegistry {
	if logger == nil {
		logger = slog.Default()
	}
	return &WSRegistry{sessions: make(map[string]*WSSession), log: logger}
}

func (r *WSRegistry) Add(providerID string, conn *websocket.Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.sessions[providerID]; ok {
		_ = prev.conn.Close()
	}
	r.sessions[providerID] = &WSSession{conn: conn}
}

func (r *WSRegistry) Remove(providerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[providerID]; ok {
		_ = s.conn.Close()
		delete(r.sessions, providerID)
	}
}

func (r *WSRegistry) Offer(providerID string, offer JobOffer) error {
	r.mu.RLock()
	s, ok := r.sessions[providerID]
	r.mu.RUnlock()
	if !ok {
		return ErrNoSession
	}
	if err := s.Send(offer); err != nil {
		r.log.Warn("ws send failed", "provider_id", providerID, "error", err)
		return err
	}
	return nil
}

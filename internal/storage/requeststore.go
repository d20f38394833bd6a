package storage

import (
	"errors"
	"sync"

	"github.com/example/motorambos/internal/models"
)

// ErrNotFound is returned when a request or review does not exist.
var ErrNotFound = errors.New("not found")

// RequestStore defines persistence for help requests and their reviews.
type RequestStore interface {
	SaveRequest(r *models.HelpRequest) error
	UpdateStatus(id, providerID, status string) error
	GetRequest(id string) (*models.HelpRequest, error)
	ListRequests(status string, limit int) ([]*models.HelpRequest, error)
	SaveReview(rv *models.Review) error
	GetReview(requestID string) (*models.Review, error)
}

type MemoryStore struct {
	mu       sync.RWMutex
	requests map[string]*models.HelpRequest
	reviews  map[string]*models.Review
	order    []string // insertion order for listings
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		requests: make(map[string]*models.HelpRequest),
		reviews:  make(map[string]*models.Review),
	}
}

func (m *MemoryStore) SaveRequest(r *models.HelpRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.requests[r.ID]; !ok {
		m.order = append(m.order, r.ID)
	}
	cp := *r
	m.requests[r.ID] = &cp
	return nil
}

func (m *MemoryStore) UpdateStatus(id, providerID, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	if !ok {
		return ErrNotFound
	}
	if providerID != "" {
		r.ProviderID = providerID
	}
	r.Status = status
	return nil
}

func (m *MemoryStore) GetRequest(id string) (*models.HelpRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.requests[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *MemoryStore) ListRequests(status string, limit int) ([]*models.HelpRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*models.HelpRequest, 0, limit)
	// newest first
	for i := len(m.order) - 1; i >= 0 && len(out) < limit; i-- {
		r := m.requests[m.order[i]]
		if status != "" && r.Status != status {
			continue
		}
		cp := *r
		out = append(out, &cp)
	}
	return out, nil
}

func (m *MemoryStore) SaveReview(rv *models.Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *rv
	m.reviews[rv.RequestID] = &cp
	return nil
}

func (m *MemoryStore) GetReview(requestID string) (*models.Review, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rv, ok := m.reviews[requestID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *rv
	return &cp, nil
}

package dispatch

import (
	"github.com/example/motorambos/internal/models"
)

// JobOffer is what a provider's app receives when a new help request
// lands inside its coverage area.
type JobOffer struct {
	RequestID  string          `json:"request_id"`
	HelpType   models.HelpType `json:"help_type"`
	DistanceKm float64         `json:"distance_km"`
	Loc        models.Coord    `json:"loc"`
	Details    string          `json:"details,omitempty"`
}

// Dispatcher delivers a job offer to one provider. A missing session is
// a normal condition, not a fault: providers connect and disconnect all
// the time.
type Dispatcher interface {
	Offer(providerID string, offer JobOffer) error
}

var ErrNoSession = &NoSessionError{}

type NoSessionError struct{}

func (n *NoSessionError) Error() string { return "no provider session" }

package wizard

import (
	"context"

	"github.com/example/motorambos/internal/models"
)

// The wizard core never talks to a backend directly; it goes through
// these collaborator interfaces. Production wires the HTTP client from
// internal/backend, tests wire fakes, and an embedded deployment can
// wire the in-process services directly.

// RequestCreator records a help request. Mapping the help type to a
// service identifier is the collaborator's job, not the wizard's.
type RequestCreator interface {
	CreateRequest(ctx context.Context, draft models.HelpRequestDraft, fix models.GeoFix) (models.SubmittedRequestRef, error)
}

// ProviderFinder returns candidates near a point. The spatial filtering
// happens on the collaborator's side; the wizard only ranks the result.
type ProviderFinder interface {
	NearbyProviders(ctx context.Context, helpType models.HelpType, lat, lon float64) ([]models.ProviderCandidate, error)
}

// ReviewSubmitter records a post-service review. Only an ack is needed.
type ReviewSubmitter interface {
	SubmitReview(ctx context.Context, draft models.ReviewDraft) error
}

// ReviewContext is display copy for the review screen. Best-effort:
// empty fields are fine and never gate the flow.
type ReviewContext struct {
	ProviderName string
	ServiceName  string
}

type ReviewContextFetcher interface {
	ReviewContext(ctx context.Context, requestID string) (ReviewContext, error)
}

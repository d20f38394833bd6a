package wizard

import (
	"context"
	"log/slog"

	"github.com/example/motorambos/internal/models"
	"github.com/example/motorambos/internal/ranking"
)

// SubmitResult is what the coordinator hands back to the state machine.
type SubmitResult struct {
	Ref       *models.SubmittedRequestRef // nil when creation returned no id
	Providers []models.ProviderCandidate  // ranked; empty on lookup failure
	Degraded  bool                        // a collaborator call failed and we fell open
}

// Coordinator orchestrates a submission: record the request, look up
// nearby providers, rank them. The two calls are sequential on purpose;
// the request should exist before providers are fetched.
type Coordinator struct {
	Requests  RequestCreator
	Providers ProviderFinder
	Logger    *slog.Logger
}

// Submit runs the full sequence. The only error it can return is
// ErrMissingLocation: collaborator failures degrade to an empty result
// instead of blocking the caller. Request creation is attempted exactly
// once per call and never retried here.
func (c *Coordinator) Submit(ctx context.Context, draft models.HelpRequestDraft, fix *models.GeoFix) (SubmitResult, error) {
	if fix == nil {
		return SubmitResult{}, ErrMissingLocation
	}

	var res SubmitResult
	ref, err := c.Requests.CreateRequest(ctx, draft, *fix)
	if err != nil {
		c.log().Warn("request create failed, continuing without an id", "error", err)
		res.Degraded = true
	} else if ref.ID != "" {
		res.Ref = &ref
	}

	// Lookup proceeds whether or not creation produced an id.
	res.Providers, res.Degraded = c.lookup(ctx, draft.HelpType, *fix, res.Degraded)
	return res, nil
}

// Refresh re-runs only the lookup-and-rank half of the sequence, for
// the results screen's explicit refresh action. The request is not
// re-created and the fix is reused as-is, even if it has aged.
func (c *Coordinator) Refresh(ctx context.Context, helpType models.HelpType, fix *models.GeoFix) (SubmitResult, error) {
	if fix == nil {
		return SubmitResult{}, ErrMissingLocation
	}
	var res SubmitResult
	res.Providers, res.Degraded = c.lookup(ctx, helpType, *fix, false)
	return res, nil
}

func (c *Coordinator) lookup(ctx context.Context, helpType models.HelpType, fix models.GeoFix, degraded bool) ([]models.ProviderCandidate, bool) {
	provs, err := c.Providers.NearbyProviders(ctx, helpType, fix.Lat, fix.Lon)
	if err != nil {
		c.log().Warn("provider lookup failed, showing empty results", "help_type", helpType, "error", err)
		return []models.ProviderCandidate{}, true
	}
	return ranking.Rank(provs), degraded
}

func (c *Coordinator) log() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

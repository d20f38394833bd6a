package wizard

import (
	"context"
	"log/slog"
	"sync"

	"github.com/example/motorambos/internal/kvstore"
	"github.com/example/motorambos/internal/models"
	"github.com/example/motorambos/internal/validate"
)

// ReviewStep identifies a position in the post-service review flow.
type ReviewStep int

const (
	ReviewStepRating ReviewStep = iota
	ReviewStepWrite
	ReviewStepDone
)

func (s ReviewStep) String() string {
	switch s {
	case ReviewStepRating:
		return "rating"
	case ReviewStepWrite:
		return "review"
	case ReviewStepDone:
		return "done"
	}
	return "unknown"
}

// LastWorkshopKey is where the convenience "last workshop" value lives
// in the injected key-value store.
const LastWorkshopKey = "last_workshop"

// ReviewFlow is the 2-step review state machine. Same shape as the
// request wizard, scaled down, with one deliberate asymmetry: a failed
// submission keeps the user on the write step with the draft intact so
// the exact same input can be retried. There is no fail-open here.
type ReviewFlow struct {
	mu      sync.Mutex
	step    ReviewStep
	draft   models.ReviewDraft
	display ReviewContext
	busy    bool

	submitter ReviewSubmitter
	fetcher   ReviewContextFetcher
	kv        kvstore.Store
	log       *slog.Logger
}

func NewReviewFlow(requestID string, submitter ReviewSubmitter, fetcher ReviewContextFetcher, kv kvstore.Store, logger *slog.Logger) *ReviewFlow {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReviewFlow{
		draft:     models.ReviewDraft{TargetRequestID: requestID},
		submitter: submitter,
		fetcher:   fetcher,
		kv:        kv,
		log:       logger,
	}
}

func (r *ReviewFlow) Step() ReviewStep {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.step
}

func (r *ReviewFlow) Draft() models.ReviewDraft {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.draft
}

func (r *ReviewFlow) Busy() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.busy
}

// Display returns the best-effort provider/service names for copy.
func (r *ReviewFlow) Display() ReviewContext {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.display
}

// LoadContext fetches display copy for the review screen. Failures are
// logged and ignored; the flow works without it.
func (r *ReviewFlow) LoadContext(ctx context.Context) {
	if r.fetcher == nil {
		return
	}
	r.mu.Lock()
	id := r.draft.TargetRequestID
	r.mu.Unlock()
	rc, err := r.fetcher.ReviewContext(ctx, id)
	if err != nil {
		r.log.Debug("review context fetch failed", "request_id", id, "error", err)
		return
	}
	r.mu.Lock()
	r.display = rc
	r.mu.Unlock()
}

func (r *ReviewFlow) SetRating(stars int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.draft.StarRating = stars
}

func (r *ReviewFlow) SetText(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.draft.WrittenReview = text
}

func (r *ReviewFlow) SetReviewerPhone(phone string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.draft.ReviewerPhone = phone
}

func (r *ReviewFlow) SetOutcome(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.draft.Outcome = outcome
}

// CanAdvance mirrors the wizard's per-step gating.
func (r *ReviewFlow) CanAdvance() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.validateLocked()) == 0
}

func (r *ReviewFlow) validateLocked() []validate.FieldError {
	switch r.step {
	case ReviewStepRating:
		return validate.RatingStep(r.draft)
	case ReviewStepWrite:
		return validate.ReviewStep(r.draft)
	}
	return nil
}

// Next advances the flow. From the write step it performs the
// submission; failure returns a *ReviewSubmitError and leaves the step
// and the draft untouched for retry.
func (r *ReviewFlow) Next(ctx context.Context) error {
	r.mu.Lock()
	if errs := r.validateLocked(); len(errs) > 0 {
		r.mu.Unlock()
		return &ValidationError{Fields: errs}
	}
	switch r.step {
	case ReviewStepRating:
		r.step = ReviewStepWrite
		r.mu.Unlock()
		return nil
	case ReviewStepWrite:
		return r.submitLocked(ctx)
	default:
		r.mu.Unlock()
		return ErrCannotGoBack
	}
}

// Back returns to the rating step; the written text is kept.
func (r *ReviewFlow) Back() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.step != ReviewStepWrite {
		return ErrCannotGoBack
	}
	r.step = ReviewStepRating
	return nil
}

func (r *ReviewFlow) submitLocked(ctx context.Context) error {
	if r.busy {
		r.mu.Unlock()
		return ErrBusy
	}
	r.busy = true
	draft := r.draft
	workshop := r.display.ProviderName
	r.mu.Unlock()

	err := r.submitter.SubmitReview(ctx, draft)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.busy = false
	if err != nil {
		return &ReviewSubmitError{Err: err}
	}
	r.step = ReviewStepDone
	if r.kv != nil && workshop != "" {
		if kerr := r.kv.Set(ctx, LastWorkshopKey, workshop); kerr != nil {
			r.log.Debug("last workshop store failed", "error", kerr)
		}
	}
	r.log.Info("review submitted", "request_id", draft.TargetRequestID, "rating", draft.StarRating)
	return nil
}

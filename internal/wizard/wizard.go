package wizard

import (
	"context"
	"log/slog"
	"sync"

	"github.com/example/motorambos/internal/geoloc"
	"github.com/example/motorambos/internal/models"
	"github.com/example/motorambos/internal/validate"
)

// Step identifies a position in the help-request flow.
type Step int

const (
	StepHelp Step = iota
	StepCar
	StepContact
	StepProviders
)

func (s Step) String() string {
	switch s {
	case StepHelp:
		return "help"
	case StepCar:
		return "car"
	case StepContact:
		return "contact"
	case StepProviders:
		return "providers"
	}
	return "unknown"
}

// Wizard is the help-request flow: a strictly forward-linear sequence
// with single-step back navigation. The draft persists across back and
// forward moves; only Reset discards it. Help and Car advance purely on
// validation; Contact's advance is the submission itself, and Providers
// is terminal apart from RefreshResults.
//
// All I/O-bound operations are single-flight: a second call while one
// is running gets ErrBusy. A generation counter guards against a
// superseded operation writing its result over a newer one after a
// reset or refresh.
type Wizard struct {
	mu        sync.Mutex
	step      Step
	draft     models.HelpRequestDraft
	fix       *models.GeoFix
	ref       *models.SubmittedRequestRef
	providers []models.ProviderCandidate
	degraded  bool

	busy   bool
	gen    uint64
	cancel context.CancelFunc

	coord *Coordinator
	acq   *geoloc.Acquirer
	log   *slog.Logger
}

func New(coord *Coordinator, acq *geoloc.Acquirer, logger *slog.Logger) *Wizard {
	if logger == nil {
		logger = slog.Default()
	}
	return &Wizard{coord: coord, acq: acq, log: logger}
}

// Step reports the current step.
func (w *Wizard) Step() Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.step
}

// Busy reports whether an asynchronous operation is in flight, so the
// caller can disable the triggering control.
func (w *Wizard) Busy() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.busy
}

// Draft returns a copy of the in-progress draft.
func (w *Wizard) Draft() models.HelpRequestDraft {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.draft
}

// Fix returns the captured location fix, or nil.
func (w *Wizard) Fix() *models.GeoFix {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.fix
}

// Providers returns the ranked result list once StepProviders is reached.
func (w *Wizard) Providers() []models.ProviderCandidate {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.providers
}

// RequestRef returns the acknowledgement of the created request, or nil
// when creation failed or returned no id (tolerated, display-only).
func (w *Wizard) RequestRef() *models.SubmittedRequestRef {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.ref
}

// Degraded reports whether the last submission fell open to an empty or
// id-less result because a collaborator failed.
func (w *Wizard) Degraded() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.degraded
}

// SetHelpType, SetVehicle, SetContact and SetDetails mutate the draft.
// They are plain field writes; validation happens at navigation time.

func (w *Wizard) SetHelpType(t models.HelpType) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.draft.HelpType = t
}

func (w *Wizard) SetVehicle(v models.Vehicle) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.draft.Vehicle = v
}

func (w *Wizard) SetContact(c models.Contact) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.draft.Contact = c
}

func (w *Wizard) SetDetails(details, address string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.draft.Details = details
	w.draft.Address = address
}

// CheckPermission probes location permission without triggering a
// prompt or a read.
func (w *Wizard) CheckPermission(ctx context.Context) geoloc.Permission {
	if w.acq == nil {
		return geoloc.PermissionUnknown
	}
	return w.acq.CheckPermission(ctx)
}

// UseMyLocation acquires a fresh fix. It must only be called from an
// explicit user action; the wizard never acquires on its own. On
// success the previous fix is replaced wholesale.
func (w *Wizard) UseMyLocation(ctx context.Context) error {
	if w.acq == nil {
		return &geoloc.Error{Kind: geoloc.KindUnsupported, Message: "no location source configured"}
	}
	w.mu.Lock()
	if w.busy {
		w.mu.Unlock()
		return ErrBusy
	}
	gen, ctx := w.begin(ctx)
	w.mu.Unlock()

	fix, err := w.acq.AcquireFix(ctx)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.finish(gen)
	if gen != w.gen {
		return nil // superseded by a reset; discard silently
	}
	if err != nil {
		return err
	}
	w.fix = &fix
	return nil
}

// Validate runs the current step's validator against the draft.
func (w *Wizard) Validate() []validate.FieldError {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.validateLocked()
}

// CanAdvance reports whether Next would pass validation at the current
// step.
func (w *Wizard) CanAdvance() bool {
	return len(w.Validate()) == 0
}

func (w *Wizard) validateLocked() []validate.FieldError {
	switch w.step {
	case StepHelp:
		return validate.HelpStep(w.draft)
	case StepCar:
		return validate.VehicleStep(w.draft)
	case StepContact:
		return validate.ContactStep(w.draft, w.fix)
	}
	return nil
}

// Next advances one step. On Help and Car it is a pure, gated state
// change. On Contact it performs the submission. On Providers it is a
// no-op error.
func (w *Wizard) Next(ctx context.Context) error {
	w.mu.Lock()
	if errs := w.validateLocked(); len(errs) > 0 {
		w.mu.Unlock()
		return &ValidationError{Fields: errs}
	}
	switch w.step {
	case StepHelp:
		w.step = StepCar
		w.mu.Unlock()
		return nil
	case StepCar:
		w.step = StepContact
		w.mu.Unlock()
		return nil
	case StepContact:
		return w.submitLocked(ctx)
	default:
		w.mu.Unlock()
		return ErrNotAtResults
	}
}

// Back moves one step backward without discarding any entered data.
// It is pure: no draft field is touched. The first step and the
// terminal results step refuse it.
func (w *Wizard) Back() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	switch w.step {
	case StepCar:
		w.step = StepHelp
	case StepContact:
		w.step = StepCar
	default:
		return ErrCannotGoBack
	}
	return nil
}

// submitLocked is entered holding the lock and releases it around the
// collaborator calls.
func (w *Wizard) submitLocked(ctx context.Context) error {
	if w.busy {
		w.mu.Unlock()
		return ErrBusy
	}
	gen, ctx := w.begin(ctx)
	draft, fix := w.draft, w.fix
	w.mu.Unlock()

	res, err := w.coord.Submit(ctx, draft, fix)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.finish(gen)
	if gen != w.gen {
		return nil // a reset superseded this submission
	}
	if err != nil {
		return err // only ErrMissingLocation reaches here
	}
	w.ref = res.Ref
	w.providers = res.Providers
	w.degraded = res.Degraded
	w.step = StepProviders
	w.log.Info("help request submitted",
		"help_type", draft.HelpType,
		"providers", len(res.Providers),
		"degraded", res.Degraded,
		"has_ref", res.Ref != nil)
	return nil
}

// RefreshResults re-runs the provider lookup with the same draft and
// the same fix, replacing the list wholesale. The request is not
// re-created and the location is not re-acquired.
func (w *Wizard) RefreshResults(ctx context.Context) error {
	w.mu.Lock()
	if w.step != StepProviders {
		w.mu.Unlock()
		return ErrNotAtResults
	}
	if w.busy {
		w.mu.Unlock()
		return ErrBusy
	}
	gen, ctx := w.begin(ctx)
	helpType, fix := w.draft.HelpType, w.fix
	w.mu.Unlock()

	res, err := w.coord.Refresh(ctx, helpType, fix)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.finish(gen)
	if gen != w.gen {
		return nil
	}
	if err != nil {
		return err
	}
	w.providers = res.Providers
	w.degraded = res.Degraded
	return nil
}

// Reset discards the draft, the fix and any results, cancels whatever
// is in flight, and returns to the first step. An operation that was
// running when Reset was called can no longer write its result back.
func (w *Wizard) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.gen++
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
	w.busy = false
	w.step = StepHelp
	w.draft = models.HelpRequestDraft{}
	w.fix = nil
	w.ref = nil
	w.providers = nil
	w.degraded = false
}

// begin marks an operation in flight and arms the stale-result guard.
// Called with the lock held; returns the generation the operation must
// still match when it finishes, plus a cancellable context.
func (w *Wizard) begin(ctx context.Context) (uint64, context.Context) {
	w.gen++
	w.busy = true
	ctx, w.cancel = context.WithCancel(ctx)
	return w.gen, ctx
}

// finish clears the in-flight state if this operation is still current.
// Called with the lock held.
func (w *Wizard) finish(gen uint64) {
	if gen == w.gen {
		w.busy = false
		if w.cancel != nil {
			w.cancel()
			w.cancel = nil
		}
	}
}

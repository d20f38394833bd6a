package wizard

import (
	"context"
	"errors"
	"runtime"
	"testing"

	"github.com/example/motorambos/internal/models"
)

type fakeCreator struct {
	calls int
	ref   models.SubmittedRequestRef
	err   error
}

func (f *fakeCreator) CreateRequest(ctx context.Context, draft models.HelpRequestDraft, fix models.GeoFix) (models.SubmittedRequestRef, error) {
	f.calls++
	return f.ref, f.err
}

type fakeFinder struct {
	calls     int
	providers []models.ProviderCandidate
	err       error
	block     chan struct{} // when set, waits before returning
}

func (f *fakeFinder) NearbyProviders(ctx context.Context, helpType models.HelpType, lat, lon float64) ([]models.ProviderCandidate, error) {
	f.calls++
	if f.block != nil {
		<-f.block
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.providers, nil
}

func rate(v float64) *float64 { return &v }

func fill(w *Wizard) {
	w.SetHelpType(models.HelpBattery)
	w.SetVehicle(models.Vehicle{Make: "Toyota", Model: "Corolla", Year: "2018", Color: "Silver", Plate: "GR-1234-24"})
	w.SetContact(models.Contact{FullName: "Ama", Phone: "+233551234567"})
}

func setFix(w *Wizard) {
	w.mu.Lock()
	w.fix = &models.GeoFix{Lat: 5.6, Lon: -0.18}
	w.mu.Unlock()
}

func newTestWizard(creator RequestCreator, finder ProviderFinder) *Wizard {
	return New(&Coordinator{Requests: creator, Providers: finder}, nil, nil)
}

func TestVehicleStepGating(t *testing.T) {
	ctx := context.Background()
	w := newTestWizard(&fakeCreator{}, &fakeFinder{})
	fill(w)
	if err := w.Next(ctx); err != nil {
		t.Fatalf("help step: %v", err)
	}

	for _, bad := range []string{"19", "abcd"} {
		v := w.Draft().Vehicle
		v.Year = bad
		w.SetVehicle(v)
		if w.CanAdvance() {
			t.Errorf("year %q: expected gate to hold", bad)
		}
		var verr *ValidationError
		if err := w.Next(ctx); !errors.As(err, &verr) {
			t.Errorf("year %q: expected ValidationError, got %v", bad, err)
		}
		if w.Step() != StepCar {
			t.Errorf("year %q: step moved to %s", bad, w.Step())
		}
	}

	v := w.Draft().Vehicle
	v.Year = "2020"
	w.SetVehicle(v)
	if err := w.Next(ctx); err != nil {
		t.Fatalf("year 2020 should advance: %v", err)
	}
	if w.Step() != StepContact {
		t.Fatalf("expected contact step, got %s", w.Step())
	}
}

func TestSubmitWithoutFixMakesNoCalls(t *testing.T) {
	ctx := context.Background()
	creator := &fakeCreator{ref: models.SubmittedRequestRef{ID: "r1"}}
	finder := &fakeFinder{}
	w := newTestWizard(creator, finder)
	fill(w)
	_ = w.Next(ctx)
	_ = w.Next(ctx)

	err := w.Next(ctx) // contact step without a fix
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error for missing location, got %v", err)
	}
	if creator.calls != 0 || finder.calls != 0 {
		t.Fatalf("expected zero collaborator calls, got create=%d lookup=%d", creator.calls, finder.calls)
	}

	// the coordinator itself also refuses a nil fix
	c := &Coordinator{Requests: creator, Providers: finder}
	if _, err := c.Submit(ctx, w.Draft(), nil); !errors.Is(err, ErrMissingLocation) {
		t.Fatalf("expected ErrMissingLocation, got %v", err)
	}
	if creator.calls != 0 || finder.calls != 0 {
		t.Fatalf("coordinator made calls despite missing fix")
	}
}

func TestSubmitHappyPath(t *testing.T) {
	ctx := context.Background()
	creator := &fakeCreator{ref: models.SubmittedRequestRef{ID: "req-9"}}
	finder := &fakeFinder{providers: []models.ProviderCandidate{
		{ID: "far", DistanceKm: 7.5, Rating: rate(5)},
		{ID: "near", DistanceKm: 1.2, Rating: rate(3)},
	}}
	w := newTestWizard(creator, finder)
	fill(w)
	setFix(w)
	for i := 0; i < 3; i++ {
		if err := w.Next(ctx); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}
	if w.Step() != StepProviders {
		t.Fatalf("expected providers step, got %s", w.Step())
	}
	if creator.calls != 1 || finder.calls != 1 {
		t.Fatalf("expected one call each, got create=%d lookup=%d", creator.calls, finder.calls)
	}
	if ref := w.RequestRef(); ref == nil || ref.ID != "req-9" {
		t.Fatalf("expected request ref req-9, got %v", ref)
	}
	got := w.Providers()
	if len(got) != 2 || got[0].ID != "near" {
		t.Fatalf("expected ranked list starting with near, got %v", got)
	}
	if w.Degraded() {
		t.Fatal("happy path should not be degraded")
	}
}

func TestSubmitFailsOpenOnLookupError(t *testing.T) {
	ctx := context.Background()
	creator := &fakeCreator{ref: models.SubmittedRequestRef{ID: "r1"}}
	finder := &fakeFinder{err: errors.New("lookup down")}
	w := newTestWizard(creator, finder)
	fill(w)
	setFix(w)
	_ = w.Next(ctx)
	_ = w.Next(ctx)
	if err := w.Next(ctx); err != nil {
		t.Fatalf("submit must not surface lookup failure: %v", err)
	}
	if w.Step() != StepProviders {
		t.Fatalf("expected providers step, got %s", w.Step())
	}
	if got := w.Providers(); got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil list, got %v", got)
	}
	if !w.Degraded() {
		t.Fatal("expected degraded flag")
	}
	if w.Busy() {
		t.Fatal("must not be stuck busy")
	}
}

func TestSubmitToleratesCreateFailure(t *testing.T) {
	ctx := context.Background()
	creator := &fakeCreator{err: errors.New("create down")}
	finder := &fakeFinder{providers: []models.ProviderCandidate{{ID: "p", DistanceKm: 2}}}
	w := newTestWizard(creator, finder)
	fill(w)
	setFix(w)
	_ = w.Next(ctx)
	_ = w.Next(ctx)
	if err := w.Next(ctx); err != nil {
		t.Fatalf("submit must proceed past create failure: %v", err)
	}
	if finder.calls != 1 {
		t.Fatal("lookup must still run after create failure")
	}
	if w.RequestRef() != nil {
		t.Fatal("expected nil request ref")
	}
	if len(w.Providers()) != 1 {
		t.Fatalf("expected providers despite missing ref, got %v", w.Providers())
	}
}

func TestBackPreservesVehicleData(t *testing.T) {
	ctx := context.Background()
	w := newTestWizard(&fakeCreator{}, &fakeFinder{})
	fill(w)
	_ = w.Next(ctx)
	_ = w.Next(ctx)
	if w.Step() != StepContact {
		t.Fatalf("setup: expected contact, got %s", w.Step())
	}
	if err := w.Back(); err != nil {
		t.Fatalf("back: %v", err)
	}
	if w.Step() != StepCar {
		t.Fatalf("expected car step, got %s", w.Step())
	}
	if err := w.Next(ctx); err != nil {
		t.Fatalf("forward again: %v", err)
	}
	v := w.Draft().Vehicle
	if v.Make != "Toyota" || v.Model != "Corolla" || v.Year != "2018" || v.Color != "Silver" || v.Plate != "GR-1234-24" {
		t.Fatalf("vehicle data changed across back/forward: %+v", v)
	}
	c := w.Draft().Contact
	if c.FullName != "Ama" || c.Phone != "+233551234567" {
		t.Fatalf("contact data changed across back/forward: %+v", c)
	}
}

func TestBackRefusedAtEdges(t *testing.T) {
	ctx := context.Background()
	finder := &fakeFinder{}
	w := newTestWizard(&fakeCreator{ref: models.SubmittedRequestRef{ID: "x"}}, finder)
	if err := w.Back(); !errors.Is(err, ErrCannotGoBack) {
		t.Fatalf("first step: expected ErrCannotGoBack, got %v", err)
	}
	fill(w)
	setFix(w)
	_ = w.Next(ctx)
	_ = w.Next(ctx)
	_ = w.Next(ctx)
	if w.Step() != StepProviders {
		t.Fatalf("setup: expected providers, got %s", w.Step())
	}
	if err := w.Back(); !errors.Is(err, ErrCannotGoBack) {
		t.Fatalf("terminal step: expected ErrCannotGoBack, got %v", err)
	}
}

func TestRefreshRerunsLookupOnly(t *testing.T) {
	ctx := context.Background()
	creator := &fakeCreator{ref: models.SubmittedRequestRef{ID: "r"}}
	finder := &fakeFinder{providers: []models.ProviderCandidate{{ID: "a", DistanceKm: 1}}}
	w := newTestWizard(creator, finder)

	if err := w.RefreshResults(ctx); !errors.Is(err, ErrNotAtResults) {
		t.Fatalf("refresh before results: expected ErrNotAtResults, got %v", err)
	}

	fill(w)
	setFix(w)
	_ = w.Next(ctx)
	_ = w.Next(ctx)
	_ = w.Next(ctx)

	finder.providers = []models.ProviderCandidate{
		{ID: "b", DistanceKm: 0.4},
		{ID: "a", DistanceKm: 1},
	}
	if err := w.RefreshResults(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if creator.calls != 1 {
		t.Fatalf("refresh must not re-create the request, create calls=%d", creator.calls)
	}
	if finder.calls != 2 {
		t.Fatalf("expected second lookup, got %d", finder.calls)
	}
	got := w.Providers()
	if len(got) != 2 || got[0].ID != "b" {
		t.Fatalf("expected replaced, ranked list, got %v", got)
	}
	if w.Step() != StepProviders {
		t.Fatalf("refresh must stay on providers, got %s", w.Step())
	}
}

func TestSingleFlightSubmit(t *testing.T) {
	ctx := context.Background()
	block := make(chan struct{})
	creator := &fakeCreator{ref: models.SubmittedRequestRef{ID: "r"}}
	finder := &fakeFinder{block: block, providers: []models.ProviderCandidate{{ID: "p", DistanceKm: 1}}}
	w := newTestWizard(creator, finder)
	fill(w)
	setFix(w)
	_ = w.Next(ctx)
	_ = w.Next(ctx)

	done := make(chan error, 1)
	go func() { done <- w.Next(ctx) }()
	for !w.Busy() {
		runtime.Gosched()
	}
	if err := w.RefreshResults(ctx); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy while submit in flight, got %v", err)
	}
	close(block)
	if err := <-done; err != nil {
		t.Fatalf("submit: %v", err)
	}
	if w.Busy() {
		t.Fatal("busy flag not cleared")
	}
}

func TestResetDiscardsStaleResult(t *testing.T) {
	ctx := context.Background()
	block := make(chan struct{})
	creator := &fakeCreator{ref: models.SubmittedRequestRef{ID: "stale"}}
	finder := &fakeFinder{block: block, providers: []models.ProviderCandidate{{ID: "p", DistanceKm: 1}}}
	w := newTestWizard(creator, finder)
	fill(w)
	setFix(w)
	_ = w.Next(ctx)
	_ = w.Next(ctx)

	done := make(chan error, 1)
	go func() { done <- w.Next(ctx) }()
	for !w.Busy() {
		runtime.Gosched()
	}
	w.Reset()
	close(block)
	if err := <-done; err != nil {
		t.Fatalf("superseded submit should discard silently, got %v", err)
	}
	if w.Step() != StepHelp {
		t.Fatalf("expected reset to help step, got %s", w.Step())
	}
	if w.RequestRef() != nil || len(w.Providers()) != 0 {
		t.Fatal("stale submission wrote its result after reset")
	}
	if (w.Draft() != models.HelpRequestDraft{}) {
		t.Fatalf("draft not cleared: %+v", w.Draft())
	}
}

package geoloc

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/motorambos/internal/models"
)

type fakeSource struct {
	perm      Permission
	permErr   error
	fix       models.GeoFix
	posErr    error
	posCalls  int
	sawMaxAge time.Duration
}

func (f *fakeSource) Permission(ctx context.Context) (Permission, error) {
	return f.perm, f.permErr
}

func (f *fakeSource) Position(ctx context.Context, opts Options) (models.GeoFix, error) {
	f.posCalls++
	f.sawMaxAge = opts.MaxAge
	if f.posErr != nil {
		return models.GeoFix{}, f.posErr
	}
	return f.fix, nil
}

type codedErr struct{ code int }

func (c codedErr) Error() string          { return "platform error" }
func (c codedErr) PositionErrorCode() int { return c.code }

func TestCheckPermissionNeverFails(t *testing.T) {
	a := New(&fakeSource{permErr: errors.New("boom")})
	if p := a.CheckPermission(context.Background()); p != PermissionUnknown {
		t.Fatalf("expected unknown, got %s", p)
	}
	a = New(&fakeSource{perm: PermissionGranted})
	if p := a.CheckPermission(context.Background()); p != PermissionGranted {
		t.Fatalf("expected granted, got %s", p)
	}
	a = New(nil)
	if p := a.CheckPermission(context.Background()); p != PermissionUnknown {
		t.Fatalf("expected unknown for nil source, got %s", p)
	}
}

func TestAcquireFixDemandsFreshReading(t *testing.T) {
	src := &fakeSource{fix: models.GeoFix{Lat: 5.6, Lon: -0.18}}
	a := New(src)
	fix, err := a.AcquireFix(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if src.sawMaxAge != 0 {
		t.Fatalf("expected max age 0, got %v", src.sawMaxAge)
	}
	if fix.CapturedAt.IsZero() {
		t.Fatal("expected captured-at to be stamped")
	}
	if src.posCalls != 1 {
		t.Fatalf("expected single-shot read, got %d calls", src.posCalls)
	}
}

func TestAcquireFixClassification(t *testing.T) {
	cases := []struct {
		err  error
		kind ErrorKind
	}{
		{codedErr{code: 1}, KindPermissionDenied},
		{codedErr{code: 2}, KindPositionUnavailable},
		{codedErr{code: 3}, KindTimeout},
		{context.DeadlineExceeded, KindTimeout},
		{ErrUnsupported, KindUnsupported},
		{errors.New("weird"), KindOther},
	}
	for _, c := range cases {
		a := New(&fakeSource{posErr: c.err})
		_, err := a.AcquireFix(context.Background())
		var le *Error
		if !errors.As(err, &le) {
			t.Fatalf("%v: expected *Error, got %T", c.err, err)
		}
		if le.Kind != c.kind {
			t.Errorf("%v: expected kind %s, got %s", c.err, c.kind, le.Kind)
		}
	}
}

func TestOtherKindCarriesMessage(t *testing.T) {
	a := New(&fakeSource{posErr: errors.New("strange failure")})
	_, err := a.AcquireFix(context.Background())
	var le *Error
	if !errors.As(err, &le) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if le.Message != "strange failure" {
		t.Fatalf("expected raw message preserved, got %q", le.Message)
	}
}

func TestRemediable(t *testing.T) {
	if (&Error{Kind: KindPermissionDenied}).Remediable() {
		t.Fatal("denied permission should not be retryable as-is")
	}
	if !(&Error{Kind: KindTimeout}).Remediable() {
		t.Fatal("timeout should be retryable")
	}
}

func TestNilSourceIsUnsupported(t *testing.T) {
	a := New(nil)
	_, err := a.AcquireFix(context.Background())
	var le *Error
	if !errors.As(err, &le) || le.Kind != KindUnsupported {
		t.Fatalf("expected unsupported, got %v", err)
	}
}

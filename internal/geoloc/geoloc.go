package geoloc

import (
	"context"
	"errors"
	"time"

	"github.com/example/motorambos/internal/models"
)

// Permission is the best-effort answer to "may we read the location?".
type Permission string

const (
	PermissionGranted Permission = "granted"
	PermissionPrompt  Permission = "prompt"
	PermissionDenied  Permission = "denied"
	PermissionUnknown Permission = "unknown"
)

// Options controls a single position read.
type Options struct {
	Timeout      time.Duration
	MaxAge       time.Duration // 0 demands a fresh reading
	HighAccuracy bool
}

// Source abstracts the platform location capability so tests and
// alternative platforms can be injected.
type Source interface {
	// Permission reports the current permission state. Implementations
	// that cannot answer should return an error; the acquirer maps it
	// to PermissionUnknown.
	Permission(ctx context.Context) (Permission, error)
	// Position performs one position read honoring the options.
	Position(ctx context.Context, opts Options) (models.GeoFix, error)
}

// DefaultTimeout bounds a single acquisition.
const DefaultTimeout = 15 * time.Second

// Acquirer wraps a Source with the single-shot acquisition policy:
// bounded wait, no cached fixes, errors classified once at this
// boundary. It never triggers a read on its own; AcquireFix must be the
// result of an explicit user action.
type Acquirer struct {
	src     Source
	timeout time.Duration
}

func New(src Source) *Acquirer {
	return &Acquirer{src: src, timeout: DefaultTimeout}
}

// CheckPermission probes the permission state. It never fails the
// caller: any probe error collapses to PermissionUnknown.
func (a *Acquirer) CheckPermission(ctx context.Context) Permission {
	if a.src == nil {
		return PermissionUnknown
	}
	p, err := a.src.Permission(ctx)
	if err != nil || p == "" {
		return PermissionUnknown
	}
	return p
}

// AcquireFix performs one fresh position read. The returned error, if
// any, is always a *Error from the closed taxonomy.
func (a *Acquirer) AcquireFix(ctx context.Context) (models.GeoFix, error) {
	if a.src == nil {
		return models.GeoFix{}, &Error{Kind: KindUnsupported, Message: "no location source available"}
	}
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	fix, err := a.src.Position(ctx, Options{Timeout: a.timeout, MaxAge: 0, HighAccuracy: true})
	if err != nil {
		return models.GeoFix{}, Classify(err)
	}
	if fix.CapturedAt.IsZero() {
		fix.CapturedAt = time.Now()
	}
	return fix, nil
}

// ErrUnsupported is what a Source returns when the platform has no
// location capability at all.
var ErrUnsupported = errors.New("geolocation unsupported")

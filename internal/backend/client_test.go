package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/example/motorambos/internal/models"
)

func draft() models.HelpRequestDraft {
	return models.HelpRequestDraft{
		HelpType: models.HelpBattery,
		Vehicle:  models.Vehicle{Make: "Toyota", Model: "Corolla", Year: "2018", Color: "Silver", Plate: "GR-1234-24"},
		Contact:  models.Contact{FullName: "Ama", Phone: "+233551234567"},
	}
}

func TestCreateRequestMapsServiceCode(t *testing.T) {
	var got createRequestPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/requests" || r.Method != http.MethodPost {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_ = json.NewEncoder(w).Encode(models.SubmittedRequestRef{ID: "req-1"})
	}))
	defer srv.Close()

	c := New(srv.URL)
	ref, err := c.CreateRequest(context.Background(), draft(), models.GeoFix{Lat: 5.6, Lon: -0.18})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if ref.ID != "req-1" {
		t.Fatalf("expected req-1, got %q", ref.ID)
	}
	if got.Service != "battery-jumpstart" {
		t.Fatalf("help type not mapped to service code: %q", got.Service)
	}
	if got.Status != "pending" {
		t.Fatalf("expected pending status, got %q", got.Status)
	}
	if got.Lat != 5.6 || got.Lon != -0.18 {
		t.Fatalf("fix not forwarded: %f,%f", got.Lat, got.Lon)
	}
	if got.Details == "" {
		t.Fatal("vehicle description missing from details")
	}
}

func TestNearbyProvidersQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("help_type") != "tow" || q.Get("lat") == "" || q.Get("lon") == "" {
			t.Errorf("bad query: %s", r.URL.RawQuery)
		}
		_ = json.NewEncoder(w).Encode([]models.ProviderCandidate{{ID: "p1", DistanceKm: 2.5}})
	}))
	defer srv.Close()

	c := New(srv.URL)
	out, err := c.NearbyProviders(context.Background(), models.HelpTow, 5.6, -0.18)
	if err != nil {
		t.Fatalf("nearby: %v", err)
	}
	if len(out) != 1 || out[0].ID != "p1" {
		t.Fatalf("unexpected result: %v", out)
	}
}

func TestNon2xxIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New(srv.URL)
	if _, err := c.NearbyProviders(context.Background(), models.HelpTow, 1, 1); err == nil {
		t.Fatal("expected error for 502")
	}
	if err := c.SubmitReview(context.Background(), models.ReviewDraft{TargetRequestID: "r"}); err == nil {
		t.Fatal("expected error for 502")
	}
}

func TestReviewContextBestEffortShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/reviews/req-1/context" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"provider_name":"Kwame Auto","service_name":"Towing"}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	rc, err := c.ReviewContext(context.Background(), "req-1")
	if err != nil {
		t.Fatalf("context: %v", err)
	}
	if rc.ProviderName != "Kwame Auto" || rc.ServiceName != "Towing" {
		t.Fatalf("unexpected context: %+v", rc)
	}
}

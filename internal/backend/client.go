// Package backend is the JSON-over-HTTP client for the help-request
// collaborators: request creation, provider lookup, review submission
// and review display context. The wizard only sees the interfaces in
// internal/wizard; this client is one way to satisfy them.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/example/motorambos/internal/models"
	"github.com/example/motorambos/internal/wizard"
)

type Client struct {
	base   string
	client *http.Client
}

func New(base string) *Client {
	return &Client{base: strings.TrimRight(base, "/"), client: &http.Client{Timeout: 10 * time.Second}}
}

// serviceCode maps a help type onto the backend's service identifier.
// The mapping belongs here, with the collaborator, not in the wizard.
var serviceCode = map[models.HelpType]string{
	models.HelpBattery: "battery-jumpstart",
	models.HelpTire:    "tire-change",
	models.HelpOil:     "oil-topup",
	models.HelpTow:     "towing",
	models.HelpRescue:  "rescue",
	models.HelpFuel:    "fuel-delivery",
}

type createRequestPayload struct {
	Service    string  `json:"service"`
	HelpType   string  `json:"help_type"`
	DriverName string  `json:"driver_name"`
	Phone      string  `json:"phone"`
	Details    string  `json:"details,omitempty"`
	Address    string  `json:"address,omitempty"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
	Status     string  `json:"status"`
}

func (c *Client) CreateRequest(ctx context.Context, draft models.HelpRequestDraft, fix models.GeoFix) (models.SubmittedRequestRef, error) {
	payload := createRequestPayload{
		Service:    serviceCode[draft.HelpType],
		HelpType:   string(draft.HelpType),
		DriverName: draft.Contact.FullName,
		Phone:      draft.Contact.Phone,
		Details:    requestDetails(draft),
		Address:    draft.Address,
		Lat:        fix.Lat,
		Lon:        fix.Lon,
		Status:     "pending",
	}
	var out models.SubmittedRequestRef
	if err := c.post(ctx, "/api/v1/requests", payload, &out); err != nil {
		return models.SubmittedRequestRef{}, err
	}
	return out, nil
}

// requestDetails folds the vehicle description into the free-text
// details field the backend expects.
func requestDetails(d models.HelpRequestDraft) string {
	v := d.Vehicle
	desc := fmt.Sprintf("%s %s %s, %s, plate %s", v.Color, v.Make, v.Model, v.Year, v.Plate)
	if d.Details == "" {
		return desc
	}
	return desc + " — " + d.Details
}

func (c *Client) NearbyProviders(ctx context.Context, helpType models.HelpType, lat, lon float64) ([]models.ProviderCandidate, error) {
	q := url.Values{}
	q.Set("help_type", string(helpType))
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	var out []models.ProviderCandidate
	if err := c.get(ctx, "/api/v1/providers/nearby?"+q.Encode(), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) SubmitReview(ctx context.Context, draft models.ReviewDraft) error {
	payload := map[string]any{
		"request_id":     draft.TargetRequestID,
		"rating":         draft.StarRating,
		"review_text":    draft.WrittenReview,
		"reviewer_phone": draft.ReviewerPhone,
		"outcome":        draft.Outcome,
	}
	return c.post(ctx, "/api/v1/reviews", payload, nil)
}

func (c *Client) ReviewContext(ctx context.Context, requestID string) (wizard.ReviewContext, error) {
	var out struct {
		ProviderName string `json:"provider_name"`
		ServiceName  string `json:"service_name"`
	}
	if err := c.get(ctx, "/api/v1/reviews/"+url.PathEscape(requestID)+"/context", &out); err != nil {
		return wizard.ReviewContext{}, err
	}
	return wizard.ReviewContext{ProviderName: out.ProviderName, ServiceName: out.ServiceName}, nil
}

func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, http.NoBody)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("backend %s %s: status %d: %s", req.Method, req.URL.Path, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

package models

import "time"

// HelpType enumerates the kinds of roadside assistance a driver can request.
type HelpType string

const (
	HelpBattery HelpType = "battery"
	HelpTire    HelpType = "tire"
	HelpOil     HelpType = "oil"
	HelpTow     HelpType = "tow"
	HelpRescue  HelpType = "rescue"
	HelpFuel    HelpType = "fuel"
)

// HelpTypes lists every valid help type in display order.
var HelpTypes = []HelpType{HelpBattery, HelpTire, HelpOil, HelpTow, HelpRescue, HelpFuel}

// Valid reports whether t is one of the enumerated help types.
func (t HelpType) Valid() bool {
	switch t {
	case HelpBattery, HelpTire, HelpOil, HelpTow, HelpRescue, HelpFuel:
		return true
	}
	return false
}

type Coord struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// GeoFix is a single captured location reading. It is immutable: a
// refresh replaces the whole value, never patches it.
type GeoFix struct {
	Lat            float64   `json:"lat"`
	Lon            float64   `json:"lon"`
	AccuracyMeters float64   `json:"accuracy_meters,omitempty"`
	CapturedAt     time.Time `json:"captured_at"`
}

type Vehicle struct {
	Make  string `json:"make"`
	Model string `json:"model"`
	Year  string `json:"year"` // 4-digit string
	Color string `json:"color"`
	Plate string `json:"plate"`
}

type Contact struct {
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
}

// HelpRequestDraft is built incrementally across the wizard steps and
// discarded once submitted or abandoned.
type HelpRequestDraft struct {
	HelpType HelpType `json:"help_type"`
	Vehicle  Vehicle  `json:"vehicle"`
	Contact  Contact  `json:"contact"`
	Details  string   `json:"details,omitempty"`
	Address  string   `json:"address,omitempty"`
}

// SubmittedRequestRef is the opaque acknowledgement of a created request.
type SubmittedRequestRef struct {
	ID string `json:"id"`
}

type OfferedService struct {
	Code  string  `json:"code"`
	Name  string  `json:"name"`
	Price float64 `json:"price,omitempty"`
	Unit  string  `json:"unit,omitempty"`
}

// ProviderCandidate is a nearby provider as returned by a lookup. The
// list it arrives in is replaced wholesale on every lookup; candidates
// are never mutated by the wizard.
type ProviderCandidate struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	Phone           string           `json:"phone"`
	DistanceKm      float64          `json:"distance_km"`
	Rating          *float64         `json:"rating,omitempty"` // 0..5, nil when unrated
	JobsCompleted   int              `json:"jobs_completed,omitempty"`
	MinCalloutFee   float64          `json:"min_callout_fee,omitempty"`
	CoverageKm      float64          `json:"coverage_km,omitempty"`
	OfferedServices []OfferedService `json:"offered_services,omitempty"`
	Loc             Coord            `json:"loc"`
}

// RatingOrZero returns the rating, treating an absent rating as zero
// for ordering purposes.
func (p ProviderCandidate) RatingOrZero() float64 {
	if p.Rating == nil {
		return 0
	}
	return *p.Rating
}

// ReviewDraft is the post-service review being composed.
type ReviewDraft struct {
	TargetRequestID string `json:"target_request_id"`
	StarRating      int    `json:"star_rating"` // 1..5
	WrittenReview   string `json:"written_review"`
	ReviewerPhone   string `json:"reviewer_phone,omitempty"`
	Outcome         string `json:"outcome,omitempty"`
}

// HelpRequest is the persisted server-side record of a submitted request.
type HelpRequest struct {
	ID         string
	HelpType   HelpType
	DriverName string
	Phone      string
	Details    string
	Address    string
	Loc        Coord
	ProviderID string
	Status     string // pending, accepted, completed, canceled
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Provider is the server-side provider record fed into the geo index.
type Provider struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	Phone         string           `json:"phone"`
	Loc           Coord            `json:"loc"`
	Rating        float64          `json:"rating"` // 0..5
	JobsCompleted int              `json:"jobs_completed"`
	MinCalloutFee float64          `json:"min_callout_fee"`
	CoverageKm    float64          `json:"coverage_km"`
	Services      []OfferedService `json:"services"`
	Online        bool             `json:"online"`
	Updated       time.Time        `json:"updated"`
}

// Review is the persisted review record.
type Review struct {
	RequestID     string
	Rating        int
	Text          string
	ReviewerPhone string
	Outcome       string
	CreatedAt     time.Time
}

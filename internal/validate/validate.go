package validate

import (
	"regexp"
	"strings"

	"github.com/example/motorambos/internal/models"
)

// FieldError is a single field-level validation message. Validation
// problems never surface as toasts or panics; callers render them next
// to the offending field and disable forward navigation.
type FieldError struct {
	Field   string
	Message string
}

var (
	yearRe  = regexp.MustCompile(`^\d{4}$`)
	phoneRe = regexp.MustCompile(`^[\d+\-\s()]{7,}$`)
)

// HelpStep validates the help-type selection step.
func HelpStep(d models.HelpRequestDraft) []FieldError {
	if !d.HelpType.Valid() {
		return []FieldError{{Field: "help_type", Message: "select the kind of help you need"}}
	}
	return nil
}

// VehicleStep validates the vehicle descriptor step.
func VehicleStep(d models.HelpRequestDraft) []FieldError {
	var errs []FieldError
	v := d.Vehicle
	if len(strings.TrimSpace(v.Make)) < 2 {
		errs = append(errs, FieldError{Field: "make", Message: "make must be at least 2 characters"})
	}
	if len(strings.TrimSpace(v.Model)) < 1 {
		errs = append(errs, FieldError{Field: "model", Message: "model is required"})
	}
	if !yearRe.MatchString(v.Year) {
		errs = append(errs, FieldError{Field: "year", Message: "year must be 4 digits"})
	}
	if len(strings.TrimSpace(v.Color)) < 2 {
		errs = append(errs, FieldError{Field: "color", Message: "color must be at least 2 characters"})
	}
	if len(strings.TrimSpace(v.Plate)) < 2 {
		errs = append(errs, FieldError{Field: "plate", Message: "plate number must be at least 2 characters"})
	}
	return errs
}

// ContactStep validates the contact step. A location fix is part of the
// step's gate: without one the request cannot be submitted.
func ContactStep(d models.HelpRequestDraft, fix *models.GeoFix) []FieldError {
	var errs []FieldError
	if len(strings.TrimSpace(d.Contact.FullName)) < 2 {
		errs = append(errs, FieldError{Field: "full_name", Message: "name must be at least 2 characters"})
	}
	if !phoneRe.MatchString(d.Contact.Phone) {
		errs = append(errs, FieldError{Field: "phone", Message: "enter a valid phone number"})
	}
	if fix == nil {
		errs = append(errs, FieldError{Field: "location", Message: "share your location so providers can find you"})
	}
	return errs
}

// RatingStep validates the star-rating step of the review flow.
func RatingStep(d models.ReviewDraft) []FieldError {
	if d.StarRating < 1 || d.StarRating > 5 {
		return []FieldError{{Field: "star_rating", Message: "pick a rating from 1 to 5"}}
	}
	return nil
}

// ReviewStep validates the written-review step.
func ReviewStep(d models.ReviewDraft) []FieldError {
	if len(d.WrittenReview) <= 5 {
		return []FieldError{{Field: "written_review", Message: "tell us a bit more about the service"}}
	}
	return nil
}

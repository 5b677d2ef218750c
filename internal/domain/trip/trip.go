package trip

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

var (
	ErrNotFound   = errors.New("trip not found")
	ErrEmptyPatch = errors.New("no fields to update")
)

// Field limits shared by create (binding tags on CreateTripRequest) and
// update (UpdateTripRequest.Patch). Lengths count runes, like validator's max.
const (
	MaxTitleLen         = 200
	MaxDescriptionLen   = 2000
	MaxDestinations     = 100
	MaxDestinationIDLen = 64
)

// Trip is an itinerary owned by exactly one user. Destinations hold catalog
// ids as given; they are not checked against the catalog.
type Trip struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Title        string    `json:"title"`
	Description  *string   `json:"description"`
	StartDate    Date      `json:"start_date"`
	EndDate      Date      `json:"end_date"`
	Destinations []string  `json:"destinations"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type CreateTripRequest struct {
	Title        string   `json:"title" binding:"required,notblank,max=200"`
	Description  *string  `json:"description" binding:"omitempty,max=2000"`
	StartDate    string   `json:"start_date" binding:"required,calendar_date"`
	EndDate      string   `json:"end_date" binding:"required,calendar_date"`
	Destinations []string `json:"destinations" binding:"omitempty,max=100,dive,required,max=64"`
}

// NewTrip is the storage-ready form of a create request.
type NewTrip struct {
	UserID       string
	Title        string
	Description  *string
	StartDate    Date
	EndDate      Date
	Destinations []string
}

func (r CreateTripRequest) ToNewTrip(ownerID string) (NewTrip, error) {
	start, err := ParseDate(r.StartDate)
	if err != nil {
		return NewTrip{}, err
	}

	end, err := ParseDate(r.EndDate)
	if err != nil {
		return NewTrip{}, err
	}

	dests := r.Destinations
	if dests == nil {
		dests = []string{}
	}

	var desc *string
	if r.Description != nil && *r.Description != "" {
		d := *r.Description
		desc = &d
	}

	return NewTrip{
		UserID:       ownerID,
		Title:        r.Title,
		Description:  desc,
		StartDate:    start,
		EndDate:      end,
		Destinations: dests,
	}, nil
}

// UpdateTripRequest is the PUT body. Only present fields are applied.
type UpdateTripRequest struct {
	Title        Optional[string]   `json:"title"`
	Description  Optional[string]   `json:"description"`
	StartDate    Optional[string]   `json:"start_date"`
	EndDate      Optional[string]   `json:"end_date"`
	Destinations Optional[[]string] `json:"destinations"`
}

// Patch is a validated partial update. Nil fields are left untouched.
type Patch struct {
	Title        *string
	Description  Optional[*string]
	StartDate    *Date
	EndDate      *Date
	Destinations *[]string
}

func (p Patch) IsEmpty() bool {
	return p.Title == nil && !p.Description.Set && p.StartDate == nil && p.EndDate == nil && p.Destinations == nil
}

// FieldError describes one rejected field of a request body.
type FieldError struct {
	Field   string
	Rule    string
	Message string
}

// Patch validates the request and converts it. An empty patch with no
// field errors means the body named no updatable field.
func (r UpdateTripRequest) Patch() (Patch, []FieldError) {
	var p Patch
	var errs []FieldError

	if r.Title.Set {
		switch {
		case r.Title.Null || strings.TrimSpace(r.Title.Value) == "":
			errs = append(errs, FieldError{Field: "title", Rule: "required", Message: "Title cannot be empty"})
		case utf8.RuneCountInString(r.Title.Value) > MaxTitleLen:
			errs = append(errs, tooLong("title", "Title", MaxTitleLen))
		default:
			t := r.Title.Value
			p.Title = &t
		}
	}

	if r.Description.Set {
		switch {
		case r.Description.Null:
			p.Description.Set = true
		case utf8.RuneCountInString(r.Description.Value) > MaxDescriptionLen:
			errs = append(errs, tooLong("description", "Description", MaxDescriptionLen))
		default:
			d := r.Description.Value
			p.Description = Optional[*string]{Set: true, Value: &d}
		}
	}

	if r.StartDate.Set {
		d, err := ParseDate(r.StartDate.Value)
		if r.StartDate.Null || err != nil {
			errs = append(errs, FieldError{Field: "start_date", Rule: "calendar_date", Message: "Valid start date required"})
		} else {
			p.StartDate = &d
		}
	}

	if r.EndDate.Set {
		d, err := ParseDate(r.EndDate.Value)
		if r.EndDate.Null || err != nil {
			errs = append(errs, FieldError{Field: "end_date", Rule: "calendar_date", Message: "Valid end date required"})
		} else {
			p.EndDate = &d
		}
	}

	if r.Destinations.Set {
		if fe := checkDestinationIDs(r.Destinations.Value); len(fe) > 0 {
			errs = append(errs, fe...)
		} else {
			dests := r.Destinations.Value
			if dests == nil {
				dests = []string{}
			}
			p.Destinations = &dests
		}
	}

	return p, errs
}

func tooLong(field, label string, limit int) FieldError {
	n := strconv.Itoa(limit)
	return FieldError{Field: field, Rule: "max", Message: label + " must be at most " + n}
}

func checkDestinationIDs(ids []string) []FieldError {
	if len(ids) > MaxDestinations {
		return []FieldError{tooLong("destinations", "Destinations", MaxDestinations)}
	}

	var errs []FieldError
	for i, id := range ids {
		field := fmt.Sprintf("destinations[%d]", i)
		switch {
		case id == "":
			errs = append(errs, FieldError{Field: field, Rule: "required", Message: "Destination id is required"})
		case utf8.RuneCountInString(id) > MaxDestinationIDLen:
			errs = append(errs, tooLong(field, "Destination id", MaxDestinationIDLen))
		}
	}
	return errs
}

// Apply returns t with the patch applied. Used by stores that cannot
// express the update as a single statement.
func (p Patch) Apply(t Trip, now time.Time) Trip {
	if p.Title != nil {
		t.Title = *p.Title
	}

	if p.Description.Set {
		t.Description = p.Description.Value
	}

	if p.StartDate != nil {
		t.StartDate = *p.StartDate
	}

	if p.EndDate != nil {
		t.EndDate = *p.EndDate
	}

	if p.Destinations != nil {
		t.Destinations = append([]string{}, (*p.Destinations)...)
	}

	t.UpdatedAt = now

	return t
}

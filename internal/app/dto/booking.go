package dto

import (
	"time"

	domainbooking "rentdesk/internal/domain/booking"
)

type Payment struct {
	Kind        string `json:"kind"`
	Category    string `json:"category"`
	DueAt       string `json:"due_at"`
	Label       string `json:"label"`
	AmountUnits int64  `json:"amount_units"`
}

type Booking struct {
	ID          string    `json:"id"`
	PropertyID  string    `json:"property_id"`
	GuestName   string    `json:"guest_name"`
	GuestEmail  string    `json:"guest_email"`
	State       string    `json:"state"`
	NeedsReview bool      `json:"needs_review"`
	Quote       Quote     `json:"quote"`
	Payments    []Payment `json:"payments"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Version     int64     `json:"version"`
}

func MapBooking(b *domainbooking.Booking) Booking {
	out := Booking{
		ID:          string(b.ID),
		PropertyID:  string(b.PropertyID),
		GuestName:   b.GuestName,
		GuestEmail:  b.GuestEmail,
		State:       string(b.State),
		NeedsReview: b.NeedsReview,
		Quote:       MapQuote(string(b.PropertyID), b.Quote, 0),
		Payments:    make([]Payment, 0, len(b.Payments)),
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
		Version:     b.Version,
	}
	for _, p := range b.Payments {
		out.Payments = append(out.Payments, Payment{
			Kind:        string(p.Kind),
			Category:    string(p.Category),
			DueAt:       p.DueAt.String(),
			Label:       p.Label,
			AmountUnits: p.Amount.Units(),
		})
	}
	return out
}

type BookingRequested struct {
	BookingID string `json:"booking_id"`
	Quote     Quote  `json:"quote"`
}

type RecomputeResult struct {
	BookingID string  `json:"booking_id"`
	Status    string  `json:"status"`
	Drift     []Drift `json:"drift"`
}

type RecomputeSummary struct {
	Scanned   int               `json:"scanned"`
	Unchanged int               `json:"unchanged"`
	Updated   int               `json:"updated"`
	Drifted   int               `json:"drifted"`
	Failed    int               `json:"failed"`
	Results   []RecomputeResult `json:"results"`
}

type Lease struct {
	BookingID string `json:"booking_id"`
	Key       string `json:"key"`
	URL       string `json:"url"`
}

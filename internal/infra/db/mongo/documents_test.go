package mongo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	domainbooking "rentdesk/internal/domain/booking"
	"rentdesk/internal/domain/pricing"
	domainproperty "rentdesk/internal/domain/property"
	"rentdesk/internal/domain/shared/calendar"
	"rentdesk/internal/domain/shared/daterange"
	"rentdesk/internal/domain/shared/money"
)

var at = time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)

func TestPropertyDocumentKeepsOverrides(t *testing.T) {
	day := calendar.MustParse("2024-02-14")
	blocked := calendar.MustParse("2024-02-15")
	p, err := domainproperty.New(domainproperty.CreateParams{
		ID:          "loft-1",
		Title:       "Harbor Loft",
		MonthlyRate: money.MustUnits(3000, "USD"),
		Overrides:   pricing.Overrides{day: pricing.Price(day, 120), blocked: pricing.Block(blocked)},
		Now:         at,
	})
	require.NoError(t, err)

	raw, err := bson.Marshal(newPropertyDocument(p))
	require.NoError(t, err)
	var doc propertyDocument
	require.NoError(t, bson.Unmarshal(raw, &doc))
	assert.Contains(t, doc.Overrides, "2024-02-14")

	back, err := doc.toAggregate()
	require.NoError(t, err)
	assert.Equal(t, p.MonthlyRate, back.MonthlyRate)
	require.Len(t, back.Overrides, 2)
	assert.True(t, back.Overrides[blocked].Blocked())
	assert.Equal(t, int64(120), *back.Overrides[day].PriceNight)
}

func TestBookingDocumentPreservesQuote(t *testing.T) {
	stay, err := daterange.Parse("2024-01-10", "2024-04-10")
	require.NoError(t, err)
	q, err := pricing.Compute(pricing.Request{MonthlyRate: money.MustUnits(3000, "USD"), CheckIn: stay.CheckIn, CheckOut: stay.CheckOut})
	require.NoError(t, err)
	b, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID: "bk-1", PropertyID: "loft-1", GuestName: "Ada", GuestEmail: "ada@example.com",
		Range: stay, Quote: q, CreatedAt: at,
	})
	require.NoError(t, err)

	raw, err := bson.Marshal(newBookingDocument(b))
	require.NoError(t, err)
	var doc bookingDocument
	require.NoError(t, bson.Unmarshal(raw, &doc))
	back, err := doc.toAggregate()
	require.NoError(t, err)

	assert.Empty(t, pricing.Diff(b.Quote, back.Quote))
	assert.Equal(t, b.Payments, back.Payments)
	assert.Equal(t, b.Range, back.Range)
	assert.Equal(t, domainbooking.StateRequested, back.State)
}

func TestBookingDocumentRejectsCorruptDates(t *testing.T) {
	doc := bookingDocument{ID: "bk-9", CheckIn: "2024-02-30", CheckOut: "2024-03-01"}
	_, err := doc.toAggregate()
	assert.ErrorIs(t, err, calendar.ErrInvalidDate)
}

package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentdesk/internal/app/commands"
	"rentdesk/internal/app/dto"
	"rentdesk/internal/app/handlers/bookings"
	"rentdesk/internal/app/handlers/lease"
	"rentdesk/internal/app/handlers/properties"
	"rentdesk/internal/app/handlers/quotes"
	"rentdesk/internal/app/middleware"
	"rentdesk/internal/app/queries"
	"rentdesk/internal/app/service"
	"rentdesk/internal/app/validation"
	domainbooking "rentdesk/internal/domain/booking"
	"rentdesk/internal/domain/pricing"
	domainproperty "rentdesk/internal/domain/property"
	"rentdesk/internal/domain/shared/calendar"
	"rentdesk/internal/domain/shared/money"
	"rentdesk/internal/infra/storage/memory"
)

var fixedNow = time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)

type fakeArchive struct {
	mu   sync.Mutex
	docs map[string][]byte
}

func (a *fakeArchive) Put(_ context.Context, key string, body []byte, _ string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.docs == nil {
		a.docs = make(map[string][]byte)
	}
	a.docs[key] = body
	return "mem://" + key, nil
}

type harness struct {
	svc     *service.Service
	store   *memory.Store
	archive *fakeArchive
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := memory.NewStore(time.Hour)
	archive := &fakeArchive{}
	svc, err := service.New(service.Deps{
		UoW:         store.Factory(),
		Archive:     archive,
		Idempotency: store.Idempotency,
		Clock:       func() time.Time { return fixedNow },
	})
	require.NoError(t, err)

	p, err := domainproperty.New(domainproperty.CreateParams{
		ID:          "loft-1",
		Title:       "Harbor Loft",
		Address:     "1 Pier Rd",
		MonthlyRate: money.MustUnits(3000, "USD"),
		Now:         fixedNow,
	})
	require.NoError(t, err)
	p.ClearEvents()
	require.NoError(t, store.Properties.Save(context.Background(), p))
	return &harness{svc: svc, store: store, archive: archive}
}

func admin() context.Context {
	return middleware.WithPrincipal(context.Background(), middleware.PrincipalAdmin)
}

func (h *harness) request(t *testing.T, key string) *dto.BookingRequested {
	t.Helper()
	res, err := commands.Dispatch[bookings.RequestBookingCommand, *dto.BookingRequested](context.Background(), h.svc.Commands, bookings.RequestBookingCommand{
		PropertyID:      "loft-1",
		GuestName:       "Ada Guest",
		GuestEmail:      "ada@example.com",
		CheckIn:         "2024-01-10",
		CheckOut:        "2024-04-10",
		IdempotencyKeyV: key,
	})
	require.NoError(t, err)
	return res
}

func (h *harness) setOverrides(t *testing.T, overrides pricing.Overrides) {
	t.Helper()
	_, err := commands.Dispatch[properties.UpdateOverridesCommand, *dto.OverridesUpdate](admin(), h.svc.Commands, properties.UpdateOverridesCommand{
		PropertyID: "loft-1",
		Overrides:  overrides,
	})
	require.NoError(t, err)
}

func TestNewRequiresStores(t *testing.T) {
	_, err := service.New(service.Deps{})
	assert.ErrorIs(t, err, service.ErrMissingDeps)
}

func TestRegistersEveryOperation(t *testing.T) {
	h := newHarness(t)
	assert.ElementsMatch(t, []string{
		bookings.RequestBookingKey,
		bookings.RecomputeTotalsKey,
		bookings.RecomputeAllKey,
		bookings.CancelBookingKey,
		properties.UpdateOverridesKey,
		lease.GenerateLeaseKey,
	}, h.svc.CommandKeys)
	assert.ElementsMatch(t, []string{
		quotes.PreviewQuoteKey,
		properties.GetCalendarKey,
		properties.GetPropertyKey,
		bookings.GetBookingKey,
	}, h.svc.QueryKeys)
}

func TestPreviewQuote(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	q, err := queries.Ask[quotes.PreviewQuoteQuery, dto.Quote](ctx, h.svc.Queries, quotes.PreviewQuoteQuery{
		PropertyID: "loft-1",
		CheckIn:    "2024-01-10",
		CheckOut:   "2024-04-10",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2200), q.FirstPeriodUnits)
	assert.Equal(t, int64(250), q.MoveInFeeUnits)
	assert.Equal(t, int64(3000), q.DepositUnits)
	assert.Equal(t, int64(5450), q.TotalDueNowUnits)
	assert.Equal(t, int64(6900), q.ScheduleTotalUnits)
	assert.Equal(t, 3, q.ScheduleLength)

	t.Run("malformed dates fail validation", func(t *testing.T) {
		_, err := queries.Ask[quotes.PreviewQuoteQuery, dto.Quote](ctx, h.svc.Queries, quotes.PreviewQuoteQuery{
			PropertyID: "loft-1",
			CheckIn:    "2024-13-01",
			CheckOut:   "2024-04-10",
		})
		assert.ErrorIs(t, err, validation.ErrInvalid)
	})

	t.Run("blocked night is unavailable", func(t *testing.T) {
		day := calendar.MustParse("2024-02-14")
		h.setOverrides(t, pricing.Overrides{day: pricing.Block(day)})
		_, err := queries.Ask[quotes.PreviewQuoteQuery, dto.Quote](ctx, h.svc.Queries, quotes.PreviewQuoteQuery{
			PropertyID: "loft-1",
			CheckIn:    "2024-01-10",
			CheckOut:   "2024-04-10",
		})
		assert.ErrorIs(t, err, pricing.ErrUnavailable)
	})
}

func TestCalendarShowsOverrides(t *testing.T) {
	h := newHarness(t)
	blocked := calendar.MustParse("2024-02-02")
	priced := calendar.MustParse("2024-02-03")
	h.setOverrides(t, pricing.Overrides{blocked: pricing.Block(blocked), priced: pricing.Price(priced, 180)})

	cal, err := queries.Ask[properties.GetCalendarQuery, dto.Calendar](context.Background(), h.svc.Queries, properties.GetCalendarQuery{
		PropertyID: "loft-1",
		From:       "2024-02-01",
		To:         "2024-02-04",
	})
	require.NoError(t, err)
	require.Len(t, cal.Nights, 3)
	assert.True(t, cal.Nights[0].Available)
	assert.False(t, cal.Nights[0].Overridden)
	assert.False(t, cal.Nights[1].Available)
	assert.True(t, cal.Nights[2].Overridden)
	require.NotNil(t, cal.Nights[2].PriceMinor)
	assert.Equal(t, int64(18000), *cal.Nights[2].PriceMinor)
}

func TestRequestBookingIsIdempotent(t *testing.T) {
	h := newHarness(t)

	first := h.request(t, "req-1")
	second := h.request(t, "req-1")
	assert.Equal(t, first.BookingID, second.BookingID)
	assert.Equal(t, int64(5450), second.Quote.TotalDueNowUnits)
	assert.Equal(t, []string{"booking.requested"}, h.store.Outbox.Names())

	got, err := queries.Ask[bookings.GetBookingQuery, dto.Booking](context.Background(), h.svc.Queries, bookings.GetBookingQuery{BookingID: first.BookingID})
	require.NoError(t, err)
	assert.Equal(t, "REQUESTED", got.State)
	assert.Len(t, got.Payments, 6)

	t.Run("key reused with another body", func(t *testing.T) {
		_, err := commands.Dispatch[bookings.RequestBookingCommand, *dto.BookingRequested](context.Background(), h.svc.Commands, bookings.RequestBookingCommand{
			PropertyID:      "loft-1",
			GuestName:       "Ada Guest",
			GuestEmail:      "ada@example.com",
			CheckIn:         "2024-01-11",
			CheckOut:        "2024-04-10",
			IdempotencyKeyV: "req-1",
		})
		assert.ErrorIs(t, err, middleware.ErrIdempotencyKeyReused)
	})
}

func TestRequestBookingReplaysKnownFailure(t *testing.T) {
	h := newHarness(t)
	day := calendar.MustParse("2024-02-14")
	h.setOverrides(t, pricing.Overrides{day: pricing.Block(day)})
	cmd := bookings.RequestBookingCommand{
		PropertyID:      "loft-1",
		GuestName:       "Ada Guest",
		GuestEmail:      "ada@example.com",
		CheckIn:         "2024-01-10",
		CheckOut:        "2024-04-10",
		IdempotencyKeyV: "req-2",
	}

	_, err := commands.Dispatch[bookings.RequestBookingCommand, *dto.BookingRequested](context.Background(), h.svc.Commands, cmd)
	require.ErrorIs(t, err, pricing.ErrUnavailable)

	_, err = commands.Dispatch[bookings.RequestBookingCommand, *dto.BookingRequested](context.Background(), h.svc.Commands, cmd)
	var replayed *middleware.ReplayedError
	assert.True(t, errors.As(err, &replayed))
	assert.ErrorIs(t, err, pricing.ErrUnavailable)
}

func TestOverridesRequireAdmin(t *testing.T) {
	h := newHarness(t)
	_, err := commands.Dispatch[properties.UpdateOverridesCommand, *dto.OverridesUpdate](context.Background(), h.svc.Commands, properties.UpdateOverridesCommand{
		PropertyID: "loft-1",
	})
	assert.ErrorIs(t, err, middleware.ErrForbidden)

	day := calendar.MustParse("2024-02-14")
	h.setOverrides(t, pricing.Overrides{day: pricing.Price(day, 250)})
	p, err := queries.Ask[properties.GetPropertyQuery, dto.Property](context.Background(), h.svc.Queries, properties.GetPropertyQuery{PropertyID: "loft-1"})
	require.NoError(t, err)
	assert.Len(t, p.Overrides, 1)
	assert.Contains(t, h.store.Outbox.Names(), "property.overrides_updated")
}

func TestRecomputeTotals(t *testing.T) {
	h := newHarness(t)
	booked := h.request(t, "")
	day := calendar.MustParse("2024-02-14")
	h.setOverrides(t, pricing.Overrides{day: pricing.Price(day, 250)})

	res, err := commands.Dispatch[bookings.RecomputeTotalsCommand, *dto.RecomputeResult](admin(), h.svc.Commands, bookings.RecomputeTotalsCommand{BookingID: booked.BookingID})
	require.NoError(t, err)
	assert.Equal(t, "drift", res.Status)
	assert.NotEmpty(t, res.Drift)

	stored, err := queries.Ask[bookings.GetBookingQuery, dto.Booking](context.Background(), h.svc.Queries, bookings.GetBookingQuery{BookingID: booked.BookingID})
	require.NoError(t, err)
	assert.True(t, stored.NeedsReview)
	assert.Equal(t, int64(2900), stored.Quote.Schedule[0].AmountUnits)
	assert.Contains(t, h.store.Outbox.Names(), "booking.quote_drift_detected")

	res, err = commands.Dispatch[bookings.RecomputeTotalsCommand, *dto.RecomputeResult](admin(), h.svc.Commands, bookings.RecomputeTotalsCommand{BookingID: booked.BookingID, Force: true})
	require.NoError(t, err)
	assert.Equal(t, "updated", res.Status)

	stored, err = queries.Ask[bookings.GetBookingQuery, dto.Booking](context.Background(), h.svc.Queries, bookings.GetBookingQuery{BookingID: booked.BookingID})
	require.NoError(t, err)
	assert.False(t, stored.NeedsReview)
	assert.Equal(t, int64(3050), stored.Quote.Schedule[0].AmountUnits)

	res, err = commands.Dispatch[bookings.RecomputeTotalsCommand, *dto.RecomputeResult](admin(), h.svc.Commands, bookings.RecomputeTotalsCommand{BookingID: booked.BookingID})
	require.NoError(t, err)
	assert.Equal(t, "unchanged", res.Status)
}

func TestRecomputeAll(t *testing.T) {
	h := newHarness(t)
	h.request(t, "a")
	h.request(t, "b")
	day := calendar.MustParse("2024-03-05")
	h.setOverrides(t, pricing.Overrides{day: pricing.Price(day, 40)})

	_, err := commands.Dispatch[bookings.RecomputeAllCommand, *dto.RecomputeSummary](context.Background(), h.svc.Commands, bookings.RecomputeAllCommand{})
	assert.ErrorIs(t, err, middleware.ErrForbidden)

	summary, err := commands.Dispatch[bookings.RecomputeAllCommand, *dto.RecomputeSummary](admin(), h.svc.Commands, bookings.RecomputeAllCommand{PropertyID: "loft-1", Force: true})
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Scanned)
	assert.Equal(t, 2, summary.Updated)
	assert.Zero(t, summary.Failed)

	summary, err = commands.Dispatch[bookings.RecomputeAllCommand, *dto.RecomputeSummary](admin(), h.svc.Commands, bookings.RecomputeAllCommand{})
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Unchanged)
	assert.Empty(t, summary.Results)
}

func TestGenerateLease(t *testing.T) {
	h := newHarness(t)
	booked := h.request(t, "")

	out, err := commands.Dispatch[lease.GenerateLeaseCommand, *dto.Lease](admin(), h.svc.Commands, lease.GenerateLeaseCommand{BookingID: booked.BookingID})
	require.NoError(t, err)
	assert.Equal(t, "mem://"+out.Key, out.URL)
	require.Contains(t, h.archive.docs, out.Key)
	assert.Contains(t, string(h.archive.docs[out.Key]), "Total due at move-in: 5450.00 USD")
	assert.Contains(t, h.store.Outbox.Names(), "lease.generated")
}

func TestCancelBooking(t *testing.T) {
	h := newHarness(t)
	booked := h.request(t, "")
	h.request(t, "")

	_, err := commands.Dispatch[bookings.CancelBookingCommand, *dto.Booking](context.Background(), h.svc.Commands, bookings.CancelBookingCommand{BookingID: booked.BookingID})
	assert.ErrorIs(t, err, middleware.ErrForbidden)

	out, err := commands.Dispatch[bookings.CancelBookingCommand, *dto.Booking](admin(), h.svc.Commands, bookings.CancelBookingCommand{BookingID: booked.BookingID, Reason: "guest left"})
	require.NoError(t, err)
	assert.Equal(t, "CANCELLED", out.State)
	assert.Contains(t, h.store.Outbox.Names(), "booking.cancelled")

	_, err = commands.Dispatch[bookings.CancelBookingCommand, *dto.Booking](admin(), h.svc.Commands, bookings.CancelBookingCommand{BookingID: booked.BookingID})
	assert.ErrorIs(t, err, domainbooking.ErrInvalidState)

	summary, err := commands.Dispatch[bookings.RecomputeAllCommand, *dto.RecomputeSummary](admin(), h.svc.Commands, bookings.RecomputeAllCommand{})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Scanned)
}

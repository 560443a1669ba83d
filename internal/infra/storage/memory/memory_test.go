package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentdesk/internal/app/middleware"
	appoutbox "rentdesk/internal/app/outbox"
	domainbooking "rentdesk/internal/domain/booking"
	"rentdesk/internal/domain/pricing"
	domainproperty "rentdesk/internal/domain/property"
	"rentdesk/internal/domain/shared/calendar"
	"rentdesk/internal/domain/shared/daterange"
	"rentdesk/internal/domain/shared/money"
)

var now = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestPropertyRepositoryVersioningAndIsolation(t *testing.T) {
	ctx := context.Background()
	repo := NewPropertyRepository()
	p, err := domainproperty.New(domainproperty.CreateParams{ID: "p-1", Title: "Loft", MonthlyRate: money.MustUnits(3000, "USD"), Now: now})
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, p))
	assert.Equal(t, int64(1), p.Version)

	loaded, err := repo.ByID(ctx, "p-1")
	require.NoError(t, err)
	day := calendar.MustParse("2024-02-01")
	loaded.Overrides[day] = pricing.Block(day)

	again, err := repo.ByID(ctx, "p-1")
	require.NoError(t, err)
	assert.Empty(t, again.Overrides)

	require.NoError(t, repo.Save(ctx, loaded))
	assert.ErrorIs(t, repo.Save(ctx, again), domainproperty.ErrVersionConflict)

	_, err = repo.ByID(ctx, "missing")
	assert.ErrorIs(t, err, domainproperty.ErrPropertyNotFound)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Len(t, all[0].Overrides, 1)
}

func TestBookingRepositoryListing(t *testing.T) {
	ctx := context.Background()
	repo := NewBookingRepository()
	for i, prop := range []domainproperty.PropertyID{"p-1", "p-2", "p-1"} {
		stay, err := daterange.Parse("2024-01-10", "2024-02-10")
		require.NoError(t, err)
		q, err := pricing.Compute(pricing.Request{MonthlyRate: money.MustUnits(3000, "USD"), CheckIn: stay.CheckIn, CheckOut: stay.CheckOut})
		require.NoError(t, err)
		b, err := domainbooking.NewBooking(domainbooking.CreateParams{
			ID: domainbooking.BookingID("bk-" + string(rune('a'+i))), PropertyID: prop,
			GuestName: "G", GuestEmail: "g@example.com", Range: stay, Quote: q,
			CreatedAt: now.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, b))
	}

	p1, err := repo.ListByProperty(ctx, "p-1")
	require.NoError(t, err)
	require.Len(t, p1, 2)
	assert.Equal(t, domainbooking.BookingID("bk-a"), p1[0].ID)
	assert.Equal(t, domainbooking.BookingID("bk-c"), p1[1].ID)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	loaded, err := repo.ByID(ctx, "bk-a")
	require.NoError(t, err)
	loaded.Payments[0].Label = "mutated"
	fresh, err := repo.ByID(ctx, "bk-a")
	require.NoError(t, err)
	assert.NotEqual(t, "mutated", fresh.Payments[0].Label)
	assert.Empty(t, fresh.PendingEvents())
}

func TestIdempotencyStoreExpires(t *testing.T) {
	ctx := context.Background()
	store := NewIdempotencyStore(time.Hour)
	clock := now
	store.now = func() time.Time { return clock }

	require.NoError(t, store.Save(ctx, middleware.IdempotencyRecord{Key: "k", OccurredAt: now}))
	_, found, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)

	clock = now.Add(2 * time.Hour)
	_, found, err = store.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestIdempotencyStoreReserve(t *testing.T) {
	ctx := context.Background()
	store := NewIdempotencyStore(time.Hour)
	store.now = func() time.Time { return now }
	pending := middleware.IdempotencyRecord{Key: "k", Pending: true, OccurredAt: now}

	claimed, err := store.Reserve(ctx, pending)
	require.NoError(t, err)
	assert.True(t, claimed)
	claimed, err = store.Reserve(ctx, pending)
	require.NoError(t, err)
	assert.False(t, claimed)

	require.NoError(t, store.Release(ctx, "k"))
	claimed, err = store.Reserve(ctx, pending)
	require.NoError(t, err)
	assert.True(t, claimed)

	require.NoError(t, store.Save(ctx, middleware.IdempotencyRecord{Key: "k", Payload: []byte(`{}`), OccurredAt: now}))
	require.NoError(t, store.Release(ctx, "k"))
	rec, found, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, found)
	assert.False(t, rec.Pending)
}

func TestOutboxClaimOrder(t *testing.T) {
	ctx := context.Background()
	box := NewOutbox()
	box.now = func() time.Time { return now }
	require.NoError(t, box.Add(ctx, appoutbox.EventRecord{ID: "2", Name: "b.second", OccurredAt: now.Add(time.Second)}))
	require.NoError(t, box.Add(ctx, appoutbox.EventRecord{ID: "1", Name: "b.first", OccurredAt: now}))
	assert.Equal(t, []string{"b.first", "b.second"}, box.Names())

	c, err := box.Claim(ctx, "w")
	require.NoError(t, err)
	assert.Equal(t, "1", c.ID)
	require.NoError(t, box.MarkFailed(ctx, "1", now.Add(time.Hour), "down"))

	c, err = box.Claim(ctx, "w")
	require.NoError(t, err)
	assert.Equal(t, "2", c.ID)
	require.NoError(t, box.MarkSent(ctx, "2"))

	c, err = box.Claim(ctx, "w")
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestInbox(t *testing.T) {
	ctx := context.Background()
	in := NewInbox()
	seen, _ := in.Seen(ctx, "e1")
	assert.False(t, seen)
	seen, _ = in.Seen(ctx, "e1")
	assert.True(t, seen)
	require.NoError(t, in.Forget(ctx, "e1"))
	seen, _ = in.Seen(ctx, "e1")
	assert.False(t, seen)
}

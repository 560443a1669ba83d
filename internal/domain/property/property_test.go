package property

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentdesk/internal/domain/pricing"
	"rentdesk/internal/domain/shared/calendar"
	"rentdesk/internal/domain/shared/money"
)

var now = time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)

func newProperty(t *testing.T) *Property {
	t.Helper()
	p, err := New(CreateParams{ID: "loft-1", Title: " Harbor Loft ", MonthlyRate: money.MustUnits(3000, "USD"), Now: now})
	require.NoError(t, err)
	return p
}

func TestNewValidates(t *testing.T) {
	_, err := New(CreateParams{ID: "x", Title: "  ", MonthlyRate: money.MustUnits(1, "USD")})
	assert.ErrorIs(t, err, ErrTitleRequired)

	_, err = New(CreateParams{ID: "x", Title: "Flat", MonthlyRate: money.Money{Amount: 100}})
	assert.ErrorIs(t, err, ErrInvalidRate)

	p := newProperty(t)
	assert.Equal(t, "Harbor Loft", p.Title)
	assert.NotNil(t, p.Overrides)
	assert.Empty(t, p.PendingEvents())
}

func TestReplaceOverridesRecordsEvent(t *testing.T) {
	p := newProperty(t)
	day := calendar.MustParse("2024-02-14")

	err := p.ReplaceOverrides(pricing.Overrides{day: pricing.Block(day)}, now.Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, p.Overrides[day].Blocked())

	evs := p.PendingEvents()
	require.Len(t, evs, 1)
	assert.Equal(t, "property.overrides_updated", evs[0].EventName())
	assert.Equal(t, "loft-1", evs[0].AggregateID())

	negative := int64(-5)
	err = p.ReplaceOverrides(pricing.Overrides{day: {Date: day, PriceNight: &negative}}, now)
	assert.ErrorIs(t, err, pricing.ErrInvalidOverride)
}

func TestPricingSnapshotIsDetached(t *testing.T) {
	p := newProperty(t)
	day := calendar.MustParse("2024-02-14")
	require.NoError(t, p.ReplaceOverrides(pricing.Overrides{day: pricing.Price(day, 200)}, now))

	snap := p.PricingSnapshot()
	require.NoError(t, p.ReplaceOverrides(pricing.Overrides{}, now))

	assert.Len(t, snap.Overrides, 1)
	assert.Equal(t, money.MustUnits(3000, "USD"), snap.MonthlyRate)
}

func TestChangeMonthlyRate(t *testing.T) {
	p := newProperty(t)
	assert.ErrorIs(t, p.ChangeMonthlyRate(money.MustUnits(0, "USD"), now), ErrInvalidRate)

	require.NoError(t, p.ChangeMonthlyRate(money.MustUnits(3200, "USD"), now))
	assert.Equal(t, int64(3200), p.MonthlyRate.Units())
	require.Len(t, p.PendingEvents(), 1)
	assert.Equal(t, "property.monthly_rate_changed", p.PendingEvents()[0].EventName())
}

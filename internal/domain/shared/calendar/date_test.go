package calendar

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	d, err := Parse("2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, Date{Year: 2024, Month: time.February, Day: 29}, d)
	assert.Equal(t, "2024-02-29", d.String())

	for _, raw := range []string{"", "2023-02-29", "2024-13-01", "10/01/2024", "2024-1-1"} {
		_, err := Parse(raw)
		assert.ErrorIs(t, err, ErrInvalidDate, raw)
	}
}

func TestMonthArithmetic(t *testing.T) {
	tests := []struct {
		name string
		got  Date
		want string
	}{
		{name: "first of month", got: MustParse("2024-01-10").FirstOfMonth(), want: "2024-01-01"},
		{name: "last of leap february", got: MustParse("2024-02-10").LastOfMonth(), want: "2024-02-29"},
		{name: "last of december", got: MustParse("2024-12-05").LastOfMonth(), want: "2024-12-31"},
		{name: "add months from mid month", got: MustParse("2024-01-31").AddMonths(1), want: "2024-02-01"},
		{name: "add months across year", got: MustParse("2024-11-15").AddMonths(2), want: "2025-01-01"},
		{name: "clamped jan 31 plus 3", got: MustParse("2024-01-31").AddMonthsClamped(3), want: "2024-04-30"},
		{name: "clamped jan 31 plus 1 leap", got: MustParse("2024-01-31").AddMonthsClamped(1), want: "2024-02-29"},
		{name: "clamped jan 31 plus 1", got: MustParse("2023-01-31").AddMonthsClamped(1), want: "2023-02-28"},
		{name: "clamped keeps day", got: MustParse("2024-01-10").AddMonthsClamped(3), want: "2024-04-10"},
		{name: "add days across month", got: MustParse("2024-02-28").AddDays(2), want: "2024-03-01"},
		{name: "add negative days", got: MustParse("2024-03-01").AddDays(-1), want: "2024-02-29"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got.String())
		})
	}
}

func TestCompareAndNights(t *testing.T) {
	a := MustParse("2024-01-10")
	b := MustParse("2024-04-10")

	assert.True(t, a.Before(b))
	assert.True(t, b.After(a))
	assert.Equal(t, 0, a.Compare(MustParse("2024-01-10")))
	assert.Equal(t, 91, NightsBetween(a, b))
	assert.Equal(t, 0, NightsBetween(b, a))
	assert.Equal(t, -91, b.DaysUntil(a))
	assert.Equal(t, a, Min(a, b))
	assert.Equal(t, b, Max(a, b))
}

func TestNightsBetweenFarApart(t *testing.T) {
	first := MustParse("0001-01-01")
	last := MustParse("9999-12-31")

	assert.Equal(t, 3652058, NightsBetween(first, last))
	assert.Equal(t, -3652058, last.DaysUntil(first))
	assert.Equal(t, 366, NightsBetween(MustParse("2400-01-01"), MustParse("2401-01-01")))
}

func TestShortLabel(t *testing.T) {
	assert.Equal(t, "Feb 1", MustParse("2024-02-01").ShortLabel())
	assert.Equal(t, "Apr 9", MustParse("2024-04-09").ShortLabel())
}

func TestJSONMapKeys(t *testing.T) {
	in := map[Date]int{MustParse("2024-03-05"): 1}
	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `{"2024-03-05":1}`, string(data))

	var out map[Date]int
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in, out)

	err = json.Unmarshal([]byte(`{"not-a-date":1}`), &out)
	assert.Error(t, err)
}

package pricing

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOverrides(t *testing.T) {
	overrides, err := ParseOverrides([]byte(`{
		"2024-02-14": {"priceNight": 250},
		"2024-03-01": {"available": false},
		"2024-03-02": {"available": true, "priceNight": 90}
	}`))
	require.NoError(t, err)
	require.Len(t, overrides, 3)

	valentine := overrides[date("2024-02-14")]
	assert.Equal(t, date("2024-02-14"), valentine.Date)
	require.NotNil(t, valentine.PriceNight)
	assert.Equal(t, int64(250), *valentine.PriceNight)
	assert.False(t, valentine.Blocked())

	assert.True(t, overrides[date("2024-03-01")].Blocked())
	assert.False(t, overrides[date("2024-03-02")].Blocked())
}

func TestParseOverridesRejectsBadInput(t *testing.T) {
	tests := map[string]string{
		"bad date key":   `{"2024-02-30": {"priceNight": 10}}`,
		"negative price": `{"2024-02-14": {"priceNight": -1}}`,
		"not an object":  `[1,2,3]`,
	}
	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseOverrides([]byte(raw))
			assert.ErrorIs(t, err, ErrInvalidOverride)
		})
	}
}

func TestParseOverridesNull(t *testing.T) {
	overrides, err := ParseOverrides([]byte(`null`))
	require.NoError(t, err)
	assert.NotNil(t, overrides)
	assert.Empty(t, overrides)
}

func TestOverridesRoundTripAndClone(t *testing.T) {
	in := Overrides{
		date("2024-02-14"): Price(date("2024-02-14"), 250),
		date("2024-03-01"): Block(date("2024-03-01")),
	}
	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `{"2024-02-14":{"priceNight":250},"2024-03-01":{"available":false}}`, string(data))

	clone := in.Clone()
	assert.Equal(t, in, clone)
	*clone[date("2024-02-14")].PriceNight = 1
	assert.Equal(t, int64(250), *in[date("2024-02-14")].PriceNight)

	assert.NotNil(t, Overrides(nil).Clone())
}

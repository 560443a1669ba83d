package pricing

import (
	"encoding/json"
	"errors"
	"fmt"

	"rentdesk/internal/domain/shared/calendar"
)

var ErrInvalidOverride = errors.New("pricing: invalid day override")

// DayOverride replaces the fallback price of one night or blocks it.
// A nil PriceNight keeps the fallback rate; a nil Available means available.
type DayOverride struct {
	Date       calendar.Date
	PriceNight *int64
	Available  *bool
}

// Blocked reports whether the night is explicitly unavailable.
func (o DayOverride) Blocked() bool {
	return o.Available != nil && !*o.Available
}

// Overrides is the per-property override map keyed by night.
type Overrides map[calendar.Date]DayOverride

// ParseOverrides decodes the ISO-date keyed JSON map {"2024-02-10": {"priceNight": 120, "available": true}}.
func ParseOverrides(data []byte) (Overrides, error) {
	var out Overrides
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = Overrides{}
	}
	return out, nil
}

// Clone returns an independent snapshot; the engine reads only snapshots.
func (o Overrides) Clone() Overrides {
	if o == nil {
		return Overrides{}
	}
	out := make(Overrides, len(o))
	for day, ov := range o {
		c := DayOverride{Date: day}
		if ov.PriceNight != nil {
			price := *ov.PriceNight
			c.PriceNight = &price
		}
		if ov.Available != nil {
			available := *ov.Available
			c.Available = &available
		}
		out[day] = c
	}
	return out
}

func (o Overrides) Validate() error {
	for day, ov := range o {
		if day.IsZero() {
			return fmt.Errorf("%w: missing date", ErrInvalidOverride)
		}
		if ov.PriceNight != nil && *ov.PriceNight < 0 {
			return fmt.Errorf("%w: negative price on %s", ErrInvalidOverride, day)
		}
	}
	return nil
}

// Price returns an override with only a nightly price set.
func Price(day calendar.Date, units int64) DayOverride {
	return DayOverride{Date: day, PriceNight: &units}
}

// Block returns an override marking the night unavailable.
func Block(day calendar.Date) DayOverride {
	available := false
	return DayOverride{Date: day, Available: &available}
}

type overrideJSON struct {
	PriceNight *int64 `json:"priceNight,omitempty"`
	Available  *bool  `json:"available,omitempty"`
}

func (o Overrides) MarshalJSON() ([]byte, error) {
	wire := make(map[calendar.Date]overrideJSON, len(o))
	for day, ov := range o {
		wire[day] = overrideJSON{PriceNight: ov.PriceNight, Available: ov.Available}
	}
	return json.Marshal(wire)
}

func (o *Overrides) UnmarshalJSON(data []byte) error {
	var wire map[calendar.Date]overrideJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidOverride, err)
	}
	if wire == nil {
		*o = nil
		return nil
	}
	out := make(Overrides, len(wire))
	for day, ov := range wire {
		out[day] = DayOverride{Date: day, PriceNight: ov.PriceNight, Available: ov.Available}
	}
	if err := out.Validate(); err != nil {
		return err
	}
	*o = out
	return nil
}

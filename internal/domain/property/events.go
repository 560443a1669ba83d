package property

import (
	"time"

	"rentdesk/internal/domain/shared/money"
)

type OverridesUpdated struct {
	PropertyID PropertyID `json:"property_id"`
	Days       int        `json:"days"`
	At         time.Time  `json:"at"`
}

func (e OverridesUpdated) EventName() string     { return "property.overrides_updated" }
func (e OverridesUpdated) AggregateID() string   { return string(e.PropertyID) }
func (e OverridesUpdated) OccurredAt() time.Time { return e.At }

type MonthlyRateChanged struct {
	PropertyID PropertyID  `json:"property_id"`
	Previous   money.Money `json:"previous"`
	Current    money.Money `json:"current"`
	At         time.Time   `json:"at"`
}

func (e MonthlyRateChanged) EventName() string     { return "property.monthly_rate_changed" }
func (e MonthlyRateChanged) AggregateID() string   { return string(e.PropertyID) }
func (e MonthlyRateChanged) OccurredAt() time.Time { return e.At }

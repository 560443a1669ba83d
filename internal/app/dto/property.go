package dto

import (
	"time"

	"rentdesk/internal/domain/pricing"
	domainproperty "rentdesk/internal/domain/property"
)

type Property struct {
	ID               string            `json:"id"`
	Title            string            `json:"title"`
	Address          string            `json:"address,omitempty"`
	Currency         string            `json:"currency"`
	MonthlyRateUnits int64             `json:"monthly_rate_units"`
	Overrides        pricing.Overrides `json:"overrides"`
	Version          int64             `json:"version"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

func MapProperty(p *domainproperty.Property) Property {
	return Property{
		ID:               string(p.ID),
		Title:            p.Title,
		Address:          p.Address,
		Currency:         p.MonthlyRate.Currency,
		MonthlyRateUnits: p.MonthlyRate.Units(),
		Overrides:        p.Overrides.Clone(),
		Version:          p.Version,
		UpdatedAt:        p.UpdatedAt,
	}
}

type OverridesUpdate struct {
	PropertyID string `json:"property_id"`
	Days       int    `json:"days"`
	Version    int64  `json:"version"`
}

package property

import (
	"context"
	"errors"
	"strings"
	"time"

	"rentdesk/internal/domain/pricing"
	"rentdesk/internal/domain/shared/events"
	"rentdesk/internal/domain/shared/money"
)

var (
	ErrPropertyNotFound = errors.New("property: not found")
	ErrVersionConflict  = errors.New("property: concurrent modification")
	ErrTitleRequired    = errors.New("property: title required")
	ErrInvalidRate      = errors.New("property: monthly rate must be positive")
)

type PropertyID string

// Property is a rentable unit priced by a monthly rate and per-night overrides.
type Property struct {
	ID          PropertyID
	Title       string
	Address     string
	MonthlyRate money.Money
	Overrides   pricing.Overrides
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Version     int64
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id PropertyID) (*Property, error)
	Save(ctx context.Context, p *Property) error
	List(ctx context.Context) ([]*Property, error)
}

type CreateParams struct {
	ID          PropertyID
	Title       string
	Address     string
	MonthlyRate money.Money
	Overrides   pricing.Overrides
	Now         time.Time
}

func New(params CreateParams) (*Property, error) {
	title := strings.TrimSpace(params.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	if params.MonthlyRate.Amount <= 0 || len(params.MonthlyRate.Currency) != 3 {
		return nil, ErrInvalidRate
	}
	if err := params.Overrides.Validate(); err != nil {
		return nil, err
	}
	now := params.Now.UTC()
	return &Property{
		ID:          params.ID,
		Title:       title,
		Address:     strings.TrimSpace(params.Address),
		MonthlyRate: params.MonthlyRate,
		Overrides:   params.Overrides.Clone(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// ReplaceOverrides swaps the whole override map, the way the override source publishes it.
func (p *Property) ReplaceOverrides(overrides pricing.Overrides, now time.Time) error {
	if err := overrides.Validate(); err != nil {
		return err
	}
	p.Overrides = overrides.Clone()
	p.UpdatedAt = now.UTC()
	p.Record(OverridesUpdated{PropertyID: p.ID, Days: len(p.Overrides), At: p.UpdatedAt})
	return nil
}

func (p *Property) ChangeMonthlyRate(rate money.Money, now time.Time) error {
	if rate.Amount <= 0 || len(rate.Currency) != 3 {
		return ErrInvalidRate
	}
	previous := p.MonthlyRate
	p.MonthlyRate = rate
	p.UpdatedAt = now.UTC()
	p.Record(MonthlyRateChanged{PropertyID: p.ID, Previous: previous, Current: rate, At: p.UpdatedAt})
	return nil
}

// Snapshot is the pricing input read atomically before a quote is computed.
type Snapshot struct {
	PropertyID  PropertyID        `json:"property_id"`
	MonthlyRate money.Money       `json:"monthly_rate"`
	Overrides   pricing.Overrides `json:"overrides"`
	Version     int64             `json:"version"`
}

func (p *Property) PricingSnapshot() Snapshot {
	return Snapshot{
		PropertyID:  p.ID,
		MonthlyRate: p.MonthlyRate,
		Overrides:   p.Overrides.Clone(),
		Version:     p.Version,
	}
}

package fixtures

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"reflect"
	"strings"

	"rentdesk/internal/app/outbox"
	"rentdesk/internal/app/support"
	"rentdesk/internal/app/uow"
	domainpricing "rentdesk/internal/domain/pricing"
	domainproperty "rentdesk/internal/domain/property"
	"rentdesk/internal/domain/shared/money"
)

// PropertyFixture seeds one property; MonthlyRate is in whole currency units.
type PropertyFixture struct {
	ID          string                  `json:"id"`
	Title       string                  `json:"title"`
	Address     string                  `json:"address"`
	MonthlyRate int64                   `json:"monthly_rate"`
	Currency    string                  `json:"currency"`
	Overrides   domainpricing.Overrides `json:"overrides"`
}

// PropertyLoader upserts fixtures: new ids are created, known ids get their rate and
// overrides synced through the aggregate so the change events reach the outbox.
type PropertyLoader struct {
	UoW             uow.Factory
	Encoder         outbox.EventEncoder
	DefaultCurrency string
	Clock           support.Clock
	Logger          *slog.Logger
}

// LoadFile reads a JSON array of fixtures. A missing or empty file is not an error.
func (l PropertyLoader) LoadFile(ctx context.Context, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			l.logger().Info("property fixtures file not found, skipping", "path", path)
			return 0, nil
		}
		return 0, fmt.Errorf("read fixtures: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		l.logger().Warn("property fixtures file empty", "path", path)
		return 0, nil
	}
	var list []PropertyFixture
	if err := json.Unmarshal(data, &list); err != nil {
		return 0, fmt.Errorf("decode fixtures: %w", err)
	}
	return l.Load(ctx, list)
}

// Load applies every fixture in its own unit and returns how many were stored.
// Invalid fixtures are logged and skipped.
func (l PropertyLoader) Load(ctx context.Context, list []PropertyFixture) (int, error) {
	stored := 0
	for _, fx := range list {
		if err := ctx.Err(); err != nil {
			return stored, err
		}
		changed, err := l.apply(ctx, fx)
		if err != nil {
			l.logger().Error("property fixture rejected", "property_id", fx.ID, "error", err)
			continue
		}
		if changed {
			stored++
			l.logger().Info("property fixture imported", "property_id", fx.ID)
		}
	}
	return stored, nil
}

func (l PropertyLoader) apply(ctx context.Context, fx PropertyFixture) (changed bool, err error) {
	if strings.TrimSpace(fx.ID) == "" {
		return false, errors.New("fixture id required")
	}
	currency := fx.Currency
	if currency == "" {
		currency = l.DefaultCurrency
	}
	rate, err := money.FromUnits(fx.MonthlyRate, currency)
	if err != nil {
		return false, err
	}

	unit, err := l.UoW.Begin(ctx, uow.TxOptions{})
	if err != nil {
		return false, err
	}
	execCtx := uow.Bind(ctx, unit)
	defer func() {
		if err != nil || !changed {
			_ = unit.Rollback(execCtx)
		}
	}()

	now := l.Clock.Now()
	id := domainproperty.PropertyID(fx.ID)
	p, err := unit.Properties().ByID(execCtx, id)
	switch {
	case errors.Is(err, domainproperty.ErrPropertyNotFound):
		p, err = domainproperty.New(domainproperty.CreateParams{
			ID:          id,
			Title:       fx.Title,
			Address:     fx.Address,
			MonthlyRate: rate,
			Overrides:   fx.Overrides,
			Now:         now,
		})
		if err != nil {
			return false, err
		}
		changed = true
	case err != nil:
		return false, err
	default:
		if p.MonthlyRate != rate {
			if err = p.ChangeMonthlyRate(rate, now); err != nil {
				return false, err
			}
			changed = true
		}
		if fx.Overrides != nil && !reflect.DeepEqual(p.Overrides.Clone(), fx.Overrides.Clone()) {
			if err = p.ReplaceOverrides(fx.Overrides, now); err != nil {
				return false, err
			}
			changed = true
		}
	}
	if !changed {
		return false, nil
	}
	if err = unit.Properties().Save(execCtx, p); err != nil {
		return false, err
	}
	if err = outbox.Drain(execCtx, unit.Outbox(), l.Encoder, p); err != nil {
		return false, err
	}
	if err = unit.Commit(execCtx); err != nil {
		return false, err
	}
	return true, nil
}

func (l PropertyLoader) logger() *slog.Logger {
	if l.Logger != nil {
		return l.Logger
	}
	return slog.Default()
}

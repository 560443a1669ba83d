package bookings

import (
	"context"
	"errors"
	"log/slog"

	"rentdesk/internal/app/commands"
	"rentdesk/internal/app/dto"
	"rentdesk/internal/app/middleware"
	"rentdesk/internal/app/support"
	"rentdesk/internal/app/uow"
	domainbooking "rentdesk/internal/domain/booking"
	domainproperty "rentdesk/internal/domain/property"
)

const RecomputeAllKey = "booking.recompute_all"

// RecomputeAllCommand recomputes every open booking, optionally for one property.
type RecomputeAllCommand struct {
	PropertyID string `json:"property_id"`
	Force      bool   `json:"force"`
}

func (c RecomputeAllCommand) Key() string         { return RecomputeAllKey }
func (c RecomputeAllCommand) RequiresAdmin() bool { return true }

// RecomputeAllHandler fans out one booking.recompute_totals per booking through Bus so
// each booking commits on its own.
type RecomputeAllHandler struct {
	UoWFactory uow.Factory
	Bus        commands.Bus
	Logger     *slog.Logger
}

var ErrBusNotWired = errors.New("bookings: recompute bus not wired")

func (h *RecomputeAllHandler) Handle(ctx context.Context, cmd RecomputeAllCommand) (*dto.RecomputeSummary, error) {
	if h.Bus == nil {
		return nil, ErrBusNotWired
	}
	ids, err := h.openBookings(ctx, domainproperty.PropertyID(cmd.PropertyID))
	if err != nil {
		return nil, err
	}
	logger := h.Logger
	if logger == nil {
		logger = slog.Default()
	}

	summary := &dto.RecomputeSummary{Results: []dto.RecomputeResult{}}
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		summary.Scanned++
		res, err := commands.Dispatch[RecomputeTotalsCommand, *dto.RecomputeResult](ctx, h.Bus, RecomputeTotalsCommand{
			BookingID: string(id),
			Force:     cmd.Force,
		})
		if err != nil {
			summary.Failed++
			logger.Warn("booking recompute failed", "booking_id", id, "error", err)
			summary.Results = append(summary.Results, dto.RecomputeResult{BookingID: string(id), Status: "failed"})
			continue
		}
		switch domainbooking.RecomputeStatus(res.Status) {
		case domainbooking.RecomputeUnchanged:
			summary.Unchanged++
			continue
		case domainbooking.RecomputeUpdated:
			summary.Updated++
		case domainbooking.RecomputeDrift:
			summary.Drifted++
		}
		summary.Results = append(summary.Results, *res)
	}
	logger.Info("bookings recomputed",
		"property_id", cmd.PropertyID,
		"scanned", summary.Scanned,
		"updated", summary.Updated,
		"drifted", summary.Drifted,
		"failed", summary.Failed,
	)
	return summary, nil
}

func (h *RecomputeAllHandler) openBookings(ctx context.Context, propertyID domainproperty.PropertyID) ([]domainbooking.BookingID, error) {
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	var list []*domainbooking.Booking
	if propertyID != "" {
		list, err = unit.Bookings().ListByProperty(execCtx, propertyID)
	} else {
		list, err = unit.Bookings().List(execCtx)
	}
	if err != nil {
		return nil, err
	}
	ids := make([]domainbooking.BookingID, 0, len(list))
	for _, b := range list {
		if b.State == domainbooking.StateRequested {
			ids = append(ids, b.ID)
		}
	}
	return ids, nil
}

var (
	_ commands.Handler[RecomputeAllCommand, *dto.RecomputeSummary] = (*RecomputeAllHandler)(nil)
	_ middleware.AdminOnly                                         = RecomputeAllCommand{}
)

package service

import (
	"context"
	"errors"
	"log/slog"

	"rentdesk/internal/app/commands"
	"rentdesk/internal/app/dto"
	"rentdesk/internal/app/handlers/bookings"
	"rentdesk/internal/app/handlers/lease"
	"rentdesk/internal/app/handlers/properties"
	"rentdesk/internal/app/handlers/quotes"
	"rentdesk/internal/app/middleware"
	"rentdesk/internal/app/outbox"
	"rentdesk/internal/app/policies"
	"rentdesk/internal/app/queries"
	"rentdesk/internal/app/support"
	"rentdesk/internal/app/uow"
	"rentdesk/internal/app/validation"
	domainbooking "rentdesk/internal/domain/booking"
	domainpricing "rentdesk/internal/domain/pricing"
	domainproperty "rentdesk/internal/domain/property"
	"rentdesk/internal/domain/shared/calendar"
)

// Deps are the adapters the application layer runs on.
type Deps struct {
	UoW         uow.Factory
	Snapshots   policies.SnapshotCache
	Archive     policies.DocumentArchive
	Idempotency middleware.IdempotencyStore
	Flusher     outbox.Flusher
	Recorder    middleware.Recorder
	Metrics     policies.PricingMetrics
	Validator   middleware.Validator
	Calculator  domainpricing.Calculator
	Encoder     outbox.EventEncoder
	Clock       support.Clock
	Logger      *slog.Logger
	PreviewRows int
}

// Service exposes the buses the transports dispatch into.
type Service struct {
	Commands commands.Bus
	Queries  queries.Bus

	CommandKeys []string
	QueryKeys   []string
}

var (
	ErrMissingDeps    = errors.New("service: unit of work factory and idempotency store required")
	ErrArchiveMissing = errors.New("service: lease archive not configured")
)

// replayable keeps its identity when an idempotent command failure is replayed.
var replayable = []error{
	domainpricing.ErrUnavailable,
	domainpricing.ErrInvalidRange,
	domainpricing.ErrInvalidRate,
	calendar.ErrInvalidDate,
	domainproperty.ErrPropertyNotFound,
	domainbooking.ErrGuestRequired,
}

func New(deps Deps) (*Service, error) {
	if deps.UoW == nil || deps.Idempotency == nil {
		return nil, ErrMissingDeps
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Snapshots == nil {
		deps.Snapshots = support.RepositorySnapshots{UoWFactory: deps.UoW}
	}
	if deps.Metrics == nil {
		deps.Metrics = policies.NopMetrics{}
	}
	if deps.Validator == nil {
		deps.Validator = validation.New()
	}
	if deps.Calculator == nil {
		deps.Calculator = domainpricing.Engine{}
	}
	if deps.Archive == nil {
		deps.Archive = missingArchive{}
	}

	cmds := commands.NewRegistry()
	commands.Register[bookings.RequestBookingCommand, *dto.BookingRequested](cmds, bookings.RequestBookingKey, &bookings.RequestBookingHandler{
		Calculator: deps.Calculator,
		Encoder:    deps.Encoder,
		Metrics:    deps.Metrics,
		Clock:      deps.Clock,
	})
	commands.Register[bookings.RecomputeTotalsCommand, *dto.RecomputeResult](cmds, bookings.RecomputeTotalsKey, &bookings.RecomputeTotalsHandler{
		Calculator: deps.Calculator,
		Encoder:    deps.Encoder,
		Metrics:    deps.Metrics,
		Clock:      deps.Clock,
	})
	commands.Register[bookings.CancelBookingCommand, *dto.Booking](cmds, bookings.CancelBookingKey, &bookings.CancelBookingHandler{
		Encoder: deps.Encoder,
		Clock:   deps.Clock,
	})
	recomputeAll := &bookings.RecomputeAllHandler{UoWFactory: deps.UoW, Logger: deps.Logger}
	commands.Register[bookings.RecomputeAllCommand, *dto.RecomputeSummary](cmds, bookings.RecomputeAllKey, recomputeAll)
	commands.Register[properties.UpdateOverridesCommand, *dto.OverridesUpdate](cmds, properties.UpdateOverridesKey, &properties.UpdateOverridesHandler{
		Cache:   deps.Snapshots,
		Encoder: deps.Encoder,
		Clock:   deps.Clock,
		Logger:  deps.Logger,
	})
	commands.Register[lease.GenerateLeaseCommand, *dto.Lease](cmds, lease.GenerateLeaseKey, &lease.GenerateLeaseHandler{
		Archive: deps.Archive,
		Encoder: deps.Encoder,
		Clock:   deps.Clock,
	})

	qs := queries.NewRegistry()
	queries.Register[quotes.PreviewQuoteQuery, dto.Quote](qs, quotes.PreviewQuoteKey, &quotes.PreviewQuoteHandler{
		Snapshots:   deps.Snapshots,
		Calculator:  deps.Calculator,
		Metrics:     deps.Metrics,
		DefaultRows: deps.PreviewRows,
	})
	queries.Register[properties.GetCalendarQuery, dto.Calendar](qs, properties.GetCalendarKey, &properties.GetCalendarHandler{Snapshots: deps.Snapshots})
	queries.Register[properties.GetPropertyQuery, dto.Property](qs, properties.GetPropertyKey, &properties.GetPropertyHandler{UoWFactory: deps.UoW})
	queries.Register[bookings.GetBookingQuery, dto.Booking](qs, bookings.GetBookingKey, &bookings.GetBookingHandler{UoWFactory: deps.UoW})

	cmdChain := []middleware.CommandMiddleware{
		middleware.ObserveCommands(deps.Recorder, deps.Logger),
		middleware.Authorization(middleware.AdminGuard{}),
		middleware.Validation(deps.Validator),
	}
	if deps.Flusher != nil {
		cmdChain = append(cmdChain, middleware.OutboxFlush(deps.Flusher, deps.Logger))
	}
	cmdChain = append(cmdChain,
		middleware.Idempotency(deps.Idempotency, nil, replayable...),
		middleware.Transaction(deps.UoW, txOptions),
	)
	commandBus := middleware.ChainCommands(cmds, cmdChain...)
	recomputeAll.Bus = commandBus

	queryBus := middleware.ChainQueries(qs,
		middleware.ObserveQueries(deps.Recorder),
		middleware.QueryAuthorization(middleware.AdminGuard{}),
		middleware.QueryValidation(deps.Validator),
	)

	return &Service{
		Commands:    commandBus,
		Queries:     queryBus,
		CommandKeys: cmds.Keys(),
		QueryKeys:   qs.Keys(),
	}, nil
}

// txOptions keeps the fan-out command's own unit read-only; each booking commits in
// the unit of its nested recompute.
func txOptions(cmd commands.Command) uow.TxOptions {
	if cmd.Key() == bookings.RecomputeAllKey {
		return uow.TxOptions{ReadOnly: true}
	}
	return uow.TxOptions{}
}

type missingArchive struct{}

func (missingArchive) Put(context.Context, string, []byte, string) (string, error) {
	return "", ErrArchiveMissing
}

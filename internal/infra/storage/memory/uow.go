package memory

import (
	"context"
	"errors"
	"time"

	appoutbox "rentdesk/internal/app/outbox"
	"rentdesk/internal/app/uow"
	domainbooking "rentdesk/internal/domain/booking"
	domainproperty "rentdesk/internal/domain/property"
)

// Factory wires in-memory repositories into a unit-of-work boundary.
type Factory struct {
	PropertiesRepo domainproperty.Repository
	BookingsRepo   domainbooking.Repository
	OutboxStore    appoutbox.Outbox
}

var ErrFactoryMisconfigured = errors.New("memory: unit of work factory misconfigured")

// Begin returns a unit without isolation: writes are visible immediately and Rollback
// does not undo them.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.PropertiesRepo == nil || f.BookingsRepo == nil || f.OutboxStore == nil {
		return nil, ErrFactoryMisconfigured
	}
	return &Unit{properties: f.PropertiesRepo, bookings: f.BookingsRepo, outbox: f.OutboxStore}, nil
}

type Unit struct {
	properties domainproperty.Repository
	bookings   domainbooking.Repository
	outbox     appoutbox.Outbox
}

func (u *Unit) Properties() domainproperty.Repository { return u.properties }
func (u *Unit) Bookings() domainbooking.Repository    { return u.bookings }
func (u *Unit) Outbox() appoutbox.Outbox              { return u.outbox }

func (u *Unit) Commit(ctx context.Context) error   { return nil }
func (u *Unit) Rollback(ctx context.Context) error { return nil }

// Store bundles every in-memory adapter the service needs.
type Store struct {
	Properties  *PropertyRepository
	Bookings    *BookingRepository
	Outbox      *Outbox
	Idempotency *IdempotencyStore
	Inbox       *Inbox
}

func NewStore(idempotencyTTL time.Duration) *Store {
	return &Store{
		Properties:  NewPropertyRepository(),
		Bookings:    NewBookingRepository(),
		Outbox:      NewOutbox(),
		Idempotency: NewIdempotencyStore(idempotencyTTL),
		Inbox:       NewInbox(),
	}
}

func (s *Store) Factory() Factory {
	return Factory{PropertiesRepo: s.Properties, BookingsRepo: s.Bookings, OutboxStore: s.Outbox}
}

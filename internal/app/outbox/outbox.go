package outbox

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"rentdesk/internal/domain/shared/events"
)

type EventRecord struct {
	ID         string
	Name       string
	Payload    []byte
	OccurredAt time.Time
	Aggregate  string
	Headers    map[string]string
}

// AggregateType is the event name prefix ("booking" for "booking.requested").
func (r EventRecord) AggregateType() string {
	if i := strings.IndexByte(r.Name, '.'); i > 0 {
		return r.Name[:i]
	}
	return r.Name
}

// Outbox stores records in the same transaction as the aggregate change.
type Outbox interface {
	Add(ctx context.Context, record EventRecord) error
}

// Flusher pushes stored records towards the broker after a successful commit.
type Flusher interface {
	Flush(ctx context.Context) error
}

type EventEncoder interface {
	Encode(ev events.DomainEvent) (EventRecord, error)
}

type JSONEventEncoder struct {
	IDGenerator func() string
}

func (e JSONEventEncoder) Encode(ev events.DomainEvent) (EventRecord, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return EventRecord{}, err
	}
	idGen := e.IDGenerator
	if idGen == nil {
		idGen = uuid.NewString
	}
	rec := EventRecord{
		ID:         idGen(),
		Name:       ev.EventName(),
		Payload:    payload,
		OccurredAt: ev.OccurredAt().UTC(),
		Aggregate:  ev.AggregateID(),
	}
	rec.Headers = map[string]string{
		"content-type":   "application/json",
		"aggregate-type": rec.AggregateType(),
	}
	return rec, nil
}

// RecordDomainEvents encodes evs into box in order.
func RecordDomainEvents(ctx context.Context, box Outbox, encoder EventEncoder, evs []events.DomainEvent) error {
	if box == nil || len(evs) == 0 {
		return nil
	}
	if encoder == nil {
		encoder = JSONEventEncoder{}
	}
	for _, ev := range evs {
		rec, err := encoder.Encode(ev)
		if err != nil {
			return err
		}
		if err := box.Add(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}

// Drain moves the pending events of an aggregate into box and clears them.
func Drain(ctx context.Context, box Outbox, encoder EventEncoder, agg interface {
	PendingEvents() []events.DomainEvent
	ClearEvents()
}) error {
	evs := agg.PendingEvents()
	if err := RecordDomainEvents(ctx, box, encoder, evs); err != nil {
		return err
	}
	agg.ClearEvents()
	return nil
}

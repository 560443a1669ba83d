package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	appoutbox "rentdesk/internal/app/outbox"
	infraoutbox "rentdesk/internal/infra/outbox"
)

type outboxEntry struct {
	record    appoutbox.EventRecord
	state     string
	attempts  int
	nextAt    time.Time
	lastError string
}

// Outbox holds records until the relay worker claims them.
type Outbox struct {
	mu      sync.Mutex
	entries map[string]*outboxEntry
	now     func() time.Time
}

func NewOutbox() *Outbox {
	return &Outbox{entries: make(map[string]*outboxEntry), now: time.Now}
}

func (o *Outbox) Add(ctx context.Context, record appoutbox.EventRecord) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.entries[record.ID] = &outboxEntry{record: record, state: infraoutbox.StateNew, nextAt: o.now()}
	return nil
}

func (o *Outbox) Claim(ctx context.Context, workerID string) (*infraoutbox.Claimed, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	now := o.now()
	var ready []*outboxEntry
	for _, e := range o.entries {
		if (e.state == infraoutbox.StateNew || e.state == infraoutbox.StateFailed) && !e.nextAt.After(now) {
			ready = append(ready, e)
		}
	}
	if len(ready) == 0 {
		return nil, nil
	}
	sort.Slice(ready, func(i, j int) bool {
		return ready[i].record.OccurredAt.Before(ready[j].record.OccurredAt)
	})
	e := ready[0]
	e.state = infraoutbox.StateClaimed
	return &infraoutbox.Claimed{
		ID:         e.record.ID,
		Name:       e.record.Name,
		Payload:    e.record.Payload,
		OccurredAt: e.record.OccurredAt,
		Aggregate:  e.record.Aggregate,
		Headers:    e.record.Headers,
		Attempts:   e.attempts,
	}, nil
}

func (o *Outbox) MarkSent(ctx context.Context, id string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if e, ok := o.entries[id]; ok {
		e.state = infraoutbox.StateSent
	}
	return nil
}

func (o *Outbox) MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if e, ok := o.entries[id]; ok {
		e.state = infraoutbox.StateFailed
		e.attempts++
		e.nextAt = next
		e.lastError = errMsg
	}
	return nil
}

// Pending lists records not yet sent, oldest first.
func (o *Outbox) Pending() []appoutbox.EventRecord {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]appoutbox.EventRecord, 0, len(o.entries))
	for _, e := range o.entries {
		if e.state != infraoutbox.StateSent {
			out = append(out, e.record)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OccurredAt.Before(out[j].OccurredAt) })
	return out
}

// Names lists the event names of pending records, oldest first.
func (o *Outbox) Names() []string {
	pending := o.Pending()
	names := make([]string, 0, len(pending))
	for _, r := range pending {
		names = append(names, r.Name)
	}
	return names
}

var (
	_ appoutbox.Outbox  = (*Outbox)(nil)
	_ infraoutbox.Store = (*Outbox)(nil)
)

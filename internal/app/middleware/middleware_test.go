package middleware

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentdesk/internal/app/commands"
	"rentdesk/internal/app/outbox"
	"rentdesk/internal/app/uow"
	domainbooking "rentdesk/internal/domain/booking"
	domainproperty "rentdesk/internal/domain/property"
)

var errDatesTaken = errors.New("pricing: dates unavailable")

type bookCmd struct {
	IdemKey string
	Guest   string
	Admin   bool
}

func (c bookCmd) Key() string            { return "test.book" }
func (c bookCmd) IdempotencyKey() string { return c.IdemKey }
func (c bookCmd) ResultPrototype() any   { return &bookResult{} }
func (c bookCmd) Fingerprint() string    { return c.Guest }
func (c bookCmd) RequiresAdmin() bool    { return c.Admin }

type bookResult struct {
	ID string `json:"id"`
}

type memStore struct {
	mu    sync.Mutex
	items map[string]IdempotencyRecord
}

func (s *memStore) Get(_ context.Context, key string) (IdempotencyRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.items[key]
	return rec, ok, nil
}

func (s *memStore) Reserve(_ context.Context, rec IdempotencyRecord) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[rec.Key]; ok {
		return false, nil
	}
	s.items[rec.Key] = rec
	return true, nil
}

func (s *memStore) Save(_ context.Context, rec IdempotencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[rec.Key] = rec
	return nil
}

func (s *memStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.items[key]; ok && rec.Pending {
		delete(s.items, key)
	}
	return nil
}

func TestIdempotencyReplaysResult(t *testing.T) {
	calls := 0
	reg := commands.NewRegistry()
	commands.Register[bookCmd, *bookResult](reg, "test.book", commands.HandlerFunc[bookCmd, *bookResult](
		func(ctx context.Context, cmd bookCmd) (*bookResult, error) {
			calls++
			return &bookResult{ID: "bk-" + cmd.Guest}, nil
		}))
	store := &memStore{items: map[string]IdempotencyRecord{}}
	bus := ChainCommands(reg, Idempotency(store, nil))
	ctx := context.Background()

	first, err := commands.Dispatch[bookCmd, *bookResult](ctx, bus, bookCmd{IdemKey: "k1", Guest: "ada"})
	require.NoError(t, err)
	second, err := commands.Dispatch[bookCmd, *bookResult](ctx, bus, bookCmd{IdemKey: "k1", Guest: "ada"})
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, first, second)

	_, err = commands.Dispatch[bookCmd, *bookResult](ctx, bus, bookCmd{IdemKey: "k1", Guest: "bob"})
	assert.ErrorIs(t, err, ErrIdempotencyKeyReused)

	_, err = commands.Dispatch[bookCmd, *bookResult](ctx, bus, bookCmd{Guest: "bob"})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestIdempotencyReplaysKnownErrors(t *testing.T) {
	reg := commands.NewRegistry()
	commands.Register[bookCmd, *bookResult](reg, "test.book", commands.HandlerFunc[bookCmd, *bookResult](
		func(ctx context.Context, cmd bookCmd) (*bookResult, error) {
			return nil, errDatesTaken
		}))
	store := &memStore{items: map[string]IdempotencyRecord{}}
	bus := ChainCommands(reg, Idempotency(store, nil, errDatesTaken))

	_, err := bus.Dispatch(context.Background(), bookCmd{IdemKey: "k2"})
	assert.ErrorIs(t, err, errDatesTaken)

	_, err = bus.Dispatch(context.Background(), bookCmd{IdemKey: "k2"})
	var replayed *ReplayedError
	require.ErrorAs(t, err, &replayed)
	assert.ErrorIs(t, err, errDatesTaken)
}

func TestIdempotencyDoesNotStoreTransientErrors(t *testing.T) {
	calls := 0
	reg := commands.NewRegistry()
	commands.Register[bookCmd, *bookResult](reg, "test.book", commands.HandlerFunc[bookCmd, *bookResult](
		func(ctx context.Context, cmd bookCmd) (*bookResult, error) {
			calls++
			if calls == 1 {
				return nil, errors.New("connection reset")
			}
			return &bookResult{ID: "b-1"}, nil
		}))
	store := &memStore{items: map[string]IdempotencyRecord{}}
	bus := ChainCommands(reg, Idempotency(store, nil, errDatesTaken))

	_, err := bus.Dispatch(context.Background(), bookCmd{IdemKey: "k3"})
	require.Error(t, err)
	assert.Empty(t, store.items)

	res, err := bus.Dispatch(context.Background(), bookCmd{IdemKey: "k3"})
	require.NoError(t, err)
	assert.Equal(t, "b-1", res.(*bookResult).ID)
	assert.Equal(t, 2, calls)
}

func TestIdempotencyRunsConcurrentDuplicatesOnce(t *testing.T) {
	var calls atomic.Int32
	entered := make(chan struct{})
	proceed := make(chan struct{})
	reg := commands.NewRegistry()
	commands.Register[bookCmd, *bookResult](reg, "test.book", commands.HandlerFunc[bookCmd, *bookResult](
		func(ctx context.Context, cmd bookCmd) (*bookResult, error) {
			calls.Add(1)
			close(entered)
			<-proceed
			return &bookResult{ID: "b-1"}, nil
		}))
	store := &memStore{items: map[string]IdempotencyRecord{}}
	bus := ChainCommands(reg, Idempotency(store, nil))

	type outcome struct {
		res any
		err error
	}
	first := make(chan outcome, 1)
	go func() {
		res, err := bus.Dispatch(context.Background(), bookCmd{IdemKey: "k4", Guest: "ada"})
		first <- outcome{res: res, err: err}
	}()
	<-entered

	_, err := bus.Dispatch(context.Background(), bookCmd{IdemKey: "k4", Guest: "ada"})
	assert.ErrorIs(t, err, ErrIdempotencyKeyInFlight)
	_, err = bus.Dispatch(context.Background(), bookCmd{IdemKey: "k4", Guest: "bob"})
	assert.ErrorIs(t, err, ErrIdempotencyKeyReused)

	close(proceed)
	out := <-first
	require.NoError(t, out.err)
	assert.Equal(t, "b-1", out.res.(*bookResult).ID)

	res, err := bus.Dispatch(context.Background(), bookCmd{IdemKey: "k4", Guest: "ada"})
	require.NoError(t, err)
	assert.Equal(t, "b-1", res.(*bookResult).ID)
	assert.EqualValues(t, 1, calls.Load())
}

func TestIdempotencyTakesOverStalePending(t *testing.T) {
	calls := 0
	reg := commands.NewRegistry()
	commands.Register[bookCmd, *bookResult](reg, "test.book", commands.HandlerFunc[bookCmd, *bookResult](
		func(ctx context.Context, cmd bookCmd) (*bookResult, error) {
			calls++
			return &bookResult{ID: "b-2"}, nil
		}))
	store := &memStore{items: map[string]IdempotencyRecord{
		"test.book:k5": {Key: "test.book:k5", Command: "test.book", Pending: true, OccurredAt: time.Now().Add(-2 * StalePendingAfter)},
	}}
	bus := ChainCommands(reg, Idempotency(store, nil))

	res, err := bus.Dispatch(context.Background(), bookCmd{IdemKey: "k5"})
	require.NoError(t, err)
	assert.Equal(t, "b-2", res.(*bookResult).ID)
	assert.Equal(t, 1, calls)
	assert.False(t, store.items["test.book:k5"].Pending)
}

type fakeUnit struct {
	committed, rolledBack bool
}

func (u *fakeUnit) Properties() domainproperty.Repository { return nil }
func (u *fakeUnit) Bookings() domainbooking.Repository    { return nil }
func (u *fakeUnit) Outbox() outbox.Outbox                 { return nil }
func (u *fakeUnit) Commit(context.Context) error          { u.committed = true; return nil }
func (u *fakeUnit) Rollback(context.Context) error        { u.rolledBack = true; return nil }

type fakeFactory struct{ units []*fakeUnit }

func (f *fakeFactory) Begin(context.Context, uow.TxOptions) (uow.UnitOfWork, error) {
	u := &fakeUnit{}
	f.units = append(f.units, u)
	return u, nil
}

func TestTransactionCommitsOrRollsBack(t *testing.T) {
	fail := false
	reg := commands.NewRegistry()
	commands.Register[bookCmd, *bookResult](reg, "test.book", commands.HandlerFunc[bookCmd, *bookResult](
		func(ctx context.Context, cmd bookCmd) (*bookResult, error) {
			_, ok := uow.FromContext(ctx)
			require.True(t, ok)
			if fail {
				return nil, errDatesTaken
			}
			return &bookResult{}, nil
		}))
	factory := &fakeFactory{}
	bus := ChainCommands(reg, Transaction(factory, nil))

	_, err := bus.Dispatch(context.Background(), bookCmd{})
	require.NoError(t, err)
	fail = true
	_, err = bus.Dispatch(context.Background(), bookCmd{})
	require.ErrorIs(t, err, errDatesTaken)

	require.Len(t, factory.units, 2)
	assert.True(t, factory.units[0].committed)
	assert.False(t, factory.units[0].rolledBack)
	assert.False(t, factory.units[1].committed)
	assert.True(t, factory.units[1].rolledBack)
}

func TestAuthorizationGuardsAdminCommands(t *testing.T) {
	reg := commands.NewRegistry()
	commands.Register[bookCmd, *bookResult](reg, "test.book", commands.HandlerFunc[bookCmd, *bookResult](
		func(ctx context.Context, cmd bookCmd) (*bookResult, error) { return &bookResult{}, nil }))
	bus := ChainCommands(reg, Authorization(AdminGuard{}))

	_, err := bus.Dispatch(context.Background(), bookCmd{Admin: true})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = bus.Dispatch(WithPrincipal(context.Background(), PrincipalAdmin), bookCmd{Admin: true})
	assert.NoError(t, err)
	_, err = bus.Dispatch(WithPrincipal(context.Background(), PrincipalSystem), bookCmd{Admin: true})
	assert.NoError(t, err)
	_, err = bus.Dispatch(context.Background(), bookCmd{})
	assert.NoError(t, err)
}

type countingFlusher struct{ n int }

func (f *countingFlusher) Flush(context.Context) error { f.n++; return errors.New("broker down") }

func TestOutboxFlushOnlyAfterSuccess(t *testing.T) {
	fail := false
	reg := commands.NewRegistry()
	commands.Register[bookCmd, *bookResult](reg, "test.book", commands.HandlerFunc[bookCmd, *bookResult](
		func(ctx context.Context, cmd bookCmd) (*bookResult, error) {
			if fail {
				return nil, errDatesTaken
			}
			return &bookResult{ID: "ok"}, nil
		}))
	flusher := &countingFlusher{}
	bus := ChainCommands(reg, OutboxFlush(flusher, nil))

	res, err := bus.Dispatch(context.Background(), bookCmd{})
	require.NoError(t, err)
	assert.Equal(t, &bookResult{ID: "ok"}, res)
	fail = true
	_, err = bus.Dispatch(context.Background(), bookCmd{})
	assert.Error(t, err)
	assert.Equal(t, 1, flusher.n)
}

func TestChainOrder(t *testing.T) {
	var trail []string
	mark := func(name string) CommandMiddleware {
		return func(next commands.Bus) commands.Bus {
			return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
				trail = append(trail, name)
				return next.Dispatch(ctx, cmd)
			})
		}
	}
	reg := commands.NewRegistry()
	commands.Register[bookCmd, *bookResult](reg, "test.book", commands.HandlerFunc[bookCmd, *bookResult](
		func(ctx context.Context, cmd bookCmd) (*bookResult, error) { return nil, nil }))

	_, err := ChainCommands(reg, mark("outer"), mark("inner")).Dispatch(context.Background(), bookCmd{})
	require.NoError(t, err)
	assert.Equal(t, []string{"outer", "inner"}, trail)
}

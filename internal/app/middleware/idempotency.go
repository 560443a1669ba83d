package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"time"

	"rentdesk/internal/app/commands"
)

// IdempotentCommand must be implemented by commands that want idempotency guarantees.
type IdempotentCommand interface {
	commands.Command
	IdempotencyKey() string
	ResultPrototype() any // must match the handler result type
}

// Fingerprinted commands reject a reused key carrying a different payload.
type Fingerprinted interface {
	Fingerprint() string
}

type IdempotencyRecord struct {
	Key         string
	Command     string
	Fingerprint string
	Payload     []byte
	Error       string
	Pending     bool
	OccurredAt  time.Time
}

// IdempotencyStore keeps command outcomes by key. Reserve inserts a pending record only
// when the key is free and reports whether it did; Save overwrites it with the outcome;
// Release drops a pending record so the key can be claimed again.
type IdempotencyStore interface {
	Get(ctx context.Context, key string) (IdempotencyRecord, bool, error)
	Reserve(ctx context.Context, rec IdempotencyRecord) (bool, error)
	Save(ctx context.Context, rec IdempotencyRecord) error
	Release(ctx context.Context, key string) error
}

type ResultCodec interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte, out any) error
}

type JSONResultCodec struct{}

func (JSONResultCodec) Encode(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (JSONResultCodec) Decode(data []byte, out any) error {
	return json.Unmarshal(data, out)
}

var (
	ErrIdempotencyKeyReused   = errors.New("middleware: idempotency key reused with a different request")
	ErrIdempotencyKeyInFlight = errors.New("middleware: request with this idempotency key is still in progress")
	errMissingPrototype       = errors.New("middleware: idempotent command requires result prototype")
)

// StalePendingAfter is how long a pending record blocks its key before another request may take it over.
const StalePendingAfter = 2 * time.Minute

// ReplayedError is a failure stored under an idempotency key and returned again.
type ReplayedError struct {
	Message string
	cause   error
}

func (e *ReplayedError) Error() string { return e.Message }

func (e *ReplayedError) Unwrap() error { return e.cause }

// Idempotency claims the key before running a keyed command, stores the outcome and
// replays it for repeated keys. Concurrent requests with the same key get
// ErrIdempotencyKeyInFlight instead of running twice. Only failures matching known are
// stored, and they keep their identity across a replay; any other failure releases the
// key so the client can retry.
func Idempotency(store IdempotencyStore, codec ResultCodec, known ...error) CommandMiddleware {
	if store == nil {
		panic("middleware: idempotency store required")
	}
	if codec == nil {
		codec = JSONResultCodec{}
	}
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			idCmd, ok := cmd.(IdempotentCommand)
			if !ok {
				return next.Dispatch(ctx, cmd)
			}
			key := idCmd.IdempotencyKey()
			if key == "" {
				return next.Dispatch(ctx, cmd)
			}
			key = cmd.Key() + ":" + key
			fingerprint := ""
			if fp, ok := cmd.(Fingerprinted); ok {
				fingerprint = fp.Fingerprint()
			}

			rec, found, err := store.Get(ctx, key)
			if err != nil {
				return nil, err
			}
			if found && rec.Pending && time.Since(rec.OccurredAt) > StalePendingAfter {
				if err := store.Release(ctx, key); err != nil {
					return nil, err
				}
				found = false
			}
			if found {
				return replayRecord(rec, fingerprint, idCmd, codec, known)
			}

			record := IdempotencyRecord{
				Key:         key,
				Command:     cmd.Key(),
				Fingerprint: fingerprint,
				Pending:     true,
				OccurredAt:  time.Now().UTC(),
			}
			claimed, err := store.Reserve(ctx, record)
			if err != nil {
				return nil, err
			}
			if !claimed {
				rec, found, err := store.Get(ctx, key)
				if err != nil {
					return nil, err
				}
				if !found {
					return nil, ErrIdempotencyKeyInFlight
				}
				return replayRecord(rec, fingerprint, idCmd, codec, known)
			}

			result, err := next.Dispatch(ctx, cmd)
			// the outcome is recorded even when the caller has gone away
			storeCtx := context.WithoutCancel(ctx)
			record.Pending = false
			record.OccurredAt = time.Now().UTC()
			if err != nil {
				if !isKnown(err, known) {
					if relErr := store.Release(storeCtx, key); relErr != nil {
						return nil, errors.Join(err, relErr)
					}
					return nil, err
				}
				record.Error = err.Error()
				if saveErr := store.Save(storeCtx, record); saveErr != nil {
					return nil, errors.Join(err, saveErr)
				}
				return nil, err
			}
			if result != nil {
				payload, encErr := codec.Encode(result)
				if encErr != nil {
					_ = store.Release(storeCtx, key)
					return nil, encErr
				}
				record.Payload = payload
			}
			if saveErr := store.Save(storeCtx, record); saveErr != nil {
				return nil, saveErr
			}
			return result, nil
		})
	}
}

func replayRecord(rec IdempotencyRecord, fingerprint string, cmd IdempotentCommand, codec ResultCodec, known []error) (any, error) {
	if rec.Fingerprint != fingerprint {
		return nil, ErrIdempotencyKeyReused
	}
	if rec.Pending {
		return nil, ErrIdempotencyKeyInFlight
	}
	if rec.Error != "" {
		return nil, replay(rec.Error, known)
	}
	proto := cmd.ResultPrototype()
	if proto == nil {
		return nil, errMissingPrototype
	}
	if err := codec.Decode(rec.Payload, proto); err != nil {
		return nil, err
	}
	return normalizePrototype(proto), nil
}

func isKnown(err error, known []error) bool {
	for _, k := range known {
		if k != nil && errors.Is(err, k) {
			return true
		}
	}
	return false
}

func replay(message string, known []error) error {
	for _, k := range known {
		if k != nil && strings.Contains(message, k.Error()) {
			return &ReplayedError{Message: message, cause: k}
		}
	}
	return &ReplayedError{Message: message}
}

func normalizePrototype(proto any) any {
	rv := reflect.ValueOf(proto)
	if rv.Kind() == reflect.Ptr && !rv.IsNil() {
		return rv.Interface()
	}
	return proto
}

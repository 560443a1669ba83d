package middleware

import (
	"context"
	"errors"

	"rentdesk/internal/app/commands"
	"rentdesk/internal/app/queries"
)

var ErrForbidden = errors.New("middleware: operation requires an administrator")

type Authorizer interface {
	Authorize(ctx context.Context, message any) error
}

// AdminOnly marks messages reserved to operators (override updates, recomputes, leases).
type AdminOnly interface {
	RequiresAdmin() bool
}

type principalKey struct{}

type Principal string

const (
	PrincipalAnonymous Principal = ""
	PrincipalAdmin     Principal = "admin"
	PrincipalSystem    Principal = "system"
)

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func PrincipalFrom(ctx context.Context) Principal {
	p, _ := ctx.Value(principalKey{}).(Principal)
	return p
}

// AdminGuard lets admin-only messages through for the admin and system principals.
type AdminGuard struct{}

func (AdminGuard) Authorize(ctx context.Context, message any) error {
	guarded, ok := message.(AdminOnly)
	if !ok || !guarded.RequiresAdmin() {
		return nil
	}
	switch PrincipalFrom(ctx) {
	case PrincipalAdmin, PrincipalSystem:
		return nil
	default:
		return ErrForbidden
	}
}

func Authorization(a Authorizer) CommandMiddleware {
	if a == nil {
		panic("middleware: authorizer required")
	}
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			if err := a.Authorize(ctx, cmd); err != nil {
				return nil, err
			}
			return next.Dispatch(ctx, cmd)
		})
	}
}

func QueryAuthorization(a Authorizer) QueryMiddleware {
	if a == nil {
		panic("middleware: authorizer required")
	}
	return func(next queries.Bus) queries.Bus {
		return queryFunc(func(ctx context.Context, q queries.Query) (any, error) {
			if err := a.Authorize(ctx, q); err != nil {
				return nil, err
			}
			return next.Ask(ctx, q)
		})
	}
}

// Package identity supplies the signed-in owner to the persistence layer.
package identity

import (
	"context"
	"errors"
	"strings"

	"github.com/alizenart/closeted/internal/core/domain"
)

type ownerKey struct{}

// WithOwner attaches the authenticated owner to ctx.
func WithOwner(ctx context.Context, ownerID string) context.Context {
	return context.WithValue(ctx, ownerKey{}, strings.TrimSpace(ownerID))
}

func FromContext(ctx context.Context) (string, bool) {
	owner, ok := ctx.Value(ownerKey{}).(string)
	return owner, ok && owner != ""
}

// Context reads the owner placed on the request context by the auth middleware.
type Context struct{}

func (Context) OwnerID(ctx context.Context) (string, error) {
	owner, ok := FromContext(ctx)
	if !ok {
		return "", domain.WrapError(domain.ErrUnauthorized, "resolve owner", errors.New("no owner on context"))
	}
	return owner, nil
}

// Static is a fixed owner for the CLI and single-user deployments. A context
// owner still wins so one process can serve both paths.
type Static struct {
	Owner string
}

func (s Static) OwnerID(ctx context.Context) (string, error) {
	if owner, ok := FromContext(ctx); ok {
		return owner, nil
	}
	owner := strings.TrimSpace(s.Owner)
	if owner == "" {
		return "", domain.WrapError(domain.ErrUnauthorized, "resolve owner", errors.New("no static owner configured"))
	}
	return owner, nil
}

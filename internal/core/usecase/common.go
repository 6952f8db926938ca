package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/alizenart/closeted/internal/core/domain"
	"github.com/alizenart/closeted/internal/core/layout"
	"github.com/alizenart/closeted/internal/core/ports"
	"github.com/alizenart/closeted/internal/infrastructure/resilience"
)

// isoMillis matches the sidecar timestamps written by earlier clients.
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

func resolveOwner(ctx context.Context, identity ports.IdentityProvider, operation string) (string, error) {
	if identity == nil {
		return "", domain.WrapError(domain.ErrUnauthorized, operation, errors.New("no identity provider"))
	}
	owner, err := identity.OwnerID(ctx)
	if err != nil {
		if domain.IsKind(err, domain.ErrUnauthorized) {
			return "", err
		}
		return "", domain.WrapError(domain.ErrUnauthorized, operation, err)
	}
	if err := layout.ValidateOwner(owner); err != nil {
		return "", domain.WrapError(domain.ErrUnauthorized, operation, err)
	}
	return owner, nil
}

// withRetryLog keeps the caller's policy and adds the retry_attempt log line.
func withRetryLog(policy resilience.Policy, operation string) resilience.Policy {
	out := policy
	next := policy.OnRetry
	out.OnRetry = func(attempt int, wait time.Duration, err error) {
		slog.Warn("retry_attempt",
			"operation", operation,
			"attempt", attempt,
			"max_attempts", policy.MaxAttempts,
			"backoff_ms", float64(wait.Microseconds())/1000.0,
			"error", err,
		)
		if next != nil {
			next(attempt, wait, err)
		}
	}
	return out
}

// retryableRead gives up on answers that another attempt cannot change.
func retryableRead(err error) bool {
	switch {
	case domain.IsKind(err, domain.ErrNotFound),
		domain.IsKind(err, domain.ErrInvalidInput),
		domain.IsKind(err, domain.ErrUnauthorized),
		domain.IsMalformed(err),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return false
	default:
		return true
	}
}

type noopObserver struct{}

func (noopObserver) AssemblyFailed(domain.Namespace, error)                {}
func (noopObserver) FolderDropped(domain.Namespace, string, string, error) {}
func (noopObserver) EnrichmentFailed(error)                                {}
func (noopObserver) UploadFinished(domain.Namespace, int, error)           {}

func observerOrNoop(observer ports.PersistenceObserver) ports.PersistenceObserver {
	if observer == nil {
		return noopObserver{}
	}
	return observer
}

package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alizenart/closeted/internal/core/domain"
	"github.com/alizenart/closeted/internal/core/ports"
	"github.com/alizenart/closeted/internal/infrastructure/resilience"
)

// IndexProjector applies record-indexed events to the structured index.
// Events are at-least-once, so the indexer must be idempotent.
type IndexProjector struct {
	indexer ports.RecordIndexer
	policy  resilience.Policy
	now     func() time.Time
}

func NewIndexProjector(indexer ports.RecordIndexer, policy resilience.Policy) *IndexProjector {
	return &IndexProjector{indexer: indexer, policy: policy, now: time.Now}
}

// Project returns nil for entries that can never be stored so the
// subscriber does not redeliver them.
func (p *IndexProjector) Project(ctx context.Context, entry domain.IndexEntry) error {
	policy := withRetryLog(p.policy, "index.project")
	policy.Retryable = retryableUpload

	err := resilience.Do(ctx, func(ctx context.Context) error {
		return p.indexer.IndexRecord(ctx, entry)
	}, policy)
	if domain.IsKind(err, domain.ErrInvalidInput) {
		slog.Warn("index_event_rejected", "record_id", entry.RecordID, "namespace", entry.Namespace, "error", err)
		return nil
	}
	if err != nil {
		return fmt.Errorf("project index entry %s: %w", entry.RecordID, err)
	}

	slog.Debug("index_event_projected",
		"record_id", entry.RecordID,
		"namespace", entry.Namespace,
		"lag_ms", p.now().Sub(entry.CreatedAt).Milliseconds(),
	)
	return nil
}

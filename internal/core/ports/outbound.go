package ports

import (
	"context"

	"github.com/alizenart/closeted/internal/core/domain"
)

// IdentityProvider supplies the signed-in owner. Absence is domain.ErrUnauthorized.
type IdentityProvider interface {
	OwnerID(ctx context.Context) (string, error)
}

// BlobStore keeps opaque blobs under slash-separated paths.
type BlobStore interface {
	Put(ctx context.Context, path string, data []byte, contentType string) error
	// ResolveURL fails with domain.ErrNotFound when nothing is stored at path.
	ResolveURL(ctx context.Context, path string) (string, error)
	// ListChildPrefixes returns the direct child folders of prefix, each ending in "/".
	ListChildPrefixes(ctx context.Context, prefix string) ([]string, error)
}

// Fetcher downloads the bytes behind a resolved URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// ImageSource reads the bytes of a local image reference before upload.
type ImageSource interface {
	ReadImage(ctx context.Context, ref string) ([]byte, error)
}

// ImageAnalyzer derives clothing tags from an uploaded image.
type ImageAnalyzer interface {
	Analyze(ctx context.Context, imageURL string) (domain.ClothingAnalysis, error)
}

// TimerChannel is the realtime key-value channel for wishlist decision timers.
type TimerChannel interface {
	Set(ctx context.Context, key string, timer domain.DecisionTimer) error
	// Get fails with domain.ErrNotFound when no timer was started.
	Get(ctx context.Context, key string) (domain.DecisionTimer, error)
	Subscribe(ctx context.Context, key string, fn func(domain.DecisionTimer)) (func(), error)
}

// RecordIndexer writes an index row for a freshly uploaded record.
type RecordIndexer interface {
	IndexRecord(ctx context.Context, entry domain.IndexEntry) error
}

// RecordIndexReader answers aggregate questions from the index.
type RecordIndexReader interface {
	CountByOwner(ctx context.Context, ownerID string) ([]domain.NamespaceCount, error)
}

// PersistenceObserver receives the failures the read path hides from callers.
type PersistenceObserver interface {
	AssemblyFailed(ns domain.Namespace, err error)
	FolderDropped(ns domain.Namespace, recordID, reason string, err error)
	EnrichmentFailed(err error)
	UploadFinished(ns domain.Namespace, attempts int, err error)
}

// IndexEventSubscriber consumes index entries published by the API.
type IndexEventSubscriber interface {
	SubscribeRecordIndexed(ctx context.Context, handler func(context.Context, domain.IndexEntry) error) error
}

package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/alizenart/closeted/internal/core/domain"
	"github.com/alizenart/closeted/internal/core/layout"
	"github.com/alizenart/closeted/internal/core/ports"
	"github.com/alizenart/closeted/internal/infrastructure/resilience"
)

const (
	DropMalformed  = "malformed"
	DropIncomplete = "incomplete"
	DropUnreadable = "unreadable"
)

// RecordAssembler rebuilds typed records from the blob hierarchy.
type RecordAssembler struct {
	layout   *layout.Manager
	store    ports.BlobStore
	fetcher  ports.Fetcher
	identity ports.IdentityProvider
	observer ports.PersistenceObserver
	policy   resilience.Policy
}

func NewRecordAssembler(
	store ports.BlobStore,
	fetcher ports.Fetcher,
	identity ports.IdentityProvider,
	observer ports.PersistenceObserver,
	policy resilience.Policy,
) *RecordAssembler {
	return &RecordAssembler{
		layout:   layout.New(store),
		store:    store,
		fetcher:  fetcher,
		identity: identity,
		observer: observerOrNoop(observer),
		policy:   policy,
	}
}

// Outfits returns the signed-in owner's outfits, newest first. Read failures
// yield an empty slice and are reported to the observer.
func (a *RecordAssembler) Outfits(ctx context.Context) []domain.Outfit {
	owner, ok := a.ownerForListing(ctx, domain.NamespaceOutfits)
	if !ok {
		return []domain.Outfit{}
	}
	return assemble(ctx, a, domain.NamespaceOutfits, owner, domain.DecodeOutfitSidecar, withOutfitBase)
}

// Wishlist returns the signed-in owner's wishlist items, newest first.
func (a *RecordAssembler) Wishlist(ctx context.Context) []domain.WishlistItem {
	owner, ok := a.ownerForListing(ctx, domain.NamespaceWishlist)
	if !ok {
		return []domain.WishlistItem{}
	}
	return assemble(ctx, a, domain.NamespaceWishlist, owner, domain.DecodeWishlistSidecar, withWishlistBase)
}

// Assemble is the namespace-generic form of Outfits and Wishlist.
func (a *RecordAssembler) Assemble(ctx context.Context, ns domain.Namespace) []domain.Record {
	switch ns {
	case domain.NamespaceOutfits:
		return toRecords(a.Outfits(ctx))
	case domain.NamespaceWishlist:
		return toRecords(a.Wishlist(ctx))
	default:
		return []domain.Record{}
	}
}

func (a *RecordAssembler) Outfit(ctx context.Context, id string) (domain.Outfit, error) {
	return loadOne(ctx, a, domain.NamespaceOutfits, id, domain.DecodeOutfitSidecar, withOutfitBase)
}

func (a *RecordAssembler) WishlistItem(ctx context.Context, id string) (domain.WishlistItem, error) {
	return loadOne(ctx, a, domain.NamespaceWishlist, id, domain.DecodeWishlistSidecar, withWishlistBase)
}

func (a *RecordAssembler) ownerForListing(ctx context.Context, ns domain.Namespace) (string, bool) {
	owner, err := resolveOwner(ctx, a.identity, "assemble "+string(ns))
	if err != nil {
		slog.Warn("assembly_unauthenticated", "namespace", ns, "error", err)
		return "", false
	}
	return owner, true
}

func assemble[T domain.Record](
	ctx context.Context,
	a *RecordAssembler,
	ns domain.Namespace,
	owner string,
	decode func([]byte) (T, error),
	finish func(T, domain.RecordBase) T,
) []T {
	policy := withRetryLog(a.policy, "assemble."+string(ns))
	records, err := resilience.Retry(ctx, func(ctx context.Context) ([]T, error) {
		return assemblePass(ctx, a, ns, owner, decode, finish)
	}, policy)
	if err != nil {
		a.observer.AssemblyFailed(ns, err)
		slog.Error("assembly_failed", "namespace", ns, "owner_id", owner, "error", err)
		return []T{}
	}
	return records
}

// assemblePass enumerates once and loads every folder concurrently. Each
// goroutine owns one slot, so the join needs no lock.
func assemblePass[T domain.Record](
	ctx context.Context,
	a *RecordAssembler,
	ns domain.Namespace,
	owner string,
	decode func([]byte) (T, error),
	finish func(T, domain.RecordBase) T,
) ([]T, error) {
	folders, err := a.layout.RecordFolders(ctx, ns, owner)
	if err != nil {
		return nil, err
	}

	slots := make([]T, len(folders))
	loaded := make([]bool, len(folders))
	var wg sync.WaitGroup
	for i, folder := range folders {
		wg.Add(1)
		go func() {
			defer wg.Done()
			record, err := loadRecord(ctx, a, ns, owner, folder.RecordID, decode, finish)
			if err != nil {
				a.drop(ns, folder.RecordID, err)
				return
			}
			slots[i] = record
			loaded[i] = true
		}()
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]T, 0, len(folders))
	for i := range slots {
		if loaded[i] {
			out = append(out, slots[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Base().CreatedAt.After(out[j].Base().CreatedAt)
	})
	return out, nil
}

func loadOne[T domain.Record](
	ctx context.Context,
	a *RecordAssembler,
	ns domain.Namespace,
	id string,
	decode func([]byte) (T, error),
	finish func(T, domain.RecordBase) T,
) (T, error) {
	var zero T
	owner, err := resolveOwner(ctx, a.identity, "get "+string(ns))
	if err != nil {
		return zero, err
	}
	if err := layout.ValidateSegment("record id", id); err != nil {
		return zero, err
	}

	policy := withRetryLog(a.policy, "get."+string(ns))
	policy.Retryable = retryableRead
	return resilience.Retry(ctx, func(ctx context.Context) (T, error) {
		return loadRecord(ctx, a, ns, owner, id, decode, finish)
	}, policy)
}

func loadRecord[T domain.Record](
	ctx context.Context,
	a *RecordAssembler,
	ns domain.Namespace,
	owner, id string,
	decode func([]byte) (T, error),
	finish func(T, domain.RecordBase) T,
) (T, error) {
	var zero T
	paths := layout.RecordPaths(ns, owner, id)

	imageURL, err := a.store.ResolveURL(ctx, paths.Image)
	if err != nil {
		return zero, fmt.Errorf("resolve image: %w", err)
	}
	metadataURL, err := a.store.ResolveURL(ctx, paths.Metadata)
	if err != nil {
		return zero, fmt.Errorf("resolve metadata: %w", err)
	}
	raw, err := a.fetcher.Fetch(ctx, metadataURL)
	if err != nil {
		return zero, fmt.Errorf("fetch metadata: %w", err)
	}

	record, err := decode(raw)
	if err != nil {
		var malformedErr *domain.MalformedRecordError
		if errors.As(err, &malformedErr) {
			malformedErr.Path = paths.Metadata
		}
		return zero, err
	}

	base := record.Base()
	if base.OwnerID != "" && base.OwnerID != owner {
		return zero, &domain.MalformedRecordError{Path: paths.Metadata, Field: "ownerId", Reason: "belongs to another owner"}
	}
	return finish(record, domain.RecordBase{
		ID:        id,
		ImageURL:  imageURL,
		CreatedAt: base.CreatedAt,
		OwnerID:   owner,
	}), nil
}

func (a *RecordAssembler) drop(ns domain.Namespace, recordID string, err error) {
	reason := dropReason(err)
	a.observer.FolderDropped(ns, recordID, reason, err)
	slog.Warn("record_dropped", "namespace", ns, "record_id", recordID, "reason", reason, "error", err)
}

func dropReason(err error) string {
	var malformedErr *domain.MalformedRecordError
	switch {
	case errors.As(err, &malformedErr):
		return DropMalformed
	case domain.IsKind(err, domain.ErrNotFound):
		return DropIncomplete
	default:
		return DropUnreadable
	}
}

func withOutfitBase(o domain.Outfit, base domain.RecordBase) domain.Outfit {
	o.RecordBase = base
	return o
}

func withWishlistBase(w domain.WishlistItem, base domain.RecordBase) domain.WishlistItem {
	w.RecordBase = base
	return w
}

func toRecords[T domain.Record](items []T) []domain.Record {
	out := make([]domain.Record, 0, len(items))
	for _, item := range items {
		out = append(out, item)
	}
	return out
}

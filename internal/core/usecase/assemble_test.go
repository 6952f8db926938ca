package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/alizenart/closeted/internal/core/domain"
)

func newAssemblerForTest(store *memBlobStoreFake, observer *observerFake) *RecordAssembler {
	return NewRecordAssembler(store, &memFetcherFake{store: store}, identityFake{owner: "u1"}, observer, fastPolicy())
}

func TestAssembleSkipsFoldersWithoutSidecar(t *testing.T) {
	store := newMemBlobStoreFake()
	for i := 0; i < 5; i++ {
		seedOutfit(store, fmt.Sprintf("r%d", i), fmt.Sprintf("2024-01-0%dT00:00:00Z", i+1), "look", "tee")
	}
	store.seed("images/u1/orphan-1/image.jpg", "jpeg")
	store.seed("images/u1/orphan-2/image.jpg", "jpeg")

	observer := &observerFake{}
	outfits := newAssemblerForTest(store, observer).Outfits(context.Background())
	if len(outfits) != 5 {
		t.Fatalf("expected 5 records, got %d", len(outfits))
	}
	if len(observer.dropped) != 2 {
		t.Fatalf("expected 2 dropped folders, got %+v", observer.dropped)
	}
	for _, drop := range observer.dropped {
		if drop.reason != DropIncomplete {
			t.Fatalf("expected incomplete drop, got %+v", drop)
		}
	}
}

func TestAssembleSkipsFoldersWithoutImage(t *testing.T) {
	store := newMemBlobStoreFake()
	seedOutfit(store, "before", "2024-01-01T00:00:00Z", "first", "tee")
	store.seed("images/u1/no-image/metadata.json", outfitSidecarJSON("2024-01-02T00:00:00Z", "lost", "tee"))
	seedOutfit(store, "after", "2024-01-03T00:00:00Z", "last", "tee")

	observer := &observerFake{}
	outfits := newAssemblerForTest(store, observer).Outfits(context.Background())
	if len(outfits) != 2 || outfits[0].ID != "after" || outfits[1].ID != "before" {
		t.Fatalf("unexpected outfits: %+v", outfits)
	}
	if len(observer.dropped) != 1 {
		t.Fatalf("expected 1 dropped folder, got %+v", observer.dropped)
	}
	if drop := observer.dropped[0]; drop.recordID != "no-image" || drop.reason != DropIncomplete {
		t.Fatalf("expected incomplete drop of no-image, got %+v", drop)
	}
}

func TestAssembleDropsMalformedSidecarSpecifically(t *testing.T) {
	store := newMemBlobStoreFake()
	seedOutfit(store, "good", "2024-01-01T00:00:00Z", "ok", "tee")
	store.seed("images/u1/bad/image.jpg", "jpeg")
	store.seed("images/u1/bad/metadata.json", `{"rating": 42, "createdAt": "2024-01-02T00:00:00Z"}`)

	observer := &observerFake{}
	outfits := newAssemblerForTest(store, observer).Outfits(context.Background())
	if len(outfits) != 1 || outfits[0].ID != "good" {
		t.Fatalf("unexpected outfits: %+v", outfits)
	}
	if len(observer.dropped) != 1 || observer.dropped[0].reason != DropMalformed {
		t.Fatalf("expected malformed drop, got %+v", observer.dropped)
	}
}

func TestAssembleDropsUnreadableFolderWithoutAbortingOthers(t *testing.T) {
	store := newMemBlobStoreFake()
	seedOutfit(store, "a", "2024-01-01T00:00:00Z", "a", "tee")
	seedOutfit(store, "b", "2024-01-02T00:00:00Z", "b", "tee")
	fetcher := &memFetcherFake{store: store, fail: map[string]error{
		"images/u1/a/metadata.json": errors.New("connection reset"),
	}}
	observer := &observerFake{}

	outfits := NewRecordAssembler(store, fetcher, identityFake{owner: "u1"}, observer, fastPolicy()).Outfits(context.Background())
	if len(outfits) != 1 || outfits[0].ID != "b" {
		t.Fatalf("unexpected outfits: %+v", outfits)
	}
	if len(observer.dropped) != 1 || observer.dropped[0].reason != DropUnreadable {
		t.Fatalf("expected unreadable drop, got %+v", observer.dropped)
	}
}

func TestAssembleReturnsEmptyWhenEnumerationAlwaysFails(t *testing.T) {
	store := newMemBlobStoreFake()
	seedOutfit(store, "a", "2024-01-01T00:00:00Z", "a", "tee")
	errOutage := errors.New("storage outage")
	store.listErr = func(int) error { return errOutage }

	observer := &observerFake{}
	outfits := newAssemblerForTest(store, observer).Outfits(context.Background())
	if outfits == nil || len(outfits) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", outfits)
	}
	if store.lists != 3 {
		t.Fatalf("expected 3 enumeration attempts, got %d", store.lists)
	}
	if len(observer.assemblyErrors) != 1 || !errors.Is(observer.assemblyErrors[0], errOutage) {
		t.Fatalf("expected swallowed error to reach observer, got %+v", observer.assemblyErrors)
	}
}

func TestAssembleRetriesWholePass(t *testing.T) {
	store := newMemBlobStoreFake()
	seedOutfit(store, "a", "2024-01-01T00:00:00Z", "a", "tee")
	store.listErr = func(call int) error {
		if call == 1 {
			return errors.New("throttled")
		}
		return nil
	}

	outfits := newAssemblerForTest(store, &observerFake{}).Outfits(context.Background())
	if len(outfits) != 1 {
		t.Fatalf("expected record after retry, got %d", len(outfits))
	}
	if store.lists != 2 {
		t.Fatalf("expected 2 enumerations, got %d", store.lists)
	}
}

func TestAssembleSortsNewestFirstAndKeepsEnumerationOrderOnTies(t *testing.T) {
	store := newMemBlobStoreFake()
	seedOutfit(store, "old", "2024-01-01T00:00:00Z", "old", "")
	seedOutfit(store, "tie-1", "2024-02-01T00:00:00Z", "tie-1", "")
	seedOutfit(store, "new", "2024-03-01T00:00:00Z", "new", "")
	seedOutfit(store, "tie-2", "2024-02-01T00:00:00Z", "tie-2", "")

	outfits := newAssemblerForTest(store, &observerFake{}).Outfits(context.Background())
	want := []string{"new", "tie-1", "tie-2", "old"}
	if len(outfits) != len(want) {
		t.Fatalf("expected %d outfits, got %d", len(want), len(outfits))
	}
	for i, id := range want {
		if outfits[i].ID != id {
			t.Fatalf("position %d: expected %s, got %s", i, id, outfits[i].ID)
		}
	}
}

func TestAssembleResolvesImageURLFromLocation(t *testing.T) {
	store := newMemBlobStoreFake()
	store.seed("images/u1/a/image.jpg", "jpeg")
	store.seed("images/u1/a/metadata.json", `{"createdAt":"2024-01-01T00:00:00Z","imageUrl":"https://stale.example/x.jpg"}`)

	outfits := newAssemblerForTest(store, &observerFake{}).Outfits(context.Background())
	if len(outfits) != 1 {
		t.Fatalf("expected 1 outfit, got %d", len(outfits))
	}
	if outfits[0].ImageURL != "mem://images/u1/a/image.jpg" {
		t.Fatalf("expected resolved image url, got %s", outfits[0].ImageURL)
	}
	if outfits[0].OwnerID != "u1" {
		t.Fatalf("expected owner from path, got %q", outfits[0].OwnerID)
	}
}

func TestAssembleDropsRecordOfAnotherOwner(t *testing.T) {
	store := newMemBlobStoreFake()
	store.seed("images/u1/a/image.jpg", "jpeg")
	store.seed("images/u1/a/metadata.json", `{"createdAt":"2024-01-01T00:00:00Z","ownerId":"u2"}`)

	observer := &observerFake{}
	outfits := newAssemblerForTest(store, observer).Outfits(context.Background())
	if len(outfits) != 0 {
		t.Fatalf("expected foreign record to be dropped, got %+v", outfits)
	}
	if len(observer.dropped) != 1 || observer.dropped[0].reason != DropMalformed {
		t.Fatalf("expected malformed drop, got %+v", observer.dropped)
	}
}

func TestAssembleNamespacesAreSeparate(t *testing.T) {
	store := newMemBlobStoreFake()
	seedOutfit(store, "outfit-1", "2024-01-01T00:00:00Z", "look", "tee")
	store.seed("images/wishlist/u1/wish-1/image.jpg", "jpeg")
	store.seed("images/wishlist/u1/wish-1/metadata.json", `{"name":"boots","createdAt":"2024-01-02T00:00:00Z"}`)

	assembler := newAssemblerForTest(store, &observerFake{})
	outfits := assembler.Outfits(context.Background())
	wishlist := assembler.Wishlist(context.Background())
	if len(outfits) != 1 || outfits[0].ID != "outfit-1" {
		t.Fatalf("unexpected outfits: %+v", outfits)
	}
	if len(wishlist) != 1 || wishlist[0].Name != "boots" {
		t.Fatalf("unexpected wishlist: %+v", wishlist)
	}

	records := assembler.Assemble(context.Background(), domain.NamespaceWishlist)
	if len(records) != 1 || records[0].Namespace() != domain.NamespaceWishlist {
		t.Fatalf("unexpected generic records: %+v", records)
	}
}

func TestAssembleWithoutIdentityReturnsEmptyWithoutListing(t *testing.T) {
	store := newMemBlobStoreFake()
	seedOutfit(store, "a", "2024-01-01T00:00:00Z", "a", "tee")

	assembler := NewRecordAssembler(store, &memFetcherFake{store: store}, identityFake{}, nil, fastPolicy())
	outfits := assembler.Outfits(context.Background())
	if len(outfits) != 0 {
		t.Fatalf("expected empty result, got %d", len(outfits))
	}
	if store.lists != 0 {
		t.Fatalf("expected no enumeration, got %d", store.lists)
	}
}

func TestGetOutfitReturnsNotFoundWithoutRetry(t *testing.T) {
	store := newMemBlobStoreFake()
	_, err := newAssemblerForTest(store, &observerFake{}).Outfit(context.Background(), "missing")
	if !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetWishlistItemRequiresIdentity(t *testing.T) {
	store := newMemBlobStoreFake()
	assembler := NewRecordAssembler(store, &memFetcherFake{store: store}, identityFake{}, nil, fastPolicy())
	_, err := assembler.WishlistItem(context.Background(), "x")
	if !domain.IsKind(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

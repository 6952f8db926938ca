package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/alizenart/closeted/internal/core/domain"
)

type indexReaderFake struct {
	counts []domain.NamespaceCount
	err    error
	owner  string
}

func (f *indexReaderFake) CountByOwner(_ context.Context, owner string) ([]domain.NamespaceCount, error) {
	f.owner = owner
	return f.counts, f.err
}

func TestStatsUseIndexWhenConfigured(t *testing.T) {
	index := &indexReaderFake{counts: []domain.NamespaceCount{{Namespace: domain.NamespaceOutfits, Records: 12}}}
	counts, err := NewStatsService(index, &closetReaderFake{}, identityFake{owner: "u1"}).Counts(context.Background())
	if err != nil {
		t.Fatalf("counts: %v", err)
	}
	if index.owner != "u1" || len(counts) != 1 || counts[0].Records != 12 {
		t.Fatalf("unexpected counts: %+v (owner %q)", counts, index.owner)
	}
}

func TestStatsFallBackToAssembledLists(t *testing.T) {
	reader := &closetReaderFake{
		outfits:  []domain.Outfit{outfitFixture("a", 1, 1, "", ""), outfitFixture("b", 2, 1, "", "")},
		wishlist: []domain.WishlistItem{{RecordBase: domain.RecordBase{ID: "w"}}},
	}
	counts, err := NewStatsService(nil, reader, identityFake{owner: "u1"}).Counts(context.Background())
	if err != nil {
		t.Fatalf("counts: %v", err)
	}
	if counts[0].Records != 2 || counts[1].Records != 1 {
		t.Fatalf("unexpected counts: %+v", counts)
	}
}

func TestStatsPropagateIndexErrors(t *testing.T) {
	errDB := errors.New("db down")
	_, err := NewStatsService(&indexReaderFake{err: errDB}, &closetReaderFake{}, identityFake{owner: "u1"}).Counts(context.Background())
	if !errors.Is(err, errDB) {
		t.Fatalf("expected index error, got %v", err)
	}
}

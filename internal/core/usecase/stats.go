package usecase

import (
	"context"
	"fmt"

	"github.com/alizenart/closeted/internal/core/domain"
	"github.com/alizenart/closeted/internal/core/ports"
)

// StatsService counts records, from the index when one is configured.
type StatsService struct {
	index    ports.RecordIndexReader
	reader   ports.ClosetReader
	identity ports.IdentityProvider
}

func NewStatsService(index ports.RecordIndexReader, reader ports.ClosetReader, identity ports.IdentityProvider) *StatsService {
	return &StatsService{index: index, reader: reader, identity: identity}
}

func (s *StatsService) Counts(ctx context.Context) ([]domain.NamespaceCount, error) {
	owner, err := resolveOwner(ctx, s.identity, "count records")
	if err != nil {
		return nil, err
	}
	if s.index != nil {
		counts, err := s.index.CountByOwner(ctx, owner)
		if err != nil {
			return nil, fmt.Errorf("count records: %w", err)
		}
		return counts, nil
	}
	return []domain.NamespaceCount{
		{Namespace: domain.NamespaceOutfits, Records: len(s.reader.Outfits(ctx))},
		{Namespace: domain.NamespaceWishlist, Records: len(s.reader.Wishlist(ctx))},
	}, nil
}

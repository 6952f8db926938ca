package usecase

import (
	"context"

	"github.com/alizenart/closeted/internal/core/domain"
	"github.com/alizenart/closeted/internal/core/ports"
)

type RecommendationService struct {
	reader ports.ClosetReader
}

func NewRecommendationService(reader ports.ClosetReader) *RecommendationService {
	return &RecommendationService{reader: reader}
}

func (s *RecommendationService) SimilarToWishlistItem(ctx context.Context, itemID string) ([]ports.ScoredOutfit, error) {
	item, err := s.reader.WishlistItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	outfits := s.reader.Outfits(ctx)
	return toScoredOutfits(Rank(outfits, outfitAnalysis, item.ClothingAnalysis)), nil
}

func (s *RecommendationService) SimilarToOutfit(ctx context.Context, outfitID string) ([]ports.ScoredOutfit, error) {
	reference, err := s.reader.Outfit(ctx, outfitID)
	if err != nil {
		return nil, err
	}

	all := s.reader.Outfits(ctx)
	others := make([]domain.Outfit, 0, len(all))
	for _, outfit := range all {
		if outfit.ID != reference.ID {
			others = append(others, outfit)
		}
	}
	return toScoredOutfits(Rank(others, outfitAnalysis, reference.ClothingAnalysis)), nil
}

func outfitAnalysis(o domain.Outfit) domain.ClothingAnalysis {
	return o.ClothingAnalysis
}

func toScoredOutfits(ranked []Scored[domain.Outfit]) []ports.ScoredOutfit {
	out := make([]ports.ScoredOutfit, 0, len(ranked))
	for _, item := range ranked {
		out = append(out, ports.ScoredOutfit{Outfit: item.Item, Score: item.Score})
	}
	return out
}

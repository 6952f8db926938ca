package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/alizenart/closeted/internal/core/domain"
	"github.com/alizenart/closeted/internal/core/ports"
)

const (
	SortByDate   = "date"
	SortByRating = "rating"
	SortByGenre  = "genre"

	OrderAsc  = "asc"
	OrderDesc = "desc"
)

type ClosetService struct {
	reader ports.ClosetReader
}

func NewClosetService(reader ports.ClosetReader) *ClosetService {
	return &ClosetService{reader: reader}
}

// Browse filters outfits by a free-text search over details and genre, then sorts them.
// Date sorting uses the user-picked date and falls back to createdAt.
func (s *ClosetService) Browse(ctx context.Context, query ports.ClosetQuery) ([]domain.Outfit, error) {
	sortBy, order, err := normalizeClosetQuery(query)
	if err != nil {
		return nil, err
	}

	outfits := filterOutfits(s.reader.Outfits(ctx), query.Search)
	sort.SliceStable(outfits, func(i, j int) bool {
		cmp := compareOutfits(outfits[i], outfits[j], sortBy)
		if order == OrderAsc {
			return cmp < 0
		}
		return cmp > 0
	})
	return outfits, nil
}

func normalizeClosetQuery(query ports.ClosetQuery) (string, string, error) {
	sortBy := strings.ToLower(strings.TrimSpace(query.SortBy))
	if sortBy == "" {
		sortBy = SortByDate
	}
	switch sortBy {
	case SortByDate, SortByRating, SortByGenre:
	default:
		return "", "", domain.WrapError(domain.ErrInvalidInput, "browse closet", fmt.Errorf("unknown sort %q", query.SortBy))
	}

	order := strings.ToLower(strings.TrimSpace(query.Order))
	if order == "" {
		order = OrderDesc
	}
	if order != OrderAsc && order != OrderDesc {
		return "", "", domain.WrapError(domain.ErrInvalidInput, "browse closet", fmt.Errorf("unknown order %q", query.Order))
	}
	return sortBy, order, nil
}

func filterOutfits(outfits []domain.Outfit, search string) []domain.Outfit {
	needle := strings.ToLower(strings.TrimSpace(search))
	if needle == "" {
		return outfits
	}
	out := make([]domain.Outfit, 0, len(outfits))
	for _, outfit := range outfits {
		if strings.Contains(strings.ToLower(outfit.Details), needle) ||
			strings.Contains(strings.ToLower(outfit.Genre), needle) {
			out = append(out, outfit)
		}
	}
	return out
}

func compareOutfits(a, b domain.Outfit, sortBy string) int {
	switch sortBy {
	case SortByRating:
		return a.Rating - b.Rating
	case SortByGenre:
		return strings.Compare(strings.ToLower(a.Genre), strings.ToLower(b.Genre))
	default:
		return a.EffectiveDate().Compare(b.EffectiveDate())
	}
}

package ports

import (
	"context"
	"time"

	"github.com/alizenart/closeted/internal/core/domain"
)

// OutfitUpload is the user metadata submitted with a new outfit photo.
type OutfitUpload struct {
	ImageRef string
	Details  string
	Rating   int
	Genre    string
	Date     *time.Time
}

// WishlistUpload is the user metadata submitted with a new wishlist photo.
type WishlistUpload struct {
	ImageRef string
	Name     string
	Notes    string
}

// Uploader is the inbound contract for the upload pipeline.
type Uploader interface {
	UploadOutfit(ctx context.Context, req OutfitUpload) (domain.UploadResult, error)
	UploadWishlistItem(ctx context.Context, req WishlistUpload) (domain.UploadResult, error)
}

// ClosetReader is the inbound read model over assembled records.
type ClosetReader interface {
	Outfits(ctx context.Context) []domain.Outfit
	Wishlist(ctx context.Context) []domain.WishlistItem
	Outfit(ctx context.Context, id string) (domain.Outfit, error)
	WishlistItem(ctx context.Context, id string) (domain.WishlistItem, error)
}

type ClosetQuery struct {
	Search string
	SortBy string
	Order  string
}

// ClosetBrowser filters and orders the outfit list.
type ClosetBrowser interface {
	Browse(ctx context.Context, query ClosetQuery) ([]domain.Outfit, error)
}

type ScoredOutfit struct {
	Outfit domain.Outfit `json:"outfit"`
	Score  float64       `json:"score"`
}

// Recommender ranks outfits by tag similarity.
type Recommender interface {
	SimilarToWishlistItem(ctx context.Context, itemID string) ([]ScoredOutfit, error)
	SimilarToOutfit(ctx context.Context, outfitID string) ([]ScoredOutfit, error)
}

// TimerService drives the wishlist decision timer.
type TimerService interface {
	Start(ctx context.Context, itemID string) (domain.TimerStatus, error)
	Status(ctx context.Context, itemID string) (domain.TimerStatus, error)
	Watch(ctx context.Context, itemID string, fn func(domain.TimerStatus)) (func(), error)
}

// PreferencesService reads and updates per-user preferences.
type PreferencesService interface {
	Get(ctx context.Context) (domain.UserPreferences, error)
	Update(ctx context.Context, patch domain.PreferencesPatch) (domain.UserPreferences, error)
}

// StatsReader reports record counts per namespace.
type StatsReader interface {
	Counts(ctx context.Context) ([]domain.NamespaceCount, error)
}

package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/alizenart/closeted/internal/core/domain"
	"github.com/alizenart/closeted/internal/core/layout"
	"github.com/alizenart/closeted/internal/core/ports"
	"github.com/alizenart/closeted/internal/infrastructure/resilience"
)

const defaultAnalysisTimeout = 30 * time.Second

// UploadPipeline writes an image and its metadata sidecar as one retried unit.
//
// Every attempt mints a fresh record id, so a failed attempt can leave an
// image without a sidecar behind. Listings drop such folders.
type UploadPipeline struct {
	images   ports.ImageSource
	store    ports.BlobStore
	identity ports.IdentityProvider
	policy   resilience.Policy

	analyzer        ports.ImageAnalyzer
	analysisTimeout time.Duration
	indexer         ports.RecordIndexer
	observer        ports.PersistenceObserver

	now   func() time.Time
	newID func() string
}

type UploadOption func(*UploadPipeline)

func WithAnalyzer(analyzer ports.ImageAnalyzer, timeout time.Duration) UploadOption {
	return func(p *UploadPipeline) {
		p.analyzer = analyzer
		if timeout > 0 {
			p.analysisTimeout = timeout
		}
	}
}

func WithIndexer(indexer ports.RecordIndexer) UploadOption {
	return func(p *UploadPipeline) { p.indexer = indexer }
}

func WithUploadObserver(observer ports.PersistenceObserver) UploadOption {
	return func(p *UploadPipeline) { p.observer = observerOrNoop(observer) }
}

func NewUploadPipeline(
	images ports.ImageSource,
	store ports.BlobStore,
	identity ports.IdentityProvider,
	policy resilience.Policy,
	opts ...UploadOption,
) *UploadPipeline {
	p := &UploadPipeline{
		images:          images,
		store:           store,
		identity:        identity,
		policy:          policy,
		analysisTimeout: defaultAnalysisTimeout,
		observer:        noopObserver{},
		now:             time.Now,
		newID:           func() string { return ulid.Make().String() },
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type sidecarBase struct {
	analysis  domain.ClothingAnalysis
	createdAt string
	ownerID   string
	imageURL  string
}

func (p *UploadPipeline) UploadOutfit(ctx context.Context, req ports.OutfitUpload) (domain.UploadResult, error) {
	owner, err := resolveOwner(ctx, p.identity, "upload outfit")
	if err != nil {
		return domain.UploadResult{}, err
	}
	genre, err := validateOutfitUpload(req)
	if err != nil {
		return domain.UploadResult{}, err
	}

	var date string
	if req.Date != nil && !req.Date.IsZero() {
		date = req.Date.UTC().Format(isoMillis)
	}
	return p.run(ctx, domain.NamespaceOutfits, owner, req.ImageRef, func(base sidecarBase) any {
		return domain.OutfitSidecar{
			Details:          strings.TrimSpace(req.Details),
			Rating:           req.Rating,
			Genre:            genre,
			Date:             date,
			ClothingAnalysis: base.analysis,
			CreatedAt:        base.createdAt,
			OwnerID:          base.ownerID,
			ImageURL:         base.imageURL,
		}
	})
}

func (p *UploadPipeline) UploadWishlistItem(ctx context.Context, req ports.WishlistUpload) (domain.UploadResult, error) {
	owner, err := resolveOwner(ctx, p.identity, "upload wishlist item")
	if err != nil {
		return domain.UploadResult{}, err
	}
	if strings.TrimSpace(req.ImageRef) == "" {
		return domain.UploadResult{}, domain.WrapError(domain.ErrInvalidInput, "upload wishlist item", errors.New("image is required"))
	}

	return p.run(ctx, domain.NamespaceWishlist, owner, req.ImageRef, func(base sidecarBase) any {
		return domain.WishlistSidecar{
			Name:             strings.TrimSpace(req.Name),
			Notes:            strings.TrimSpace(req.Notes),
			ClothingAnalysis: base.analysis,
			CreatedAt:        base.createdAt,
			OwnerID:          base.ownerID,
			ImageURL:         base.imageURL,
		}
	})
}

func validateOutfitUpload(req ports.OutfitUpload) (string, error) {
	if strings.TrimSpace(req.ImageRef) == "" {
		return "", domain.WrapError(domain.ErrInvalidInput, "upload outfit", errors.New("image is required"))
	}
	if req.Rating < domain.MinRating || req.Rating > domain.MaxRating {
		return "", domain.WrapError(domain.ErrInvalidInput, "upload outfit",
			fmt.Errorf("rating %d outside %d..%d", req.Rating, domain.MinRating, domain.MaxRating))
	}
	if strings.TrimSpace(req.Genre) == "" {
		return "", nil
	}
	genre, ok := domain.CanonicalGenre(req.Genre)
	if !ok {
		return "", domain.WrapError(domain.ErrInvalidInput, "upload outfit", fmt.Errorf("unknown genre %q", req.Genre))
	}
	return genre, nil
}

func (p *UploadPipeline) run(
	ctx context.Context,
	ns domain.Namespace,
	owner, imageRef string,
	sidecar func(sidecarBase) any,
) (domain.UploadResult, error) {
	policy := withRetryLog(p.policy, "upload."+string(ns))
	policy.Retryable = retryableUpload

	attempts := 0
	out, err := resilience.Retry(ctx, func(ctx context.Context) (uploaded, error) {
		attempts++
		return p.uploadOnce(ctx, ns, owner, imageRef, sidecar)
	}, policy)
	p.observer.UploadFinished(ns, attempts, err)
	if err != nil {
		slog.Error("upload_failed", "namespace", ns, "owner_id", owner, "attempts", attempts, "error", err)
		return domain.UploadResult{}, fmt.Errorf("upload %s: %w", ns, err)
	}

	p.index(ctx, out.entry)

	slog.Info("upload_completed", "namespace", ns, "owner_id", owner, "record_id", out.result.RecordID, "attempts", attempts)
	return out.result, nil
}

// uploaded is what one successful attempt leaves behind.
type uploaded struct {
	result domain.UploadResult
	entry  domain.IndexEntry
}

func (p *UploadPipeline) uploadOnce(
	ctx context.Context,
	ns domain.Namespace,
	owner, imageRef string,
	sidecar func(sidecarBase) any,
) (uploaded, error) {
	data, err := p.images.ReadImage(ctx, imageRef)
	if err != nil {
		return uploaded{}, fmt.Errorf("read image: %w", err)
	}
	if len(data) == 0 {
		return uploaded{}, domain.WrapError(domain.ErrInvalidInput, "read image", errors.New("image is empty"))
	}

	recordID := p.newID()
	paths := layout.RecordPaths(ns, owner, recordID)

	if err := p.store.Put(ctx, paths.Image, data, layout.ImageContentType); err != nil {
		return uploaded{}, fmt.Errorf("put image: %w", err)
	}
	imageURL, err := p.store.ResolveURL(ctx, paths.Image)
	if err != nil {
		return uploaded{}, fmt.Errorf("resolve image url: %w", err)
	}

	createdAt := p.now().UTC()
	doc := sidecar(sidecarBase{
		analysis:  p.enrich(ctx, imageURL),
		createdAt: createdAt.Format(isoMillis),
		ownerID:   owner,
		imageURL:  imageURL,
	})
	raw, err := json.Marshal(doc)
	if err != nil {
		return uploaded{}, fmt.Errorf("marshal sidecar: %w", err)
	}
	if err := p.store.Put(ctx, paths.Metadata, raw, layout.MetadataContentType); err != nil {
		return uploaded{}, fmt.Errorf("put sidecar: %w", err)
	}

	return uploaded{
		result: domain.UploadResult{RecordID: recordID, ImageURL: imageURL, Namespace: ns},
		entry: domain.IndexEntry{
			OwnerID:      owner,
			Namespace:    ns,
			RecordID:     recordID,
			ImagePath:    paths.Image,
			MetadataPath: paths.Metadata,
			CreatedAt:    createdAt,
		},
	}, nil
}

// enrich never fails the upload; any analyzer error leaves every field empty.
func (p *UploadPipeline) enrich(ctx context.Context, imageURL string) domain.ClothingAnalysis {
	if p.analyzer == nil {
		return domain.ClothingAnalysis{}
	}
	analysisCtx, cancel := context.WithTimeout(ctx, p.analysisTimeout)
	defer cancel()

	analysis, err := p.analyzer.Analyze(analysisCtx, imageURL)
	if err != nil {
		p.observer.EnrichmentFailed(err)
		slog.Warn("enrichment_failed", "image_url", imageURL, "error", err)
		return domain.ClothingAnalysis{}
	}
	return analysis
}

// index is best effort: the blob store stays the source of truth.
func (p *UploadPipeline) index(ctx context.Context, entry domain.IndexEntry) {
	if p.indexer == nil {
		return
	}
	if err := p.indexer.IndexRecord(ctx, entry); err != nil {
		slog.Warn("index_write_failed",
			"namespace", entry.Namespace,
			"record_id", entry.RecordID,
			"error", err,
		)
	}
}

func retryableUpload(err error) bool {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput),
		domain.IsKind(err, domain.ErrUnauthorized),
		errors.Is(err, context.Canceled):
		return false
	default:
		return true
	}
}

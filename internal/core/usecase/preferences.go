package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/alizenart/closeted/internal/core/domain"
	"github.com/alizenart/closeted/internal/core/layout"
	"github.com/alizenart/closeted/internal/core/ports"
	"github.com/alizenart/closeted/internal/infrastructure/resilience"
)

type PreferencesService struct {
	store    ports.BlobStore
	fetcher  ports.Fetcher
	identity ports.IdentityProvider
	policy   resilience.Policy
}

func NewPreferencesService(
	store ports.BlobStore,
	fetcher ports.Fetcher,
	identity ports.IdentityProvider,
	policy resilience.Policy,
) *PreferencesService {
	return &PreferencesService{store: store, fetcher: fetcher, identity: identity, policy: policy}
}

// Get returns defaults for users who never saved preferences.
func (s *PreferencesService) Get(ctx context.Context) (domain.UserPreferences, error) {
	owner, err := resolveOwner(ctx, s.identity, "get preferences")
	if err != nil {
		return domain.UserPreferences{}, err
	}
	return s.load(ctx, owner)
}

func (s *PreferencesService) Update(ctx context.Context, patch domain.PreferencesPatch) (domain.UserPreferences, error) {
	owner, err := resolveOwner(ctx, s.identity, "update preferences")
	if err != nil {
		return domain.UserPreferences{}, err
	}
	current, err := s.load(ctx, owner)
	if err != nil {
		return domain.UserPreferences{}, err
	}

	next := current.Apply(patch)
	raw, err := json.Marshal(next)
	if err != nil {
		return domain.UserPreferences{}, fmt.Errorf("marshal preferences: %w", err)
	}
	path := layout.PreferencesPath(owner)
	err = resilience.Do(ctx, func(ctx context.Context) error {
		return s.store.Put(ctx, path, raw, layout.MetadataContentType)
	}, withRetryLog(s.policy, "preferences.put"))
	if err != nil {
		return domain.UserPreferences{}, fmt.Errorf("save preferences: %w", err)
	}
	return next, nil
}

func (s *PreferencesService) load(ctx context.Context, owner string) (domain.UserPreferences, error) {
	path := layout.PreferencesPath(owner)
	policy := withRetryLog(s.policy, "preferences.get")
	policy.Retryable = retryableRead

	prefs, err := resilience.Retry(ctx, func(ctx context.Context) (domain.UserPreferences, error) {
		url, err := s.store.ResolveURL(ctx, path)
		if err != nil {
			return domain.UserPreferences{}, err
		}
		raw, err := s.fetcher.Fetch(ctx, url)
		if err != nil {
			return domain.UserPreferences{}, err
		}
		prefs := domain.DefaultPreferences()
		if err := json.Unmarshal(raw, &prefs); err != nil {
			return domain.UserPreferences{}, &domain.MalformedRecordError{Path: path, Reason: "invalid preferences", Err: err}
		}
		return prefs.Apply(domain.PreferencesPatch{}), nil
	}, policy)
	if domain.IsKind(err, domain.ErrNotFound) {
		return domain.DefaultPreferences(), nil
	}
	if err != nil {
		return domain.UserPreferences{}, fmt.Errorf("load preferences: %w", err)
	}
	return prefs, nil
}

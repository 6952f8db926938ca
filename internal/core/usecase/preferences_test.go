package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/alizenart/closeted/internal/core/domain"
)

func newPreferencesForTest(store *memBlobStoreFake) *PreferencesService {
	return NewPreferencesService(store, &memFetcherFake{store: store}, identityFake{owner: "u1"}, fastPolicy())
}

func TestPreferencesDefaultWhenNeverSaved(t *testing.T) {
	prefs, err := newPreferencesForTest(newMemBlobStoreFake()).Get(context.Background())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if prefs.OnboardingCompleted || prefs.Aesthetics == nil || len(prefs.Aesthetics) != 0 {
		t.Fatalf("unexpected defaults: %+v", prefs)
	}
}

func TestPreferencesUpdateMergesPatch(t *testing.T) {
	store := newMemBlobStoreFake()
	store.seed("users/u1/preferences.json", `{"aesthetics":["Boho"],"onboardingCompleted":false}`)
	svc := newPreferencesForTest(store)

	done := true
	prefs, err := svc.Update(context.Background(), domain.PreferencesPatch{OnboardingCompleted: &done})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !prefs.OnboardingCompleted || len(prefs.Aesthetics) != 1 || prefs.Aesthetics[0] != "Boho" {
		t.Fatalf("unexpected merged prefs: %+v", prefs)
	}

	raw, _ := store.get("users/u1/preferences.json")
	var stored domain.UserPreferences
	if err := json.Unmarshal(raw, &stored); err != nil {
		t.Fatalf("decode stored prefs: %v", err)
	}
	if !stored.OnboardingCompleted {
		t.Fatalf("expected update to be persisted, got %s", raw)
	}
}

func TestPreferencesMalformedIsReported(t *testing.T) {
	store := newMemBlobStoreFake()
	store.seed("users/u1/preferences.json", `not json`)
	_, err := newPreferencesForTest(store).Get(context.Background())
	if !domain.IsMalformed(err) {
		t.Fatalf("expected malformed error, got %v", err)
	}
}

func TestPreferencesUpdateRetriesWrites(t *testing.T) {
	store := newMemBlobStoreFake()
	calls := 0
	store.putErr = func(string) error {
		calls++
		if calls == 1 {
			return errors.New("throttled")
		}
		return nil
	}
	aesthetics := []string{"Minimalist"}
	if _, err := newPreferencesForTest(store).Update(context.Background(), domain.PreferencesPatch{Aesthetics: &aesthetics}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 writes, got %d", calls)
	}
}

func TestPreferencesRequireIdentity(t *testing.T) {
	store := newMemBlobStoreFake()
	svc := NewPreferencesService(store, &memFetcherFake{store: store}, identityFake{}, fastPolicy())
	if _, err := svc.Get(context.Background()); !domain.IsKind(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

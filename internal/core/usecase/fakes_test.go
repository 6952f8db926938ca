package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/alizenart/closeted/internal/core/domain"
	"github.com/alizenart/closeted/internal/infrastructure/resilience"
)

const memScheme = "mem://"

// memBlobStoreFake keeps blobs in memory and resolves them to mem:// URLs.
type memBlobStoreFake struct {
	mu      sync.Mutex
	blobs   map[string][]byte
	order   []string
	putErr  func(path string) error
	listErr func(call int) error
	lists   int
	puts    []string
}

func newMemBlobStoreFake() *memBlobStoreFake {
	return &memBlobStoreFake{blobs: map[string][]byte{}}
}

func (f *memBlobStoreFake) Put(_ context.Context, path string, data []byte, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.puts = append(f.puts, path)
	if f.putErr != nil {
		if err := f.putErr(path); err != nil {
			return err
		}
	}
	if _, ok := f.blobs[path]; !ok {
		f.order = append(f.order, path)
	}
	f.blobs[path] = append([]byte(nil), data...)
	return nil
}

func (f *memBlobStoreFake) ResolveURL(_ context.Context, path string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.blobs[path]; !ok {
		return "", domain.WrapError(domain.ErrNotFound, "resolve url", fmt.Errorf("no blob at %s", path))
	}
	return memScheme + path, nil
}

// ListChildPrefixes returns folders in first-write order.
func (f *memBlobStoreFake) ListChildPrefixes(_ context.Context, prefix string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	if f.listErr != nil {
		if err := f.listErr(f.lists); err != nil {
			return nil, err
		}
	}
	seen := map[string]bool{}
	var out []string
	for _, path := range f.order {
		if !strings.HasPrefix(path, prefix) {
			continue
		}
		rest := strings.TrimPrefix(path, prefix)
		idx := strings.Index(rest, "/")
		if idx < 0 {
			continue
		}
		child := prefix + rest[:idx+1]
		if !seen[child] {
			seen[child] = true
			out = append(out, child)
		}
	}
	return out, nil
}

func (f *memBlobStoreFake) seed(path, body string) {
	_ = f.Put(context.Background(), path, []byte(body), "")
}

func (f *memBlobStoreFake) get(path string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.blobs[path]
	return data, ok
}

func (f *memBlobStoreFake) paths() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.blobs))
	for path := range f.blobs {
		out = append(out, path)
	}
	sort.Strings(out)
	return out
}

type memFetcherFake struct {
	store *memBlobStoreFake
	fail  map[string]error
}

func (f *memFetcherFake) Fetch(_ context.Context, url string) ([]byte, error) {
	path := strings.TrimPrefix(url, memScheme)
	if err, ok := f.fail[path]; ok {
		return nil, err
	}
	data, ok := f.store.get(path)
	if !ok {
		return nil, domain.WrapError(domain.ErrNotFound, "fetch", fmt.Errorf("no blob at %s", path))
	}
	return data, nil
}

type identityFake struct {
	owner string
}

func (f identityFake) OwnerID(context.Context) (string, error) {
	if f.owner == "" {
		return "", domain.WrapError(domain.ErrUnauthorized, "identity", errors.New("no session"))
	}
	return f.owner, nil
}

type imageSourceFake struct {
	data []byte
	err  error
	refs []string
}

func (f *imageSourceFake) ReadImage(_ context.Context, ref string) ([]byte, error) {
	f.refs = append(f.refs, ref)
	if f.err != nil {
		return nil, f.err
	}
	return f.data, nil
}

type analyzerFake struct {
	result domain.ClothingAnalysis
	err    error
	block  bool
	urls   []string
}

func (f *analyzerFake) Analyze(ctx context.Context, imageURL string) (domain.ClothingAnalysis, error) {
	f.urls = append(f.urls, imageURL)
	if f.block {
		<-ctx.Done()
		return domain.ClothingAnalysis{}, ctx.Err()
	}
	if f.err != nil {
		return domain.ClothingAnalysis{}, f.err
	}
	return f.result, nil
}

type indexerFake struct {
	entries []domain.IndexEntry
	err     error
}

func (f *indexerFake) IndexRecord(_ context.Context, entry domain.IndexEntry) error {
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, entry)
	return nil
}

type droppedFolder struct {
	recordID string
	reason   string
}

type observerFake struct {
	mu              sync.Mutex
	assemblyErrors  []error
	dropped         []droppedFolder
	enrichmentFails int
	uploadAttempts  []int
}

func (f *observerFake) AssemblyFailed(_ domain.Namespace, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.assemblyErrors = append(f.assemblyErrors, err)
}

func (f *observerFake) FolderDropped(_ domain.Namespace, recordID, reason string, _ error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dropped = append(f.dropped, droppedFolder{recordID: recordID, reason: reason})
}

func (f *observerFake) EnrichmentFailed(error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.enrichmentFails++
}

func (f *observerFake) UploadFinished(_ domain.Namespace, attempts int, _ error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploadAttempts = append(f.uploadAttempts, attempts)
}

type timerChannelFake struct {
	mu       sync.Mutex
	values   map[string]domain.DecisionTimer
	watchers map[string][]func(domain.DecisionTimer)
}

func newTimerChannelFake() *timerChannelFake {
	return &timerChannelFake{
		values:   map[string]domain.DecisionTimer{},
		watchers: map[string][]func(domain.DecisionTimer){},
	}
}

func (f *timerChannelFake) Set(_ context.Context, key string, timer domain.DecisionTimer) error {
	f.mu.Lock()
	f.values[key] = timer
	watchers := append([]func(domain.DecisionTimer){}, f.watchers[key]...)
	f.mu.Unlock()
	for _, fn := range watchers {
		fn(timer)
	}
	return nil
}

func (f *timerChannelFake) Get(_ context.Context, key string) (domain.DecisionTimer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	timer, ok := f.values[key]
	if !ok {
		return domain.DecisionTimer{}, domain.WrapError(domain.ErrNotFound, "get timer", errors.New(key))
	}
	return timer, nil
}

func (f *timerChannelFake) Subscribe(_ context.Context, key string, fn func(domain.DecisionTimer)) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.watchers[key] = append(f.watchers[key], fn)
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.watchers, key)
	}, nil
}

func fastPolicy() resilience.Policy {
	return resilience.Policy{MaxAttempts: 3, Delay: resilience.Fixed(0)}
}

func outfitSidecarJSON(createdAt, details, top string) string {
	return fmt.Sprintf(`{"details":%q,"rating":5,"genre":"Minimalist","createdAt":%q,"ownerId":"u1","clothingAnalysis":{"top":%q}}`,
		details, createdAt, top)
}

func seedOutfit(store *memBlobStoreFake, id, createdAt, details, top string) {
	store.seed("images/u1/"+id+"/image.jpg", "jpeg")
	store.seed("images/u1/"+id+"/metadata.json", outfitSidecarJSON(createdAt, details, top))
}

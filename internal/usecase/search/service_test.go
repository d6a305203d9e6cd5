package search

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/prodsearch/internal/db/memory"
	"github.com/kailas-cloud/prodsearch/internal/domain"
	"github.com/kailas-cloud/prodsearch/internal/domain/product"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/filter"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/result"
	"github.com/kailas-cloud/prodsearch/internal/repository/resultcache"
	"github.com/kailas-cloud/prodsearch/internal/usecase/embedding"
	"github.com/kailas-cloud/prodsearch/internal/usecase/ranking"
)

// --- Mocks ---

type mockCatalog struct {
	candidates []product.Candidate
	err        error
	calls      int
	lastLimit  int
	lastFilter filter.Set
	afterFind  func()
}

func (m *mockCatalog) FindWithFilters(_ context.Context, f filter.Set, limit int) ([]product.Candidate, error) {
	m.calls++
	if m.afterFind != nil {
		m.afterFind()
	}
	m.lastLimit = limit
	m.lastFilter = f
	return m.candidates, m.err
}

type mockRanker struct {
	items    []result.Scored
	err      error
	called   bool
	lastText string
}

func (m *mockRanker) Rank(_ context.Context, _, text string, _ []product.Candidate) ([]result.Scored, error) {
	m.called = true
	m.lastText = text
	return m.items, m.err
}

type mockCache struct {
	data    map[string][]result.Scored
	setKeys []string
	lastTTL time.Duration
}

func newMockCache() *mockCache {
	return &mockCache{data: map[string][]result.Scored{}}
}

func (m *mockCache) GetResults(_ context.Context, key string) ([]result.Scored, bool) {
	items, ok := m.data[key]
	return items, ok
}

func (m *mockCache) SetResults(_ context.Context, key string, items []result.Scored, ttl time.Duration) {
	m.data[key] = items
	m.setKeys = append(m.setKeys, key)
	m.lastTTL = ttl
}

// countingEmbedder embeds by keyword presence and counts provider calls.
type countingEmbedder struct {
	calls atomic.Int32
}

func (m *countingEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	m.calls.Add(1)
	lower := strings.ToLower(text)
	vec := make([]float32, 3)
	for i, kw := range []string{"headphones", "garden", "kitchen"} {
		if strings.Contains(lower, kw) {
			vec[i] = 1
		}
	}
	return domain.EmbeddingResult{Embedding: vec, TotalTokens: 2}, nil
}

func testCandidates() []product.Candidate {
	return []product.Candidate{
		{ID: 1, Name: "Garden Hose", Category: "Outdoor", Price: 20},
		{ID: 2, Name: "Bluetooth Headphones", Description: "wireless", Category: "Audio", Price: 60},
		{ID: 3, Name: "Kitchen Knife", Category: "Kitchen", Price: 15},
	}
}

func newService(cat CatalogReader, rk Ranker, cache ResultCache) *Service {
	return New(cat, rk, cache, domain.DefaultPipelineConfig(), zap.NewNop())
}

// --- Tests ---

func TestSearch_RanksAndCaches(t *testing.T) {
	cat := &mockCatalog{candidates: testCandidates()}
	ranked := []result.Scored{{Candidate: testCandidates()[1], Score: 0.9}}
	rk := &mockRanker{items: ranked}
	cache := newMockCache()
	svc := newService(cat, rk, cache)

	got, err := svc.Search(context.Background(), "  Wireless   headphones ", filter.Set{})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Candidate.ID != 2 {
		t.Errorf("unexpected results: %+v", got)
	}
	if rk.lastText != "wireless headphones" {
		t.Errorf("expected normalized lower-cased query, got %q", rk.lastText)
	}
	if cat.lastLimit != 200 {
		t.Errorf("expected candidate cap 200, got %d", cat.lastLimit)
	}
	if len(cache.setKeys) != 1 || cache.setKeys[0] != "search:wireless headphones:" {
		t.Errorf("unexpected cache writes: %v", cache.setKeys)
	}
	if cache.lastTTL != time.Hour {
		t.Errorf("expected 1h ttl, got %v", cache.lastTTL)
	}
}

func TestSearch_CacheHitSkipsCatalog(t *testing.T) {
	cat := &mockCatalog{candidates: testCandidates()}
	rk := &mockRanker{}
	cache := newMockCache()
	cached := []result.Scored{{Candidate: testCandidates()[0], Score: 0.4}}
	cache.data["search:hose:shop_id=7"] = cached

	f, err := filter.NewBuilder().ShopID(7).Build()
	if err != nil {
		t.Fatal(err)
	}
	got, err := newService(cat, rk, cache).Search(context.Background(), "HOSE", f)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Score != 0.4 {
		t.Errorf("expected cached results, got %+v", got)
	}
	if cat.calls != 0 || rk.called {
		t.Error("cache hit must not touch catalog or ranker")
	}
}

func TestSearch_NoCandidates(t *testing.T) {
	rk := &mockRanker{}
	cache := newMockCache()
	svc := newService(&mockCatalog{}, rk, cache)

	got, err := svc.Search(context.Background(), "headphones", filter.Set{})
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil list, got %#v", got)
	}
	if rk.called {
		t.Error("ranker must not be called without candidates")
	}
	if len(cache.setKeys) != 1 {
		t.Errorf("empty result should be cached, writes: %v", cache.setKeys)
	}
}

func TestSearch_EmptyQueryBrowses(t *testing.T) {
	many := make([]product.Candidate, 15)
	for i := range many {
		many[i] = product.Candidate{ID: int64(i + 1), Name: "p", Price: 1}
	}
	rk := &mockRanker{}
	svc := newService(&mockCatalog{candidates: many}, rk, newMockCache())

	got, err := svc.Search(context.Background(), "   ", filter.Set{})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != result.TopK {
		t.Fatalf("expected %d results, got %d", result.TopK, len(got))
	}
	for i, r := range got {
		if r.Candidate.ID != int64(i+1) || r.Score != 0 {
			t.Errorf("position %d: %+v", i, r)
		}
	}
	if rk.called {
		t.Error("browse must not rank")
	}
}

func TestSearch_QueryTooLong(t *testing.T) {
	cat := &mockCatalog{}
	svc := newService(cat, &mockRanker{}, newMockCache())

	_, err := svc.Search(context.Background(), strings.Repeat("a", 4097), filter.Set{})
	if !errors.Is(err, domain.ErrInvalidQuery) {
		t.Errorf("expected ErrInvalidQuery, got %v", err)
	}
	if cat.calls != 0 {
		t.Error("invalid query must not reach the catalog")
	}
}

func TestSearch_CatalogError(t *testing.T) {
	cat := &mockCatalog{err: domain.ErrCatalogUnavailable}
	cache := newMockCache()

	_, err := newService(cat, &mockRanker{}, cache).Search(context.Background(), "q", filter.Set{})
	if !errors.Is(err, domain.ErrCatalogUnavailable) {
		t.Errorf("expected catalog error, got %v", err)
	}
	if len(cache.setKeys) != 0 {
		t.Error("failures must not be cached")
	}
}

func TestSearch_RankErrorNotCached(t *testing.T) {
	rk := &mockRanker{err: domain.ErrEmbeddingQuotaExceeded}
	cache := newMockCache()

	_, err := newService(&mockCatalog{candidates: testCandidates()}, rk, cache).
		Search(context.Background(), "q", filter.Set{})
	if !errors.Is(err, domain.ErrEmbeddingQuotaExceeded) {
		t.Errorf("expected quota error, got %v", err)
	}
	if len(cache.setKeys) != 0 {
		t.Error("failures must not be cached")
	}
}

func TestSearch_FiltersPassedToCatalog(t *testing.T) {
	cat := &mockCatalog{}
	f, err := filter.NewBuilder().MinPrice(5).InStock(true).Build()
	if err != nil {
		t.Fatal(err)
	}

	if _, err := newService(cat, &mockRanker{}, newMockCache()).Search(context.Background(), "q", f); err != nil {
		t.Fatal(err)
	}
	if cat.lastFilter.Canonical() != f.Canonical() {
		t.Errorf("filters not forwarded: %q", cat.lastFilter.Canonical())
	}
}

func TestSearch_EndToEnd_SecondCallServedFromCache(t *testing.T) {
	mem, err := memory.NewStore(memory.Config{})
	if err != nil {
		t.Fatal(err)
	}
	emb := &countingEmbedder{}
	rk := ranking.New(embedding.NewFanout(emb, embedding.FanoutConfig{}, zap.NewNop()), zap.NewNop())
	cache := resultcache.New(mem, resultcache.DefaultKeyPrefix, nil, zap.NewNop())
	cat := &mockCatalog{candidates: testCandidates()}
	svc := newService(cat, rk, cache)
	ctx := context.Background()

	first, err := svc.Search(ctx, "wireless headphones", filter.Set{})
	if err != nil {
		t.Fatal(err)
	}
	if first[0].Candidate.Name != "Bluetooth Headphones" {
		t.Errorf("expected headphones first, got %q", first[0].Candidate.Name)
	}
	callsAfterFirst := emb.calls.Load()
	if callsAfterFirst != 4 {
		t.Errorf("expected 4 embed calls, got %d", callsAfterFirst)
	}

	second, err := svc.Search(ctx, "Wireless  Headphones", filter.Set{})
	if err != nil {
		t.Fatal(err)
	}
	if emb.calls.Load() != callsAfterFirst {
		t.Error("second identical search must not call the embedder")
	}
	if cat.calls != 1 {
		t.Errorf("expected one catalog read, got %d", cat.calls)
	}
	if len(second) != len(first) || second[0].Candidate.ID != first[0].Candidate.ID {
		t.Errorf("cached results differ: %+v vs %+v", second, first)
	}
}

func TestSearch_CasingDoesNotChangeRanking(t *testing.T) {
	rk := &mockRanker{items: []result.Scored{}}
	svc := newService(&mockCatalog{candidates: testCandidates()}, rk, newMockCache())

	if _, err := svc.Search(context.Background(), "APPLE Watch", filter.Set{}); err != nil {
		t.Fatal(err)
	}
	if rk.lastText != "apple watch" {
		t.Errorf("expected ranker text to match the cache key casing, got %q", rk.lastText)
	}
}

func TestSearch_CancelledAfterCatalogNotCached(t *testing.T) {
	mem, err := memory.NewStore(memory.Config{})
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	emb := &countingEmbedder{}
	rk := ranking.New(embedding.NewFanout(emb, embedding.FanoutConfig{}, zap.NewNop()), zap.NewNop())
	cache := resultcache.New(mem, resultcache.DefaultKeyPrefix, nil, zap.NewNop())
	cat := &mockCatalog{candidates: testCandidates(), afterFind: cancel}

	items, err := newService(cat, rk, cache).Search(ctx, "headphones", filter.Set{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v (items %+v)", err, items)
	}
	if emb.calls.Load() != 0 {
		t.Errorf("expected no embed calls, got %d", emb.calls.Load())
	}
	keys, err := mem.ScanPrefix(context.Background(), resultcache.DefaultKeyPrefix)
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 0 {
		t.Errorf("cancelled search must not be cached, found %v", keys)
	}
}

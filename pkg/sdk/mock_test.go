package prodsearch

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
)

// --- Embedder fake ---

// keywordEmbedder maps text onto a bag of topic keywords, enough for
// cosine similarity to rank products by topic.
type keywordEmbedder struct {
	calls atomic.Int32
	err   error
}

var topics = [][]string{
	{"headphones", "audio", "speaker", "earbuds"},
	{"garden", "hose", "shovel", "plant"},
	{"kitchen", "knife", "pan", "kettle"},
}

func (e *keywordEmbedder) Embed(_ context.Context, text string) (EmbeddingResult, error) {
	e.calls.Add(1)
	if e.err != nil {
		return EmbeddingResult{}, e.err
	}
	text = strings.ToLower(text)
	vec := make([]float32, len(topics))
	for i, words := range topics {
		for _, w := range words {
			vec[i] += float32(strings.Count(text, w))
		}
	}
	return EmbeddingResult{Embedding: vec, PromptTokens: 2, TotalTokens: 2}, nil
}

// --- Catalog and orders fakes ---

type fakeCatalog struct {
	mu       sync.Mutex
	products []Product
	filters  []Filter
	err      error
	pingErr  error
}

func (c *fakeCatalog) FindProducts(_ context.Context, f Filter, limit int) ([]Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filters = append(c.filters, f)
	if c.err != nil {
		return nil, c.err
	}
	out := make([]Product, 0, len(c.products))
	for _, p := range c.products {
		if f.CategoryID != nil && p.CategoryID != *f.CategoryID {
			continue
		}
		if f.InStock && p.Stock == 0 {
			continue
		}
		out = append(out, p)
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (c *fakeCatalog) Ping(context.Context) error { return c.pingErr }

type fakeOrders struct {
	byUser map[int64][]Order
}

func (o *fakeOrders) FindOrders(_ context.Context, userID int64) ([]Order, error) {
	return o.byUser[userID], nil
}

func sampleProducts() []Product {
	return []Product{
		{ID: 1, CategoryID: 1, Name: "Studio Headphones", Description: "closed-back audio", Category: "Audio", Price: 120, Stock: 3},
		{ID: 2, CategoryID: 2, Name: "Garden Hose", Description: "20m hose", Category: "Garden", Price: 25, Stock: 10},
		{ID: 3, CategoryID: 3, Name: "Chef Knife", Description: "kitchen steel", Category: "Kitchen", Price: 60, Stock: 0},
		{ID: 4, CategoryID: 1, Name: "Bluetooth Speaker", Description: "portable audio", Category: "Audio", Price: 80, Stock: 5},
	}
}

// --- Use case fakes ---

type fakeInvalidation struct {
	products int
	users    []int64
	err      error
}

func (f *fakeInvalidation) ProductChanged(context.Context) (int, error) {
	return f.products, f.err
}

func (f *fakeInvalidation) OrderPlaced(_ context.Context, userID int64) (int, error) {
	f.users = append(f.users, userID)
	return 1, f.err
}

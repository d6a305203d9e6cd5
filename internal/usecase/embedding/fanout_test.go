package embedding

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/prodsearch/internal/domain"
)

// indexEmbedder returns [i] for text "t<i>" and tracks peak concurrency.
type indexEmbedder struct {
	delay    time.Duration
	failOn   string
	inFlight atomic.Int32
	peak     atomic.Int32
	calls    atomic.Int32
}

func (e *indexEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	e.calls.Add(1)
	cur := e.inFlight.Add(1)
	defer e.inFlight.Add(-1)
	for {
		p := e.peak.Load()
		if cur <= p || e.peak.CompareAndSwap(p, cur) {
			break
		}
	}

	select {
	case <-time.After(e.delay):
	case <-ctx.Done():
		return domain.EmbeddingResult{}, ctx.Err()
	}

	if text == e.failOn {
		return domain.EmbeddingResult{}, domain.ErrEmbeddingProviderError
	}
	n, err := strconv.Atoi(text[1:])
	if err != nil {
		return domain.EmbeddingResult{}, err
	}
	return domain.EmbeddingResult{Embedding: []float32{float32(n)}, PromptTokens: 1, TotalTokens: 1}, nil
}

func texts(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = "t" + strconv.Itoa(i)
	}
	return out
}

func TestFanout_PreservesOrder(t *testing.T) {
	inner := &indexEmbedder{delay: time.Millisecond}
	f := NewFanout(inner, FanoutConfig{Concurrency: 4}, zap.NewNop())

	res, err := f.EmbedAll(context.Background(), texts(30))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Embeddings) != 30 {
		t.Fatalf("expected 30 embeddings, got %d", len(res.Embeddings))
	}
	for i, v := range res.Embeddings {
		if v[0] != float32(i) {
			t.Fatalf("embedding %d out of order: %v", i, v)
		}
	}
	if res.TotalTokens != 30 {
		t.Errorf("expected 30 tokens, got %d", res.TotalTokens)
	}
}

func TestFanout_BoundsConcurrency(t *testing.T) {
	inner := &indexEmbedder{delay: 5 * time.Millisecond}
	f := NewFanout(inner, FanoutConfig{Concurrency: 3}, zap.NewNop())

	// Two concurrent batches share the same provider-wide cap.
	var wg sync.WaitGroup
	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.EmbedAll(context.Background(), texts(20)); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if peak := inner.peak.Load(); peak > 3 {
		t.Errorf("expected at most 3 in-flight calls, saw %d", peak)
	}
	if inner.calls.Load() != 40 {
		t.Errorf("expected 40 calls, got %d", inner.calls.Load())
	}
}

func TestFanout_FailsWholeBatch(t *testing.T) {
	inner := &indexEmbedder{delay: 2 * time.Millisecond, failOn: "t5"}
	f := NewFanout(inner, FanoutConfig{Concurrency: 2}, zap.NewNop())

	res, err := f.EmbedAll(context.Background(), texts(50))
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("expected provider error, got %v", err)
	}
	if res.Embeddings != nil {
		t.Error("no partial result may be returned")
	}
	if calls := inner.calls.Load(); calls == 50 {
		t.Errorf("expected remaining calls to be cancelled, all %d ran", calls)
	}
}

func TestFanout_EmptyInput(t *testing.T) {
	inner := &indexEmbedder{}
	f := NewFanout(inner, FanoutConfig{}, zap.NewNop())

	res, err := f.EmbedAll(context.Background(), nil)
	if err != nil || len(res.Embeddings) != 0 {
		t.Fatalf("expected empty result, got %v, %v", res, err)
	}

	_, err = f.EmbedAll(context.Background(), []string{"t0", "  "})
	if !errors.Is(err, domain.ErrEmptyInput) {
		t.Errorf("expected ErrEmptyInput, got %v", err)
	}
	if _, err := f.Embed(context.Background(), ""); !errors.Is(err, domain.ErrEmptyInput) {
		t.Errorf("expected ErrEmptyInput from Embed, got %v", err)
	}
	if inner.calls.Load() != 0 {
		t.Errorf("blank input must not reach the provider, got %d calls", inner.calls.Load())
	}
}

func TestFanout_RateLimited(t *testing.T) {
	inner := &indexEmbedder{}
	f := NewFanout(inner, FanoutConfig{Concurrency: 1, RequestsPerSecond: 0.01, Burst: 1}, zap.NewNop())

	if _, err := f.Embed(context.Background(), "t0"); err != nil {
		t.Fatalf("first call should use the burst token: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := f.Embed(ctx, "t1")
	if !errors.Is(err, domain.ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	if inner.calls.Load() != 1 {
		t.Errorf("expected only the first call to reach the provider, got %d", inner.calls.Load())
	}
}

func TestFanout_ContextCancelled(t *testing.T) {
	inner := &indexEmbedder{delay: time.Second}
	f := NewFanout(inner, FanoutConfig{Concurrency: 2}, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := f.EmbedAll(ctx, texts(10))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

func TestFanout_CancelledBeforeDispatch(t *testing.T) {
	inner := &indexEmbedder{}
	f := NewFanout(inner, FanoutConfig{Concurrency: 2}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := f.EmbedAll(ctx, texts(3))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if res.Embeddings != nil {
		t.Errorf("expected no vectors on failure, got %v", res.Embeddings)
	}
	if inner.calls.Load() != 0 {
		t.Errorf("expected no provider calls, got %d", inner.calls.Load())
	}
}

type emptyVectorEmbedder struct{}

func (emptyVectorEmbedder) Embed(context.Context, string) (domain.EmbeddingResult, error) {
	return domain.EmbeddingResult{}, nil
}

func TestFanout_RejectsEmptyVector(t *testing.T) {
	f := NewFanout(emptyVectorEmbedder{}, FanoutConfig{}, zap.NewNop())

	_, err := f.EmbedAll(context.Background(), texts(2))
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("expected ErrEmbeddingProviderError, got %v", err)
	}
}

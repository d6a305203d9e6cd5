package prodsearch

import (
	"testing"
	"time"

	"github.com/kailas-cloud/prodsearch/internal/domain/search/filter"
)

func TestProductCandidateRoundTrip(t *testing.T) {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p := Product{ID: 9, Name: "Kettle", Price: 30, Stock: 2, Rating: 4.5, CreatedAt: created, Images: []string{"a.jpg"}}

	got := fromCandidate(toCandidate(p))
	if !got.CreatedAt.Equal(created) || got.ID != 9 || got.Rating != 4.5 || len(got.Images) != 1 {
		t.Errorf("round trip lost data: %+v", got)
	}

	if c := toCandidate(Product{ID: 1, Name: "x"}); c.CreatedAt != 0 {
		t.Errorf("zero time must map to 0, got %d", c.CreatedAt)
	}
}

func TestFilterFromSet(t *testing.T) {
	set, err := filter.NewBuilder().ShopID(4).MinRating(3).NameContains(" Pro ").Build()
	if err != nil {
		t.Fatal(err)
	}

	f := filterFromSet(set)
	if f.ShopID == nil || *f.ShopID != 4 || f.MinRating == nil || *f.MinRating != 3 {
		t.Errorf("unexpected filter %+v", f)
	}
	if f.NameContains != "pro" {
		t.Errorf("NameContains = %q, want normalized 'pro'", f.NameContains)
	}
	if f.CategoryID != nil || f.MinPrice != nil || f.InStock {
		t.Errorf("unset fields must stay empty: %+v", f)
	}
}

package cachekey

import (
	"strconv"
	"strings"

	"github.com/kailas-cloud/prodsearch/internal/domain/search/filter"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/query"
)

// Key prefixes, also used for bulk invalidation.
const (
	SearchPrefix          = "search:"
	RecommendationsPrefix = "recommendations:"
)

// Search derives the cache key for a search request.
// It is a pure function of the normalized, lower-cased query and the canonical filter form.
func Search(q string, filters filter.Set) string {
	return SearchPrefix + strings.ToLower(query.Normalize(q)) + ":" + filters.Canonical()
}

// Recommendations derives the cache key for a user's recommendations.
func Recommendations(userID int64) string {
	return RecommendationsPrefix + strconv.FormatInt(userID, 10)
}

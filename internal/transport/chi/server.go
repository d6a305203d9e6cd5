package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/prodsearch/internal/domain"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/filter"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/result"
	domusage "github.com/kailas-cloud/prodsearch/internal/domain/usage"
	logpkg "github.com/kailas-cloud/prodsearch/internal/logger"
	gen "github.com/kailas-cloud/prodsearch/internal/transport/generated"
	healthuc "github.com/kailas-cloud/prodsearch/internal/usecase/health"
	invalidationuc "github.com/kailas-cloud/prodsearch/internal/usecase/invalidation"
	recommenduc "github.com/kailas-cloud/prodsearch/internal/usecase/recommend"
	searchuc "github.com/kailas-cloud/prodsearch/internal/usecase/search"
	usageuc "github.com/kailas-cloud/prodsearch/internal/usecase/usage"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 64 << 10

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server implements generated.ServerInterface for the chi router.
type Server struct {
	gen.Unimplemented
	search        *searchuc.Service
	recommend     *recommenduc.Service
	invalidation  *invalidationuc.Service
	health        *healthuc.Service
	usage         *usageuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

var _ gen.ServerInterface = (*Server)(nil)

// NewServer creates an HTTP API server.
func NewServer(
	search *searchuc.Service,
	recommend *recommenduc.Service,
	invalidation *invalidationuc.Service,
	health *healthuc.Service,
	usage *usageuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		search:       search,
		recommend:    recommend,
		invalidation: invalidation,
		health:       health,
		usage:        usage,
		logger:       logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidQuery, http.StatusBadRequest, gen.ErrorResponseCodeValidationFailed),
		sentinelHandler(domain.ErrInvalidFilter, http.StatusBadRequest, gen.ErrorResponseCodeValidationFailed),
		sentinelHandler(domain.ErrInvalidUser, http.StatusBadRequest, gen.ErrorResponseCodeValidationFailed),
		sentinelHandler(invalidationuc.ErrUnknownEvent, http.StatusBadRequest, gen.ErrorResponseCodeValidationFailed),
		sentinelHandler(invalidationuc.ErrInvalidPrefix, http.StatusBadRequest, gen.ErrorResponseCodeValidationFailed),
		sentinelHandler(domusage.ErrInvalidPeriod, http.StatusBadRequest, gen.ErrorResponseCodeValidationFailed),
		sentinelHandler(domain.ErrEmbeddingQuotaExceeded,
			http.StatusPaymentRequired, gen.ErrorResponseCodeEmbeddingQuotaExceeded),
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests, gen.ErrorResponseCodeRateLimited),
		sentinelHandler(domain.ErrEmbeddingProviderError,
			http.StatusBadGateway, gen.ErrorResponseCodeEmbeddingProviderError),
		sentinelHandler(domain.ErrCatalogUnavailable,
			http.StatusServiceUnavailable, gen.ErrorResponseCodeCatalogUnavailable),
	}
	return s
}

// SearchProducts handles GET /search.
func (s *Server) SearchProducts(w http.ResponseWriter, r *http.Request, params gen.SearchProductsParams) {
	filters, err := filtersFromGen(&gen.SearchFilters{
		CategoryId:   params.CategoryId,
		ShopId:       params.ShopId,
		MinPrice:     params.MinPrice,
		MaxPrice:     params.MaxPrice,
		InStock:      params.InStock,
		MinRating:    params.MinRating,
		NameContains: params.NameContains,
		SortBy:       params.SortBy,
		SortOrder:    params.SortOrder,
	})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	s.runSearch(w, r, derefString(params.Q), filters)
}

// SearchProductsPost handles POST /search.
func (s *Server) SearchProductsPost(w http.ResponseWriter, r *http.Request) {
	var req gen.SearchProductsPostJSONRequestBody
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, gen.ErrorResponseCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	filters, err := filtersFromGen(req.Filters)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	s.runSearch(w, r, derefString(req.Query), filters)
}

func (s *Server) runSearch(w http.ResponseWriter, r *http.Request, q string, filters filter.Set) {
	ctx, usage := domain.NewContextWithUsage(r.Context())

	items, err := s.search.Search(ctx, q, filters)
	setEmbeddingHeaders(w, usage)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resultsToGen(items))
}

// GetRecommendations handles GET /users/{userId}/recommendations.
func (s *Server) GetRecommendations(w http.ResponseWriter, r *http.Request, userID int64) {
	r = r.WithContext(logpkg.WithFields(r.Context(), zap.Int64("user_id", userID)))
	ctx, usage := domain.NewContextWithUsage(r.Context())

	items, err := s.recommend.Recommend(ctx, userID)
	setEmbeddingHeaders(w, usage)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resultsToGen(items))
}

// PostEvent handles POST /events.
func (s *Server) PostEvent(w http.ResponseWriter, r *http.Request) {
	var req gen.PostEventJSONRequestBody
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, gen.ErrorResponseCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	ev := invalidationuc.Event{Type: invalidationuc.EventType(req.Type)}
	if req.UserId != nil {
		ev.UserID = *req.UserId
	}

	r = r.WithContext(logpkg.WithFields(r.Context(), zap.String("event_type", string(req.Type))))
	n, err := s.invalidation.Handle(r.Context(), ev)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, gen.InvalidationResponse{Invalidated: n})
}

// PurgeCache handles DELETE /cache.
func (s *Server) PurgeCache(w http.ResponseWriter, r *http.Request, params gen.PurgeCacheParams) {
	n, err := s.invalidation.Purge(r.Context(), derefString(params.Prefix))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, gen.InvalidationResponse{Invalidated: n})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	status := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, gen.HealthResponse{
		Status: gen.HealthResponseStatus(report.Status),
		Checks: checks,
	})
}

// GetUsage handles GET /usage.
func (s *Server) GetUsage(w http.ResponseWriter, r *http.Request, params gen.GetUsageParams) {
	var raw string
	if params.Period != nil {
		raw = string(*params.Period)
	}
	period, err := domusage.ParsePeriod(raw)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	report := s.usage.GetReport(r.Context(), period)
	writeJSON(w, http.StatusOK, gen.UsageResponse{
		Period:      gen.UsagePeriod(report.Period()),
		PeriodStart: report.PeriodStart(),
		PeriodEnd:   report.PeriodEnd(),
		Provider:    report.Provider(),
		TokensUsed:  report.Used(),
		Limit:       report.Limit(),
		Remaining:   report.Remaining(),
		Exhausted:   report.Exhausted(),
		Unlimited:   report.Unlimited(),
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func setEmbeddingHeaders(w http.ResponseWriter, usage *domain.EmbeddingUsage) {
	if usage.Used() {
		w.Header().Set("X-Embedding-Tokens", strconv.Itoa(usage.TotalTokens()))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code gen.ErrorResponseCode, message string) {
	writeJSON(w, status, gen.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a client-facing message without exposing internals.
// Validation errors carry their detail; everything else collapses to the sentinel text.
func safeDomainMessage(err error) string {
	for _, s := range []error{
		domain.ErrInvalidQuery,
		domain.ErrInvalidFilter,
		domain.ErrInvalidUser,
		invalidationuc.ErrUnknownEvent,
		invalidationuc.ErrInvalidPrefix,
		domusage.ErrInvalidPeriod,
	} {
		if errors.Is(err, s) {
			return validationMessage(err, s)
		}
	}

	for _, s := range []error{
		domain.ErrEmbeddingQuotaExceeded,
		domain.ErrRateLimited,
		domain.ErrEmbeddingProviderError,
		domain.ErrCatalogUnavailable,
	} {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// validationMessage strips use-case wrapping, keeping the text from the sentinel onward.
func validationMessage(err, sentinel error) string {
	msg := err.Error()
	if i := strings.Index(msg, sentinel.Error()); i >= 0 {
		return msg[i:]
	}
	return sentinel.Error()
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code gen.ErrorResponseCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	logpkg.FromContext(r.Context()).Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("unhandled error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, gen.ErrorResponseCodeInternalError, msg)
}

func filtersFromGen(f *gen.SearchFilters) (filter.Set, error) {
	b := filter.NewBuilder()
	if f == nil {
		return b.Build() //nolint:wrapcheck // carries ErrInvalidFilter
	}
	if f.CategoryId != nil {
		b.CategoryID(*f.CategoryId)
	}
	if f.ShopId != nil {
		b.ShopID(*f.ShopId)
	}
	if f.MinPrice != nil {
		b.MinPrice(*f.MinPrice)
	}
	if f.MaxPrice != nil {
		b.MaxPrice(*f.MaxPrice)
	}
	if f.InStock != nil {
		b.InStock(*f.InStock)
	}
	if f.MinRating != nil {
		b.MinRating(*f.MinRating)
	}
	if f.NameContains != nil {
		b.NameContains(*f.NameContains)
	}
	if f.SortBy != nil || f.SortOrder != nil {
		var order filter.SortOrder
		if f.SortOrder != nil {
			order = filter.SortOrder(*f.SortOrder)
		}
		var by filter.SortField
		if f.SortBy != nil {
			by = filter.SortField(*f.SortBy)
		}
		b.Sort(by, order)
	}
	return b.Build() //nolint:wrapcheck // carries ErrInvalidFilter
}

func resultsToGen(items []result.Scored) gen.ResultsResponse {
	out := make([]gen.ResultItem, len(items))
	for i, it := range items {
		out[i] = gen.ResultItem{Product: productToGen(it), Score: it.Score}
	}
	return gen.ResultsResponse{Items: out, Total: len(out)}
}

func productToGen(it result.Scored) gen.Product {
	c := it.Candidate
	p := gen.Product{
		Id:         c.ID,
		ShopId:     c.ShopID,
		CategoryId: c.CategoryID,
		Name:       c.Name,
		Price:      c.Price,
		Stock:      c.Stock,
		Rating:     c.Rating,
	}
	if c.Description != "" {
		p.Description = &c.Description
	}
	if c.Category != "" {
		p.Category = &c.Category
	}
	if len(c.Images) > 0 {
		images := c.Images
		p.Images = &images
	}
	if c.CreatedAt > 0 {
		t := time.UnixMilli(c.CreatedAt).UTC()
		p.CreatedAt = &t
	}
	return p
}

func derefString(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

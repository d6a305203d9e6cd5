// Package generated holds the HTTP contract of api/openapi.yaml: wire types,
// the ServerInterface and chi routing with oapi-codegen runtime parameter binding.
package generated

import "time"

// Defines values for ErrorResponseCode.
const (
	ErrorResponseCodeBadRequest             ErrorResponseCode = "bad_request"
	ErrorResponseCodeValidationFailed       ErrorResponseCode = "validation_failed"
	ErrorResponseCodeUnauthorized           ErrorResponseCode = "unauthorized"
	ErrorResponseCodeForbidden              ErrorResponseCode = "forbidden"
	ErrorResponseCodeEmbeddingQuotaExceeded ErrorResponseCode = "embedding_quota_exceeded"
	ErrorResponseCodeRateLimited            ErrorResponseCode = "rate_limited"
	ErrorResponseCodeEmbeddingProviderError ErrorResponseCode = "embedding_provider_error"
	ErrorResponseCodeCatalogUnavailable     ErrorResponseCode = "catalog_unavailable"
	ErrorResponseCodeInternalError          ErrorResponseCode = "internal_error"
	ErrorResponseCodeNotImplemented         ErrorResponseCode = "not_implemented"
)

// Defines values for EventRequestType.
const (
	EventRequestTypeProductCreated EventRequestType = "product.created"
	EventRequestTypeProductUpdated EventRequestType = "product.updated"
	EventRequestTypeProductDeleted EventRequestType = "product.deleted"
	EventRequestTypeOrderCreated   EventRequestType = "order.created"
)

// Defines values for HealthResponseStatus.
const (
	HealthResponseStatusOk       HealthResponseStatus = "ok"
	HealthResponseStatusDegraded HealthResponseStatus = "degraded"
	HealthResponseStatusError    HealthResponseStatus = "error"
)

// Defines values for SortBy.
const (
	SortByPrice     SortBy = "price"
	SortByRating    SortBy = "rating"
	SortByCreatedAt SortBy = "created_at"
)

// Defines values for SortOrder.
const (
	SortOrderAsc  SortOrder = "asc"
	SortOrderDesc SortOrder = "desc"
)

// Defines values for UsagePeriod.
const (
	UsagePeriodDay   UsagePeriod = "day"
	UsagePeriodMonth UsagePeriod = "month"
)

// ErrorResponse defines model for ErrorResponse.
type ErrorResponse struct {
	Code    ErrorResponseCode `json:"code"`
	Message string            `json:"message"`
}

// ErrorResponseCode defines model for ErrorResponse.Code.
type ErrorResponseCode string

// EventRequest defines model for EventRequest.
type EventRequest struct {
	Type   EventRequestType `json:"type"`
	UserId *int64           `json:"user_id,omitempty"`
}

// EventRequestType defines model for EventRequest.Type.
type EventRequestType string

// HealthResponse defines model for HealthResponse.
type HealthResponse struct {
	Checks map[string]string    `json:"checks"`
	Status HealthResponseStatus `json:"status"`
}

// HealthResponseStatus defines model for HealthResponse.Status.
type HealthResponseStatus string

// InvalidationResponse defines model for InvalidationResponse.
type InvalidationResponse struct {
	Invalidated int `json:"invalidated"`
}

// Product defines model for Product.
type Product struct {
	Category    *string    `json:"category,omitempty"`
	CategoryId  int64      `json:"category_id"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
	Description *string    `json:"description,omitempty"`
	Id          int64      `json:"id"`
	Images      *[]string  `json:"images,omitempty"`
	Name        string     `json:"name"`
	Price       float64    `json:"price"`
	Rating      float64    `json:"rating"`
	ShopId      int64      `json:"shop_id"`
	Stock       int        `json:"stock"`
}

// ResultItem defines model for ResultItem.
type ResultItem struct {
	Product Product `json:"product"`
	Score   float64 `json:"score"`
}

// ResultsResponse defines model for ResultsResponse.
type ResultsResponse struct {
	Items []ResultItem `json:"items"`
	Total int          `json:"total"`
}

// SearchFilters defines model for SearchFilters.
type SearchFilters struct {
	CategoryId   *int64     `json:"category_id,omitempty"`
	InStock      *bool      `json:"in_stock,omitempty"`
	MaxPrice     *float64   `json:"max_price,omitempty"`
	MinPrice     *float64   `json:"min_price,omitempty"`
	MinRating    *float64   `json:"min_rating,omitempty"`
	NameContains *string    `json:"name_contains,omitempty"`
	ShopId       *int64     `json:"shop_id,omitempty"`
	SortBy       *SortBy    `json:"sort_by,omitempty"`
	SortOrder    *SortOrder `json:"sort_order,omitempty"`
}

// SearchRequest defines model for SearchRequest.
type SearchRequest struct {
	Filters *SearchFilters `json:"filters,omitempty"`
	Query   *string        `json:"query,omitempty"`
}

// SortBy defines model for SortBy.
type SortBy string

// SortOrder defines model for SortOrder.
type SortOrder string

// UsagePeriod defines model for UsagePeriod.
type UsagePeriod string

// UsageResponse defines model for UsageResponse.
type UsageResponse struct {
	// Exhausted is true when a configured limit has no tokens left.
	Exhausted   bool        `json:"exhausted"`
	Limit       int64       `json:"limit"`
	Period      UsagePeriod `json:"period"`
	PeriodEnd   time.Time   `json:"period_end"`
	PeriodStart time.Time   `json:"period_start"`
	Provider    string      `json:"provider"`
	Remaining   int64       `json:"remaining"`
	TokensUsed  int64       `json:"tokens_used"`
	// Unlimited is true when no budget is configured for the period.
	Unlimited bool `json:"unlimited"`
}

// SearchProductsParams defines parameters for SearchProducts.
type SearchProductsParams struct {
	Q            *string    `form:"q,omitempty" json:"q,omitempty"`
	CategoryId   *int64     `form:"category_id,omitempty" json:"category_id,omitempty"`
	ShopId       *int64     `form:"shop_id,omitempty" json:"shop_id,omitempty"`
	MinPrice     *float64   `form:"min_price,omitempty" json:"min_price,omitempty"`
	MaxPrice     *float64   `form:"max_price,omitempty" json:"max_price,omitempty"`
	InStock      *bool      `form:"in_stock,omitempty" json:"in_stock,omitempty"`
	MinRating    *float64   `form:"min_rating,omitempty" json:"min_rating,omitempty"`
	NameContains *string    `form:"name_contains,omitempty" json:"name_contains,omitempty"`
	SortBy       *SortBy    `form:"sort_by,omitempty" json:"sort_by,omitempty"`
	SortOrder    *SortOrder `form:"sort_order,omitempty" json:"sort_order,omitempty"`
}

// PurgeCacheParams defines parameters for PurgeCache.
type PurgeCacheParams struct {
	Prefix *string `form:"prefix,omitempty" json:"prefix,omitempty"`
}

// GetUsageParams defines parameters for GetUsage.
type GetUsageParams struct {
	Period *UsagePeriod `form:"period,omitempty" json:"period,omitempty"`
}

// SearchProductsPostJSONRequestBody defines body for SearchProductsPost for application/json ContentType.
type SearchProductsPostJSONRequestBody = SearchRequest

// PostEventJSONRequestBody defines body for PostEvent for application/json ContentType.
type PostEventJSONRequestBody = EventRequest

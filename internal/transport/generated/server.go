package generated

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

// ServerInterface represents all server handlers.
type ServerInterface interface {
	// Free-text product search, filters as query parameters
	// (GET /search)
	SearchProducts(w http.ResponseWriter, r *http.Request, params SearchProductsParams)
	// Free-text product search, filters in a JSON body
	// (POST /search)
	SearchProductsPost(w http.ResponseWriter, r *http.Request)
	// Recommendations from purchase history
	// (GET /users/{userId}/recommendations)
	GetRecommendations(w http.ResponseWriter, r *http.Request, userId int64)
	// Catalog or order change notification
	// (POST /events)
	PostEvent(w http.ResponseWriter, r *http.Request)
	// Purge cached results under a key prefix
	// (DELETE /cache)
	PurgeCache(w http.ResponseWriter, r *http.Request, params PurgeCacheParams)
	// Embedding token usage against the configured budget
	// (GET /usage)
	GetUsage(w http.ResponseWriter, r *http.Request, params GetUsageParams)
	// Health check
	// (GET /health)
	HealthCheck(w http.ResponseWriter, r *http.Request)
	// Prometheus metrics
	// (GET /metrics)
	Metrics(w http.ResponseWriter, r *http.Request)
}

// Unimplemented answers 501 for every operation. Embed it to implement a subset.
type Unimplemented struct{}

// SearchProducts (GET /search)
func (Unimplemented) SearchProducts(w http.ResponseWriter, _ *http.Request, _ SearchProductsParams) {
	w.WriteHeader(http.StatusNotImplemented)
}

// SearchProductsPost (POST /search)
func (Unimplemented) SearchProductsPost(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNotImplemented)
}

// GetRecommendations (GET /users/{userId}/recommendations)
func (Unimplemented) GetRecommendations(w http.ResponseWriter, _ *http.Request, _ int64) {
	w.WriteHeader(http.StatusNotImplemented)
}

// PostEvent (POST /events)
func (Unimplemented) PostEvent(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNotImplemented)
}

// PurgeCache (DELETE /cache)
func (Unimplemented) PurgeCache(w http.ResponseWriter, _ *http.Request, _ PurgeCacheParams) {
	w.WriteHeader(http.StatusNotImplemented)
}

// GetUsage (GET /usage)
func (Unimplemented) GetUsage(w http.ResponseWriter, _ *http.Request, _ GetUsageParams) {
	w.WriteHeader(http.StatusNotImplemented)
}

// HealthCheck (GET /health)
func (Unimplemented) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNotImplemented)
}

// Metrics (GET /metrics)
func (Unimplemented) Metrics(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNotImplemented)
}

// MiddlewareFunc wraps a single operation handler.
type MiddlewareFunc func(http.Handler) http.Handler

// ServerInterfaceWrapper converts raw requests to typed handler calls.
type ServerInterfaceWrapper struct {
	Handler            ServerInterface
	HandlerMiddlewares []MiddlewareFunc
	ErrorHandlerFunc   func(w http.ResponseWriter, r *http.Request, err error)
}

// SearchProducts operation middleware
func (siw *ServerInterfaceWrapper) SearchProducts(w http.ResponseWriter, r *http.Request) {
	var params SearchProductsParams
	query := r.URL.Query()

	bindings := []struct {
		name string
		dest any
	}{
		{"q", &params.Q},
		{"category_id", &params.CategoryId},
		{"shop_id", &params.ShopId},
		{"min_price", &params.MinPrice},
		{"max_price", &params.MaxPrice},
		{"in_stock", &params.InStock},
		{"min_rating", &params.MinRating},
		{"name_contains", &params.NameContains},
		{"sort_by", &params.SortBy},
		{"sort_order", &params.SortOrder},
	}
	for _, b := range bindings {
		if err := runtime.BindQueryParameter("form", true, false, b.name, query, b.dest); err != nil {
			siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: b.name, Err: err})
			return
		}
	}

	handler := http.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.SearchProducts(w, r, params)
	}))
	siw.serve(handler, w, r)
}

// SearchProductsPost operation middleware
func (siw *ServerInterfaceWrapper) SearchProductsPost(w http.ResponseWriter, r *http.Request) {
	siw.serve(http.HandlerFunc(siw.Handler.SearchProductsPost), w, r)
}

// GetRecommendations operation middleware
func (siw *ServerInterfaceWrapper) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	var userID int64
	err := runtime.BindStyledParameterWithOptions("simple", "userId", chi.URLParam(r, "userId"), &userID,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "userId", Err: err})
		return
	}

	handler := http.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.GetRecommendations(w, r, userID)
	}))
	siw.serve(handler, w, r)
}

// PostEvent operation middleware
func (siw *ServerInterfaceWrapper) PostEvent(w http.ResponseWriter, r *http.Request) {
	siw.serve(http.HandlerFunc(siw.Handler.PostEvent), w, r)
}

// PurgeCache operation middleware
func (siw *ServerInterfaceWrapper) PurgeCache(w http.ResponseWriter, r *http.Request) {
	var params PurgeCacheParams
	if err := runtime.BindQueryParameter("form", true, false, "prefix", r.URL.Query(), &params.Prefix); err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "prefix", Err: err})
		return
	}

	handler := http.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.PurgeCache(w, r, params)
	}))
	siw.serve(handler, w, r)
}

// GetUsage operation middleware
func (siw *ServerInterfaceWrapper) GetUsage(w http.ResponseWriter, r *http.Request) {
	var params GetUsageParams
	if err := runtime.BindQueryParameter("form", true, false, "period", r.URL.Query(), &params.Period); err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "period", Err: err})
		return
	}

	handler := http.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.GetUsage(w, r, params)
	}))
	siw.serve(handler, w, r)
}

// HealthCheck operation middleware
func (siw *ServerInterfaceWrapper) HealthCheck(w http.ResponseWriter, r *http.Request) {
	siw.serve(http.HandlerFunc(siw.Handler.HealthCheck), w, r)
}

// Metrics operation middleware
func (siw *ServerInterfaceWrapper) Metrics(w http.ResponseWriter, r *http.Request) {
	siw.serve(http.HandlerFunc(siw.Handler.Metrics), w, r)
}

func (siw *ServerInterfaceWrapper) serve(handler http.Handler, w http.ResponseWriter, r *http.Request) {
	for _, middleware := range siw.HandlerMiddlewares {
		handler = middleware(handler)
	}
	handler.ServeHTTP(w, r)
}

// InvalidParamFormatError reports a parameter that failed to bind.
type InvalidParamFormatError struct {
	ParamName string
	Err       error
}

func (e *InvalidParamFormatError) Error() string {
	return fmt.Sprintf("Invalid format for parameter %s: %s", e.ParamName, e.Err.Error())
}

func (e *InvalidParamFormatError) Unwrap() error {
	return e.Err
}

// ChiServerOptions configures HandlerWithOptions.
type ChiServerOptions struct {
	BaseURL          string
	BaseRouter       chi.Router
	Middlewares      []MiddlewareFunc
	ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

// Handler creates http.Handler with routing matching the OpenAPI spec.
func Handler(si ServerInterface) http.Handler {
	return HandlerWithOptions(si, ChiServerOptions{})
}

// HandlerWithOptions creates http.Handler with additional options.
func HandlerWithOptions(si ServerInterface, options ChiServerOptions) http.Handler {
	r := options.BaseRouter
	if r == nil {
		r = chi.NewRouter()
	}
	if options.ErrorHandlerFunc == nil {
		options.ErrorHandlerFunc = func(w http.ResponseWriter, _ *http.Request, err error) {
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
	}
	wrapper := ServerInterfaceWrapper{
		Handler:            si,
		HandlerMiddlewares: options.Middlewares,
		ErrorHandlerFunc:   options.ErrorHandlerFunc,
	}

	r.Group(func(r chi.Router) {
		r.Get(options.BaseURL+"/search", wrapper.SearchProducts)
	})
	r.Group(func(r chi.Router) {
		r.Post(options.BaseURL+"/search", wrapper.SearchProductsPost)
	})
	r.Group(func(r chi.Router) {
		r.Get(options.BaseURL+"/users/{userId}/recommendations", wrapper.GetRecommendations)
	})
	r.Group(func(r chi.Router) {
		r.Post(options.BaseURL+"/events", wrapper.PostEvent)
	})
	r.Group(func(r chi.Router) {
		r.Delete(options.BaseURL+"/cache", wrapper.PurgeCache)
	})
	r.Group(func(r chi.Router) {
		r.Get(options.BaseURL+"/usage", wrapper.GetUsage)
	})
	r.Group(func(r chi.Router) {
		r.Get(options.BaseURL+"/health", wrapper.HealthCheck)
	})
	r.Group(func(r chi.Router) {
		r.Get(options.BaseURL+"/metrics", wrapper.Metrics)
	})

	return r
}

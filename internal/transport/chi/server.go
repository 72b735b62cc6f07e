// Package chi exposes the search engine over HTTP using the chi router.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	chirouter "github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	searchcore "github.com/arenahq/searchcore"
	"github.com/arenahq/searchcore/internal/logger"
	"github.com/arenahq/searchcore/internal/metrics"
	"github.com/arenahq/searchcore/internal/monitor"
)

// Error codes returned in the HTTP error envelope.
const (
	codeBadRequest        = "BAD_REQUEST"
	codeInvalidQuery      = "INVALID_QUERY"
	codeTimeout           = "TIMEOUT"
	codeUpstreamError     = "UPSTREAM_ERROR"
	codeNotFound          = "NOT_FOUND"
	codeAnalyticsDisabled = "ANALYTICS_DISABLED"
	codeInternalError     = "INTERNAL_ERROR"
)

// errorResponse is the JSON error envelope.
type errorResponse struct {
	Code      string   `json:"code"`
	Message   string   `json:"message"`
	Details   []string `json:"details,omitempty"`
	Retryable bool     `json:"retryable,omitempty"`
}

// Server routes HTTP requests to the search engine.
type Server struct {
	engine *searchcore.Engine
	logger *zap.Logger
}

// NewServer creates the HTTP API server over an engine.
func NewServer(engine *searchcore.Engine, logger *zap.Logger) *Server {
	return &Server{engine: engine, logger: logger}
}

// Router assembles the full middleware chain and route table.
func (s *Server) Router(apiKeys []string) http.Handler {
	r := chirouter.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(s.requestLogger)
	r.Use(s.recoverer)
	r.Use(BearerAuthMiddleware(apiKeys))
	r.Use(metrics.Middleware())

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chirouter.Router) {
		r.Post("/search", s.handleSearch)
		r.Get("/suggest", s.handleSuggest)

		r.Get("/analytics", s.handleAnalytics)
		r.Get("/analytics/optimizations", s.handleOptimizations)

		r.Route("/saved-searches", func(r chirouter.Router) {
			r.Get("/", s.handleListSaved)
			r.Post("/", s.handleSaveSearch)
			r.Delete("/{id}", s.handleDeleteSaved)
			r.Post("/{id}/run", s.handleRunSaved)
		})

		r.Post("/caches/clear", s.handleClearCaches)
		r.Post("/caches/prefetch", s.handlePrefetch)
	})
	return r
}

// searchRequest is the POST /search body.
type searchRequest struct {
	Term     string              `json:"term"`
	Type     string              `json:"searchType"`
	Filters  map[string][]string `json:"filters,omitempty"`
	Offset   int                 `json:"offset,omitempty"`
	Limit    int                 `json:"limit,omitempty"`
	Debounce bool                `json:"debounce,omitempty"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	q := searchcore.Query{
		Term:    req.Term,
		Type:    searchcore.SearchType(req.Type),
		Filters: req.Filters,
		Offset:  req.Offset,
		Limit:   req.Limit,
	}
	res, err := s.engine.Search(r.Context(), q, req.Debounce)
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	prefix := r.URL.Query().Get("q")
	searchType := r.URL.Query().Get("type")
	if searchType == "" {
		searchType = string(searchcore.TypeAll)
	}

	suggestions, err := s.engine.AutoComplete(r.Context(), prefix, searchcore.SearchType(searchType))
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"suggestions": suggestions})
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	to := time.Now()
	from := to.Add(-24 * time.Hour)
	var err error
	if v := r.URL.Query().Get("from"); v != "" {
		if from, err = time.Parse(time.RFC3339, v); err != nil {
			writeError(w, http.StatusBadRequest, codeBadRequest, "from must be RFC 3339")
			return
		}
	}
	if v := r.URL.Query().Get("to"); v != "" {
		if to, err = time.Parse(time.RFC3339, v); err != nil {
			writeError(w, http.StatusBadRequest, codeBadRequest, "to must be RFC 3339")
			return
		}
	}

	a, err := s.engine.Analytics(r.Context(), from, to)
	if errors.Is(err, searchcore.ErrAnalyticsDisabled) {
		writeError(w, http.StatusNotImplemented, codeAnalyticsDisabled, "analytics collection is disabled")
		return
	}
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleOptimizations(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]monitor.Suggestion{
		"suggestions": s.engine.Monitor().GetOptimizationSuggestions(),
	})
}

type saveSearchRequest struct {
	Name  string           `json:"name"`
	Query searchcore.Query `json:"query"`
}

func (s *Server) handleSaveSearch(w http.ResponseWriter, r *http.Request) {
	var req saveSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	saved, err := s.engine.SaveSearch(r.Context(), req.Name, req.Query)
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/v1/saved-searches/"+saved.ID)
	writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleListSaved(w http.ResponseWriter, r *http.Request) {
	list, err := s.engine.SavedSearches(r.Context())
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	if list == nil {
		list = []searchcore.SavedSearch{}
	}
	writeJSON(w, http.StatusOK, map[string][]searchcore.SavedSearch{"items": list})
}

func (s *Server) handleDeleteSaved(w http.ResponseWriter, r *http.Request) {
	id := chirouter.URLParam(r, "id")
	err := s.engine.DeleteSavedSearch(r.Context(), id)
	if errors.Is(err, searchcore.ErrSavedSearchNotFound) {
		writeError(w, http.StatusNotFound, codeNotFound, "saved search not found")
		return
	}
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRunSaved(w http.ResponseWriter, r *http.Request) {
	id := chirouter.URLParam(r, "id")
	res, err := s.engine.RunSavedSearch(r.Context(), id)
	if errors.Is(err, searchcore.ErrSavedSearchNotFound) {
		writeError(w, http.StatusNotFound, codeNotFound, "saved search not found")
		return
	}
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleClearCaches(w http.ResponseWriter, r *http.Request) {
	if pattern := r.URL.Query().Get("pattern"); pattern != "" {
		n, err := s.engine.InvalidateResults(pattern)
		if err != nil {
			writeError(w, http.StatusBadRequest, codeBadRequest, "invalid pattern: "+err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{"invalidated": n})
		return
	}
	s.engine.ClearCaches()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePrefetch(w http.ResponseWriter, r *http.Request) {
	warmed := s.engine.PrefetchPopular(r.Context())
	writeJSON(w, http.StatusOK, map[string]int{"warmed": warmed})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := s.engine.Monitor().GetRealtimeStatus()
	code := http.StatusOK
	if status.Status == monitor.StatusUnhealthy {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, status)
}

// requestLogger stores a logger tagged with the request ID in the request
// context so deeper layers log attributable lines.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		l := s.logger
		if id := chimiddleware.GetReqID(r.Context()); id != "" {
			l = l.With(zap.String("request_id", id))
		}
		next.ServeHTTP(w, r.WithContext(logger.ContextWithLogger(r.Context(), l)))
	})
}

// writeEngineError maps the engine error taxonomy onto HTTP statuses.
func (s *Server) writeEngineError(w http.ResponseWriter, r *http.Request, err error) {
	serr, ok := searchcore.AsError(err)
	if !ok {
		logger.FromContext(r.Context()).Error("Unclassified engine error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
		return
	}

	var status int
	var code string
	switch serr.Kind {
	case searchcore.KindInvalidQuery:
		status, code = http.StatusBadRequest, codeInvalidQuery
	case searchcore.KindTimeout:
		status, code = http.StatusGatewayTimeout, codeTimeout
	case searchcore.KindNetworkError:
		status, code = http.StatusBadGateway, codeUpstreamError
	default:
		status, code = http.StatusInternalServerError, codeInternalError
	}

	resp := errorResponse{
		Code:      code,
		Message:   serr.Message,
		Details:   serr.Violations,
		Retryable: serr.Retryable,
	}
	if serr.Retryable {
		w.Header().Set("Retry-After", "1")
	}
	writeJSON(w, status, resp)
}

// recoverer converts panics into JSON 500s instead of chi's plain text.
func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.FromContext(r.Context()).Error("Panic in HTTP handler",
					zap.Any("panic", rec),
					zap.String("path", r.URL.Path),
				)
				writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: strings.TrimSpace(message)})
}

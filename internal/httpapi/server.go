package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/joshsymonds/inboxtriage/internal/triage"
)

const (
	maxSearchResults = 500
	maxBodyBytes     = 1 << 20
	requestIDHeader  = "X-Request-Id"
)

// Triage is the core surface the HTTP layer maps onto routes.
type Triage interface {
	Search(ctx context.Context, keyword string, maxResults int) (triage.SearchResult, error)
	Apply(ctx context.Context, req triage.ActionRequest) (triage.ActionResult, error)
}

// Server exposes search and bulk actions over HTTP.
type Server struct {
	Triage         Triage
	Logger         *slog.Logger
	AllowedOrigins []string
}

// NewServer constructs a Server; nil logger writes to stderr and no origins means "*".
func NewServer(t Triage, logger *slog.Logger, allowedOrigins []string) *Server {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	return &Server{Triage: t, Logger: logger, AllowedOrigins: allowedOrigins}
}

type errorResponse struct {
	Detail string               `json:"detail"`
	Result *triage.ActionResult `json:"result,omitempty"`
}

// Handler returns the routed, instrumented handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /email/search", s.handleSearch)
	mux.HandleFunc("POST /email/action", s.handleAction)

	var h http.Handler = mux
	h = s.cors(h)
	h = s.logRequests(h)
	return otelhttp.NewHandler(h, "inboxtriage")
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Email Triage Backend is running"})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	keyword := q.Get("keyword")
	if keyword == "" {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Detail: "keyword is required"})
		return
	}
	maxResults := triage.DefaultMaxResults
	if raw := q.Get("max_results"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxSearchResults {
			writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
				Detail: fmt.Sprintf("max_results must be an integer between 1 and %d", maxSearchResults),
			})
			return
		}
		maxResults = n
	}

	res, err := s.Triage.Search(r.Context(), keyword, maxResults)
	if err != nil {
		s.Logger.Error("search failed", "keyword", keyword, "error", err, "request_id", requestID(r))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Detail: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	var req triage.ActionRequest
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Detail: fmt.Sprintf("invalid request body: %v", err)})
		return
	}
	if req.EmailIDs == nil || req.Action == "" {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Detail: "email_ids and action are required"})
		return
	}

	res, err := s.Triage.Apply(r.Context(), req)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, res)
	case errors.Is(err, triage.ErrUnsupportedAction):
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: err.Error()})
	default:
		s.Logger.Error("action failed", "action", req.Action, "error", err, "request_id", requestID(r))
		resp := errorResponse{Detail: err.Error()}
		if len(res.Outcomes) > 0 {
			resp.Result = &res
		}
		writeJSON(w, http.StatusInternalServerError, resp)
	}
}

func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowed := s.allowOrigin(origin); allowed != "" {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", allowed)
			if !s.anyOrigin() {
				h.Set("Access-Control-Allow-Credentials", "true")
			}
			h.Add("Vary", "Origin")
			if r.Method == http.MethodOptions {
				h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				reqHeaders := r.Header.Get("Access-Control-Request-Headers")
				if reqHeaders == "" {
					reqHeaders = "*"
				}
				h.Set("Access-Control-Allow-Headers", reqHeaders)
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// anyOrigin reports whether the wildcard is configured. Credentialed requests
// are only allowed for an explicit origin list.
func (s *Server) anyOrigin() bool {
	for _, o := range s.AllowedOrigins {
		if o == "*" {
			return true
		}
	}
	return false
}

// allowOrigin echoes the origin back when permitted.
func (s *Server) allowOrigin(origin string) string {
	if origin == "" {
		return ""
	}
	for _, o := range s.AllowedOrigins {
		if o == "*" || o == origin {
			return origin
		}
	}
	return ""
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
			r.Header.Set(requestIDHeader, id)
		}
		w.Header().Set(requestIDHeader, id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		s.Logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
			"request_id", id,
		)
	})
}

func requestID(r *http.Request) string {
	return r.Header.Get(requestIDHeader)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Package http exposes the workflow engine as a small REST API, with every
// request validated against the embedded OpenAPI document before it reaches
// a handler.
package http

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/gorillamux"
	"github.com/go-chi/chi/v5"

	vibe "github.com/mrsimpson/responsible-vibe-mcp-sub000"
	"github.com/mrsimpson/responsible-vibe-mcp-sub000/pkg/domain"
	"github.com/mrsimpson/responsible-vibe-mcp-sub000/pkg/session"
)

//go:embed openapi.yaml
var openapiSpec []byte

// Server implements the REST surface.
type Server struct {
	engine *vibe.Engine
	logger *slog.Logger
}

// NewHandler creates the HTTP handler for the engine. The optional metrics
// handler (promhttp) is mounted at /metrics when non-nil.
func NewHandler(engine *vibe.Engine, logger *slog.Logger, metrics http.Handler) (http.Handler, error) {
	s := &Server{engine: engine, logger: logger}

	validator, err := newValidator()
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	if metrics != nil {
		r.Method(http.MethodGet, "/metrics", metrics)
	}
	r.Get("/openapi.yaml", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(openapiSpec)
	})

	r.Group(func(r chi.Router) {
		r.Use(validator)
		r.Get("/workflows", s.listWorkflows)
		r.Get("/workflows/{name}", s.getWorkflow)
		r.Get("/conversations/{id}", s.getConversation)
		r.Get("/conversations/{id}/instructions", s.whatsNext)
		r.Post("/conversations/{id}/advance", s.advance)
	})

	return r, nil
}

// newValidator builds a middleware validating requests against the embedded
// OpenAPI document.
func newValidator() (func(http.Handler) http.Handler, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(openapiSpec)
	if err != nil {
		return nil, fmt.Errorf("failed to load embedded OpenAPI spec: %w", err)
	}
	if err := doc.Validate(loader.Context); err != nil {
		return nil, fmt.Errorf("embedded OpenAPI spec is invalid: %w", err)
	}
	router, err := gorillamux.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to build OpenAPI router: %w", err)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			route, pathParams, err := router.FindRoute(req)
			if err != nil {
				if errors.Is(err, routers.ErrPathNotFound) {
					http.NotFound(w, req)
					return
				}
				http.Error(w, err.Error(), http.StatusMethodNotAllowed)
				return
			}

			input := &openapi3filter.RequestValidationInput{
				Request:    req,
				PathParams: pathParams,
				Route:      route,
			}
			if err := openapi3filter.ValidateRequest(req.Context(), input); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			next.ServeHTTP(w, req)
		})
	}, nil
}

func (s *Server) listWorkflows(w http.ResponseWriter, req *http.Request) {
	names, err := s.engine.Workflows()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, names)
}

func (s *Server) getWorkflow(w http.ResponseWriter, req *http.Request) {
	def, err := s.engine.Workflow(chi.URLParam(req, "name"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, def)
}

func (s *Server) getConversation(w http.ResponseWriter, req *http.Request) {
	state, err := s.engine.Conversation(req.Context(), chi.URLParam(req, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, state)
}

func (s *Server) whatsNext(w http.ResponseWriter, req *http.Request) {
	result, err := s.engine.WhatsNext(req.Context(),
		chi.URLParam(req, "id"),
		req.URL.Query().Get("role"),
		nil,
	)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

type advanceBody struct {
	Trigger       string            `json:"trigger"`
	Workflow      string            `json:"workflow,omitempty"`
	Role          string            `json:"role,omitempty"`
	Substitutions map[string]string `json:"substitutions,omitempty"`
}

func (s *Server) advance(w http.ResponseWriter, req *http.Request) {
	var body advanceBody
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	result, err := s.engine.Advance(req.Context(), session.AdvanceRequest{
		ConversationID: chi.URLParam(req, "id"),
		Workflow:       body.Workflow,
		Trigger:        body.Trigger,
		Role:           body.Role,
		Substitutions:  body.Substitutions,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

// writeError maps the error taxonomy onto HTTP status codes: missing
// entities are 404, expected transition rejections are 409, persistence
// failures 503 (safe to retry), everything else 500.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var (
		noSuch     *domain.NoSuchTransitionError
		ambiguous  *domain.AmbiguousTransitionError
		validation *domain.ValidationError
		persist    *domain.PersistenceError
	)

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrConversationNotFound),
		errors.Is(err, domain.ErrWorkflowNotFound):
		status = http.StatusNotFound
	case errors.As(err, &noSuch), errors.As(err, &ambiguous), errors.As(err, &validation):
		status = http.StatusConflict
	case errors.As(err, &persist):
		status = http.StatusServiceUnavailable
	default:
		s.logger.Error("request failed", "err", err)
	}

	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "err", err)
	}
}

// Serve runs the HTTP server until ctx is canceled.
func Serve(ctx context.Context, addr string, handler http.Handler, logger *slog.Logger) error {
	srv := &http.Server{Addr: addr, Handler: handler}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "address", addr)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

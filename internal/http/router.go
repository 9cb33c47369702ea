package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"

	"social-schema-service/internal/app"
	"social-schema-service/internal/observability/metrics"
	"social-schema-service/internal/schema"
	"social-schema-service/internal/service/admission"
	"social-schema-service/internal/store"
)

const maxBodyBytes = 1 << 20

// NewRouter constructs the HTTP router for the service.
func NewRouter(application *app.Application) http.Handler {
	return newRouter(application.Admission, application.Ready, metrics.DefaultMetrics)
}

func newRouter(ctrl *admission.Controller, ready func() bool, m *metrics.Metrics) http.Handler {
	h := &handlers{admission: ctrl}
	r := chi.NewRouter()

	// Basic middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestMetrics(m))

	// Health endpoints
	r.Get("/v1/liveness", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/v1/readiness", func(w http.ResponseWriter, _ *http.Request) {
		if ready != nil && !ready() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("not ready"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	// API routes
	r.Route("/v1/collections", func(r chi.Router) {
		r.Get("/", h.listCollections)
		r.Route("/{name}", func(r chi.Router) {
			r.Get("/schema", h.collectionSchema)
			r.Post("/validate", h.validate)
			r.Post("/documents", h.insert)
		})
	})

	return r
}

type handlers struct {
	admission *admission.Controller
}

type collectionInfo struct {
	Name     string   `json:"name"`
	Required []string `json:"required"`
}

type validateResponse struct {
	Valid      bool               `json:"valid"`
	ID         string             `json:"id,omitempty"`
	Violations []schema.Violation `json:"violations,omitempty"`
}

func (h *handlers) listCollections(w http.ResponseWriter, _ *http.Request) {
	registry := h.admission.Registry()
	out := make([]collectionInfo, 0, len(registry.Names()))
	for _, name := range registry.Names() {
		c, _ := registry.Collection(name)
		out = append(out, collectionInfo{Name: c.Name, Required: c.Required})
	}
	writeJSON(w, http.StatusOK, map[string]any{"collections": out})
}

func (h *handlers) collectionSchema(w http.ResponseWriter, r *http.Request) {
	c, err := h.admission.Registry().Lookup(chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}

	body, err := bson.MarshalExtJSON(c.ValidatorDocument(), false, false)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (h *handlers) validate(w http.ResponseWriter, r *http.Request) {
	doc, ok := readDocument(w, r)
	if !ok {
		return
	}

	err := h.admission.Check(r.Context(), chi.URLParam(r, "name"), doc)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, validateResponse{Valid: true})
	case schema.Violations(err) != nil:
		writeJSON(w, http.StatusUnprocessableEntity, validateResponse{Violations: schema.Violations(err)})
	case errors.Is(err, schema.ErrUnknownCollection):
		writeError(w, http.StatusNotFound, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}

func (h *handlers) insert(w http.ResponseWriter, r *http.Request) {
	doc, ok := readDocument(w, r)
	if !ok {
		return
	}

	id, err := h.admission.Write(r.Context(), chi.URLParam(r, "name"), doc)
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, validateResponse{Valid: true, ID: id})
	case schema.Violations(err) != nil:
		writeJSON(w, http.StatusUnprocessableEntity, validateResponse{Violations: schema.Violations(err)})
	case errors.Is(err, schema.ErrUnknownCollection):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, store.ErrStoreDisabled):
		writeError(w, http.StatusServiceUnavailable, err)
	default:
		log.Error().Err(err).Str("collection", chi.URLParam(r, "name")).Msg("Insert failed")
		writeError(w, http.StatusInternalServerError, err)
	}
}

// readDocument decodes the request body as relaxed Extended JSON, so
// {"$oid": ...} and {"$date": ...} arrive as driver types.
func readDocument(w http.ResponseWriter, r *http.Request) (map[string]any, bool) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return nil, false
	}
	if len(body) > maxBodyBytes {
		writeError(w, http.StatusRequestEntityTooLarge, errors.New("document too large"))
		return nil, false
	}

	var doc map[string]any
	if err := bson.UnmarshalExtJSON(body, false, &doc); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("body must be a JSON object: "+err.Error()))
		return nil, false
	}
	return doc, true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to write response")
	}
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

// requestMetrics records every request by route pattern and status code.
func requestMetrics(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = r.Method + " " + rctx.RoutePattern()
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			duration := time.Since(start)
			m.RecordRequest("http", route, strconv.Itoa(status), duration.Seconds())

			log.Debug().
				Str("route", route).
				Int("status", status).
				Dur("duration", duration).
				Str("requestId", middleware.GetReqID(r.Context())).
				Msg("HTTP request")
		})
	}
}

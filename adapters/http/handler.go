// Package http exposes the unit wizard over a JSON API.
package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/artpar/unitwizard/adapters/metrics"
	"github.com/artpar/unitwizard/app"
	"github.com/artpar/unitwizard/core/errs"
	"github.com/artpar/unitwizard/core/form"
	"github.com/artpar/unitwizard/core/kernel"
	"github.com/artpar/unitwizard/domain/dimension"
	"github.com/artpar/unitwizard/pkg/jsonapi"
	"github.com/artpar/unitwizard/pkg/measure"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

const maxBody = 1 << 20

// Handler serves the wizard operations. Quantities and units travel as
// text; the wizard parses them with its default parser.
type Handler struct {
	wizard *app.Wizard
	logger zerolog.Logger
}

// NewHandler creates a new API handler.
func NewHandler(w *app.Wizard, logger zerolog.Logger) *Handler {
	return &Handler{
		wizard: w,
		logger: logger.With().Str("component", "http").Logger(),
	}
}

// ConvertRequest is the body of POST /v1/convert.
type ConvertRequest struct {
	Input        string `json:"input"`
	ToUnit       string `json:"to_unit,omitempty"`
	Parser       string `json:"parser,omitempty"`
	ToType       string `json:"to_type,omitempty"`
	Standardized bool   `json:"standardized,omitempty"`
}

// StandardizeRequest is the body of POST /v1/standardize. Exactly one of
// Input and Dimensionality is used; Input wins when both are set.
type StandardizeRequest struct {
	Input          string             `json:"input,omitempty"`
	Dimensionality map[string]float64 `json:"dimensionality,omitempty"`
}

// CheckRequest is the body of POST /v1/check.
type CheckRequest struct {
	Input          string             `json:"input"`
	Dimensionality map[string]float64 `json:"dimensionality,omitempty"`
	Unit           string             `json:"unit,omitempty"`
	Shape          []int              `json:"shape,omitempty"`
	DType          string             `json:"dtype,omitempty"`
}

// CompareRequest is the body of POST /v1/compare.
type CompareRequest struct {
	X    string   `json:"x"`
	Y    string   `json:"y"`
	RTol *float64 `json:"rtol,omitempty"`
	ATol *float64 `json:"atol,omitempty"`
}

// Convert handles POST /v1/convert.
func (h *Handler) Convert(w http.ResponseWriter, r *http.Request) {
	var req ConvertRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Input) == "" {
		jsonapi.WriteError(w, jsonapi.ErrValidationRequired("input"))
		return
	}

	var in any = req.Input
	if req.Standardized {
		std, err := h.wizard.Standardize(req.Input, form.Text)
		if err != nil {
			h.writeError(w, err)
			return
		}
		in = std
	}

	opts := app.ConvertOpts{ToForm: form.Text, Parser: req.Parser, ToType: app.ToType(req.ToType)}
	if req.ToUnit != "" {
		opts.ToUnit = req.ToUnit
	}
	out, err := h.wizard.Convert(in, opts)
	if err != nil {
		h.writeError(w, err)
		return
	}

	res := jsonapi.NewResource("conversions", middleware.GetReqID(r.Context())).
		Attr("input", req.Input).
		Attr("result", out)
	if d, err := h.wizard.Dimensionality(out); err == nil {
		res.Attr("dimensionality", vectorJSON(d))
	}
	jsonapi.WriteResource(w, http.StatusOK, res.Build())
}

// Standardize handles POST /v1/standardize.
func (h *Handler) Standardize(w http.ResponseWriter, r *http.Request) {
	var req StandardizeRequest
	if !decode(w, r, &req) {
		return
	}

	res := jsonapi.NewResource("standardizations", middleware.GetReqID(r.Context()))
	switch {
	case strings.TrimSpace(req.Input) != "":
		out, err := h.wizard.Standardize(req.Input, form.Text)
		if err != nil {
			h.writeError(w, err)
			return
		}
		unit, err := h.wizard.UnitOf(out, app.UnitOpts{ToForm: form.Text})
		if err != nil {
			h.writeError(w, err)
			return
		}
		res.Attr("input", req.Input).Attr("result", out).Attr("unit", unit)
	case req.Dimensionality != nil:
		dims, err := dimension.FromStrings(req.Dimensionality)
		if err != nil {
			jsonapi.WriteError(w, jsonapi.NewError(422, "validation_error", "Validation Error").
				Detail(err.Error()).Pointer("/dimensionality").Build())
			return
		}
		unit, err := h.wizard.StandardUnits(app.StandardOpts{Dims: dims, Form: form.Text})
		if err != nil {
			h.writeError(w, err)
			return
		}
		res.Attr("dimensionality", vectorJSON(dimension.Pad(dims))).Attr("unit", unit)
	default:
		jsonapi.WriteError(w, jsonapi.ErrValidationRequired("input"))
		return
	}
	jsonapi.WriteResource(w, http.StatusOK, res.Build())
}

// Check handles POST /v1/check.
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	var req CheckRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Input) == "" {
		jsonapi.WriteError(w, jsonapi.ErrValidationRequired("input"))
		return
	}

	opts := app.CheckOpts{Shape: req.Shape, DTypeName: req.DType}
	if req.Unit != "" {
		opts.Unit = req.Unit
	}
	if req.Dimensionality != nil {
		dims, err := dimension.FromStrings(req.Dimensionality)
		if err != nil {
			jsonapi.WriteError(w, jsonapi.NewError(422, "validation_error", "Validation Error").
				Detail(err.Error()).Pointer("/dimensionality").Build())
			return
		}
		opts.Dimensionality = dims
	}

	// Magnitude constraints need the parsed value, not the text.
	var in any = req.Input
	if req.Shape != nil || req.DType != "" {
		q, err := h.wizard.Convert(req.Input, app.ConvertOpts{})
		if err != nil {
			h.writeError(w, err)
			return
		}
		in = q
	}

	ok, err := h.wizard.Check(in, opts)
	if err != nil {
		h.writeError(w, err)
		return
	}
	jsonapi.WriteResource(w, http.StatusOK, jsonapi.NewResource("checks", middleware.GetReqID(r.Context())).
		Attr("input", req.Input).
		Attr("ok", ok).
		Build())
}

// Compare handles POST /v1/compare.
func (h *Handler) Compare(w http.ResponseWriter, r *http.Request) {
	var req CompareRequest
	if !decode(w, r, &req) {
		return
	}
	if req.X == "" || req.Y == "" {
		field := "x"
		if req.X != "" {
			field = "y"
		}
		jsonapi.WriteError(w, jsonapi.ErrValidationRequired(field))
		return
	}
	rtol, atol := app.DefaultRTol, app.DefaultATol
	if req.RTol != nil {
		rtol = *req.RTol
	}
	if req.ATol != nil {
		atol = *req.ATol
	}

	compatible, err := h.wizard.AreCompatible(req.X, req.Y)
	if err != nil {
		h.writeError(w, err)
		return
	}
	equal, err := h.wizard.AreEqual(req.X, req.Y, false)
	if err != nil {
		h.writeError(w, err)
		return
	}
	closeEnough := false
	if compatible && h.wizard.IsQuantity(req.X) && h.wizard.IsQuantity(req.Y) {
		if closeEnough, err = h.wizard.AreClose(req.X, req.Y, rtol, atol); err != nil {
			h.writeError(w, err)
			return
		}
	}
	jsonapi.WriteResource(w, http.StatusOK, jsonapi.NewResource("comparisons", middleware.GetReqID(r.Context())).
		Attr("compatible", compatible).
		Attr("equal", equal).
		Attr("close", closeEnough).
		Build())
}

// Forms handles GET /v1/forms.
func (h *Handler) Forms(w http.ResponseWriter, r *http.Request) {
	st := h.wizard.State()
	loaded := map[string]bool{}
	for _, name := range h.wizard.Forms().Names() {
		loaded[name] = true
	}

	var out []jsonapi.Resource
	for _, tag := range h.wizard.Available() {
		res := jsonapi.NewResource("forms", tag).
			Attr("loaded", loaded[tag]).
			Attr("default_form", st.DefaultForm == tag).
			Attr("default_parser", st.DefaultParser == tag)
		if f, ok := h.wizard.Forms().Get(tag); ok {
			res.Attr("parser", f.HasParser())
		}
		out = append(out, res.Build())
	}
	jsonapi.WriteCollection(w, http.StatusOK, out, jsonapi.Meta{"loaded": h.wizard.Forms().Names()})
}

// Standards handles GET /v1/standards.
func (h *Handler) Standards(w http.ResponseWriter, r *http.Request) {
	st := h.wizard.State()

	order := make([]string, len(st.Order))
	for i, s := range st.Order {
		order[i] = string(s)
	}
	res := jsonapi.NewResource("standards", "current").
		Attr("units", nonNil(st.Standards)).
		Attr("adimensional", nonNil(st.Adimensional)).
		Attr("order", order).
		Attr("decimals", st.Decimals)

	res.Attr("fundamental", standardsJSON(st.Fundamental)).
		Attr("combinations", standardsJSON(st.Combinations)).
		Attr("tentative", standardsJSON(st.Tentative))
	jsonapi.WriteResource(w, http.StatusOK, res.Build())
}

func standardsJSON(stds []kernel.Standard) []map[string]any {
	out := make([]map[string]any, 0, len(stds))
	for _, s := range stds {
		out = append(out, map[string]any{"unit": s.Unit, "dimensionality": vectorJSON(s.Dims)})
	}
	return out
}

// BuildVersion is reported by /version. The CLI overrides it at startup.
var BuildVersion = "dev"

// VersionResponse represents the version endpoint response.
type VersionResponse struct {
	Version string `json:"version"`
	Service string `json:"service"`
}

// HealthResponse represents a health check response.
type HealthResponse struct {
	Status string `json:"status"`
}

// Health handles GET /health.
func Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(HealthResponse{Status: "ok"})
}

// Version returns the service version.
func Version(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(VersionResponse{
		Version: BuildVersion,
		Service: "unitwizard",
	})
}

// decode reads a JSON body into v and writes a 400 on failure.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		jsonapi.WriteBadRequest(w, "Failed to read request body")
		return false
	}
	if err := json.Unmarshal(body, v); err != nil {
		jsonapi.WriteBadRequest(w, "Request body is not valid JSON: "+err.Error())
		return false
	}
	return true
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func vectorJSON(v dimension.Vector) map[string]float64 {
	out := make(map[string]float64, len(v))
	for k, e := range v {
		out[string(k)] = e
	}
	return out
}

// writeError maps wizard errors onto JSON:API errors.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	jsonapi.WriteError(w, apiError(err))
	h.logger.Debug().Err(err).Msg("request failed")
}

// apiError converts err into a JSON:API error. Wizard errors keep their
// catalog code; unit parse errors become validation errors.
func apiError(err error) jsonapi.Error {
	var e *errs.Error
	if errors.As(err, &e) {
		status := http.StatusUnprocessableEntity
		switch e.Kind {
		case errs.ErrArgument:
			status = http.StatusBadRequest
		case errs.ErrLibraryNotFound, errs.ErrNotImplementedParser:
			status = http.StatusNotFound
		case errs.ErrNotImplementedMethod:
			status = http.StatusNotImplemented
		}
		return jsonapi.NewError(status, e.Code, e.Title()).
			Detail(e.UserMessage()).
			Meta("kind", errs.Label(e.Kind)).
			Build()
	}

	switch {
	case errors.Is(err, measure.ErrUndefinedUnit), errors.Is(err, measure.ErrSyntax), errors.Is(err, measure.ErrValue):
		return jsonapi.NewError(http.StatusUnprocessableEntity, "invalid_quantity", "Invalid Quantity").
			Detail(err.Error()).Build()
	case errors.Is(err, measure.ErrIncompatible):
		return jsonapi.NewError(http.StatusUnprocessableEntity, "incompatible_units", "Incompatible Units").
			Detail(err.Error()).Build()
	}
	return jsonapi.ErrInternal(err.Error())
}

// RouterConfig holds optional configuration for the router.
type RouterConfig struct {
	Metrics        *metrics.Collector
	MetricsHandler http.Handler // Optional metrics exporter handler (default: promhttp)
	MetricsPath    string       // Default: /metrics
	Timeout        time.Duration
}

// NewRouter creates the main HTTP router.
func NewRouter(h *Handler, logger zerolog.Logger) chi.Router {
	return NewRouterWithConfig(h, logger, RouterConfig{})
}

// NewRouterWithConfig creates the main HTTP router with optional config.
func NewRouterWithConfig(h *Handler, logger zerolog.Logger, cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(NewLoggingMiddleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(timeout))

	if cfg.Metrics != nil {
		r.Use(NewMetricsMiddleware(cfg.Metrics))
	}

	r.Get("/health", Health)
	r.Get("/version", Version)

	metricsPath := cfg.MetricsPath
	if metricsPath == "" {
		metricsPath = "/metrics"
	}
	if cfg.MetricsHandler != nil {
		r.Handle(metricsPath, cfg.MetricsHandler)
	} else if cfg.Metrics != nil {
		r.Handle(metricsPath, promhttp.Handler())
	}

	r.Route("/v1", func(r chi.Router) {
		r.Post("/convert", h.Convert)
		r.Post("/standardize", h.Standardize)
		r.Post("/check", h.Check)
		r.Post("/compare", h.Compare)
		r.Get("/forms", h.Forms)
		r.Get("/standards", h.Standards)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		jsonapi.WriteError(w, jsonapi.ErrNotFound("route"))
	})

	return r
}

// NewMetricsMiddleware creates middleware that records request metrics.
func NewMetricsMiddleware(m *metrics.Collector) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Skip metrics for internal endpoints
			if strings.HasPrefix(r.URL.Path, "/health") || r.URL.Path == "/metrics" {
				next.ServeHTTP(w, r)
				return
			}

			m.RequestsInFlight.Inc()
			defer m.RequestsInFlight.Dec()

			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			m.Request(r.Method, r.URL.Path, ww.Status(), time.Since(start))
		})
	}
}

// NewLoggingMiddleware creates a new logging middleware.
func NewLoggingMiddleware(logger zerolog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			// Skip logging for health checks and metrics
			if strings.HasPrefix(r.URL.Path, "/health") || r.URL.Path == "/metrics" {
				return
			}

			logger.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("http request")
		})
	}
}

// Package chi serves the governor's operational surface: the usage
// dashboard, per-provider status, trailing reports, limit updates, the
// savings view, and the governed provider endpoints.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/woo-consulting/apimeter/internal/domain/budget"
	"github.com/woo-consulting/apimeter/internal/providers"
	"github.com/woo-consulting/apimeter/internal/usecase/governor"
	"github.com/woo-consulting/apimeter/internal/usecase/savings"
	"github.com/woo-consulting/apimeter/internal/version"
)

// Error codes returned in JSON error bodies.
const (
	codeBadRequest       = "bad_request"
	codeUnauthorized     = "unauthorized"
	codeValidationFailed = "validation_failed"
	codeNotFound         = "not_found"
	codeRateLimited      = "rate_limited"
	codeUpstreamError    = "upstream_error"
	codeNotConfigured    = "provider_not_configured"
)

const maxReportDays = 365

// Server holds the use case services behind the HTTP surface. The provider
// wrappers are optional: a nil wrapper means that provider has no API key
// configured and its endpoint answers 503.
type Server struct {
	governor   *governor.Service
	savings    *savings.Service
	generative *providers.Generative
	places     *providers.Places
	weather    *providers.Weather
	logger     *zap.Logger
}

// NewServer creates the HTTP API server.
func NewServer(
	gov *governor.Service,
	sav *savings.Service,
	generative *providers.Generative,
	places *providers.Places,
	weather *providers.Weather,
	logger *zap.Logger,
) *Server {
	return &Server{
		governor:   gov,
		savings:    sav,
		generative: generative,
		places:     places,
		weather:    weather,
		logger:     logger,
	}
}

// Mount registers all routes on the given router.
func (s *Server) Mount(r chi.Router) {
	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/usage/dashboard", s.handleDashboard)
		r.Get("/usage/status", s.handleStatusAll)
		r.Get("/usage/status/{provider}", s.handleStatusOne)
		r.Get("/usage/report", s.handleReport)
		r.Put("/budget/{provider}/limits", s.handleUpdateLimits)

		r.Get("/savings", s.handleSavings)
		r.Post("/savings/reset", s.handleSavingsReset)

		r.Post("/ai/generate", s.handleGenerate)
		r.Get("/places/search", s.handlePlacesSearch)
		r.Get("/weather", s.handleWeather)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": version.Version,
	})
}

// handleDashboard handles GET /api/usage/dashboard.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	d := s.governor.Dashboard(r.Context())
	writeJSON(w, http.StatusOK, dashboardJSON{
		CurrentStatus: statusMapToJSON(d.CurrentStatus),
		WeeklyReport:  reportToJSON(d.WeeklyReport),
		MonthlyReport: reportToJSON(d.MonthlyReport),
	})
}

// handleStatusAll handles GET /api/usage/status.
func (s *Server) handleStatusAll(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statusMapToJSON(s.governor.StatusAll(r.Context())))
}

// handleStatusOne handles GET /api/usage/status/{provider}. Only configured
// providers have a status entry.
func (s *Server) handleStatusOne(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")

	st, ok := s.governor.StatusAll(r.Context())[provider]
	if !ok {
		writeError(w, http.StatusNotFound, codeNotFound, "no limits configured for provider "+provider)
		return
	}
	writeJSON(w, http.StatusOK, statusToJSON(st))
}

// handleReport handles GET /api/usage/report?provider=&days=.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	days := 7
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > maxReportDays {
			writeError(w, http.StatusBadRequest, codeValidationFailed,
				"days must be an integer between 1 and "+strconv.Itoa(maxReportDays))
			return
		}
		days = parsed
	}

	provider := r.URL.Query().Get("provider")
	report := s.governor.Report(r.Context(), provider, days)
	writeJSON(w, http.StatusOK, reportToJSON(report))
}

// handleUpdateLimits handles PUT /api/budget/{provider}/limits. Fields
// absent from the body keep their current values (merge semantics).
func (s *Server) handleUpdateLimits(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")

	var req limitsJSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	merged, err := s.governor.UpdateLimits(r.Context(), provider, limitsFromJSON(req))
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, limitsToJSON(merged))
}

// handleSavings handles GET /api/savings.
func (s *Server) handleSavings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, savingsToJSON(s.savings.GetReport(r.Context())))
}

// handleSavingsReset handles POST /api/savings/reset.
func (s *Server) handleSavingsReset(w http.ResponseWriter, r *http.Request) {
	s.savings.ResetMonthly(r.Context())
	writeJSON(w, http.StatusOK, savingsToJSON(s.savings.GetReport(r.Context())))
}

// handleGenerate handles POST /api/ai/generate.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if s.generative == nil {
		writeError(w, http.StatusServiceUnavailable, codeNotConfigured, "generative provider is not configured")
		return
	}

	var req struct {
		Prompt string `json:"prompt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Prompt == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "prompt is required")
		return
	}

	text, err := s.generative.Complete(r.Context(), req.Prompt)
	if err != nil {
		s.handleProviderError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"text": text})
}

// handlePlacesSearch handles GET /api/places/search?query=.
func (s *Server) handlePlacesSearch(w http.ResponseWriter, r *http.Request) {
	if s.places == nil {
		writeError(w, http.StatusServiceUnavailable, codeNotConfigured, "places provider is not configured")
		return
	}

	query := r.URL.Query().Get("query")
	if query == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "query is required")
		return
	}

	results, err := s.places.Search(r.Context(), query)
	if err != nil {
		s.handleProviderError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

// handleWeather handles GET /api/weather?city=.
func (s *Server) handleWeather(w http.ResponseWriter, r *http.Request) {
	if s.weather == nil {
		writeError(w, http.StatusServiceUnavailable, codeNotConfigured, "weather provider is not configured")
		return
	}

	city := r.URL.Query().Get("city")
	if city == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "city is required")
		return
	}

	cond, err := s.weather.Current(r.Context(), city)
	if err != nil {
		s.handleProviderError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"city":        cond.City,
		"temp_f":      cond.TempF,
		"description": cond.Description,
	})
}

// handleProviderError maps wrapper errors: over budget becomes 429, an
// upstream failure becomes a generic 502.
func (s *Server) handleProviderError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, budget.ErrExceeded):
		writeError(w, http.StatusTooManyRequests, codeRateLimited, err.Error())
	case errors.Is(err, providers.ErrUpstream):
		writeError(w, http.StatusBadGateway, codeUpstreamError, "upstream provider error")
	default:
		s.logger.Error("Unhandled provider error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

package httpadapter

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/kirillkom/fleet-compliance/internal/config"
	"github.com/kirillkom/fleet-compliance/internal/core/domain"
	"github.com/kirillkom/fleet-compliance/internal/core/expiry"
	"github.com/kirillkom/fleet-compliance/internal/core/ports"
	"github.com/kirillkom/fleet-compliance/internal/infrastructure/export/xlsx"
	"github.com/kirillkom/fleet-compliance/internal/observability/metrics"
)

const (
	serviceName          = "api"
	maxEvaluateBodyBytes = 4 << 20
)

type Router struct {
	cfg           config.Config
	notifications ports.NotificationService
	metrics       *metrics.HTTPServerMetrics
	location      *time.Location
	defaultLocale domain.Locale
}

func NewRouter(
	cfg config.Config,
	notifications ports.NotificationService,
	httpMetrics *metrics.HTTPServerMetrics,
) *Router {
	defaultLocale, err := domain.ParseLocale(cfg.DefaultLocale)
	if err != nil {
		defaultLocale = domain.LocaleArabic
	}
	return &Router{
		cfg:           cfg,
		notifications: notifications,
		metrics:       httpMetrics,
		location:      cfg.Location(),
		defaultLocale: defaultLocale,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/openapi.json", rt.openAPISpec)
	mux.HandleFunc("/v1/notifications", rt.listNotifications)
	mux.HandleFunc("/v1/notifications/badge", rt.badge)
	mux.HandleFunc("/v1/notifications/export.xlsx", rt.exportNotifications)
	mux.HandleFunc("/v1/notifications/evaluate", rt.evaluate)
	mux.HandleFunc("/v1/vehicles/", rt.vehicleNotifications)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	handler = backpressureMiddleware(handler, rt.cfg.APIBackpressureMaxInFlight, rt.cfg.APIBackpressureWait)
	handler = rateLimitMiddleware(handler, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst, rt.onRateLimited)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) listNotifications(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	locale, err := negotiateLocale(r, rt.defaultLocale)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}

	feed, err := rt.notifications.Feed(r.Context(), locale)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, feed)
}

func (rt *Router) badge(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	badge, err := rt.notifications.Badge(r.Context())
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, badge)
}

func (rt *Router) exportNotifications(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	locale, err := negotiateLocale(r, rt.defaultLocale)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}

	feed, err := rt.notifications.Feed(r.Context(), locale)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}

	var workbook bytes.Buffer
	if err := xlsx.WriteFeed(&workbook, feed); err != nil {
		slog.Error("xlsx_export_failed", "request_id", requestIDFromContext(r.Context()), "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "export failed"})
		return
	}

	filename := fmt.Sprintf("expiry-notifications-%s.xlsx", feed.Today.Format("2006-01-02"))
	w.Header().Set("Content-Type", xlsx.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(workbook.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := workbook.WriteTo(w); err != nil {
		slog.Warn("xlsx_export_write_failed", "request_id", requestIDFromContext(r.Context()), "error", err)
		return
	}
	if rt.metrics != nil {
		rt.metrics.RecordExport(serviceName, string(locale))
	}
}

type evaluateRequest struct {
	Today    string          `json:"today"`
	Locale   string          `json:"locale"`
	Snapshot domain.Snapshot `json:"snapshot"`
}

func (rt *Router) evaluate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}

	var req evaluateRequest
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxEvaluateBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	locale := rt.defaultLocale
	if strings.TrimSpace(req.Locale) != "" {
		parsed, err := domain.ParseLocale(req.Locale)
		if err != nil {
			rt.writeError(w, r, err)
			return
		}
		locale = parsed
	}

	today, _, err := expiry.ParseDate(req.Today, rt.location)
	if err != nil {
		rt.writeError(w, r, domain.WrapError(domain.ErrInvalidInput, "parse today", err))
		return
	}

	feed, err := rt.notifications.Evaluate(r.Context(), req.Snapshot, today, locale)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, feed)
}

// vehicleNotifications serves /v1/vehicles/{vehicle_id}/notifications.
func (rt *Router) vehicleNotifications(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/v1/vehicles/")
	vehicleID, suffix, found := strings.Cut(rest, "/")
	if !found || suffix != "notifications" {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	if strings.TrimSpace(vehicleID) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "vehicle id is required"})
		return
	}

	locale, err := negotiateLocale(r, rt.defaultLocale)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}

	feed, err := rt.notifications.VehicleFeed(r.Context(), vehicleID, locale)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, feed)
}

func (rt *Router) onRateLimited() {
	if rt.metrics != nil {
		rt.metrics.RecordRateLimited(serviceName)
	}
}

func (rt *Router) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := mapErrorToHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		slog.Error("request_failed", "request_id", requestIDFromContext(r.Context()), "path", r.URL.Path, "error", err)
	}

	payload := map[string]any{"error": err.Error()}
	var validation *domain.ValidationError
	if errors.As(err, &validation) {
		payload["record"] = map[string]string{
			"kind":  string(validation.Kind),
			"id":    validation.RecordID,
			"field": validation.Field,
			"value": validation.Value,
		}
	}
	writeJSON(w, status, payload)
}

func writeMethodNotAllowed(w http.ResponseWriter) {
	writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"llamalink/internal/resolver"
	"llamalink/pkg/types"
)

// zlog is the structured logger for the HTTP layer. Silent until SetLogger.
var zlog = zerolog.Nop()

// SetLogger installs a structured logger used by the HTTP layer.
func SetLogger(l zerolog.Logger) { zlog = l }

func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
			MaxAge:         300,
		}))
	}

	r.Get("/platforms", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, types.PlatformsResponse{Platforms: svc.Platforms()})
	})

	r.Get("/plan/{platform}", func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		name := chi.URLParam(r, "platform")
		platform, ok := types.ParsePlatform(name)
		if !ok || !resolver.Supported(platform) {
			writeJSONError(w, http.StatusBadRequest, "unknown platform: "+name)
			return
		}
		plan, err := svc.Plan(platform)
		z := zlog.Info().Str("platform", string(platform)).Dur("dur", time.Since(start))
		if rid := middleware.GetReqID(r.Context()); rid != "" {
			z = z.Str("request_id", rid)
		}
		if err != nil {
			status := http.StatusInternalServerError
			if resolver.IsConfigurationError(err) {
				status = http.StatusUnprocessableEntity
			}
			z.Int("status", status).Err(err).Msg("plan")
			writeJSONError(w, status, err.Error())
			return
		}
		z.Int("status", http.StatusOK).Str("fingerprint", plan.Fingerprint()).Msg("plan")
		writeJSON(w, http.StatusOK, types.PlanResponse{Plan: plan, Fingerprint: plan.Fingerprint()})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	MountSwagger(r)
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zlog.Error().Err(err).Msg("encode response")
	}
}

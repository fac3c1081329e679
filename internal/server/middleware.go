package server

import (
	"net/http"
	"runtime/debug"
	"time"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	errx "github.com/aura-core/server/internal/core/error"
	"github.com/aura-core/server/internal/metrics"
	logx "github.com/aura-core/server/pkg/logger"
)

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rvr := recover(); rvr != nil {
				if rvr == http.ErrAbortHandler {
					panic(rvr)
				}
				logx.Ctx(r.Context()).Error().
					Interface("panic", rvr).
					Bytes("stacktrace", debug.Stack()).
					Msg("panic recovered")
				writeJSON(w, http.StatusInternalServerError, detailResponse{Detail: errx.SystemErrorMessage})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// requestLogger emits one log line per request and propagates X-Request-ID.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := chiMiddleware.GetReqID(r.Context())
		if requestID != "" {
			w.Header().Set("X-Request-ID", requestID)
		}
		ctx := logx.WithContext(r.Context(), map[string]any{"request_id": requestID})

		ww := metrics.NewStatusWriter(w)
		r = r.WithContext(ctx)
		next.ServeHTTP(ww, r)

		logx.Ctx(ctx).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("route", metrics.RoutePattern(r)).
			Int("status", ww.Status()).
			Dur("latency", time.Since(start)).
			Str("ip", r.RemoteAddr).
			Msg("http_request")
	})
}

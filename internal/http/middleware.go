package router

import (
	"net/http"
	"runtime/debug"
	"time"

	"taskboard/internal/http/handlers"

	"github.com/charmbracelet/log"
	"github.com/felixge/httpsnoop"
	"github.com/klauspost/compress/gzhttp"
	"github.com/rs/cors"
	"github.com/unrolled/secure"
)

func recoverer(next http.Handler, logger *log.Logger, now func() time.Time) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			logger.Error("panic serving request", "method", r.Method, "path", r.URL.Path, "panic", rec, "stack", string(debug.Stack()))
			handlers.InternalError(w, now())
		}()
		next.ServeHTTP(w, r)
	})
}

func requestLogger(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := httpsnoop.CaptureMetrics(next, w, r)

		fields := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", m.Code,
			"bytes", m.Written,
			"duration", m.Duration,
		}
		switch {
		case m.Code >= http.StatusInternalServerError:
			logger.Error("request", fields...)
		case m.Code >= http.StatusBadRequest:
			logger.Warn("request", fields...)
		default:
			logger.Info("request", fields...)
		}
	})
}

func securityHeaders(next http.Handler, production bool) http.Handler {
	mw := secure.New(secure.Options{
		ContentTypeNosniff:    true,
		FrameDeny:             true,
		BrowserXssFilter:      true,
		ReferrerPolicy:        "no-referrer",
		ContentSecurityPolicy: "default-src 'self'",
		IsDevelopment:         !production,
	})
	return mw.Handler(next)
}

func corsHandler(next http.Handler, origins []string) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowCredentials: true,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodDelete, http.MethodPatch, http.MethodOptions,
		},
		AllowedHeaders: []string{"Content-Type", "Authorization", "X-Requested-With"},
		ExposedHeaders: []string{"X-Total-Count", "X-Page-Count"},
		MaxAge:         86400,
	})
	return c.Handler(next)
}

func compress(next http.Handler) http.Handler {
	return gzhttp.GzipHandler(next)
}

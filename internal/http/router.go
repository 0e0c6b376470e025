package router

import (
	"net/http"

	"taskboard/internal/http/handlers"

	"github.com/charmbracelet/log"
)

const TaskPath = "/api/v1/internal/task"

type Options struct {
	Logger         *log.Logger
	AllowedOrigins []string
	Production     bool

	// EnableReset mounts DELETE on the task collection.
	EnableReset bool
}

func New(handler *handlers.TaskHandler, health *handlers.HealthHandler, opts Options) http.Handler {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", health.Check)

	mux.HandleFunc("POST "+TaskPath, handler.Create)
	mux.HandleFunc("GET "+TaskPath, handler.List)
	mux.HandleFunc("GET "+TaskPath+"/{id}", handler.Get)
	if opts.EnableReset {
		mux.HandleFunc("DELETE "+TaskPath, handler.Clear)
	}

	mux.Handle("/", handlers.NotFound(handler.Now))

	var h http.Handler = mux
	h = compress(h)
	h = corsHandler(h, opts.AllowedOrigins)
	h = securityHeaders(h, opts.Production)
	h = requestLogger(h, opts.Logger)
	h = recoverer(h, opts.Logger, handler.Now)

	return h
}

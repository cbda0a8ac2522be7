// Package serve previews the rendered site over HTTP.
package serve

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

type Options struct {
	Address  string
	Docs     string
	BasePath string
	Logger   *zap.Logger
}

// Handler serves docs as static files, mounted under basePath when set.
func Handler(docs, basePath string, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	router := mux.NewRouter()
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			logger.Debug("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Duration("elapsed", time.Since(start)))
		})
	})

	prefix := strings.TrimSuffix(basePath, "/")
	files := http.FileServer(http.Dir(docs))
	if prefix == "" {
		router.PathPrefix("/").Handler(files)
	} else {
		router.Handle(prefix, http.RedirectHandler(prefix+"/", http.StatusMovedPermanently))
		router.PathPrefix(prefix + "/").Handler(http.StripPrefix(prefix, files))
	}
	return router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, opts Options) error {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	ln, err := net.Listen("tcp", opts.Address)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Handler:      Handler(opts.Docs, opts.BasePath, logger),
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("serving site", zap.String("address", ln.Addr().String()), zap.String("docs", opts.Docs))
		errc <- srv.Serve(ln)
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

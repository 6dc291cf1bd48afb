package glowpos

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

// Run starts the HTTP API server.
//
// Endpoints:
//
//	GET  /api/data    - Read the composite document
//	POST /api/data    - Merge posted collections and return the result
//	GET  /api/health  - Liveness and active storage tier
//	GET  /health      - Same, outside the /api prefix
//
// Any other method on a known route answers 405 with the standard message.
// The server shuts down gracefully on context cancellation, allowing up to
// 5 seconds for in-flight requests.
func (a *App) Run(ctx context.Context, cmd *ServeCommand) error {
	router := a.router()

	addr := fmt.Sprintf(":%s", a.config.Port)
	a.log.Info().Str("addr", addr).Msg("starting glowpos API server")

	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.log.Info().Msg("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-serverErr:
		return err
	}
}

func (a *App) router() *mux.Router {
	router := mux.NewRouter()
	router.MethodNotAllowedHandler = http.HandlerFunc(a.handleMethodNotAllowed)

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/data", a.handleGetData).Methods("GET")
	api.HandleFunc("/data", a.handlePostData).Methods("POST")
	api.HandleFunc("/health", a.handleHealth).Methods("GET")

	router.HandleFunc("/health", a.handleHealth).Methods("GET")
	return router
}

// internal/handlers/server.go
package handlers

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/lis531/bargebo-guesser/internal/catalog"
	"github.com/lis531/bargebo-guesser/internal/game"
	"github.com/lis531/bargebo-guesser/internal/middleware"
	"github.com/lis531/bargebo-guesser/internal/session"
)

// NewMux assembles the HTTP surface: the game websocket, Prometheus metrics,
// and a liveness probe.
func NewMux(logger *log.Logger, hub *Hub, reg *game.Registry, tokens *session.Tokens, cat *catalog.Catalog) *http.ServeMux {
	mux := http.NewServeMux()

	mux.Handle("/ws", middleware.LogMiddleware(logger)(WSHandler(logger, hub, reg, tokens, cat)))
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	return mux
}

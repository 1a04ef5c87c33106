package web

import (
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"

	"github.com/Klingon-tech/asset-minter/internal/metrics"
)

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, s.logRequests, middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			s.logger.Error().Err(err).Msg("Can't write healthz response")
		}
	})
	if s.metrics {
		r.Handle("/metrics", metrics.Handler())
	}

	r.Group(func(r chi.Router) {
		r.Use(limitBody, s.withSession)

		r.Get("/", s.handleIndex)
		r.Get("/txn.json", s.handleTxnJSON)
		r.Get("/history.json", s.handleHistoryJSON)

		r.Post("/network", s.handleNetwork)
		r.Post("/asset", s.handleSubmit)
		r.Post("/asset/retry", s.handleRetry)

		r.Route("/wallet", func(r chi.Router) {
			r.Post("/connect", s.handleConnect)
			r.Post("/disconnect", s.handleDisconnect)
			r.Post("/signed", s.handleSigned)
			r.Post("/declined", s.handleDeclined)
		})
	})

	return r
}

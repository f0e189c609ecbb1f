// Package handlers assembles the HTTP surface of the wallet core.
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chi_middleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spinworks/wallet-core/pkg/alerts"
	alerts_handlers "github.com/spinworks/wallet-core/pkg/handlers/alerts"
	spins_handlers "github.com/spinworks/wallet-core/pkg/handlers/spins"
	wallets_handlers "github.com/spinworks/wallet-core/pkg/handlers/wallets"
	"github.com/spinworks/wallet-core/pkg/middleware"
	"github.com/spinworks/wallet-core/pkg/spin"
	"github.com/spinworks/wallet-core/pkg/storage"
)

// NewRouter wires all handlers onto a chi router with request-id,
// structured logging and panic recovery middleware.
func NewRouter(processor *spin.Processor, dispatcher *alerts.Dispatcher, alertStore storage.AlertStore, logger *slog.Logger) chi.Router {
	walletsHandler := wallets_handlers.NewWalletsHandler(processor)
	spinsHandler := spins_handlers.NewSpinsHandler(processor)
	alertsHandler := alerts_handlers.NewAlertsHandler(dispatcher, alertStore)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.NewStructuredLogger(logger))
	router.Use(chi_middleware.Recoverer)

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Handle("/metrics", promhttp.Handler())

	router.Route("/wallets", func(r chi.Router) {
		r.Post("/", walletsHandler.CreateWallet)
		r.Route("/{userId}", func(r chi.Router) {
			r.Get("/balances/{currency}", walletsHandler.GetBalance)
			r.Get("/transactions", walletsHandler.ListTransactions)
			r.Post("/adjustments", walletsHandler.AdjustBalance)
		})
	})

	router.Post("/spins/settle", spinsHandler.Settle)

	router.Route("/alerts", func(r chi.Router) {
		r.Get("/", alertsHandler.ListAlerts)
		r.Get("/{alertId}", alertsHandler.GetAlert)
		r.Put("/{alertId}/status", alertsHandler.UpdateStatus)
	})

	return router
}

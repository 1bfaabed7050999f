package ledger_http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/peterclermy232/banking-system-backend/internal/ledger"
)

func RegisterRoutes(r chi.Router, engine *ledger.Engine, l *zap.Logger) {
	handler := NewLedgerHandler(engine, l.With(zap.String("component", "LedgerHTTPHandler")))

	r.Route("/health", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("Ledger service is healthy!"))
		})
	})

	r.Route("/transfers", func(r chi.Router) {
		r.Post("/internal", handler.InternalTransferHandler)
		r.Post("/external", handler.ExternalTransferHandler)
	})

	r.Route("/deposits", func(r chi.Router) {
		r.Post("/", handler.DepositHandler)
		r.Post("/savings", handler.SavingsDepositHandler)
	})

	r.Post("/withdrawals", handler.WithdrawalHandler)

	r.Get("/fees/quote", handler.FeeQuoteHandler)
	r.Get("/transactions/{transactionID}", handler.GetTransactionHandler)
}

package ledger_http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/peterclermy232/banking-system-backend/internal/domain"
	"github.com/peterclermy232/banking-system-backend/internal/fees"
	"github.com/peterclermy232/banking-system-backend/internal/ledger"
)

type LedgerHandler struct {
	engine *ledger.Engine
	logger *zap.Logger
}

func NewLedgerHandler(e *ledger.Engine, l *zap.Logger) *LedgerHandler {
	return &LedgerHandler{engine: e, logger: l}
}

type InternalTransferRequest struct {
	FromAccountNumber string `json:"from_account_number"`
	ToAccountNumber   string `json:"to_account_number"`
	Amount            string `json:"amount"`
	Memo              string `json:"memo"`
	Reference         string `json:"reference"`
}

type ExternalTransferRequest struct {
	FromAccountNumber string `json:"from_account_number"`
	Destination       string `json:"destination"`
	Rail              string `json:"rail"`
	Amount            string `json:"amount"`
	Memo              string `json:"memo"`
	Reference         string `json:"reference"`
}

type DepositRequest struct {
	ToAccountNumber string `json:"to_account_number"`
	Amount          string `json:"amount"`
	Channel         string `json:"channel"`
	Memo            string `json:"memo"`
	Reference       string `json:"reference"`
}

type SavingsDepositRequest struct {
	FromAccountNumber    string `json:"from_account_number"`
	SavingsAccountNumber string `json:"savings_account_number"`
	Amount               string `json:"amount"`
	SavingsGoalID        *int64 `json:"savings_goal_id"`
	Reference            string `json:"reference"`
}

type WithdrawalRequest struct {
	FromAccountNumber string `json:"from_account_number"`
	Amount            string `json:"amount"`
	Memo              string `json:"memo"`
	Reference         string `json:"reference"`
}

type TransactionResponse struct {
	TransactionID   string  `json:"transaction_id"`
	TransactionType string  `json:"transaction_type"`
	Amount          string  `json:"amount"`
	Fee             string  `json:"fee"`
	Status          string  `json:"status"`
	Memo            string  `json:"memo,omitempty"`
	Reference       string  `json:"reference,omitempty"`
	ReceiptNumber   string  `json:"receipt_number,omitempty"`
	FailureReason   string  `json:"failure_reason,omitempty"`
	CreatedAt       string  `json:"created_at"`
	ProcessedAt     *string `json:"processed_at,omitempty"`
}

func toTransactionResponse(txn *domain.Transaction) TransactionResponse {
	resp := TransactionResponse{
		TransactionID:   txn.TransactionID,
		TransactionType: string(txn.TransactionType),
		Amount:          txn.Amount.StringFixed(2),
		Fee:             txn.Fee.StringFixed(2),
		Status:          string(txn.Status),
		Memo:            txn.Memo,
		Reference:       txn.Reference,
		ReceiptNumber:   txn.ReceiptNumber,
		FailureReason:   txn.FailureReason,
		CreatedAt:       txn.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if txn.ProcessedAt != nil {
		s := txn.ProcessedAt.Format("2006-01-02T15:04:05Z07:00")
		resp.ProcessedAt = &s
	}
	return resp
}

func (h *LedgerHandler) InternalTransferHandler(w http.ResponseWriter, r *http.Request) {
	memberID, ok := h.callerMemberID(w, r)
	if !ok {
		return
	}
	var req InternalTransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid amount")
		return
	}

	txn, err := h.engine.InternalTransfer(r.Context(), memberID,
		req.FromAccountNumber, req.ToAccountNumber, amount, req.Memo, req.Reference)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, toTransactionResponse(txn))
}

func (h *LedgerHandler) ExternalTransferHandler(w http.ResponseWriter, r *http.Request) {
	memberID, ok := h.callerMemberID(w, r)
	if !ok {
		return
	}
	var req ExternalTransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid amount")
		return
	}
	rail := ledger.Rail(req.Rail)
	if rail != ledger.RailInterbank && rail != ledger.RailMobileMoney {
		h.writeError(w, http.StatusBadRequest, "rail must be INTERBANK or MOBILE_MONEY")
		return
	}

	txn, err := h.engine.ExternalTransfer(r.Context(), memberID,
		req.FromAccountNumber, req.Destination, rail, amount, req.Memo, req.Reference)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusAccepted, toTransactionResponse(txn))
}

func (h *LedgerHandler) DepositHandler(w http.ResponseWriter, r *http.Request) {
	var req DepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid amount")
		return
	}
	channel := ledger.DepositChannel(req.Channel)
	if channel == "" {
		channel = ledger.ChannelCash
	}

	txn, err := h.engine.Deposit(r.Context(), req.ToAccountNumber, amount, channel, req.Memo, req.Reference)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, toTransactionResponse(txn))
}

func (h *LedgerHandler) SavingsDepositHandler(w http.ResponseWriter, r *http.Request) {
	memberID, ok := h.callerMemberID(w, r)
	if !ok {
		return
	}
	var req SavingsDepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid amount")
		return
	}

	txn, err := h.engine.SavingsDeposit(r.Context(), memberID,
		req.FromAccountNumber, req.SavingsAccountNumber, amount, req.SavingsGoalID, req.Reference)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, toTransactionResponse(txn))
}

func (h *LedgerHandler) WithdrawalHandler(w http.ResponseWriter, r *http.Request) {
	memberID, ok := h.callerMemberID(w, r)
	if !ok {
		return
	}
	var req WithdrawalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid amount")
		return
	}

	txn, err := h.engine.Withdraw(r.Context(), memberID, req.FromAccountNumber, amount, req.Memo, req.Reference)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, toTransactionResponse(txn))
}

// FeeQuoteHandler answers pre-transfer cost display queries without
// touching the engine's state.
func (h *LedgerHandler) FeeQuoteHandler(w http.ResponseWriter, r *http.Request) {
	class := fees.Class(r.URL.Query().Get("class"))
	amountStr := r.URL.Query().Get("amount")
	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid amount")
		return
	}
	switch class {
	case fees.ClassInternal, fees.ClassExternal, fees.ClassMobileMoney,
		fees.ClassWithdrawal, fees.ClassSavingsDeposit:
	default:
		h.writeError(w, http.StatusBadRequest, "unknown fee class")
		return
	}

	fee := h.engine.QuoteFee(class, amount)
	h.writeJSON(w, http.StatusOK, map[string]string{
		"class":  string(class),
		"amount": amount.StringFixed(2),
		"fee":    fee.StringFixed(2),
	})
}

func (h *LedgerHandler) GetTransactionHandler(w http.ResponseWriter, r *http.Request) {
	transactionID := chi.URLParam(r, "transactionID")
	txn, err := h.engine.GetTransaction(r.Context(), transactionID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toTransactionResponse(txn))
}

// callerMemberID reads the authenticated member from the X-Member-ID
// header. Authentication itself lives in the gateway in front of this
// service.
func (h *LedgerHandler) callerMemberID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := r.Header.Get("X-Member-ID")
	memberID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || memberID <= 0 {
		h.writeError(w, http.StatusUnauthorized, "missing or invalid X-Member-ID header")
		return 0, false
	}
	return memberID, true
}

func (h *LedgerHandler) writeDomainError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrMissingField),
		errors.Is(err, domain.ErrSameAccount):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrNotAccountOwner):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrAccountNotFound),
		errors.Is(err, domain.ErrTransactionNotFound),
		errors.Is(err, domain.ErrSavingsGoalNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrInsufficientFunds),
		errors.Is(err, domain.ErrAccountNotActive):
		status = http.StatusUnprocessableEntity
	default:
		h.logger.Error("unhandled ledger error", zap.Error(err))
	}
	h.writeError(w, status, err.Error())
}

func (h *LedgerHandler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

func (h *LedgerHandler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
	}
}

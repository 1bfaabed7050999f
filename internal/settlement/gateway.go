package settlement

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/peterclermy232/banking-system-backend/internal/domain"
	"github.com/peterclermy232/banking-system-backend/internal/ledger"
)

// SendRequest describes one outbound settlement instruction. The
// transaction id doubles as the idempotency key: the rail must treat a
// retried request with the same key as already applied.
type SendRequest struct {
	TransactionID string          `json:"transaction_id"`
	Rail          ledger.Rail     `json:"rail"`
	Destination   string          `json:"destination"`
	Amount        decimal.Decimal `json:"amount"`
	Memo          string          `json:"memo,omitempty"`
}

// Gateway is the external settlement rail: mobile money or interbank.
type Gateway interface {
	SendMoney(ctx context.Context, req SendRequest) (receiptNumber string, err error)
}

type httpGateway struct {
	baseURL string
	client  *http.Client
}

// NewHTTPGateway builds a gateway client with a hard request timeout so a
// stalled rail surfaces as a GatewayError instead of hanging the worker.
func NewHTTPGateway(baseURL string, timeout time.Duration) Gateway {
	return &httpGateway{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

type sendResponse struct {
	ReceiptNumber string `json:"receipt_number"`
	Error         string `json:"error,omitempty"`
}

func (g *httpGateway) SendMoney(ctx context.Context, req SendRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal settlement request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/transfers", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build settlement request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Idempotency-Key", req.TransactionID)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return "", &domain.GatewayError{
			Rail:    string(req.Rail),
			Timeout: isTimeout(err),
			Err:     err,
		}
	}
	defer resp.Body.Close()

	var out sendResponse
	if decErr := json.NewDecoder(resp.Body).Decode(&out); decErr != nil && resp.StatusCode < 300 {
		return "", &domain.GatewayError{Rail: string(req.Rail), Err: fmt.Errorf("unreadable gateway response: %w", decErr)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		reason := out.Error
		if reason == "" {
			reason = resp.Status
		}
		return "", &domain.GatewayError{Rail: string(req.Rail), Err: errors.New(reason)}
	}
	if out.ReceiptNumber == "" {
		return "", &domain.GatewayError{Rail: string(req.Rail), Err: errors.New("gateway returned no receipt number")}
	}
	return out.ReceiptNumber, nil
}

func isTimeout(err error) bool {
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return errors.Is(err, context.DeadlineExceeded)
}

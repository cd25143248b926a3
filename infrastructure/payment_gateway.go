package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"wingo/domain/interfaces"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

const gatewayTimeout = 15 * time.Second

// gatewayClient is the JSON-over-HTTP transport shared by the payment and payout gateways
type gatewayClient struct {
	baseURL    string
	authHeader string
	authValue  string
	httpClient *http.Client
}

func newGatewayClient(baseURL, authHeader, authValue string) *gatewayClient {
	return &gatewayClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		authHeader: authHeader,
		authValue:  authValue,
		httpClient: &http.Client{Timeout: gatewayTimeout},
	}
}

func (c *gatewayClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode gateway request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build gateway request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.authValue != "" {
		req.Header.Set(c.authHeader, c.authValue)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gateway request %s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("failed to read gateway response: %w", err)
	}
	if resp.StatusCode >= 300 {
		var gatewayErr struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(respBody, &gatewayErr)
		if gatewayErr.Message == "" {
			gatewayErr.Message = http.StatusText(resp.StatusCode)
		}
		return fmt.Errorf("gateway %s %s returned %d: %s", method, path, resp.StatusCode, gatewayErr.Message)
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to decode gateway response: %w", err)
		}
	}
	return nil
}

// HTTPPaymentGateway registers deposit intents with a payment gateway and verifies its signatures locally
type HTTPPaymentGateway struct {
	client *gatewayClient
	signer *HMACSigner
}

// NewHTTPPaymentGateway creates a payment gateway client authenticated with keyID and keySecret
func NewHTTPPaymentGateway(baseURL, keyID, keySecret string) *HTTPPaymentGateway {
	return &HTTPPaymentGateway{
		client: newGatewayClient(baseURL, "X-Key-ID", keyID),
		signer: NewHMACSigner(keySecret),
	}
}

type createOrderRequest struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

type createOrderResponse struct {
	ID string `json:"id"`
}

// CreateDepositIntent creates an order for amount and returns the gateway order ID
func (g *HTTPPaymentGateway) CreateDepositIntent(ctx context.Context, amount decimal.Decimal, receipt string) (string, error) {
	var resp createOrderResponse
	err := g.client.do(ctx, http.MethodPost, "/orders", createOrderRequest{
		Amount:   amount.StringFixed(2),
		Currency: "INR",
		Receipt:  receipt,
	}, &resp)
	if err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", fmt.Errorf("gateway returned an order without an id")
	}
	return resp.ID, nil
}

// VerifyDepositSignature checks HMAC-SHA256(orderID|paymentID) under the key secret
func (g *HTTPPaymentGateway) VerifyDepositSignature(orderID, paymentID, signature string) bool {
	return g.signer.Verify(DepositSignaturePayload(orderID, paymentID), signature)
}

// LocalPaymentGateway issues order IDs locally. Deposits are confirmed by a caller holding the key secret.
type LocalPaymentGateway struct {
	signer *HMACSigner
}

// NewLocalPaymentGateway creates a signer-only payment gateway
func NewLocalPaymentGateway(keySecret string) *LocalPaymentGateway {
	return &LocalPaymentGateway{signer: NewHMACSigner(keySecret)}
}

// CreateDepositIntent returns a fresh local order ID
func (g *LocalPaymentGateway) CreateDepositIntent(ctx context.Context, amount decimal.Decimal, receipt string) (string, error) {
	orderID := "order_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	log.WithFields(log.Fields{
		"orderId": orderID,
		"amount":  amount.StringFixed(2),
		"receipt": receipt,
	}).Debug("Created local deposit intent")
	return orderID, nil
}

// VerifyDepositSignature checks HMAC-SHA256(orderID|paymentID) under the key secret
func (g *LocalPaymentGateway) VerifyDepositSignature(orderID, paymentID, signature string) bool {
	return g.signer.Verify(DepositSignaturePayload(orderID, paymentID), signature)
}

var (
	_ interfaces.PaymentProvider = (*HTTPPaymentGateway)(nil)
	_ interfaces.PaymentProvider = (*LocalPaymentGateway)(nil)
)

package infrastructure

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"wingo/domain/entities"
	"wingo/domain/interfaces"
)

// HTTPPayoutGateway sends withdrawals to a payout gateway
type HTTPPayoutGateway struct {
	client        *gatewayClient
	sourceAccount string
}

// NewHTTPPayoutGateway creates a payout gateway client paying out of sourceAccount
func NewHTTPPayoutGateway(baseURL, apiKey, sourceAccount string) *HTTPPayoutGateway {
	return &HTTPPayoutGateway{
		client:        newGatewayClient(baseURL, "Authorization", "Bearer "+apiKey),
		sourceAccount: sourceAccount,
	}
}

type fundAccount struct {
	Type          string `json:"type"`
	Name          string `json:"name,omitempty"`
	AccountNumber string `json:"accountNumber,omitempty"`
	IFSC          string `json:"ifsc,omitempty"`
	VPA           string `json:"vpa,omitempty"`
	WalletType    string `json:"walletType,omitempty"`
	WalletNumber  string `json:"walletNumber,omitempty"`
}

type payoutRequest struct {
	SourceAccount string      `json:"sourceAccount"`
	Amount        string      `json:"amount"`
	Currency      string      `json:"currency"`
	Mode          string      `json:"mode"`
	ReferenceID   string      `json:"referenceId"`
	Description   string      `json:"description"`
	FundAccount   fundAccount `json:"fundAccount"`
}

type payoutResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

func fundAccountFor(dest entities.WithdrawalDestination) (fundAccount, string, error) {
	switch d := dest.(type) {
	case entities.BankDestination:
		return fundAccount{Type: "bank_account", Name: d.AccountHolderName, AccountNumber: d.AccountNumber, IFSC: d.IFSCCode}, "NEFT", nil
	case entities.UPIDestination:
		return fundAccount{Type: "vpa", VPA: d.UPIID}, "UPI", nil
	case entities.WalletDestination:
		return fundAccount{Type: "wallet", WalletType: d.WalletType, WalletNumber: d.WalletNumber}, "WALLET", nil
	default:
		return fundAccount{}, "", fmt.Errorf("%w: unsupported destination %T", entities.ErrInvalidDestination, dest)
	}
}

// InitiatePayout creates a payout for the request
func (g *HTTPPayoutGateway) InitiatePayout(ctx context.Context, req interfaces.PayoutRequest) (*interfaces.PayoutResult, error) {
	account, mode, err := fundAccountFor(req.Destination)
	if err != nil {
		return nil, err
	}

	var resp payoutResponse
	err = g.client.do(ctx, http.MethodPost, "/payouts", payoutRequest{
		SourceAccount: g.sourceAccount,
		Amount:        req.Amount.StringFixed(2),
		Currency:      "INR",
		Mode:          mode,
		ReferenceID:   req.ReferenceID,
		Description:   req.Description,
		FundAccount:   account,
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.ID == "" {
		return nil, fmt.Errorf("gateway returned a payout without an id")
	}
	return &interfaces.PayoutResult{PayoutID: resp.ID, Status: interfaces.PayoutStatus(resp.Status)}, nil
}

// GetPayoutStatus fetches the current status of a payout
func (g *HTTPPayoutGateway) GetPayoutStatus(ctx context.Context, payoutID string) (interfaces.PayoutStatus, error) {
	var resp payoutResponse
	if err := g.client.do(ctx, http.MethodGet, "/payouts/"+url.PathEscape(payoutID), nil, &resp); err != nil {
		return "", err
	}
	return interfaces.PayoutStatus(resp.Status), nil
}

var _ interfaces.PayoutProvider = (*HTTPPayoutGateway)(nil)

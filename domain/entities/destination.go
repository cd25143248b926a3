package entities

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// WithdrawalMethod discriminates the destination variants
type WithdrawalMethod string

const (
	WithdrawalMethodBank   WithdrawalMethod = "bank"
	WithdrawalMethodUPI    WithdrawalMethod = "upi"
	WithdrawalMethodWallet WithdrawalMethod = "wallet"
)

var (
	ifscPattern          = regexp.MustCompile(`^[A-Z]{4}0[A-Z0-9]{6}$`)
	accountNumberPattern = regexp.MustCompile(`^[0-9]{6,18}$`)
	upiPattern           = regexp.MustCompile(`^[a-zA-Z0-9.\-_]{2,256}@[a-zA-Z]{2,64}$`)
	walletNumberPattern  = regexp.MustCompile(`^[0-9]{10,15}$`)
)

// WithdrawalDestination is where a payout goes. The concrete types are
// BankDestination, UPIDestination and WalletDestination.
type WithdrawalDestination interface {
	Method() WithdrawalMethod
	Validate() error
}

// BankDestination is a bank transfer target
type BankDestination struct {
	AccountHolderName string `json:"accountHolderName"`
	AccountNumber     string `json:"accountNumber"`
	IFSCCode          string `json:"ifscCode"`
	BankName          string `json:"bankName"`
}

func (BankDestination) Method() WithdrawalMethod { return WithdrawalMethodBank }

func (d BankDestination) Validate() error {
	switch {
	case strings.TrimSpace(d.AccountHolderName) == "":
		return fmt.Errorf("%w: account holder name is required", ErrInvalidDestination)
	case strings.TrimSpace(d.BankName) == "":
		return fmt.Errorf("%w: bank name is required", ErrInvalidDestination)
	case !accountNumberPattern.MatchString(d.AccountNumber):
		return fmt.Errorf("%w: account number must be 6-18 digits", ErrInvalidDestination)
	case !ifscPattern.MatchString(strings.ToUpper(d.IFSCCode)):
		return fmt.Errorf("%w: invalid IFSC code", ErrInvalidDestination)
	}
	return nil
}

// UPIDestination is a UPI virtual payment address
type UPIDestination struct {
	UPIID string `json:"upiId"`
}

func (UPIDestination) Method() WithdrawalMethod { return WithdrawalMethodUPI }

func (d UPIDestination) Validate() error {
	if !upiPattern.MatchString(d.UPIID) {
		return fmt.Errorf("%w: invalid UPI id", ErrInvalidDestination)
	}
	return nil
}

// WalletDestination is a mobile wallet account
type WalletDestination struct {
	WalletType   string `json:"walletType"`
	WalletNumber string `json:"walletNumber"`
}

func (WalletDestination) Method() WithdrawalMethod { return WithdrawalMethodWallet }

func (d WalletDestination) Validate() error {
	if strings.TrimSpace(d.WalletType) == "" {
		return fmt.Errorf("%w: wallet type is required", ErrInvalidDestination)
	}
	if !walletNumberPattern.MatchString(d.WalletNumber) {
		return fmt.Errorf("%w: wallet number must be 10-15 digits", ErrInvalidDestination)
	}
	return nil
}

// ParseDestination decodes and validates the details for a withdrawal method
func ParseDestination(method string, details json.RawMessage) (WithdrawalDestination, error) {
	var dest WithdrawalDestination
	switch WithdrawalMethod(strings.ToLower(method)) {
	case WithdrawalMethodBank:
		var d BankDestination
		if err := json.Unmarshal(details, &d); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDestination, err)
		}
		d.IFSCCode = strings.ToUpper(d.IFSCCode)
		dest = d
	case WithdrawalMethodUPI:
		var d UPIDestination
		if err := json.Unmarshal(details, &d); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDestination, err)
		}
		dest = d
	case WithdrawalMethodWallet:
		var d WalletDestination
		if err := json.Unmarshal(details, &d); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDestination, err)
		}
		dest = d
	default:
		return nil, fmt.Errorf("%w: method must be 'bank', 'upi', or 'wallet'", ErrInvalidDestination)
	}

	if err := dest.Validate(); err != nil {
		return nil, err
	}
	return dest, nil
}

// MarshalJSON includes the destination method and details next to the withdrawal fields
func (w Withdrawal) MarshalJSON() ([]byte, error) {
	type alias Withdrawal
	out := struct {
		alias
		Method      WithdrawalMethod      `json:"method,omitempty"`
		Destination WithdrawalDestination `json:"destination,omitempty"`
	}{alias: alias(w), Destination: w.Destination}
	if w.Destination != nil {
		out.Method = w.Destination.Method()
	}
	return json.Marshal(out)
}

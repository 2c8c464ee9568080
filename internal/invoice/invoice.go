package invoice

import (
	"fmt"
	"strconv"
	"strings"
)

// Entity contains structured fields extracted from a single invoice
type Entity struct {
	TotalAmount  string `json:"total_amount"`
	Currency     string `json:"currency"`
	IssueDate    string `json:"issue_date,omitempty"`
	CheckinDate  string `json:"checkin_date,omitempty"`
	CheckoutDate string `json:"checkout_date,omitempty"`
	GuestName    string `json:"guest_name,omitempty"`
	Description  string `json:"description"`
	InvoiceType  string `json:"invoice_type,omitempty"`
}

// Classification is the result of classifying an invoice text
type Classification struct {
	Label       string
	Confidences map[string]float64
	Rationale   string
}

// ExtractionError indicates the model output could not be parsed or
// validated against the expected schema
type ExtractionError struct {
	InvoiceType string
	Err         error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extracting entities (type %s): %v", e.InvoiceType, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// currencyCodes is the closed set of currencies accepted on invoices,
// matching the rate source's supported list plus EUR.
var currencyCodes = []string{
	"AUD", "BGN", "BRL", "CAD", "CHF", "CNY", "CZK", "DKK", "EUR", "GBP",
	"HKD", "HUF", "IDR", "ILS", "INR", "ISK", "JPY", "KRW", "MXN", "MYR",
	"NOK", "NZD", "PHP", "PLN", "RON", "SEK", "SGD", "THB", "TRY", "USD",
	"ZAR",
}

// CurrencyCodes returns the allowed currency codes
func CurrencyCodes() []string {
	codes := make([]string, len(currencyCodes))
	copy(codes, currencyCodes)
	return codes
}

// IsValidCurrency reports whether code is on the currency allow-list
func IsValidCurrency(code string) bool {
	code = strings.ToUpper(strings.TrimSpace(code))
	for _, c := range currencyCodes {
		if c == code {
			return true
		}
	}
	return false
}

// validate checks an extracted entity against the schema it was
// extracted with
func (e *Entity) validate(schema string) error {
	amount := strings.TrimSpace(e.TotalAmount)
	if amount == "" {
		return fmt.Errorf("missing total_amount")
	}
	if _, err := strconv.ParseFloat(amount, 64); err != nil {
		return fmt.Errorf("total_amount %q is not numeric", e.TotalAmount)
	}

	currency := strings.ToUpper(strings.TrimSpace(e.Currency))
	if !IsValidCurrency(currency) {
		return fmt.Errorf("currency %q is not in the allowed list", e.Currency)
	}
	e.Currency = currency
	e.TotalAmount = amount

	if schema == SchemaLodging {
		if strings.TrimSpace(e.CheckinDate) == "" || strings.TrimSpace(e.CheckoutDate) == "" {
			return fmt.Errorf("lodging invoice requires checkin_date and checkout_date")
		}
	} else if strings.TrimSpace(e.IssueDate) == "" {
		return fmt.Errorf("missing issue_date")
	}

	return nil
}

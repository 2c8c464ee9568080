package currency

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// RateDateNotApplicable is the rate date reported for identity
// conversions (amounts already in EUR)
const RateDateNotApplicable = "Not Applicable"

// defaultBaseURL points at the public Frankfurter exchange-rate API
const defaultBaseURL = "https://api.frankfurter.app"

// Conversion is the result of converting an amount into EUR
type Conversion struct {
	EURAmount float64
	RateDate  string
}

// Converter converts invoice amounts into EUR using a daily-rate source
type Converter struct {
	log      *slog.Logger
	baseURL  string
	client   *http.Client
	attempts int
}

// NewConverter creates a Converter against the public rate API
func NewConverter(log *slog.Logger) *Converter {
	return NewConverterWithBaseURL(log, defaultBaseURL)
}

// NewConverterWithBaseURL creates a Converter against a custom rate
// endpoint, used by tests
func NewConverterWithBaseURL(log *slog.Logger, baseURL string) *Converter {
	if log == nil {
		log = slog.Default()
	}
	return &Converter{
		log:      log,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		client:   &http.Client{Timeout: 15 * time.Second},
		attempts: 3,
	}
}

// rateResponse represents the rate source's JSON payload
type rateResponse struct {
	Rates map[string]float64 `json:"rates"`
	Date  string             `json:"date"`
}

// Convert converts amount from the given currency into EUR at the
// source's published daily rate. EUR converts to itself without a
// network call. Transient failures are retried up to three times; the
// last error is returned after exhaustion.
func (c *Converter) Convert(ctx context.Context, amount float64, fromCurrency string) (Conversion, error) {
	fromCurrency = strings.ToUpper(strings.TrimSpace(fromCurrency))

	if fromCurrency == "EUR" {
		return Conversion{EURAmount: amount, RateDate: RateDateNotApplicable}, nil
	}

	var lastErr error
	for attempt := 1; attempt <= c.attempts; attempt++ {
		conv, err := c.fetch(ctx, amount, fromCurrency)
		if err == nil {
			return conv, nil
		}
		lastErr = err
		c.log.Warn("Rate lookup attempt failed", "attempt", attempt, "of", c.attempts, "error", err)
	}

	return Conversion{}, fmt.Errorf("converting %s to EUR after %d attempts: %w", fromCurrency, c.attempts, lastErr)
}

func (c *Converter) fetch(ctx context.Context, amount float64, fromCurrency string) (Conversion, error) {
	params := url.Values{}
	params.Set("amount", strconv.FormatFloat(amount, 'f', -1, 64))
	params.Set("from", fromCurrency)
	params.Set("to", "EUR")

	reqURL := fmt.Sprintf("%s/latest?%s", c.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return Conversion{}, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return Conversion{}, fmt.Errorf("calling rate API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return Conversion{}, fmt.Errorf("rate API error (status %d): %s", resp.StatusCode, string(body))
	}

	var rates rateResponse
	if err := json.NewDecoder(resp.Body).Decode(&rates); err != nil {
		return Conversion{}, fmt.Errorf("decoding rate response: %w", err)
	}

	eurAmount, ok := rates.Rates["EUR"]
	if !ok {
		return Conversion{}, fmt.Errorf("rate response has no EUR rate")
	}

	return Conversion{EURAmount: eurAmount, RateDate: rates.Date}, nil
}

// RateInfo builds the human-readable exchange-rate note for the report.
// The first non-EUR currency seen in the batch serves as the base; an
// all-EUR batch reports the trivial rate.
func (c *Converter) RateInfo(ctx context.Context, currencies []string) (string, error) {
	base := "EUR"
	for _, cur := range currencies {
		if cur != "" && cur != "EUR" {
			base = cur
			break
		}
	}

	conv, err := c.Convert(ctx, 1, base)
	if err != nil {
		return "", fmt.Errorf("looking up base rate: %w", err)
	}

	validDate := time.Now().Format("02.01.06")
	rate := strconv.FormatFloat(conv.EURAmount, 'f', -1, 64)
	return fmt.Sprintf("Daily exchange rate: 1 %s = %s Euro (as of %s)", base, rate, validDate), nil
}

package alpaca

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Client talks to an Alpaca-compatible brokerage: latest equity trades on the
// data host, option chain and order submission on the trading host.
type Client struct {
	tradingHost string
	dataHost    string
	apiKey      string
	apiSecret   string
	httpClient  *http.Client
}

type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (%d): %s", e.Status, e.Body)
}

func NewClient(httpClient *http.Client, tradingHost, dataHost, apiKey, apiSecret string) *Client {
	if tradingHost == "" {
		tradingHost = "https://paper-api.alpaca.markets"
	}
	if dataHost == "" {
		dataHost = "https://data.alpaca.markets"
	}
	return &Client{
		tradingHost: strings.TrimRight(tradingHost, "/"),
		dataHost:    strings.TrimRight(dataHost, "/"),
		apiKey:      apiKey,
		apiSecret:   apiSecret,
		httpClient:  httpClient,
	}
}

func (c *Client) doRequest(ctx context.Context, method, fullURL string, payload []byte) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, fullURL, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("APCA-API-KEY-ID", c.apiKey)
	req.Header.Set("APCA-API-SECRET-KEY", c.apiSecret)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{Status: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}

// LatestPrice returns the most recent trade price for an equity. A missing
// or non-positive price is an error; the caller treats it as a per-ticker
// quote failure, not a fatal one.
func (c *Client) LatestPrice(ctx context.Context, ticker string) (decimal.Decimal, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return decimal.Decimal{}, fmt.Errorf("ticker is required")
	}
	fullURL := c.dataHost + "/v2/stocks/" + url.PathEscape(ticker) + "/trades/latest"
	body, err := c.doRequest(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return decimal.Decimal{}, err
	}
	var parsed latestTradeJSON
	if err := json.Unmarshal(body, &parsed); err != nil {
		return decimal.Decimal{}, fmt.Errorf("failed to parse trade response: %w", err)
	}
	if parsed.Trade.Price <= 0 {
		return decimal.Decimal{}, fmt.Errorf("no usable price for %s", ticker)
	}
	return decimal.NewFromFloat(parsed.Trade.Price), nil
}

// ListContractsParams filters the option chain query. Zero-valued bounds are
// omitted from the request. When Expiration is set the range bounds are
// ignored and the chain is filtered to that exact date.
type ListContractsParams struct {
	Underlying    string
	Type          string
	ExpirationGTE time.Time
	ExpirationLTE time.Time
	Expiration    time.Time
	StrikeGTE     decimal.Decimal
	StrikeLTE     decimal.Decimal
	PageLimit     int
}

func (c *Client) ListContracts(ctx context.Context, params ListContractsParams) ([]Contract, error) {
	underlying := strings.ToUpper(strings.TrimSpace(params.Underlying))
	if underlying == "" {
		return nil, fmt.Errorf("underlying symbol is required")
	}
	query := url.Values{}
	query.Set("underlying_symbols", underlying)
	query.Set("style", "american")
	if params.Type != "" {
		query.Set("type", params.Type)
	}
	if !params.Expiration.IsZero() {
		query.Set("expiration_date", params.Expiration.Format("2006-01-02"))
	} else {
		if !params.ExpirationGTE.IsZero() {
			query.Set("expiration_date_gte", params.ExpirationGTE.Format("2006-01-02"))
		}
		if !params.ExpirationLTE.IsZero() {
			query.Set("expiration_date_lte", params.ExpirationLTE.Format("2006-01-02"))
		}
	}
	if !params.StrikeGTE.IsZero() || !params.StrikeLTE.IsZero() {
		query.Set("strike_price_gte", params.StrikeGTE.String())
		query.Set("strike_price_lte", params.StrikeLTE.String())
	}
	if params.PageLimit > 0 {
		query.Set("limit", strconv.Itoa(params.PageLimit))
	}

	var out []Contract
	pageToken := ""
	for {
		if pageToken != "" {
			query.Set("page_token", pageToken)
		}
		fullURL := c.tradingHost + "/v2/options/contracts?" + query.Encode()
		body, err := c.doRequest(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, err
		}
		contracts, next, err := parseContractsPage(body)
		if err != nil {
			return nil, err
		}
		out = append(out, contracts...)
		if next == nil || *next == "" {
			return out, nil
		}
		pageToken = *next
	}
}

// SubmitMarketOrder places a day-valid market buy order for qty contracts.
func (c *Client) SubmitMarketOrder(ctx context.Context, symbol string, qty int) (OrderConfirmation, error) {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return OrderConfirmation{}, fmt.Errorf("order symbol is required")
	}
	if qty <= 0 {
		qty = 1
	}
	payload, err := json.Marshal(map[string]string{
		"symbol":        symbol,
		"qty":           strconv.Itoa(qty),
		"side":          "buy",
		"type":          "market",
		"time_in_force": "day",
	})
	if err != nil {
		return OrderConfirmation{}, err
	}
	body, err := c.doRequest(ctx, http.MethodPost, c.tradingHost+"/v2/orders", payload)
	if err != nil {
		return OrderConfirmation{}, err
	}
	var parsed orderJSON
	if err := json.Unmarshal(body, &parsed); err != nil {
		return OrderConfirmation{}, fmt.Errorf("failed to parse order response: %w", err)
	}
	if parsed.ID == "" {
		return OrderConfirmation{}, fmt.Errorf("order response missing id")
	}
	return OrderConfirmation{ID: parsed.ID, Symbol: parsed.Symbol, Status: parsed.Status}, nil
}

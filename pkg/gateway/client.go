// Package gateway is the single outbound channel to the payment backend.
// Every operation is one fresh round trip: no retries, no response
// caching. The bearer credential is attached to every call except /token.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/gatewaylabs/payconsole/internal/models"
)

// TokenSource supplies the bearer credential attached to protected calls.
// When no credential is present, calls go out without an authorization
// header and the backend answers 401.
type TokenSource interface {
	Token() (string, bool)
}

// StaticToken is a fixed TokenSource for programmatic clients. The empty
// string counts as no credential.
type StaticToken string

func (s StaticToken) Token() (string, bool) {
	return string(s), s != ""
}

// Client is a typed HTTP client for the payment backend REST contract.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	debug      bool
}

// NewClient constructs a client for the given base URL. A non-positive
// timeout falls back to 30 seconds.
func NewClient(baseURL string, tokens TokenSource, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		tokens:     tokens,
		debug:      os.Getenv("ENV") == "development",
	}
}

// Authenticate exchanges credentials for a bearer token. The response body
// is the raw token string. No authorization header is sent on this call.
func (c *Client) Authenticate(ctx context.Context, username, password string) (string, error) {
	payload, err := json.Marshal(credentialsRequest{Username: username, Password: password})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/token", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &RequestError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}
	return strings.TrimSpace(string(respBody)), nil
}

// ListMerchants fetches one page of merchants per the given query.
func (c *Client) ListMerchants(ctx context.Context, q models.ListQuery) (models.ListResult[models.Merchant], error) {
	params := url.Values{}
	params.Set("pageNumber", strconv.Itoa(q.PageNumber))
	params.Set("pageSize", strconv.Itoa(q.PageSize))
	params.Set("sortColumn", q.SortColumn)
	params.Set("sortDirection", string(q.SortDirection))

	var page MerchantPage
	if err := c.doRequest(ctx, http.MethodGet, "/merchant", params, nil, &page); err != nil {
		return models.ListResult[models.Merchant]{}, err
	}
	if page.Merchants == nil {
		page.Merchants = []models.Merchant{}
	}
	return models.ListResult[models.Merchant]{Items: page.Merchants, TotalPages: page.TotalPages}, nil
}

// CreateMerchant registers a new merchant account.
func (c *Client) CreateMerchant(ctx context.Context, req CreateMerchantRequest) (*models.Merchant, error) {
	var m models.Merchant
	if err := c.doRequest(ctx, http.MethodPost, "/merchant", nil, req, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// UpdateMerchant patches an existing merchant's mutable fields.
func (c *Client) UpdateMerchant(ctx context.Context, id int, req UpdateMerchantRequest) (*models.Merchant, error) {
	var m models.Merchant
	if err := c.doRequest(ctx, http.MethodPatch, "/merchant/"+strconv.Itoa(id), nil, req, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// DeleteMerchant removes a merchant. The backend refuses with a 409-class
// error when the merchant still has transactions.
func (c *Client) DeleteMerchant(ctx context.Context, id int) error {
	return c.doRequest(ctx, http.MethodDelete, "/merchant/"+strconv.Itoa(id), nil, nil, nil)
}

// ListMerchantTransactions fetches all transactions of a given merchant
// (admin view).
func (c *Client) ListMerchantTransactions(ctx context.Context, merchantID int) ([]models.Transaction, error) {
	var trxs []models.Transaction
	if err := c.doRequest(ctx, http.MethodGet, "/transaction/merchant/"+strconv.Itoa(merchantID), nil, nil, &trxs); err != nil {
		return nil, err
	}
	if trxs == nil {
		trxs = []models.Transaction{}
	}
	return trxs, nil
}

// ListOwnTransactions fetches the transactions of the merchant identified
// by the caller's own credential.
func (c *Client) ListOwnTransactions(ctx context.Context) ([]models.Transaction, error) {
	var trxs []models.Transaction
	if err := c.doRequest(ctx, http.MethodGet, "/transaction/merchant/current", nil, nil, &trxs); err != nil {
		return nil, err
	}
	if trxs == nil {
		trxs = []models.Transaction{}
	}
	return trxs, nil
}

// CreateTransaction submits a new payment transaction.
func (c *Client) CreateTransaction(ctx context.Context, req CreateTransactionRequest) (*models.Transaction, error) {
	var t models.Transaction
	if err := c.doRequest(ctx, http.MethodPost, "/transaction", nil, req, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// doRequest performs one HTTP round trip with JSON payloads, attaching the
// stored bearer credential when present, and decodes the response into
// result. Non-2xx responses become *RequestError.
func (c *Client) doRequest(ctx context.Context, method, path string, query url.Values, body any, result any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok, ok := c.tokens.Token(); ok {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if c.debug {
		log.Debug().
			Str("method", method).
			Str("endpoint", endpoint).
			Int("status_code", resp.StatusCode).
			Msg("backend round trip")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &RequestError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}
	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// Package fmp provides a client for the Financial Modeling Prep API, the
// market-data source the evaluation engine consumes. Calls are rate limited
// and retried with backoff on 429/5xx responses.
package fmp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/HanielK/Investor-Operating-System-AGENT/internal/model"
	"github.com/HanielK/Investor-Operating-System-AGENT/internal/resilience"
)

const (
	defaultBaseURL = "https://financialmodelingprep.com/api/v3"
	defaultLimit   = 5
	defaultPeriod  = "annual"
)

// ErrNotFound is returned when FMP has no data for a ticker. It is permanent
// and never retried.
var ErrNotFound = eris.New("fmp: ticker not found")

// Client fetches company financial data.
type Client interface {
	GetBundle(ctx context.Context, ticker string) (*model.FinancialBundle, error)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithStatementLimit sets how many reporting periods to fetch per statement.
func WithStatementLimit(n int) Option {
	return func(c *httpClient) {
		if n > 0 {
			c.limit = n
		}
	}
}

// WithRateLimit sets the request rate ceiling in requests per second.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithRetry overrides the retry configuration.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(c *httpClient) {
		c.retry = cfg
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	limit   int
	http    *http.Client
	limiter *rate.Limiter
	retry   resilience.RetryConfig
}

// NewClient creates an FMP API client.
func NewClient(apiKey string, opts ...Option) (Client, error) {
	if apiKey == "" {
		return nil, eris.New("fmp: api key is required")
	}
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		limit:   defaultLimit,
		http: &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(rate.Limit(4), 1),
		retry:   resilience.DefaultRetryConfig(),
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// GetBundle fetches profile, statements, and key metrics for a ticker and
// assembles them into a bundle. Statement sequences come back from FMP
// most-recent-first, the ordering the deriver expects.
func (c *httpClient) GetBundle(ctx context.Context, ticker string) (*model.FinancialBundle, error) {
	normalized := NormalizeTicker(ticker)
	if normalized == "" {
		return nil, eris.New("fmp: ticker is empty")
	}

	var profiles []model.CompanyProfile
	if err := c.getJSON(ctx, "profile/"+normalized, nil, &profiles); err != nil {
		return nil, err
	}
	if len(profiles) == 0 {
		return nil, eris.Wrapf(ErrNotFound, "fmp: no profile for %s", ticker)
	}

	bundle := &model.FinancialBundle{
		Ticker:    normalized,
		Profile:   profiles[0],
		FetchedAt: time.Now().UTC(),
	}

	statementParams := url.Values{
		"period": []string{defaultPeriod},
		"limit":  []string{strconv.Itoa(c.limit)},
	}
	if err := c.getJSON(ctx, "income-statement/"+normalized, statementParams, &bundle.IncomeStatements); err != nil {
		return nil, err
	}
	if err := c.getJSON(ctx, "balance-sheet-statement/"+normalized, statementParams, &bundle.BalanceSheets); err != nil {
		return nil, err
	}
	if err := c.getJSON(ctx, "cash-flow-statement/"+normalized, statementParams, &bundle.CashFlows); err != nil {
		return nil, err
	}
	if err := c.getJSON(ctx, "key-metrics/"+normalized, statementParams, &bundle.KeyMetrics); err != nil {
		return nil, err
	}

	return bundle, nil
}

// getJSON performs a rate-limited, retried GET and decodes the response into
// out.
func (c *httpClient) getJSON(ctx context.Context, endpoint string, params url.Values, out any) error {
	body, err := resilience.Do(ctx, c.retry, func(ctx context.Context) ([]byte, error) {
		return c.get(ctx, endpoint, params)
	})
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return eris.Wrapf(err, "fmp: decode %s response", endpoint)
	}
	return nil
}

func (c *httpClient) get(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "fmp: rate limiter wait")
	}

	q := url.Values{}
	for k, vs := range params {
		q[k] = vs
	}
	q.Set("apikey", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, eris.Wrapf(err, "fmp: create request %s", endpoint)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "fmp: GET %s", endpoint)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrapf(err, "fmp: read %s response", endpoint)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return body, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, eris.Wrapf(ErrNotFound, "fmp: GET %s", endpoint)
	case resilience.IsTransientHTTPStatus(resp.StatusCode):
		return nil, &resilience.TransientError{
			Err:        fmt.Errorf("fmp: GET %s returned %d", endpoint, resp.StatusCode),
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	default:
		return nil, eris.Errorf("fmp: GET %s returned %d", endpoint, resp.StatusCode)
	}
}

// NormalizeTicker converts tickers to FMP's symbol format (BRK.B -> BRK-B).
func NormalizeTicker(ticker string) string {
	return strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(ticker)), ".", "-")
}

func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	if secs, err := strconv.Atoi(header); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return 0
}

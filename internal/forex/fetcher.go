package forex

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"fjacquet/voice-ledger/internal/ledgererror"

	"github.com/shopspring/decimal"
)

const providerName = "exchangerate-api"

// HTTPFetcher reads /{key}/latest/{base} from an exchangerate-api v6 endpoint.
type HTTPFetcher struct {
	endpoint string
	apiKey   string
	client   *http.Client
	now      Clock
}

type latestResponse struct {
	Result          string                     `json:"result"`
	ErrorType       string                     `json:"error-type"`
	BaseCode        string                     `json:"base_code"`
	ConversionRates map[string]decimal.Decimal `json:"conversion_rates"`
}

// NewHTTPFetcher requires an API key; without one the rates endpoint cannot be served.
func NewHTTPFetcher(endpoint, apiKey string, client *http.Client) (*HTTPFetcher, error) {
	if apiKey == "" {
		return nil, &ledgererror.ConfigurationError{Key: "EXCHANGE_API_KEY", Reason: "not set"}
	}
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &HTTPFetcher{
		endpoint: strings.TrimSuffix(endpoint, "/"),
		apiKey:   apiKey,
		client:   client,
		now:      time.Now,
	}, nil
}

// Fetch implements Fetcher.
func (f *HTTPFetcher) Fetch(ctx context.Context, base string) (*Rates, error) {
	u := fmt.Sprintf("%s/%s/latest/%s", f.endpoint, url.PathEscape(f.apiKey), url.PathEscape(base))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, &ledgererror.ProviderError{Provider: providerName, Err: err}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &ledgererror.ProviderError{Provider: providerName, Err: err}
	}
	defer resp.Body.Close()

	var body latestResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, &ledgererror.ProviderError{Provider: providerName, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode rates: %w", err)}
	}
	if resp.StatusCode != http.StatusOK || body.Result != "success" {
		reason := body.ErrorType
		if reason == "" {
			reason = resp.Status
		}
		return nil, &ledgererror.ProviderError{Provider: providerName, StatusCode: resp.StatusCode, Err: fmt.Errorf("rates request failed: %s", reason)}
	}

	code := strings.ToUpper(body.BaseCode)
	if code == "" {
		code = strings.ToUpper(base)
	}
	return &Rates{
		Base:        code,
		Rates:       body.ConversionRates,
		LastUpdated: f.now().UTC(),
	}, nil
}

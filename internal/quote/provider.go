package quote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wonbook/wonbook-backend/internal/domain"
	"golang.org/x/time/rate"
)

// Provider fetches live quotes and exchange rates
type Provider interface {
	FetchQuote(ctx context.Context, ticker string) (*domain.StockPrice, error)
	FetchFXRate(ctx context.Context, base, quote domain.Currency) (*domain.FXRate, error)
}

// HTTPProvider is a Provider backed by a JSON quote API.
// Requests are rate limited so a refresh sweep over many tickers cannot
// exhaust the provider's request quota.
type HTTPProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client
	limiter *rate.Limiter
}

// NewHTTPProvider creates a new HTTPProvider
func NewHTTPProvider(baseURL, apiKey string, requestsPerSec float64) *HTTPProvider {
	if requestsPerSec <= 0 {
		requestsPerSec = 5
	}
	return &HTTPProvider{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 10 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(requestsPerSec), 1),
	}
}

// quoteResponse is the provider's wire format for a single quote
type quoteResponse struct {
	Ticker        string `json:"ticker"`
	Name          string `json:"name"`
	Price         string `json:"price"`
	Currency      string `json:"currency"`
	Change        string `json:"change"`
	ChangePercent string `json:"changePercent"`
}

// fxResponse is the provider's wire format for an exchange rate
type fxResponse struct {
	Base  string `json:"base"`
	Quote string `json:"quote"`
	Rate  string `json:"rate"`
}

// FetchQuote fetches the current quote for one ticker.
// The market query parameter tells the provider which exchange to resolve
// the symbol on, using the 6-digit-numeric/alphabetic heuristic.
func (p *HTTPProvider) FetchQuote(ctx context.Context, ticker string) (*domain.StockPrice, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	market := domain.ClassifyTicker(ticker)
	endpoint := fmt.Sprintf("%s/v1/quote/%s?market=%s", p.baseURL, url.PathEscape(ticker), market)

	var resp quoteResponse
	if err := p.getJSON(ctx, endpoint, &resp); err != nil {
		return nil, fmt.Errorf("fetch quote %s: %w", ticker, err)
	}

	price, err := decimal.NewFromString(resp.Price)
	if err != nil {
		return nil, fmt.Errorf("fetch quote %s: invalid price %q", ticker, resp.Price)
	}
	change, _ := decimal.NewFromString(resp.Change)
	changePercent, _ := decimal.NewFromString(resp.ChangePercent)

	currency := domain.Currency(resp.Currency)
	if !domain.ValidCurrency(currency) {
		currency = market.Currency()
	}

	return &domain.StockPrice{
		Ticker:        ticker,
		Name:          resp.Name,
		Price:         price,
		Currency:      currency,
		Change:        change,
		ChangePercent: changePercent,
		UpdatedAt:     time.Now().UTC(),
	}, nil
}

// FetchFXRate fetches the current exchange rate for a currency pair
func (p *HTTPProvider) FetchFXRate(ctx context.Context, base, quote domain.Currency) (*domain.FXRate, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/v1/fx/%s%s", p.baseURL, base, quote)

	var resp fxResponse
	if err := p.getJSON(ctx, endpoint, &resp); err != nil {
		return nil, fmt.Errorf("fetch fx rate %s/%s: %w", base, quote, err)
	}

	r, err := decimal.NewFromString(resp.Rate)
	if err != nil {
		return nil, fmt.Errorf("fetch fx rate %s/%s: invalid rate %q", base, quote, resp.Rate)
	}

	return &domain.FXRate{
		Base:      base,
		Quote:     quote,
		Rate:      r,
		UpdatedAt: time.Now().UTC(),
	}, nil
}

func (p *HTTPProvider) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return domain.ErrQuoteNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/wonbook/wonbook-backend/internal/domain"
	"github.com/wonbook/wonbook-backend/internal/quote"
	"github.com/wonbook/wonbook-backend/internal/websocket"
)

// DefaultQuoteCacheTTL is how long a fetched quote stays fresh
const DefaultQuoteCacheTTL = 5 * time.Minute

var decimalOne = decimal.NewFromInt(1)

// QuoteService serves quotes through a short-lived in-memory cache.
// Fresh quotes come from the provider; fetched quotes are persisted so
// valuations degrade to last-known prices when the provider is down.
type QuoteService struct {
	provider  quote.Provider
	quoteRepo domain.QuoteRepository
	tradeRepo domain.TradeRepository
	publisher websocket.EventPublisher
	ttl       time.Duration

	mu      sync.RWMutex
	cache   map[string]*domain.StockPrice
	fxCache map[string]*domain.FXRate
}

// NewQuoteService creates a new QuoteService
func NewQuoteService(provider quote.Provider, quoteRepo domain.QuoteRepository, tradeRepo domain.TradeRepository, publisher websocket.EventPublisher, ttl time.Duration) *QuoteService {
	if ttl <= 0 {
		ttl = DefaultQuoteCacheTTL
	}
	return &QuoteService{
		provider:  provider,
		quoteRepo: quoteRepo,
		tradeRepo: tradeRepo,
		publisher: publisher,
		ttl:       ttl,
		cache:     make(map[string]*domain.StockPrice),
		fxCache:   make(map[string]*domain.FXRate),
	}
}

// GetQuote returns the quote for one ticker, from cache when fresh,
// otherwise from the provider, otherwise the persisted last-known price
func (s *QuoteService) GetQuote(ctx context.Context, workspaceID int32, ticker string) (*domain.StockPrice, error) {
	if cached := s.cachedQuote(ticker); cached != nil {
		return cached, nil
	}

	price, err := s.provider.FetchQuote(ctx, ticker)
	if err != nil {
		log.Warn().Err(err).Str("ticker", ticker).Msg("Quote fetch failed, falling back to stored price")
		return s.quoteRepo.GetByTicker(workspaceID, ticker)
	}

	s.storeQuote(workspaceID, price)
	return price, nil
}

// GetQuotes returns quotes for every ticker the workspace has traded.
// Tickers the provider cannot resolve fall back to stored prices and are
// skipped entirely when no stored price exists either.
func (s *QuoteService) GetQuotes(ctx context.Context, workspaceID int32) ([]*domain.StockPrice, error) {
	tickers, err := s.tradeRepo.DistinctTickers(workspaceID)
	if err != nil {
		return nil, err
	}

	result := make([]*domain.StockPrice, 0, len(tickers))
	for _, ticker := range tickers {
		price, err := s.GetQuote(ctx, workspaceID, ticker)
		if err != nil {
			log.Warn().Err(err).Str("ticker", ticker).Msg("No quote available for ticker")
			continue
		}
		result = append(result, price)
	}
	return result, nil
}

// GetFXRate returns the exchange rate for a currency pair with the same
// cache-then-provider-then-stored resolution as quotes
func (s *QuoteService) GetFXRate(ctx context.Context, workspaceID int32, base, quoteCurrency domain.Currency) (*domain.FXRate, error) {
	if base == quoteCurrency {
		return &domain.FXRate{Base: base, Quote: quoteCurrency, Rate: decimalOne, UpdatedAt: time.Now().UTC()}, nil
	}

	key := string(base) + string(quoteCurrency)
	s.mu.RLock()
	cached, ok := s.fxCache[key]
	s.mu.RUnlock()
	if ok && time.Since(cached.UpdatedAt) < s.ttl {
		return cached, nil
	}

	rate, err := s.provider.FetchFXRate(ctx, base, quoteCurrency)
	if err != nil {
		log.Warn().Err(err).Str("pair", key).Msg("FX fetch failed, falling back to stored rate")
		return s.quoteRepo.GetFXRate(workspaceID, base, quoteCurrency)
	}

	s.mu.Lock()
	s.fxCache[key] = rate
	s.mu.Unlock()

	if err := s.quoteRepo.UpsertFXRate(workspaceID, rate); err != nil {
		log.Error().Err(err).Str("pair", key).Msg("Failed to persist FX rate")
	}
	return rate, nil
}

// RefreshQuotes bypasses the cache and refetches every traded ticker,
// publishing the refreshed set. Returns the number of tickers refreshed.
func (s *QuoteService) RefreshQuotes(ctx context.Context, workspaceID int32) (int, error) {
	tickers, err := s.tradeRepo.DistinctTickers(workspaceID)
	if err != nil {
		return 0, err
	}

	refreshed := make([]*domain.StockPrice, 0, len(tickers))
	for _, ticker := range tickers {
		price, err := s.provider.FetchQuote(ctx, ticker)
		if err != nil {
			log.Warn().Err(err).Str("ticker", ticker).Msg("Refresh fetch failed")
			continue
		}
		s.storeQuote(workspaceID, price)
		refreshed = append(refreshed, price)
	}

	if len(refreshed) > 0 {
		s.publisher.Publish(workspaceID, websocket.QuotesRefreshed(refreshed))
	}
	return len(refreshed), nil
}

// InvalidateCache drops all cached quotes and rates
func (s *QuoteService) InvalidateCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = make(map[string]*domain.StockPrice)
	s.fxCache = make(map[string]*domain.FXRate)
}

func (s *QuoteService) cachedQuote(ticker string) *domain.StockPrice {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.cache[ticker]; ok && time.Since(p.UpdatedAt) < s.ttl {
		return p
	}
	return nil
}

func (s *QuoteService) storeQuote(workspaceID int32, price *domain.StockPrice) {
	s.mu.Lock()
	s.cache[price.Ticker] = price
	s.mu.Unlock()

	if err := s.quoteRepo.Upsert(workspaceID, price); err != nil {
		log.Error().Err(err).Str("ticker", price.Ticker).Msg("Failed to persist quote")
	}
}

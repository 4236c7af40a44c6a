package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestClassifyTicker(t *testing.T) {
	tests := []struct {
		ticker string
		want   Market
	}{
		{"005930", MarketKR}, // Samsung Electronics
		{"035720", MarketKR}, // Kakao
		{"AAPL", MarketUS},
		{"VOO", MarketUS},
		{"BRK.B", MarketUS},
		{"00593", MarketUS},   // 5 digits is not a KRX code
		{"0059301", MarketUS}, // 7 digits is not a KRX code
		{"00593A", MarketUS},
	}

	for _, tt := range tests {
		if got := ClassifyTicker(tt.ticker); got != tt.want {
			t.Errorf("ClassifyTicker(%q) = %v, want %v", tt.ticker, got, tt.want)
		}
	}
}

func TestTradeMarketCurrency(t *testing.T) {
	if MarketKR.Currency() != CurrencyKRW {
		t.Errorf("Expected KR market currency KRW, got %s", MarketKR.Currency())
	}
	if MarketUS.Currency() != CurrencyUSD {
		t.Errorf("Expected US market currency USD, got %s", MarketUS.Currency())
	}
}

func TestCashImpact_Buy(t *testing.T) {
	trade := &StockTrade{
		Side:     TradeSideBuy,
		Quantity: decimal.NewFromInt(10),
		Price:    decimal.NewFromFloat(70000),
		Fee:      decimal.NewFromFloat(350),
	}

	// buy: -(10*70000 + 350) = -700350
	expected := decimal.NewFromInt(-700350)
	if !trade.CashImpact().Equal(expected) {
		t.Errorf("Expected cash impact %s, got %s", expected, trade.CashImpact())
	}
}

func TestCashImpact_Sell(t *testing.T) {
	trade := &StockTrade{
		Side:     TradeSideSell,
		Quantity: decimal.NewFromInt(5),
		Price:    decimal.NewFromFloat(150.50),
		Fee:      decimal.NewFromFloat(1.25),
	}

	// sell: 5*150.50 - 1.25 = 751.25
	expected := decimal.NewFromFloat(751.25)
	if !trade.CashImpact().Equal(expected) {
		t.Errorf("Expected cash impact %s, got %s", expected, trade.CashImpact())
	}
}

func TestCashImpact_ZeroFee(t *testing.T) {
	trade := &StockTrade{
		Side:     TradeSideBuy,
		Quantity: decimal.NewFromInt(1),
		Price:    decimal.NewFromInt(100),
		Fee:      decimal.Zero,
	}

	if !trade.CashImpact().Equal(decimal.NewFromInt(-100)) {
		t.Errorf("Expected cash impact -100, got %s", trade.CashImpact())
	}
}

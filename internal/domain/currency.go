package domain

// Currency is an ISO 4217 currency code
type Currency string

const (
	CurrencyKRW Currency = "KRW"
	CurrencyUSD Currency = "USD"
)

// ValidCurrency reports whether c is a supported currency
func ValidCurrency(c Currency) bool {
	return c == CurrencyKRW || c == CurrencyUSD
}

package quote

import "github.com/Rhymond/go-money"

// IsSupportedCurrency reports whether code is a recognized ISO 4217
// currency code. Codes are matched as submitted; "usd" is not "USD".
func IsSupportedCurrency(code string) bool {
	if code == "" {
		return false
	}
	currency := money.GetCurrency(code)
	return currency != nil && currency.Code == code
}

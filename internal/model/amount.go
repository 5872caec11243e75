package model

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Currency is an ISO 4217 code accepted for campaign amounts.
type Currency string

// Supported currencies. No other codes are accepted.
const (
	USD Currency = "USD"
	EUR Currency = "EUR"
	GBP Currency = "GBP"
	SEK Currency = "SEK"
)

// Currencies lists every supported currency.
var Currencies = []Currency{USD, EUR, GBP, SEK}

// Valid reports whether c is a supported currency.
func (c Currency) Valid() bool {
	switch c {
	case USD, EUR, GBP, SEK:
		return true
	}
	return false
}

// ParseCurrency returns the Currency for code or ErrInvalidCurrency.
func ParseCurrency(code string) (Currency, error) {
	c := Currency(code)
	if !c.Valid() {
		return "", ErrInvalidCurrency
	}
	return c, nil
}

// minorUnitExponent is shared by every supported currency.
const minorUnitExponent = 2

// Amount is money expressed in integer minor units.
type Amount struct {
	Value    int64    `json:"value"`
	Currency Currency `json:"currency"`
}

// NewAmount returns a validated Amount.
func NewAmount(value int64, currency Currency) (Amount, error) {
	a := Amount{Value: value, Currency: currency}
	if err := a.Validate(); err != nil {
		return Amount{}, err
	}
	return a, nil
}

// Validate checks that the value is positive and the currency supported.
func (a Amount) Validate() error {
	if a.Value <= 0 {
		return ErrInvalidAmount
	}
	if !a.Currency.Valid() {
		return ErrInvalidCurrency
	}
	return nil
}

// Decimal returns the amount in major units, e.g. 1050 EUR -> 10.50.
func (a Amount) Decimal() decimal.Decimal {
	return decimal.New(a.Value, -minorUnitExponent)
}

func (a Amount) String() string {
	return fmt.Sprintf("%s %s", a.Decimal().StringFixed(minorUnitExponent), a.Currency)
}

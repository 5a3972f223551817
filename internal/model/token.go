package model

import "github.com/shopspring/decimal"

// Token is a token entity snapshot.
type Token struct {
	ID       string `json:"id"`
	Symbol   string `json:"symbol,omitempty"`
	Name     string `json:"name,omitempty"`
	Decimals uint8  `json:"decimals,omitempty"`

	// DerivedReferencePrice is the token price in reference currency units.
	// Invalid until the token has been priced at least once.
	DerivedReferencePrice decimal.NullDecimal `json:"derived_reference_price"`
}

// ReferencePrice returns the derived price, or zero when it is not known yet.
func (t Token) ReferencePrice() decimal.Decimal {
	if !t.DerivedReferencePrice.Valid {
		return decimal.Zero
	}
	return t.DerivedReferencePrice.Decimal
}

package model

import "github.com/shopspring/decimal"

// BundleID is the conventional key of the singleton reference bundle.
const BundleID = "1"

// Bundle holds the USD value of one unit of the reference currency.
type Bundle struct {
	ID                string          `json:"id"`
	ReferencePriceUSD decimal.Decimal `json:"reference_price_usd"`
}

package ledger

import "github.com/shopspring/decimal"

// Round4 rounds a quantity to the precision the sheets store.
func Round4(v float64) float64 {
	return round(v, 4)
}

// Round3 rounds a suggested input quantity.
func Round3(v float64) float64 {
	return round(v, 3)
}

// Round2 rounds a money amount.
func Round2(v float64) float64 {
	return round(v, 2)
}

func round(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

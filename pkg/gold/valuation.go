package gold

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Bbt3-alx/akera-backend/pkg/enums"
)

// TroyOunceGrams is the mass of one troy ounce, used for USD-denominated
// gold pricing.
var TroyOunceGrams = decimal.RequireFromString("31.1035")

// MinKarat is the lowest purity the business accepts; anything below is
// rejected as invalid gold.
var MinKarat = decimal.NewFromInt(10)

var (
	// fcfaDivisor and defaultDivisor encode a business rule carried over
	// unchanged: FCFA valuations divide the per-gram price by 24, every
	// other currency by 22.
	fcfaDivisor    = decimal.NewFromInt(24)
	defaultDivisor = decimal.NewFromInt(22)

	densityTableStart = decimal.RequireFromString("13.00")
	densityBucketStep = decimal.RequireFromString("0.045")
	karatStep         = decimal.RequireFromString("0.1")
)

// karatBucket maps one density interval [Min, Max) to a purity.
type karatBucket struct {
	Min   decimal.Decimal
	Max   decimal.Decimal
	Karat decimal.Decimal
}

// densityTable is the ordered density-to-karat lookup, karat 10.0 through
// 24.0 in 0.1 steps.
var densityTable = buildDensityTable()

func buildDensityTable() []karatBucket {
	buckets := make([]karatBucket, 0, 141)
	karat := decimal.NewFromInt(10)
	min := densityTableStart
	for i := 0; i <= 140; i++ {
		max := min.Add(densityBucketStep)
		buckets = append(buckets, karatBucket{Min: min, Max: max, Karat: karat})
		min = max
		karat = karat.Add(karatStep)
	}
	return buckets
}

// Density derives the measured density from the dry weight and the weight of
// displaced water, rounded to two decimals.
func Density(weight, waterWeight decimal.Decimal) (decimal.Decimal, error) {
	if waterWeight.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, fmt.Errorf("water displaced weight must be positive")
	}
	if weight.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, fmt.Errorf("weight must be positive")
	}
	return weight.Div(waterWeight).Round(2), nil
}

// DensityToKarat looks the density up in the ordered bucket table. A density
// outside the table yields karat 0, which callers must treat as invalid.
func DensityToKarat(density decimal.Decimal) decimal.Decimal {
	density = density.Round(2)
	for _, bucket := range densityTable {
		if density.GreaterThanOrEqual(bucket.Min) && density.LessThan(bucket.Max) {
			return bucket.Karat
		}
	}
	return decimal.Zero
}

// IsValidKarat reports whether the purity is acceptable for an operation.
func IsValidKarat(karat decimal.Decimal) bool {
	return karat.GreaterThanOrEqual(MinKarat)
}

// Valuate prices a quantity of gold: pricePerGram scaled by the currency
// divisor, purity and weight. Buy operations store whole currency units, so
// the result is rounded to zero decimals.
func Valuate(karat, weight, pricePerGram decimal.Decimal, currency enums.Currency) decimal.Decimal {
	divisor := defaultDivisor
	if currency == enums.CurrencyFCFA {
		divisor = fcfaDivisor
	}
	return pricePerGram.Div(divisor).Mul(karat).Mul(weight).Round(0)
}

// GramsToTroyOunces converts a gram weight into troy ounces.
func GramsToTroyOunces(grams decimal.Decimal) decimal.Decimal {
	return grams.Div(TroyOunceGrams)
}

// ToGrams normalizes a weight entered in the given unit to grams.
func ToGrams(weight decimal.Decimal, unit enums.WeightUnit) (decimal.Decimal, error) {
	switch unit {
	case enums.WeightUnitGram:
		return weight, nil
	case enums.WeightUnitKilogram:
		return weight.Mul(decimal.NewFromInt(1000)), nil
	default:
		return decimal.Zero, fmt.Errorf("invalid weight unit %q", unit)
	}
}

// RoundAmount rounds a sell/exchange amount to two decimals, half away from
// zero.
func RoundAmount(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(2)
}

package enums

import "fmt"

// GoldSituation tracks where a purchased gold line physically sits.
type GoldSituation string

const (
	GoldSituationInStock  GoldSituation = "in stock"
	GoldSituationExported GoldSituation = "exported"
	GoldSituationSold     GoldSituation = "sold"
)

var validGoldSituations = []GoldSituation{
	GoldSituationInStock,
	GoldSituationExported,
	GoldSituationSold,
}

// String implements fmt.Stringer.
func (g GoldSituation) String() string {
	return string(g)
}

// IsValid reports whether the value is a known GoldSituation.
func (g GoldSituation) IsValid() bool {
	for _, candidate := range validGoldSituations {
		if candidate == g {
			return true
		}
	}
	return false
}

// ParseGoldSituation converts raw input into a GoldSituation.
func ParseGoldSituation(value string) (GoldSituation, error) {
	for _, candidate := range validGoldSituations {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid gold situation %q", value)
}

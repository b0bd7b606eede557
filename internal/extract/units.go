package extract

import "strings"

// unitAliases maps every recognised raw unit token to its canonical unit.
var unitAliases = map[string]string{
	"kg": "kg", "kgs": "kg", "kilogram": "kg", "kilograms": "kg",
	"g": "grams", "gm": "grams", "gms": "grams", "gram": "grams", "grams": "grams",
	"l": "liters", "lt": "liters", "ltr": "liters", "ltrs": "liters",
	"liter": "liters", "liters": "liters", "litre": "liters", "litres": "liters",
	"ml": "ml", "milliliter": "ml", "milliliters": "ml",
	"pkt": "packets", "pkts": "packets", "packet": "packets", "packets": "packets",
	"pc": "pieces", "pcs": "pieces", "piece": "pieces", "pieces": "pieces",
	"nos": "pieces", "no": "pieces", "unit": "pieces", "units": "pieces",
	"box": "boxes", "boxes": "boxes",
	"bottle": "bottles", "bottles": "bottles", "btl": "bottles", "btls": "bottles",
	"dozen": "dozen", "dzn": "dozen",
	"pair": "pairs", "pairs": "pairs",
	"set": "sets", "sets": "sets",
	"bag": "bags", "bags": "bags",
	"can": "cans", "cans": "cans",
	"jar": "jars", "jars": "jars",
	"tube": "tubes", "tubes": "tubes",
	"roll": "rolls", "rolls": "rolls",
	"bundle": "bundles", "bundles": "bundles",
}

// DefaultUnit is assigned when a line carries a quantity but no unit.
const DefaultUnit = "pieces"

func unitKey(raw string) string {
	key := strings.ToLower(strings.TrimSpace(raw))
	return strings.NewReplacer(".", "", ",", "").Replace(key)
}

// IsUnit reports whether raw is a recognised unit alias.
func IsUnit(raw string) bool {
	_, ok := unitAliases[unitKey(raw)]
	return ok
}

// NormalizeUnit returns the canonical unit for raw. Unrecognised tokens come
// back trimmed but otherwise unchanged.
func NormalizeUnit(raw string) string {
	if canonical, ok := unitAliases[unitKey(raw)]; ok {
		return canonical
	}
	return strings.TrimSpace(raw)
}

package events

// seasonalPatterns maps month -> product name -> demand modifier. Products
// absent from a month's map sell at 1.0.
var seasonalPatterns = map[int]map[string]float64{
	// Spring (Mar-May): widgets +20%, tools +10%
	3: {"Basic Widget": 1.20, "Professional Tool": 1.10},
	4: {"Basic Widget": 1.20, "Professional Tool": 1.10},
	5: {"Basic Widget": 1.20, "Professional Tool": 1.10},

	// Summer (Jun-Aug): gadgets +30%, widgets -10%
	6: {"Premium Gadget": 1.30, "Basic Widget": 0.90},
	7: {"Premium Gadget": 1.30, "Basic Widget": 0.90},
	8: {"Premium Gadget": 1.30, "Basic Widget": 0.90},

	// Fall (Sep-Nov): tools +25%
	9:  {"Professional Tool": 1.25},
	10: {"Professional Tool": 1.25},
	11: {"Professional Tool": 1.25},

	// Winter (Dec-Feb): widgets +15%, gadgets -15%
	12: {"Basic Widget": 1.15, "Premium Gadget": 0.85},
	1:  {"Basic Widget": 1.15, "Premium Gadget": 0.85},
	2:  {"Basic Widget": 1.15, "Premium Gadget": 0.85},
}

// SeasonalModifier returns the demand modifier for a product in a month.
func SeasonalModifier(month int, productName string) float64 {
	if patterns, ok := seasonalPatterns[month]; ok {
		if mod, ok := patterns[productName]; ok {
			return mod
		}
	}
	return 1.0
}

// SeasonName names the quarter a month falls in, for turn logs.
func SeasonName(month int) string {
	switch {
	case month >= 3 && month <= 5:
		return "Spring"
	case month >= 6 && month <= 8:
		return "Summer"
	case month >= 9 && month <= 11:
		return "Fall"
	default:
		return "Winter"
	}
}

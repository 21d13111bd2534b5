package domain

const (
	kgToLb = 2.2046226218
	inToM  = 0.0254
	cmPerM = 100.0
)

// ConvertWeight converts a weight value between "kg" and "lb".
// Returns v unchanged if from == to or if the units are unrecognised.
func ConvertWeight(v float64, from, to string) float64 {
	if from == to {
		return v
	}
	if from == "kg" && to == "lb" {
		return v * kgToLb
	}
	if from == "lb" && to == "kg" {
		return v / kgToLb
	}
	return v
}

// ConvertHeight converts a height value between "m", "cm" and "in".
// Returns v unchanged if from == to or if either unit is unrecognised.
func ConvertHeight(v float64, from, to string) float64 {
	if from == to {
		return v
	}
	meters, ok := toMeters(v, from)
	if !ok {
		return v
	}
	switch to {
	case "m":
		return meters
	case "cm":
		return meters * cmPerM
	case "in":
		return meters / inToM
	}
	return v
}

func toMeters(v float64, unit string) (float64, bool) {
	switch unit {
	case "m":
		return v, true
	case "cm":
		return v / cmPerM, true
	case "in":
		return v * inToM, true
	}
	return 0, false
}

// ValidWeightUnit reports whether u is a supported weight unit.
func ValidWeightUnit(u string) bool {
	return u == "kg" || u == "lb"
}

// ValidHeightUnit reports whether u is a supported height unit.
func ValidHeightUnit(u string) bool {
	_, ok := toMeters(0, u)
	return ok
}

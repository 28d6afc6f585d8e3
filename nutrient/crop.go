package nutrient

import "strconv"

// Crop is one of the supported field crops.
type Crop int

const (
	cropUnset Crop = iota
	Wheat
	Rice
)

// Crops lists every supported crop in a stable order.
var Crops = []Crop{Wheat, Rice}

func (c Crop) String() string {
	switch c {
	case Wheat:
		return "wheat"
	case Rice:
		return "rice"
	}
	return ""
}

func (c Crop) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *Crop) UnmarshalText(b []byte) error {
	v, err := ParseCrop(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// ParseCrop accepts "wheat" or "rice" in any case.
func ParseCrop(s string) (Crop, error) {
	switch norm(s) {
	case "wheat":
		return Wheat, nil
	case "rice":
		return Rice, nil
	}
	return cropUnset, invalid("crop", s)
}

// DayColumn names the elapsed-days column in a single-crop dataset.
func (c Crop) DayColumn() string {
	if c == Rice {
		return "days_since_transplanting"
	}
	return "days_since_sowing"
}

// Stage is a coarse phenological bucket.
type Stage int

const (
	stageUnset Stage = iota
	Early
	Mid
	Late
)

func (s Stage) String() string {
	switch s {
	case Early:
		return "early"
	case Mid:
		return "mid"
	case Late:
		return "late"
	}
	return ""
}

func (s Stage) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// ParseStage accepts "early", "mid" or "late" in any case.
func ParseStage(str string) (Stage, error) {
	switch norm(str) {
	case "early":
		return Early, nil
	case "mid":
		return Mid, nil
	case "late":
		return Late, nil
	}
	return stageUnset, invalid("growth_stage", str)
}

// stage thresholds: last day (inclusive) of EARLY and MID.
var stageLimits = map[Crop][2]int{
	Wheat: {25, 60}, // days since sowing
	Rice:  {20, 50}, // days since transplanting
}

// ResolveStage buckets elapsed days for crop. Negative days are rejected.
func ResolveStage(crop Crop, days int) (Stage, error) {
	lim, ok := stageLimits[crop]
	if !ok {
		return stageUnset, invalid("crop", crop.String())
	}
	if days < 0 {
		return stageUnset, &InvalidInputError{Field: "days_since_start", Value: strconv.Itoa(days), Reason: "must not be negative"}
	}
	switch {
	case days <= lim[0]:
		return Early, nil
	case days <= lim[1]:
		return Mid, nil
	default:
		return Late, nil
	}
}

// Nutrient is one of the three macronutrients.
type Nutrient int

const (
	N Nutrient = iota
	P
	K
)

// Nutrients lists N, P and K in output order.
var Nutrients = []Nutrient{N, P, K}

func (n Nutrient) String() string {
	switch n {
	case N:
		return "N"
	case P:
		return "P"
	case K:
		return "K"
	}
	return "nutrient(" + strconv.Itoa(int(n)) + ")"
}

// Name is the long form used in reports.
func (n Nutrient) Name() string {
	switch n {
	case N:
		return "Nitrogen"
	case P:
		return "Phosphorus"
	case K:
		return "Potassium"
	}
	return n.String()
}

func (n Nutrient) MarshalText() ([]byte, error) { return []byte(n.String()), nil }

// ParseNutrient accepts "N", "P" or "K" in any case.
func ParseNutrient(s string) (Nutrient, error) {
	switch norm(s) {
	case "n":
		return N, nil
	case "p":
		return P, nil
	case "k":
		return K, nil
	}
	return 0, invalid("nutrient", s)
}

package nutrient

import (
	"fmt"
	"math"
	"strconv"
)

type kgRange struct{ min, max float64 }

// Per-acre kg ranges. Potassium has no HIGH row: the engine caps K at MEDIUM.
var standardRanges = map[Nutrient]map[Level]kgRange{
	N: {Low: {0, 10}, Medium: {15, 20}, High: {25, 30}},
	P: {Low: {0, 5}, Medium: {8, 12}, High: {15, 20}},
	K: {Low: {0, 5}, Medium: {8, 12}},
}

var quantityRanges = map[Crop]map[Nutrient]map[Level]kgRange{
	Wheat: standardRanges,
	Rice:  standardRanges,
}

// Range is a recommended application in kilograms.
type Range struct {
	MinPerAcre float64 `json:"minPerAcre"`
	MaxPerAcre float64 `json:"maxPerAcre"`
	MinTotal   float64 `json:"minTotal"`
	MaxTotal   float64 `json:"maxTotal"`
}

// PerAcreLabel renders the per-acre range, e.g. "8–12 kg/acre".
func (r Range) PerAcreLabel() string {
	return fmtKg(r.MinPerAcre) + "–" + fmtKg(r.MaxPerAcre) + " kg/acre"
}

// TotalLabel renders the whole-field range, e.g. "16.0–24.0 kg".
func (r Range) TotalLabel() string {
	return fmt.Sprintf("%.1f–%.1f kg", r.MinTotal, r.MaxTotal)
}

func fmtKg(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

// Quantity scales the table range for (crop, n, level) to a field of
// areaAcres.
func Quantity(crop Crop, n Nutrient, level Level, areaAcres float64) (Range, error) {
	if math.IsNaN(areaAcres) || math.IsInf(areaAcres, 0) || areaAcres <= 0 {
		return Range{}, &InvalidInputError{
			Field:  "area_acres",
			Value:  strconv.FormatFloat(areaAcres, 'f', -1, 64),
			Reason: "must be a positive number",
		}
	}
	byNutrient, ok := quantityRanges[crop]
	if !ok {
		return Range{}, invalid("crop", crop.String())
	}
	kg, ok := byNutrient[n][level]
	if !ok {
		return Range{}, &UnsupportedLevelError{Crop: crop, Nutrient: n, Level: level}
	}
	return Range{
		MinPerAcre: kg.min,
		MaxPerAcre: kg.max,
		MinTotal:   kg.min * areaAcres,
		MaxTotal:   kg.max * areaAcres,
	}, nil
}

// Dose pairs a nutrient's final level with its quantity range.
type Dose struct {
	Nutrient Nutrient `json:"nutrient"`
	Level    Level    `json:"level"`
	Range
}

// Advice is an evaluation plus per-nutrient quantities for a field.
type Advice struct {
	Result
	AreaAcres float64 `json:"areaAcres"`
	Doses     []Dose  `json:"doses"`
}

// Advise evaluates in and sizes every nutrient for areaAcres.
func Advise(in Inputs, areaAcres float64) (Advice, error) {
	res, err := Evaluate(in)
	if err != nil {
		return Advice{}, err
	}
	adv := Advice{Result: res, AreaAcres: areaAcres, Doses: make([]Dose, 0, len(Nutrients))}
	for _, n := range Nutrients {
		lv := res.Levels.Get(n)
		r, err := Quantity(in.Crop, n, lv, areaAcres)
		if err != nil {
			return Advice{}, err
		}
		adv.Doses = append(adv.Doses, Dose{Nutrient: n, Level: lv, Range: r})
	}
	return adv, nil
}

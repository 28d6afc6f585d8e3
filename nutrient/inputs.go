package nutrient

import "strconv"

// Soil is the dominant soil texture of a field.
type Soil int

const (
	soilUnset Soil = iota
	Sandy
	Loamy
	Clay
)

var soilNames = map[Soil]string{Sandy: "sandy", Loamy: "loamy", Clay: "clay"}

func (s Soil) String() string                { return soilNames[s] }
func (s Soil) MarshalText() ([]byte, error)  { return []byte(s.String()), nil }
func (s *Soil) UnmarshalText(b []byte) error { return unmarshalEnum(s, string(b), ParseSoil) }

// ParseSoil accepts "sandy", "loamy" or "clay" in any case.
func ParseSoil(s string) (Soil, error) { return parseEnum("soil_type", s, soilNames) }

// FertilizerRecency buckets the days since the last fertilizer application.
type FertilizerRecency int

const (
	fertUnset FertilizerRecency = iota
	FertilizedUnder15
	Fertilized15To30
	FertilizedOver30
)

var fertNames = map[FertilizerRecency]string{
	FertilizedUnder15: "<15",
	Fertilized15To30:  "15-30",
	FertilizedOver30:  ">30",
}

func (f FertilizerRecency) String() string               { return fertNames[f] }
func (f FertilizerRecency) MarshalText() ([]byte, error) { return []byte(f.String()), nil }
func (f *FertilizerRecency) UnmarshalText(b []byte) error {
	return unmarshalEnum(f, string(b), ParseFertilizerRecency)
}

// ParseFertilizerRecency accepts "<15", "15-30" or ">30".
func ParseFertilizerRecency(s string) (FertilizerRecency, error) {
	return parseEnum("time_since_last_fertilizer", s, fertNames)
}

// IrrigationRecency buckets the days since the last irrigation.
type IrrigationRecency int

const (
	irrUnset IrrigationRecency = iota
	IrrigatedUnder7
	Irrigated7To20
	IrrigatedOver20
)

var irrNames = map[IrrigationRecency]string{
	IrrigatedUnder7: "<7",
	Irrigated7To20:  "7-20",
	IrrigatedOver20: ">20",
}

func (r IrrigationRecency) String() string               { return irrNames[r] }
func (r IrrigationRecency) MarshalText() ([]byte, error) { return []byte(r.String()), nil }
func (r *IrrigationRecency) UnmarshalText(b []byte) error {
	return unmarshalEnum(r, string(b), ParseIrrigationRecency)
}

// ParseIrrigationRecency accepts "<7", "7-20" or ">20".
func ParseIrrigationRecency(s string) (IrrigationRecency, error) {
	return parseEnum("time_since_last_irrigation", s, irrNames)
}

// Intensity is how much water the last irrigation delivered.
type Intensity int

const (
	intensityUnset Intensity = iota
	Light
	Normal
	Heavy
)

var intensityNames = map[Intensity]string{Light: "light", Normal: "normal", Heavy: "heavy"}

func (i Intensity) String() string                { return intensityNames[i] }
func (i Intensity) MarshalText() ([]byte, error)  { return []byte(i.String()), nil }
func (i *Intensity) UnmarshalText(b []byte) error { return unmarshalEnum(i, string(b), ParseIntensity) }

// ParseIntensity accepts "light", "normal" or "heavy" in any case.
func ParseIntensity(s string) (Intensity, error) {
	return parseEnum("last_irrigation_level", s, intensityNames)
}

// ParsePriorFor parses the prior level of nutrient n, naming the field
// prev_N, prev_P or prev_K on error.
func ParsePriorFor(n Nutrient, s string) (Prior, error) {
	p, err := ParsePrior(s)
	if err != nil {
		return p, invalid("prev_"+n.String(), s)
	}
	return p, nil
}

// IrrigationCount is the number of irrigations since sowing. Rice does not
// track it, so the zero value means not applicable rather than zero.
type IrrigationCount struct {
	n     int
	known bool
}

// NotApplicable is the irrigation count of crops that do not track one.
var NotApplicable = IrrigationCount{}

// Irrigations returns a known irrigation count.
func Irrigations(n int) IrrigationCount { return IrrigationCount{n: n, known: true} }

// Value reports the count and whether it is known.
func (c IrrigationCount) Value() (int, bool) { return c.n, c.known }

// String renders the count, or "" when not applicable.
func (c IrrigationCount) String() string {
	if !c.known {
		return ""
	}
	return strconv.Itoa(c.n)
}

// Inputs is the field context the rule engine consumes.
type Inputs struct {
	Crop                Crop
	Days                int
	Soil                Soil
	PriorN              Prior
	PriorP              Prior
	PriorK              Prior
	FertilizerRecency   FertilizerRecency
	IrrigationCount     IrrigationCount
	IrrigationRecency   IrrigationRecency
	IrrigationIntensity Intensity
}

// Prior returns the prior level recorded for n.
func (in Inputs) Prior(n Nutrient) Prior {
	switch n {
	case P:
		return in.PriorP
	case K:
		return in.PriorK
	}
	return in.PriorN
}

// Validate checks every categorical value is inside its domain. Wheat needs a
// known, non-negative irrigation count; rice ignores it.
func (in Inputs) Validate() error {
	if in.Crop != Wheat && in.Crop != Rice {
		return invalid("crop", in.Crop.String())
	}
	if in.Days < 0 {
		return &InvalidInputError{Field: "days_since_start", Value: strconv.Itoa(in.Days), Reason: "must not be negative"}
	}
	if _, ok := soilNames[in.Soil]; !ok {
		return invalid("soil_type", in.Soil.String())
	}
	for _, n := range Nutrients {
		if _, ok := priorNames[in.Prior(n)]; !ok {
			return invalid("prev_"+n.String(), in.Prior(n).String())
		}
	}
	if _, ok := fertNames[in.FertilizerRecency]; !ok {
		return invalid("time_since_last_fertilizer", in.FertilizerRecency.String())
	}
	if _, ok := irrNames[in.IrrigationRecency]; !ok {
		return invalid("time_since_last_irrigation", in.IrrigationRecency.String())
	}
	if _, ok := intensityNames[in.IrrigationIntensity]; !ok {
		return invalid("last_irrigation_level", in.IrrigationIntensity.String())
	}
	if in.Crop == Wheat {
		n, known := in.IrrigationCount.Value()
		if !known {
			return &InvalidInputError{Field: "irrigation_count", Reason: "required for wheat"}
		}
		if n < 0 {
			return &InvalidInputError{Field: "irrigation_count", Value: strconv.Itoa(n), Reason: "must not be negative"}
		}
	}
	return nil
}

func parseEnum[T comparable](field, s string, names map[T]string) (T, error) {
	n := norm(s)
	for v, name := range names {
		if name == n {
			return v, nil
		}
	}
	var zero T
	return zero, invalid(field, s)
}

func unmarshalEnum[T any](dst *T, s string, parse func(string) (T, error)) error {
	v, err := parse(s)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

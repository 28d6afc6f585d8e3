package nutrient

// A step adjusts one nutrient's level from a single piece of field context.
// Each step receives an already clamped level and returns a clamped level.
type step struct {
	name  string
	apply func(l Level, in Inputs, n Nutrient) Level
}

var (
	byPrior = step{"prior_fertilizer", func(l Level, in Inputs, n Nutrient) Level {
		switch in.Prior(n) {
		case PriorNone:
			return l.Shift(1)
		case PriorHigh:
			return l.Shift(-1)
		}
		return l
	}}

	// Only nitrogen responds to soil texture.
	bySoil = step{"soil_type", func(l Level, in Inputs, _ Nutrient) Level {
		switch in.Soil {
		case Sandy:
			return l.Shift(1)
		case Clay:
			return l.Shift(-1)
		}
		return l
	}}

	byIrrigationCount = step{"irrigation_count", func(l Level, in Inputs, _ Nutrient) Level {
		if n, ok := in.IrrigationCount.Value(); ok && n >= 2 {
			return l.Shift(1)
		}
		return l
	}}

	byFertilizerRecency = step{"fertilizer_recency", func(l Level, in Inputs, _ Nutrient) Level {
		switch in.FertilizerRecency {
		case FertilizedUnder15:
			return l.Shift(-1)
		case FertilizedOver30:
			return l.Shift(1)
		}
		return l
	}}

	// Recent and heavy irrigation both leach nitrogen, but together they
	// count as one unit of extra need.
	byIrrigation = step{"irrigation_recency_intensity", func(l Level, in Inputs, _ Nutrient) Level {
		adj := 0
		if in.IrrigationRecency == IrrigatedUnder7 {
			adj++
		}
		if in.IrrigationIntensity == Heavy {
			adj++
		}
		return l.Shift(min(adj, 1))
	}}

	potassiumCap = step{"potassium_safety_cap", func(l Level, _ Inputs, _ Nutrient) Level {
		if l == High {
			return Medium
		}
		return l
	}}
)

// chains holds the ordered adjustments per crop and nutrient. Order matters:
// clamping after every step makes the chain non-commutative at the edges.
var chains = map[Crop]map[Nutrient][]step{
	Wheat: {
		N: {byPrior, bySoil, byIrrigationCount, byFertilizerRecency, byIrrigation},
		P: {byPrior, byFertilizerRecency},
		K: {byPrior, byFertilizerRecency, potassiumCap},
	},
	Rice: {
		N: {byPrior, bySoil, byFertilizerRecency, byIrrigation},
		P: {byPrior, byFertilizerRecency},
		K: {byPrior, byFertilizerRecency, potassiumCap},
	},
}

// Adjustment records one applied step.
type Adjustment struct {
	Nutrient Nutrient `json:"nutrient"`
	Step     string   `json:"step"`
	Before   Level    `json:"before"`
	After    Level    `json:"after"`
}

// Result is the outcome of a rule evaluation.
type Result struct {
	Stage  Stage        `json:"growthStage"`
	Base   Levels       `json:"base"`
	Levels Levels       `json:"levels"`
	Trace  []Adjustment `json:"trace"`
}

// Evaluate runs the crop's adjustment chains over the stage base requirement.
func Evaluate(in Inputs) (Result, error) {
	if err := in.Validate(); err != nil {
		return Result{}, err
	}
	stage, err := ResolveStage(in.Crop, in.Days)
	if err != nil {
		return Result{}, err
	}
	base, err := BaseRequirement(in.Crop, stage)
	if err != nil {
		return Result{}, err
	}

	res := Result{Stage: stage, Base: base, Levels: base}
	for _, n := range Nutrients {
		l := base.Get(n)
		for _, s := range chains[in.Crop][n] {
			next := s.apply(l, in, n)
			res.Trace = append(res.Trace, Adjustment{Nutrient: n, Step: s.name, Before: l, After: next})
			l = next
		}
		res.Levels.set(n, l)
	}
	return res, nil
}

// Steps lists the step names applied to nutrient n for crop, in order.
func Steps(crop Crop, n Nutrient) []string {
	chain := chains[crop][n]
	out := make([]string, len(chain))
	for i, s := range chain {
		out[i] = s.name
	}
	return out
}

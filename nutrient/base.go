package nutrient

// Levels is a requirement per nutrient.
type Levels struct {
	N Level `json:"N"`
	P Level `json:"P"`
	K Level `json:"K"`
}

// Get returns the level for n.
func (l Levels) Get(n Nutrient) Level {
	switch n {
	case P:
		return l.P
	case K:
		return l.K
	}
	return l.N
}

func (l *Levels) set(n Nutrient, v Level) {
	switch n {
	case N:
		l.N = v
	case P:
		l.P = v
	case K:
		l.K = v
	}
}

// baseRequirement is the stage-only starting point before any adjustment.
// Rice needs less nitrogen at mid season than wheat.
var baseRequirement = map[Crop]map[Stage]Levels{
	Wheat: {
		Early: {N: High, P: Medium, K: Low},
		Mid:   {N: High, P: Low, K: Low},
		Late:  {N: Low, P: Low, K: Low},
	},
	Rice: {
		Early: {N: High, P: Medium, K: Low},
		Mid:   {N: Medium, P: Low, K: Low},
		Late:  {N: Low, P: Low, K: Low},
	},
}

// BaseRequirement returns the stage requirement for crop.
func BaseRequirement(crop Crop, stage Stage) (Levels, error) {
	byStage, ok := baseRequirement[crop]
	if !ok {
		return Levels{}, invalid("crop", crop.String())
	}
	lv, ok := byStage[stage]
	if !ok {
		return Levels{}, invalid("growth_stage", stage.String())
	}
	return lv, nil
}

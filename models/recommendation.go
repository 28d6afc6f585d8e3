package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Recommendation is a persisted fertilizer advice. Inputs are stored in the
// training column vocabulary so a stored advice can be replayed or exported.
type Recommendation struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty"     json:"id"`
	OwnerID   primitive.ObjectID  `bson:"ownerId"           json:"ownerId"`
	FieldID   *primitive.ObjectID `bson:"fieldId,omitempty" json:"fieldId,omitempty"`
	CreatedAt time.Time           `bson:"createdAt"         json:"createdAt"`

	Inputs      AdviceInputs    `bson:"inputs"      json:"inputs"`
	GrowthStage string          `bson:"growthStage" json:"growthStage"`
	Nutrients   []NutrientDose  `bson:"nutrients"   json:"nutrients"`
	Trace       []AdjustmentLog `bson:"trace,omitempty" json:"trace,omitempty"`
}

// AdviceInputs mirrors the field context that produced a recommendation.
type AdviceInputs struct {
	Crop                    string  `bson:"crop"                       json:"crop"`
	DaysSinceStart          int     `bson:"days_since_start"           json:"days_since_start"`
	SoilType                string  `bson:"soil_type"                  json:"soil_type"`
	PrevN                   string  `bson:"prev_N"                     json:"prev_N"`
	PrevP                   string  `bson:"prev_P"                     json:"prev_P"`
	PrevK                   string  `bson:"prev_K"                     json:"prev_K"`
	TimeSinceLastFertilizer string  `bson:"time_since_last_fertilizer" json:"time_since_last_fertilizer"`
	IrrigationCount         *int    `bson:"irrigation_count,omitempty" json:"irrigation_count,omitempty"` // nil for rice
	TimeSinceLastIrrigation string  `bson:"time_since_last_irrigation" json:"time_since_last_irrigation"`
	LastIrrigationLevel     string  `bson:"last_irrigation_level"      json:"last_irrigation_level"`
	AreaAcres               float64 `bson:"area_acres"                 json:"area_acres"`
}

// NutrientDose is one line of the advice card.
type NutrientDose struct {
	Nutrient    string  `bson:"nutrient"    json:"nutrient"`    // N | P | K
	Name        string  `bson:"name"        json:"name"`        // Nitrogen
	Level       string  `bson:"level"       json:"level"`       // low | medium | high
	Requirement string  `bson:"requirement" json:"requirement"` // LOW | MEDIUM | HIGH
	MinPerAcre  float64 `bson:"minPerAcre"  json:"minPerAcre"`
	MaxPerAcre  float64 `bson:"maxPerAcre"  json:"maxPerAcre"`
	MinTotal    float64 `bson:"minTotal"    json:"minTotal"`
	MaxTotal    float64 `bson:"maxTotal"    json:"maxTotal"`
	PerAcre     string  `bson:"perAcre"     json:"perAcre"` // "8–12 kg/acre"
	Total       string  `bson:"total"       json:"total"`   // "16.0–24.0 kg"
}

// AdjustmentLog is one rule step applied while computing the advice.
type AdjustmentLog struct {
	Nutrient string `bson:"nutrient" json:"nutrient"`
	Step     string `bson:"step"     json:"step"`
	Before   string `bson:"before"   json:"before"`
	After    string `bson:"after"    json:"after"`
}

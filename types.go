package main

import (
	"encoding/json"
	"net/http"
	"time"

	"fertiplan/models"
	"fertiplan/nutrient"
)

// Request/response DTOs. Keep them minimal and explicit.

type registerReq struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResp struct {
	Token string `json:"token"`
}

type fieldReq struct {
	Name      *string         `json:"name"`
	Geometry  json.RawMessage `json:"geometry,omitempty"` // GeoJSON Polygon/MultiPolygon
	Crop      *string         `json:"crop,omitempty"`
	SoilType  *string         `json:"soilType,omitempty"`
	AreaAcres *float64        `json:"areaAcres,omitempty"`
	PlantedAt *time.Time      `json:"plantedAt,omitempty"`
	Notes     *string         `json:"notes,omitempty"`
	Photo     *string         `json:"photo,omitempty"`
}

// adviceReq uses the training column names so the same payload can be fed
// to the rule engine or to a learned model.
type adviceReq struct {
	FieldID                 string   `json:"fieldId,omitempty"`
	Crop                    string   `json:"crop"`
	DaysSinceStart          *int     `json:"days_since_start"`
	SoilType                string   `json:"soil_type"`
	PrevN                   string   `json:"prev_N"`
	PrevP                   string   `json:"prev_P"`
	PrevK                   string   `json:"prev_K"`
	TimeSinceLastFertilizer string   `json:"time_since_last_fertilizer"`
	IrrigationCount         *int     `json:"irrigation_count"`
	TimeSinceLastIrrigation string   `json:"time_since_last_irrigation"`
	LastIrrigationLevel     string   `json:"last_irrigation_level"`
	AreaAcres               *float64 `json:"area_acres"`
}

type adviceResp struct {
	Inputs      models.AdviceInputs    `json:"inputs"`
	GrowthStage string                 `json:"growthStage"`
	Nutrients   []models.NutrientDose  `json:"nutrients"`
	Trace       []models.AdjustmentLog `json:"trace,omitempty"`
}

type publishReq struct {
	Crops   []string `json:"crops"`
	Rows    int      `json:"rows"`
	Seed    *uint64  `json:"seed,omitempty"`
	Workers int      `json:"workers,omitempty"`
}

// Payload we send to the trainer's /datasets endpoint.
type trainerDatasetReq struct {
	BatchID   string    `json:"batchId"`
	CreatedAt time.Time `json:"createdAt"`
	Columns   []string  `json:"columns"`
	Targets   []string  `json:"targets"`
	Records   any       `json:"records"`
}

type trainerDatasetResp struct {
	OperationID string `json:"operation_id,omitempty"` // if the trainer returns a task id
	Status      string `json:"status,omitempty"`       // e.g., "queued"
}

type publishResp struct {
	BatchID string             `json:"batchId"`
	Rows    int                `json:"rows"`
	Trainer trainerDatasetResp `json:"trainer"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// inputs validates the request at the boundary and converts it to engine
// inputs plus the field area.
func (q adviceReq) inputs() (nutrient.Inputs, float64, error) {
	var (
		in  nutrient.Inputs
		err error
	)
	if in.Crop, err = nutrient.ParseCrop(q.Crop); err != nil {
		return in, 0, err
	}
	if q.DaysSinceStart == nil {
		return in, 0, &nutrient.InvalidInputError{Field: "days_since_start", Reason: "required"}
	}
	in.Days = *q.DaysSinceStart
	if in.Soil, err = nutrient.ParseSoil(q.SoilType); err != nil {
		return in, 0, err
	}
	if in.PriorN, err = nutrient.ParsePriorFor(nutrient.N, q.PrevN); err != nil {
		return in, 0, err
	}
	if in.PriorP, err = nutrient.ParsePriorFor(nutrient.P, q.PrevP); err != nil {
		return in, 0, err
	}
	if in.PriorK, err = nutrient.ParsePriorFor(nutrient.K, q.PrevK); err != nil {
		return in, 0, err
	}
	if in.FertilizerRecency, err = nutrient.ParseFertilizerRecency(q.TimeSinceLastFertilizer); err != nil {
		return in, 0, err
	}
	if in.IrrigationRecency, err = nutrient.ParseIrrigationRecency(q.TimeSinceLastIrrigation); err != nil {
		return in, 0, err
	}
	if in.IrrigationIntensity, err = nutrient.ParseIntensity(q.LastIrrigationLevel); err != nil {
		return in, 0, err
	}
	if in.Crop == nutrient.Wheat && q.IrrigationCount != nil {
		in.IrrigationCount = nutrient.Irrigations(*q.IrrigationCount)
	}
	if q.AreaAcres == nil {
		return in, 0, &nutrient.InvalidInputError{Field: "area_acres", Reason: "required"}
	}
	return in, *q.AreaAcres, in.Validate()
}

// withField fills crop, soil, area and elapsed days from a stored field
// wherever the request leaves them out.
func (q adviceReq) withField(f models.Field, now time.Time) adviceReq {
	if q.Crop == "" {
		q.Crop = f.Crop
	}
	if q.SoilType == "" {
		q.SoilType = f.SoilType
	}
	if q.AreaAcres == nil && f.AreaAcres > 0 {
		area := f.AreaAcres
		q.AreaAcres = &area
	}
	if q.DaysSinceStart == nil {
		if d, ok := f.DaysSincePlanting(now); ok {
			q.DaysSinceStart = &d
		}
	}
	return q
}

func adviceInputsDoc(in nutrient.Inputs, area float64) models.AdviceInputs {
	doc := models.AdviceInputs{
		Crop:                    in.Crop.String(),
		DaysSinceStart:          in.Days,
		SoilType:                in.Soil.String(),
		PrevN:                   in.PriorN.String(),
		PrevP:                   in.PriorP.String(),
		PrevK:                   in.PriorK.String(),
		TimeSinceLastFertilizer: in.FertilizerRecency.String(),
		TimeSinceLastIrrigation: in.IrrigationRecency.String(),
		LastIrrigationLevel:     in.IrrigationIntensity.String(),
		AreaAcres:               area,
	}
	if n, ok := in.IrrigationCount.Value(); ok {
		doc.IrrigationCount = &n
	}
	return doc
}

func adviceDoc(in nutrient.Inputs, adv nutrient.Advice) adviceResp {
	out := adviceResp{
		Inputs:      adviceInputsDoc(in, adv.AreaAcres),
		GrowthStage: adv.Stage.String(),
		Nutrients:   make([]models.NutrientDose, 0, len(adv.Doses)),
		Trace:       make([]models.AdjustmentLog, 0, len(adv.Trace)),
	}
	for _, d := range adv.Doses {
		out.Nutrients = append(out.Nutrients, models.NutrientDose{
			Nutrient:    d.Nutrient.String(),
			Name:        d.Nutrient.Name(),
			Level:       d.Level.String(),
			Requirement: d.Level.Label(),
			MinPerAcre:  d.MinPerAcre,
			MaxPerAcre:  d.MaxPerAcre,
			MinTotal:    d.MinTotal,
			MaxTotal:    d.MaxTotal,
			PerAcre:     d.PerAcreLabel(),
			Total:       d.TotalLabel(),
		})
	}
	for _, t := range adv.Trace {
		out.Trace = append(out.Trace, models.AdjustmentLog{
			Nutrient: t.Nutrient.String(),
			Step:     t.Step,
			Before:   t.Before.String(),
			After:    t.After.String(),
		})
	}
	return out
}

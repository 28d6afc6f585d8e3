// Package dataset produces labeled N/P/K training rows from the rule engine
// and reads and writes them as CSV or XLSX tables.
package dataset

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"fertiplan/nutrient"
)

// Column names shared with the model training pipeline.
const (
	ColCrop                = "crop"
	ColDaysSinceStart      = "days_since_start"
	ColGrowthStage         = "growth_stage"
	ColSoilType            = "soil_type"
	ColPrevN               = "prev_N"
	ColPrevP               = "prev_P"
	ColPrevK               = "prev_K"
	ColFertilizerRecency   = "time_since_last_fertilizer"
	ColIrrigationCount     = "irrigation_count"
	ColIrrigationRecency   = "time_since_last_irrigation"
	ColIrrigationIntensity = "last_irrigation_level"
	ColAreaAcres           = "area_acres"
	ColNClass              = "N_class"
	ColPClass              = "P_class"
	ColKClass              = "K_class"
)

// Columns is the combined (multi-crop) header in order.
var Columns = []string{
	ColCrop, ColDaysSinceStart, ColGrowthStage, ColSoilType,
	ColPrevN, ColPrevP, ColPrevK,
	ColFertilizerRecency, ColIrrigationCount, ColIrrigationRecency, ColIrrigationIntensity,
	ColAreaAcres,
	ColNClass, ColPClass, ColKClass,
}

// Record is one labeled row: the field context plus the engine's output.
type Record struct {
	nutrient.Inputs
	Stage     nutrient.Stage
	AreaAcres float64
	Levels    nutrient.Levels
}

// Label evaluates in and wraps the result as a Record.
func Label(in nutrient.Inputs, areaAcres float64) (Record, error) {
	res, err := nutrient.Evaluate(in)
	if err != nil {
		return Record{}, err
	}
	return Record{Inputs: in, Stage: res.Stage, AreaAcres: areaAcres, Levels: res.Levels}, nil
}

func isDayColumn(col string) bool {
	return col == ColDaysSinceStart || col == nutrient.Wheat.DayColumn() || col == nutrient.Rice.DayColumn()
}

func (r Record) value(col string) string {
	if isDayColumn(col) {
		return strconv.Itoa(r.Days)
	}
	switch col {
	case ColCrop:
		return r.Crop.String()
	case ColGrowthStage:
		return r.Stage.String()
	case ColSoilType:
		return r.Soil.String()
	case ColPrevN:
		return r.PriorN.String()
	case ColPrevP:
		return r.PriorP.String()
	case ColPrevK:
		return r.PriorK.String()
	case ColFertilizerRecency:
		return r.FertilizerRecency.String()
	case ColIrrigationCount:
		return r.IrrigationCount.String()
	case ColIrrigationRecency:
		return r.IrrigationRecency.String()
	case ColIrrigationIntensity:
		return r.IrrigationIntensity.String()
	case ColAreaAcres:
		return strconv.FormatFloat(r.AreaAcres, 'f', -1, 64)
	case ColNClass:
		return r.Levels.N.String()
	case ColPClass:
		return r.Levels.P.String()
	case ColKClass:
		return r.Levels.K.String()
	}
	return ""
}

type wireRecord struct {
	Crop                string  `json:"crop"`
	DaysSinceStart      int     `json:"days_since_start"`
	GrowthStage         string  `json:"growth_stage"`
	SoilType            string  `json:"soil_type"`
	PrevN               string  `json:"prev_N"`
	PrevP               string  `json:"prev_P"`
	PrevK               string  `json:"prev_K"`
	FertilizerRecency   string  `json:"time_since_last_fertilizer"`
	IrrigationCount     *int    `json:"irrigation_count"`
	IrrigationRecency   string  `json:"time_since_last_irrigation"`
	IrrigationIntensity string  `json:"last_irrigation_level"`
	AreaAcres           float64 `json:"area_acres"`
	NClass              string  `json:"N_class"`
	PClass              string  `json:"P_class"`
	KClass              string  `json:"K_class"`
}

// MarshalJSON encodes r with the training column names. A not-applicable
// irrigation count is null.
func (r Record) MarshalJSON() ([]byte, error) {
	w := wireRecord{
		Crop:                r.Crop.String(),
		DaysSinceStart:      r.Days,
		GrowthStage:         r.Stage.String(),
		SoilType:            r.Soil.String(),
		PrevN:               r.PriorN.String(),
		PrevP:               r.PriorP.String(),
		PrevK:               r.PriorK.String(),
		FertilizerRecency:   r.FertilizerRecency.String(),
		IrrigationRecency:   r.IrrigationRecency.String(),
		IrrigationIntensity: r.IrrigationIntensity.String(),
		AreaAcres:           r.AreaAcres,
		NClass:              r.Levels.N.String(),
		PClass:              r.Levels.P.String(),
		KClass:              r.Levels.K.String(),
	}
	if n, ok := r.IrrigationCount.Value(); ok {
		w.IrrigationCount = &n
	}
	return json.Marshal(w)
}

// parseRow decodes one table row given the header positions.
func parseRow(idx map[string]int, row []string) (Record, error) {
	get := func(col string) string {
		i, ok := idx[strings.ToLower(col)]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var (
		r   Record
		err error
	)
	if r.Crop, err = nutrient.ParseCrop(get(ColCrop)); err != nil {
		return r, err
	}
	days := get(ColDaysSinceStart)
	if days == "" {
		days = get(r.Crop.DayColumn())
	}
	if r.Days, err = strconv.Atoi(days); err != nil {
		return r, &nutrient.InvalidInputError{Field: ColDaysSinceStart, Value: days, Reason: "not an integer"}
	}
	if r.Stage, err = nutrient.ParseStage(get(ColGrowthStage)); err != nil {
		return r, err
	}
	if r.Soil, err = nutrient.ParseSoil(get(ColSoilType)); err != nil {
		return r, err
	}
	if r.PriorN, err = nutrient.ParsePriorFor(nutrient.N, get(ColPrevN)); err != nil {
		return r, err
	}
	if r.PriorP, err = nutrient.ParsePriorFor(nutrient.P, get(ColPrevP)); err != nil {
		return r, err
	}
	if r.PriorK, err = nutrient.ParsePriorFor(nutrient.K, get(ColPrevK)); err != nil {
		return r, err
	}
	if r.FertilizerRecency, err = nutrient.ParseFertilizerRecency(get(ColFertilizerRecency)); err != nil {
		return r, err
	}
	if r.IrrigationCount, err = parseIrrigationCount(get(ColIrrigationCount)); err != nil {
		return r, err
	}
	if r.IrrigationRecency, err = nutrient.ParseIrrigationRecency(get(ColIrrigationRecency)); err != nil {
		return r, err
	}
	if r.IrrigationIntensity, err = nutrient.ParseIntensity(get(ColIrrigationIntensity)); err != nil {
		return r, err
	}
	area := get(ColAreaAcres)
	if r.AreaAcres, err = strconv.ParseFloat(area, 64); err != nil {
		return r, &nutrient.InvalidInputError{Field: ColAreaAcres, Value: area, Reason: "not a number"}
	}
	for _, c := range []struct {
		col string
		dst *nutrient.Level
	}{{ColNClass, &r.Levels.N}, {ColPClass, &r.Levels.P}, {ColKClass, &r.Levels.K}} {
		v, err := nutrient.ParseLevel(get(c.col))
		if err != nil {
			return r, fmt.Errorf("%s: %w", c.col, err)
		}
		*c.dst = v
	}
	return r, nil
}

// Empty, "nan" and the training pipeline's -1 all mean not applicable.
func parseIrrigationCount(s string) (nutrient.IrrigationCount, error) {
	switch strings.ToLower(s) {
	case "", "nan", "-1":
		return nutrient.NotApplicable, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 || f != float64(int(f)) {
		return nutrient.NotApplicable, &nutrient.InvalidInputError{Field: ColIrrigationCount, Value: s, Reason: "not a count"}
	}
	return nutrient.Irrigations(int(f)), nil
}

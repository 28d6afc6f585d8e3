package main

import (
	"io"
	"net/http"
	"testing"
	"time"

	"fertiplan/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wheatAdviceBody() map[string]any {
	return map[string]any{
		"crop":                       "wheat",
		"days_since_start":           10,
		"soil_type":                  "loamy",
		"prev_N":                     "none",
		"prev_P":                     "none",
		"prev_K":                     "none",
		"time_since_last_fertilizer": "15-30",
		"irrigation_count":           0,
		"time_since_last_irrigation": "7-20",
		"last_irrigation_level":      "normal",
		"area_acres":                 2.0,
	}
}

func dosesByNutrient(ds []models.NutrientDose) map[string]models.NutrientDose {
	out := make(map[string]models.NutrientDose, len(ds))
	for _, d := range ds {
		out[d.Nutrient] = d
	}
	return out
}

func TestAdviseWheatEarly(t *testing.T) {
	e := newTestEnv(t, "")
	resp := e.do(t, http.MethodPost, "/api/advise", "", wheatAdviceBody())
	require.Equal(t, http.StatusOK, resp.StatusCode)

	out := decode[adviceResp](t, resp)
	assert.Equal(t, "early", out.GrowthStage)
	require.Len(t, out.Nutrients, 3)

	d := dosesByNutrient(out.Nutrients)
	assert.Equal(t, "HIGH", d["N"].Requirement)
	assert.Equal(t, "25–30 kg/acre", d["N"].PerAcre)
	assert.Equal(t, "50.0–60.0 kg", d["N"].Total)
	assert.Equal(t, "high", d["P"].Level)
	assert.Equal(t, "30.0–40.0 kg", d["P"].Total)
	assert.Equal(t, "medium", d["K"].Level)
	assert.Equal(t, "8–12 kg/acre", d["K"].PerAcre)
	assert.Equal(t, "16.0–24.0 kg", d["K"].Total)
	assert.Equal(t, "Potassium", d["K"].Name)

	require.NotNil(t, out.Inputs.IrrigationCount)
	assert.Equal(t, 0, *out.Inputs.IrrigationCount)
	assert.NotEmpty(t, out.Trace)
}

func TestAdviseRiceIgnoresIrrigationCount(t *testing.T) {
	e := newTestEnv(t, "")
	body := map[string]any{
		"crop":                       "RICE",
		"days_since_start":           90,
		"soil_type":                  "Clay",
		"prev_N":                     "high",
		"prev_P":                     "high",
		"prev_K":                     "high",
		"time_since_last_fertilizer": "<15",
		"irrigation_count":           7,
		"time_since_last_irrigation": "<7",
		"last_irrigation_level":      "heavy",
		"area_acres":                 1.5,
	}
	resp := e.do(t, http.MethodPost, "/api/advise", "", body)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	out := decode[adviceResp](t, resp)
	assert.Equal(t, "late", out.GrowthStage)
	assert.Nil(t, out.Inputs.IrrigationCount)
	d := dosesByNutrient(out.Nutrients)
	assert.Equal(t, "medium", d["N"].Level)
	assert.Equal(t, "low", d["P"].Level)
	assert.Equal(t, "low", d["K"].Level)
}

func TestAdviseRejectsBadInput(t *testing.T) {
	cases := []struct {
		name  string
		mod   func(map[string]any)
		field string
	}{
		{"unknown soil", func(b map[string]any) { b["soil_type"] = "peat" }, "soil_type"},
		{"unknown crop", func(b map[string]any) { b["crop"] = "maize" }, "crop"},
		{"negative days", func(b map[string]any) { b["days_since_start"] = -1 }, "days_since_start"},
		{"missing days", func(b map[string]any) { delete(b, "days_since_start") }, "days_since_start"},
		{"wheat without count", func(b map[string]any) { delete(b, "irrigation_count") }, "irrigation_count"},
		{"zero area", func(b map[string]any) { b["area_acres"] = 0 }, "area_acres"},
		{"bad prior", func(b map[string]any) { b["prev_K"] = "lots" }, "prev_K"},
		{"bad recency", func(b map[string]any) { b["time_since_last_fertilizer"] = "yesterday" }, "time_since_last_fertilizer"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := newTestEnv(t, "")
			body := wheatAdviceBody()
			tc.mod(body)
			resp := e.do(t, http.MethodPost, "/api/advise", "", body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			msg, _ := io.ReadAll(resp.Body)
			assert.Contains(t, string(msg), tc.field)
		})
	}
}

func TestRecommendationFromStoredField(t *testing.T) {
	e := newTestEnv(t, "")
	_, tok := e.login(t, "farmer@example.com")

	planted := time.Now().Add(-40*24*time.Hour - time.Hour)
	resp := e.do(t, http.MethodPost, "/api/fields", tok, map[string]any{
		"name":      "North plot",
		"crop":      "Wheat",
		"soilType":  "sandy",
		"areaAcres": 3.0,
		"plantedAt": planted,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	field := decode[models.Field](t, resp)

	body := wheatAdviceBody()
	for _, k := range []string{"crop", "soil_type", "area_acres", "days_since_start"} {
		delete(body, k)
	}
	body["fieldId"] = field.ID.Hex()
	resp = e.do(t, http.MethodPost, "/api/recommendations", tok, body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	rec := decode[models.Recommendation](t, resp)

	assert.Equal(t, "mid", rec.GrowthStage)
	assert.Equal(t, "wheat", rec.Inputs.Crop)
	assert.Equal(t, "sandy", rec.Inputs.SoilType)
	assert.Equal(t, 40, rec.Inputs.DaysSinceStart)
	assert.InDelta(t, 3.0, rec.Inputs.AreaAcres, 1e-9)
	require.NotNil(t, rec.FieldID)
	assert.Equal(t, field.ID, *rec.FieldID)

	// explicit values win over the field
	body["days_since_start"] = 70
	resp = e.do(t, http.MethodPost, "/api/recommendations", tok, body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "late", decode[models.Recommendation](t, resp).GrowthStage)

	// an ad-hoc recommendation without a field
	resp = e.do(t, http.MethodPost, "/api/recommendations", tok, wheatAdviceBody())
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = e.do(t, http.MethodGet, "/api/recommendations", tok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]models.Recommendation](t, resp), 3)

	resp = e.do(t, http.MethodGet, "/api/recommendations?fieldId="+field.ID.Hex(), tok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[[]models.Recommendation](t, resp)
	require.Len(t, list, 2)
	assert.Equal(t, "late", list[0].GrowthStage, "newest first")
}

func TestRecommendationLifecycleAndOwnership(t *testing.T) {
	e := newTestEnv(t, "")
	_, alice := e.login(t, "alice@example.com")
	_, bob := e.login(t, "bob@example.com")

	resp := e.do(t, http.MethodPost, "/api/recommendations", alice, wheatAdviceBody())
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	rec := decode[models.Recommendation](t, resp)
	path := "/api/recommendations/" + rec.ID.Hex()

	assert.Equal(t, http.StatusOK, e.do(t, http.MethodGet, path, alice, nil).StatusCode)
	assert.Equal(t, http.StatusNotFound, e.do(t, http.MethodGet, path, bob, nil).StatusCode)
	assert.Equal(t, http.StatusNotFound, e.do(t, http.MethodDelete, path, bob, nil).StatusCode)
	assert.Equal(t, http.StatusOK, e.do(t, http.MethodDelete, path, alice, nil).StatusCode)
	assert.Equal(t, http.StatusNotFound, e.do(t, http.MethodGet, path, alice, nil).StatusCode)

	assert.Equal(t, http.StatusBadRequest, e.do(t, http.MethodGet, "/api/recommendations/nope", alice, nil).StatusCode)
	assert.Equal(t, http.StatusUnauthorized, e.do(t, http.MethodGet, "/api/recommendations", "", nil).StatusCode)
}

func TestRecommendationUnknownField(t *testing.T) {
	e := newTestEnv(t, "")
	_, tok := e.login(t, "farmer@example.com")

	body := wheatAdviceBody()
	body["fieldId"] = "65f000000000000000000001"
	assert.Equal(t, http.StatusNotFound, e.do(t, http.MethodPost, "/api/recommendations", tok, body).StatusCode)

	body["fieldId"] = "not-hex"
	assert.Equal(t, http.StatusBadRequest, e.do(t, http.MethodPost, "/api/recommendations", tok, body).StatusCode)
}

func TestMetricsCountAdvice(t *testing.T) {
	e := newTestEnv(t, "")
	require.Equal(t, http.StatusOK, e.do(t, http.MethodPost, "/api/advise", "", wheatAdviceBody()).StatusCode)

	bad := wheatAdviceBody()
	bad["soil_type"] = "peat"
	require.Equal(t, http.StatusBadRequest, e.do(t, http.MethodPost, "/api/advise", "", bad).StatusCode)

	resp := e.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	text, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(text), `fertiplan_advice_levels_total{crop="wheat",level="high",nutrient="N"} 1`)
	assert.Contains(t, string(text), `fertiplan_advice_rejected_total{field="soil_type",kind="invalid_input"} 1`)
}

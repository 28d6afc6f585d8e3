package dataset

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fertiplan/nutrient"
)

func sample(t *testing.T, crop nutrient.Crop, seed uint64, n int) []Record {
	t.Helper()
	recs, err := Collect(newSampler(t, crop).Rows(seed, n))
	require.NoError(t, err)
	return recs
}

func TestCropLayoutHeaders(t *testing.T) {
	wheat := CropLayout(nutrient.Wheat).Header()
	assert.Equal(t, "days_since_sowing", wheat[1])
	assert.Contains(t, wheat, ColIrrigationCount)

	rice := CropLayout(nutrient.Rice).Header()
	assert.Equal(t, "days_since_transplanting", rice[1])
	assert.NotContains(t, rice, ColIrrigationCount)
	assert.Len(t, rice, len(Columns)-1)

	assert.Equal(t, Columns, Combined.Header())
}

func TestWriteCSVThenReadBack(t *testing.T) {
	for _, crop := range nutrient.Crops {
		t.Run(crop.String(), func(t *testing.T) {
			want := sample(t, crop, 11, 64)

			var buf bytes.Buffer
			n, err := WriteCSV(&buf, CropLayout(crop), Slice(want))
			require.NoError(t, err)
			assert.Equal(t, 64, n)

			got, err := ReadCSV(&buf)
			require.NoError(t, err)
			if diff := cmp.Diff(want, got, cmp.AllowUnexported(nutrient.IrrigationCount{})); diff != "" {
				t.Errorf("records mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMergeStandardisesDayColumn(t *testing.T) {
	wheat := sample(t, nutrient.Wheat, 1, 5)
	rice := sample(t, nutrient.Rice, 2, 4)

	var wbuf, rbuf, out bytes.Buffer
	_, err := WriteCSV(&wbuf, CropLayout(nutrient.Wheat), Slice(wheat))
	require.NoError(t, err)
	_, err = WriteCSV(&rbuf, CropLayout(nutrient.Rice), Slice(rice))
	require.NoError(t, err)

	n, err := Merge(&out,
		Source{Name: "wheat_fertilizer_dataset.csv", R: &wbuf},
		Source{Name: "rice_fertilizer_dataset.csv", R: &rbuf},
	)
	require.NoError(t, err)
	assert.Equal(t, 9, n)

	rows, err := csv.NewReader(strings.NewReader(out.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 10)
	assert.Equal(t, Columns, rows[0])

	countCol := 8
	require.Equal(t, ColIrrigationCount, rows[0][countCol])
	for _, row := range rows[1:6] {
		assert.Equal(t, "wheat", row[0])
		assert.NotEmpty(t, row[countCol])
	}
	for _, row := range rows[6:] {
		assert.Equal(t, "rice", row[0])
		assert.Empty(t, row[countCol])
	}
}

func TestReadCSVAcceptsTrainingConventions(t *testing.T) {
	in := strings.Join([]string{
		"crop,days_since_start,growth_stage,soil_type,prev_N,prev_P,prev_K,time_since_last_fertilizer,irrigation_count,time_since_last_irrigation,last_irrigation_level,area_acres,N_class,P_class,K_class",
		"wheat,10,early,loamy,none,none,none,15-30,2.0,7-20,normal,1.25,high,high,medium",
		"rice,90,late,clay,high,high,high,<15,-1,<7,heavy,3.5,medium,low,low",
	}, "\n")

	recs, err := ReadCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, recs, 2)

	n, ok := recs[0].IrrigationCount.Value()
	assert.True(t, ok)
	assert.Equal(t, 2, n)
	assert.Equal(t, nutrient.Levels{N: nutrient.High, P: nutrient.High, K: nutrient.Medium}, recs[0].Levels)

	_, ok = recs[1].IrrigationCount.Value()
	assert.False(t, ok)
	assert.Equal(t, 3.5, recs[1].AreaAcres)
}

func TestReadCSVReportsBadRows(t *testing.T) {
	in := "crop,days_since_start,growth_stage,soil_type\nmaize,10,early,loamy\n"
	_, err := ReadCSV(strings.NewReader(in))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")

	var inv *nutrient.InvalidInputError
	assert.ErrorAs(t, err, &inv)

	_, err = ReadCSV(strings.NewReader(""))
	assert.Error(t, err)
}

func TestXLSXRoundTrip(t *testing.T) {
	want := sample(t, nutrient.Rice, 3, 20)

	var buf bytes.Buffer
	n, err := WriteXLSX(&buf, Combined, Slice(want))
	require.NoError(t, err)
	assert.Equal(t, 20, n)

	got, err := ReadXLSX(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].Inputs, got[i].Inputs)
		assert.Equal(t, want[i].Levels, got[i].Levels)
		assert.InDelta(t, want[i].AreaAcres, got[i].AreaAcres, 1e-9)
	}
}

func TestRecordJSONUsesColumnNames(t *testing.T) {
	rec, err := Label(nutrient.Inputs{
		Crop:                nutrient.Rice,
		Days:                30,
		Soil:                nutrient.Sandy,
		PriorN:              nutrient.PriorLow,
		PriorP:              nutrient.PriorLow,
		PriorK:              nutrient.PriorLow,
		FertilizerRecency:   nutrient.FertilizedOver30,
		IrrigationRecency:   nutrient.IrrigatedOver20,
		IrrigationIntensity: nutrient.Light,
	}, 2)
	require.NoError(t, err)

	b, err := json.Marshal(rec)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	assert.Equal(t, "rice", m["crop"])
	assert.Equal(t, "mid", m["growth_stage"])
	assert.Nil(t, m["irrigation_count"])
	assert.Contains(t, m, "irrigation_count")
	assert.Equal(t, "high", m["N_class"])
	assert.Equal(t, float64(30), m["days_since_start"])
}

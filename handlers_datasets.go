package main

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"net/http"
	"strconv"
	"strings"
	"time"

	"fertiplan/dataset"
	"fertiplan/nutrient"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxPublishWorkers = 16

// handleSampleDataset streams a freshly generated labeled dataset as CSV or XLSX.
// Without a crop both crops are generated and the combined layout is used.
func (a *App) handleSampleDataset(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	crops, layout, err := cropSelection(q.Get("crop"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	rows, err := a.rowCount(q.Get("rows"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	seed := uint64(a.now().UnixNano())
	if s := q.Get("seed"); s != "" {
		if seed, err = strconv.ParseUint(s, 10, 64); err != nil {
			http.Error(w, "seed must be an unsigned integer", http.StatusBadRequest)
			return
		}
	}
	format := strings.ToLower(q.Get("format"))
	if format == "" {
		format = "csv"
	}
	if format != "csv" && format != "xlsx" {
		http.Error(w, "format must be csv or xlsx", http.StatusBadRequest)
		return
	}

	seqs := make([]iter.Seq2[dataset.Record, error], 0, len(crops))
	for i, c := range crops {
		s, err := dataset.NewSampler(c, a.cfg.Sampling)
		if err != nil {
			a.log.Error("sampler", zap.Error(err))
			http.Error(w, "sampler misconfigured", http.StatusInternalServerError)
			return
		}
		seqs = append(seqs, s.Rows(seed+uint64(i), rows))
	}

	name := fmt.Sprintf("fertiplan_%s_%d.%s", layoutName(crops), seed, format)
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.Header().Set("X-Dataset-Seed", strconv.FormatUint(seed, 10))

	var n int
	switch format {
	case "xlsx":
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		n, err = dataset.WriteXLSX(w, layout, dataset.Concat(seqs...))
	default:
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		n, err = dataset.WriteCSV(w, layout, dataset.Concat(seqs...))
	}
	if err != nil {
		// headers are gone; all we can do is log
		a.log.Error("write dataset", zap.Error(err), zap.Int("rows", n))
		return
	}
	for _, c := range crops {
		a.metrics.observeRows(c, rows)
	}
}

// handlePublishDataset generates rows in parallel and hands them to the trainer.
func (a *App) handlePublishDataset(w http.ResponseWriter, r *http.Request) {
	var req publishReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.Rows <= 0 || req.Rows > a.cfg.MaxSampleRows {
		http.Error(w, fmt.Sprintf("rows must be in 1..%d", a.cfg.MaxSampleRows), http.StatusBadRequest)
		return
	}
	crops := nutrient.Crops
	if len(req.Crops) > 0 {
		crops = nil
		for _, s := range req.Crops {
			c, err := nutrient.ParseCrop(s)
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			crops = append(crops, c)
		}
	}
	seed := uint64(a.now().UnixNano())
	if req.Seed != nil {
		seed = *req.Seed
	}
	workers := min(max(req.Workers, 1), maxPublishWorkers)

	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()

	var records []dataset.Record
	for i, c := range crops {
		s, err := dataset.NewSampler(c, a.cfg.Sampling)
		if err != nil {
			a.log.Error("sampler", zap.Error(err))
			http.Error(w, "sampler misconfigured", http.StatusInternalServerError)
			return
		}
		recs, err := s.GenerateParallel(ctx, seed+uint64(i), req.Rows, workers)
		if err != nil {
			a.log.Error("generate dataset", zap.Error(err))
			http.Error(w, "generation failed", http.StatusInternalServerError)
			return
		}
		records = append(records, recs...)
		a.metrics.observeRows(c, len(recs))
	}

	batch := uuid.NewString()
	ack, err := a.trainer.PostDataset(ctx, trainerDatasetReq{
		BatchID:   batch,
		CreatedAt: a.now().UTC(),
		Columns:   dataset.Columns,
		Targets:   []string{dataset.ColNClass, dataset.ColPClass, dataset.ColKClass},
		Records:   records,
	})
	if err != nil {
		a.log.Warn("trainer publish failed", zap.String("batch", batch), zap.Error(err))
		http.Error(w, "trainer unavailable", http.StatusBadGateway)
		return
	}
	a.log.Info("dataset published",
		zap.String("batch", batch),
		zap.Int("rows", len(records)),
		zap.Uint64("seed", seed),
		zap.String("operation", ack.OperationID),
	)
	writeJSON(w, http.StatusAccepted, publishResp{BatchID: batch, Rows: len(records), Trainer: *ack})
}

// ---- helpers ----

// cropSelection maps the crop query value to the crops to generate and the
// table layout to write them in.
func cropSelection(s string) ([]nutrient.Crop, dataset.Layout, error) {
	if s == "" || strings.EqualFold(s, "all") {
		return nutrient.Crops, dataset.Combined, nil
	}
	c, err := nutrient.ParseCrop(s)
	if err != nil {
		return nil, dataset.Layout{}, err
	}
	return []nutrient.Crop{c}, dataset.CropLayout(c), nil
}

func (a *App) rowCount(s string) (int, error) {
	if s == "" {
		return min(1000, a.cfg.MaxSampleRows), nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 || n > a.cfg.MaxSampleRows {
		return 0, fmt.Errorf("rows must be in 1..%d", a.cfg.MaxSampleRows)
	}
	return n, nil
}

func layoutName(crops []nutrient.Crop) string {
	if len(crops) == 1 {
		return crops[0].String()
	}
	return "combined"
}

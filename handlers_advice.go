package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"fertiplan/models"
	"fertiplan/nutrient"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// handleAdvise evaluates the rules for an ad-hoc field context. Nothing is stored.
func (a *App) handleAdvise(w http.ResponseWriter, r *http.Request) {
	var req adviceReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	in, adv, err := a.advise(req)
	if err != nil {
		a.writeAdviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, adviceDoc(in, adv))
}

// handleCreateRecommendation evaluates and stores advice for the user,
// optionally taking crop, soil, area and elapsed days from one of their fields.
func (a *App) handleCreateRecommendation(w http.ResponseWriter, r *http.Request) {
	uid := mustUserID(r)

	var req adviceReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var fieldID *primitive.ObjectID
	if req.FieldID != "" {
		oid, err := primitive.ObjectIDFromHex(req.FieldID)
		if err != nil {
			http.Error(w, "bad fieldId", http.StatusBadRequest)
			return
		}
		f, err := a.store.GetField(ctx, uid, oid)
		if errors.Is(err, errNotFound) {
			http.Error(w, "field not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
		req = req.withField(f, a.now())
		fieldID = &oid
	}

	in, adv, err := a.advise(req)
	if err != nil {
		a.writeAdviceError(w, err)
		return
	}

	doc := adviceDoc(in, adv)
	rec := models.Recommendation{
		OwnerID:     uid,
		FieldID:     fieldID,
		CreatedAt:   a.now().UTC(),
		Inputs:      doc.Inputs,
		GrowthStage: doc.GrowthStage,
		Nutrients:   doc.Nutrients,
		Trace:       doc.Trace,
	}
	if err := a.store.CreateRecommendation(ctx, &rec); err != nil {
		a.log.Error("store recommendation", zap.Error(err))
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

// handleListRecommendations returns the user's recommendations, newest first.
func (a *App) handleListRecommendations(w http.ResponseWriter, r *http.Request) {
	uid := mustUserID(r)

	var fieldID *primitive.ObjectID
	if s := r.URL.Query().Get("fieldId"); s != "" {
		oid, err := primitive.ObjectIDFromHex(s)
		if err != nil {
			http.Error(w, "bad fieldId", http.StatusBadRequest)
			return
		}
		fieldID = &oid
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()
	out, err := a.store.ListRecommendations(ctx, uid, fieldID)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// handleGetRecommendation returns a single recommendation owned by the user.
func (a *App) handleGetRecommendation(w http.ResponseWriter, r *http.Request) {
	uid := mustUserID(r)
	oid, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "bad id", http.StatusBadRequest)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	rec, err := a.store.GetRecommendation(ctx, uid, oid)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// handleDeleteRecommendation removes a recommendation by id.
func (a *App) handleDeleteRecommendation(w http.ResponseWriter, r *http.Request) {
	uid := mustUserID(r)
	oid, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "bad id", http.StatusBadRequest)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := a.store.DeleteRecommendation(ctx, uid, oid); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// ---- helpers ----

func (a *App) advise(req adviceReq) (nutrient.Inputs, nutrient.Advice, error) {
	in, area, err := req.inputs()
	if err != nil {
		return in, nutrient.Advice{}, err
	}
	adv, err := nutrient.Advise(in, area)
	if err != nil {
		return in, adv, err
	}
	a.metrics.observeAdvice(in.Crop, adv.Levels)
	return in, adv, nil
}

// writeAdviceError answers 400 for caller mistakes and 500 for an
// engine/table mismatch, which is logged as a defect.
func (a *App) writeAdviceError(w http.ResponseWriter, err error) {
	var (
		inv   *nutrient.InvalidInputError
		unsup *nutrient.UnsupportedLevelError
	)
	switch {
	case errors.As(err, &inv):
		a.metrics.observeRejected("invalid_input", inv.Field)
		http.Error(w, inv.Error(), http.StatusBadRequest)
	case errors.As(err, &unsup):
		a.metrics.observeRejected("unsupported_level", unsup.Nutrient.String())
		a.log.Error("rule engine produced a level with no quantity range",
			zap.String("crop", unsup.Crop.String()),
			zap.String("nutrient", unsup.Nutrient.String()),
			zap.String("level", unsup.Level.String()),
		)
		http.Error(w, "internal error", http.StatusInternalServerError)
	default:
		a.log.Error("advice failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, errNotFound) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	http.Error(w, "db error", http.StatusInternalServerError)
}

package main

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strings"
	"time"

	"fertiplan/models"
	"fertiplan/nutrient"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// handleCreateField inserts a new field. Name, crop, soil and area are required.
func (a *App) handleCreateField(w http.ResponseWriter, r *http.Request) {
	uid := mustUserID(r)

	var req fieldReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.Name == nil || strings.TrimSpace(*req.Name) == "" ||
		req.Crop == nil || req.SoilType == nil || req.AreaAcres == nil {
		http.Error(w, "name, crop, soilType and areaAcres are required", http.StatusBadRequest)
		return
	}
	p, err := req.patch()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	f := models.Field{
		OwnerID:   uid,
		Name:      *p.Name,
		Geometry:  p.Geometry,
		CreatedAt: a.now().UTC(),
		Crop:      *p.Crop,
		SoilType:  *p.SoilType,
		AreaAcres: *p.AreaAcres,
		PlantedAt: p.PlantedAt,
	}
	if p.Notes != nil {
		f.Notes = *p.Notes
	}
	if p.Photo != nil {
		f.Photo = *p.Photo
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	if err := a.store.CreateField(ctx, &f); err != nil {
		a.log.Error("create field", zap.Error(err))
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, f)
}

// handleListFields returns the current user's fields.
func (a *App) handleListFields(w http.ResponseWriter, r *http.Request) {
	uid := mustUserID(r)
	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	out, err := a.store.ListFields(ctx, uid)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// handleGetField returns a single field by id (owned by the user).
func (a *App) handleGetField(w http.ResponseWriter, r *http.Request) {
	uid := mustUserID(r)
	oid, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "bad id", http.StatusBadRequest)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	f, err := a.store.GetField(ctx, uid, oid)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

// handleUpdateField applies the provided attributes and returns the updated field.
func (a *App) handleUpdateField(w http.ResponseWriter, r *http.Request) {
	uid := mustUserID(r)
	oid, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "bad id", http.StatusBadRequest)
		return
	}

	var req fieldReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	p, err := req.patch()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if p.empty() {
		http.Error(w, "nothing to update", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	out, err := a.store.UpdateField(ctx, uid, oid, p)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// handleDeleteField removes a field by id.
func (a *App) handleDeleteField(w http.ResponseWriter, r *http.Request) {
	uid := mustUserID(r)
	oid, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "bad id", http.StatusBadRequest)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := a.store.DeleteField(ctx, uid, oid); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// ---- helpers ----

// patch validates the request and normalizes crop and soil to their
// lowercase wire form.
func (q fieldReq) patch() (fieldPatch, error) {
	p := fieldPatch{
		PlantedAt: q.PlantedAt,
		Notes:     q.Notes,
		Photo:     q.Photo,
	}
	if q.Name != nil {
		name := strings.TrimSpace(*q.Name)
		if name == "" {
			return p, errors.New("name must not be empty")
		}
		p.Name = &name
	}
	if q.Crop != nil {
		c, err := nutrient.ParseCrop(*q.Crop)
		if err != nil {
			return p, err
		}
		s := c.String()
		p.Crop = &s
	}
	if q.SoilType != nil {
		soil, err := nutrient.ParseSoil(*q.SoilType)
		if err != nil {
			return p, err
		}
		s := soil.String()
		p.SoilType = &s
	}
	if q.AreaAcres != nil {
		v := *q.AreaAcres
		if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
			return p, errors.New("areaAcres must be a positive number")
		}
		p.AreaAcres = &v
	}
	if len(q.Geometry) > 0 && string(q.Geometry) != "null" {
		geom, err := parseGeometry(q.Geometry)
		if err != nil {
			return p, err
		}
		p.Geometry = geom
	}
	return p, nil
}

// parseGeometry does a minimal GeoJSON check (type only).
func parseGeometry(raw json.RawMessage) (map[string]any, error) {
	var geom map[string]any
	if err := json.Unmarshal(raw, &geom); err != nil {
		return nil, errors.New("invalid geometry json")
	}
	gt, _ := geom["type"].(string)
	if gt != "Polygon" && gt != "MultiPolygon" {
		return nil, errors.New("geometry.type must be Polygon or MultiPolygon")
	}
	if _, ok := geom["coordinates"]; !ok {
		return nil, errors.New("geometry.coordinates is required")
	}
	return geom, nil
}

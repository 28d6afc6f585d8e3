package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"sync"
	"testing"
	"time"

	"fertiplan/dataset"
	"fertiplan/models"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// memStore is an in-memory store for handler tests.
type memStore struct {
	mu     sync.Mutex
	users  []models.User
	fields []models.Field
	recs   []models.Recommendation
}

var _ store = (*memStore)(nil)

func (m *memStore) Close(context.Context) error { return nil }

func (m *memStore) CreateUser(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, x := range m.users {
		if x.Email == u.Email {
			return errDuplicate
		}
	}
	u.ID = primitive.NewObjectID()
	m.users = append(m.users, *u)
	return nil
}

func (m *memStore) UserByEmail(_ context.Context, email string) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return models.User{}, errNotFound
}

func (m *memStore) UserByID(_ context.Context, id primitive.ObjectID) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return models.User{}, errNotFound
}

func (m *memStore) CreateField(_ context.Context, f *models.Field) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	f.ID = primitive.NewObjectID()
	m.fields = append(m.fields, *f)
	return nil
}

func (m *memStore) ListFields(_ context.Context, owner primitive.ObjectID) ([]models.Field, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Field{}
	for i := len(m.fields) - 1; i >= 0; i-- {
		if m.fields[i].OwnerID == owner {
			out = append(out, m.fields[i])
		}
	}
	return out, nil
}

func (m *memStore) GetField(_ context.Context, owner, id primitive.ObjectID) (models.Field, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, f := range m.fields {
		if f.ID == id && f.OwnerID == owner {
			return f, nil
		}
	}
	return models.Field{}, errNotFound
}

func (m *memStore) UpdateField(_ context.Context, owner, id primitive.ObjectID, p fieldPatch) (models.Field, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.fields {
		f := &m.fields[i]
		if f.ID != id || f.OwnerID != owner {
			continue
		}
		if p.Name != nil {
			f.Name = *p.Name
		}
		if p.Geometry != nil {
			f.Geometry = p.Geometry
		}
		if p.Crop != nil {
			f.Crop = *p.Crop
		}
		if p.SoilType != nil {
			f.SoilType = *p.SoilType
		}
		if p.AreaAcres != nil {
			f.AreaAcres = *p.AreaAcres
		}
		if p.PlantedAt != nil {
			f.PlantedAt = p.PlantedAt
		}
		if p.Notes != nil {
			f.Notes = *p.Notes
		}
		if p.Photo != nil {
			f.Photo = *p.Photo
		}
		return *f, nil
	}
	return models.Field{}, errNotFound
}

func (m *memStore) DeleteField(_ context.Context, owner, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := slices.IndexFunc(m.fields, func(f models.Field) bool { return f.ID == id && f.OwnerID == owner })
	if i < 0 {
		return errNotFound
	}
	m.fields = slices.Delete(m.fields, i, i+1)
	return nil
}

func (m *memStore) CreateRecommendation(_ context.Context, r *models.Recommendation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r.ID = primitive.NewObjectID()
	m.recs = append(m.recs, *r)
	return nil
}

func (m *memStore) ListRecommendations(_ context.Context, owner primitive.ObjectID, fieldID *primitive.ObjectID) ([]models.Recommendation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Recommendation{}
	for i := len(m.recs) - 1; i >= 0; i-- {
		r := m.recs[i]
		if r.OwnerID != owner {
			continue
		}
		if fieldID != nil && (r.FieldID == nil || *r.FieldID != *fieldID) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (m *memStore) GetRecommendation(_ context.Context, owner, id primitive.ObjectID) (models.Recommendation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.recs {
		if r.ID == id && r.OwnerID == owner {
			return r, nil
		}
	}
	return models.Recommendation{}, errNotFound
}

func (m *memStore) DeleteRecommendation(_ context.Context, owner, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := slices.IndexFunc(m.recs, func(r models.Recommendation) bool { return r.ID == id && r.OwnerID == owner })
	if i < 0 {
		return errNotFound
	}
	m.recs = slices.Delete(m.recs, i, i+1)
	return nil
}

// ---- harness ----

const testSecret = "test-secret"

type testEnv struct {
	app   *App
	store *memStore
	srv   *httptest.Server
}

func newTestEnv(t *testing.T, trainerURL string) *testEnv {
	t.Helper()
	cfg := defaultConfig()
	cfg.JWTSecret = testSecret
	cfg.TrainerURI = trainerURL
	cfg.MaxSampleRows = 500
	cfg.Sampling = dataset.DefaultBounds

	st := &memStore{}
	app := newAppWithStore(cfg, zap.NewNop(), st)
	srv := httptest.NewServer(app.routes())
	t.Cleanup(srv.Close)
	return &testEnv{app: app, store: st, srv: srv}
}

// login registers a user directly in the store and returns a bearer token.
func (e *testEnv) login(t *testing.T, email string) (primitive.ObjectID, string) {
	t.Helper()
	u := models.User{Username: email, Email: email, CreatedAt: time.Now()}
	require.NoError(t, e.store.CreateUser(context.Background(), &u))
	tok, err := signJWT(testSecret, u.ID, time.Now())
	require.NoError(t, err)
	return u.ID, tok
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, e.srv.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

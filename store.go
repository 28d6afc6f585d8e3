package main

import (
	"context"
	"errors"
	"time"

	"fertiplan/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	errNotFound  = errors.New("not found")
	errDuplicate = errors.New("duplicate key")
)

type userStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	UserByEmail(ctx context.Context, email string) (models.User, error)
	UserByID(ctx context.Context, id primitive.ObjectID) (models.User, error)
}

// fieldPatch carries the optional updates of a field; nil means unchanged.
type fieldPatch struct {
	Name      *string
	Geometry  map[string]any
	Crop      *string
	SoilType  *string
	AreaAcres *float64
	PlantedAt *time.Time
	Notes     *string
	Photo     *string
}

func (p fieldPatch) empty() bool {
	return p.Name == nil && p.Geometry == nil && p.Crop == nil && p.SoilType == nil &&
		p.AreaAcres == nil && p.PlantedAt == nil && p.Notes == nil && p.Photo == nil
}

type fieldStore interface {
	CreateField(ctx context.Context, f *models.Field) error
	ListFields(ctx context.Context, owner primitive.ObjectID) ([]models.Field, error)
	GetField(ctx context.Context, owner, id primitive.ObjectID) (models.Field, error)
	UpdateField(ctx context.Context, owner, id primitive.ObjectID, p fieldPatch) (models.Field, error)
	DeleteField(ctx context.Context, owner, id primitive.ObjectID) error
}

type recommendationStore interface {
	CreateRecommendation(ctx context.Context, r *models.Recommendation) error
	// ListRecommendations returns newest first; a nil fieldID lists all.
	ListRecommendations(ctx context.Context, owner primitive.ObjectID, fieldID *primitive.ObjectID) ([]models.Recommendation, error)
	GetRecommendation(ctx context.Context, owner, id primitive.ObjectID) (models.Recommendation, error)
	DeleteRecommendation(ctx context.Context, owner, id primitive.ObjectID) error
}

type store interface {
	userStore
	fieldStore
	recommendationStore
	Close(ctx context.Context) error
}

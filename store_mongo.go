package main

import (
	"context"
	"errors"

	"fertiplan/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoStore struct {
	client          *mongo.Client
	users           *mongo.Collection
	fields          *mongo.Collection
	recommendations *mongo.Collection
}

// newMongoStore connects and makes sure the indexes exist.
func newMongoStore(ctx context.Context, uri, dbName string) (*mongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	db := client.Database(dbName)
	s := &mongoStore{
		client:          client,
		users:           db.Collection("users"),
		fields:          db.Collection("fields"),
		recommendations: db.Collection("recommendations"),
	}

	indexes := []struct {
		coll  *mongo.Collection
		model mongo.IndexModel
	}{
		{s.users, mongo.IndexModel{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
		{s.fields, mongo.IndexModel{
			Keys: bson.D{{Key: "ownerId", Value: 1}, {Key: "createdAt", Value: -1}},
		}},
		{s.recommendations, mongo.IndexModel{
			Keys: bson.D{{Key: "ownerId", Value: 1}, {Key: "fieldId", Value: 1}, {Key: "createdAt", Value: -1}},
		}},
	}
	for _, ix := range indexes {
		if _, err := ix.coll.Indexes().CreateOne(ctx, ix.model); err != nil {
			_ = client.Disconnect(ctx)
			return nil, err
		}
	}
	return s, nil
}

func (s *mongoStore) Close(ctx context.Context) error { return s.client.Disconnect(ctx) }

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return errNotFound
	}
	return err
}

// ---- users ----

func (s *mongoStore) CreateUser(ctx context.Context, u *models.User) error {
	res, err := s.users.InsertOne(ctx, u)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return errDuplicate
		}
		return err
	}
	u.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (s *mongoStore) UserByEmail(ctx context.Context, email string) (models.User, error) {
	var u models.User
	err := s.users.FindOne(ctx, bson.M{"email": email}).Decode(&u)
	return u, notFound(err)
}

func (s *mongoStore) UserByID(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	var u models.User
	err := s.users.FindOne(ctx, bson.M{"_id": id}).Decode(&u)
	return u, notFound(err)
}

// ---- fields ----

func (s *mongoStore) CreateField(ctx context.Context, f *models.Field) error {
	res, err := s.fields.InsertOne(ctx, f)
	if err != nil {
		return err
	}
	f.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (s *mongoStore) ListFields(ctx context.Context, owner primitive.ObjectID) ([]models.Field, error) {
	cur, err := s.fields.Find(ctx, bson.M{"ownerId": owner}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Field{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *mongoStore) GetField(ctx context.Context, owner, id primitive.ObjectID) (models.Field, error) {
	var f models.Field
	err := s.fields.FindOne(ctx, bson.M{"_id": id, "ownerId": owner}).Decode(&f)
	return f, notFound(err)
}

func (s *mongoStore) UpdateField(ctx context.Context, owner, id primitive.ObjectID, p fieldPatch) (models.Field, error) {
	set := bson.M{}
	if p.Name != nil {
		set["name"] = *p.Name
	}
	if p.Geometry != nil {
		set["geometry"] = p.Geometry
	}
	if p.Crop != nil {
		set["crop"] = *p.Crop
	}
	if p.SoilType != nil {
		set["soilType"] = *p.SoilType
	}
	if p.AreaAcres != nil {
		set["areaAcres"] = *p.AreaAcres
	}
	if p.PlantedAt != nil {
		set["plantedAt"] = *p.PlantedAt
	}
	if p.Notes != nil {
		set["notes"] = *p.Notes
	}
	if p.Photo != nil {
		set["photo"] = *p.Photo
	}

	res := s.fields.FindOneAndUpdate(
		ctx,
		bson.M{"_id": id, "ownerId": owner},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	var out models.Field
	err := res.Decode(&out)
	return out, notFound(err)
}

func (s *mongoStore) DeleteField(ctx context.Context, owner, id primitive.ObjectID) error {
	res, err := s.fields.DeleteOne(ctx, bson.M{"_id": id, "ownerId": owner})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return errNotFound
	}
	return nil
}

// ---- recommendations ----

func (s *mongoStore) CreateRecommendation(ctx context.Context, r *models.Recommendation) error {
	res, err := s.recommendations.InsertOne(ctx, r)
	if err != nil {
		return err
	}
	r.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (s *mongoStore) ListRecommendations(ctx context.Context, owner primitive.ObjectID, fieldID *primitive.ObjectID) ([]models.Recommendation, error) {
	filter := bson.M{"ownerId": owner}
	if fieldID != nil {
		filter["fieldId"] = *fieldID
	}
	cur, err := s.recommendations.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Recommendation{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *mongoStore) GetRecommendation(ctx context.Context, owner, id primitive.ObjectID) (models.Recommendation, error) {
	var r models.Recommendation
	err := s.recommendations.FindOne(ctx, bson.M{"_id": id, "ownerId": owner}).Decode(&r)
	return r, notFound(err)
}

func (s *mongoStore) DeleteRecommendation(ctx context.Context, owner, id primitive.ObjectID) error {
	res, err := s.recommendations.DeleteOne(ctx, bson.M{"_id": id, "ownerId": owner})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return errNotFound
	}
	return nil
}

package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Field is a farmer's plot with the agronomic facts the advisor needs.
// Crop and soil are stored in their lowercase wire form ("wheat", "clay").
type Field struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OwnerID   primitive.ObjectID `bson:"ownerId"      json:"ownerId"`
	Name      string             `bson:"name"         json:"name"`
	Geometry  map[string]any     `bson:"geometry,omitempty" json:"geometry,omitempty"` // GeoJSON Polygon/MultiPolygon
	CreatedAt time.Time          `bson:"createdAt"    json:"createdAt"`

	Crop      string  `bson:"crop"      json:"crop"`
	SoilType  string  `bson:"soilType"  json:"soilType"`
	AreaAcres float64 `bson:"areaAcres" json:"areaAcres"`

	// Sowing date for wheat, transplanting date for rice.
	PlantedAt *time.Time `bson:"plantedAt,omitempty" json:"plantedAt,omitempty"`

	Photo string `bson:"photo,omitempty" json:"photo,omitempty"`
	Notes string `bson:"notes,omitempty" json:"notes,omitempty"`
}

// DaysSincePlanting returns whole days elapsed at now, or false when the
// planting date is unknown. A planting date in the future yields a negative count.
func (f Field) DaysSincePlanting(now time.Time) (int, bool) {
	if f.PlantedAt == nil {
		return 0, false
	}
	return int(now.Sub(*f.PlantedAt).Hours() / 24), true
}

package validators

import "go.mongodb.org/mongo-driver/bson"

var HotelValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType":             "object",
		"required":             []string{"name", "address", "city", "country", "price_per_night", "available_rooms", "created_at"},
		"additionalProperties": true,
		"properties": bson.M{
			"_id":             bson.M{"bsonType": "string"},
			"name":            bson.M{"bsonType": "string", "minLength": 2, "maxLength": 100},
			"city":            bson.M{"bsonType": "string"},
			"country":         bson.M{"bsonType": "string"},
			"rating":          bson.M{"bsonType": "double", "minimum": 0, "maximum": 5},
			"price_per_night": bson.M{"bsonType": "decimal"},
			"total_rooms":     bson.M{"bsonType": []string{"int", "long"}, "minimum": 0},
			"available_rooms": bson.M{"bsonType": []string{"int", "long"}, "minimum": 0},
			"amenities": bson.M{
				"bsonType": "array",
				"maxItems": 50,
				"items":    bson.M{"bsonType": "string"},
			},
			"images": bson.M{
				"bsonType": "array",
				"maxItems": 50,
				"items":    bson.M{"bsonType": "string"},
			},
			"created_at": bson.M{"bsonType": "date"},
		},
	},
}

var HotelLockValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{"hotel_id", "owner", "expires_at"},
		"properties": bson.M{
			"hotel_id":   bson.M{"bsonType": "string"},
			"owner":      bson.M{"bsonType": "string"},
			"expires_at": bson.M{"bsonType": "date"},
		},
	},
}

var HotelWriteMarkerValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{"version"},
		"properties": bson.M{
			"version":    bson.M{"bsonType": []string{"int", "long"}},
			"updated_at": bson.M{"bsonType": "date"},
		},
	},
}

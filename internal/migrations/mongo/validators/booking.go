package validators

import "go.mongodb.org/mongo-driver/bson"

var BookingValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"hotel_id",
			"user_id",
			"check_in_date",
			"check_out_date",
			"num_guests",
			"room_type",
			"total_price",
			"status",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType":  "string",
				"minLength": 36,
				"maxLength": 36,
			},

			"hotel_id": bson.M{
				"bsonType":  "string",
				"minLength": 36,
				"maxLength": 36,
			},

			"user_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},

			"check_in_date": bson.M{
				"bsonType": "date",
			},

			"check_out_date": bson.M{
				"bsonType": "date",
			},

			"num_guests": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  1,
				"maximum":  20,
			},

			"room_type": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 50,
			},

			"total_price": bson.M{
				"bsonType": "decimal",
			},

			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"confirmed",
					"cancelled",
					"completed",
				},
			},

			"special_requests": bson.M{
				"bsonType":  "string",
				"maxLength": 1000,
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}

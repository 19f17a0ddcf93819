package validators

import "go.mongodb.org/mongo-driver/bson"

var ServiceValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{"_id", "name", "active", "variants"},
		"properties": bson.M{
			"_id":    bson.M{"bsonType": integer},
			"name":   bson.M{"bsonType": "string", "minLength": 1},
			"active": bson.M{"bsonType": "bool"},
			"default_duration_min": bson.M{
				"bsonType": integer,
				"minimum":  1,
			},
			"variants": bson.M{
				"bsonType": "array",
				"items": bson.M{
					"bsonType": "object",
					"required": []string{"id", "name", "price_cents"},
					"properties": bson.M{
						"id":          bson.M{"bsonType": integer},
						"name":        bson.M{"bsonType": "string"},
						"price_cents": bson.M{"bsonType": integer, "minimum": 0},
						"duration_min": bson.M{
							"bsonType": integer,
							"minimum":  1,
						},
					},
				},
			},
		},
	},
}

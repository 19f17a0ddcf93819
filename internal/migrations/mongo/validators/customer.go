package validators

import "go.mongodb.org/mongo-driver/bson"

var CustomerValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{"email", "phone", "first_name", "last_name", "created_at"},
		"properties": bson.M{
			"email": bson.M{
				"bsonType":  "string",
				"maxLength": 254,
			},
			"phone": bson.M{
				"bsonType":  "string",
				"minLength": 7,
				"maxLength": 32,
			},
			"first_name": bson.M{"bsonType": "string", "minLength": 1, "maxLength": 100},
			"last_name":  bson.M{"bsonType": "string", "minLength": 1, "maxLength": 100},
			"created_at": bson.M{"bsonType": "date"},
		},
	},
}

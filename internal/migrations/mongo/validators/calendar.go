package validators

import "go.mongodb.org/mongo-driver/bson"

// Closed weekdays carry empty open and close times.
const clockOrEmpty = `^(([01]\d|2[0-3]):[0-5]\d)?$`

var BusinessHoursValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{"_id", "is_closed"},
		"properties": bson.M{
			"_id": bson.M{
				"bsonType": integer,
				"minimum":  0,
				"maximum":  6,
			},
			"open_time":  bson.M{"bsonType": "string", "pattern": clockOrEmpty},
			"close_time": bson.M{"bsonType": "string", "pattern": clockOrEmpty},
			"is_closed":  bson.M{"bsonType": "bool"},
		},
	},
}

var BlockedDateValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{"_id"},
		"properties": bson.M{
			"_id":    bson.M{"bsonType": "string", "pattern": `^\d{4}-\d{2}-\d{2}$`},
			"reason": bson.M{"bsonType": "string"},
		},
	},
}

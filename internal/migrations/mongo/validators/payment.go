package validators

import "go.mongodb.org/mongo-driver/bson"

var PaymentValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"booking_id",
			"intent_id",
			"amount_cents",
			"currency",
			"status",
			"payment_type",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"booking_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"intent_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},

			"amount_cents": bson.M{
				"bsonType": integer,
				"minimum":  1,
			},

			"currency": bson.M{
				"bsonType": "string",
				"pattern":  `^[a-z]{3}$`,
			},

			"status": bson.M{
				"bsonType": "string",
				"enum":     []string{"pending", "succeeded", "failed"},
			},

			"payment_type": bson.M{
				"bsonType": "string",
				"enum":     []string{"deposit", "full_payment"},
			},

			"created_at": bson.M{"bsonType": "date"},
		},
	},
}

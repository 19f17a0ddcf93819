package validators

import "go.mongodb.org/mongo-driver/bson"

var integer = []string{"int", "long"}

var BookingValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"customer_id",
			"variant_id",
			"appointment_date",
			"appointment_time",
			"start_minute",
			"end_minute",
			"status",
			"deposit_cents",
			"total_cents",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"customer_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"variant_id": bson.M{"bsonType": integer},

			"appointment_date": bson.M{
				"bsonType": "string",
				"pattern":  `^\d{4}-\d{2}-\d{2}$`,
			},

			"appointment_time": bson.M{
				"bsonType": "string",
				"pattern":  `^([01]\d|2[0-3]):[0-5]\d$`,
			},

			"ledger_version": bson.M{
				"bsonType": integer,
				"minimum":  0,
			},

			"start_minute": bson.M{
				"bsonType": integer,
				"minimum":  0,
				"maximum":  1439,
			},

			"end_minute": bson.M{
				"bsonType": integer,
				"minimum":  1,
				"maximum":  1440,
			},

			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"pending_deposit",
					"confirmed",
					"paid",
					"checked_in",
					"in_progress",
					"completed",
					"cancelled",
					"no_show",
				},
			},

			"deposit_cents": bson.M{
				"bsonType": integer,
				"minimum":  0,
			},

			"total_cents": bson.M{
				"bsonType": integer,
				"minimum":  0,
			},

			"notes": bson.M{
				"bsonType":  "string",
				"maxLength": 1000,
			},

			"created_at": bson.M{"bsonType": "date"},
		},
	},
}

var BookingLockValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{"_id", "owner", "expires_at"},
		"properties": bson.M{
			"_id":        bson.M{"bsonType": "string"},
			"owner":      bson.M{"bsonType": "string"},
			"expires_at": bson.M{"bsonType": "date"},
		},
	},
}

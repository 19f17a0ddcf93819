package model

import "time"

// BookingLock serializes reservations for one appointment date. Owner lets a
// holder release only its own lock after a stale one was reclaimed.
type BookingLock struct {
	ID        string    `bson:"_id" json:"id"`
	Owner     string    `bson:"owner" json:"owner"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

func DateLockID(date string) string {
	return "booking_lock_" + date
}

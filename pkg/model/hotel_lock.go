package model

import "time"

// HotelLock is the per-hotel serialization point stored as a document.
// Owner is a random token so only the holder can release it.
type HotelLock struct {
	ID        string    `bson:"_id" json:"id"`
	HotelID   string    `bson:"hotel_id" json:"hotel_id"`
	Owner     string    `bson:"owner" json:"owner"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

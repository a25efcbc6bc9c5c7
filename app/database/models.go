package database

import "time"

// MaxShareIDLength is the widest identifier the shared_links table stores.
const MaxShareIDLength = 16

// SharedLink is one stored offer list, immutable after creation.
type SharedLink struct {
	ID         string
	OffersJSON string
	CreatedAt  time.Time
}

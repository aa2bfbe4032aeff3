package model

import "time"

// User is an opaque ownership token. Links reference it one-way through
// Link.OwnerID; the user row itself carries no back-collection.
type User struct {
	ID        string    `db:"id" gorm:"primaryKey;size:36" json:"id"`
	CreatedAt time.Time `db:"created_at" gorm:"autoCreateTime" json:"createdAt"`
}

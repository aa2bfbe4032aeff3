package model

import "time"

// Link describes the core short-link entity stored in Postgres.
type Link struct {
	Code       string     `db:"code" gorm:"primaryKey;size:32" json:"shortCode"`
	TargetURL  string     `db:"target_url" gorm:"type:text;not null" json:"targetUrl"`
	OwnerID    string     `db:"owner_id" gorm:"size:36;not null;index" json:"ownerId"`
	ClickLimit *int       `db:"click_limit" gorm:"default:null" json:"clickLimit"`
	ClickCount int        `db:"click_count" gorm:"not null;default:0" json:"clickCount"`
	ExpiresAt  *time.Time `db:"expires_at" gorm:"index" json:"expiresAt"`
	CreatedAt  time.Time  `db:"created_at" gorm:"autoCreateTime" json:"createdAt"`
}

// IsExpired reports whether the link's TTL has elapsed at the given instant.
func (l *Link) IsExpired(now time.Time) bool {
	return l.ExpiresAt != nil && now.After(*l.ExpiresAt)
}

// CanBeAccessed is the accessibility predicate: the link is followable iff it
// has not expired and the click quota (when set) is not exhausted. It is
// derived on every call; nothing caches the result.
func (l *Link) CanBeAccessed(now time.Time) bool {
	if l.IsExpired(now) {
		return false
	}
	return l.ClickLimit == nil || l.ClickCount < *l.ClickLimit
}

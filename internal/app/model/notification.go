package model

import "time"

// Notification records that a link became unreachable (expired or quota
// exhausted) and the owner was told about it.
type Notification struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	LinkCode  string    `json:"link_code" gorm:"size:32;index"`
	OwnerID   string    `json:"owner_id" gorm:"size:36;index"`
	Reason    string    `json:"reason" gorm:"type:text"`
	Timestamp time.Time `json:"timestamp"`
}

const (
	NoticeStreamName     = "LINK_NOTICES"
	NoticeStreamSubject  = "links.unavailable"
	NoticeConsumerName   = "notice-writer"
	NoticeStreamMaxBytes = 1024 * 1024 * 50 // 50MB
)

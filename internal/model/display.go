package model

import "time"

// DisplayEntry is one field of a user's display profile, scoped by namespace
// so several clients can share a table.
type DisplayEntry struct {
	Namespace string    `json:"namespace" gorm:"primaryKey;size:64"`
	Key       string    `json:"key" gorm:"primaryKey;size:32"`
	Value     string    `json:"value" gorm:"type:text"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (DisplayEntry) TableName() string {
	return "display_profiles"
}

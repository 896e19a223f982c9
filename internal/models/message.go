package models

import "time"

// MaxMessageLength is the longest message text accepted.
const MaxMessageLength = 140

// Message is a short post ("warble") owned by exactly one user.
type Message struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Text      string    `gorm:"size:140;not null" json:"text"`
	Timestamp time.Time `gorm:"not null;index:idx_messages_user_timestamp,priority:2" json:"timestamp"`
	UserID    uint      `gorm:"not null;index:idx_messages_user_timestamp,priority:1" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID" json:"user"`
	// LikesCount is not persisted; computed at query time
	LikesCount int `gorm:"->;-:migration" json:"likes_count"`
}

// TableName specifies the table name for GORM
func (Message) TableName() string {
	return "messages"
}

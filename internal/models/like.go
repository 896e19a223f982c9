package models

// Like records that a user liked a message. At most one per (user, message).
type Like struct {
	UserID    uint `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	MessageID uint `gorm:"primaryKey;autoIncrement:false;index" json:"message_id"`

	User    User    `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Message Message `gorm:"foreignKey:MessageID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for GORM
func (Like) TableName() string {
	return "likes"
}

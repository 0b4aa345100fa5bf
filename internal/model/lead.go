package model

import "time"

// Lead is a visitor email captured from the landing page.
type Lead struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Email     string    `gorm:"type:varchar(120);not null;uniqueIndex" json:"email"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (Lead) TableName() string {
	return "lead_emails"
}

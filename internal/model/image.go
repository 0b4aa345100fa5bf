package model

import "time"

type Image struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	URL       string    `gorm:"type:varchar(500);not null" json:"url"`
	Caption   string    `gorm:"type:varchar(200)" json:"caption"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (Image) TableName() string {
	return "property_images"
}

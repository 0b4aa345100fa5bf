package model

import "time"

const (
	FlashSuccess = "success"
	FlashInfo    = "info"
	FlashError   = "error"
)

// Flash is a one-shot notice shown on the next rendered page.
type Flash struct {
	Category string
	Message  string
}

// FlashSession is the server-side half of the flash cookie: the encoded
// notices for one token.
type FlashSession struct {
	Token  string    `gorm:"primaryKey;size:64"`
	Data   []byte    `gorm:"not null"`
	Expiry time.Time `gorm:"index;not null"`
}

func (FlashSession) TableName() string {
	return "flash_sessions"
}

package model

// Admin is an administrator account. PasswordHash holds a bcrypt digest,
// never the plaintext.
type Admin struct {
	ID           int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string `gorm:"type:varchar(64);not null;uniqueIndex" json:"username"`
	PasswordHash string `gorm:"type:varchar(256);not null" json:"-"`
}

func (Admin) TableName() string {
	return "admins"
}

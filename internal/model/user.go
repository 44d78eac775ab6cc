package model

// User 身份档案，对应 users
// ID 即身份提供方签发的用户标识，EmailVerified 为验证标志
type User struct {
	ID            string `gorm:"type:varchar(36);primaryKey"        json:"id"`
	Email         string `gorm:"type:varchar(255);not null;unique"  json:"email"`
	PasswordHash  string `gorm:"type:varchar(255);not null"         json:"-"`
	EmailVerified bool   `gorm:"not null;default:false"             json:"emailVerified"`
	Timestamps
}

// TableName 指定表名
func (User) TableName() string { return "users" }

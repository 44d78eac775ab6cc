package model

import "time"

// Message 课程群聊消息，对应 messages；只追加，不修改
type Message struct {
	ID        string    `gorm:"type:varchar(32);primaryKey"      json:"id"`
	Text      string    `gorm:"type:text;not null"               json:"text"`
	Sender    string    `gorm:"type:varchar(255);not null"       json:"sender"`
	Timestamp time.Time `gorm:"not null"                         json:"timestamp"`
	CourseID  string    `gorm:"type:varchar(32);not null;index"  json:"courseId"`
}

// TableName 指定表名
func (Message) TableName() string { return "messages" }

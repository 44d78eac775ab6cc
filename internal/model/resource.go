package model

import "time"

// Resource 课程共享链接，对应 resources
// Description 为可选字段：nil 表示缺省，序列化时省略而不是输出空串
type Resource struct {
	ID          string    `gorm:"type:varchar(32);primaryKey"     json:"id"`
	Title       string    `gorm:"type:varchar(255);not null"      json:"title"`
	URL         string    `gorm:"type:varchar(2048);not null"     json:"url"`
	Description *string   `gorm:"type:text"                       json:"description,omitempty"`
	AddedBy     string    `gorm:"type:varchar(255);not null"      json:"addedBy"`
	Timestamp   time.Time `gorm:"not null"                        json:"timestamp"`
	CourseID    string    `gorm:"type:varchar(32);not null;index" json:"courseId"`
}

// TableName 指定表名
func (Resource) TableName() string { return "resources" }

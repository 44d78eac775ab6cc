package model

import "time"

// Membership 用户-课程成员关系，对应 user_courses
// 同一 (UserEmail, CourseID) 至多一条
type Membership struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"                              json:"-"`
	UserEmail string    `gorm:"type:varchar(255);not null;uniqueIndex:uq_user_course" json:"userEmail"`
	CourseID  string    `gorm:"type:varchar(32);not null;uniqueIndex:uq_user_course"  json:"courseId"`
	JoinedAt  time.Time `gorm:"not null"                                              json:"joinedAt"`
}

// TableName 指定表名
func (Membership) TableName() string { return "user_courses" }

package model

import "time"

// MinPollOptions 创建投票时至少需要的选项数
const MinPollOptions = 2

// Poll 课程投票，对应 polls
type Poll struct {
	ID        string       `gorm:"type:varchar(32);primaryKey"             json:"id"`
	Question  string       `gorm:"type:text;not null"                      json:"question"`
	Options   []PollOption `gorm:"foreignKey:PollID;references:ID"         json:"options"`
	CreatedBy string       `gorm:"type:varchar(255);not null"              json:"createdBy"`
	Timestamp time.Time    `gorm:"not null"                                json:"timestamp"`
	CourseID  string       `gorm:"type:varchar(32);not null;index"         json:"courseId"`
}

// TableName 指定表名
func (Poll) TableName() string { return "polls" }

// TotalVotes 所有选项票数之和
func (p *Poll) TotalVotes() int {
	total := 0
	for _, o := range p.Options {
		total += len(o.Voters)
	}
	return total
}

// Option 按 ID 查找选项
func (p *Poll) Option(optionID string) *PollOption {
	for i := range p.Options {
		if p.Options[i].ID == optionID {
			return &p.Options[i]
		}
	}
	return nil
}

// PollOption 投票选项，对应 poll_options
// Voters 为该选项的投票人邮箱集合：本地存储中直接持久化，远程存储中由 poll_votes 还原
type PollOption struct {
	ID       string   `gorm:"type:varchar(32);primaryKey"     json:"id"`
	PollID   string   `gorm:"type:varchar(32);not null;index" json:"-"`
	Text     string   `gorm:"type:text;not null"              json:"text"`
	Position int      `gorm:"not null;default:0"              json:"-"`
	Voters   []string `gorm:"-"                               json:"votes"`
}

// TableName 指定表名
func (PollOption) TableName() string { return "poll_options" }

// PollVote 单张选票，对应 poll_votes；同一 (PollID, VoterEmail) 至多一条
type PollVote struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement"                              json:"-"`
	PollID     string    `gorm:"type:varchar(32);not null;uniqueIndex:uq_poll_voter"   json:"pollId"`
	OptionID   string    `gorm:"type:varchar(32);not null;index"                       json:"optionId"`
	VoterEmail string    `gorm:"type:varchar(255);not null;uniqueIndex:uq_poll_voter"  json:"voterEmail"`
	Timestamp  time.Time `gorm:"not null"                                              json:"timestamp"`
}

// TableName 指定表名
func (PollVote) TableName() string { return "poll_votes" }

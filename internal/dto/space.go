package dto

import "time"

// ── 课程空间 DTO ──

// SendMessageRequest 发送消息请求
type SendMessageRequest struct {
	Text string `json:"text" binding:"required"`
}

// MessageResponse 消息（附带相对时间标签）
type MessageResponse struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Sender    string    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`
	CourseID  string    `json:"courseId"`
	TimeLabel string    `json:"timeLabel"`
}

// AddResourceRequest 添加资源请求
type AddResourceRequest struct {
	Title       string `json:"title"       binding:"required,max=255"`
	URL         string `json:"url"         binding:"required,max=2048"`
	Description string `json:"description" binding:"omitempty,max=2000"`
}

// CreatePollRequest 创建投票请求
type CreatePollRequest struct {
	Question string   `json:"question" binding:"required"`
	Options  []string `json:"options"  binding:"required,min=2"`
}

// VoteRequest 投票请求
type VoteRequest struct {
	OptionID string `json:"optionId" binding:"required"`
}

// PollOptionResponse 投票选项
type PollOptionResponse struct {
	ID    string   `json:"id"`
	Text  string   `json:"text"`
	Votes []string `json:"votes"`
	Count int      `json:"count"`
}

// PollResponse 投票（附带总票数）
type PollResponse struct {
	ID         string               `json:"id"`
	Question   string               `json:"question"`
	Options    []PollOptionResponse `json:"options"`
	CreatedBy  string               `json:"createdBy"`
	Timestamp  time.Time            `json:"timestamp"`
	CourseID   string               `json:"courseId"`
	TotalVotes int                  `json:"totalVotes"`
}

// MembershipResponse 加入/退出课程结果
type MembershipResponse struct {
	CourseID string `json:"courseId"`
	Joined   bool   `json:"joined"`
}

// ── 旧版接口 ──

// LegacyMessageRequest 旧版发送消息请求体
type LegacyMessageRequest struct {
	Text   string `json:"text"`
	Sender string `json:"sender"`
}

// LegacyCourseRequest 旧版加入/退出课程请求体
type LegacyCourseRequest struct {
	CourseID string `json:"courseId"`
}

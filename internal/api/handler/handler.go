package handler

import "github.com/jafrulamin/Class-Connect/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth       *AuthHandler
	Course     *CourseHandler
	Membership *MembershipHandler
	Chat       *ChatHandler
	Resource   *ResourceHandler
	Poll       *PollHandler
	Legacy     *LegacyHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Auth:       NewAuthHandler(svc.Auth),
		Course:     NewCourseHandler(svc.Course),
		Membership: NewMembershipHandler(svc.Membership),
		Chat:       NewChatHandler(svc.Chat),
		Resource:   NewResourceHandler(svc.Resource),
		Poll:       NewPollHandler(svc.Poll),
		Legacy:     NewLegacyHandler(svc.Legacy),
	}
}

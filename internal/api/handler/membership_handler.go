package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jafrulamin/Class-Connect/internal/dto"
	"github.com/jafrulamin/Class-Connect/internal/service"
	pkgerrors "github.com/jafrulamin/Class-Connect/pkg/errors"
	"github.com/jafrulamin/Class-Connect/pkg/response"
)

// MembershipHandler 加入/退出课程 HTTP 处理器
type MembershipHandler struct {
	membershipSvc service.MembershipService
}

// NewMembershipHandler 创建 MembershipHandler
func NewMembershipHandler(membershipSvc service.MembershipService) *MembershipHandler {
	return &MembershipHandler{membershipSvc: membershipSvc}
}

// ListMyCourses 我加入的课程
// GET /api/v1/me/courses
func (h *MembershipHandler) ListMyCourses(c *gin.Context) {
	email, ok := MustGetEmail(c)
	if !ok {
		return
	}

	list, err := h.membershipSvc.ListMyCourses(c.Request.Context(), email)
	if err != nil {
		handleSpaceError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// Join 加入课程
// POST /api/v1/courses/:id/join
func (h *MembershipHandler) Join(c *gin.Context) {
	email, ok := MustGetEmail(c)
	if !ok {
		return
	}
	courseID := c.Param("id")

	if err := h.membershipSvc.Join(c.Request.Context(), email, courseID); err != nil {
		handleSpaceError(c, err)
		return
	}

	response.OK(c, dto.MembershipResponse{CourseID: courseID, Joined: true})
}

// Leave 退出课程，同时清空本地缓存的课程内容
// DELETE /api/v1/courses/:id/membership
func (h *MembershipHandler) Leave(c *gin.Context) {
	email, ok := MustGetEmail(c)
	if !ok {
		return
	}
	courseID := c.Param("id")

	if err := h.membershipSvc.Leave(c.Request.Context(), email, courseID); err != nil {
		handleSpaceError(c, err)
		return
	}

	response.OK(c, dto.MembershipResponse{CourseID: courseID, Joined: false})
}

// handleSpaceError 课程空间各模块共用的错误映射
func handleSpaceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrCourseNotFound):
		response.NotFound(c, 12001, "course not found")
	case errors.Is(err, service.ErrNotMember):
		response.Forbidden(c, 13001, "join the course first")
	case errors.Is(err, service.ErrNotOwner):
		response.Forbidden(c, 10003, "only the creator can delete this")

	case errors.Is(err, service.ErrEmptyMessage):
		response.BadRequest(c, 14001, "message text is required")
	case errors.Is(err, service.ErrMessageTooLong):
		response.BadRequest(c, 14002, "message is too long")

	case errors.Is(err, service.ErrResourceInvalid):
		response.BadRequest(c, 15001, "title and url are required")
	case errors.Is(err, service.ErrResourceBadURL):
		response.BadRequest(c, 15002, "url must be an http(s) link")
	case errors.Is(err, service.ErrResourceNotFound):
		response.NotFound(c, 15003, "resource not found")

	case errors.Is(err, service.ErrPollQuestionRequired):
		response.BadRequest(c, 16001, "question is required")
	case errors.Is(err, service.ErrPollTooFewOptions):
		response.BadRequest(c, 16002, "a poll needs at least two options")
	case errors.Is(err, service.ErrPollNotFound):
		response.NotFound(c, 16003, "poll not found")
	case errors.Is(err, service.ErrPollOptionNotFound):
		response.NotFound(c, 16004, "poll option not found")

	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 10006, "content changed concurrently, please retry")
	case errors.Is(err, pkgerrors.ErrBackendUnavailable):
		response.Error(c, http.StatusServiceUnavailable, 50003, "storage backend unavailable")
	default:
		response.InternalError(c)
	}
}

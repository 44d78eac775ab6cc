package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jafrulamin/Class-Connect/internal/dto"
	"github.com/jafrulamin/Class-Connect/internal/service"
	"github.com/jafrulamin/Class-Connect/pkg/response"
)

// LegacyHandler 旧版 /api/* 接口：无认证，响应体为裸 JSON
type LegacyHandler struct {
	legacySvc service.LegacyService
}

// NewLegacyHandler 创建 LegacyHandler
func NewLegacyHandler(legacySvc service.LegacyService) *LegacyHandler {
	return &LegacyHandler{legacySvc: legacySvc}
}

// ListCourses GET /api/courses
func (h *LegacyHandler) ListCourses(c *gin.Context) {
	c.JSON(http.StatusOK, h.legacySvc.ListCourses(c.Request.Context()))
}

// ListMessages GET /api/messages?courseId=X
func (h *LegacyHandler) ListMessages(c *gin.Context) {
	courseID := c.Query("courseId")
	if courseID == "" {
		response.Legacy(c, http.StatusBadRequest, "courseId is required", nil)
		return
	}

	msgs, err := h.legacySvc.ListMessages(c.Request.Context(), courseID)
	if err != nil {
		response.Legacy(c, http.StatusInternalServerError, "failed to fetch messages", err.Error())
		return
	}

	c.JSON(http.StatusOK, msgs)
}

// PostMessage POST /api/messages?courseId=X
func (h *LegacyHandler) PostMessage(c *gin.Context) {
	courseID := c.Query("courseId")
	if courseID == "" {
		response.Legacy(c, http.StatusBadRequest, "courseId is required", nil)
		return
	}
	var req dto.LegacyMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Legacy(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	msg, err := h.legacySvc.PostMessage(c.Request.Context(), courseID, &req)
	if err != nil {
		h.handleLegacyError(c, err, "failed to post message")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": msg})
}

// ListUserCourses GET /api/user-courses?email=X
func (h *LegacyHandler) ListUserCourses(c *gin.Context) {
	email, ok := legacyEmail(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, h.legacySvc.ListUserCourses(c.Request.Context(), email))
}

// JoinCourse POST /api/user-courses?email=X，body {courseId}
func (h *LegacyHandler) JoinCourse(c *gin.Context) {
	email, ok := legacyEmail(c)
	if !ok {
		return
	}
	var req dto.LegacyCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Legacy(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	if err := h.legacySvc.JoinCourse(c.Request.Context(), email, req.CourseID); err != nil {
		h.handleLegacyError(c, err, "failed to join course")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// LeaveCourse DELETE /api/user-courses?email=X，body {courseId}
func (h *LegacyHandler) LeaveCourse(c *gin.Context) {
	email, ok := legacyEmail(c)
	if !ok {
		return
	}
	var req dto.LegacyCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Legacy(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	if err := h.legacySvc.LeaveCourse(c.Request.Context(), email, req.CourseID); err != nil {
		h.handleLegacyError(c, err, "failed to leave course")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func legacyEmail(c *gin.Context) (string, bool) {
	email := c.Query("email")
	if email == "" {
		response.Legacy(c, http.StatusBadRequest, "email is required", nil)
		return "", false
	}
	return email, true
}

func (h *LegacyHandler) handleLegacyError(c *gin.Context, err error, message string) {
	if errors.Is(err, service.ErrValidationFailed) {
		response.Legacy(c, http.StatusBadRequest, "ValidationFailed", "missing required field")
		return
	}
	response.Legacy(c, http.StatusInternalServerError, message, err.Error())
}

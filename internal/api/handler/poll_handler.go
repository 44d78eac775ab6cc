package handler

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/jafrulamin/Class-Connect/internal/dto"
	"github.com/jafrulamin/Class-Connect/internal/service"
	"github.com/jafrulamin/Class-Connect/pkg/response"
)

// PollHandler 课程投票 HTTP 处理器
type PollHandler struct {
	pollSvc service.PollService
}

// NewPollHandler 创建 PollHandler
func NewPollHandler(pollSvc service.PollService) *PollHandler {
	return &PollHandler{pollSvc: pollSvc}
}

// ListPolls 投票列表（最新在前）
// GET /api/v1/courses/:id/polls
func (h *PollHandler) ListPolls(c *gin.Context) {
	email, ok := MustGetEmail(c)
	if !ok {
		return
	}

	list, err := h.pollSvc.List(c.Request.Context(), email, c.Param("id"))
	if err != nil {
		handleSpaceError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// CreatePoll 创建投票
// POST /api/v1/courses/:id/polls
func (h *PollHandler) CreatePoll(c *gin.Context) {
	var req dto.CreatePollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "validation failed")
		return
	}
	email, ok := MustGetEmail(c)
	if !ok {
		return
	}

	poll, err := h.pollSvc.Create(c.Request.Context(), email, c.Param("id"), &req)
	if err != nil {
		handleSpaceError(c, err)
		return
	}

	response.Created(c, poll)
}

// Vote 单选投票，重复投票会替换之前的选择
// POST /api/v1/courses/:id/polls/:pollId/vote
func (h *PollHandler) Vote(c *gin.Context) {
	var req dto.VoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "optionId is required")
		return
	}
	email, ok := MustGetEmail(c)
	if !ok {
		return
	}

	poll, err := h.pollSvc.Vote(c.Request.Context(), email, c.Param("id"), c.Param("pollId"), req.OptionID)
	if err != nil {
		handleSpaceError(c, err)
		return
	}

	response.OK(c, poll)
}

// DeletePoll 删除投票（仅创建者）
// DELETE /api/v1/courses/:id/polls/:pollId
func (h *PollHandler) DeletePoll(c *gin.Context) {
	email, ok := MustGetEmail(c)
	if !ok {
		return
	}

	if err := h.pollSvc.Delete(c.Request.Context(), email, c.Param("id"), c.Param("pollId")); err != nil {
		handleSpaceError(c, err)
		return
	}

	response.OK(c, nil)
}

// ExportResults 导出课程投票结果
// GET /api/v1/courses/:id/polls/export
func (h *PollHandler) ExportResults(c *gin.Context) {
	email, ok := MustGetEmail(c)
	if !ok {
		return
	}

	buf, filename, err := h.pollSvc.ExportResults(c.Request.Context(), email, c.Param("id"))
	if err != nil {
		handleSpaceError(c, err)
		return
	}

	// 设置下载响应头
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.QueryEscape(filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/jafrulamin/Class-Connect/internal/dto"
	"github.com/jafrulamin/Class-Connect/internal/service"
	"github.com/jafrulamin/Class-Connect/pkg/response"
)

// ChatHandler 课程群聊 HTTP 处理器
type ChatHandler struct {
	chatSvc service.ChatService
}

// NewChatHandler 创建 ChatHandler
func NewChatHandler(chatSvc service.ChatService) *ChatHandler {
	return &ChatHandler{chatSvc: chatSvc}
}

// ListMessages 消息列表（时间升序）
// GET /api/v1/courses/:id/messages
func (h *ChatHandler) ListMessages(c *gin.Context) {
	email, ok := MustGetEmail(c)
	if !ok {
		return
	}

	list, err := h.chatSvc.List(c.Request.Context(), email, c.Param("id"))
	if err != nil {
		handleSpaceError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// SendMessage 发送消息
// POST /api/v1/courses/:id/messages
func (h *ChatHandler) SendMessage(c *gin.Context) {
	var req dto.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "validation failed")
		return
	}
	email, ok := MustGetEmail(c)
	if !ok {
		return
	}

	msg, err := h.chatSvc.Send(c.Request.Context(), email, c.Param("id"), &req)
	if err != nil {
		handleSpaceError(c, err)
		return
	}

	response.Created(c, msg)
}

// LastMessage 最近一条消息；没有消息时 data 为 null
// GET /api/v1/courses/:id/messages/last
func (h *ChatHandler) LastMessage(c *gin.Context) {
	email, ok := MustGetEmail(c)
	if !ok {
		return
	}

	msg, err := h.chatSvc.Last(c.Request.Context(), email, c.Param("id"))
	if err != nil {
		handleSpaceError(c, err)
		return
	}

	response.OK(c, msg)
}

package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/jafrulamin/Class-Connect/internal/dto"
	"github.com/jafrulamin/Class-Connect/internal/service"
	"github.com/jafrulamin/Class-Connect/pkg/response"
)

// ResourceHandler 课程资源 HTTP 处理器
type ResourceHandler struct {
	resourceSvc service.ResourceService
}

// NewResourceHandler 创建 ResourceHandler
func NewResourceHandler(resourceSvc service.ResourceService) *ResourceHandler {
	return &ResourceHandler{resourceSvc: resourceSvc}
}

// ListResources 资源列表（最新在前）
// GET /api/v1/courses/:id/resources
func (h *ResourceHandler) ListResources(c *gin.Context) {
	email, ok := MustGetEmail(c)
	if !ok {
		return
	}

	list, err := h.resourceSvc.List(c.Request.Context(), email, c.Param("id"))
	if err != nil {
		handleSpaceError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// AddResource 添加资源链接
// POST /api/v1/courses/:id/resources
func (h *ResourceHandler) AddResource(c *gin.Context) {
	var req dto.AddResourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "validation failed")
		return
	}
	email, ok := MustGetEmail(c)
	if !ok {
		return
	}

	res, err := h.resourceSvc.Add(c.Request.Context(), email, c.Param("id"), &req)
	if err != nil {
		handleSpaceError(c, err)
		return
	}

	response.Created(c, res)
}

// DeleteResource 删除资源（仅创建者）
// DELETE /api/v1/courses/:id/resources/:resourceId
func (h *ResourceHandler) DeleteResource(c *gin.Context) {
	email, ok := MustGetEmail(c)
	if !ok {
		return
	}

	if err := h.resourceSvc.Delete(c.Request.Context(), email, c.Param("id"), c.Param("resourceId")); err != nil {
		handleSpaceError(c, err)
		return
	}

	response.OK(c, nil)
}

package handler

import (
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jafrulamin/Class-Connect/internal/dto"
	"github.com/jafrulamin/Class-Connect/internal/service"
	"github.com/jafrulamin/Class-Connect/pkg/response"
)

// CourseHandler 课程目录 HTTP 处理器
type CourseHandler struct {
	courseSvc service.CourseService
	now       func() time.Time
}

// NewCourseHandler 创建 CourseHandler
func NewCourseHandler(courseSvc service.CourseService) *CourseHandler {
	return &CourseHandler{courseSvc: courseSvc, now: time.Now}
}

// ListColleges 学院列表
// GET /api/v1/colleges
func (h *CourseHandler) ListColleges(c *gin.Context) {
	response.OK(c, gin.H{"list": h.courseSvc.ListColleges()})
}

// GetCollege 学院详情
// GET /api/v1/colleges/:id
func (h *CourseHandler) GetCollege(c *gin.Context) {
	college, err := h.courseSvc.GetCollege(c.Param("id"))
	if err != nil {
		h.handleCourseError(c, err)
		return
	}

	response.OK(c, college)
}

// ListCourses 课程列表，可按学院过滤、按关键字搜索
// GET /api/v1/courses?college_id=&q=
func (h *CourseHandler) ListCourses(c *gin.Context) {
	var req dto.CourseListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "validation failed")
		return
	}

	var list []dto.CourseResponse
	switch {
	case req.Q != "":
		list = h.courseSvc.Search(c.Request.Context(), req.CollegeID, req.Q)
	case req.CollegeID != "":
		list = h.courseSvc.ListByCollege(c.Request.Context(), req.CollegeID)
	default:
		list = h.courseSvc.ListCourses(c.Request.Context())
	}

	response.OK(c, gin.H{"list": list, "total": len(list)})
}

// GetCourse 课程详情
// GET /api/v1/courses/:id
func (h *CourseHandler) GetCourse(c *gin.Context) {
	course, err := h.courseSvc.GetCourseByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.InternalError(c)
		return
	}
	if course == nil {
		h.handleCourseError(c, service.ErrCourseNotFound)
		return
	}

	response.OK(c, course)
}

// ExportCalendar 下载课程的 iCalendar 文件
// GET /api/v1/courses/:id/calendar
func (h *CourseHandler) ExportCalendar(c *gin.Context) {
	data, filename, err := h.courseSvc.ExportCalendar(c.Request.Context(), c.Param("id"), h.now())
	if err != nil {
		h.handleCourseError(c, err)
		return
	}

	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.QueryEscape(filename))
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", data)
}

func (h *CourseHandler) handleCourseError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrCourseNotFound):
		response.NotFound(c, 12001, "course not found")
	case errors.Is(err, service.ErrCollegeNotFound):
		response.NotFound(c, 12002, "college not found")
	case errors.Is(err, service.ErrCourseNoSchedule):
		response.BadRequest(c, 12003, "course has no fixed meeting time")
	default:
		response.InternalError(c)
	}
}

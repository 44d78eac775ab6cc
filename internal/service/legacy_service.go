package service

import (
	"context"
	"errors"
	"strings"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"

	"github.com/jafrulamin/Class-Connect/internal/dto"
	"github.com/jafrulamin/Class-Connect/internal/model"
	"github.com/jafrulamin/Class-Connect/internal/store"
)

// ErrValidationFailed 请求体缺少必填字段
var ErrValidationFailed = errors.New("缺少必填字段")

// LegacyService 旧版 /api/* 接口：无认证，固定走远程存储
type LegacyService interface {
	ListCourses(ctx context.Context) []dto.CourseResponse
	ListMessages(ctx context.Context, courseID string) ([]model.Message, error)
	PostMessage(ctx context.Context, courseID string, req *dto.LegacyMessageRequest) (*model.Message, error)
	ListUserCourses(ctx context.Context, email string) []dto.CourseResponse
	JoinCourse(ctx context.Context, email, courseID string) error
	LeaveCourse(ctx context.Context, email, courseID string) error
}

type legacyService struct {
	remote  store.Provider
	courses CourseService
	logger  *zap.Logger
}

// NewLegacyService 创建 LegacyService 实例
func NewLegacyService(remote store.Provider, courses CourseService, logger *zap.Logger) LegacyService {
	return &legacyService{remote: remote, courses: courses, logger: logger}
}

func (s *legacyService) ListCourses(ctx context.Context) []dto.CourseResponse {
	return s.courses.ListCourses(ctx)
}

func (s *legacyService) ListMessages(ctx context.Context, courseID string) ([]model.Message, error) {
	// 读取与会话用户无关，远程消息为共享数据
	msgs, err := s.remote.Session("").ListMessages(ctx, courseID)
	if err != nil {
		s.logger.Error("读取消息失败", zap.String("course_id", courseID), zap.Error(err))
		return nil, err
	}
	if msgs == nil {
		msgs = []model.Message{}
	}
	return msgs, nil
}

func (s *legacyService) PostMessage(ctx context.Context, courseID string, req *dto.LegacyMessageRequest) (*model.Message, error) {
	if strings.TrimSpace(req.Text) == "" || strings.TrimSpace(req.Sender) == "" {
		return nil, ErrValidationFailed
	}

	id, err := gonanoid.New()
	if err != nil {
		return nil, err
	}
	msg := &model.Message{
		ID:        id,
		Text:      req.Text,
		Sender:    req.Sender,
		Timestamp: time.Now(),
		CourseID:  courseID,
	}
	if err := s.remote.Session(req.Sender).AppendMessage(ctx, msg); err != nil {
		s.logger.Error("写入消息失败", zap.String("course_id", courseID), zap.Error(err))
		return nil, err
	}
	return msg, nil
}

// ListUserCourses 读取失败时返回空列表
func (s *legacyService) ListUserCourses(ctx context.Context, email string) []dto.CourseResponse {
	memberships, err := s.remote.Session(email).ListMemberships(ctx)
	if err != nil {
		s.logger.Error("读取用户课程失败", zap.String("email", email), zap.Error(err))
		return []dto.CourseResponse{}
	}
	ids := make([]string, 0, len(memberships))
	for _, m := range memberships {
		ids = append(ids, m.CourseID)
	}
	courses, err := s.courses.ListByIDs(ctx, ids)
	if err != nil {
		s.logger.Error("读取课程失败", zap.Error(err))
		return []dto.CourseResponse{}
	}
	return courses
}

func (s *legacyService) JoinCourse(ctx context.Context, email, courseID string) error {
	if courseID == "" {
		return ErrValidationFailed
	}
	return s.remote.Session(email).Join(ctx, courseID)
}

func (s *legacyService) LeaveCourse(ctx context.Context, email, courseID string) error {
	if courseID == "" {
		return ErrValidationFailed
	}
	return s.remote.Session(email).Leave(ctx, courseID)
}

package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/jafrulamin/Class-Connect/internal/dto"
	"github.com/jafrulamin/Class-Connect/internal/store"
)

// ErrNotMember 未加入课程
var ErrNotMember = errors.New("未加入该课程")

// MembershipService 用户-课程成员关系
type MembershipService interface {
	ListMyCourses(ctx context.Context, email string) ([]dto.CourseResponse, error)
	Join(ctx context.Context, email, courseID string) error
	Leave(ctx context.Context, email, courseID string) error
}

type membershipService struct {
	stores  store.Provider
	courses CourseService
	logger  *zap.Logger
}

// NewMembershipService 创建 MembershipService 实例
func NewMembershipService(stores store.Provider, courses CourseService, logger *zap.Logger) MembershipService {
	return &membershipService{stores: stores, courses: courses, logger: logger}
}

// ListMyCourses 已加入课程的规范化信息；目录中已不存在的课程跳过
func (s *membershipService) ListMyCourses(ctx context.Context, email string) ([]dto.CourseResponse, error) {
	memberships, err := s.stores.Session(email).ListMemberships(ctx)
	if err != nil {
		s.logger.Error("读取成员关系失败，返回空列表", zap.String("email", email), zap.Error(err))
		return []dto.CourseResponse{}, nil
	}
	ids := make([]string, 0, len(memberships))
	for _, m := range memberships {
		ids = append(ids, m.CourseID)
	}
	courses, err := s.courses.ListByIDs(ctx, ids)
	if err != nil {
		s.logger.Error("读取课程失败，返回空列表", zap.Error(err))
		return []dto.CourseResponse{}, nil
	}
	return courses, nil
}

func (s *membershipService) Join(ctx context.Context, email, courseID string) error {
	course, err := s.courses.GetCourseByID(ctx, courseID)
	if err != nil {
		return err
	}
	if course == nil {
		return ErrCourseNotFound
	}

	if err := s.stores.Session(email).Join(ctx, courseID); err != nil {
		s.logger.Error("加入课程失败", zap.String("email", email), zap.String("course_id", courseID), zap.Error(err))
		return err
	}
	s.logger.Info("加入课程", zap.String("email", email), zap.String("course_id", courseID))
	return nil
}

func (s *membershipService) Leave(ctx context.Context, email, courseID string) error {
	if err := s.stores.Session(email).Leave(ctx, courseID); err != nil {
		s.logger.Error("退出课程失败", zap.String("email", email), zap.String("course_id", courseID), zap.Error(err))
		return err
	}
	s.logger.Info("退出课程", zap.String("email", email), zap.String("course_id", courseID))
	return nil
}

// memberSession 签出会话存储并确认成员关系
func memberSession(ctx context.Context, stores store.Provider, email, courseID string) (store.ContentStore, error) {
	cs := stores.Session(email)
	ok, err := cs.IsMember(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotMember
	}
	return cs, nil
}

package service

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"

	"github.com/jafrulamin/Class-Connect/internal/dto"
	"github.com/jafrulamin/Class-Connect/internal/model"
	"github.com/jafrulamin/Class-Connect/internal/store"
)

var (
	ErrResourceInvalid  = errors.New("资源标题和链接不能为空")
	ErrResourceBadURL   = errors.New("资源链接必须为 http(s) 地址")
	ErrResourceNotFound = errors.New("资源不存在")
	ErrNotOwner         = errors.New("只有创建者可以删除")
)

// ResourceService 课程共享资源
type ResourceService interface {
	List(ctx context.Context, email, courseID string) ([]model.Resource, error)
	Add(ctx context.Context, email, courseID string, req *dto.AddResourceRequest) (*model.Resource, error)
	Delete(ctx context.Context, email, courseID, resourceID string) error
}

type resourceService struct {
	stores store.Provider
	logger *zap.Logger
	now    func() time.Time
}

// NewResourceService 创建 ResourceService 实例
func NewResourceService(stores store.Provider, logger *zap.Logger) ResourceService {
	return &resourceService{stores: stores, logger: logger, now: time.Now}
}

func (s *resourceService) List(ctx context.Context, email, courseID string) ([]model.Resource, error) {
	cs, err := memberSession(ctx, s.stores, email, courseID)
	if err != nil {
		return nil, err
	}
	list, err := cs.ListResources(ctx, courseID)
	if err != nil {
		s.logger.Error("读取资源失败，返回空列表", zap.String("course_id", courseID), zap.Error(err))
		return []model.Resource{}, nil
	}
	if list == nil {
		list = []model.Resource{}
	}
	return list, nil
}

func (s *resourceService) Add(ctx context.Context, email, courseID string, req *dto.AddResourceRequest) (*model.Resource, error) {
	title := strings.TrimSpace(req.Title)
	link := strings.TrimSpace(req.URL)
	if title == "" || link == "" {
		return nil, ErrResourceInvalid
	}
	if u, err := url.Parse(link); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, ErrResourceBadURL
	}

	cs, err := memberSession(ctx, s.stores, email, courseID)
	if err != nil {
		return nil, err
	}

	id, err := gonanoid.New()
	if err != nil {
		return nil, err
	}
	res := &model.Resource{
		ID:        id,
		Title:     title,
		URL:       link,
		AddedBy:   model.NormalizeEmail(email),
		Timestamp: s.now(),
		CourseID:  courseID,
	}
	// 描述为空时保持缺省，而不是写入空串
	if desc := strings.TrimSpace(req.Description); desc != "" {
		res.Description = &desc
	}

	if err := cs.AddResource(ctx, res); err != nil {
		s.logger.Error("添加资源失败", zap.String("course_id", courseID), zap.Error(err))
		return nil, err
	}
	return res, nil
}

func (s *resourceService) Delete(ctx context.Context, email, courseID, resourceID string) error {
	cs, err := memberSession(ctx, s.stores, email, courseID)
	if err != nil {
		return err
	}

	res, err := cs.GetResource(ctx, courseID, resourceID)
	if err != nil {
		return err
	}
	if res == nil {
		return ErrResourceNotFound
	}
	if res.AddedBy != model.NormalizeEmail(email) {
		return ErrNotOwner
	}

	if err := cs.RemoveResource(ctx, courseID, resourceID); err != nil {
		s.logger.Error("删除资源失败", zap.String("resource_id", resourceID), zap.Error(err))
		return err
	}
	return nil
}

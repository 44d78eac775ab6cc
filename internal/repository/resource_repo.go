package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/jafrulamin/Class-Connect/internal/model"
)

// ResourceRepository 课程资源数据访问接口
type ResourceRepository interface {
	ListByCourse(ctx context.Context, courseID string) ([]model.Resource, error)
	GetByID(ctx context.Context, courseID, id string) (*model.Resource, error)
	Create(ctx context.Context, res *model.Resource) error
	Delete(ctx context.Context, courseID, id string) error
}

type resourceRepo struct {
	db *gorm.DB
}

// NewResourceRepo 创建 ResourceRepository 实例
func NewResourceRepo(db *gorm.DB) ResourceRepository {
	return &resourceRepo{db: db}
}

// ListByCourse 按时间降序（最新在前）
func (r *resourceRepo) ListByCourse(ctx context.Context, courseID string) ([]model.Resource, error) {
	var list []model.Resource
	err := r.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("timestamp DESC, id DESC").
		Find(&list).Error
	return list, err
}

func (r *resourceRepo) GetByID(ctx context.Context, courseID, id string) (*model.Resource, error) {
	var res model.Resource
	err := r.db.WithContext(ctx).
		Where("course_id = ? AND id = ?", courseID, id).
		First(&res).Error
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *resourceRepo) Create(ctx context.Context, res *model.Resource) error {
	return r.db.WithContext(ctx).Create(res).Error
}

func (r *resourceRepo) Delete(ctx context.Context, courseID, id string) error {
	return r.db.WithContext(ctx).
		Where("course_id = ? AND id = ?", courseID, id).
		Delete(&model.Resource{}).Error
}

package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jafrulamin/Class-Connect/internal/model"
)

// CourseRepository 课程目录数据访问接口
type CourseRepository interface {
	List(ctx context.Context) ([]model.Course, error)
	GetByID(ctx context.Context, id string) (*model.Course, error)
	ListByIDs(ctx context.Context, ids []string) ([]model.Course, error)
	// Upsert 按 ID 插入或整体更新（导入幂等）
	Upsert(ctx context.Context, courses []model.Course, batchSize int) error
}

type courseRepo struct {
	db *gorm.DB
}

// NewCourseRepo 创建 CourseRepository 实例
func NewCourseRepo(db *gorm.DB) CourseRepository {
	return &courseRepo{db: db}
}

func (r *courseRepo) List(ctx context.Context) ([]model.Course, error) {
	var courses []model.Course
	err := r.db.WithContext(ctx).Order("id ASC").Find(&courses).Error
	return courses, err
}

func (r *courseRepo) GetByID(ctx context.Context, id string) (*model.Course, error) {
	var course model.Course
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&course).Error
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *courseRepo) ListByIDs(ctx context.Context, ids []string) ([]model.Course, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var courses []model.Course
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&courses).Error
	return courses, err
}

// upsertColumns 冲突时覆盖的列（保留 created_at）
var upsertColumns = []string{
	"term_code", "college_code", "college_name", "subject", "subject_name",
	"course_code", "catalog_number", "class_number", "section", "title",
	"days", "start_time", "end_time", "raw_days_times", "location",
	"instructor", "status", "instruction_mode", "updated_at",
}

func (r *courseRepo) Upsert(ctx context.Context, courses []model.Course, batchSize int) error {
	if len(courses) == 0 {
		return nil
	}
	if batchSize <= 0 {
		batchSize = 450
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns(upsertColumns),
		}).
		CreateInBatches(&courses, batchSize).Error
}

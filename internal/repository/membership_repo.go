package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jafrulamin/Class-Connect/internal/model"
)

// MembershipRepository 用户-课程成员关系数据访问接口
type MembershipRepository interface {
	ListByUser(ctx context.Context, email string) ([]model.Membership, error)
	// Create 幂等加入：已存在时不插入，返回 created=false
	Create(ctx context.Context, m *model.Membership) (bool, error)
	Delete(ctx context.Context, email, courseID string) error
	Exists(ctx context.Context, email, courseID string) (bool, error)
}

type membershipRepo struct {
	db *gorm.DB
}

// NewMembershipRepo 创建 MembershipRepository 实例
func NewMembershipRepo(db *gorm.DB) MembershipRepository {
	return &membershipRepo{db: db}
}

func (r *membershipRepo) ListByUser(ctx context.Context, email string) ([]model.Membership, error) {
	var list []model.Membership
	err := r.db.WithContext(ctx).
		Where("user_email = ?", email).
		Order("joined_at ASC").
		Find(&list).Error
	return list, err
}

func (r *membershipRepo) Create(ctx context.Context, m *model.Membership) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(m)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *membershipRepo) Delete(ctx context.Context, email, courseID string) error {
	return r.db.WithContext(ctx).
		Where("user_email = ? AND course_id = ?", email, courseID).
		Delete(&model.Membership{}).Error
}

func (r *membershipRepo) Exists(ctx context.Context, email, courseID string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.Membership{}).
		Where("user_email = ? AND course_id = ?", email, courseID).
		Count(&n).Error
	return n > 0, err
}

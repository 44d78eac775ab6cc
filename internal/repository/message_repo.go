package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/jafrulamin/Class-Connect/internal/model"
)

// MessageRepository 群聊消息数据访问接口（只追加）
type MessageRepository interface {
	ListByCourse(ctx context.Context, courseID string) ([]model.Message, error)
	Create(ctx context.Context, msg *model.Message) error
}

type messageRepo struct {
	db *gorm.DB
}

// NewMessageRepo 创建 MessageRepository 实例
func NewMessageRepo(db *gorm.DB) MessageRepository {
	return &messageRepo{db: db}
}

// ListByCourse 按时间升序
func (r *messageRepo) ListByCourse(ctx context.Context, courseID string) ([]model.Message, error) {
	var list []model.Message
	err := r.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("timestamp ASC, id ASC").
		Find(&list).Error
	return list, err
}

func (r *messageRepo) Create(ctx context.Context, msg *model.Message) error {
	return r.db.WithContext(ctx).Create(msg).Error
}

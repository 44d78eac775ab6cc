package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jafrulamin/Class-Connect/internal/model"
)

// ErrOptionNotInPoll 选项不属于该投票
var ErrOptionNotInPoll = errors.New("选项不属于该投票")

// PollRepository 课程投票数据访问接口
// 选票存放在 poll_votes，读取时还原为每个选项的 Voters 集合
type PollRepository interface {
	ListByCourse(ctx context.Context, courseID string) ([]model.Poll, error)
	GetByID(ctx context.Context, courseID, id string) (*model.Poll, error)
	// Create 在同一事务中写入投票及其选项
	Create(ctx context.Context, poll *model.Poll) error
	// Delete 级联删除选票、选项与投票本身
	Delete(ctx context.Context, courseID, id string) error
	// Vote 替换投票人在该投票中的选择；投票不存在时不做任何事
	Vote(ctx context.Context, courseID, pollID, optionID, voterEmail string) error
}

type pollRepo struct {
	db *gorm.DB
}

// NewPollRepo 创建 PollRepository 实例
func NewPollRepo(db *gorm.DB) PollRepository {
	return &pollRepo{db: db}
}

// ListByCourse 按时间降序，选项与选票分两次批量加载
func (r *pollRepo) ListByCourse(ctx context.Context, courseID string) ([]model.Poll, error) {
	var polls []model.Poll
	err := r.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("timestamp DESC, id DESC").
		Find(&polls).Error
	if err != nil {
		return nil, err
	}
	if err := r.fill(ctx, r.db, polls); err != nil {
		return nil, err
	}
	return polls, nil
}

func (r *pollRepo) GetByID(ctx context.Context, courseID, id string) (*model.Poll, error) {
	var poll model.Poll
	err := r.db.WithContext(ctx).
		Where("course_id = ? AND id = ?", courseID, id).
		First(&poll).Error
	if err != nil {
		return nil, err
	}
	polls := []model.Poll{poll}
	if err := r.fill(ctx, r.db, polls); err != nil {
		return nil, err
	}
	return &polls[0], nil
}

// fill 为一组投票装配选项（按 position）与每个选项的投票人
func (r *pollRepo) fill(ctx context.Context, db *gorm.DB, polls []model.Poll) error {
	if len(polls) == 0 {
		return nil
	}
	ids := make([]string, len(polls))
	for i := range polls {
		ids[i] = polls[i].ID
	}

	var options []model.PollOption
	if err := db.WithContext(ctx).
		Where("poll_id IN ?", ids).
		Order("position ASC").
		Find(&options).Error; err != nil {
		return err
	}

	var votes []model.PollVote
	if err := db.WithContext(ctx).
		Where("poll_id IN ?", ids).
		Order("id ASC").
		Find(&votes).Error; err != nil {
		return err
	}

	voters := make(map[string][]string, len(options))
	for _, v := range votes {
		voters[v.OptionID] = append(voters[v.OptionID], v.VoterEmail)
	}

	byPoll := make(map[string][]model.PollOption, len(polls))
	for _, o := range options {
		o.Voters = voters[o.ID]
		if o.Voters == nil {
			o.Voters = []string{}
		}
		byPoll[o.PollID] = append(byPoll[o.PollID], o)
	}
	for i := range polls {
		polls[i].Options = byPoll[polls[i].ID]
		if polls[i].Options == nil {
			polls[i].Options = []model.PollOption{}
		}
	}
	return nil
}

func (r *pollRepo) Create(ctx context.Context, poll *model.Poll) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(poll).Error; err != nil {
			return err
		}
		if len(poll.Options) == 0 {
			return nil
		}
		for i := range poll.Options {
			poll.Options[i].PollID = poll.ID
			poll.Options[i].Position = i
		}
		if err := tx.Create(&poll.Options).Error; err != nil {
			return err
		}
		// 新投票的选项一律从零票开始
		for i := range poll.Options {
			poll.Options[i].Voters = []string{}
		}
		return nil
	})
}

func (r *pollRepo) Delete(ctx context.Context, courseID, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&model.Poll{}).
			Where("course_id = ? AND id = ?", courseID, id).
			Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
		if err := tx.Where("poll_id = ?", id).Delete(&model.PollVote{}).Error; err != nil {
			return err
		}
		if err := tx.Where("poll_id = ?", id).Delete(&model.PollOption{}).Error; err != nil {
			return err
		}
		return tx.Where("course_id = ? AND id = ?", courseID, id).Delete(&model.Poll{}).Error
	})
}

func (r *pollRepo) Vote(ctx context.Context, courseID, pollID, optionID, voterEmail string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&model.Poll{}).
			Where("course_id = ? AND id = ?", courseID, pollID).
			Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return nil
		}

		var opt model.PollOption
		err := tx.Where("id = ? AND poll_id = ?", optionID, pollID).First(&opt).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOptionNotInPoll
		}
		if err != nil {
			return err
		}

		// 先撤回该投票人在本投票中的全部选票，再投给目标选项
		if err := tx.Where("poll_id = ? AND voter_email = ?", pollID, voterEmail).
			Delete(&model.PollVote{}).Error; err != nil {
			return err
		}
		return tx.Create(&model.PollVote{
			PollID:     pollID,
			OptionID:   optionID,
			VoterEmail: voterEmail,
			Timestamp:  time.Now(),
		}).Error
	})
}

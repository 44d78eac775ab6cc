package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/jafrulamin/Class-Connect/internal/model"
	"github.com/jafrulamin/Class-Connect/internal/repository"
)

// RemoteProvider 基于 PostgreSQL 的共享存储，所有用户看到同一份课程内容
type RemoteProvider struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewRemoteProvider 创建远程存储 Provider
func NewRemoteProvider(repo *repository.Repository, logger *zap.Logger) *RemoteProvider {
	return &RemoteProvider{repo: repo, logger: logger}
}

// Session 签出 owner 的会话存储
func (p *RemoteProvider) Session(owner string) ContentStore {
	return &remoteStore{repo: p.repo, owner: strings.ToLower(strings.TrimSpace(owner)), logger: p.logger}
}

type remoteStore struct {
	repo   *repository.Repository
	owner  string
	logger *zap.Logger
}

func (s *remoteStore) ListMessages(ctx context.Context, courseID string) ([]model.Message, error) {
	return s.repo.Message.ListByCourse(ctx, courseID)
}

func (s *remoteStore) AppendMessage(ctx context.Context, msg *model.Message) error {
	return s.repo.Message.Create(ctx, msg)
}

func (s *remoteStore) ListResources(ctx context.Context, courseID string) ([]model.Resource, error) {
	return s.repo.Resource.ListByCourse(ctx, courseID)
}

func (s *remoteStore) GetResource(ctx context.Context, courseID, id string) (*model.Resource, error) {
	res, err := s.repo.Resource.GetByID(ctx, courseID, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return res, err
}

func (s *remoteStore) AddResource(ctx context.Context, res *model.Resource) error {
	return s.repo.Resource.Create(ctx, res)
}

func (s *remoteStore) RemoveResource(ctx context.Context, courseID, id string) error {
	return s.repo.Resource.Delete(ctx, courseID, id)
}

func (s *remoteStore) ListPolls(ctx context.Context, courseID string) ([]model.Poll, error) {
	return s.repo.Poll.ListByCourse(ctx, courseID)
}

func (s *remoteStore) GetPoll(ctx context.Context, courseID, id string) (*model.Poll, error) {
	poll, err := s.repo.Poll.GetByID(ctx, courseID, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return poll, err
}

func (s *remoteStore) AddPoll(ctx context.Context, poll *model.Poll) error {
	return s.repo.Poll.Create(ctx, poll)
}

func (s *remoteStore) RemovePoll(ctx context.Context, courseID, id string) error {
	return s.repo.Poll.Delete(ctx, courseID, id)
}

func (s *remoteStore) VoteOnPoll(ctx context.Context, courseID, pollID, optionID string) error {
	err := s.repo.Poll.Vote(ctx, courseID, pollID, optionID, s.owner)
	if errors.Is(err, repository.ErrOptionNotInPoll) {
		return ErrOptionNotFound
	}
	return err
}

func (s *remoteStore) ListMemberships(ctx context.Context) ([]model.Membership, error) {
	return s.repo.Membership.ListByUser(ctx, s.owner)
}

func (s *remoteStore) IsMember(ctx context.Context, courseID string) (bool, error) {
	return s.repo.Membership.Exists(ctx, s.owner, courseID)
}

func (s *remoteStore) Join(ctx context.Context, courseID string) error {
	created, err := s.repo.Membership.Create(ctx, &model.Membership{
		UserEmail: s.owner,
		CourseID:  courseID,
		JoinedAt:  time.Now(),
	})
	if err != nil {
		return err
	}
	if !created {
		s.logger.Debug("重复加入课程，忽略", zap.String("owner", s.owner), zap.String("course_id", courseID))
	}
	return nil
}

// Leave 仅删除成员关系；远程消息为共享数据，不随个人退出而删除
func (s *remoteStore) Leave(ctx context.Context, courseID string) error {
	return s.repo.Membership.Delete(ctx, s.owner, courseID)
}

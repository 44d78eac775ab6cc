package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jafrulamin/Class-Connect/internal/model"
	pkgerrors "github.com/jafrulamin/Class-Connect/pkg/errors"
)

// 本地存储键：<owner>:<kind>_<courseId>，成员关系为 <owner>:userCourses
const (
	kindMessages  = "chatMessages"
	kindResources = "courseResources"
	kindPolls     = "coursePolls"
	keyUserCourse = "userCourses"
)

// LocalProvider 基于 KV 的按用户隔离存储
// 每个集合整体序列化为一个 JSON 数组，所有写入都在一次 KV.Update 内完成
type LocalProvider struct {
	kv     KV
	logger *zap.Logger
}

// NewLocalProvider 创建本地存储 Provider
func NewLocalProvider(kv KV, logger *zap.Logger) *LocalProvider {
	return &LocalProvider{kv: kv, logger: logger}
}

// Session 签出 owner 的会话存储
func (p *LocalProvider) Session(owner string) ContentStore {
	return &localStore{kv: p.kv, owner: strings.ToLower(strings.TrimSpace(owner)), logger: p.logger}
}

type localStore struct {
	kv     KV
	owner  string
	logger *zap.Logger
}

func (s *localStore) courseKey(kind, courseID string) string {
	return fmt.Sprintf("%s:%s_%s", s.owner, kind, courseID)
}

func (s *localStore) membershipKey() string {
	return s.owner + ":" + keyUserCourse
}

// load 读取整个集合；内容损坏时记录日志并视为空集合
func load[T any](ctx context.Context, s *localStore, key string) ([]T, error) {
	raw, err := s.kv.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("%w: 读取 %s 失败: %v", pkgerrors.ErrBackendUnavailable, key, err)
	}
	return decode[T](s, key, raw), nil
}

func decode[T any](s *localStore, key string, raw []byte) []T {
	if len(raw) == 0 {
		return nil
	}
	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		s.logger.Warn("本地存储内容损坏，按空集合处理", zap.String("key", key), zap.Error(err))
		return nil
	}
	return items
}

// mutate 在一次原子读改写中替换整个集合
func mutate[T any](ctx context.Context, s *localStore, key string, fn func(items []T) ([]T, error)) error {
	err := s.kv.Update(ctx, key, func(current []byte) ([]byte, error) {
		next, err := fn(decode[T](s, key, current))
		if err != nil {
			return nil, err
		}
		if next == nil {
			next = []T{}
		}
		return json.Marshal(next)
	})
	if err != nil {
		return fmt.Errorf("写入 %s 失败: %w", key, err)
	}
	return nil
}

// ── 消息 ──

func (s *localStore) ListMessages(ctx context.Context, courseID string) ([]model.Message, error) {
	msgs, err := load[model.Message](ctx, s, s.courseKey(kindMessages, courseID))
	if err != nil {
		return nil, err
	}
	sort.SliceStable(msgs, func(i, j int) bool { return msgs[i].Timestamp.Before(msgs[j].Timestamp) })
	return msgs, nil
}

func (s *localStore) AppendMessage(ctx context.Context, msg *model.Message) error {
	return mutate(ctx, s, s.courseKey(kindMessages, msg.CourseID), func(items []model.Message) ([]model.Message, error) {
		return append(items, *msg), nil
	})
}

// ── 资源 ──

func (s *localStore) ListResources(ctx context.Context, courseID string) ([]model.Resource, error) {
	list, err := load[model.Resource](ctx, s, s.courseKey(kindResources, courseID))
	if err != nil {
		return nil, err
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].Timestamp.After(list[j].Timestamp) })
	return list, nil
}

func (s *localStore) GetResource(ctx context.Context, courseID, id string) (*model.Resource, error) {
	list, err := load[model.Resource](ctx, s, s.courseKey(kindResources, courseID))
	if err != nil {
		return nil, err
	}
	for i := range list {
		if list[i].ID == id {
			return &list[i], nil
		}
	}
	return nil, nil
}

func (s *localStore) AddResource(ctx context.Context, res *model.Resource) error {
	return mutate(ctx, s, s.courseKey(kindResources, res.CourseID), func(items []model.Resource) ([]model.Resource, error) {
		return append(items, *res), nil
	})
}

func (s *localStore) RemoveResource(ctx context.Context, courseID, id string) error {
	return mutate(ctx, s, s.courseKey(kindResources, courseID), func(items []model.Resource) ([]model.Resource, error) {
		kept := items[:0]
		for _, r := range items {
			if r.ID != id {
				kept = append(kept, r)
			}
		}
		return kept, nil
	})
}

// ── 投票 ──

func (s *localStore) ListPolls(ctx context.Context, courseID string) ([]model.Poll, error) {
	polls, err := load[model.Poll](ctx, s, s.courseKey(kindPolls, courseID))
	if err != nil {
		return nil, err
	}
	for i := range polls {
		normalizeVoters(&polls[i])
	}
	sort.SliceStable(polls, func(i, j int) bool { return polls[i].Timestamp.After(polls[j].Timestamp) })
	return polls, nil
}

func (s *localStore) GetPoll(ctx context.Context, courseID, id string) (*model.Poll, error) {
	polls, err := load[model.Poll](ctx, s, s.courseKey(kindPolls, courseID))
	if err != nil {
		return nil, err
	}
	for i := range polls {
		if polls[i].ID == id {
			normalizeVoters(&polls[i])
			return &polls[i], nil
		}
	}
	return nil, nil
}

func (s *localStore) AddPoll(ctx context.Context, poll *model.Poll) error {
	for i := range poll.Options {
		poll.Options[i].PollID = poll.ID
		poll.Options[i].Position = i
	}
	normalizeVoters(poll)
	return mutate(ctx, s, s.courseKey(kindPolls, poll.CourseID), func(items []model.Poll) ([]model.Poll, error) {
		return append(items, *poll), nil
	})
}

func (s *localStore) RemovePoll(ctx context.Context, courseID, id string) error {
	return mutate(ctx, s, s.courseKey(kindPolls, courseID), func(items []model.Poll) ([]model.Poll, error) {
		kept := items[:0]
		for _, p := range items {
			if p.ID != id {
				kept = append(kept, p)
			}
		}
		return kept, nil
	})
}

// VoteOnPoll 先从所有选项移除投票人，再加入目标选项；即使选择未变也整体回写
func (s *localStore) VoteOnPoll(ctx context.Context, courseID, pollID, optionID string) error {
	voter := s.owner
	return mutate(ctx, s, s.courseKey(kindPolls, courseID), func(items []model.Poll) ([]model.Poll, error) {
		var poll *model.Poll
		for i := range items {
			if items[i].ID == pollID {
				poll = &items[i]
				break
			}
		}
		if poll == nil {
			return items, nil
		}
		if poll.Option(optionID) == nil {
			return nil, ErrOptionNotFound
		}

		for i := range poll.Options {
			poll.Options[i].Voters = without(poll.Options[i].Voters, voter)
		}
		target := poll.Option(optionID)
		if !contains(target.Voters, voter) {
			target.Voters = append(target.Voters, voter)
		}
		return items, nil
	})
}

// ── 成员关系 ──

func (s *localStore) ListMemberships(ctx context.Context) ([]model.Membership, error) {
	return load[model.Membership](ctx, s, s.membershipKey())
}

func (s *localStore) IsMember(ctx context.Context, courseID string) (bool, error) {
	list, err := s.ListMemberships(ctx)
	if err != nil {
		return false, err
	}
	for _, m := range list {
		if m.CourseID == courseID {
			return true, nil
		}
	}
	return false, nil
}

func (s *localStore) Join(ctx context.Context, courseID string) error {
	return mutate(ctx, s, s.membershipKey(), func(items []model.Membership) ([]model.Membership, error) {
		for _, m := range items {
			if m.CourseID == courseID {
				return items, nil
			}
		}
		return append(items, model.Membership{
			UserEmail: s.owner,
			CourseID:  courseID,
			JoinedAt:  time.Now(),
		}), nil
	})
}

// Leave 移除成员关系，并清空该课程在本会话下的消息、资源与投票缓存
func (s *localStore) Leave(ctx context.Context, courseID string) error {
	err := mutate(ctx, s, s.membershipKey(), func(items []model.Membership) ([]model.Membership, error) {
		kept := items[:0]
		for _, m := range items {
			if m.CourseID != courseID {
				kept = append(kept, m)
			}
		}
		return kept, nil
	})
	if err != nil {
		return err
	}

	if err := s.kv.Delete(ctx,
		s.courseKey(kindMessages, courseID),
		s.courseKey(kindResources, courseID),
		s.courseKey(kindPolls, courseID),
	); err != nil {
		return fmt.Errorf("清理课程缓存失败: %w", err)
	}
	s.logger.Debug("已退出课程并清理本地缓存", zap.String("owner", s.owner), zap.String("course_id", courseID))
	return nil
}

func normalizeVoters(p *model.Poll) {
	for i := range p.Options {
		if p.Options[i].Voters == nil {
			p.Options[i].Voters = []string{}
		}
	}
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

func without(list []string, v string) []string {
	out := make([]string, 0, len(list))
	for _, x := range list {
		if x != v {
			out = append(out, x)
		}
	}
	return out
}

// Package store 课程空间内容的持久化后端。
//
// Provider 在进程启动时构建一次，按登录用户签出会话级 ContentStore。
// 两种实现返回相同的排序：消息按时间升序，资源与投票按时间降序。
package store

import (
	"context"
	"errors"

	"github.com/jafrulamin/Class-Connect/internal/model"
)

// ErrOptionNotFound 投票选项不存在
var ErrOptionNotFound = errors.New("投票选项不存在")

// Provider 会话级存储的工厂
type Provider interface {
	Session(owner string) ContentStore
}

// ContentStore 绑定到某个用户（owner）的课程空间存储
// Get* 在记录不存在时返回 nil, nil
type ContentStore interface {
	ListMessages(ctx context.Context, courseID string) ([]model.Message, error)
	AppendMessage(ctx context.Context, msg *model.Message) error

	ListResources(ctx context.Context, courseID string) ([]model.Resource, error)
	GetResource(ctx context.Context, courseID, id string) (*model.Resource, error)
	AddResource(ctx context.Context, res *model.Resource) error
	RemoveResource(ctx context.Context, courseID, id string) error

	ListPolls(ctx context.Context, courseID string) ([]model.Poll, error)
	GetPoll(ctx context.Context, courseID, id string) (*model.Poll, error)
	AddPoll(ctx context.Context, poll *model.Poll) error
	RemovePoll(ctx context.Context, courseID, id string) error
	// VoteOnPoll 以会话用户身份投票，替换其在该投票中的旧选择；投票不存在时为空操作
	VoteOnPoll(ctx context.Context, courseID, pollID, optionID string) error

	ListMemberships(ctx context.Context) ([]model.Membership, error)
	IsMember(ctx context.Context, courseID string) (bool, error)
	// Join 幂等加入课程
	Join(ctx context.Context, courseID string) error
	Leave(ctx context.Context, courseID string) error
}

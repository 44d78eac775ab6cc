package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"

	"github.com/jafrulamin/Class-Connect/internal/dto"
	"github.com/jafrulamin/Class-Connect/internal/model"
	"github.com/jafrulamin/Class-Connect/internal/store"
	"github.com/jafrulamin/Class-Connect/pkg/timefmt"
)

var (
	ErrEmptyMessage   = errors.New("消息内容不能为空")
	ErrMessageTooLong = errors.New("消息内容过长")
)

const maxMessageLength = 2000

// ChatService 课程群聊（只追加）
type ChatService interface {
	List(ctx context.Context, email, courseID string) ([]dto.MessageResponse, error)
	Send(ctx context.Context, email, courseID string, req *dto.SendMessageRequest) (*dto.MessageResponse, error)
	// Last 最近一条消息，没有消息时返回 nil
	Last(ctx context.Context, email, courseID string) (*dto.MessageResponse, error)
}

type chatService struct {
	stores store.Provider
	logger *zap.Logger
	now    func() time.Time
}

// NewChatService 创建 ChatService 实例
func NewChatService(stores store.Provider, logger *zap.Logger) ChatService {
	return &chatService{stores: stores, logger: logger, now: time.Now}
}

func (s *chatService) List(ctx context.Context, email, courseID string) ([]dto.MessageResponse, error) {
	cs, err := memberSession(ctx, s.stores, email, courseID)
	if err != nil {
		return nil, err
	}

	msgs, err := cs.ListMessages(ctx, courseID)
	if err != nil {
		s.logger.Error("读取消息失败，返回空列表", zap.String("course_id", courseID), zap.Error(err))
		return []dto.MessageResponse{}, nil
	}

	now := s.now()
	out := make([]dto.MessageResponse, 0, len(msgs))
	for i := range msgs {
		out = append(out, toMessageResponse(&msgs[i], now))
	}
	return out, nil
}

func (s *chatService) Send(ctx context.Context, email, courseID string, req *dto.SendMessageRequest) (*dto.MessageResponse, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, ErrEmptyMessage
	}
	if utf8.RuneCountInString(text) > maxMessageLength {
		return nil, ErrMessageTooLong
	}

	cs, err := memberSession(ctx, s.stores, email, courseID)
	if err != nil {
		return nil, err
	}

	id, err := gonanoid.New()
	if err != nil {
		return nil, err
	}
	now := s.now()
	msg := &model.Message{
		ID:        id,
		Text:      text,
		Sender:    model.NormalizeEmail(email),
		Timestamp: now,
		CourseID:  courseID,
	}
	if err := cs.AppendMessage(ctx, msg); err != nil {
		s.logger.Error("发送消息失败", zap.String("course_id", courseID), zap.Error(err))
		return nil, err
	}

	resp := toMessageResponse(msg, now)
	return &resp, nil
}

func (s *chatService) Last(ctx context.Context, email, courseID string) (*dto.MessageResponse, error) {
	list, err := s.List(ctx, email, courseID)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return &list[len(list)-1], nil
}

func toMessageResponse(m *model.Message, now time.Time) dto.MessageResponse {
	return dto.MessageResponse{
		ID:        m.ID,
		Text:      m.Text,
		Sender:    m.Sender,
		Timestamp: m.Timestamp,
		CourseID:  m.CourseID,
		TimeLabel: timefmt.Format(m.Timestamp, now),
	}
}

package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/jafrulamin/Class-Connect/internal/dto"
	"github.com/jafrulamin/Class-Connect/internal/model"
	"github.com/jafrulamin/Class-Connect/internal/store"
)

var (
	ErrPollQuestionRequired = errors.New("投票问题不能为空")
	ErrPollTooFewOptions    = errors.New("投票至少需要两个选项")
	ErrPollNotFound         = errors.New("投票不存在")
	ErrPollOptionNotFound   = errors.New("投票选项不存在")
	ErrExportGenerateFail   = errors.New("生成 Excel 文件失败")
)

// PollService 课程单选投票
type PollService interface {
	List(ctx context.Context, email, courseID string) ([]dto.PollResponse, error)
	Create(ctx context.Context, email, courseID string, req *dto.CreatePollRequest) (*dto.PollResponse, error)
	// Vote 单选可改票：投票人的旧选择先被撤回
	Vote(ctx context.Context, email, courseID, pollID, optionID string) (*dto.PollResponse, error)
	Delete(ctx context.Context, email, courseID, pollID string) error
	// ExportResults 导出课程投票结果为 Excel，每个选项一行
	ExportResults(ctx context.Context, email, courseID string) (*bytes.Buffer, string, error)
}

type pollService struct {
	stores store.Provider
	logger *zap.Logger
	now    func() time.Time
}

// NewPollService 创建 PollService 实例
func NewPollService(stores store.Provider, logger *zap.Logger) PollService {
	return &pollService{stores: stores, logger: logger, now: time.Now}
}

func (s *pollService) List(ctx context.Context, email, courseID string) ([]dto.PollResponse, error) {
	cs, err := memberSession(ctx, s.stores, email, courseID)
	if err != nil {
		return nil, err
	}
	polls, err := cs.ListPolls(ctx, courseID)
	if err != nil {
		s.logger.Error("读取投票失败，返回空列表", zap.String("course_id", courseID), zap.Error(err))
		return []dto.PollResponse{}, nil
	}

	out := make([]dto.PollResponse, 0, len(polls))
	for i := range polls {
		out = append(out, toPollResponse(&polls[i]))
	}
	return out, nil
}

func (s *pollService) Create(ctx context.Context, email, courseID string, req *dto.CreatePollRequest) (*dto.PollResponse, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, ErrPollQuestionRequired
	}
	var texts []string
	for _, o := range req.Options {
		if t := strings.TrimSpace(o); t != "" {
			texts = append(texts, t)
		}
	}
	if len(texts) < model.MinPollOptions {
		return nil, ErrPollTooFewOptions
	}

	cs, err := memberSession(ctx, s.stores, email, courseID)
	if err != nil {
		return nil, err
	}

	pollID, err := gonanoid.New()
	if err != nil {
		return nil, err
	}
	poll := &model.Poll{
		ID:        pollID,
		Question:  question,
		CreatedBy: model.NormalizeEmail(email),
		Timestamp: s.now(),
		CourseID:  courseID,
	}
	for _, t := range texts {
		optID, err := gonanoid.New()
		if err != nil {
			return nil, err
		}
		poll.Options = append(poll.Options, model.PollOption{ID: optID, Text: t, Voters: []string{}})
	}

	if err := cs.AddPoll(ctx, poll); err != nil {
		s.logger.Error("创建投票失败", zap.String("course_id", courseID), zap.Error(err))
		return nil, err
	}
	resp := toPollResponse(poll)
	return &resp, nil
}

func (s *pollService) Vote(ctx context.Context, email, courseID, pollID, optionID string) (*dto.PollResponse, error) {
	cs, err := memberSession(ctx, s.stores, email, courseID)
	if err != nil {
		return nil, err
	}

	poll, err := cs.GetPoll(ctx, courseID, pollID)
	if err != nil {
		return nil, err
	}
	if poll == nil {
		return nil, ErrPollNotFound
	}
	if poll.Option(optionID) == nil {
		return nil, ErrPollOptionNotFound
	}

	if err := cs.VoteOnPoll(ctx, courseID, pollID, optionID); err != nil {
		if errors.Is(err, store.ErrOptionNotFound) {
			return nil, ErrPollOptionNotFound
		}
		s.logger.Error("投票失败", zap.String("poll_id", pollID), zap.Error(err))
		return nil, err
	}

	updated, err := cs.GetPoll(ctx, courseID, pollID)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		// 投票期间被创建者删除
		return nil, ErrPollNotFound
	}
	resp := toPollResponse(updated)
	return &resp, nil
}

func (s *pollService) Delete(ctx context.Context, email, courseID, pollID string) error {
	cs, err := memberSession(ctx, s.stores, email, courseID)
	if err != nil {
		return err
	}

	poll, err := cs.GetPoll(ctx, courseID, pollID)
	if err != nil {
		return err
	}
	if poll == nil {
		return ErrPollNotFound
	}
	if poll.CreatedBy != model.NormalizeEmail(email) {
		return ErrNotOwner
	}

	if err := cs.RemovePoll(ctx, courseID, pollID); err != nil {
		s.logger.Error("删除投票失败", zap.String("poll_id", pollID), zap.Error(err))
		return err
	}
	return nil
}

func (s *pollService) ExportResults(ctx context.Context, email, courseID string) (*bytes.Buffer, string, error) {
	polls, err := s.List(ctx, email, courseID)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := writePollSheet(f, "Polls", polls); err != nil {
		s.logger.Error("生成投票结果工作表失败", zap.String("course_id", courseID), zap.Error(err))
		return nil, "", fmt.Errorf("%w: %v", ErrExportGenerateFail, err)
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}
	return buf, fmt.Sprintf("polls_%s.xlsx", courseID), nil
}

// writePollSheet 写入表头与每个选项一行，并设为活动工作表
func writePollSheet(f *excelize.File, sheet string, polls []dto.PollResponse) error {
	idx, err := f.NewSheet(sheet)
	if err != nil {
		return err
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return err
	}

	for _, w := range []struct {
		from, to string
		width    float64
	}{{"A", "A", 40}, {"B", "B", 30}, {"C", "D", 10}, {"E", "E", 28}} {
		if err := f.SetColWidth(sheet, w.from, w.to, w.width); err != nil {
			return err
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return err
	}

	header := []interface{}{"Question", "Option", "Votes", "Share", "Created By"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", "E1", headerStyle); err != nil {
		return err
	}

	row := 2
	for _, p := range polls {
		for _, o := range p.Options {
			share := 0.0
			if p.TotalVotes > 0 {
				share = float64(o.Count) / float64(p.TotalVotes)
			}
			values := []interface{}{p.Question, o.Text, o.Count, fmt.Sprintf("%.0f%%", share*100), p.CreatedBy}
			if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", row), &values); err != nil {
				return err
			}
			row++
		}
	}
	return nil
}

func toPollResponse(p *model.Poll) dto.PollResponse {
	opts := make([]dto.PollOptionResponse, 0, len(p.Options))
	for _, o := range p.Options {
		voters := o.Voters
		if voters == nil {
			voters = []string{}
		}
		opts = append(opts, dto.PollOptionResponse{
			ID:    o.ID,
			Text:  o.Text,
			Votes: voters,
			Count: len(voters),
		})
	}
	return dto.PollResponse{
		ID:         p.ID,
		Question:   p.Question,
		Options:    opts,
		CreatedBy:  p.CreatedBy,
		Timestamp:  p.Timestamp,
		CourseID:   p.CourseID,
		TotalVotes: p.TotalVotes(),
	}
}

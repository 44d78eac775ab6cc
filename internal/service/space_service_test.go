package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/jafrulamin/Class-Connect/internal/dto"
	"github.com/jafrulamin/Class-Connect/internal/store"
)

const (
	alice = "alice@hunter.cuny.edu"
	bob   = "bob@hunter.cuny.edu"
)

type spaceFixture struct {
	membership MembershipService
	chat       *chatService
	resource   *resourceService
	poll       *pollService
}

// setupSpace 本地存储 + 课程 aaa/bbb，alice 已加入 aaa
// 本地存储按用户隔离，只适合单用户场景
func setupSpace(t *testing.T) *spaceFixture {
	t.Helper()
	repo, _ := newRepoWithCourses(sampleCourses()...)
	logger := newTestLogger()
	return newSpaceFixture(t, store.NewLocalProvider(store.NewMemoryKV(), logger), NewCourseService(repo, logger))
}

// setupSharedSpace 远程存储（SQLite）+ 课程 aaa/bbb，alice 已加入 aaa
// 课程内容在成员之间共享
func setupSharedSpace(t *testing.T) *spaceFixture {
	t.Helper()
	repo := newSQLiteRepo(t)
	if err := repo.Course.Upsert(context.Background(), sampleCourses(), 0); err != nil {
		t.Fatalf("写入课程失败: %v", err)
	}
	logger := newTestLogger()
	return newSpaceFixture(t, store.NewRemoteProvider(repo, logger), NewCourseService(repo, logger))
}

func newSpaceFixture(t *testing.T, stores store.Provider, courses CourseService) *spaceFixture {
	t.Helper()
	logger := newTestLogger()
	f := &spaceFixture{
		membership: NewMembershipService(stores, courses, logger),
		chat:       NewChatService(stores, logger).(*chatService),
		resource:   NewResourceService(stores, logger).(*resourceService),
		poll:       NewPollService(stores, logger).(*pollService),
	}
	if err := f.membership.Join(context.Background(), alice, "aaa"); err != nil {
		t.Fatalf("加入课程失败: %v", err)
	}
	return f
}

// ── Membership ──

func TestMembership_JoinIdempotentAndListing(t *testing.T) {
	f := setupSpace(t)
	ctx := context.Background()

	if err := f.membership.Join(ctx, alice, "aaa"); err != nil {
		t.Fatalf("重复加入应成功，实际: %v", err)
	}
	if err := f.membership.Join(ctx, alice, "bbb"); err != nil {
		t.Fatalf("加入 bbb 失败: %v", err)
	}

	list, err := f.membership.ListMyCourses(ctx, alice)
	if err != nil {
		t.Fatalf("ListMyCourses 失败: %v", err)
	}
	if len(list) != 2 || list[0].ID != "aaa" || list[1].ID != "bbb" {
		t.Errorf("期望 [aaa bbb]，实际 %v", list)
	}
}

func TestMembership_JoinUnknownCourse(t *testing.T) {
	f := setupSpace(t)
	if err := f.membership.Join(context.Background(), alice, "nope"); !errors.Is(err, ErrCourseNotFound) {
		t.Errorf("期望 ErrCourseNotFound，实际 %v", err)
	}
}

func TestMembership_LeaveThenRejoinHasEmptyChat(t *testing.T) {
	f := setupSpace(t)
	ctx := context.Background()

	if _, err := f.chat.Send(ctx, alice, "aaa", &dto.SendMessageRequest{Text: "hello"}); err != nil {
		t.Fatalf("发送消息失败: %v", err)
	}
	if err := f.membership.Leave(ctx, alice, "aaa"); err != nil {
		t.Fatalf("退出课程失败: %v", err)
	}
	if _, err := f.chat.List(ctx, alice, "aaa"); !errors.Is(err, ErrNotMember) {
		t.Errorf("退出后读取消息期望 ErrNotMember，实际 %v", err)
	}

	if err := f.membership.Join(ctx, alice, "aaa"); err != nil {
		t.Fatalf("重新加入失败: %v", err)
	}
	msgs, err := f.chat.List(ctx, alice, "aaa")
	if err != nil {
		t.Fatalf("读取消息失败: %v", err)
	}
	if len(msgs) != 0 {
		t.Errorf("重新加入后期望空消息列表，实际 %d 条", len(msgs))
	}
}

// ── Chat ──

func TestChat_SendAndList(t *testing.T) {
	f := setupSpace(t)
	ctx := context.Background()

	base := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	f.chat.now = func() time.Time { return base }
	if _, err := f.chat.Send(ctx, alice, "aaa", &dto.SendMessageRequest{Text: "  first  "}); err != nil {
		t.Fatalf("发送失败: %v", err)
	}
	f.chat.now = func() time.Time { return base.Add(90 * time.Second) }
	last, err := f.chat.Send(ctx, alice, "aaa", &dto.SendMessageRequest{Text: "second"})
	if err != nil {
		t.Fatalf("发送失败: %v", err)
	}
	if last.ID == "" {
		t.Error("消息 ID 不应为空")
	}

	msgs, err := f.chat.List(ctx, alice, "aaa")
	if err != nil {
		t.Fatalf("List 失败: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("期望 2 条消息，实际 %d", len(msgs))
	}
	if msgs[0].Text != "first" {
		t.Errorf("期望首条消息被去除首尾空白，实际 %q", msgs[0].Text)
	}
	if msgs[0].TimeLabel != "2 minutes ago" {
		t.Errorf("期望 \"2 minutes ago\"，实际 %q", msgs[0].TimeLabel)
	}
	if msgs[1].TimeLabel != "Just now" {
		t.Errorf("期望 \"Just now\"，实际 %q", msgs[1].TimeLabel)
	}

	got, err := f.chat.Last(ctx, alice, "aaa")
	if err != nil || got == nil || got.Text != "second" {
		t.Errorf("Last 期望 second，实际 %v, err=%v", got, err)
	}
}

func TestChat_Rejects(t *testing.T) {
	f := setupSpace(t)
	ctx := context.Background()

	if _, err := f.chat.Send(ctx, alice, "aaa", &dto.SendMessageRequest{Text: "   "}); !errors.Is(err, ErrEmptyMessage) {
		t.Errorf("期望 ErrEmptyMessage，实际 %v", err)
	}
	if _, err := f.chat.Send(ctx, bob, "aaa", &dto.SendMessageRequest{Text: "hi"}); !errors.Is(err, ErrNotMember) {
		t.Errorf("未加入课程期望 ErrNotMember，实际 %v", err)
	}
	got, err := f.chat.Last(ctx, alice, "aaa")
	if err != nil || got != nil {
		t.Errorf("无消息时 Last 期望 nil，实际 %v, err=%v", got, err)
	}
}

func TestChat_SharedBetweenMembers(t *testing.T) {
	f := setupSharedSpace(t)
	ctx := context.Background()

	if _, err := f.chat.Send(ctx, alice, "aaa", &dto.SendMessageRequest{Text: "hello"}); err != nil {
		t.Fatalf("发送失败: %v", err)
	}
	if err := f.membership.Join(ctx, bob, "aaa"); err != nil {
		t.Fatalf("bob 加入课程失败: %v", err)
	}
	msgs, err := f.chat.List(ctx, bob, "aaa")
	if err != nil {
		t.Fatalf("List 失败: %v", err)
	}
	if len(msgs) != 1 || msgs[0].Sender != alice {
		t.Errorf("bob 期望看到 alice 的 1 条消息，实际 %v", msgs)
	}

	// 远程存储退出只删除成员关系，消息保留给其他成员
	if err := f.membership.Leave(ctx, alice, "aaa"); err != nil {
		t.Fatalf("退出课程失败: %v", err)
	}
	msgs, _ = f.chat.List(ctx, bob, "aaa")
	if len(msgs) != 1 {
		t.Errorf("alice 退出后 bob 期望仍有 1 条消息，实际 %d", len(msgs))
	}
}

func TestLocalStore_ContentIsPerUser(t *testing.T) {
	f := setupSpace(t)
	ctx := context.Background()

	if _, err := f.chat.Send(ctx, alice, "aaa", &dto.SendMessageRequest{Text: "hello"}); err != nil {
		t.Fatalf("发送失败: %v", err)
	}
	if err := f.membership.Join(ctx, bob, "aaa"); err != nil {
		t.Fatalf("bob 加入课程失败: %v", err)
	}
	msgs, err := f.chat.List(ctx, bob, "aaa")
	if err != nil {
		t.Fatalf("List 失败: %v", err)
	}
	if len(msgs) != 0 {
		t.Errorf("本地存储按用户隔离，bob 期望 0 条消息，实际 %d", len(msgs))
	}
}

// ── Resources ──

func TestResource_AddListDelete(t *testing.T) {
	f := setupSharedSpace(t)
	ctx := context.Background()
	if err := f.membership.Join(ctx, bob, "aaa"); err != nil {
		t.Fatalf("bob 加入课程失败: %v", err)
	}

	res, err := f.resource.Add(ctx, alice, "aaa", &dto.AddResourceRequest{Title: " Syllabus ", URL: "https://example.edu/syllabus.pdf"})
	if err != nil {
		t.Fatalf("添加资源失败: %v", err)
	}
	if res.Description != nil {
		t.Error("空描述应保持缺省")
	}

	list, err := f.resource.List(ctx, bob, "aaa")
	if err != nil || len(list) != 1 {
		t.Fatalf("期望 1 条资源，实际 %v, err=%v", list, err)
	}
	if list[0].Title != "Syllabus" || list[0].Description != nil {
		t.Errorf("资源往返后字段不一致: %+v", list[0])
	}

	if err := f.resource.Delete(ctx, bob, "aaa", res.ID); !errors.Is(err, ErrNotOwner) {
		t.Errorf("非创建者删除期望 ErrNotOwner，实际 %v", err)
	}
	if err := f.resource.Delete(ctx, alice, "aaa", res.ID); err != nil {
		t.Fatalf("创建者删除失败: %v", err)
	}
	if err := f.resource.Delete(ctx, alice, "aaa", res.ID); !errors.Is(err, ErrResourceNotFound) {
		t.Errorf("重复删除期望 ErrResourceNotFound，实际 %v", err)
	}
}

func TestResource_Validation(t *testing.T) {
	f := setupSpace(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		req     dto.AddResourceRequest
		wantErr error
	}{
		{"标题为空", dto.AddResourceRequest{Title: " ", URL: "https://x.edu"}, ErrResourceInvalid},
		{"非 http 链接", dto.AddResourceRequest{Title: "t", URL: "javascript:alert(1)"}, ErrResourceBadURL},
		{"缺少主机", dto.AddResourceRequest{Title: "t", URL: "https://"}, ErrResourceBadURL},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.resource.Add(ctx, alice, "aaa", &tt.req); !errors.Is(err, tt.wantErr) {
				t.Errorf("期望 %v，实际 %v", tt.wantErr, err)
			}
		})
	}

	res, err := f.resource.Add(ctx, alice, "aaa", &dto.AddResourceRequest{Title: "t", URL: "http://x.edu", Description: " notes "})
	if err != nil {
		t.Fatalf("添加资源失败: %v", err)
	}
	if res.Description == nil || *res.Description != "notes" {
		t.Errorf("描述应去除首尾空白，实际 %v", res.Description)
	}
}

// ── Polls ──

func TestPoll_CreateVoteDelete(t *testing.T) {
	f := setupSharedSpace(t)
	ctx := context.Background()
	if err := f.membership.Join(ctx, bob, "aaa"); err != nil {
		t.Fatalf("bob 加入课程失败: %v", err)
	}

	p, err := f.poll.Create(ctx, alice, "aaa", &dto.CreatePollRequest{
		Question: "Midterm date?",
		Options:  []string{"Mon", " ", "Wed"},
	})
	if err != nil {
		t.Fatalf("创建投票失败: %v", err)
	}
	if len(p.Options) != 2 {
		t.Fatalf("空白选项应被丢弃，期望 2 个选项，实际 %d", len(p.Options))
	}
	mon, wed := p.Options[0].ID, p.Options[1].ID

	// 单选：改票后只保留最后一次选择
	for _, opt := range []string{mon, wed, wed} {
		if _, err := f.poll.Vote(ctx, bob, "aaa", p.ID, opt); err != nil {
			t.Fatalf("投票失败: %v", err)
		}
	}
	got, err := f.poll.Vote(ctx, alice, "aaa", p.ID, wed)
	if err != nil {
		t.Fatalf("投票失败: %v", err)
	}
	if got.TotalVotes != 2 {
		t.Errorf("期望总票数 2，实际 %d", got.TotalVotes)
	}
	if got.Options[0].Count != 0 || got.Options[1].Count != 2 {
		t.Errorf("期望票数 [0 2]，实际 [%d %d]", got.Options[0].Count, got.Options[1].Count)
	}

	if _, err := f.poll.Vote(ctx, bob, "aaa", p.ID, "nope"); !errors.Is(err, ErrPollOptionNotFound) {
		t.Errorf("期望 ErrPollOptionNotFound，实际 %v", err)
	}
	if _, err := f.poll.Vote(ctx, bob, "aaa", "nope", mon); !errors.Is(err, ErrPollNotFound) {
		t.Errorf("期望 ErrPollNotFound，实际 %v", err)
	}

	if err := f.poll.Delete(ctx, bob, "aaa", p.ID); !errors.Is(err, ErrNotOwner) {
		t.Errorf("非创建者删除期望 ErrNotOwner，实际 %v", err)
	}
	if err := f.poll.Delete(ctx, alice, "aaa", p.ID); err != nil {
		t.Fatalf("删除投票失败: %v", err)
	}
	list, _ := f.poll.List(ctx, alice, "aaa")
	if len(list) != 0 {
		t.Errorf("删除后期望空列表，实际 %d", len(list))
	}
}

func TestPoll_CreateValidation(t *testing.T) {
	f := setupSpace(t)
	ctx := context.Background()

	if _, err := f.poll.Create(ctx, alice, "aaa", &dto.CreatePollRequest{Question: "Q", Options: []string{"only", "  "}}); !errors.Is(err, ErrPollTooFewOptions) {
		t.Errorf("期望 ErrPollTooFewOptions，实际 %v", err)
	}
	if _, err := f.poll.Create(ctx, alice, "aaa", &dto.CreatePollRequest{Question: " ", Options: []string{"a", "b"}}); !errors.Is(err, ErrPollQuestionRequired) {
		t.Errorf("期望 ErrPollQuestionRequired，实际 %v", err)
	}
}

func TestPoll_ExportResults(t *testing.T) {
	f := setupSpace(t)
	ctx := context.Background()

	p, err := f.poll.Create(ctx, alice, "aaa", &dto.CreatePollRequest{Question: "Q", Options: []string{"A", "B"}})
	if err != nil {
		t.Fatalf("创建投票失败: %v", err)
	}
	if _, err := f.poll.Vote(ctx, alice, "aaa", p.ID, p.Options[1].ID); err != nil {
		t.Fatalf("投票失败: %v", err)
	}

	buf, filename, err := f.poll.ExportResults(ctx, alice, "aaa")
	if err != nil {
		t.Fatalf("导出失败: %v", err)
	}
	if filename != "polls_aaa.xlsx" {
		t.Errorf("文件名不符: %s", filename)
	}

	x, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatalf("导出文件无法打开: %v", err)
	}
	defer x.Close()
	rows, err := x.GetRows("Polls")
	if err != nil {
		t.Fatalf("读取工作表失败: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("期望表头 + 2 行，实际 %d 行", len(rows))
	}
	if rows[2][1] != "B" || rows[2][2] != "1" || rows[2][3] != "100%" {
		t.Errorf("第二个选项行不符: %v", rows[2])
	}
}

func TestWritePollSheet_ReportsExcelErrors(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	if err := writePollSheet(f, "Bad:Sheet", nil); !errors.Is(err, excelize.ErrSheetNameInvalid) {
		t.Errorf("非法工作表名期望 ErrSheetNameInvalid，实际 %v", err)
	}

	polls := []dto.PollResponse{{
		Question:   "Q",
		CreatedBy:  alice,
		TotalVotes: 0,
		Options:    []dto.PollOptionResponse{{Text: "A"}, {Text: "B"}},
	}}
	if err := writePollSheet(f, "Polls", polls); err != nil {
		t.Fatalf("写入工作表失败: %v", err)
	}
	rows, err := f.GetRows("Polls")
	if err != nil {
		t.Fatalf("读取工作表失败: %v", err)
	}
	if len(rows) != 3 || rows[0][0] != "Question" || rows[1][3] != "0%" {
		t.Errorf("工作表内容不符: %v", rows)
	}
}

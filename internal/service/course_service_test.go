package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/jafrulamin/Class-Connect/internal/model"
)

func sampleCourses() []model.Course {
	return []model.Course{
		{
			ID: "aaa", TermCode: "1259", CollegeCode: strPtr("HTR01"), Subject: strPtr("CSCI"),
			CatalogNumber: strPtr("135"), Title: strPtr("Software Analysis and Design I"),
			Days: strPtr("MoWe"), StartTime: strPtr("10:00AM"), EndTime: strPtr("11:15AM"),
			Location: strPtr("HN 1001"), Instructor: "Smith",
		},
		{
			ID: "bbb", TermCode: "1259", CollegeCode: strPtr("BAR01"), CourseCode: strPtr("ACC 2101"),
			Instructor: "",
		},
		{
			ID: "ccc", TermCode: "1259", CollegeCode: strPtr("XYZ02"), Subject: strPtr("MATH"),
			CatalogNumber: strPtr("150"), CourseCode: strPtr("MATH-150-LEGACY"), Title: strPtr("Calculus"),
			Instructor: "Lee",
		},
	}
}

func TestNormalizeCourse(t *testing.T) {
	courses := sampleCourses()

	tests := []struct {
		name           string
		course         model.Course
		wantName       string
		wantCode       string
		wantInstructor string
		wantCollege    string
	}{
		{"结构化字段优先", courses[0], "Software Analysis and Design I", "CSCI 135", "Smith", "hunter"},
		{"仅有旧版 course_code", courses[1], "ACC 2101", "ACC 2101", "TBA", "baruch"},
		{"catalog_number 优先于 course_code", courses[2], "Calculus", "MATH 150", "Lee", "xyz"},
		{"全部缺省", model.Course{ID: "x"}, "", "", "TBA", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeCourse(&tt.course)
			if got.Name != tt.wantName {
				t.Errorf("Name: 期望 %q，实际 %q", tt.wantName, got.Name)
			}
			if got.Code != tt.wantCode {
				t.Errorf("Code: 期望 %q，实际 %q", tt.wantCode, got.Code)
			}
			if got.Instructor != tt.wantInstructor {
				t.Errorf("Instructor: 期望 %q，实际 %q", tt.wantInstructor, got.Instructor)
			}
			if got.CollegeID != tt.wantCollege {
				t.Errorf("CollegeID: 期望 %q，实际 %q", tt.wantCollege, got.CollegeID)
			}
		})
	}
}

func TestListCourses_FailsSoft(t *testing.T) {
	repo, cr := newRepoWithCourses(sampleCourses()...)
	cr.err = errBackend
	svc := NewCourseService(repo, newTestLogger())

	got := svc.ListCourses(context.Background())
	if got == nil || len(got) != 0 {
		t.Errorf("读取失败时期望空列表（非 nil），实际 %v", got)
	}
}

func TestGetCourseByID(t *testing.T) {
	repo, _ := newRepoWithCourses(sampleCourses()...)
	svc := NewCourseService(repo, newTestLogger())
	ctx := context.Background()

	c, err := svc.GetCourseByID(ctx, "aaa")
	if err != nil || c == nil {
		t.Fatalf("期望查到课程，实际 %v, err=%v", c, err)
	}
	if c.Code != "CSCI 135" {
		t.Errorf("期望 CSCI 135，实际 %s", c.Code)
	}

	c, err = svc.GetCourseByID(ctx, "missing")
	if err != nil || c != nil {
		t.Errorf("不存在时期望 nil, nil，实际 %v, %v", c, err)
	}
}

func TestSearch(t *testing.T) {
	repo, _ := newRepoWithCourses(sampleCourses()...)
	svc := NewCourseService(repo, newTestLogger())
	ctx := context.Background()

	if got := svc.ListByCollege(ctx, "hunter"); len(got) != 1 || got[0].ID != "aaa" {
		t.Errorf("按学院过滤期望 [aaa]，实际 %v", got)
	}
	if got := svc.Search(ctx, "", "calc"); len(got) != 1 || got[0].ID != "ccc" {
		t.Errorf("按名称搜索期望 [ccc]，实际 %v", got)
	}
	if got := svc.Search(ctx, "", "acc 2101"); len(got) != 1 || got[0].ID != "bbb" {
		t.Errorf("按代码搜索期望 [bbb]，实际 %v", got)
	}
	if got := svc.Search(ctx, "hunter", "calc"); len(got) != 0 {
		t.Errorf("学院与关键词同时过滤期望空，实际 %v", got)
	}
}

func TestListByIDs_PreservesOrderAndSkipsMissing(t *testing.T) {
	repo, _ := newRepoWithCourses(sampleCourses()...)
	svc := NewCourseService(repo, newTestLogger())

	got, err := svc.ListByIDs(context.Background(), []string{"ccc", "gone", "aaa"})
	if err != nil {
		t.Fatalf("ListByIDs 失败: %v", err)
	}
	if len(got) != 2 || got[0].ID != "ccc" || got[1].ID != "aaa" {
		t.Errorf("期望 [ccc aaa]，实际 %v", got)
	}
}

func TestColleges(t *testing.T) {
	repo, _ := newRepoWithCourses()
	svc := NewCourseService(repo, newTestLogger())

	if n := len(svc.ListColleges()); n != 21 {
		t.Errorf("期望 21 所学院，实际 %d", n)
	}
	c, err := svc.GetCollege("hunter")
	if err != nil || c.Name != "Hunter College" {
		t.Errorf("期望 Hunter College，实际 %v, err=%v", c, err)
	}
	if _, err := svc.GetCollege("nowhere"); !errors.Is(err, ErrCollegeNotFound) {
		t.Errorf("期望 ErrCollegeNotFound，实际 %v", err)
	}
}

func TestExportCalendar(t *testing.T) {
	repo, _ := newRepoWithCourses(sampleCourses()...)
	svc := NewCourseService(repo, newTestLogger())
	ctx := context.Background()

	// 2025-09-02 为周二，首次上课应为周三
	from := time.Date(2025, 9, 2, 15, 0, 0, 0, time.UTC)
	data, filename, err := svc.ExportCalendar(ctx, "aaa", from)
	if err != nil {
		t.Fatalf("ExportCalendar 失败: %v", err)
	}
	if filename != "CSCI_135.ics" {
		t.Errorf("期望文件名 CSCI_135.ics，实际 %s", filename)
	}

	cal, err := ics.ParseCalendar(strings.NewReader(string(data)))
	if err != nil {
		t.Fatalf("生成的日历无法解析: %v", err)
	}
	events := cal.Events()
	if len(events) != 1 {
		t.Fatalf("期望 1 个事件，实际 %d", len(events))
	}
	evt := events[0]

	if v := evt.GetProperty(ics.ComponentPropertyDtStart).Value; v != "20250903T100000" {
		t.Errorf("DTSTART 期望 20250903T100000，实际 %s", v)
	}
	if v := evt.GetProperty(ics.ComponentPropertyDtEnd).Value; v != "20250903T111500" {
		t.Errorf("DTEND 期望 20250903T111500，实际 %s", v)
	}
	if v := evt.GetProperty(ics.ComponentPropertyRrule).Value; v != "FREQ=WEEKLY;BYDAY=MO,WE;COUNT=30" {
		t.Errorf("RRULE 不符，实际 %s", v)
	}
	if v := evt.GetProperty(ics.ComponentPropertySummary).Value; !strings.Contains(v, "CSCI 135") {
		t.Errorf("SUMMARY 应包含课程代码，实际 %s", v)
	}
}

func TestExportCalendar_Errors(t *testing.T) {
	repo, _ := newRepoWithCourses(sampleCourses()...)
	svc := NewCourseService(repo, newTestLogger())
	ctx := context.Background()

	if _, _, err := svc.ExportCalendar(ctx, "missing", time.Now()); !errors.Is(err, ErrCourseNotFound) {
		t.Errorf("期望 ErrCourseNotFound，实际 %v", err)
	}
	if _, _, err := svc.ExportCalendar(ctx, "bbb", time.Now()); !errors.Is(err, ErrCourseNoSchedule) {
		t.Errorf("期望 ErrCourseNoSchedule，实际 %v", err)
	}
}

func TestParseMeetingDays(t *testing.T) {
	tests := []struct {
		in   string
		want []time.Weekday
	}{
		{"MoWe", []time.Weekday{time.Monday, time.Wednesday}},
		{"ThTu", []time.Weekday{time.Tuesday, time.Thursday}},
		{"SuMo", []time.Weekday{time.Monday, time.Sunday}},
		{"TBA", nil},
		{"", nil},
	}
	for _, tt := range tests {
		got := parseMeetingDays(tt.in)
		if len(got) != len(tt.want) {
			t.Errorf("parseMeetingDays(%q): 期望 %v，实际 %v", tt.in, tt.want, got)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("parseMeetingDays(%q): 期望 %v，实际 %v", tt.in, tt.want, got)
				break
			}
		}
	}
}

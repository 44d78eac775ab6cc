package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/jafrulamin/Class-Connect/internal/dto"
	"github.com/jafrulamin/Class-Connect/internal/model"
	"github.com/jafrulamin/Class-Connect/internal/repository"
)

var (
	ErrCourseNotFound   = errors.New("课程不存在")
	ErrCourseNoSchedule = errors.New("课程没有固定上课时间")
	ErrCollegeNotFound  = errors.New("学院不存在")
)

const (
	campusTimezone = "America/New_York"
	termWeeks      = 15
)

// CourseService 课程目录读取
// 读路径失败时降级为空列表，不向调用方抛错
type CourseService interface {
	ListCourses(ctx context.Context) []dto.CourseResponse
	// GetCourseByID 主键查询；不存在时返回 nil, nil
	GetCourseByID(ctx context.Context, id string) (*dto.CourseResponse, error)
	ListByCollege(ctx context.Context, collegeID string) []dto.CourseResponse
	Search(ctx context.Context, collegeID, q string) []dto.CourseResponse
	// ListByIDs 按传入顺序返回存在的课程，忽略目录中不存在的 ID
	ListByIDs(ctx context.Context, ids []string) ([]dto.CourseResponse, error)
	ListColleges() []dto.CollegeResponse
	GetCollege(id string) (*dto.CollegeResponse, error)
	// ExportCalendar 生成课程每周上课时间的 iCalendar，from 之后的首次上课为起点
	ExportCalendar(ctx context.Context, id string, from time.Time) ([]byte, string, error)
}

type courseService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewCourseService 创建 CourseService 实例
func NewCourseService(repo *repository.Repository, logger *zap.Logger) CourseService {
	return &courseService{repo: repo, logger: logger}
}

func (s *courseService) ListCourses(ctx context.Context) []dto.CourseResponse {
	courses, err := s.repo.Course.List(ctx)
	if err != nil {
		s.logger.Error("读取课程目录失败，返回空列表", zap.Error(err))
		return []dto.CourseResponse{}
	}
	out := make([]dto.CourseResponse, 0, len(courses))
	for i := range courses {
		out = append(out, NormalizeCourse(&courses[i]))
	}
	return out
}

func (s *courseService) GetCourseByID(ctx context.Context, id string) (*dto.CourseResponse, error) {
	course, err := s.repo.Course.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		s.logger.Error("查询课程失败", zap.String("course_id", id), zap.Error(err))
		return nil, err
	}
	resp := NormalizeCourse(course)
	return &resp, nil
}

func (s *courseService) ListByCollege(ctx context.Context, collegeID string) []dto.CourseResponse {
	return s.Search(ctx, collegeID, "")
}

func (s *courseService) Search(ctx context.Context, collegeID, q string) []dto.CourseResponse {
	all := s.ListCourses(ctx)
	q = strings.ToLower(strings.TrimSpace(q))

	out := make([]dto.CourseResponse, 0, len(all))
	for _, c := range all {
		if collegeID != "" && c.CollegeID != collegeID {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(c.Name), q) &&
			!strings.Contains(strings.ToLower(c.Code), q) {
			continue
		}
		out = append(out, c)
	}
	return out
}

func (s *courseService) ListByIDs(ctx context.Context, ids []string) ([]dto.CourseResponse, error) {
	courses, err := s.repo.Course.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*model.Course, len(courses))
	for i := range courses {
		byID[courses[i].ID] = &courses[i]
	}

	out := make([]dto.CourseResponse, 0, len(ids))
	for _, id := range ids {
		if c, ok := byID[id]; ok {
			out = append(out, NormalizeCourse(c))
		}
	}
	return out, nil
}

func (s *courseService) ListColleges() []dto.CollegeResponse {
	list := model.Colleges()
	out := make([]dto.CollegeResponse, 0, len(list))
	for _, c := range list {
		out = append(out, toCollegeResponse(c))
	}
	return out
}

func (s *courseService) GetCollege(id string) (*dto.CollegeResponse, error) {
	c, ok := model.CollegeByID(id)
	if !ok {
		return nil, ErrCollegeNotFound
	}
	resp := toCollegeResponse(c)
	return &resp, nil
}

func (s *courseService) ExportCalendar(ctx context.Context, id string, from time.Time) ([]byte, string, error) {
	course, err := s.repo.Course.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrCourseNotFound
		}
		return nil, "", err
	}

	days := parseMeetingDays(deref(course.Days))
	startClock, okStart := parseClock(deref(course.StartTime))
	endClock, okEnd := parseClock(deref(course.EndTime))
	if len(days) == 0 || !okStart || !okEnd {
		return nil, "", ErrCourseNoSchedule
	}

	loc, err := time.LoadLocation(campusTimezone)
	if err != nil {
		s.logger.Warn("加载校区时区失败，使用 UTC", zap.Error(err))
		loc = time.UTC
	}
	first := firstMeeting(from.In(loc), days)
	start := time.Date(first.Year(), first.Month(), first.Day(), startClock.hour, startClock.minute, 0, 0, loc)
	end := time.Date(first.Year(), first.Month(), first.Day(), endClock.hour, endClock.minute, 0, 0, loc)

	norm := NormalizeCourse(course)
	tzid := &ics.KeyValues{Key: string(ics.ParameterTzid), Value: []string{campusTimezone}}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//Class Connect//Course Calendar//EN")

	event := cal.AddEvent(course.ID + "@class-connect")
	event.SetDtStampTime(time.Now())
	event.SetProperty(ics.ComponentPropertyDtStart, start.Format("20060102T150405"), tzid)
	event.SetProperty(ics.ComponentPropertyDtEnd, end.Format("20060102T150405"), tzid)
	event.SetSummary(strings.TrimSpace(norm.Code + " " + norm.Name))
	if room := deref(course.Location); room != "" {
		event.SetLocation(room)
	}
	event.SetDescription("Instructor: " + norm.Instructor)
	event.AddProperty(ics.ComponentPropertyRrule, fmt.Sprintf("FREQ=WEEKLY;BYDAY=%s;COUNT=%d", icsDays(days), termWeeks*len(days)))

	filename := fmt.Sprintf("%s.ics", strings.ReplaceAll(strings.TrimSpace(norm.Code), " ", "_"))
	if norm.Code == "" {
		filename = course.ID + ".ics"
	}
	return []byte(cal.Serialize()), filename, nil
}

// ── 规范化 ──

// NormalizeCourse 原始课程记录 → 对外课程形态
//
//	name = title → course_code → ""
//	code = subject + " " + catalog_number（有 catalog_number 时）→ course_code → ""
func NormalizeCourse(c *model.Course) dto.CourseResponse {
	name := firstNonEmpty(deref(c.Title), deref(c.CourseCode))

	code := deref(c.CourseCode)
	if catalog := strings.TrimSpace(deref(c.CatalogNumber)); catalog != "" {
		code = strings.TrimSpace(deref(c.Subject) + " " + catalog)
	}

	instructor := strings.TrimSpace(c.Instructor)
	if instructor == "" {
		instructor = "TBA"
	}

	return dto.CourseResponse{
		ID:              c.ID,
		Name:            name,
		Code:            code,
		Instructor:      instructor,
		Students:        c.Students,
		CollegeID:       model.CollegeIDFromCode(deref(c.CollegeCode)),
		CollegeName:     deref(c.CollegeName),
		TermCode:        c.TermCode,
		Section:         deref(c.Section),
		Days:            deref(c.Days),
		StartTime:       deref(c.StartTime),
		EndTime:         deref(c.EndTime),
		Location:        deref(c.Location),
		Status:          deref(c.Status),
		InstructionMode: deref(c.InstructionMode),
	}
}

func toCollegeResponse(c model.College) dto.CollegeResponse {
	return dto.CollegeResponse{
		ID:           c.ID,
		Name:         c.Name,
		Abbreviation: c.Abbreviation,
		Domain:       c.Domain,
	}
}

// ── 上课时间解析 ──

var dayAbbrev = map[string]time.Weekday{
	"Mo": time.Monday,
	"Tu": time.Tuesday,
	"We": time.Wednesday,
	"Th": time.Thursday,
	"Fr": time.Friday,
	"Sa": time.Saturday,
	"Su": time.Sunday,
}

var icsDayNames = map[time.Weekday]string{
	time.Monday:    "MO",
	time.Tuesday:   "TU",
	time.Wednesday: "WE",
	time.Thursday:  "TH",
	time.Friday:    "FR",
	time.Saturday:  "SA",
	time.Sunday:    "SU",
}

// parseMeetingDays "MoWe" → [Monday, Wednesday]；无法识别时返回空
func parseMeetingDays(s string) []time.Weekday {
	s = strings.TrimSpace(s)
	if len(s) < 2 || len(s)%2 != 0 {
		return nil
	}
	seen := make(map[time.Weekday]bool)
	var days []time.Weekday
	for i := 0; i < len(s); i += 2 {
		d, ok := dayAbbrev[s[i:i+2]]
		if !ok {
			return nil
		}
		if !seen[d] {
			seen[d] = true
			days = append(days, d)
		}
	}
	// 周一为一周第一天
	sort.Slice(days, func(i, j int) bool { return (days[i]+6)%7 < (days[j]+6)%7 })
	return days
}

type clock struct{ hour, minute int }

// parseClock 支持 "10:00AM" 与 "15:04"
func parseClock(s string) (clock, bool) {
	s = strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), " ", ""))
	for _, layout := range []string{"3:04PM", "15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return clock{hour: t.Hour(), minute: t.Minute()}, true
		}
	}
	return clock{}, false
}

// firstMeeting from 当天及之后的第一个上课日
func firstMeeting(from time.Time, days []time.Weekday) time.Time {
	for i := 0; i < 7; i++ {
		d := from.AddDate(0, 0, i)
		for _, wd := range days {
			if d.Weekday() == wd {
				return d
			}
		}
	}
	return from
}

func icsDays(days []time.Weekday) string {
	names := make([]string, len(days))
	for i, d := range days {
		names[i] = icsDayNames[d]
	}
	return strings.Join(names, ",")
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(*p)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

package service

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/jafrulamin/Class-Connect/internal/dto"
	"github.com/jafrulamin/Class-Connect/internal/model"
	"github.com/jafrulamin/Class-Connect/internal/repository"
)

const (
	// ImportBatchSize 每批 upsert 的记录数
	ImportBatchSize = 450
	courseIDLength  = 12
)

// ImportService 课程目录导入
// 课程 ID 由 (term, college, subject, catalog, section) 确定性生成，重复导入即更新
type ImportService interface {
	Import(ctx context.Context, term string, records []dto.CourseRecord) (*dto.ImportResult, error)
}

type importService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewImportService 创建 ImportService 实例
func NewImportService(repo *repository.Repository, logger *zap.Logger) ImportService {
	return &importService{repo: repo, logger: logger}
}

// CourseID md5(term:college:subject:catalog:section) 的前 12 位十六进制
func CourseID(term, college, subject, catalogNumber, section string) string {
	base := strings.Join([]string{term, college, subject, catalogNumber, section}, ":")
	sum := md5.Sum([]byte(base))
	return hex.EncodeToString(sum[:])[:courseIDLength]
}

func (s *importService) Import(ctx context.Context, term string, records []dto.CourseRecord) (*dto.ImportResult, error) {
	result := &dto.ImportResult{Total: len(records)}

	// 同一批次内重复的 ID 以最后一条为准
	index := make(map[string]int, len(records))
	courses := make([]model.Course, 0, len(records))
	for _, r := range records {
		if r.CollegeCode == "" && r.Subject == "" && r.CatalogNumber == "" && r.Section == "" && r.CourseCode == "" {
			result.Skipped++
			continue
		}
		c := toCourseModel(term, r)
		if i, ok := index[c.ID]; ok {
			courses[i] = c
			continue
		}
		index[c.ID] = len(courses)
		courses = append(courses, c)
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("开启导入事务失败: %w", err)
	}
	if err := s.repo.WithTx(tx).Course.Upsert(ctx, courses, ImportBatchSize); err != nil {
		tx.Rollback()
		s.logger.Error("课程导入失败", zap.String("term", term), zap.Error(err))
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("提交导入事务失败: %w", err)
	}

	result.Imported = len(courses)
	s.logger.Info("课程导入完成",
		zap.String("term", term),
		zap.Int("total", result.Total),
		zap.Int("imported", result.Imported),
		zap.Int("skipped", result.Skipped),
	)
	return result, nil
}

func toCourseModel(term string, r dto.CourseRecord) model.Course {
	instructor := strings.TrimSpace(r.Instructor)
	if instructor == "" {
		instructor = "TBA"
	}
	return model.Course{
		ID:              CourseID(term, r.CollegeCode, r.Subject, r.CatalogNumber, r.Section),
		TermCode:        term,
		CollegeCode:     nullable(r.CollegeCode),
		CollegeName:     nullable(r.CollegeName),
		Subject:         nullable(r.Subject),
		SubjectName:     nullable(r.SubjectName),
		CourseCode:      nullable(r.CourseCode),
		CatalogNumber:   nullable(r.CatalogNumber),
		ClassNumber:     nullable(r.ClassNumber),
		Section:         nullable(r.Section),
		Title:           nullable(r.Title),
		Days:            nullable(r.Days),
		StartTime:       nullable(r.StartTime),
		EndTime:         nullable(r.EndTime),
		RawDaysTimes:    nullable(r.RawDaysTimes),
		Location:        nullable(r.Location),
		Instructor:      instructor,
		Status:          nullable(r.Status),
		InstructionMode: nullable(r.InstructionMode),
	}
}

func nullable(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// ── 读取器 ──

// ParseCourseJSON 读取抓取脚本输出的 JSON 数组
func ParseCourseJSON(r io.Reader) ([]dto.CourseRecord, error) {
	var records []dto.CourseRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("解析课程 JSON 失败: %w", err)
	}
	return records, nil
}

// xlsxColumns 表头（小写、去空格与下划线）→ 字段写入函数
var xlsxColumns = map[string]func(*dto.CourseRecord, string){
	"collegecode":     func(r *dto.CourseRecord, v string) { r.CollegeCode = v },
	"collegename":     func(r *dto.CourseRecord, v string) { r.CollegeName = v },
	"subject":         func(r *dto.CourseRecord, v string) { r.Subject = v },
	"subjectname":     func(r *dto.CourseRecord, v string) { r.SubjectName = v },
	"coursecode":      func(r *dto.CourseRecord, v string) { r.CourseCode = v },
	"catalognumber":   func(r *dto.CourseRecord, v string) { r.CatalogNumber = v },
	"classnumber":     func(r *dto.CourseRecord, v string) { r.ClassNumber = v },
	"section":         func(r *dto.CourseRecord, v string) { r.Section = v },
	"title":           func(r *dto.CourseRecord, v string) { r.Title = v },
	"days":            func(r *dto.CourseRecord, v string) { r.Days = v },
	"starttime":       func(r *dto.CourseRecord, v string) { r.StartTime = v },
	"endtime":         func(r *dto.CourseRecord, v string) { r.EndTime = v },
	"rawdaystimes":    func(r *dto.CourseRecord, v string) { r.RawDaysTimes = v },
	"location":        func(r *dto.CourseRecord, v string) { r.Location = v },
	"instructor":      func(r *dto.CourseRecord, v string) { r.Instructor = v },
	"status":          func(r *dto.CourseRecord, v string) { r.Status = v },
	"instructionmode": func(r *dto.CourseRecord, v string) { r.InstructionMode = v },
}

// ParseCourseXLSX 读取第一个工作表：首行为表头，未知列忽略，空行跳过
func ParseCourseXLSX(r io.Reader) ([]dto.CourseRecord, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("打开 Excel 失败: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("读取工作表失败: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	setters := make([]func(*dto.CourseRecord, string), len(rows[0]))
	for i, h := range rows[0] {
		key := strings.ToLower(strings.NewReplacer(" ", "", "_", "").Replace(strings.TrimSpace(h)))
		setters[i] = xlsxColumns[key]
	}

	var records []dto.CourseRecord
	for _, row := range rows[1:] {
		var rec dto.CourseRecord
		empty := true
		for i, v := range row {
			if i >= len(setters) || setters[i] == nil {
				continue
			}
			v = strings.TrimSpace(v)
			if v != "" {
				empty = false
			}
			setters[i](&rec, v)
		}
		if !empty {
			records = append(records, rec)
		}
	}
	return records, nil
}

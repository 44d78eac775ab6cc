package dto

// ── 课程目录 DTO ──

// CourseListRequest 课程列表查询参数
type CourseListRequest struct {
	CollegeID string `form:"college_id"`
	Q         string `form:"q"`
}

// CourseResponse 规范化后的课程（id/name/code/instructor/students/collegeId 为固定形态）
type CourseResponse struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Code            string `json:"code"`
	Instructor      string `json:"instructor"`
	Students        int    `json:"students"`
	CollegeID       string `json:"collegeId"`
	CollegeName     string `json:"collegeName,omitempty"`
	TermCode        string `json:"termCode,omitempty"`
	Section         string `json:"section,omitempty"`
	Days            string `json:"days,omitempty"`
	StartTime       string `json:"startTime,omitempty"`
	EndTime         string `json:"endTime,omitempty"`
	Location        string `json:"location,omitempty"`
	Status          string `json:"status,omitempty"`
	InstructionMode string `json:"instructionMode,omitempty"`
}

// CollegeResponse 学院信息
type CollegeResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Abbreviation string `json:"abbreviation"`
	Domain       string `json:"domain"`
}

// ── 课程导入 ──

// CourseRecord 抓取脚本输出的一条原始课程记录
type CourseRecord struct {
	CollegeCode     string `json:"collegeCode"`
	CollegeName     string `json:"collegeName"`
	Subject         string `json:"subject"`
	SubjectName     string `json:"subjectName"`
	CourseCode      string `json:"courseCode"`
	CatalogNumber   string `json:"catalogNumber"`
	ClassNumber     string `json:"classNumber"`
	Section         string `json:"section"`
	Title           string `json:"title"`
	Days            string `json:"days"`
	StartTime       string `json:"startTime"`
	EndTime         string `json:"endTime"`
	RawDaysTimes    string `json:"rawDaysTimes"`
	Location        string `json:"location"`
	Instructor      string `json:"instructor"`
	Status          string `json:"status"`
	InstructionMode string `json:"instructionMode"`
}

// ImportResult 导入结果统计
type ImportResult struct {
	Total    int `json:"total"`
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

package model

// Course 课程记录，对应 courses
// 保存导入时的原始字段，对外的 Course 形态由目录读取时规范化得出
type Course struct {
	ID              string  `gorm:"type:varchar(32);primaryKey"         json:"id"`
	TermCode        string  `gorm:"type:varchar(8);not null"            json:"termCode"`
	CollegeCode     *string `gorm:"type:varchar(16);index"              json:"collegeCode"`
	CollegeName     *string `gorm:"type:varchar(255)"                   json:"collegeName"`
	Subject         *string `gorm:"type:varchar(32)"                    json:"subject"`
	SubjectName     *string `gorm:"type:varchar(255)"                   json:"subjectName"`
	CourseCode      *string `gorm:"type:varchar(64)"                    json:"courseCode"`
	CatalogNumber   *string `gorm:"type:varchar(32)"                    json:"catalogNumber"`
	ClassNumber     *string `gorm:"type:varchar(32)"                    json:"classNumber"`
	Section         *string `gorm:"type:varchar(32)"                    json:"section"`
	Title           *string `gorm:"type:varchar(255)"                   json:"title"`
	Days            *string `gorm:"type:varchar(32)"                    json:"days"`
	StartTime       *string `gorm:"type:varchar(16)"                    json:"startTime"`
	EndTime         *string `gorm:"type:varchar(16)"                    json:"endTime"`
	RawDaysTimes    *string `gorm:"type:varchar(255)"                   json:"rawDaysTimes"`
	Location        *string `gorm:"type:varchar(255)"                   json:"location"`
	Instructor      string  `gorm:"type:varchar(255);not null;default:'TBA'" json:"instructor"`
	Status          *string `gorm:"type:varchar(32)"                    json:"status"`
	InstructionMode *string `gorm:"type:varchar(64)"                    json:"instructionMode"`
	Students        int     `gorm:"not null;default:0"                  json:"students"`
	Timestamps
}

// TableName 指定表名
func (Course) TableName() string { return "courses" }

package model

import (
	"regexp"
	"strings"
)

// College 院校（静态表，进程启动时即确定，从不修改）
type College struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Abbreviation string `json:"abbreviation"`
	Domain       string `json:"domain"`
}

var colleges = []College{
	{ID: "baruch", Name: "Baruch College", Abbreviation: "Baruch", Domain: "baruch.cuny.edu"},
	{ID: "hunter", Name: "Hunter College", Abbreviation: "Hunter", Domain: "hunter.cuny.edu"},
	{ID: "brooklyn", Name: "Brooklyn College", Abbreviation: "Brooklyn", Domain: "brooklyn.cuny.edu"},
	{ID: "queens", Name: "Queens College", Abbreviation: "Queens", Domain: "qc.cuny.edu"},
	{ID: "city", Name: "City College", Abbreviation: "CCNY", Domain: "ccny.cuny.edu"},
	{ID: "lehman", Name: "Lehman College", Abbreviation: "Lehman", Domain: "lehman.cuny.edu"},
	{ID: "york", Name: "York College", Abbreviation: "York", Domain: "york.cuny.edu"},
	{ID: "johnjay", Name: "John Jay College", Abbreviation: "John Jay", Domain: "jjay.cuny.edu"},
	{ID: "medgar", Name: "Medgar Evers College", Abbreviation: "Medgar Evers", Domain: "mec.cuny.edu"},
	{ID: "citytech", Name: "City Tech", Abbreviation: "City Tech", Domain: "citytech.cuny.edu"},
	{ID: "bmcc", Name: "BMCC", Abbreviation: "BMCC", Domain: "bmcc.cuny.edu"},
	{ID: "bcc", Name: "Bronx Community College", Abbreviation: "BCC", Domain: "bcc.cuny.edu"},
	{ID: "qcc", Name: "Queensborough Community College", Abbreviation: "QCC", Domain: "qcc.cuny.edu"},
	{ID: "kingsborough", Name: "Kingsborough Community College", Abbreviation: "KCC", Domain: "kbcc.cuny.edu"},
	{ID: "laguardia", Name: "LaGuardia Community College", Abbreviation: "LaGuardia", Domain: "lagcc.cuny.edu"},
	{ID: "hostos", Name: "Hostos Community College", Abbreviation: "Hostos", Domain: "hostos.cuny.edu"},
	{ID: "guttman", Name: "Guttman Community College", Abbreviation: "Guttman", Domain: "guttman.cuny.edu"},
	{ID: "law", Name: "CUNY School of Law", Abbreviation: "CUNY Law", Domain: "law.cuny.edu"},
	{ID: "sps", Name: "School of Professional Studies", Abbreviation: "SPS", Domain: "sps.cuny.edu"},
	{ID: "gradcenter", Name: "Graduate Center", Abbreviation: "Graduate Center", Domain: "gc.cuny.edu"},
	{ID: "soj", Name: "School of Journalism", Abbreviation: "CUNY J-School", Domain: "journalism.cuny.edu"},
}

// 外部院校代码 → 内部院校 ID
var collegeCodes = map[string]string{
	"HTR01": "hunter",
	"BKL01": "brooklyn",
	"QNS01": "queens",
	"NYC01": "city",
	"LEH01": "lehman",
	"YOR01": "york",
	"JJC01": "johnjay",
	"MEC01": "medgar",
	"NYT01": "citytech",
	"BMC01": "bmcc",
	"BCC01": "bcc",
	"QCC01": "qcc",
	"KCC01": "kingsborough",
	"LAG01": "laguardia",
	"HOS01": "hostos",
	"GUT01": "guttman",
	"LAW01": "law",
	"SPS01": "sps",
	"GRD01": "gradcenter",
	"JOU01": "soj",
	"BRC01": "baruch",
	"BAR01": "baruch",
}

var digits = regexp.MustCompile(`\d+`)

// Colleges 返回院校表副本
func Colleges() []College {
	out := make([]College, len(colleges))
	copy(out, colleges)
	return out
}

// CollegeByID 按 ID 查找院校
func CollegeByID(id string) (College, bool) {
	for _, c := range colleges {
		if c.ID == id {
			return c, true
		}
	}
	return College{}, false
}

// CollegeIDFromCode 将外部院校代码映射为内部院校 ID；
// 未命中时退化为去数字的小写代码（可能不对应任何已知院校）
func CollegeIDFromCode(code string) string {
	if id, ok := collegeCodes[code]; ok {
		return id
	}
	return digits.ReplaceAllString(strings.ToLower(code), "")
}

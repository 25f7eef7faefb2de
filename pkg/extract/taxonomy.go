package extract

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Taxonomy bundles the static lookup tables used while tagging chunks.
// A taxonomy is built once at start-up and must not be modified afterwards.
type Taxonomy struct {
	Chapters        []ChapterRange   `yaml:"chapters" json:"chapters"`
	Keywords        []KeywordFamily  `yaml:"keywords" json:"keywords"`
	Audiences       []AudienceGroup  `yaml:"audiences" json:"audiences"`
	DefaultAudience string           `yaml:"default_audience" json:"default_audience"`
	Tables          []TableSignature `yaml:"tables" json:"tables"`
}

// ChapterRange maps the article numbers in [From, To) to a chapter label.
type ChapterRange struct {
	From  int    `yaml:"from" json:"from"`
	To    int    `yaml:"to" json:"to"`
	Label string `yaml:"label" json:"label"`
}

// Contains reports whether article falls inside the range.
func (r ChapterRange) Contains(article int) bool {
	return article >= r.From && article < r.To
}

// KeywordFamily is a canonical topic and the surface forms that signal it.
type KeywordFamily struct {
	Topic    string   `yaml:"topic" json:"topic"`
	Variants []string `yaml:"variants" json:"variants"`
}

// AudienceGroup is an audience label and the cue terms that select it.
type AudienceGroup struct {
	Label string   `yaml:"label" json:"label"`
	Terms []string `yaml:"terms" json:"terms"`
}

// TableSignature names a regulatory table and the phrases that reveal it.
// Every group in Require must have at least one phrase present.
type TableSignature struct {
	Name    string     `yaml:"name" json:"name"`
	Require [][]string `yaml:"require" json:"require"`
}

// DefaultTaxonomy returns the tables for the HUST training regulation
// (QĐ 4600/QĐ-ĐHBK, 2023).
func DefaultTaxonomy() *Taxonomy {
	return &Taxonomy{
		Chapters: []ChapterRange{
			{From: 1, To: 10, Label: "I - NHỮNG QUY ĐỊNH CHUNG"},
			{From: 10, To: 21, Label: "II - ĐÀO TẠO ĐẠI HỌC"},
			{From: 21, To: 27, Label: "III - ĐÀO TẠO KỸ SƯ"},
			{From: 27, To: 36, Label: "IV - ĐÀO TẠO THẠC SĨ"},
			{From: 36, To: 46, Label: "V - ĐÀO TẠO TIẾN SĨ"},
			{From: 46, To: 47, Label: "VI - TỔ CHỨC THỰC HIỆN"},
		},
		Keywords: []KeywordFamily{
			{Topic: "tín chỉ", Variants: []string{"tín chỉ", "tc", "credit"}},
			{Topic: "điểm", Variants: []string{"điểm", "gpa", "cpa", "grade"}},
			{Topic: "tốt nghiệp", Variants: []string{"tốt nghiệp", "graduation", "bằng"}},
			{Topic: "học phí", Variants: []string{"học phí", "tuition", "phí"}},
			{Topic: "đăng ký", Variants: []string{"đăng ký", "registration"}},
			{Topic: "thi", Variants: []string{"thi", "exam", "kiểm tra"}},
			{Topic: "luận văn", Variants: []string{"luận văn", "thesis"}},
			{Topic: "luận án", Variants: []string{"luận án", "dissertation"}},
			{Topic: "đồ án", Variants: []string{"đồ án", "project"}},
			{Topic: "thạc sĩ", Variants: []string{"thạc sĩ", "master"}},
			{Topic: "tiến sĩ", Variants: []string{"tiến sĩ", "phd", "ncs"}},
			{Topic: "sinh viên", Variants: []string{"sinh viên", "student"}},
			{Topic: "học viên", Variants: []string{"học viên"}},
			{Topic: "cảnh báo", Variants: []string{"cảnh báo", "warning"}},
			{Topic: "thôi học", Variants: []string{"thôi học", "buộc thôi học"}},
		},
		Audiences: []AudienceGroup{
			{Label: "sinh viên đại học", Terms: []string{"sinh viên", "đại học", "cử nhân"}},
			{Label: "học viên thạc sĩ", Terms: []string{"học viên", "thạc sĩ"}},
			{Label: "học viên kỹ sư", Terms: []string{"kỹ sư"}},
			{Label: "nghiên cứu sinh", Terms: []string{"ncs", "nghiên cứu sinh", "tiến sĩ"}},
		},
		DefaultAudience: "tất cả",
		Tables: []TableSignature{
			{
				Name:    TableGradeConversion,
				Require: [][]string{{"điểm học phần theo"}, {"điểm chữ"}},
			},
			{
				Name:    TableAcademicStanding,
				Require: [][]string{{"xếp loại"}, {"gpa", "cpa"}},
			},
			{
				Name:    TableStudyLoad,
				Require: [][]string{{"thời gian"}, {"khối lượng"}},
			},
		},
	}
}

// Table names reported by the TableDetector for the default taxonomy.
const (
	TableGradeConversion  = "BẢNG QUY ĐỔI ĐIỂM"
	TableAcademicStanding = "BẢNG XẾP LOẠI HỌC LỰC"
	TableStudyLoad        = "BẢNG THỜI GIAN VÀ KHỐI LƯỢNG HỌC TẬP"
)

// LoadTaxonomy reads a YAML taxonomy file. Sections missing from the file keep
// their default values.
func LoadTaxonomy(path string) (*Taxonomy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading taxonomy: %w", err)
	}
	return ParseTaxonomy(data)
}

// ParseTaxonomy decodes YAML taxonomy data on top of the defaults.
func ParseTaxonomy(data []byte) (*Taxonomy, error) {
	var override Taxonomy
	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, fmt.Errorf("parsing taxonomy: %w", err)
	}

	t := DefaultTaxonomy()
	if len(override.Chapters) > 0 {
		t.Chapters = override.Chapters
	}
	if len(override.Keywords) > 0 {
		t.Keywords = override.Keywords
	}
	if len(override.Audiences) > 0 {
		t.Audiences = override.Audiences
	}
	if override.DefaultAudience != "" {
		t.DefaultAudience = override.DefaultAudience
	}
	if len(override.Tables) > 0 {
		t.Tables = override.Tables
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Validate checks that every table entry is usable.
func (t *Taxonomy) Validate() error {
	for i, r := range t.Chapters {
		if r.Label == "" {
			return fmt.Errorf("chapter range %d: label is required", i)
		}
		if r.To <= r.From {
			return fmt.Errorf("chapter range %q: to (%d) must be greater than from (%d)", r.Label, r.To, r.From)
		}
	}
	for _, k := range t.Keywords {
		if k.Topic == "" || len(k.Variants) == 0 {
			return fmt.Errorf("keyword family %q: topic and variants are required", k.Topic)
		}
	}
	for _, a := range t.Audiences {
		if a.Label == "" || len(a.Terms) == 0 {
			return fmt.Errorf("audience group %q: label and terms are required", a.Label)
		}
	}
	if strings.TrimSpace(t.DefaultAudience) == "" {
		return fmt.Errorf("default audience is required")
	}
	for _, s := range t.Tables {
		if s.Name == "" || len(s.Require) == 0 {
			return fmt.Errorf("table signature %q: name and require are required", s.Name)
		}
		for _, group := range s.Require {
			if len(group) == 0 {
				return fmt.Errorf("table signature %q: empty phrase group", s.Name)
			}
		}
	}
	return nil
}

// containsAny reports whether lowered contains at least one of terms.
func containsAny(lowered string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(lowered, term) {
			return true
		}
	}
	return false
}

// lowerAll returns a lower-cased copy of terms so taxonomy files may use any case.
func lowerAll(terms []string) []string {
	out := make([]string, len(terms))
	for i, term := range terms {
		out[i] = strings.ToLower(term)
	}
	return out
}

package extract

import "strings"

// cannedTable is a hand-written table chunk and the literal phrases whose
// joint presence in the document triggers it.
type cannedTable struct {
	markers []string
	chunk   Chunk
}

// SpecialTableExtractor emits standalone chunks for the regulation's key
// tables.
//
// The tables are NOT parsed from the document. Their layout does not survive
// PDF text extraction, so the extractor only checks that the table is present
// (literal, case-sensitive marker phrases anywhere in the document) and then
// emits fixed, pre-written text and metadata. A canned chunk that differs from
// the wording of the source is expected.
type SpecialTableExtractor struct {
	tables []cannedTable
}

// NewSpecialTableExtractor creates an extractor for the grade conversion,
// academic standing and year-level tables.
func NewSpecialTableExtractor() *SpecialTableExtractor {
	return &SpecialTableExtractor{tables: []cannedTable{
		{
			markers: []string{"Điểm học phần theo"},
			chunk: Chunk{
				ID:   "table_diem_quy_doi",
				Text: gradeConversionText,
				Metadata: Metadata{
					Type:      ChunkTypeTable,
					TableName: "quy_doi_diem",
					Dieu:      5,
					Khoan:     6,
					Keywords:  []string{"điểm", "quy đổi", "gpa"},
					AppliesTo: []string{"tất cả"},
				},
			},
		},
		{
			markers: []string{"Xếp loại", "GPA hoặc CPA"},
			chunk: Chunk{
				ID:   "table_xep_loai",
				Text: academicStandingText,
				Metadata: Metadata{
					Type:      ChunkTypeTable,
					TableName: "xep_loai_hoc_luc",
					Dieu:      12,
					Khoan:     6,
					Keywords:  []string{"điểm", "xếp loại", "gpa", "cpa"},
					AppliesTo: []string{"tất cả"},
				},
			},
		},
		{
			markers: []string{"Số TCTL", "Trình độ"},
			chunk: Chunk{
				ID:   "table_trinh_do_nam",
				Text: yearLevelText,
				Metadata: Metadata{
					Type:      ChunkTypeTable,
					TableName: "trinh_do_nam_hoc",
					Dieu:      12,
					Khoan:     5,
					Keywords:  []string{"tín chỉ", "năm học"},
					AppliesTo: []string{"sinh viên đại học"},
				},
			},
		},
	}}
}

// Extract returns the canned chunks whose markers all occur in document.
func (e *SpecialTableExtractor) Extract(document string) []Chunk {
	chunks := make([]Chunk, 0, len(e.tables))
	for _, t := range e.tables {
		if containsAll(document, t.markers) {
			chunks = append(chunks, t.chunk.clone())
		}
	}
	return chunks
}

func containsAll(text string, markers []string) bool {
	for _, m := range markers {
		if !strings.Contains(text, m) {
			return false
		}
	}
	return true
}

// clone copies the slices so callers cannot alter the canned template.
func (c Chunk) clone() Chunk {
	out := c
	out.Metadata.Keywords = append([]string(nil), c.Metadata.Keywords...)
	out.Metadata.AppliesTo = append([]string(nil), c.Metadata.AppliesTo...)
	if c.Metadata.References != nil {
		out.Metadata.References = append([]string(nil), c.Metadata.References...)
	}
	return out
}

const gradeConversionText = `BẢNG QUY ĐỔI ĐIỂM HỌC PHẦN (Điều 5, Khoản 6)

Thang 10 → Điểm chữ → Thang 4:
- 9.5-10.0 → A+ → 4.0
- 8.5-9.4 → A → 4.0
- 8.0-8.4 → B+ → 3.5
- 7.0-7.9 → B → 3.0
- 6.5-6.9 → C+ → 2.5
- 6.0-6.4 → C → 2.0
- 5.5-5.9 → D+ → 1.5
- 5.0-5.4 → D → 1.0
- 4.0-4.9 → D → 1.0
- 0.0-3.9 → F → 0

LƯU Ý:
- Điểm đạt: từ D trở lên (≥4.0)
- Học phần tốt nghiệp: phải từ C trở lên (≥5.0)
- Điểm liệt: <5 với đồ án/khóa luận tốt nghiệp, <3 với học phần khác`

const academicStandingText = `BẢNG XẾP LOẠI HỌC LỰC (Điều 12, Khoản 6)

GPA/CPA → Xếp loại:
- 3.60-4.00 → Xuất sắc
- 3.20-3.59 → Giỏi
- 2.50-3.19 → Khá
- 2.00-2.49 → Trung bình
- 1.00-1.99 → Yếu
- <1.00 → Kém

Áp dụng cho:
- GPA: Xếp loại học lực theo học kỳ
- CPA: Xếp loại học lực từ đầu khóa và xếp hạng tốt nghiệp`

const yearLevelText = `BẢNG TRÌNH ĐỘ NĂM HỌC (Điều 12, Khoản 5)

Số TC tích lũy → Trình độ năm học:
- <32 TC → Năm thứ nhất
- 32-63 TC → Năm thứ hai
- 64-95 TC → Năm thứ ba
- 96-127 TC → Năm thứ tư
- ≥128 TC → Năm thứ năm

Áp dụng: Sinh viên đại học`

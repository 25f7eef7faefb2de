package extract

import (
	"fmt"
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"
)

// filler returns text of exactly n runes with no clause or point markers.
func filler(n int) string {
	const unit = "nội dung "
	runes := []rune(strings.Repeat(unit, n/utf8.RuneCountInString(unit)+1))[:n]
	if n > 0 && runes[n-1] == ' ' {
		runes[n-1] = 'x'
	}
	return string(runes)
}

func buildTwoArticleDocument() string {
	var b strings.Builder
	b.WriteString("CHƯƠNG I\nNHỮNG QUY ĐỊNH CHUNG\n")
	b.WriteString("Điều 3. Giải thích từ ngữ\n")
	b.WriteString(filler(200))
	b.WriteString("\nCHƯƠNG II\nĐÀO TẠO ĐẠI HỌC\n")
	b.WriteString("Điều 15. Đánh giá học phần\n")
	for clause := 1; clause <= 3; clause++ {
		fmt.Fprintf(&b, "%d. a) %s\nb) %s\n", clause, filler(3000), filler(3000))
	}
	return b.String()
}

func TestChunker_TwoArticleScenario(t *testing.T) {
	chunker := NewChunker(nil)
	chunks, report := chunker.Chunk(buildTwoArticleDocument())

	expectedIDs := []string{
		"d3",
		"d15_k1_pa", "d15_k1_pb",
		"d15_k2_pa", "d15_k2_pb",
		"d15_k3_pa", "d15_k3_pb",
	}
	gotIDs := make([]string, len(chunks))
	for i, ch := range chunks {
		gotIDs[i] = ch.ID
	}
	if !reflect.DeepEqual(gotIDs, expectedIDs) {
		t.Fatalf("Expected ids %v, got %v", expectedIDs, gotIDs)
	}

	if got := chunks[0].Metadata.Chuong; got != "I - NHỮNG QUY ĐỊNH CHUNG" {
		t.Errorf("Expected chapter I for article 3, got %q", got)
	}
	for _, ch := range chunks[1:] {
		if ch.Metadata.Chuong != "II - ĐÀO TẠO ĐẠI HỌC" {
			t.Errorf("%s: expected chapter II, got %q", ch.ID, ch.Metadata.Chuong)
		}
		if ch.Metadata.Dieu != 15 || ch.Metadata.Khoan == 0 || ch.Metadata.Diem == "" {
			t.Errorf("%s: incomplete hierarchy metadata %+v", ch.ID, ch.Metadata)
		}
	}

	if report.Articles != 2 || report.ArticlesWithoutClauses != 1 {
		t.Errorf("Unexpected article counts: %+v", report)
	}
	if report.SplitClauses != 3 || report.PointChunks != 6 {
		t.Errorf("Unexpected clause counts: %+v", report)
	}
}

func TestChunker_ChunkTextFraming(t *testing.T) {
	chunker := NewChunker(nil)
	chunks, _ := chunker.Chunk(buildTwoArticleDocument())

	article := chunks[0].Text
	if !strings.HasPrefix(article, "Điều 3: Giải thích từ ngữ\n") {
		t.Errorf("Expected article header prefix, got %q", article[:40])
	}
	if !strings.HasSuffix(article, "[Chương: I - NHỮNG QUY ĐỊNH CHUNG]") {
		t.Errorf("Expected chapter footer, got %q", article)
	}

	point := chunks[1].Text
	if !strings.HasPrefix(point, "Điều 15: Đánh giá học phần\nKhoản 1, Điểm a:\n") {
		t.Errorf("Expected point header, got %q", point[:60])
	}
	if !strings.HasSuffix(point, "[Chương: II - ĐÀO TẠO ĐẠI HỌC]") {
		t.Errorf("Expected chapter footer on point chunk")
	}
}

func TestChunker_ShortClauseKeepsPointsEmbedded(t *testing.T) {
	doc := "Điều 10. Đăng ký học tập\n1. Sinh viên đăng ký: a) học phần bắt buộc; b) học phần tự chọn.\n2. Hạn đăng ký.\n"

	chunker := NewChunker(nil)
	chunks, report := chunker.Chunk(doc)

	if len(chunks) != 2 {
		t.Fatalf("Expected 2 clause chunks, got %d", len(chunks))
	}
	if chunks[0].ID != "d10_k1" || chunks[1].ID != "d10_k2" {
		t.Errorf("Expected clause ids, got %s, %s", chunks[0].ID, chunks[1].ID)
	}
	if !strings.Contains(chunks[0].Text, "a) học phần bắt buộc; b) học phần tự chọn.") {
		t.Errorf("Expected points to stay in clause text, got %q", chunks[0].Text)
	}
	if chunks[0].Metadata.Diem != "" {
		t.Errorf("Expected no point metadata, got %q", chunks[0].Metadata.Diem)
	}
	if report.EmbeddedPointClauses != 1 {
		t.Errorf("Expected 1 embedded point clause, got %d", report.EmbeddedPointClauses)
	}
}

func TestChunker_PointSplitThresholdBoundary(t *testing.T) {
	// Clause text "a) " + filler + " b) " + filler, sized to sit exactly on
	// the threshold and one rune above it.
	clauseOf := func(total int) string {
		rest := total - utf8.RuneCountInString("a)  b) ")
		return fmt.Sprintf("a) %s b) %s", filler(rest/2), filler(rest-rest/2))
	}

	tests := []struct {
		name      string
		length    int
		wantChunk int
	}{
		{"at threshold", 100, 1},
		{"above threshold", 101, 2},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			clause := clauseOf(tc.length)
			if n := utf8.RuneCountInString(clause); n != tc.length {
				t.Fatalf("Expected clause of %d runes, built %d", tc.length, n)
			}
			doc := "Điều 12. Tiến độ học tập\n1. " + clause + "\n"

			chunker := NewChunker(nil, WithPointSplitThreshold(100))
			chunks, _ := chunker.Chunk(doc)
			if len(chunks) != tc.wantChunk {
				t.Errorf("Expected %d chunks, got %d", tc.wantChunk, len(chunks))
			}
		})
	}
}

func TestChunker_PointSplitKeepsLeadText(t *testing.T) {
	lead := "Sinh viên bị buộc thôi học trong các trường hợp sau đây, theo khoản 2 Điều 7 của quy chế này:"
	doc := fmt.Sprintf("CHƯƠNG II\nĐiều 15. Xử lý học vụ\n1. %s a) %s b) %s\n",
		lead, filler(3000), filler(3000))

	chunks, report := NewChunker(nil).Chunk(doc)
	if report.SplitClauses != 1 {
		t.Fatalf("Expected the clause to be split, got report %+v", report)
	}
	if len(chunks) != 2 || chunks[0].ID != "d15_k1_pa" || chunks[1].ID != "d15_k1_pb" {
		t.Fatalf("Expected point chunks d15_k1_pa and d15_k1_pb, got %d chunks", len(chunks))
	}

	for _, ch := range chunks {
		header := fmt.Sprintf("Khoản 1, Điểm %s:\n%s\n", ch.Metadata.Diem, lead)
		if !strings.Contains(ch.Text, header) {
			t.Errorf("%s: expected lead text after the point header, got:\n%s", ch.ID, ch.Text[:200])
		}
		for _, topic := range []string{"sinh viên", "thôi học"} {
			if !containsString(ch.Metadata.Keywords, topic) {
				t.Errorf("%s: expected keyword %q from the lead text, got %v", ch.ID, topic, ch.Metadata.Keywords)
			}
		}
		if len(ch.Metadata.References) == 0 {
			t.Errorf("%s: expected the reference in the lead text to be extracted", ch.ID)
		}
	}
}

func TestChunker_Idempotent(t *testing.T) {
	doc := buildTwoArticleDocument() + sampleRegulation

	first, _ := NewChunker(nil).Chunk(doc)
	second, _ := NewChunker(nil).Chunk(doc)

	if !reflect.DeepEqual(first, second) {
		t.Error("Expected identical output for identical input")
	}
}

func TestChunker_Invariants(t *testing.T) {
	chunks, _ := NewChunker(nil).Chunk(sampleRegulation + buildTwoArticleDocument())

	seen := map[string]bool{}
	for _, ch := range chunks {
		if ch.ID == "" || ch.Text == "" {
			t.Errorf("Expected non-empty id and text, got %+v", ch)
		}
		if seen[ch.ID] {
			t.Errorf("Duplicate id %s", ch.ID)
		}
		seen[ch.ID] = true
		if len(ch.Metadata.AppliesTo) == 0 {
			t.Errorf("%s: empty applies_to", ch.ID)
		}
		if ch.Metadata.Dieu == 0 {
			t.Errorf("%s: missing article number", ch.ID)
		}
	}
}

func TestChunker_DuplicateIDsDisambiguated(t *testing.T) {
	// "4.0" is read as a second marker, so clause 4 appears twice.
	doc := "Điều 5. Đánh giá\n4. Điểm đạt từ 4.0 trở lên\n"

	chunks, report := NewChunker(nil).Chunk(doc)
	if len(chunks) != 2 {
		t.Fatalf("Expected 2 chunks, got %d", len(chunks))
	}
	if chunks[0].ID != "d5_k4" || chunks[1].ID != "d5_k4_2" {
		t.Errorf("Expected d5_k4 and d5_k4_2, got %s and %s", chunks[0].ID, chunks[1].ID)
	}
	if report.DuplicateIDs != 1 {
		t.Errorf("Expected 1 duplicate id, got %d", report.DuplicateIDs)
	}
}

func TestChunker_TagsRenderedText(t *testing.T) {
	// The audience comes only from the title, which is part of the framing.
	doc := "Điều 30. Luận văn thạc sĩ\nBảo vệ trước hội đồng theo quy định tại Điều 28\n"

	chunks, _ := NewChunker(nil).Chunk(doc)
	if len(chunks) != 1 {
		t.Fatalf("Expected 1 chunk, got %d", len(chunks))
	}
	meta := chunks[0].Metadata
	if !reflect.DeepEqual(meta.AppliesTo, []string{"học viên thạc sĩ"}) {
		t.Errorf("Expected master's audience from title, got %v", meta.AppliesTo)
	}
	if !reflect.DeepEqual(meta.References, []string{"Điều 28"}) {
		t.Errorf("Expected reference to Điều 28, got %v", meta.References)
	}
	if meta.Chuong != "IV - ĐÀO TẠO THẠC SĨ" {
		t.Errorf("Expected chapter IV, got %q", meta.Chuong)
	}
}

func TestChunker_MalformedInput(t *testing.T) {
	chunker := NewChunker(nil)
	for _, doc := range []string{"", "Không có cấu trúc", "Điều . thiếu số\n", "Điều 5. không có xuống dòng"} {
		chunks, _ := chunker.Chunk(doc)
		if len(chunks) != 0 {
			t.Errorf("Chunk(%q): expected no chunks, got %d", doc, len(chunks))
		}
	}
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func TestChunk_Location(t *testing.T) {
	tests := []struct {
		chunk    Chunk
		expected string
	}{
		{Chunk{ID: "d3", Metadata: Metadata{Dieu: 3}}, "Điều 3"},
		{Chunk{ID: "d5_k6", Metadata: Metadata{Dieu: 5, Khoan: 6}}, "Điều 5, Khoản 6"},
		{Chunk{ID: "d15_k1_pa", Metadata: Metadata{Dieu: 15, Khoan: 1, Diem: "a"}}, "Điều 15, Khoản 1, Điểm a"},
		{Chunk{ID: "orphan"}, "orphan"},
	}
	for _, tc := range tests {
		if got := tc.chunk.Location(); got != tc.expected {
			t.Errorf("%s: expected %q, got %q", tc.chunk.ID, tc.expected, got)
		}
	}
}

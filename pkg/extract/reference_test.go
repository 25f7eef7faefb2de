package extract

import (
	"reflect"
	"testing"
)

func TestReferenceExtractor_Extract(t *testing.T) {
	extractor := NewReferenceExtractor()

	tests := []struct {
		name     string
		text     string
		expected []string
	}{
		{
			name:     "article by regulation",
			text:     "theo quy định tại Điều 12",
			expected: []string{"Điều 12"},
		},
		{
			name:     "clause of article",
			text:     "tại khoản 3 Điều 7",
			expected: []string{"Điều 7, Khoản 3"},
		},
		{
			name:     "point of clause of article",
			text:     "theo quy định tại điểm a khoản 2 Điều 9",
			expected: []string{"Điều 9", "Điều 9, Khoản 2, Điểm a"},
		},
		{
			name:     "duplicates collapse",
			text:     "tại khoản 3 Điều 7 và tại khoản 3 Điều 7",
			expected: []string{"Điều 7, Khoản 3"},
		},
		{
			name:     "case sensitive",
			text:     "TẠI KHOẢN 3 ĐIỀU 7",
			expected: []string{},
		},
		{
			name:     "no references",
			text:     "Sinh viên đăng ký học phần",
			expected: []string{},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := extractor.Extract(tc.text)
			if !reflect.DeepEqual(got, tc.expected) {
				t.Errorf("Expected %v, got %v", tc.expected, got)
			}
		})
	}
}

// The "theo ... quy định ... Điều M" pattern spans arbitrary text on a line.
// These cases document its precision/recall tradeoff rather than endorse it.
func TestReferenceExtractor_LooseArticlePattern(t *testing.T) {
	extractor := NewReferenceExtractor()

	// Over-match: the anchors come from unrelated sentences.
	got := extractor.Extract("Đăng ký theo kế hoạch. Việc quy định học phí xem Điều 30")
	if !reflect.DeepEqual(got, []string{"Điều 30"}) {
		t.Errorf("Expected loose match across sentences, got %v", got)
	}

	// Miss: the anchors are split by a line break.
	got = extractor.Extract("theo kế hoạch\nquy định tại Điều 30")
	if len(got) != 0 {
		t.Errorf("Expected no match across lines, got %v", got)
	}

	// Miss: only the first article after "quy định" is captured.
	got = extractor.Extract("theo quy định tại Điều 5 và Điều 6")
	if !reflect.DeepEqual(got, []string{"Điều 5"}) {
		t.Errorf("Expected only the first article, got %v", got)
	}
}

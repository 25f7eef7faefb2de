package extract

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestChapterFor_TotalOverKnownArticles(t *testing.T) {
	resolver := NewChapterResolver(DefaultTaxonomy().Chapters)

	labels := map[string]bool{}
	for _, r := range DefaultTaxonomy().Chapters {
		labels[r.Label] = true
	}
	if len(labels) != 6 {
		t.Fatalf("Expected 6 chapter labels, got %d", len(labels))
	}

	for article := 1; article <= 46; article++ {
		got := resolver.ChapterFor(article)
		if !labels[got] {
			t.Errorf("Article %d: expected one of the chapter labels, got %q", article, got)
		}
	}
}

func TestChapterFor_Boundaries(t *testing.T) {
	resolver := NewChapterResolver(DefaultTaxonomy().Chapters)

	tests := []struct {
		article  int
		expected string
	}{
		{-1, UnknownChapter},
		{0, UnknownChapter},
		{1, "I - NHỮNG QUY ĐỊNH CHUNG"},
		{9, "I - NHỮNG QUY ĐỊNH CHUNG"},
		{10, "II - ĐÀO TẠO ĐẠI HỌC"},
		{20, "II - ĐÀO TẠO ĐẠI HỌC"},
		{21, "III - ĐÀO TẠO KỸ SƯ"},
		{27, "IV - ĐÀO TẠO THẠC SĨ"},
		{35, "IV - ĐÀO TẠO THẠC SĨ"},
		{36, "V - ĐÀO TẠO TIẾN SĨ"},
		{45, "V - ĐÀO TẠO TIẾN SĨ"},
		{46, "VI - TỔ CHỨC THỰC HIỆN"},
		{47, UnknownChapter},
		{1000, UnknownChapter},
	}

	for _, tc := range tests {
		if got := resolver.ChapterFor(tc.article); got != tc.expected {
			t.Errorf("ChapterFor(%d) = %q, expected %q", tc.article, got, tc.expected)
		}
	}
}

func TestParseTaxonomy_OverridesSections(t *testing.T) {
	data := []byte(`
keywords:
  - topic: học bổng
    variants: [Học Bổng, scholarship]
default_audience: mọi người
`)

	tax, err := ParseTaxonomy(data)
	if err != nil {
		t.Fatalf("ParseTaxonomy failed: %v", err)
	}

	if len(tax.Keywords) != 1 || tax.Keywords[0].Topic != "học bổng" {
		t.Errorf("Expected keyword override, got %+v", tax.Keywords)
	}
	if tax.DefaultAudience != "mọi người" {
		t.Errorf("Expected default audience override, got %q", tax.DefaultAudience)
	}
	if len(tax.Chapters) != len(DefaultTaxonomy().Chapters) {
		t.Errorf("Expected default chapters to be kept, got %d", len(tax.Chapters))
	}

	tagger := NewKeywordTagger(tax.Keywords)
	got := tagger.Tag("Quy định về HỌC BỔNG khuyến khích")
	if len(got) != 1 || got[0] != "học bổng" {
		t.Errorf("Expected mixed-case variant to match, got %v", got)
	}
}

func TestParseTaxonomy_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"bad yaml", "chapters: [", "parsing taxonomy"},
		{"inverted range", "chapters:\n  - {from: 5, to: 2, label: X}\n", "must be greater"},
		{"empty label", "chapters:\n  - {from: 1, to: 2}\n", "label is required"},
		{"empty variants", "keywords:\n  - topic: x\n", "topic and variants"},
		{"empty group", "tables:\n  - name: T\n    require: [[]]\n", "empty phrase group"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseTaxonomy([]byte(tc.yaml))
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("Expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}

func TestLoadTaxonomy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taxonomy.yaml")
	content := "chapters:\n  - {from: 1, to: 3, label: A}\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	tax, err := LoadTaxonomy(path)
	if err != nil {
		t.Fatalf("LoadTaxonomy failed: %v", err)
	}
	resolver := NewChapterResolver(tax.Chapters)
	if got := resolver.ChapterFor(2); got != "A" {
		t.Errorf("Expected chapter A, got %q", got)
	}
	if got := resolver.ChapterFor(3); got != UnknownChapter {
		t.Errorf("Expected %q for article 3, got %q", UnknownChapter, got)
	}

	if _, err := LoadTaxonomy(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestDefaultTaxonomy_Valid(t *testing.T) {
	if err := DefaultTaxonomy().Validate(); err != nil {
		t.Errorf("Expected default taxonomy to be valid, got %v", err)
	}
}

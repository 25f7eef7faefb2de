package pdftext

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestNormalize(t *testing.T) {
	// "Điều" with the circumflex and grave as combining marks, plus an NBSP.
	decomposed := "\u0110i\u0065\u0302\u0300u 5.\u00a0Thi"
	got := Normalize(decomposed)

	if got != "Điều 5. Thi" {
		t.Errorf("Expected composed text %q, got %q", "Điều 5. Thi", got)
	}
}

func TestNormalize_AlreadyComposed(t *testing.T) {
	in := "Khoản 1: Sinh viên được đăng ký học phần"
	if got := Normalize(in); got != in {
		t.Errorf("Expected unchanged text, got %q", got)
	}
}

func TestExtract_MissingFile(t *testing.T) {
	_, err := NewExtractor().Extract(context.Background(), filepath.Join(t.TempDir(), "missing.pdf"))
	if err == nil {
		t.Fatal("Expected error for missing file")
	}
}

func TestExtract_NotAPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quy_che.pdf")
	if err := os.WriteFile(path, []byte("Điều 1. Phạm vi\n"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := NewExtractor().Extract(context.Background(), path)
	if err == nil {
		t.Fatal("Expected error for a non-PDF file")
	}
}

func TestNewExtractor_Options(t *testing.T) {
	var calls int
	e := NewExtractor(WithProgress(func(done, total int) { calls++ }))
	e.report(1, 2)
	e.report(2, 2)
	if calls != 2 {
		t.Errorf("Expected 2 progress calls, got %d", calls)
	}

	NewExtractor().report(1, 1)
}

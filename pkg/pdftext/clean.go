package pdftext

import (
	"regexp"
	"strings"
)

var (
	// pageNumberPattern matches lines holding only a page number, optionally
	// as "- 12 -", "Trang 12" or "12/40".
	pageNumberPattern = regexp.MustCompile(`^(?i:trang\s+)?[-–]?\s*\d+\s*(/\s*\d+)?\s*[-–]?$`)

	// headingPattern matches lines that must never be treated as running headers.
	headingPattern = regexp.MustCompile(`^(?i:Điều\s+\d+|CHƯƠNG\s+[IVX]+)`)
)

// minHeaderPages is the number of pages a first line must repeat on to be
// treated as a running header.
const minHeaderPages = 3

// CleanPages removes page artifacts from extracted page texts: lines that
// are only a page number, and running headers repeated as the first line
// of many pages. Article and chapter headings are always kept.
func CleanPages(pages []string) []string {
	headers := runningHeaders(pages)

	cleaned := make([]string, len(pages))
	for i, page := range pages {
		lines := strings.Split(page, "\n")
		kept := lines[:0]
		for _, line := range lines {
			trimmed := strings.TrimSpace(line)
			if pageNumberPattern.MatchString(trimmed) {
				continue
			}
			if headers[trimmed] {
				continue
			}
			kept = append(kept, line)
		}
		cleaned[i] = strings.Join(kept, "\n")
	}
	return cleaned
}

// runningHeaders returns the first non-empty lines shared by at least half
// of the pages, and by no fewer than minHeaderPages.
func runningHeaders(pages []string) map[string]bool {
	counts := make(map[string]int)
	for _, page := range pages {
		if first := firstLine(page); first != "" {
			counts[first]++
		}
	}

	headers := make(map[string]bool)
	for line, n := range counts {
		if n >= minHeaderPages && n*2 >= len(pages) && !headingPattern.MatchString(line) {
			headers[line] = true
		}
	}
	return headers
}

func firstLine(page string) string {
	for _, line := range strings.Split(page, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

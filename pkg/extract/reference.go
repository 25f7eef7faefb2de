package extract

import (
	"fmt"
	"regexp"
)

// ReferenceExtractor detects citations of other provisions in chunk text and
// normalizes them to "Điều M", "Điều M, Khoản N" or "Điều M, Khoản N, Điểm L".
type ReferenceExtractor struct {
	// "tại khoản 3 Điều 7"
	clausePattern *regexp.Regexp
	// "theo quy định tại Điều 12". The gaps are unbounded within a line, so
	// "theo" and "quy định" may come from unrelated phrases. Known to
	// over-match; kept as is.
	articlePattern *regexp.Regexp
	// "điểm a khoản 2 Điều 9"
	pointPattern *regexp.Regexp
}

// NewReferenceExtractor creates a ReferenceExtractor with the default patterns.
// Patterns are case-sensitive and run on the original text.
func NewReferenceExtractor() *ReferenceExtractor {
	return &ReferenceExtractor{
		clausePattern:  regexp.MustCompile(`tại\s+khoản\s+(\d+)\s+Điều\s+(\d+)`),
		articlePattern: regexp.MustCompile(`theo.*?quy định.*?Điều\s+(\d+)`),
		pointPattern:   regexp.MustCompile(`điểm\s+([a-z])\s+khoản\s+(\d+)\s+Điều\s+(\d+)`),
	}
}

// Extract returns the distinct normalized references found in text, in order
// of first appearance per pattern.
func (e *ReferenceExtractor) Extract(text string) []string {
	seen := make(map[string]bool)
	refs := make([]string, 0)
	add := func(ref string) {
		if !seen[ref] {
			seen[ref] = true
			refs = append(refs, ref)
		}
	}

	for _, ref := range e.extractClauseRefs(text) {
		add(ref)
	}
	for _, ref := range e.extractArticleRefs(text) {
		add(ref)
	}
	for _, ref := range e.extractPointRefs(text) {
		add(ref)
	}
	return refs
}

func (e *ReferenceExtractor) extractClauseRefs(text string) []string {
	var refs []string
	for _, m := range e.clausePattern.FindAllStringSubmatch(text, -1) {
		refs = append(refs, fmt.Sprintf("Điều %s, Khoản %s", m[2], m[1]))
	}
	return refs
}

func (e *ReferenceExtractor) extractArticleRefs(text string) []string {
	var refs []string
	for _, m := range e.articlePattern.FindAllStringSubmatch(text, -1) {
		refs = append(refs, fmt.Sprintf("Điều %s", m[1]))
	}
	return refs
}

func (e *ReferenceExtractor) extractPointRefs(text string) []string {
	var refs []string
	for _, m := range e.pointPattern.FindAllStringSubmatch(text, -1) {
		refs = append(refs, fmt.Sprintf("Điều %s, Khoản %s, Điểm %s", m[3], m[2], m[1]))
	}
	return refs
}

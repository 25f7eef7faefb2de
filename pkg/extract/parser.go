package extract

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ArticleSegment is one "Điều N. Title" block of the source text.
type ArticleSegment struct {
	Number int
	Title  string
	// Body is trimmed with whitespace runs collapsed to single spaces.
	Body string
}

// ClauseSegment is one "N. ..." block inside an article body.
type ClauseSegment struct {
	// Label is the clause number as written in the text.
	Label  string
	Number int
	Text   string
}

// PointSegment is one "a) ..." block inside a clause.
type PointSegment struct {
	Letter string
	Text   string
}

// Segmenter recovers the article → clause → point hierarchy from flat text.
// Each level is matched independently so it can be tested in isolation.
// Text that does not match a level is not an error; the level simply yields
// no segments.
type Segmenter struct {
	articlePattern  *regexp.Regexp
	boundaryPattern *regexp.Regexp
	clausePattern   *regexp.Regexp
	pointPattern    *regexp.Regexp
	spacePattern    *regexp.Regexp
}

// NewSegmenter creates a Segmenter for Vietnamese regulation text.
func NewSegmenter() *Segmenter {
	return &Segmenter{
		// Header line: "Điều 5. Đánh giá kết quả học tập" followed by a newline.
		articlePattern: regexp.MustCompile(`(?i)Điều\s+(\d+)\.\s+([^\n]+)\n`),
		// An article body stops at the next article header or chapter heading.
		boundaryPattern: regexp.MustCompile(`(?i)Điều\s+\d+\.|CHƯƠNG\s+[IVX]+`),
		clausePattern:   regexp.MustCompile(`(\d+)\.\s*`),
		// "đ" is the point letter between "d" and "e".
		pointPattern: regexp.MustCompile(`([a-zđ])\)\s+`),
		spacePattern: regexp.MustCompile(`[\s\p{Zs}]+`),
	}
}

// Articles splits the document into article segments in document order.
// skipped counts headers whose number could not be parsed.
func (s *Segmenter) Articles(text string) (articles []ArticleSegment, skipped int) {
	pos := 0
	for pos < len(text) {
		loc := s.articlePattern.FindStringSubmatchIndex(text[pos:])
		if loc == nil {
			break
		}
		numStr := text[pos+loc[2] : pos+loc[3]]
		title := strings.TrimSpace(text[pos+loc[4] : pos+loc[5]])

		bodyStart := pos + loc[1]
		bodyEnd := len(text)
		if b := s.boundaryPattern.FindStringIndex(text[bodyStart:]); b != nil {
			bodyEnd = bodyStart + b[0]
		}
		pos = bodyEnd

		number, err := strconv.Atoi(numStr)
		if err != nil {
			skipped++
			continue
		}
		articles = append(articles, ArticleSegment{
			Number: number,
			Title:  title,
			Body:   s.collapse(text[bodyStart:bodyEnd]),
		})
	}
	return articles, skipped
}

// Clauses splits an article body at "N." markers. A clause runs from its
// marker to the next marker, so numbers such as "4.0" inside the text are
// read as markers too.
func (s *Segmenter) Clauses(body string) []ClauseSegment {
	matches := s.clausePattern.FindAllStringSubmatchIndex(body, -1)
	clauses := make([]ClauseSegment, 0, len(matches))
	for i, m := range matches {
		end := len(body)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		label := body[m[2]:m[3]]
		number, _ := strconv.Atoi(label)
		clauses = append(clauses, ClauseSegment{
			Label:  label,
			Number: number,
			Text:   strings.TrimSpace(body[m[1]:end]),
		})
	}
	return clauses
}

// Points splits a clause at "a)" markers that open the clause or follow
// whitespace. lead is the text before the first marker, usually a sentence
// such as "... trong các trường hợp sau đây:"; it is empty when the clause
// opens with a point or has none.
func (s *Segmenter) Points(clause string) (lead string, points []PointSegment) {
	var markers [][]int
	for _, m := range s.pointPattern.FindAllStringSubmatchIndex(clause, -1) {
		if m[0] == 0 {
			markers = append(markers, m)
			continue
		}
		prev, _ := utf8.DecodeLastRuneInString(clause[:m[0]])
		if unicode.IsSpace(prev) {
			markers = append(markers, m)
		}
	}

	if len(markers) == 0 {
		return "", nil
	}
	lead = strings.TrimSpace(clause[:markers[0][0]])
	points = make([]PointSegment, 0, len(markers))
	for i, m := range markers {
		end := len(clause)
		if i+1 < len(markers) {
			end = markers[i+1][0]
		}
		points = append(points, PointSegment{
			Letter: clause[m[2]:m[3]],
			Text:   strings.TrimSpace(clause[m[1]:end]),
		})
	}
	return lead, points
}

func (s *Segmenter) collapse(text string) string {
	return strings.TrimSpace(s.spacePattern.ReplaceAllString(strings.TrimSpace(text), " "))
}

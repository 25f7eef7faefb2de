package extract

import "strings"

// ChapterResolver maps an article number to its enclosing chapter label.
type ChapterResolver struct {
	ranges []ChapterRange
}

// NewChapterResolver creates a resolver over the given ordered ranges.
func NewChapterResolver(ranges []ChapterRange) *ChapterResolver {
	return &ChapterResolver{ranges: append([]ChapterRange(nil), ranges...)}
}

// ChapterFor returns the label of the first range containing article, or
// UnknownChapter.
func (r *ChapterResolver) ChapterFor(article int) string {
	for _, rng := range r.ranges {
		if rng.Contains(article) {
			return rng.Label
		}
	}
	return UnknownChapter
}

// KeywordTagger detects topic families in chunk text.
//
// Matching is plain substring containment on the lower-cased text, so short
// variants such as "tc" or "thi" also fire inside longer words. Recall matters
// more than precision for filtering.
type KeywordTagger struct {
	families []KeywordFamily
}

// NewKeywordTagger creates a tagger for the given families.
func NewKeywordTagger(families []KeywordFamily) *KeywordTagger {
	t := &KeywordTagger{families: make([]KeywordFamily, len(families))}
	for i, f := range families {
		t.families[i] = KeywordFamily{Topic: f.Topic, Variants: lowerAll(f.Variants)}
	}
	return t
}

// Tag returns the topics present in text, in family order.
func (t *KeywordTagger) Tag(text string) []string {
	lowered := strings.ToLower(text)
	topics := make([]string, 0)
	for _, f := range t.families {
		if containsAny(lowered, f.Variants) {
			topics = append(topics, f.Topic)
		}
	}
	return topics
}

// AudienceClassifier decides which learner populations a chunk applies to.
type AudienceClassifier struct {
	groups   []AudienceGroup
	fallback string
}

// NewAudienceClassifier creates a classifier. fallback is returned alone when
// no group matches.
func NewAudienceClassifier(groups []AudienceGroup, fallback string) *AudienceClassifier {
	c := &AudienceClassifier{groups: make([]AudienceGroup, len(groups)), fallback: fallback}
	for i, g := range groups {
		c.groups[i] = AudienceGroup{Label: g.Label, Terms: lowerAll(g.Terms)}
	}
	return c
}

// Classify returns every matching audience label. The result is never empty.
func (c *AudienceClassifier) Classify(text string) []string {
	lowered := strings.ToLower(text)
	var audiences []string
	for _, g := range c.groups {
		if containsAny(lowered, g.Terms) {
			audiences = append(audiences, g.Label)
		}
	}
	if len(audiences) == 0 {
		return []string{c.fallback}
	}
	return audiences
}

// TableDetector recognises chunks that document one of the known tables.
type TableDetector struct {
	signatures []TableSignature
}

// NewTableDetector creates a detector. Signatures are checked in order.
func NewTableDetector(signatures []TableSignature) *TableDetector {
	d := &TableDetector{signatures: make([]TableSignature, len(signatures))}
	for i, s := range signatures {
		groups := make([][]string, len(s.Require))
		for j, g := range s.Require {
			groups[j] = lowerAll(g)
		}
		d.signatures[i] = TableSignature{Name: s.Name, Require: groups}
	}
	return d
}

// Detect returns the name of the first matching table, or "" when none match.
// Only one table is reported per chunk.
func (d *TableDetector) Detect(text string) string {
	lowered := strings.ToLower(text)
	for _, s := range d.signatures {
		if matchesAll(lowered, s.Require) {
			return s.Name
		}
	}
	return ""
}

func matchesAll(lowered string, groups [][]string) bool {
	for _, g := range groups {
		if !containsAny(lowered, g) {
			return false
		}
	}
	return true
}

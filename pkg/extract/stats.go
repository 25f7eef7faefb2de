package extract

import "sort"

// Stats summarizes a chunk set for validation and reporting.
type Stats struct {
	TotalChunks    int            `json:"total_chunks"`
	ByChapter      map[string]int `json:"by_chuong"`
	ByKeyword      map[string]int `json:"by_keywords"`
	ByAudience     map[string]int `json:"by_applies_to"`
	WithTables     int            `json:"with_tables"`
	WithReferences int            `json:"with_references"`
}

// CountEntry is one bucket of a Stats map.
type CountEntry struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Aggregate computes Stats over chunks. A chunk adds one to every keyword and
// audience bucket it carries. Chunks without a chapter count as UnknownChapter.
func Aggregate(chunks []Chunk) Stats {
	stats := Stats{
		TotalChunks: len(chunks),
		ByChapter:   make(map[string]int),
		ByKeyword:   make(map[string]int),
		ByAudience:  make(map[string]int),
	}

	for _, ch := range chunks {
		chapter := ch.Metadata.Chuong
		if chapter == "" {
			chapter = UnknownChapter
		}
		stats.ByChapter[chapter]++

		for _, kw := range ch.Metadata.Keywords {
			stats.ByKeyword[kw]++
		}
		for _, a := range ch.Metadata.AppliesTo {
			stats.ByAudience[a]++
		}
		if ch.Metadata.HasTable != "" {
			stats.WithTables++
		}
		if len(ch.Metadata.References) > 0 {
			stats.WithReferences++
		}
	}

	return stats
}

// TopKeywords returns the n most frequent keywords, ties broken by name.
// n <= 0 returns every keyword.
func (s Stats) TopKeywords(n int) []CountEntry {
	entries := sortedByCount(s.ByKeyword)
	if n > 0 && len(entries) > n {
		entries = entries[:n]
	}
	return entries
}

// Chapters returns the chapter buckets sorted by label.
func (s Stats) Chapters() []CountEntry {
	entries := make([]CountEntry, 0, len(s.ByChapter))
	for name, count := range s.ByChapter {
		entries = append(entries, CountEntry{Name: name, Count: count})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name < entries[j].Name
	})
	return entries
}

// Audiences returns the audience buckets, most frequent first.
func (s Stats) Audiences() []CountEntry {
	return sortedByCount(s.ByAudience)
}

func sortedByCount(m map[string]int) []CountEntry {
	entries := make([]CountEntry, 0, len(m))
	for name, count := range m {
		entries = append(entries, CountEntry{Name: name, Count: count})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].Name < entries[j].Name
	})
	return entries
}

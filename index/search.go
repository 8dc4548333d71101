package index

import "strings"

const (
	// MatchScore is the score of a name whose stem contains the query.
	MatchScore = 1000

	// MinimumScore is the default inclusion threshold. Scores are either 0 or
	// MatchScore, so any threshold in (0, MatchScore] acts as a contains filter.
	MinimumScore = 20
)

// Stem strips the final extension component from name.
// A leading dot does not start an extension: ".bashrc" is its own stem.
func Stem(name string) string {
	dot := strings.LastIndexByte(name, '.')
	if dot <= 0 {
		return name
	}
	return name[:dot]
}

// Score rates stem against query: MatchScore when the query is a
// case-insensitive substring of the stem, 0 otherwise.
func Score(stem, query string) int {
	return score(strings.ToLower(stem), strings.ToLower(query))
}

func score(lowerStem, lowerQuery string) int {
	if strings.Contains(lowerStem, lowerQuery) {
		return MatchScore
	}
	return 0
}

// Search returns every entry whose stem scores at least minimumScore against
// query. Names and paths are returned in their original case; order follows
// map iteration and is unspecified. An empty query matches every entry.
func (fi *FileIndex) Search(query string, minimumScore int) []Entry {
	lowerQuery := strings.ToLower(query)

	var results []Entry
	for name, path := range fi.Files() {
		if score(strings.ToLower(Stem(name)), lowerQuery) >= minimumScore {
			results = append(results, Entry{Name: name, Path: path})
		}
	}
	return results
}

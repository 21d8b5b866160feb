// Package fuzzy resolves loose path queries against a set of known paths
// using a tiered algorithm: exact normalized path match, then filename/stem
// match, then subsequence fuzzy scoring. It works over any candidate set, so
// it serves both the index's path query and the no-daemon filesystem
// fallback.
package fuzzy

import (
	"path"
	"sort"
	"strings"
	"unicode"
)

// MaxScore is the score of a tier-1 (full path) match. Tier-2 matches score
// one below; tier-3 fuzzy scores are always far smaller.
const MaxScore = 1000

// maxFuzzyResults bounds how many tier-3 matches are returned.
const maxFuzzyResults = 10

// Candidate is one known path.
type Candidate struct {
	Path  string
	IsDir bool
}

// Match is a scored resolution result.
type Match struct {
	Path  string `json:"path"`
	Kind  string `json:"kind"` // "file" or "directory"
	Score int    `json:"score"`
}

// SplitSymbolQuery splits a "file:symbol" query on the first colon. The
// symbol segment is empty for plain path queries.
func SplitSymbolQuery(query string) (file, symbol string) {
	if i := strings.IndexByte(query, ':'); i >= 0 {
		return query[:i], query[i+1:]
	}
	return query, ""
}

// Resolve matches query against candidates and returns scored matches, best
// first. Tier 1 returns the single first full-path match; tier 2 returns all
// filename/stem ties; tier 3 returns the top fuzzy matches.
func Resolve(query string, candidates []Candidate) []Match {
	if query == "" {
		return nil
	}
	normQuery := normalize(query)

	// Tier 1: normalized full-path equality, first match wins.
	for _, c := range candidates {
		if normalize(c.Path) == normQuery {
			return []Match{{Path: c.Path, Kind: kind(c), Score: MaxScore}}
		}
	}

	// Tier 2: normalized filename or stem equality, all ties returned.
	var stemMatches []Match
	for _, c := range candidates {
		base := path.Base(c.Path)
		stem := strings.TrimSuffix(base, path.Ext(base))
		if normalize(base) == normQuery || normalize(stem) == normQuery {
			stemMatches = append(stemMatches, Match{Path: c.Path, Kind: kind(c), Score: MaxScore - 1})
		}
	}
	if len(stemMatches) > 0 {
		return stemMatches
	}

	// Tier 3: subsequence fuzzy score over every path.
	var matches []Match
	for _, c := range candidates {
		if score, ok := Score(query, c.Path); ok {
			matches = append(matches, Match{Path: c.Path, Kind: kind(c), Score: score})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].Path < matches[j].Path
	})
	if len(matches) > maxFuzzyResults {
		matches = matches[:maxFuzzyResults]
	}
	return matches
}

func kind(c Candidate) string {
	if c.IsDir {
		return "directory"
	}
	return "file"
}

// normalize lowercases s and treats '-', '_' and '.' as spaces so that the
// common separator spellings of a name compare equal.
func normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case '-', '_', '.':
			b.WriteByte(' ')
		default:
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

// Score performs subsequence fuzzy matching between query and target.
// Every query character must appear in order in the target; consecutive
// matches, word-boundary matches, and start-of-string matches earn bonuses,
// and longer targets are slightly penalized. Returns ok=false when the query
// is not a subsequence of the target.
func Score(query, target string) (score int, ok bool) {
	if query == "" {
		return 0, true
	}

	queryRunes := []rune(query)
	for i, r := range queryRunes {
		queryRunes[i] = unicode.ToLower(r)
	}
	// Boundary detection needs the original casing, so lowercase per rune
	// at comparison time instead of lowering the whole target up front.
	targetRunes := []rune(target)
	if len(queryRunes) > len(targetRunes) {
		return 0, false
	}

	queryPos := 0
	lastMatchPos := -1

	for targetPos := 0; targetPos < len(targetRunes) && queryPos < len(queryRunes); targetPos++ {
		if unicode.ToLower(targetRunes[targetPos]) != queryRunes[queryPos] {
			continue
		}

		matchScore := 1
		if lastMatchPos == targetPos-1 {
			matchScore += 5
		}
		if targetPos == 0 {
			matchScore += 10
		}
		if isWordBoundary(targetRunes, targetPos) {
			matchScore += 7
		}

		score += matchScore
		lastMatchPos = targetPos
		queryPos++
	}

	if queryPos != len(queryRunes) {
		return 0, false
	}

	// Shorter targets are better matches.
	score -= len(targetRunes) / 4
	return score, true
}

// isWordBoundary reports whether pos starts a word: after a separator, or at
// a lowercase-to-uppercase camelCase transition.
func isWordBoundary(runes []rune, pos int) bool {
	if pos == 0 {
		return true
	}
	prev := runes[pos-1]
	if prev == ' ' || prev == '/' || prev == '-' || prev == '_' || prev == '.' {
		return true
	}
	return unicode.IsLower(prev) && unicode.IsUpper(runes[pos])
}

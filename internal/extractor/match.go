package extractor

import (
	"strings"

	"github.com/citia/citewatch/internal/model"
)

// MatchResult holds the per-class match counts of one entity against one
// answer text. A text span counted for one class is never counted again for
// another, so a name that contains one of the entity's domains does not
// double-count.
type MatchResult struct {
	NameMatches    int
	DomainMatches  int
	SynonymMatches int
	// FirstNameIndex is the byte offset of the first plain case-insensitive
	// occurrence of the entity name, -1 when the name never occurs.
	FirstNameIndex int
}

// Total is the mention count across all match classes.
func (r MatchResult) Total() int {
	return r.NameMatches + r.DomainMatches + r.SynonymMatches
}

type span struct {
	start, end int
}

func overlaps(spans []span, s span) bool {
	for _, existing := range spans {
		if s.start < existing.end && existing.start < s.end {
			return true
		}
	}
	return false
}

func isWordByte(b byte) bool {
	return b == '_' ||
		(b >= '0' && b <= '9') ||
		(b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z')
}

// isTokenGlue reports whether the byte at i glues the match to a larger
// dotted or slashed token, e.g. the "/" in "hendricks.ai/docs" or the "."
// in "www.hendricks.ai". step is -1 when checking left of the match and +1
// when checking right.
func isTokenGlue(text string, i, step int) bool {
	b := text[i]
	if b != '.' && b != '/' && b != '-' {
		return false
	}
	next := i + step
	return next >= 0 && next < len(text) && isWordByte(text[next])
}

// wholeWordSpans returns the non-overlapping spans where needle occurs in
// text as a whole word: not adjoined to word characters and not embedded in
// a larger dotted/slashed token. Both inputs must already be lowercased.
func wholeWordSpans(text, needle string) []span {
	if needle == "" {
		return nil
	}
	var spans []span
	for i := 0; i+len(needle) <= len(text); {
		idx := strings.Index(text[i:], needle)
		if idx < 0 {
			break
		}
		start := i + idx
		end := start + len(needle)

		leftOK := start == 0 ||
			(!isWordByte(text[start-1]) && !isTokenGlue(text, start-1, -1))
		rightOK := end == len(text) ||
			(!isWordByte(text[end]) && !isTokenGlue(text, end, +1))

		if leftOK && rightOK {
			spans = append(spans, span{start, end})
			i = end
		} else {
			i = start + 1
		}
	}
	return spans
}

// substringSpans returns the non-overlapping spans where needle occurs in
// text as a plain substring (dots taken literally). Both inputs must already
// be lowercased.
func substringSpans(text, needle string) []span {
	if needle == "" {
		return nil
	}
	var spans []span
	for i := 0; i+len(needle) <= len(text); {
		idx := strings.Index(text[i:], needle)
		if idx < 0 {
			break
		}
		start := i + idx
		spans = append(spans, span{start, start + len(needle)})
		i = start + len(needle)
	}
	return spans
}

// Match counts the occurrences of one entity in one answer text. It is a
// pure function with no shared state, so callers can match entities against
// answers concurrently.
//
// Names and synonyms count as whole words; domains count as literal
// substrings. Classes claim spans in the order name, domain, synonym, and a
// claimed span is skipped by later classes.
func Match(text string, entity model.Entity) MatchResult {
	lower := strings.ToLower(text)
	name := strings.ToLower(strings.TrimSpace(entity.EntityName))

	result := MatchResult{FirstNameIndex: -1}
	if lower == "" {
		return result
	}

	if name != "" {
		result.FirstNameIndex = strings.Index(lower, name)
	}

	var claimed []span

	for _, s := range wholeWordSpans(lower, name) {
		claimed = append(claimed, s)
		result.NameMatches++
	}

	for _, domain := range entity.Domains {
		for _, s := range substringSpans(lower, strings.ToLower(strings.TrimSpace(domain))) {
			if overlaps(claimed, s) {
				continue
			}
			claimed = append(claimed, s)
			result.DomainMatches++
		}
	}

	for _, synonym := range entity.Synonyms {
		for _, s := range wholeWordSpans(lower, strings.ToLower(strings.TrimSpace(synonym))) {
			if overlaps(claimed, s) {
				continue
			}
			claimed = append(claimed, s)
			result.SynonymMatches++
		}
	}

	return result
}

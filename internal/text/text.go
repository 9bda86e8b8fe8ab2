// Package text splits narration text into tappable tokens and normalises words
// for lookup.
package text

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/rivo/uniseg"
)

// Segment is one token of a text: either a word or the run of spaces and
// punctuation between words.
type Segment struct {
	Text   string
	IsWord bool
	// Offset is the rune index of the segment's first character in the source.
	Offset int
}

// Split splits s on Unicode word boundaries (UAX #29). Concatenating the
// returned segments reproduces s exactly.
func Split(s string) []Segment {
	segments := make([]Segment, 0, len(s)/4)
	offset := 0
	state := -1
	rest := s
	for len(rest) > 0 {
		var word string
		word, rest, state = uniseg.FirstWordInString(rest, state)
		segments = append(segments, Segment{
			Text:   word,
			IsWord: isWordLike(word),
			Offset: offset,
		})
		offset += utf8.RuneCountInString(word)
	}
	return segments
}

// Words returns only the word segments of s.
func Words(s string) []Segment {
	var words []Segment
	for _, seg := range Split(s) {
		if seg.IsWord {
			words = append(words, seg)
		}
	}
	return words
}

// WordAt returns the word segment covering rune index idx, if any.
func WordAt(s string, idx int) (Segment, bool) {
	for _, seg := range Split(s) {
		n := utf8.RuneCountInString(seg.Text)
		if idx >= seg.Offset && idx < seg.Offset+n {
			return seg, seg.IsWord
		}
	}
	return Segment{}, false
}

func isWordLike(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

const edgePunctuation = `'".,!?;:`

// CleanWord trims s, strips leading and trailing quote and sentence
// punctuation, and lower-cases the result.
func CleanWord(s string) string {
	return strings.ToLower(strings.Trim(strings.TrimSpace(s), edgePunctuation))
}

var (
	markupChars = regexp.MustCompile(`[*#_]`)
	whitespace  = regexp.MustCompile(`\s+`)
)

// StripMarkup removes markdown emphasis characters and collapses whitespace,
// producing the exact string handed to the speech engine for quiz text.
func StripMarkup(s string) string {
	s = markupChars.ReplaceAllString(s, "")
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}

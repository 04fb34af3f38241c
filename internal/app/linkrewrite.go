package app

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Marker runes delimiting a hyperlink span in annotated text. They sit in the
// Unicode private use area, so model text never legitimately contains them.
const (
	linkOpen  = ""
	linkClose = ""
)

var markerStripper = strings.NewReplacer(linkOpen, "", linkClose, "")

// Segment is a run of annotated text. Href is empty for plain text.
type Segment struct {
	Text string
	Href string
}

// Annotate wraps every case-insensitive, whole-word occurrence of a keyword
// in link markers. Text is scanned once from the left and the longest keyword
// matching at a position wins, so overlapping keywords never nest and
// inserted markers are never rescanned. Matched text keeps its casing.
func Annotate(text string, keywords []string) string {
	text = markerStripper.Replace(text)
	kws := prepareKeywords(keywords)
	if len(kws) == 0 || text == "" {
		return text
	}

	var b strings.Builder
	b.Grow(len(text) + 16)

	for i := 0; i < len(text); {
		if n := matchKeyword(text, i, kws); n > 0 {
			b.WriteString(linkOpen)
			b.WriteString(text[i : i+n])
			b.WriteString(linkClose)
			i += n
			continue
		}
		_, size := utf8.DecodeRuneInString(text[i:])
		b.WriteString(text[i : i+size])
		i += size
	}
	return b.String()
}

// SplitMarked splits annotated text into plain and linked segments. A linked
// segment points at the slug of its text. An unterminated marker is dropped.
func SplitMarked(text string) []Segment {
	var segments []Segment
	for text != "" {
		start := strings.Index(text, linkOpen)
		if start < 0 {
			segments = appendPlain(segments, markerStripper.Replace(text))
			break
		}
		segments = appendPlain(segments, markerStripper.Replace(text[:start]))
		rest := text[start+len(linkOpen):]

		end := strings.Index(rest, linkClose)
		if end < 0 {
			segments = appendPlain(segments, markerStripper.Replace(rest))
			break
		}
		label := markerStripper.Replace(rest[:end])
		if slug := Slug(label); slug != "" {
			segments = append(segments, Segment{Text: label, Href: "/" + slug})
		} else {
			segments = appendPlain(segments, label)
		}
		text = rest[end+len(linkClose):]
	}
	return segments
}

func appendPlain(segments []Segment, text string) []Segment {
	if text == "" {
		return segments
	}
	if n := len(segments); n > 0 && segments[n-1].Href == "" {
		segments[n-1].Text += text
		return segments
	}
	return append(segments, Segment{Text: text})
}

// prepareKeywords trims, de-duplicates case-insensitively, drops keywords
// that have no slug, and orders the rest longest first.
func prepareKeywords(keywords []string) []string {
	seen := make(map[string]struct{}, len(keywords))
	out := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.TrimSpace(markerStripper.Replace(kw))
		if kw == "" || Slug(kw) == "" {
			continue
		}
		key := strings.ToLower(kw)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, kw)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if len(out[i]) != len(out[j]) {
			return len(out[i]) > len(out[j])
		}
		return out[i] < out[j]
	})
	return out
}

// matchKeyword returns the byte length of the keyword matching text at i, or 0.
func matchKeyword(text string, i int, kws []string) int {
	for _, kw := range kws {
		n := len(kw)
		if i+n > len(text) || !strings.EqualFold(text[i:i+n], kw) {
			continue
		}
		if !boundaryBefore(text, i, kw) || !boundaryAfter(text, i+n, kw) {
			continue
		}
		return n
	}
	return 0
}

func boundaryBefore(text string, i int, kw string) bool {
	first, _ := utf8.DecodeRuneInString(kw)
	if !isWordRune(first) || i == 0 {
		return true
	}
	prev, _ := utf8.DecodeLastRuneInString(text[:i])
	return !isWordRune(prev)
}

func boundaryAfter(text string, end int, kw string) bool {
	last, _ := utf8.DecodeLastRuneInString(kw)
	if !isWordRune(last) || end == len(text) {
		return true
	}
	next, _ := utf8.DecodeRuneInString(text[end:])
	return !isWordRune(next)
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}


package app

import (
	"errors"
	"net/url"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultTopic is generated for the site root.
const DefaultTopic = "Wikipedia"

const maxTopicRunes = 128

var (
	whitespaceRun = regexp.MustCompile(`[\s\p{Z}]+`)
	nonSlugChars  = regexp.MustCompile(`[^\w\-]+`)
)

// Slug converts free text into a URL-safe identifier: diacritics folded,
// lowercased, whitespace runs collapsed to hyphens, and every character
// outside [A-Za-z0-9_-] removed. Slug(Slug(x)) == Slug(x).
func Slug(text string) string {
	s := stripDiacritics(strings.TrimSpace(text))
	s = strings.ToLower(s)
	s = whitespaceRun.ReplaceAllString(s, "-")
	return nonSlugChars.ReplaceAllString(s, "")
}

// TopicFromPath decodes an escaped path segment into the free-text topic it
// names. An empty segment yields DefaultTopic.
func TopicFromPath(escaped string) (string, error) {
	if strings.Contains(escaped, "/") {
		return "", errors.New("topic contains a path separator")
	}
	decoded, err := url.PathUnescape(escaped)
	if err != nil {
		return "", err
	}
	topic := strings.TrimSpace(decoded)
	if topic == "" {
		return DefaultTopic, nil
	}
	if !utf8.ValidString(topic) {
		return "", errors.New("topic is not valid UTF-8")
	}
	return truncateRunes(topic, maxTopicRunes), nil
}

// TopicPath returns the site path for topic, escaped the way the search form does.
func TopicPath(topic string) string {
	return "/" + url.PathEscape(strings.TrimSpace(topic))
}

// SlugTitle converts a hyphenated slug into a human-friendly title.
func SlugTitle(slug string) string {
	parts := strings.FieldsFunc(slug, func(r rune) bool { return r == '-' || r == '_' })
	for i, part := range parts {
		r, size := utf8.DecodeRuneInString(part)
		parts[i] = string(unicode.ToUpper(r)) + part[size:]
	}
	return strings.Join(parts, " ")
}

func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:max]))
}

func stripDiacritics(s string) string {
	// transformers carry state, so each call builds its own chain
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return stripped
}

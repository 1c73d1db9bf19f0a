// Package emoji finds emoji in text and renders them to PNG for renderers
// whose fonts lack color glyphs.
package emoji

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	vs15 = '\uFE0E'
	vs16 = '\uFE0F'
	zwj  = '\u200D'
)

// Match is one emoji cluster found in a string. Start and End are byte
// offsets. Shortcode is set when the match came from a ":name:" code.
type Match struct {
	Start     int
	End       int
	Cluster   string
	Shortcode string
}

var shortcodePattern = regexp.MustCompile(`:([a-z0-9_+\-]+):`)

// IsEmoji reports whether r starts an emoji cluster.
func IsEmoji(r rune) bool {
	switch {
	case r >= 0xE0000 && r <= 0xE007F: // tag characters only follow a base
		return false
	case r >= 0x10000 && r <= 0x10FFFF:
		return true
	case r >= 0x2600 && r <= 0x27FF:
		return true
	case r >= 0x2300 && r <= 0x23FF:
		return true
	case r == 0x2B50:
		return true
	case r >= 0x203C && r <= 0x2049:
		return true
	}
	return false
}

// extends reports whether r continues the cluster started before it.
func extends(r rune) bool {
	return r == vs15 || r == vs16 || r == 0x20E3 ||
		(r >= 0x1F3FB && r <= 0x1F3FF) ||
		(r >= 0xE0020 && r <= 0xE007F)
}

func isRegionalIndicator(r rune) bool {
	return r >= 0x1F1E6 && r <= 0x1F1FF
}

// Contains reports whether s holds an emoji character or a known shortcode.
func Contains(s string) bool {
	return len(Find(s)) > 0
}

// Find returns the emoji clusters and known shortcodes of s in order.
// Variation selectors, skin tones and ZWJ sequences stay in one cluster.
func Find(s string) []Match {
	var matches []Match
	codes := shortcodeMatches(s)

	for i := 0; i < len(s); {
		for len(codes) > 0 && codes[0].Start < i {
			codes = codes[1:]
		}
		if len(codes) > 0 && i == codes[0].Start {
			matches = append(matches, codes[0])
			i = codes[0].End
			codes = codes[1:]
			continue
		}

		r, size := utf8.DecodeRuneInString(s[i:])
		if !IsEmoji(r) {
			i += size
			continue
		}
		end := clusterEnd(s, i, r, size)
		matches = append(matches, Match{Start: i, End: end, Cluster: s[i:end]})
		i = end
	}
	return matches
}

func clusterEnd(s string, start int, first rune, size int) int {
	end := start + size
	prev := first
	for end < len(s) {
		r, n := utf8.DecodeRuneInString(s[end:])
		switch {
		case extends(r):
			end += n
		case r == zwj:
			if end+n >= len(s) {
				return end
			}
			next, m := utf8.DecodeRuneInString(s[end+n:])
			if !IsEmoji(next) {
				return end
			}
			end += n + m
			prev = next
			continue
		case isRegionalIndicator(prev) && isRegionalIndicator(r):
			end += n
			prev = 0
			continue
		default:
			return end
		}
		prev = r
	}
	return end
}

func shortcodeMatches(s string) []Match {
	if !strings.Contains(s, ":") {
		return nil
	}
	var out []Match
	for _, loc := range shortcodePattern.FindAllStringSubmatchIndex(s, -1) {
		name := s[loc[2]:loc[3]]
		glyph, ok := Lookup(name)
		if !ok {
			continue
		}
		out = append(out, Match{Start: loc[0], End: loc[1], Cluster: glyph, Shortcode: name})
	}
	return out
}

// WithPresentation appends VS16 unless the cluster already carries a
// variation selector, forcing color presentation in Word.
func WithPresentation(cluster string) string {
	if strings.ContainsRune(cluster, vs16) || strings.ContainsRune(cluster, vs15) {
		return cluster
	}
	return cluster + string(vs16)
}

// Visible strips the invisible joiners and selectors of a cluster, leaving
// the runes a font has glyphs for.
func Visible(cluster string) string {
	return strings.Map(func(r rune) rune {
		if r == vs15 || r == vs16 || r == zwj || (r >= 0xE0020 && r <= 0xE007F) {
			return -1
		}
		return r
	}, cluster)
}

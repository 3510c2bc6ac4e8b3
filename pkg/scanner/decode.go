package scanner

import (
	"html"
	"regexp"
	"strconv"
	"strings"
)

// Escaped and percent-encoded sequences the decoder normalizes before
// pattern application. Detection runs on the maximally decoded form so
// obfuscated values (A or %41 runs) are not missed.
var (
	unicodeEscapeRe = regexp.MustCompile(`\\u([0-9a-fA-F]{4})`)
	hexEscapeRe     = regexp.MustCompile(`\\x([0-9a-fA-F]{2})`)
	percentRe       = regexp.MustCompile(`%([0-9a-fA-F]{2})`)
)

// Decode normalizes escaped Unicode sequences, percent-encoded bytes, and
// HTML entities in s. Decoding is single-pass per layer; offsets recorded
// by the engine index the decoded text, which is what the content map
// retains.
func Decode(s string) string {
	if strings.ContainsRune(s, '\\') {
		s = unicodeEscapeRe.ReplaceAllStringFunc(s, func(m string) string {
			code, err := strconv.ParseUint(m[2:], 16, 32)
			if err != nil {
				return m
			}
			return string(rune(code))
		})
		s = hexEscapeRe.ReplaceAllStringFunc(s, func(m string) string {
			code, err := strconv.ParseUint(m[2:], 16, 8)
			if err != nil {
				return m
			}
			return string(rune(code))
		})
	}
	if strings.ContainsRune(s, '%') {
		s = percentRe.ReplaceAllStringFunc(s, func(m string) string {
			code, err := strconv.ParseUint(m[1:], 16, 8)
			if err != nil {
				return m
			}
			b := byte(code)
			// Decoding control bytes would corrupt the text more often
			// than it reveals anything.
			if b < 0x20 || b == 0x7f {
				return m
			}
			return string(rune(b))
		})
	}
	if strings.ContainsRune(s, '&') {
		s = html.UnescapeString(s)
	}
	return s
}

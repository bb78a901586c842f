package httpwire

import (
	"net/url"
	"strings"
)

// ParseForm decodes an application/x-www-form-urlencoded body.
// Pairs without '=' are dropped; a repeated key keeps its last value.
func ParseForm(body string) map[string]string {
	form := make(map[string]string)
	for _, part := range strings.Split(body, "&") {
		k, v, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		form[Unescape(k)] = Unescape(v)
	}
	return form
}

// Unescape decodes '+' as space and %XX sequences as bytes. Unlike
// url.QueryUnescape it never fails: a '%' not followed by two hex digits is
// kept literally.
func Unescape(s string) string {
	s = strings.ReplaceAll(s, "+", " ")
	if !strings.Contains(s, "%") {
		return s
	}

	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '%' && i+2 < len(s) {
			hi, okHi := unhex(s[i+1])
			lo, okLo := unhex(s[i+2])
			if okHi && okLo {
				out = append(out, hi<<4|lo)
				i += 2
				continue
			}
		}
		out = append(out, s[i])
	}
	return string(out)
}

// Escape is the inverse of Unescape.
func Escape(s string) string {
	return url.QueryEscape(s)
}

// EncodeForm builds a urlencoded body from ordered key/value pairs.
func EncodeForm(pairs ...string) string {
	var sb strings.Builder
	for i := 0; i+1 < len(pairs); i += 2 {
		if sb.Len() > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(Escape(pairs[i]))
		sb.WriteByte('=')
		sb.WriteString(Escape(pairs[i+1]))
	}
	return sb.String()
}

func unhex(c byte) (byte, bool) {
	switch {
	case '0' <= c && c <= '9':
		return c - '0', true
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10, true
	case 'A' <= c && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

// Package sanitize cleans untrusted text submitted through public forms.
package sanitize

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const maxEmailLength = 254

var (
	emailPattern  = regexp.MustCompile(`^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}$`)
	scriptPattern = regexp.MustCompile(`(?i)<\s*script|javascript\s*:|vbscript\s*:|<[^>]*[\s/]on[a-z]+\s*=`)
	spacePattern  = regexp.MustCompile(`[ \t\f\v]+`)
	blankLines    = regexp.MustCompile(`\n{3,}`)
)

// dropped elements lose their content as well as their tags.
var dropped = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Iframe:   true,
	atom.Object:   true,
	atom.Embed:    true,
	atom.Noscript: true,
	atom.Template: true,
}

// StripHTML removes every tag from s, keeping text content. Entities are
// decoded and runs of spaces collapsed.
func StripHTML(s string) string {
	if s == "" {
		return ""
	}

	var sb strings.Builder
	z := html.NewTokenizer(strings.NewReader(s))
	depth := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			return collapse(sb.String())
		case html.StartTagToken:
			name, _ := z.TagName()
			if dropped[atom.Lookup(name)] {
				depth++
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if dropped[atom.Lookup(name)] && depth > 0 {
				depth--
			}
		case html.TextToken:
			if depth == 0 {
				sb.Write(z.Text())
			}
		}
	}
}

// Text strips markup, trims and truncates s to at most max runes.
func Text(s string, max int) string {
	out := strings.TrimSpace(StripHTML(s))
	return Truncate(out, max)
}

// Truncate cuts s to at most max runes. A non-positive max leaves s intact.
func Truncate(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:max]))
}

// Email normalises and validates an address.
func Email(s string) (string, bool) {
	addr := strings.ToLower(strings.TrimSpace(s))
	if addr == "" || len(addr) > maxEmailLength {
		return "", false
	}
	if !emailPattern.MatchString(addr) || strings.Contains(addr, "..") {
		return "", false
	}
	return addr, true
}

// ContainsScript reports whether s carries script tags, script URLs or inline event handlers.
func ContainsScript(s string) bool {
	return scriptPattern.MatchString(s)
}

func collapse(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = spacePattern.ReplaceAllString(s, " ")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	s = strings.Join(lines, "\n")
	return strings.TrimSpace(blankLines.ReplaceAllString(s, "\n\n"))
}

package ranking

import (
	"regexp"
	"sort"
	"strings"
)

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#039;",
)

// EscapeHTML escapes the five HTML-significant characters.
func EscapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}

// Highlight returns text HTML-escaped with every case-insensitive occurrence
// of a keyword term wrapped in <span class="highlight">. Matching runs on the
// raw text, so entities and the inserted markup are never matched.
func Highlight(text, keyword string) string {
	if text == "" {
		return ""
	}

	re := termPattern(Terms(keyword))
	if re == nil {
		return EscapeHTML(text)
	}

	var b strings.Builder
	last := 0
	for _, loc := range re.FindAllStringIndex(text, -1) {
		b.WriteString(EscapeHTML(text[last:loc[0]]))
		b.WriteString(`<span class="highlight">`)
		b.WriteString(EscapeHTML(text[loc[0]:loc[1]]))
		b.WriteString(`</span>`)
		last = loc[1]
	}
	b.WriteString(EscapeHTML(text[last:]))

	return b.String()
}

// termPattern builds one case-insensitive alternation, longest term first so
// overlapping terms produce a single span.
func termPattern(terms []string) *regexp.Regexp {
	if len(terms) == 0 {
		return nil
	}

	sorted := make([]string, len(terms))
	copy(sorted, terms)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i]) > len(sorted[j])
	})

	quoted := make([]string, len(sorted))
	for i, t := range sorted {
		quoted[i] = regexp.QuoteMeta(t)
	}

	return regexp.MustCompile("(?i)(?:" + strings.Join(quoted, "|") + ")")
}

// Package columns canonicalizes raw tabular headers to schema column names.
// It is purely structural: it never inspects cell values, only header text.
package columns

import (
	"fmt"
	"regexp"
	"strings"
)

// utf8BOM is stripped from the first header cell if present.
const utf8BOM = "\uFEFF"

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Canonicalize maps one raw header cell to its canonical form: trim and
// lowercase, squash every run of characters outside [a-z0-9] to a single
// underscore, and trim leading/trailing underscores.
func Canonicalize(raw string) string {
	c := strings.ToLower(strings.TrimSpace(raw))
	c = nonAlnum.ReplaceAllString(c, "_")
	return strings.Trim(c, "_")
}

// Normalize canonicalizes every header, resolves aliases, and disambiguates
// collisions. The first occurrence of a target name keeps it; later
// occurrences get a _1, _2, ... suffix in encounter order so no column is
// silently dropped and downstream stages never see duplicate keys. A UTF-8
// BOM on the first cell is stripped before normalization.
func Normalize(headers []string, aliases map[string]string) []string {
	out := make([]string, len(headers))
	seen := make(map[string]int, len(headers))
	for i, h := range headers {
		if i == 0 {
			h = strings.TrimPrefix(h, utf8BOM)
		}
		target := Canonicalize(h)
		if aliases != nil {
			if mapped, ok := aliases[target]; ok {
				target = mapped
			}
		}
		if n := seen[target]; n > 0 {
			out[i] = fmt.Sprintf("%s_%d", target, n)
		} else {
			out[i] = target
		}
		seen[target]++
	}
	return out
}

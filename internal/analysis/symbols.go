// Package analysis cross-references mandate citations against
// resolution recurrence series: which cited resolutions recur, which
// have newer versions available, and which paragraphs mention each
// entity.
package analysis

import (
	"regexp"
	"strings"
)

var (
	reSpaceParen  = regexp.MustCompile(`\s+\(`)
	reSuffixPart  = regexp.MustCompile(`\s+([A-C])$`)
	reSuffixRange = regexp.MustCompile(`\s+([A-C]-[A-C])$`)
)

// NormalizeSymbol canonicalizes a document symbol for joining:
// "A/RES/60/286 (2006)" and "A/RES/60/286(2006)" refer to the same
// resolution, as do "A/RES/68/1 A-B" and "A/RES/68/1A-B".
func NormalizeSymbol(s string) string {
	if s == "" {
		return s
	}
	s = reSpaceParen.ReplaceAllString(s, "(")
	s = strings.ReplaceAll(s, "–", "-")
	s = strings.ReplaceAll(s, "—", "-")
	s = reSuffixPart.ReplaceAllString(s, "$1")
	s = reSuffixRange.ReplaceAllString(s, "$1")
	return s
}

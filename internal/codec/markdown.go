package codec

import (
	"regexp"
	"strings"
)

var (
	outputPrefixRe  = regexp.MustCompile(`(?im)^\s*#{1,6}\s*OUTPUT\s+[AB]:.*\n`)
	crampedHeadRe   = regexp.MustCompile(`(?m)^(#{1,6})([^#\s])`)
	headingSpacerRe = regexp.MustCompile("([^\n])\n(#{1,6} )")
)

// UnescapeLiterals replaces literal \n and \t sequences that models emit
// inside JSON string fields with real newlines and tabs.
func UnescapeLiterals(s string) string {
	s = strings.ReplaceAll(s, `\n`, "\n")
	s = strings.ReplaceAll(s, `\t`, "\t")
	return s
}

// TidyMarkdown normalizes model-produced markdown for publication: drops
// noisy "OUTPUT A:"/"OUTPUT B:" heading prefixes, fixes cramped headings
// like "##Heading", and ensures a blank line before each heading.
func TidyMarkdown(md string) string {
	if md == "" {
		return ""
	}
	md = outputPrefixRe.ReplaceAllString(md, "")
	md = crampedHeadRe.ReplaceAllString(md, "$1 $2")
	md = headingSpacerRe.ReplaceAllString(md, "$1\n\n$2")
	return strings.TrimSpace(md)
}

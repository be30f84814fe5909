package term

import (
	"fmt"
	"regexp"
	"unicode/utf8"

	"github.com/Gskartwii/wezterm/config"
)

// Rule is a compiled hyperlink rule.
type Rule struct {
	re     *regexp.Regexp
	format string
}

// Link is a detected hyperlink spanning columns [Start, End).
type Link struct {
	Start int
	End   int
	URI   string
}

// CompileRules compiles the configured hyperlink rules.
func CompileRules(rules []config.HyperlinkRule) ([]Rule, error) {
	out := make([]Rule, 0, len(rules))
	for i, r := range rules {
		re, err := regexp.Compile(r.Regex)
		if err != nil {
			return nil, fmt.Errorf("term: hyperlink rule %d: %w", i, err)
		}
		out = append(out, Rule{re: re, format: r.Format})
	}
	return out, nil
}

// FindLinks applies rules to one line of text. Earlier rules win where
// matches overlap. Columns count runes, which matches cells for
// single-width text.
func FindLinks(line string, rules []Rule) []Link {
	var links []Link
	for _, r := range rules {
		for _, m := range r.re.FindAllStringSubmatchIndex(line, -1) {
			start := utf8.RuneCountInString(line[:m[0]])
			end := start + utf8.RuneCountInString(line[m[0]:m[1]])
			if overlaps(links, start, end) {
				continue
			}
			uri := string(r.re.ExpandString(nil, r.format, line, m))
			links = append(links, Link{Start: start, End: end, URI: uri})
		}
	}
	return links
}

func overlaps(links []Link, start, end int) bool {
	for _, l := range links {
		if start < l.End && l.Start < end {
			return true
		}
	}
	return false
}

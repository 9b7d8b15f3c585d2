// Package htmlclean removes style and script blocks that older theme
// versions injected directly into the editor's workbench.html.
package htmlclean

import (
	"regexp"
	"strings"
)

// TagAttribute marks blocks injected by the theme itself.
const TagAttribute = "woodfish-theme"

// Scope selects which part of the document a Rule sees.
type Scope int

const (
	// ScopeDocument applies the rule to the whole document.
	ScopeDocument Scope = iota
	// ScopeStyle applies the rule only inside <style> element bodies.
	ScopeStyle
)

// Rule is one removal pattern.
type Rule struct {
	Name    string
	Pattern *regexp.Regexp
	Scope   Scope

	// Replace returns the replacement for a match and whether the match
	// counts as a hit. Nil removes every match.
	Replace func(match string) (string, bool)

	// When gates the rule on the document as left by the earlier rules.
	// Nil always applies.
	When func(doc string) bool
}

// Hit counts the matches of one rule.
type Hit struct {
	Rule  string
	Count int
}

// Report summarises a Clean run.
type Report struct {
	Hits  []Hit
	Total int
}

var styleBlock = regexp.MustCompile(`(?is)(<style[^>]*>)(.*?)(</style>)`)

// Clean applies rules in order and returns the cleaned document. It is a pure
// function of its inputs.
func Clean(doc string, rules []Rule) (string, Report) {
	var rep Report
	for _, r := range rules {
		if r.When != nil && !r.When(doc) {
			continue
		}

		count := 0
		apply := func(s string) string {
			return r.Pattern.ReplaceAllStringFunc(s, func(m string) string {
				if r.Replace == nil {
					count++
					return ""
				}
				out, hit := r.Replace(m)
				if hit {
					count++
				}
				return out
			})
		}

		switch r.Scope {
		case ScopeStyle:
			doc = styleBlock.ReplaceAllStringFunc(doc, func(block string) string {
				parts := styleBlock.FindStringSubmatch(block)
				return parts[1] + apply(parts[2]) + parts[3]
			})
		default:
			doc = apply(doc)
		}

		if count > 0 {
			rep.Hits = append(rep.Hits, Hit{Rule: r.Name, Count: count})
			rep.Total += count
		}
	}
	return doc, rep
}

const keywords = `(?:woodfish|glow|gradient|rainbow|cursor|animation)`

// DefaultRules returns the cleanup rules for every injection style the theme
// has used.
func DefaultRules() []Rule {
	tag := regexp.QuoteMeta(TagAttribute)
	return []Rule{
		{Name: "tagged style", Pattern: regexp.MustCompile(`(?is)<style[^>]*` + tag + `[^>]*>.*?</style>`)},
		{Name: "tagged script", Pattern: regexp.MustCompile(`(?is)<script[^>]*` + tag + `[^>]*>.*?</script>`)},
		{Name: "keyword style", Pattern: regexp.MustCompile(`(?is)<style[^>]*` + keywords + `[^>]*>.*?</style>`)},
		{Name: "keyword script", Pattern: regexp.MustCompile(`(?is)<script[^>]*` + keywords + `[^>]*>.*?</script>`)},
		{Name: "inline style", Pattern: regexp.MustCompile(`(?i)<[^>]+style="[^"]*` + keywords + `[^"]*"[^>]*>`)},
		{Name: "cursor keyframes", Scope: ScopeStyle, Pattern: regexp.MustCompile(`(?i)@keyframes\s+(?:rainbow-cursor|bp-animation|cursor-hue|cursor-blink)[^{]*\{(?:[^{}]*\{[^{}]*\})*[^{}]*\}`)},
		{Name: "div.cursor rule", Scope: ScopeStyle, Pattern: regexp.MustCompile(`(?i)div\.cursor[^{]*\{[^{}]*\}`)},
		{Name: "monaco cursor rule", Scope: ScopeStyle, Pattern: regexp.MustCompile(`(?i)\.monaco-editor[^{]*\.cursor[^{]*\{[^{}]*\}`)},
		{Name: "cursor rule", Scope: ScopeStyle, Pattern: regexp.MustCompile(`(?i)[^{}]*\.cursor[^{}]*\{[^{}]*\}`)},
		{Name: "glow variables", Scope: ScopeStyle, Pattern: regexp.MustCompile(`(?i)(?:--gradient-|--glow-|text-shadow:\s*0\s+0\s+\d+px\s+currentColor)[^;]*;?`)},
		{
			Name:    "cursor gradient",
			Scope:   ScopeStyle,
			Pattern: regexp.MustCompile(`(?i)linear-gradient\([^)]*\)`),
			Replace: func(m string) (string, bool) {
				lower := strings.ToLower(m)
				if strings.Contains(lower, "cursor") || strings.Contains(lower, "rainbow") || strings.Contains(lower, "#ff") {
					return "transparent", true
				}
				return m, false
			},
		},
		{
			Name:    "cursor background-size",
			Scope:   ScopeStyle,
			Pattern: regexp.MustCompile(`(?i)background-size:\s*\d+%\s*\d+%`),
			When:    func(doc string) bool { return strings.Contains(doc, "cursor") },
			Replace: func(m string) (string, bool) {
				if strings.Contains(m, "800%") || strings.Contains(m, "1200%") {
					return "background-size: auto", true
				}
				return m, false
			},
		},
	}
}

// Package decompose scores build-request complexity and splits oversized
// requests into dependency-ordered generation steps.
package decompose

import "regexp"

// Category orders steps by real build dependencies: the page skeleton
// first, then auth/api wiring, then the data and logic that render behind
// it, styling last.
type Category int

const (
	CategoryLayout Category = iota
	CategoryAuth
	CategoryAPI
	CategoryData
	CategoryStyling
)

func (c Category) String() string {
	switch c {
	case CategoryLayout:
		return "layout"
	case CategoryAuth:
		return "auth"
	case CategoryAPI:
		return "api"
	case CategoryData:
		return "data"
	case CategoryStyling:
		return "styling"
	default:
		return "unknown"
	}
}

// Feature is one detected unit of work.
type Feature struct {
	Category Category
	Label    string
	Phrase   string // the matched text, for step prompts
}

// featureRule maps descriptive phrases to a (category, label) pair.
// Ordered: earlier entries win the stable sort within a category, and
// deduplication is by label.
type featureRule struct {
	pattern  *regexp.Regexp
	category Category
	label    string
}

// Note: "dashboard" fires both a layout feature (the page surface) and a
// data feature (the widgets rendered on it); they are distinct build steps.
var featureRules = []featureRule{
	{regexp.MustCompile(`(?i)\b(?:dashboard|landing page|home ?page|navbar|navigation|sidebar|menu|layout)\b`), CategoryLayout, "page layout and navigation"},
	{regexp.MustCompile(`(?i)\b(?:login|log ?in|sign ?in|sign ?up|signup|register|authentication|auth)\b`), CategoryAuth, "user authentication"},
	{regexp.MustCompile(`(?i)\b(?:oauth|sso|jwt|session)\b`), CategoryAuth, "session management"},
	{regexp.MustCompile(`(?i)\b(?:api|endpoint|backend|database|crud|rest|graphql)\b`), CategoryAPI, "api integration"},
	{regexp.MustCompile(`(?i)\b(?:payment|checkout|stripe|billing|subscription)\b`), CategoryAPI, "payment processing"},
	{regexp.MustCompile(`(?i)\b(?:uploads?|file attach|avatars?)\b`), CategoryAPI, "file uploads"},
	{regexp.MustCompile(`(?i)\b(?:real[- ]?time|websockets?|live updat|notifications?)\b`), CategoryAPI, "real-time updates"},
	{regexp.MustCompile(`(?i)\b(?:dashboard|chart|graph|analytics|report|showing|metric)\b`), CategoryData, "data display"},
	{regexp.MustCompile(`(?i)\b(?:todo|task|checklist)\b`), CategoryData, "task management"},
	{regexp.MustCompile(`(?i)\b(?:form|input|validation|submit)\b`), CategoryData, "forms and validation"},
	{regexp.MustCompile(`(?i)\b(?:search|filter|sort|pagination)\b`), CategoryData, "search and filtering"},
	{regexp.MustCompile(`(?i)\b(?:profile|settings|account page)\b`), CategoryData, "user profile"},
	{regexp.MustCompile(`(?i)\b(?:styling|style|theme|dark mode|animation|css|tailwind)\b`), CategoryStyling, "styling and theming"},
	{regexp.MustCompile(`(?i)\b(?:responsive|mobile[- ]friendly|breakpoints?)\b`), CategoryStyling, "responsive design"},
}

// ExtractFeatures runs the rule table over the prompt, deduplicating by
// label. Result order follows the table, which keeps the later
// category-stable sort deterministic.
func ExtractFeatures(prompt string) []Feature {
	seen := make(map[string]bool)
	var out []Feature
	for _, rule := range featureRules {
		m := rule.pattern.FindString(prompt)
		if m == "" || seen[rule.label] {
			continue
		}
		seen[rule.label] = true
		out = append(out, Feature{
			Category: rule.category,
			Label:    rule.label,
			Phrase:   m,
		})
	}
	return out
}

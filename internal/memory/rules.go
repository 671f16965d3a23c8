package memory

import (
	"regexp"
	"strings"
)

// Extraction is regex-driven: ordered, data-driven rule tables consumed by
// pure functions. No rule may fail a compression pass; a non-matching rule
// simply contributes nothing.

var (
	filePathPattern = regexp.MustCompile(`\b[\w./-]+\.(?:tsx?|jsx?|go|py|rb|rs|java|kt|css|scss|html|json|ya?ml|sql|md)\b`)

	// Declaration-keyword patterns for identifiers across the languages we
	// see in generation output.
	declarationPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\bfunction\s+([A-Za-z_$][\w$]*)`),
		regexp.MustCompile(`\b(?:const|let|var)\s+([A-Z][\w$]*)\s*=`),
		regexp.MustCompile(`\bclass\s+([A-Za-z_$][\w$]*)`),
		regexp.MustCompile(`\binterface\s+([A-Za-z_$][\w$]*)`),
		regexp.MustCompile(`\btype\s+([A-Za-z_$][\w$]*)`),
		regexp.MustCompile(`\bfunc\s+(?:\([^)]*\)\s*)?([A-Za-z_][\w]*)`),
		regexp.MustCompile(`\bdef\s+([a-z_][\w]*)`),
	}

	endpointPattern = regexp.MustCompile(`\b(GET|POST|PUT|PATCH|DELETE)\s+(/[\w/:.{}-]*)`)

	decisionTriggers = []string{"decided", "chose", "using", "switched to", "went with"}

	// Fixed technology vocabulary checked against lowercase text.
	techVocabulary = []string{
		"react", "next.js", "vue", "svelte", "angular", "tailwind", "typescript",
		"javascript", "node", "express", "fastify", "prisma", "postgres",
		"postgresql", "mysql", "sqlite", "mongodb", "redis", "graphql", "rest",
		"stripe", "firebase", "supabase", "auth0", "jwt", "oauth", "docker",
		"webpack", "vite", "jest", "vitest", "zustand", "redux",
	}

	phaseKeywords = map[Phase][]string{
		PhaseDebugging: {"error", "bug", "fix", "broken", "doesn't work", "failing", "crash"},
		PhaseRefining:  {"improve", "refactor", "style", "polish", "adjust", "tweak", "clean up"},
		PhaseBuilding:  {"add", "create", "build", "implement", "make", "generate"},
		PhasePlanning:  {"plan", "design", "architecture", "think", "approach", "consider"},
	}

	// Checked in priority order: a tie resolves to the earlier phase.
	phasePriority = []Phase{PhaseDebugging, PhaseRefining, PhaseBuilding, PhasePlanning}

	sentenceSplit = regexp.MustCompile(`(?m)[.!?]\s+|\n+`)
)

func extractFiles(text string) []string {
	return dedupe(filePathPattern.FindAllString(text, -1))
}

func extractIdentifiers(text string) []string {
	var out []string
	for _, p := range declarationPatterns {
		for _, m := range p.FindAllStringSubmatch(text, -1) {
			if len(m) > 1 {
				out = append(out, m[1])
			}
		}
	}
	return dedupe(out)
}

func extractEndpoints(text string) []string {
	var out []string
	for _, m := range endpointPattern.FindAllStringSubmatch(text, -1) {
		out = append(out, m[1]+" "+m[2])
	}
	return dedupe(out)
}

// extractDecisions returns the sentences containing a decision trigger.
func extractDecisions(text string) []string {
	var out []string
	for _, sentence := range splitSentences(text) {
		lower := strings.ToLower(sentence)
		for _, trigger := range decisionTriggers {
			if strings.Contains(lower, trigger) {
				out = append(out, strings.TrimSpace(sentence))
				break
			}
		}
	}
	return dedupe(out)
}

func extractTech(text string) []string {
	lower := strings.ToLower(text)
	var out []string
	for _, tech := range techVocabulary {
		if strings.Contains(lower, tech) {
			out = append(out, tech)
		}
	}
	return out
}

// classifyPhase counts phase keywords and returns the majority winner,
// resolving ties by priority order.
func classifyPhase(text string) Phase {
	lower := strings.ToLower(text)
	best := PhaseBuilding
	bestCount := 0
	for _, phase := range phasePriority {
		count := 0
		for _, kw := range phaseKeywords[phase] {
			count += strings.Count(lower, kw)
		}
		if count > bestCount {
			best = phase
			bestCount = count
		}
	}
	return best
}

func splitSentences(text string) []string {
	parts := sentenceSplit.Split(text, -1)
	out := parts[:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return out
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := in[:0]
	for _, v := range in {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// Package scapeid canonicalizes environment and strategy names.
package scapeid

import "strings"

// Normalize canonicalizes environment names and their aliases. Unknown names
// are returned in normalized form.
func Normalize(name string) string {
	normalized := clean(name)
	if normalized == "" {
		return ""
	}
	for _, candidate := range aliasCandidates(normalized) {
		if canonical, ok := canonicalEnvironment(candidate); ok {
			return canonical
		}
	}
	return normalized
}

// Strategy canonicalizes strategy names such as "Single_Straight" or
// "population-dual".
func Strategy(name string) string {
	normalized := clean(name)
	switch normalized {
	case "single", "single-straight":
		return "single"
	case "single-bounded", "single-straight-bounded", "bounded-single-straight":
		return "single-bounded"
	case "group", "group-straight":
		return "group"
	case "dual", "population-dual", "dual-population":
		return "dual"
	default:
		return normalized
	}
}

func clean(name string) string {
	normalized := strings.TrimSpace(strings.ToLower(name))
	normalized = strings.ReplaceAll(normalized, "_", "-")
	normalized = strings.ReplaceAll(normalized, " ", "-")
	return strings.Trim(normalized, "-")
}

func aliasCandidates(normalized string) []string {
	candidates := []string{normalized}
	candidate := strings.Trim(strings.TrimPrefix(normalized, "env-"), "-")
	if candidate != "" && candidate != normalized {
		candidates = append(candidates, candidate)
	}
	for _, suffix := range []string{"-counter", "-value", "-environment"} {
		if trimmed := strings.TrimSuffix(candidate, suffix); trimmed != candidate && trimmed != "" {
			candidates = append(candidates, trimmed)
		}
	}
	return candidates
}

func canonicalEnvironment(alias string) (string, bool) {
	switch alias {
	case "branch", "branches":
		return "branch", true
	case "target":
		return "target", true
	default:
		return "", false
	}
}

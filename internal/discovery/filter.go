package discovery

import (
	"path/filepath"
	"strings"
)

// Filter filters test cases by name pattern
type Filter struct{}

// NewFilter creates a new Filter
func NewFilter() *Filter {
	return &Filter{}
}

// FilterByName keeps the cases matching pattern. Cases are matched on their
// "Class#method" part so patterns like "*LoginTest#*" or "*Payment*" work.
func (f *Filter) FilterByName(cases []string, pattern string) []string {
	if pattern == "" {
		return cases
	}

	var filtered []string
	for _, c := range cases {
		if Matches(shortName(c), pattern) || Matches(c, pattern) {
			filtered = append(filtered, c)
		}
	}
	return filtered
}

// shortName strips the package from "package.Class#method"
func shortName(name string) string {
	class, method, _ := strings.Cut(name, "#")
	if i := strings.LastIndex(class, "."); i >= 0 {
		class = class[i+1:]
	}
	if method == "" {
		return class
	}
	return class + "#" + method
}

// Matches reports whether name matches the wildcard pattern
func Matches(name, pattern string) bool {
	// Try to match using filepath.Match (supports * and ? wildcards)
	if matched, err := filepath.Match(pattern, name); err == nil && matched {
		return true
	}

	if !strings.Contains(pattern, "*") {
		// If no wildcards, do a simple contains check
		return !strings.Contains(pattern, "?") && strings.Contains(name, pattern)
	}

	// More flexible match for patterns like "*Payment*": every part must appear in order
	rest := name
	matchedAny := false
	for _, part := range strings.Split(pattern, "*") {
		if part == "" {
			continue
		}
		i := strings.Index(rest, part)
		if i < 0 {
			return false
		}
		rest = rest[i+len(part):]
		matchedAny = true
	}
	return matchedAny
}

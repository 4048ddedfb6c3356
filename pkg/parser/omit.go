package parser

import (
	"path/filepath"
	"strings"
)

// ExcludesType reports whether the qualified class or enumeration name
// ("geom::Point") matches one of the ExcludeTypes patterns.
func (o *Options) ExcludesType(qualified string) bool {
	return matchAny(o.ExcludeTypes, qualified)
}

// ExcludesNamespace reports whether the qualified namespace name matches one
// of the ExcludeNamespaces patterns.
func (o *Options) ExcludesNamespace(qualified string) bool {
	return matchAny(o.ExcludeNamespaces, qualified)
}

// matchAny applies shell glob patterns to a "::"-qualified name. A pattern
// without "::" also matches the last segment alone.
func matchAny(patterns []string, qualified string) bool {
	if qualified == "" {
		return false
	}
	simple := lastSegment(qualified)
	for _, p := range patterns {
		if ok, _ := filepath.Match(p, qualified); ok {
			return true
		}
		if !strings.Contains(p, "::") {
			if ok, _ := filepath.Match(p, simple); ok {
				return true
			}
		}
	}
	return false
}

func lastSegment(qualified string) string {
	if i := strings.LastIndex(qualified, "::"); i >= 0 {
		return qualified[i+2:]
	}
	return qualified
}

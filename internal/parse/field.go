package parse

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
)

var (
	wordBoundaryRe = regexp.MustCompile(`([a-z0-9])([A-Z])`)
	separatorRe    = regexp.MustCompile(`[\s_\-]+`)
)

// Words splits a field name written in snake_case, kebab-case, camelCase or
// PascalCase into its lower-case words.
func Words(name string) []string {
	s := strings.TrimSpace(name)
	if s == "" {
		return nil
	}
	s = wordBoundaryRe.ReplaceAllString(s, "${1}_${2}")
	s = separatorRe.ReplaceAllString(s, "_")

	var words []string
	for _, w := range strings.Split(s, "_") {
		if w != "" {
			words = append(words, strings.ToLower(w))
		}
	}
	return words
}

// Snake renders a field name as snake_case ("firstName" -> "first_name").
func Snake(name string) string {
	return strings.Join(Words(name), "_")
}

// Camel renders a field name as camelCase ("first_name" -> "firstName").
func Camel(name string) string {
	words := Words(name)
	for i := 1; i < len(words); i++ {
		words[i] = upperFirst(words[i])
	}
	return strings.Join(words, "")
}

// Pascal renders a field name as PascalCase ("first_name" -> "FirstName").
func Pascal(name string) string {
	words := Words(name)
	for i := range words {
		words[i] = upperFirst(words[i])
	}
	return strings.Join(words, "")
}

// KeyVariants lists the spellings a logical field may appear under, in lookup
// order and without duplicates. The name as given always comes first.
func KeyVariants(name string) []string {
	candidates := []string{name, Snake(name), Camel(name), Pascal(name)}
	seen := make(map[string]struct{}, len(candidates))
	variants := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		variants = append(variants, c)
	}
	return variants
}

// Fold returns the case-folded form of s used for case-insensitive comparison.
// A Caser is not safe for concurrent use, so a fresh one is taken per call.
func Fold(s string) string {
	if s == "" {
		return ""
	}
	return cases.Fold().String(s)
}

func upperFirst(w string) string {
	if w == "" {
		return w
	}
	return strings.ToUpper(w[:1]) + w[1:]
}

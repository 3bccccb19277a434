// Package normalizer maps free-text medication names (brand names,
// misspellings, multilingual variants) to canonical scientific names.
// Canonicalize never fails: unknown input degrades to a cleaned copy of
// itself so downstream lookups miss instead of erroring.
package normalizer

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/medsafe/medsafe-api/entities"
)

// accentStripper removes combining marks so "losartana potássica" and
// "losartana potassica" resolve identically.
var accentStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalizer holds the synonym table. Built once at startup, read-only after.
type Normalizer struct {
	synonyms map[string]string
}

// New builds a Normalizer from the built-in synonym table plus any extra
// entries (typically loaded from the synonyms file). Extra entries win on
// conflict. Every canonical name is also registered as its own alias.
func New(extra []entities.SynonymEntry) *Normalizer {
	n := &Normalizer{synonyms: make(map[string]string, len(defaultSynonyms)+2*len(extra))}

	for alias, canonical := range defaultSynonyms {
		n.add(alias, canonical)
	}
	for _, e := range extra {
		n.add(e.Alias, e.Canonical)
	}
	return n
}

func (n *Normalizer) add(alias, canonical string) {
	canonical = Clean(canonical)
	alias = Clean(alias)
	if alias == "" || canonical == "" {
		return
	}
	n.synonyms[alias] = canonical
	// Identity entry keeps Canonicalize idempotent.
	n.synonyms[canonical] = canonical
	// Register the folded form too so accented aliases match either way.
	if folded := Fold(alias); folded != alias {
		n.synonyms[folded] = canonical
	}
}

// Size returns the number of alias entries in the table.
func (n *Normalizer) Size() int {
	return len(n.synonyms)
}

// Canonicalize resolves a raw medication name to its canonical scientific
// name. Matching order: exact cleaned match, then accent-folded and
// de-pluralized match, then pass-through of the cleaned input.
func (n *Normalizer) Canonicalize(raw string) string {
	cleaned := Clean(raw)
	if cleaned == "" {
		return ""
	}

	if canonical, ok := n.synonyms[cleaned]; ok {
		return canonical
	}

	folded := Fold(cleaned)
	if canonical, ok := n.synonyms[folded]; ok {
		return canonical
	}
	if canonical, ok := n.synonyms[singular(folded)]; ok {
		return canonical
	}

	return cleaned
}

// Clean lowercases, trims, strips punctuation and collapses inner whitespace.
// Clean is idempotent, which keeps the pass-through branch of Canonicalize
// idempotent as well.
func Clean(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))

	for _, r := range strings.ToLower(strings.TrimSpace(raw)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r) || r == '-' || r == '/' || r == '.' || r == ',' || r == '+':
			b.WriteRune(' ')
		}
		// Anything else (quotes, parens, control chars) is dropped.
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

// Fold strips accents from an already cleaned name.
func Fold(cleaned string) string {
	folded, _, err := transform.String(accentStripper, cleaned)
	if err != nil {
		return cleaned
	}
	return folded
}

// singular removes a naive trailing plural "s" ("statins" -> "statin").
func singular(name string) string {
	if len(name) > 3 && strings.HasSuffix(name, "s") && !strings.HasSuffix(name, "ss") {
		return name[:len(name)-1]
	}
	return name
}

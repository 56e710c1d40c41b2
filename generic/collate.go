package generic

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// =============================================================================
// COLLATION - Arabic-aware ordering of ministry and department names
// =============================================================================

// Collator compares strings under Arabic collation rules. A Collator is not
// safe for concurrent use; build one per report with NewCollator.
type Collator struct {
	c *collate.Collator
}

func NewCollator() *Collator {
	return &Collator{c: collate.New(language.Arabic)}
}

// Compare returns -1, 0 or +1.
func (c *Collator) Compare(a, b string) int {
	return c.c.CompareString(a, b)
}

// Less reports whether a sorts before b.
func (c *Collator) Less(a, b string) bool {
	return c.Compare(a, b) < 0
}

// SortStrings sorts in place.
func (c *Collator) SortStrings(ss []string) {
	sort.SliceStable(ss, func(i, j int) bool { return c.Less(ss[i], ss[j]) })
}

// SortedKeys returns the keys of m in collation order.
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	NewCollator().SortStrings(keys)
	return keys
}

package document

import (
	"fmt"
	"strings"
)

// DefaultBaseName seeds name generation when neither a title nor a
// suggested name is available
const DefaultBaseName = "Documento"

// SuffixPolicy decides how a counter is appended to a colliding name
type SuffixPolicy int

const (
	// SuffixCounter produces "base (n)"; used for imports
	SuffixCounter SuffixPolicy = iota
	// SuffixCopy produces "base (cópia n)"; used for duplicates
	SuffixCopy
)

// Format returns base decorated with the n-th suffix of the policy
func (p SuffixPolicy) Format(base string, n int) string {
	if p == SuffixCopy {
		return fmt.Sprintf("%s (cópia %d)", base, n)
	}
	return fmt.Sprintf("%s (%d)", base, n)
}

// String returns a readable policy name
func (p SuffixPolicy) String() string {
	if p == SuffixCopy {
		return "copy"
	}
	return "counter"
}

// UniqueName returns base when it is free, otherwise the first
// policy-decorated variant of base, counting from 1, for which taken
// reports false.
func UniqueName(base string, policy SuffixPolicy, taken func(name string) bool) string {
	base = strings.TrimSpace(base)
	if base == "" {
		base = DefaultBaseName
	}
	if !taken(base) {
		return base
	}
	for n := 1; ; n++ {
		candidate := policy.Format(base, n)
		if !taken(candidate) {
			return candidate
		}
	}
}

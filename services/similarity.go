package services

import "strings"

// SimilarityChecker decides whether a candidate title duplicates an existing one.
type SimilarityChecker interface {
	IsDuplicate(candidate, existing string) bool
}

const DefaultDedupPrefixLength = 30

// PrefixSimilarity treats a candidate as a duplicate when an existing title
// contains its first PrefixLength characters, ignoring case.
type PrefixSimilarity struct {
	PrefixLength int
}

func (p PrefixSimilarity) IsDuplicate(candidate, existing string) bool {
	c := strings.ToLower(strings.TrimSpace(candidate))
	if c == "" {
		return false
	}
	n := p.PrefixLength
	if n <= 0 {
		n = DefaultDedupPrefixLength
	}
	if runes := []rune(c); len(runes) > n {
		c = string(runes[:n])
	}
	return strings.Contains(strings.ToLower(existing), c)
}

// titledItem is an existing task or bottleneck title with the repository it belongs to.
type titledItem struct {
	Title      string
	Repository string
}

// isDuplicateOfAny compares titles only between items of the same repository.
// An item without a repository is compared with everything.
func isDuplicateOfAny(checker SimilarityChecker, candidate, repository string, existing []titledItem) bool {
	for _, e := range existing {
		if repository != "" && e.Repository != "" && !strings.EqualFold(repository, e.Repository) {
			continue
		}
		if checker.IsDuplicate(candidate, e.Title) {
			return true
		}
	}
	return false
}

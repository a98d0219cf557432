package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrefixSimilarity_IsDuplicate(t *testing.T) {
	checker := PrefixSimilarity{PrefixLength: 30}

	tests := []struct {
		name      string
		candidate string
		existing  string
		expected  bool
	}{
		{name: "identical", candidate: "Add test coverage", existing: "Add test coverage", expected: true},
		{name: "case insensitive", candidate: "ADD TEST COVERAGE", existing: "add test coverage", expected: true},
		{name: "prefix contained in longer title", candidate: "acme/api: add test coverage for the billing module", existing: "[P1] acme/api: add test coverage for the billing flow", expected: true},
		{name: "differs inside prefix", candidate: "acme/web: add test coverage", existing: "acme/api: add test coverage", expected: false},
		{name: "blank candidate", candidate: "   ", existing: "anything", expected: false},
		{name: "multibyte prefix", candidate: "テストカバレッジを追加する", existing: "テストカバレッジを追加する（API）", expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, checker.IsDuplicate(tt.candidate, tt.existing))
		})
	}
}

func TestPrefixSimilarity_DefaultLength(t *testing.T) {
	checker := PrefixSimilarity{}

	// first 30 characters match, the rest differ
	assert.True(t, checker.IsDuplicate("123456789012345678901234567890-first", "123456789012345678901234567890-second"))
}

func TestIsDuplicateOfAny(t *testing.T) {
	checker := PrefixSimilarity{PrefixLength: 10}
	existing := []titledItem{
		{Title: "Set up CI pipeline", Repository: "acme/api"},
		{Title: "Write README"},
	}

	assert.True(t, isDuplicateOfAny(checker, "write readme documentation", "acme/web", existing))
	assert.True(t, isDuplicateOfAny(checker, "Set up CI pipeline for the API", "ACME/api", existing))
	assert.True(t, isDuplicateOfAny(checker, "Set up CI pipeline for the API", "", existing))
	assert.False(t, isDuplicateOfAny(checker, "Set up CI pipeline for the web", "acme/web", existing))
	assert.False(t, isDuplicateOfAny(checker, "Add integration tests", "acme/api", existing))
	assert.False(t, isDuplicateOfAny(checker, "Anything", "", nil))
}

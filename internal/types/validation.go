package types

// Violation categories reported by the anti-slop validator.
const (
	CategoryBannedWord        = "banned_word"
	CategoryBannedPhrase      = "banned_phrase"
	CategoryStructuralPattern = "structural_pattern"
)

// SlopViolation is a single detected match against a banned word, phrase,
// or structural pattern.
type SlopViolation struct {
	Category string `json:"category"`
	Match    string `json:"match"`
	Position int    `json:"position"`
}

// ValidationResult is the outcome of anti-slop validation for one text.
// Violations are ordered: words first, then phrases, then structural
// patterns, each group in table order.
type ValidationResult struct {
	Passed     bool            `json:"passed"`
	Violations []SlopViolation `json:"violations"`
	Warnings   []string        `json:"warnings,omitempty"`
}

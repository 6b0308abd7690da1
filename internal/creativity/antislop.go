// Package creativity provides the creativity context engine and the
// anti-slop validator: the two pieces that keep generated posts varied and
// keep AI tells out of them.
package creativity

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/jonathan/post-pilot/internal/config"
	"github.com/jonathan/post-pilot/internal/types"
)

// defaultBannedWords are whole-word matches, ordered. The list tracks
// vocabulary with outsized frequency growth in AI-generated text.
var defaultBannedWords = []string{
	// highest offenders
	"delve", "tapestry", "testament", "realm", "underscore", "intricate",
	// high frequency
	"leverage", "harness", "unlock", "embark", "robust", "seamless",
	"pivotal", "comprehensive", "furthermore", "moreover", "elevate",
	"foster", "landscape", "paradigm", "synergy", "navigate",
	"multifaceted", "nuanced", "holistic", "streamline", "empower",
	"cutting-edge", "game-changer", "revolutionary", "transformative",
	"impactful", "actionable", "proactive", "scalable", "ecosystem",
	"synergize", "incentivize", "operationalize",
}

// defaultBannedPhrases are case-insensitive substring matches, ordered.
var defaultBannedPhrases = []string{
	// classic AI openers
	"in today's fast-paced world",
	"in today's digital age",
	"in today's competitive landscape",
	"it's worth noting that",
	"it's important to note",
	"let's dive in",
	"let's explore",
	"without further ado",
	"first and foremost",
	"last but not least",
	"at the end of the day",
	// AI closers
	"in conclusion",
	"to sum up",
	"in summary",
	"moving forward",
	// engagement bait
	"what do you think?",
	"drop a comment below",
	"let me know in the comments",
	"share your thoughts",
	"agree or disagree?",
	// empty intensifiers
	"take it to the next level",
	"unlock your potential",
	"level up",
	"supercharge",
	// corporate speak
	"circle back",
	"touch base",
	"move the needle",
	"low-hanging fruit",
	"think outside the box",
	"hit the ground running",
	"best practices",
	"value proposition",
	"core competencies",
}

// structuralRule is one regex-backed structural check.
type structuralRule struct {
	name    string
	pattern *regexp.Regexp
}

// structuralRules is the fixed set of structural AI tells. These are not
// configurable; the word and phrase tables are.
var structuralRules = []structuralRule{
	{"emoji_opener", regexp.MustCompile(`^[\x{1F300}-\x{1F9FF}]`)},
	{"emoji_run", regexp.MustCompile(`[\x{1F300}-\x{1F9FF}]{3,}`)},
	{"weak_opener", regexp.MustCompile(`(?i)^(so,?\s|here'?s the thing|let me tell you)`)},
	{"listicle_opener", regexp.MustCompile(`(?i)^\d+\s+(things|ways|reasons|lessons|tips|mistakes)\b`)},
	{"numbered_list", regexp.MustCompile(`(?m)^[1-9]\.\s.*\n[1-9]\.\s.*\n[1-9]\.\s`)},
	{"engagement_bait_ending", regexp.MustCompile(`(?i)what do you think\s*\??\s*$`)},
	{"rhetorical_answer", regexp.MustCompile(`(?i)\?\s+(the answer|it'?s simple|here'?s why)`)},
	{"exclamation_spam", regexp.MustCompile(`!{2,}`)},
	{"snappy_triad", regexp.MustCompile(`(?i)(clear,?\s+concise,?\s+and\s+compelling|fast,?\s+easy,?\s+and\s+effective)`)},
}

// warningRule patterns are worth flagging but do not fail validation.
var warningRules = []structuralRule{
	{"generic_intro", regexp.MustCompile(`(?i)here'?s (what|why|how)`)},
	{"dramatic_reveal", regexp.MustCompile(`(?i)the (truth|reality|fact) is`)},
	{"imagine_opener", regexp.MustCompile(`(?i)imagine (if|this|a world)`)},
}

// maxEmojiCount caps total emoji per post.
const maxEmojiCount = 2

// maxEmDashCount caps em-dashes per post.
const maxEmDashCount = 2

var (
	emojiPattern    = regexp.MustCompile(`[\x{1F300}-\x{1F9FF}]`)
	numberPattern   = regexp.MustCompile(`\b\d{2,}\b`)
	sentenceSplitRe = regexp.MustCompile(`[.!?]+`)
)

// Validator detects AI slop patterns in generated content.
// It is pure and deterministic: no network, no clock, no randomness.
type Validator struct {
	bannedWords   []string
	wordPatterns  []*regexp.Regexp
	bannedPhrases []string
}

// NewValidator builds a Validator from the built-in tables plus any custom
// entries from configuration.
func NewValidator(cfg config.AntiSlopConfig) *Validator {
	words := make([]string, 0, len(defaultBannedWords)+len(cfg.ExtraBannedWords))
	words = append(words, defaultBannedWords...)
	for _, w := range cfg.ExtraBannedWords {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			words = append(words, w)
		}
	}

	patterns := make([]*regexp.Regexp, len(words))
	for i, w := range words {
		patterns[i] = regexp.MustCompile(`\b` + regexp.QuoteMeta(w) + `\b`)
	}

	phrases := make([]string, 0, len(defaultBannedPhrases)+len(cfg.ExtraBannedPhrases))
	phrases = append(phrases, defaultBannedPhrases...)
	for _, p := range cfg.ExtraBannedPhrases {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			phrases = append(phrases, p)
		}
	}

	return &Validator{
		bannedWords:   words,
		wordPatterns:  patterns,
		bannedPhrases: phrases,
	}
}

// Validate checks text against all three rule groups and collects every
// violation; checks never short-circuit because the judge and the report
// need the full list. Violations are ordered: words, then phrases, then
// structural rules, each in table order.
func (v *Validator) Validate(text string) types.ValidationResult {
	lower := strings.ToLower(text)
	var violations []types.SlopViolation

	for i, pattern := range v.wordPatterns {
		if loc := pattern.FindStringIndex(lower); loc != nil {
			violations = append(violations, types.SlopViolation{
				Category: types.CategoryBannedWord,
				Match:    v.bannedWords[i],
				Position: loc[0],
			})
		}
	}

	for _, phrase := range v.bannedPhrases {
		if idx := strings.Index(lower, phrase); idx >= 0 {
			violations = append(violations, types.SlopViolation{
				Category: types.CategoryBannedPhrase,
				Match:    phrase,
				Position: idx,
			})
		}
	}

	for _, rule := range structuralRules {
		if loc := rule.pattern.FindStringIndex(text); loc != nil {
			violations = append(violations, types.SlopViolation{
				Category: types.CategoryStructuralPattern,
				Match:    rule.name,
				Position: loc[0],
			})
		}
	}
	if count := len(emojiPattern.FindAllString(text, -1)); count > maxEmojiCount {
		violations = append(violations, types.SlopViolation{
			Category: types.CategoryStructuralPattern,
			Match:    "emoji_count",
			Position: 0,
		})
	}
	if count := strings.Count(text, "—"); count > maxEmDashCount {
		violations = append(violations, types.SlopViolation{
			Category: types.CategoryStructuralPattern,
			Match:    "em_dash_overuse",
			Position: strings.Index(text, "—"),
		})
	}

	return types.ValidationResult{
		Passed:     len(violations) == 0,
		Violations: violations,
		Warnings:   v.collectWarnings(text),
	}
}

// collectWarnings flags quality signals that are suspicious but not fatal.
func (v *Validator) collectWarnings(text string) []string {
	var warnings []string

	for _, rule := range warningRules {
		if rule.pattern.MatchString(text) {
			warnings = append(warnings, rule.name)
		}
	}

	// Low sentence length variance reads as monotonous machine rhythm.
	sentences := splitSentences(text)
	if len(sentences) >= 3 {
		lengths := make([]float64, len(sentences))
		var sum float64
		for i, s := range sentences {
			lengths[i] = float64(len(strings.Fields(s)))
			sum += lengths[i]
		}
		mean := sum / float64(len(lengths))
		var variance float64
		for _, l := range lengths {
			variance += (l - mean) * (l - mean)
		}
		variance /= float64(len(lengths))
		if variance < 5 {
			warnings = append(warnings, "monotonous_rhythm")
		}
	}

	if len(text) > 200 && !numberPattern.MatchString(text) {
		warnings = append(warnings, "no_specific_numbers")
	}

	for _, para := range strings.Split(text, "\n\n") {
		if len(strings.Fields(para)) > 100 {
			warnings = append(warnings, "wall_of_text")
			break
		}
	}

	return warnings
}

func splitSentences(text string) []string {
	raw := sentenceSplitRe.Split(text, -1)
	out := raw[:0]
	for _, s := range raw {
		if strings.TrimSpace(s) != "" {
			out = append(out, strings.TrimSpace(s))
		}
	}
	return out
}

// RulesForPrompt renders the banned tables for inclusion in generation and
// judging prompts, so the same rules steer the model before they gate it.
func (v *Validator) RulesForPrompt() string {
	topWords := v.bannedWords
	if len(topWords) > 20 {
		topWords = topWords[:20]
	}
	topPhrases := v.bannedPhrases
	if len(topPhrases) > 10 {
		topPhrases = topPhrases[:10]
	}

	var sb strings.Builder
	sb.WriteString("ANTI-SLOP RULES (CRITICAL - VIOLATIONS WILL DISQUALIFY YOUR RESPONSE):\n\n")
	sb.WriteString("BANNED WORDS - NEVER use these:\n")
	sb.WriteString(strings.Join(topWords, ", "))
	sb.WriteString("\n\nBANNED PHRASES - NEVER use these:\n")
	for _, p := range topPhrases {
		fmt.Fprintf(&sb, "- %q\n", p)
	}
	sb.WriteString(`
PATTERNS TO AVOID:
- Starting with emojis, or more than 2 emojis total
- Em-dash overuse - max 2 per post
- Ending with "What do you think?" or similar engagement bait
- Numbered lists (1. 2. 3. format) and "N things/ways/reasons" openers
- Multiple exclamation marks
- Snappy triads ("clear, concise, and compelling")

QUALITY SIGNALS TO INCLUDE:
- Specific numbers ($47K, 73%, 2 hours)
- Sentence length variation (mix short punches with longer explanations)
- Concrete examples, not abstract claims
- Something surprising or contrarian
`)
	return sb.String()
}

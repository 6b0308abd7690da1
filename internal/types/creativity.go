package types

// CreativityContext is the bundle of randomized generation parameters
// assigned to one generation unit. It is a value object: built once by the
// creativity engine and never mutated afterwards.
type CreativityContext struct {
	PersonaID     string `json:"persona_id"`
	HookPattern   string `json:"hook_pattern"`
	HookGuidance  string `json:"hook_guidance,omitempty"`
	Framework     string `json:"framework"`
	FrameworkDesc string `json:"framework_desc,omitempty"`
	ContentAngle  string `json:"content_angle"`

	// StyleReference and Wildcard are optional. A nil pointer means the
	// dimension was not drawn for this context, which downstream prompt
	// assembly treats differently from an empty string.
	StyleReference *string `json:"style_reference,omitempty"`
	Wildcard       *string `json:"wildcard,omitempty"`

	Seed int64 `json:"seed"`
}

// Key returns the tuple used for duplicate detection within a run.
// Two contexts with the same key are considered a repeated combination.
func (c CreativityContext) Key() ContextKey {
	return ContextKey{
		HookPattern: c.HookPattern,
		Framework:   c.Framework,
		PersonaID:   c.PersonaID,
	}
}

// ContextKey identifies the (hook, framework, persona) combination of a
// creativity context. It is comparable and usable as a map key.
type ContextKey struct {
	HookPattern string
	Framework   string
	PersonaID   string
}

// GenerationMetadata records where a variant came from.
type GenerationMetadata struct {
	GeneratorID int    `json:"generator_id"`
	Model       string `json:"model"`
	DurationMS  int64  `json:"duration_ms,omitempty"`
}

// Variant is one candidate generated post text. Immutable after creation.
type Variant struct {
	ID            string             `json:"id"`
	Text          string             `json:"text"`
	PersonaID     string             `json:"persona_id"`
	Context       CreativityContext  `json:"creativity_context"`
	Metadata      GenerationMetadata `json:"generation_metadata"`
	Distinguisher string             `json:"what_makes_it_different,omitempty"`

	// Sequence is the global creation order across the pool, used for
	// deterministic tie-breaking in the judge.
	Sequence int `json:"sequence"`

	// Validation is attached after the anti-slop check runs.
	Validation *ValidationResult `json:"validation,omitempty"`
}

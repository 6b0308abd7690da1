// Package types provides type definitions for structured data used throughout the post-pilot system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import "time"

// Article is a raw news or blog article pulled from a feed.
// Articles are immutable once fetched; downstream stages read them only.
type Article struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Summary     string    `json:"summary"`
	URL         string    `json:"url"`
	Source      string    `json:"source"`
	PublishedAt time.Time `json:"published_at"`

	// Embedding is populated lazily by the pre-filter. Nil means the
	// article has not been embedded yet.
	Embedding []float32 `json:"embedding,omitempty"`
}

// ScoredArticle is an article that survived relevance scoring.
type ScoredArticle struct {
	Article           Article `json:"article"`
	RelevanceScore    float64 `json:"relevance_score"` // 0.0-1.0
	Rationale         string  `json:"rationale"`
	SuggestedAngle    string  `json:"suggested_angle"`
	CompanyConnection string  `json:"company_connection,omitempty"`
	TargetAudience    string  `json:"target_audience,omitempty"`
}

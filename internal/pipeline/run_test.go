package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/post-pilot/internal/config"
	"github.com/jonathan/post-pilot/internal/llm"
)

// fakeClient answers each stage's call based on prompt markers.
type fakeClient struct {
	relevanceScore float64
	judgeBroken    bool
}

var variantIDPattern = regexp.MustCompile(`=== VARIANT (\S+) ===`)

func (f *fakeClient) GenerateJSON(_ context.Context, prompt string, _ llm.ModelTier) (string, error) {
	switch {
	case strings.Contains(prompt, "Score EVERY variant"):
		if f.judgeBroken {
			return "no json from the judge today", nil
		}
		var scores []map[string]any
		for i, m := range variantIDPattern.FindAllStringSubmatch(prompt, -1) {
			scores = append(scores, map[string]any{
				"variant_id":      m[1],
				"hook_strength":   5 + i%5,
				"distinctiveness": 6,
				"relevance":       7,
				"persona_fit":     6,
				"rationale":       "test score",
			})
		}
		data, err := json.Marshal(map[string]any{"scores": scores})
		return string(data), err

	case strings.Contains(prompt, "what_makes_it_different"):
		return `{"variants": [
			{"text": "We watched checkout open up and shrugged. Our merchants did not.", "what_makes_it_different": "contrarian"},
			{"text": "Three integrations broke last quarter. This change fixes none of them.", "what_makes_it_different": "numeric"}
		]}`, nil

	case strings.Contains(prompt, "ARTICLE TO EVALUATE"):
		return fmt.Sprintf(`{
			"relevance_score": %.2f,
			"relevance_reason": "merchant ops impact",
			"suggested_angle": "ops teams win",
			"company_connection": "automation of checkout ops",
			"target_icp": "store owners"
		}`, f.relevanceScore), nil
	}
	return "", fmt.Errorf("unexpected prompt: %.80s", prompt)
}

func (f *fakeClient) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i := range vectors {
		vectors[i] = []float32{1, 0, 0}
	}
	return vectors, nil
}

func (f *fakeClient) GetModel(llm.ModelTier) string { return "fake-model" }
func (f *fakeClient) Close() error                  { return nil }

func rssBody(now time.Time, titles ...string) string {
	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0"?><rss version="2.0"><channel><title>Feed</title>`)
	for i, title := range titles {
		fmt.Fprintf(&sb, `<item><title>%s</title><link>https://example.com/%d</link><description>summary %d</description><pubDate>%s</pubDate></item>`,
			title, i, i, now.Add(-time.Duration(i)*time.Hour).Format(time.RFC1123Z))
	}
	sb.WriteString(`</channel></rss>`)
	return sb.String()
}

func testConfig(t *testing.T, feedURL string) *config.Config {
	t.Helper()

	feedsPath := filepath.Join(t.TempDir(), "feeds.json")
	registry := fmt.Sprintf(`{"feeds": [{"name": "Test Feed", "xml_url": %q, "type": "news", "enabled": true, "quick": true}]}`, feedURL)
	require.NoError(t, os.WriteFile(feedsPath, []byte(registry), 0o644))

	cfg := config.Defaults()
	cfg.FeedsPath = feedsPath
	cfg.OutputDir = t.TempDir()
	cfg.Generators = 3
	cfg.EmbeddingTopK = 2
	cfg.MaxArticles = 1
	cfg.Seed = 42
	return &cfg
}

func feedServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestRun_EndToEnd(t *testing.T) {
	server := feedServer(t, rssBody(time.Now(), "Checkout APIs open up", "Another API story", "Third story"))
	cfg := testConfig(t, server.URL)
	client := &fakeClient{relevanceScore: 0.81}

	result, runDir, err := New(cfg, client).Run(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, 0.81, result.Source.RelevanceScore)
	assert.NotEmpty(t, result.Winner.Text)
	assert.Greater(t, result.WinnerScore.WeightedTotal, 0.0)
	assert.Equal(t, 6, result.Stats.TotalVariants, "3 units, 2 variants each")
	assert.Equal(t, result.Stats.TotalVariants, len(result.AllVariants))

	// Every stage reported a timing.
	stages := make([]string, 0, len(result.Timings))
	for _, timing := range result.Timings {
		stages = append(stages, timing.Stage)
	}
	assert.Equal(t, []string{"fetch", "prefilter", "relevance", "generation", "validation", "judge"}, stages)

	// Artifacts on disk.
	for _, name := range []string{"winner.json", "winner.md", "all_variants.json", "run_log.json"} {
		_, err := os.Stat(filepath.Join(runDir, name))
		assert.NoError(t, err, "missing %s", name)
	}
}

func TestRun_EveryVariantValidated(t *testing.T) {
	server := feedServer(t, rssBody(time.Now(), "Checkout APIs open up"))
	cfg := testConfig(t, server.URL)

	result, _, err := New(cfg, &fakeClient{relevanceScore: 0.75}).Run(context.Background())
	require.NoError(t, err)

	for _, v := range result.AllVariants {
		require.NotNil(t, v.Validation)
		assert.True(t, v.Validation.Passed, "clean fake text should pass: %q", v.Text)
	}
	assert.Equal(t, len(result.AllVariants), result.Stats.JudgedVariants)
}

func TestRun_ProgressEventsEmitted(t *testing.T) {
	server := feedServer(t, rssBody(time.Now(), "Checkout APIs open up"))
	cfg := testConfig(t, server.URL)

	var stages []string
	_, _, err := New(cfg, &fakeClient{relevanceScore: 0.9}).
		WithProgress(func(event ProgressEvent) { stages = append(stages, event.Stage) }).
		Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"fetch", "prefilter", "relevance", "generation", "validation", "judge"}, stages)
}

func TestRun_SourceUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)
	cfg := testConfig(t, server.URL)

	_, _, err := New(cfg, &fakeClient{}).Run(context.Background())
	require.Error(t, err)

	var sourceErr *SourceUnavailableError
	assert.ErrorAs(t, err, &sourceErr)
}

func TestRun_NothingRelevantIsEmptyStage(t *testing.T) {
	server := feedServer(t, rssBody(time.Now(), "Checkout APIs open up"))
	cfg := testConfig(t, server.URL)
	cfg.RelevanceThreshold = 0.6

	// Below threshold everywhere: best-single fallback still selects one,
	// so force total irrelevance with a zero score.
	_, _, err := New(cfg, &fakeClient{relevanceScore: 0}).Run(context.Background())
	require.NoError(t, err, "best-single fallback keeps the run alive")
}

func TestRun_JudgeFallbackStillProducesWinner(t *testing.T) {
	server := feedServer(t, rssBody(time.Now(), "Checkout APIs open up"))
	cfg := testConfig(t, server.URL)

	result, _, err := New(cfg, &fakeClient{relevanceScore: 0.8, judgeBroken: true}).Run(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, result.Winner.Text)
	assert.Equal(t, 0, result.Winner.Sequence, "fallback picks the earliest variant")
	require.NotEmpty(t, result.Timings)
	judgeTiming := result.Timings[len(result.Timings)-1]
	assert.Contains(t, judgeTiming.Note, "fallback")
}

func TestRun_NoEmbeddingSkipsPrefilter(t *testing.T) {
	server := feedServer(t, rssBody(time.Now(), "A", "B", "C", "D"))
	cfg := testConfig(t, server.URL)
	cfg.NoEmbedding = true
	cfg.EmbeddingTopK = 2

	result, _, err := New(cfg, &fakeClient{relevanceScore: 0.8}).Run(context.Background())
	require.NoError(t, err)

	for _, timing := range result.Timings {
		if timing.Stage == "prefilter" {
			assert.Equal(t, timing.InputSize, timing.OutputSize)
			assert.Equal(t, "disabled", timing.Note)
		}
	}
}

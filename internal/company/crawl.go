package company

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/post-pilot/internal/fetch"
)

const (
	// maxCrawlPages is the hard maximum number of pages per research crawl.
	maxCrawlPages = 5
	// crawlDelay is the pause between HTTP requests to the same host.
	crawlDelay = 500 * time.Millisecond
)

// CrawlError indicates the research crawl could not produce any usable text.
type CrawlError struct {
	Message string
	Cause   error
}

func (e *CrawlError) Error() string {
	if e.Cause != nil {
		return "crawl error: " + e.Message + ": " + e.Cause.Error()
	}
	return "crawl error: " + e.Message
}

func (e *CrawlError) Unwrap() error {
	return e.Cause
}

// corpus is the combined text of the crawled pages.
type corpus struct {
	Text    string
	Sources []string
}

// crawlCorpus fetches the seed page plus the most promising same-host pages
// linked from it and joins their extracted text. Pages with identical content
// are counted once. A failed page is skipped, not fatal; only a dead seed is.
func crawlCorpus(ctx context.Context, seedURL string, opts *fetch.Options, maxPages int) (*corpus, error) {
	if maxPages < 1 {
		maxPages = 1
	}
	if maxPages > maxCrawlPages {
		maxPages = maxCrawlPages
	}

	seed, err := fetch.URL(ctx, seedURL, opts)
	if err != nil {
		return nil, &CrawlError{Message: "failed to fetch seed page", Cause: err}
	}

	var parts []string
	var sources []string
	seen := make(map[string]bool) // content hashes
	visited := map[string]bool{seedURL: true}

	if text := extractPageText(seed.HTML); text != "" {
		seen[contentHash(text)] = true
		parts = append(parts, text)
		sources = append(sources, seedURL)
	}

	links := rankLinks(extractLinks(seed.HTML, seedURL))
	for _, link := range links {
		if len(sources) >= maxPages {
			break
		}
		if visited[link] {
			continue
		}
		visited[link] = true

		select {
		case <-ctx.Done():
			return nil, &CrawlError{Message: "crawl cancelled", Cause: ctx.Err()}
		case <-time.After(crawlDelay):
		}

		result, err := fetch.URL(ctx, link, opts)
		if err != nil {
			continue
		}
		text := extractPageText(result.HTML)
		if text == "" {
			continue
		}
		hash := contentHash(text)
		if seen[hash] {
			continue
		}
		seen[hash] = true
		parts = append(parts, text)
		sources = append(sources, link)
	}

	if len(parts) == 0 {
		return nil, &CrawlError{Message: "no extractable text on " + seedURL}
	}
	return &corpus{
		Text:    strings.Join(parts, "\n\n---\n\n"),
		Sources: sources,
	}, nil
}

func extractPageText(html string) string {
	text, err := fetch.ExtractMainText(html, fetch.CompanyPageSelectors())
	if err != nil {
		return ""
	}
	return strings.TrimSpace(text)
}

// extractLinks returns the same-host links found in the HTML, resolved to
// absolute URLs, without fragments or duplicates.
func extractLinks(html string, baseURL string) []string {
	base, err := url.Parse(baseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	linkSet := make(map[string]bool)
	var links []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, exists := s.Attr("href")
		if !exists || href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "mailto:") {
			return
		}
		linkURL, err := url.Parse(href)
		if err != nil {
			return
		}
		resolved := base.ResolveReference(linkURL)
		if resolved.Host != base.Host || (resolved.Scheme != "http" && resolved.Scheme != "https") {
			return
		}
		resolved.Fragment = ""
		normalized := resolved.String()
		if normalized == baseURL || linkSet[normalized] {
			return
		}
		linkSet[normalized] = true
		links = append(links, normalized)
	})
	return links
}

// profilePathKeywords marks the pages most likely to describe the company
// itself rather than its content marketing.
var profilePathKeywords = []string{"about", "company", "services", "product", "solutions", "mission", "team", "what-we-do"}

// rankLinks orders links so the ones whose path suggests company profile
// content come first. The sort is stable, so ties keep document order.
func rankLinks(links []string) []string {
	ranked := make([]string, len(links))
	copy(ranked, links)
	sort.SliceStable(ranked, func(i, j int) bool {
		return pathScore(ranked[i]) > pathScore(ranked[j])
	})
	return ranked
}

func pathScore(link string) int {
	parsed, err := url.Parse(link)
	if err != nil {
		return 0
	}
	path := strings.ToLower(parsed.Path)
	score := 0
	for _, keyword := range profilePathKeywords {
		if strings.Contains(path, keyword) {
			score++
		}
	}
	return score
}

func contentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

package feeds

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/jonathan/post-pilot/internal/types"
)

// DefaultFeedTimeout bounds a single feed fetch.
const DefaultFeedTimeout = 20 * time.Second

// Fetcher pulls articles from RSS/Atom feeds concurrently.
type Fetcher struct {
	newsFeeds   []Entry
	blogFeeds   []Entry
	newsWindow  time.Duration
	blogWindow  time.Duration
	feedTimeout time.Duration
	now         func() time.Time
}

// Options configures a Fetcher.
type Options struct {
	HoursBack    int  // news lookback window
	BlogDaysBack int  // blog lookback window
	Quick        bool // quick-mode feed subset only
	IncludeBlogs bool
	FeedTimeout  time.Duration
}

// NewFetcher builds a Fetcher over the given registry entries.
func NewFetcher(entries []Entry, opts Options) *Fetcher {
	if opts.HoursBack <= 0 {
		opts.HoursBack = 48
	}
	if opts.BlogDaysBack <= 0 {
		opts.BlogDaysBack = 14
	}
	if opts.FeedTimeout <= 0 {
		opts.FeedTimeout = DefaultFeedTimeout
	}

	f := &Fetcher{
		newsFeeds:   NewsFeeds(entries, opts.Quick),
		newsWindow:  time.Duration(opts.HoursBack) * time.Hour,
		blogWindow:  time.Duration(opts.BlogDaysBack) * 24 * time.Hour,
		feedTimeout: opts.FeedTimeout,
		now:         time.Now,
	}
	if opts.IncludeBlogs && !opts.Quick {
		f.blogFeeds = BlogFeeds(entries)
	}
	return f
}

type feedResult struct {
	articles []types.Article
	err      error
}

// FetchAll fetches all configured feeds concurrently and returns the union
// of articles from feeds that succeeded, newest first. It only returns an
// error when every feed failed.
func (f *Fetcher) FetchAll(ctx context.Context) ([]types.Article, error) {
	type job struct {
		entry  Entry
		window time.Duration
	}

	var jobs []job
	for _, e := range f.newsFeeds {
		jobs = append(jobs, job{entry: e, window: f.newsWindow})
	}
	for _, e := range f.blogFeeds {
		jobs = append(jobs, job{entry: e, window: f.blogWindow})
	}
	if len(jobs) == 0 {
		return nil, fmt.Errorf("no feeds configured")
	}

	results := make([]feedResult, len(jobs))
	var wg sync.WaitGroup
	for i, j := range jobs {
		wg.Add(1)
		go func(i int, j job) {
			defer wg.Done()
			results[i].articles, results[i].err = f.fetchFeed(ctx, j.entry, j.window)
		}(i, j)
	}
	wg.Wait()

	var articles []types.Article
	failed := 0
	for i, r := range results {
		if r.err != nil {
			failed++
			fmt.Printf("Warning: feed %s failed: %v\n", jobs[i].entry.Name, r.err)
			continue
		}
		articles = append(articles, r.articles...)
	}

	if failed == len(jobs) {
		return nil, fmt.Errorf("all %d feeds failed", len(jobs))
	}

	sort.SliceStable(articles, func(i, j int) bool {
		return articles[i].PublishedAt.After(articles[j].PublishedAt)
	})
	return articles, nil
}

// fetchFeed fetches one feed and filters its items by the lookback window.
func (f *Fetcher) fetchFeed(ctx context.Context, entry Entry, window time.Duration) ([]types.Article, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, f.feedTimeout)
	defer cancel()

	// gofeed parsers mutate internal state on first use, so each fetch
	// gets its own instead of sharing one across goroutines.
	feed, err := gofeed.NewParser().ParseURLWithContext(entry.XMLURL, fetchCtx)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", entry.XMLURL, err)
	}

	cutoff := f.now().Add(-window)
	source := entry.Name
	if source == "" {
		source = feed.Title
	}

	var articles []types.Article
	for _, item := range feed.Items {
		published := item.PublishedParsed
		if published == nil {
			published = item.UpdatedParsed
		}
		if published == nil || published.Before(cutoff) {
			continue
		}

		articles = append(articles, types.Article{
			ID:          articleID(item.Link, item.Title),
			Title:       item.Title,
			Summary:     item.Description,
			URL:         item.Link,
			Source:      source,
			PublishedAt: published.UTC(),
		})
	}
	return articles, nil
}

// articleID derives a stable ID from the article link and title, so reruns
// over the same feed window produce the same IDs.
func articleID(link, title string) string {
	sum := sha256.Sum256([]byte(link + "\x00" + title))
	return hex.EncodeToString(sum[:8])
}

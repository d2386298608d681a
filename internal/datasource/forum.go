package datasource

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/Doshir1/compound-fixed-rate-swap/internal/infra"
	"github.com/Doshir1/compound-fixed-rate-swap/pkg/models"
)

// DefaultForumFeedURL is the Compound governance forum's Discourse RSS feed.
const DefaultForumFeedURL = "https://www.comp.xyz/latest.rss"

// Forum fetches recent posts from the governance forum RSS feed.
type Forum struct {
	feedURL string
	cache   *infra.Cache
	limiter *infra.RateLimiter
	parser  *gofeed.Parser
}

// NewForum creates a governance feed source.
func NewForum(feedURL string) *Forum {
	if feedURL == "" {
		feedURL = DefaultForumFeedURL
	}
	return &Forum{
		feedURL: feedURL,
		cache:   infra.NewCache(10 * time.Minute),
		limiter: infra.NewRateLimiter(2, time.Second),
		parser:  gofeed.NewParser(),
	}
}

// Name returns the data source name.
func (f *Forum) Name() string { return "Governance Forum" }

// LatestPosts returns up to limit recent forum posts, newest first.
func (f *Forum) LatestPosts(ctx context.Context, limit int) ([]models.GovernancePost, error) {
	cacheKey := fmt.Sprintf("forum:latest:%d", limit)
	if cached, ok := f.cache.Get(cacheKey); ok {
		return cached.([]models.GovernancePost), nil
	}

	posts, err := f.fetchFeed(ctx)
	if err != nil {
		return nil, err
	}

	sortPostsByDate(posts)
	if limit > 0 && len(posts) > limit {
		posts = posts[:limit]
	}

	f.cache.Set(cacheKey, posts)
	return posts, nil
}

// MarketPosts returns recent posts that mention the market's assets or
// rate and liquidation topics.
func (f *Forum) MarketPosts(ctx context.Context, market models.Market, limit int) ([]models.GovernancePost, error) {
	cacheKey := fmt.Sprintf("forum:market:%s:%d", market.Name, limit)
	if cached, ok := f.cache.Get(cacheKey); ok {
		return cached.([]models.GovernancePost), nil
	}

	all, err := f.LatestPosts(ctx, 0)
	if err != nil {
		return nil, err
	}

	keywords := marketKeywords(market)
	var filtered []models.GovernancePost
	for _, p := range all {
		if matchesAny(p.Title+" "+p.Summary, keywords) {
			filtered = append(filtered, p)
		}
	}

	if limit > 0 && len(filtered) > limit {
		filtered = filtered[:limit]
	}

	f.cache.Set(cacheKey, filtered)
	return filtered, nil
}

// --- Internal helpers ---

// fetchFeed parses the RSS feed and returns posts.
func (f *Forum) fetchFeed(ctx context.Context) ([]models.GovernancePost, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	feed, err := f.parser.ParseURLWithContext(f.feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse forum feed: %w", err)
	}

	posts := make([]models.GovernancePost, 0, len(feed.Items))
	for _, item := range feed.Items {
		p := models.GovernancePost{
			Title:   item.Title,
			Link:    item.Link,
			Source:  f.Name(),
			Summary: cleanHTML(item.Description),
		}
		if item.PublishedParsed != nil {
			p.Published = *item.PublishedParsed
		}
		posts = append(posts, p)
	}

	return posts, nil
}

// cleanHTML strips HTML tags from a string using goquery.
func cleanHTML(s string) string {
	if s == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<body>" + s + "</body>"))
	if err != nil {
		return s
	}
	return strings.TrimSpace(doc.Text())
}

// marketKeywords returns the filter terms for a market: its asset symbols
// plus the topics that move borrow rates and liquidation parameters.
func marketKeywords(market models.Market) []string {
	keywords := []string{
		"interest rate", "rate model", "ir curve", "kink",
		"collateral factor", "liquidation", "risk parameter",
	}
	if market.BaseSymbol != "" {
		keywords = append(keywords, strings.ToLower(market.BaseSymbol))
	}
	if market.CollateralSymbol != "" {
		keywords = append(keywords, strings.ToLower(market.CollateralSymbol))
	}
	return keywords
}

// matchesAny checks if text contains any of the keywords (case-insensitive).
func matchesAny(text string, keywords []string) bool {
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// sortPostsByDate sorts posts by published date, newest first.
func sortPostsByDate(posts []models.GovernancePost) {
	sort.Slice(posts, func(i, j int) bool {
		return posts[i].Published.After(posts[j].Published)
	})
}

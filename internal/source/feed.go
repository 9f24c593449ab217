package source

import (
	"bytes"
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"
	"github.com/mmcdole/gofeed"

	"github.com/ppiankov/strata/internal/model"
)

// FeedAdapter reads RSS, Atom and JSON feeds
type FeedAdapter struct {
	cfg     model.SourceConfig
	fetcher *Fetcher
	parser  *gofeed.Parser
}

// NewFeedAdapter creates a structured-feed adapter
func NewFeedAdapter(cfg model.SourceConfig, fetcher *Fetcher) *FeedAdapter {
	return &FeedAdapter{
		cfg:     cfg,
		fetcher: fetcher,
		parser:  gofeed.NewParser(),
	}
}

func (a *FeedAdapter) Name() string           { return a.cfg.Name }
func (a *FeedAdapter) Kind() model.SourceKind { return model.SourceKindFeed }
func (a *FeedAdapter) URL() string            { return a.cfg.URL }

// Fetch downloads and parses the feed
func (a *FeedAdapter) Fetch(ctx context.Context, limit int) ([]model.RawStory, error) {
	body, err := a.fetcher.Get(ctx, a.cfg.URL)
	if err != nil {
		return nil, &FetchError{Source: a.cfg.Name, Cause: err}
	}
	stories, err := a.Parse(body, limit)
	if err != nil {
		return nil, &FetchError{Source: a.cfg.Name, Cause: err}
	}
	return stories, nil
}

// Parse maps the first limit feed items onto raw stories
func (a *FeedAdapter) Parse(body []byte, limit int) ([]model.RawStory, error) {
	feed, err := a.parser.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	fallback := a.fallbackURL(feed)
	limit = effectiveLimit(limit)
	stories := make([]model.RawStory, 0, min(limit, len(feed.Items)))
	for _, item := range feed.Items {
		if len(stories) == limit {
			break
		}
		stories = append(stories, a.story(item, fallback))
	}
	return stories, nil
}

// fallbackURL is the source given to linkless entries: the configured
// fallback, then the feed's own site link, then the feed URL's origin
func (a *FeedAdapter) fallbackURL(feed *gofeed.Feed) string {
	if a.cfg.FallbackURL != "" {
		return a.cfg.FallbackURL
	}
	if link := strings.TrimSpace(feed.Link); link != "" {
		return link
	}
	u, err := url.Parse(a.cfg.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}

func (a *FeedAdapter) story(item *gofeed.Item, fallback string) model.RawStory {
	summary := item.Description
	if strings.TrimSpace(summary) == "" {
		summary = item.Content
	}

	link := strings.TrimSpace(item.Link)
	if link == "" && len(item.Links) > 0 {
		link = strings.TrimSpace(item.Links[0])
	}
	if link == "" {
		link = fallback
	}

	return model.RawStory{
		Title:       collapseSpace(item.Title),
		Summary:     plainText(summary),
		Source:      link,
		PublishedAt: model.StringPtr(publishedAt(item)),
	}
}

// publishedAt returns an RFC 3339 timestamp when the date can be parsed,
// the raw date text when it cannot, and "" when the item has none
func publishedAt(item *gofeed.Item) string {
	if item.PublishedParsed != nil {
		return item.PublishedParsed.UTC().Format(time.RFC3339)
	}
	if raw := strings.TrimSpace(item.Published); raw != "" {
		if t, err := dateparse.ParseAny(raw); err == nil {
			return t.UTC().Format(time.RFC3339)
		}
		return raw
	}
	if item.UpdatedParsed != nil {
		return item.UpdatedParsed.UTC().Format(time.RFC3339)
	}
	return strings.TrimSpace(item.Updated)
}

// plainText strips markup from feed descriptions
func plainText(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return collapseSpace(s)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return collapseSpace(s)
	}
	return collapseSpace(doc.Text())
}

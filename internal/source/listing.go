package source

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/ppiankov/strata/internal/model"
)

// ListingAdapter scrapes repeated blocks from an HTML listing page
type ListingAdapter struct {
	cfg     model.SourceConfig
	fetcher *Fetcher
}

// NewListingAdapter creates an HTML-listing adapter
func NewListingAdapter(cfg model.SourceConfig, fetcher *Fetcher) *ListingAdapter {
	return &ListingAdapter{cfg: cfg, fetcher: fetcher}
}

func (a *ListingAdapter) Name() string           { return a.cfg.Name }
func (a *ListingAdapter) Kind() model.SourceKind { return model.SourceKindListing }
func (a *ListingAdapter) URL() string            { return a.cfg.URL }

// Fetch downloads the page (subject to robots.txt) and extracts stories
func (a *ListingAdapter) Fetch(ctx context.Context, limit int) ([]model.RawStory, error) {
	body, err := a.fetcher.GetPage(ctx, a.cfg.URL)
	if err != nil {
		return nil, &FetchError{Source: a.cfg.Name, Cause: err}
	}
	stories, err := a.Parse(body, limit)
	if err != nil {
		return nil, &FetchError{Source: a.cfg.Name, Cause: err}
	}
	return stories, nil
}

// Parse extracts stories from the first limit listing blocks. Blocks
// missing a title, summary or link are skipped, so fewer than limit
// stories may come back even when the page has more blocks.
func (a *ListingAdapter) Parse(body []byte, limit int) ([]model.RawStory, error) {
	root, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	base, err := url.Parse(a.baseURL())
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	sel := a.cfg.Listing
	blocks := goquery.NewDocumentFromNode(root).Find(sel.Block)

	var stories []model.RawStory
	blocks.Slice(0, min(effectiveLimit(limit), blocks.Length())).Each(func(_ int, block *goquery.Selection) {
		summary := strings.TrimSpace(block.Find(sel.Summary).Text())
		href, _ := block.Find(sel.Link).First().Attr("href")
		href = strings.TrimSpace(href)

		var title string
		if sel.TitleFromSummary {
			title = titleFromSummary(collapseSpace(summary), sel.TitleMax)
		} else {
			title = collapseSpace(block.Find(sel.Title).Text())
		}

		if title == "" || summary == "" || href == "" {
			return
		}

		link, err := base.Parse(href)
		if err != nil {
			return
		}

		stories = append(stories, model.RawStory{
			Title:   title,
			Summary: summary,
			Source:  link.String(),
		})
	})

	if stories == nil {
		stories = []model.RawStory{}
	}
	return stories, nil
}

func (a *ListingAdapter) baseURL() string {
	if a.cfg.Listing.BaseURL != "" {
		return a.cfg.Listing.BaseURL
	}
	return a.cfg.URL
}

// titleFromSummary takes the first n characters of summary plus "..."
func titleFromSummary(summary string, n int) string {
	if n <= 0 {
		n = 80
	}
	if summary == "" {
		return ""
	}
	if utf8.RuneCountInString(summary) <= n {
		return summary + "..."
	}
	runes := []rune(summary)
	return strings.TrimSpace(string(runes[:n])) + "..."
}

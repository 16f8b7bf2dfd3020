package parser

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/IshaanNene/napwatch/internal/config"
	"github.com/IshaanNene/napwatch/internal/fetcher"
	"github.com/IshaanNene/napwatch/internal/types"
)

// LinkDiscoverer finds article URLs on the landing page.
type LinkDiscoverer struct {
	selector types.Selector
	attr     string
	settle   time.Duration
	logger   *slog.Logger
}

// NewLinkDiscoverer creates a discoverer for the configured landing page layout.
func NewLinkDiscoverer(site config.SiteConfig, logger *slog.Logger) *LinkDiscoverer {
	return &LinkDiscoverer{
		selector: site.LinkSelector,
		attr:     site.LinkAttribute,
		settle:   site.LandingSettle,
		logger:   logger.With("component", "link_discovery"),
	}
}

// Discover loads landingURL and returns the distinct absolute article URLs
// matched by the link selector. An empty result is valid.
func (d *LinkDiscoverer) Discover(ctx context.Context, sess fetcher.Session, landingURL string) ([]string, error) {
	if err := sess.Navigate(ctx, landingURL); err != nil {
		return nil, err
	}
	if err := fetcher.Settle(ctx, d.settle); err != nil {
		return nil, err
	}

	anchors, err := sess.Elements(ctx, d.selector)
	if err != nil {
		return nil, &types.ExtractError{URL: landingURL, Field: "links", Selector: d.selector, Err: err}
	}

	pageURL := sess.URL()
	if pageURL == "" {
		pageURL = landingURL
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, &types.FetchError{URL: pageURL, Err: err}
	}

	seen := make(map[string]struct{}, len(anchors))
	links := make([]string, 0, len(anchors))
	skipped := 0

	for _, a := range anchors {
		href, ok, err := a.Attr(d.attr)
		if err != nil {
			return nil, &types.ExtractError{URL: landingURL, Field: "links", Selector: d.selector, Err: err}
		}
		if !ok {
			skipped++
			continue
		}
		abs, ok := ResolveLink(base, href)
		if !ok {
			skipped++
			continue
		}
		if _, dup := seen[abs]; dup {
			continue
		}
		seen[abs] = struct{}{}
		links = append(links, abs)
	}

	d.logger.Info("links discovered",
		"landing_url", landingURL,
		"anchors", len(anchors),
		"unique", len(links),
		"skipped", skipped,
	)
	return links, nil
}

// ResolveLink turns href into an absolute http(s) URL relative to base.
// Empty hrefs and javascript:, mailto:, tel: and data: targets are rejected.
func ResolveLink(base *url.URL, href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return "", false
	}

	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	resolved := base.ResolveReference(ref)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return "", false
	}
	return resolved.String(), true
}

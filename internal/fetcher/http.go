package fetcher

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"sync/atomic"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/brotli"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/IshaanNene/napwatch/internal/config"
	"github.com/IshaanNene/napwatch/internal/types"
)

// StaticLauncher creates sessions that load pages over plain HTTP and query
// the served HTML without executing scripts.
type StaticLauncher struct {
	cfg        config.BrowserConfig
	navTimeout time.Duration
	logger     *slog.Logger
	uaIndex    atomic.Int64
}

// NewStaticLauncher creates a static HTML launcher.
func NewStaticLauncher(cfg *config.Config, logger *slog.Logger) *StaticLauncher {
	return &StaticLauncher{
		cfg:        cfg.Browser,
		navTimeout: cfg.Site.NavigationTimeout,
		logger:     logger.With("component", "static_launcher"),
	}
}

// Type returns the engine identifier.
func (sl *StaticLauncher) Type() string { return "static" }

// Launch creates an HTTP client with its own cookie jar.
func (sl *StaticLauncher) Launch(ctx context.Context) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, &types.SessionError{Engine: sl.Type(), Err: err}
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, &types.SessionError{Engine: sl.Type(), Err: fmt.Errorf("create cookie jar: %w", err)}
	}

	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		DisableCompression:  true, // We handle decompression ourselves (including brotli)
	}

	timeout := sl.cfg.HTTPTimeout
	if sl.navTimeout > 0 && (timeout <= 0 || sl.navTimeout < timeout) {
		timeout = sl.navTimeout
	}

	return &staticSession{
		client: &http.Client{
			Transport: transport,
			Jar:       jar,
			Timeout:   timeout,
		},
		userAgent:   sl.nextUserAgent(),
		maxBodySize: sl.cfg.MaxBodySize,
		logger:      sl.logger,
	}, nil
}

// nextUserAgent returns the next User-Agent in rotation; one per session.
func (sl *StaticLauncher) nextUserAgent() string {
	if len(sl.cfg.UserAgents) == 0 {
		return "napwatch/" + config.Version
	}
	idx := sl.uaIndex.Add(1) % int64(len(sl.cfg.UserAgents))
	return sl.cfg.UserAgents[idx]
}

// staticSession is a Session over net/http with goquery and htmlquery lookups.
type staticSession struct {
	client      *http.Client
	userAgent   string
	maxBodySize int64
	logger      *slog.Logger

	url string
	doc *goquery.Document
}

func (s *staticSession) Navigate(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &types.FetchError{URL: url, Err: err}
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		return &types.FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &types.FetchError{
			URL:        url,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
		}
	}

	reader, err := decompressReader(resp, resp.Body)
	if err != nil {
		return &types.FetchError{URL: url, Err: err}
	}
	defer reader.Close()

	body, err := readLimited(reader, s.maxBodySize)
	if err != nil {
		return &types.FetchError{URL: url, StatusCode: resp.StatusCode, Err: err}
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return &types.FetchError{URL: url, Err: fmt.Errorf("parse html: %w", err)}
	}

	s.url = resp.Request.URL.String()
	s.doc = doc

	s.logger.Debug("page loaded",
		"url", url,
		"final_url", s.url,
		"status", resp.StatusCode,
		"size", len(body),
		"duration", time.Since(start),
	)
	return nil
}

func (s *staticSession) Elements(ctx context.Context, sel types.Selector) ([]Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.doc == nil {
		return nil, types.ErrNoPage
	}

	if sel.IsXPath() {
		root := s.doc.Get(0)
		nodes, err := htmlquery.QueryAll(root, sel.Expr)
		if err != nil {
			return nil, fmt.Errorf("invalid xpath %q: %w", sel.Expr, err)
		}
		out := make([]Element, len(nodes))
		for i, n := range nodes {
			out[i] = nodeElement{node: n}
		}
		return out, nil
	}

	var out []Element
	s.doc.Find(sel.Expr).Each(func(_ int, match *goquery.Selection) {
		out = append(out, selectionElement{sel: match})
	})
	return out, nil
}

func (s *staticSession) URL() string { return s.url }

func (s *staticSession) Close() error {
	s.client.CloseIdleConnections()
	s.doc = nil
	return nil
}

// selectionElement adapts a single goquery match to Element.
type selectionElement struct {
	sel *goquery.Selection
}

func (e selectionElement) Text() (string, error) {
	return strings.TrimSpace(e.sel.Text()), nil
}

func (e selectionElement) Attr(name string) (string, bool, error) {
	v, ok := e.sel.Attr(name)
	return v, ok, nil
}

// nodeElement adapts an XPath match to Element.
type nodeElement struct {
	node *html.Node
}

func (e nodeElement) Text() (string, error) {
	return strings.TrimSpace(htmlquery.InnerText(e.node)), nil
}

func (e nodeElement) Attr(name string) (string, bool, error) {
	for _, a := range e.node.Attr {
		if a.Key == name {
			return a.Val, true, nil
		}
	}
	return "", false, nil
}

// decompressReader wraps a reader with the appropriate decompressor.
// Handles gzip, deflate, and brotli (br) encodings. Closing the result
// does not close reader.
func decompressReader(resp *http.Response, reader io.Reader) (io.ReadCloser, error) {
	switch resp.Header.Get("Content-Encoding") {
	case "gzip":
		return gzip.NewReader(reader)
	case "deflate":
		return flate.NewReader(reader), nil
	case "br":
		return io.NopCloser(brotli.NewReader(reader)), nil
	default:
		return io.NopCloser(reader), nil
	}
}

// readLimited reads the decoded body, failing with types.ErrBodyTooLarge
// rather than truncating when it exceeds limit. A limit <= 0 disables it.
func readLimited(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(r)
	}
	body, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > limit {
		return nil, fmt.Errorf("%w (%d bytes)", types.ErrBodyTooLarge, limit)
	}
	return body, nil
}

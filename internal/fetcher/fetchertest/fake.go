// Package fetchertest provides an in-memory page engine for tests.
package fetchertest

import (
	"context"
	"fmt"
	"sync"

	"github.com/IshaanNene/napwatch/internal/fetcher"
	"github.com/IshaanNene/napwatch/internal/types"
)

// Node is a canned element.
type Node struct {
	InnerText string
	Attrs     map[string]string
	// TextErr, when set, is returned by Text.
	TextErr error
}

// Page is a canned page keyed by selector expression.
type Page struct {
	Elements map[string][]Node
}

// Launcher serves canned pages. Safe for concurrent use.
type Launcher struct {
	Pages map[string]*Page

	// LaunchErr fails every Launch.
	LaunchErr error
	// NavigateErr fails navigation to specific URLs.
	NavigateErr map[string]error
	// ElementsErr fails every element lookup.
	ElementsErr error

	mu          sync.Mutex
	launches    int
	closes      int
	navigations []string
}

var _ fetcher.Launcher = (*Launcher)(nil)

// NewLauncher returns a launcher serving pages.
func NewLauncher(pages map[string]*Page) *Launcher {
	return &Launcher{Pages: pages, NavigateErr: map[string]error{}}
}

// Type returns the engine identifier.
func (l *Launcher) Type() string { return "fake" }

// Launch returns a new fake session.
func (l *Launcher) Launch(ctx context.Context) (fetcher.Session, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.LaunchErr != nil {
		return nil, l.LaunchErr
	}
	l.launches++
	return &session{l: l}, nil
}

// Launches returns how many sessions were started.
func (l *Launcher) Launches() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.launches
}

// Closes returns how many sessions were released.
func (l *Launcher) Closes() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closes
}

// Navigations returns every URL visited, in order.
func (l *Launcher) Navigations() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.navigations...)
}

type session struct {
	l      *Launcher
	url    string
	page   *Page
	closed bool
}

func (s *session) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.l.mu.Lock()
	defer s.l.mu.Unlock()
	s.l.navigations = append(s.l.navigations, url)
	if err := s.l.NavigateErr[url]; err != nil {
		return &types.FetchError{URL: url, Err: err}
	}
	page, ok := s.l.Pages[url]
	if !ok {
		return &types.FetchError{URL: url, StatusCode: 404, Err: fmt.Errorf("no such page")}
	}
	s.url = url
	s.page = page
	return nil
}

func (s *session) Elements(ctx context.Context, sel types.Selector) ([]fetcher.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.l.ElementsErr != nil {
		return nil, s.l.ElementsErr
	}
	if s.page == nil {
		return nil, types.ErrNoPage
	}
	nodes := s.page.Elements[sel.Expr]
	out := make([]fetcher.Element, len(nodes))
	for i, n := range nodes {
		out[i] = n
	}
	return out, nil
}

func (s *session) URL() string { return s.url }

func (s *session) Close() error {
	if s.closed {
		return fmt.Errorf("session closed twice")
	}
	s.closed = true
	s.l.mu.Lock()
	s.l.closes++
	s.l.mu.Unlock()
	return nil
}

// Text implements fetcher.Element.
func (n Node) Text() (string, error) {
	if n.TextErr != nil {
		return "", n.TextErr
	}
	return n.InnerText, nil
}

// Attr implements fetcher.Element.
func (n Node) Attr(name string) (string, bool, error) {
	v, ok := n.Attrs[name]
	return v, ok, nil
}

// Texts builds nodes carrying only text.
func Texts(texts ...string) []Node {
	nodes := make([]Node, len(texts))
	for i, t := range texts {
		nodes[i] = Node{InnerText: t}
	}
	return nodes
}

// Links builds anchor nodes carrying only an href.
func Links(hrefs ...string) []Node {
	nodes := make([]Node, len(hrefs))
	for i, h := range hrefs {
		nodes[i] = Node{Attrs: map[string]string{"href": h}}
	}
	return nodes
}

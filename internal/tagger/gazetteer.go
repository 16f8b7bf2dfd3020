package tagger

import (
	"sort"
	"sync"

	ahocorasick "github.com/cloudflare/ahocorasick"
)

// DefaultLocations is the fixed list of Pakistani cities and provinces.
var DefaultLocations = []string{
	"Karachi",
	"Lahore",
	"Islamabad",
	"Quetta",
	"Peshawar",
	"Sindh",
	"Punjab",
	"Balochistan",
	"KPK",
}

// Gazetteer reports which of a fixed list of names occur in text.
// Matching is case-sensitive and ignores word boundaries.
type Gazetteer struct {
	mu      sync.Mutex
	names   []string
	matcher *ahocorasick.Matcher
}

// NewGazetteer builds a matcher over names. Empty and repeated names are dropped.
func NewGazetteer(names []string) *Gazetteer {
	seen := make(map[string]struct{}, len(names))
	kept := make([]string, 0, len(names))
	for _, n := range names {
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		kept = append(kept, n)
	}

	g := &Gazetteer{names: kept}
	if len(kept) > 0 {
		g.matcher = ahocorasick.NewStringMatcher(kept)
	}
	return g
}

// DefaultGazetteer returns a gazetteer over DefaultLocations.
func DefaultGazetteer() *Gazetteer {
	return NewGazetteer(DefaultLocations)
}

// Names returns the gazetteer entries in list order.
func (g *Gazetteer) Names() []string {
	return append([]string(nil), g.names...)
}

// Find returns every entry that occurs in text, in gazetteer order.
func (g *Gazetteer) Find(text string) []string {
	found := []string{}
	if g.matcher == nil || text == "" {
		return found
	}

	// Matcher keeps per-call state.
	g.mu.Lock()
	hits := g.matcher.Match([]byte(text))
	g.mu.Unlock()

	sort.Ints(hits)
	last := -1
	for _, idx := range hits {
		if idx == last || idx >= len(g.names) {
			continue
		}
		last = idx
		found = append(found, g.names[idx])
	}
	return found
}

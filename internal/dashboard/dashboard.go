// Package dashboard aggregates the dataset for charting.
package dashboard

import (
	"sort"
	"time"

	"github.com/IshaanNene/napwatch/internal/types"
)

// Count is one bar of a chart.
type Count struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Summary holds frequency tables over the current dataset.
type Summary struct {
	Articles    int       `json:"articles"`
	Authors     []Count   `json:"authors"`
	Areas       []Count   `json:"areas"`
	Persons     []Count   `json:"persons"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Summarize counts authors, areas and persons across records. Each table is
// sorted by count descending, then name ascending.
func Summarize(records []types.ArticleRecord) Summary {
	authors := map[string]int{}
	areas := map[string]int{}
	persons := map[string]int{}

	for _, r := range records {
		authors[r.Author]++
		for _, a := range r.Locations {
			areas[a]++
		}
		for _, p := range r.Persons {
			persons[p]++
		}
	}

	return Summary{
		Articles:    len(records),
		Authors:     ranked(authors),
		Areas:       ranked(areas),
		Persons:     ranked(persons),
		GeneratedAt: time.Now().UTC(),
	}
}

func ranked(counts map[string]int) []Count {
	out := make([]Count, 0, len(counts))
	for name, n := range counts {
		out = append(out, Count{Name: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Top returns at most n entries of counts.
func Top(counts []Count, n int) []Count {
	if n <= 0 || len(counts) <= n {
		return counts
	}
	return counts[:n]
}

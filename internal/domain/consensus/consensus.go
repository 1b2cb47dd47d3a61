// Package consensus aggregates individual predictions into one crowd ranking.
package consensus

import (
	"sort"

	"github.com/okian/tipset/internal/domain/model"
)

// Entry is one item of the consensus order.
type Entry struct {
	Rank  int    `json:"rank"` // 1-based
	Item  string `json:"item"`
	Score int    `json:"score"` // sum of zero-based predicted positions
}

// Model is the immutable consensus ranking. Lower score ranks higher.
type Model struct {
	entries []Entry
	byItem  map[string]int
}

// Aggregate sums every item's zero-based position over all predictions and
// orders items by ascending sum, then ascending name. Items nobody predicted
// are absent. The result does not depend on participant order.
func Aggregate(set model.PredictionSet) Model {
	scores := make(map[string]int)
	for _, p := range set {
		for _, slot := range p.Slots() {
			scores[slot.Item] += slot.Index
		}
	}

	entries := make([]Entry, 0, len(scores))
	for item, score := range scores {
		entries = append(entries, Entry{Item: item, Score: score})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score < entries[j].Score
		}
		return entries[i].Item < entries[j].Item
	})

	byItem := make(map[string]int, len(entries))
	for i := range entries {
		entries[i].Rank = i + 1
		byItem[entries[i].Item] = i
	}
	return Model{entries: entries, byItem: byItem}
}

// Entries returns a copy of the ordered consensus rows.
func (m Model) Entries() []Entry {
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

// Order returns the consensus items best first. It can stand in as a
// reference order when no real standings exist yet.
func (m Model) Order() []string {
	out := make([]string, len(m.entries))
	for i, e := range m.entries {
		out[i] = e.Item
	}
	return out
}

// Top returns the first n items of the order.
func (m Model) Top(n int) []string {
	order := m.Order()
	if n < len(order) {
		return order[:n]
	}
	return order
}

// Rank returns the 1-based consensus rank of item.
func (m Model) Rank(item string) (int, bool) {
	i, ok := m.byItem[item]
	if !ok {
		return 0, false
	}
	return i + 1, true
}

// Score returns the summed position of item.
func (m Model) Score(item string) (int, bool) {
	i, ok := m.byItem[item]
	if !ok {
		return 0, false
	}
	return m.entries[i].Score, true
}

// Len is the number of distinct predicted items.
func (m Model) Len() int { return len(m.entries) }

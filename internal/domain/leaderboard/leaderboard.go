// Package leaderboard orders scored participants.
package leaderboard

import (
	"sort"

	"github.com/okian/tipset/internal/domain/scoring"
)

// medalPositions is how many leading rows get a medal.
const medalPositions = 3

// Entry represents a leaderboard row.
type Entry struct {
	Position    int            `json:"position"` // 1-based row index
	Rank        int            `json:"rank"`     // shared by equal scores
	Participant string         `json:"participant"`
	Medal       bool           `json:"medal"`
	Record      scoring.Record `json:"record"`
}

// Leaderboard is ordered by score, best first.
type Leaderboard []Entry

// Build sorts records by score descending. The sort is stable, so equal
// scores keep the order the records came in.
func Build(records []scoring.Record) Leaderboard {
	sorted := make([]scoring.Record, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})

	lb := make(Leaderboard, len(sorted))
	for i, rec := range sorted {
		lb[i] = Entry{
			Position:    i + 1,
			Participant: rec.Participant,
			Medal:       i < medalPositions,
			Record:      rec,
		}
	}
	assignRanksWithTies(lb)
	return lb
}

// Top returns at most n leading entries.
func (lb Leaderboard) Top(n int) Leaderboard {
	if n < 0 {
		n = 0
	}
	if n < len(lb) {
		return lb[:n]
	}
	return lb
}

// Find returns the entry of participant.
func (lb Leaderboard) Find(participant string) (Entry, bool) {
	for _, e := range lb {
		if e.Participant == participant {
			return e, true
		}
	}
	return Entry{}, false
}

// assignRanksWithTies gives equal scores the same rank; the next distinct
// score takes the next consecutive rank.
func assignRanksWithTies(entries Leaderboard) {
	if len(entries) == 0 {
		return
	}

	currentRank := 1
	for i := 0; i < len(entries); i++ {
		entries[i].Rank = currentRank

		sameScoreCount := 1
		for j := i + 1; j < len(entries) && entries[j].Record.Score == entries[i].Record.Score; j++ {
			entries[j].Rank = currentRank
			sameScoreCount++
		}

		currentRank++
		i += sameScoreCount - 1
	}
}

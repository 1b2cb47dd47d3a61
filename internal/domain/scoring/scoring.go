// Package scoring computes how far each prediction lands from a reference order.
package scoring

import (
	"math"

	"github.com/okian/tipset/internal/domain/model"
)

// Placement is a single item's predicted versus actual position.
// Positions are 1-based for display.
type Placement struct {
	Item      string `json:"item"`
	Predicted int    `json:"predicted"`
	Actual    int    `json:"actual"`
	Error     int    `json:"error"`
}

// Record is one participant's score against the reference.
type Record struct {
	Participant string      `json:"participant"`
	TotalError  int         `json:"raw_error"`
	Score       int         `json:"score"`
	MaxPossible int         `json:"max_possible"`
	Percent     float64     `json:"percent"`
	Best        *Placement  `json:"best_prediction,omitempty"`
	Worst       *Placement  `json:"worst_prediction,omitempty"`
	Breakdown   []Placement `json:"breakdown"`
}

// MaxPossibleError is the summed displacement of a fully reversed order of
// n items, floor(n*n/2). It depends on n alone.
func MaxPossibleError(n int) int {
	if n <= 0 {
		return 0
	}
	return n * n / 2
}

// Score rates every prediction in set against reference. Items missing from
// the reference are skipped. Records keep the order of set.
//
// It returns ErrEmptyReference when there is nothing to score against and
// ErrDegenerateItemCount when the reference is too short to normalize by.
func Score(reference []string, set model.PredictionSet) ([]Record, error) {
	if len(reference) == 0 {
		return nil, ErrEmptyReference
	}
	maxErr := MaxPossibleError(len(reference))
	if maxErr == 0 {
		return nil, ErrDegenerateItemCount
	}

	actual := make(map[string]int, len(reference))
	for i, item := range reference {
		if _, ok := actual[item]; !ok {
			actual[item] = i
		}
	}

	records := make([]Record, 0, len(set))
	for _, p := range set {
		records = append(records, scoreOne(p, actual, maxErr))
	}
	return records, nil
}

func scoreOne(p model.Prediction, actual map[string]int, maxErr int) Record {
	rec := Record{Participant: p.Participant, MaxPossible: maxErr}
	best, worst := -1, -1
	for _, slot := range p.Slots() {
		a, ok := actual[slot.Item]
		if !ok {
			continue
		}
		e := abs(slot.Index - a)
		rec.TotalError += e
		rec.Breakdown = append(rec.Breakdown, Placement{
			Item:      slot.Item,
			Predicted: slot.Index + 1,
			Actual:    a + 1,
			Error:     e,
		})
		last := len(rec.Breakdown) - 1
		// strict comparisons keep the first encountered item on ties
		if best < 0 || e < rec.Breakdown[best].Error {
			best = last
		}
		if worst < 0 || e > rec.Breakdown[worst].Error {
			worst = last
		}
	}
	if best >= 0 {
		b, w := rec.Breakdown[best], rec.Breakdown[worst]
		rec.Best, rec.Worst = &b, &w
	}
	rec.Score = maxErr - rec.TotalError
	rec.Percent = roundTenth(100 * float64(rec.Score) / float64(maxErr))
	return rec
}

// roundTenth rounds to one decimal, halves to even.
func roundTenth(x float64) float64 {
	return math.RoundToEven(x*10) / 10
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

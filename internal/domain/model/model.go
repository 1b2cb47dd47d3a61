// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"strings"
)

// Prediction is one participant's ranked list of items, best first.
type Prediction struct {
	Participant string   `json:"participant" yaml:"participant"`
	Items       []string `json:"items" yaml:"ranking"`
}

// PredictionSet is an ordered collection of predictions. The order is the
// order the source produced them in and decides leaderboard ties.
type PredictionSet []Prediction

// IssueKind classifies non-fatal input problems.
type IssueKind string

// Issue kinds reported alongside a computation.
const (
	IssueDuplicateItem        IssueKind = "duplicate_item"
	IssueEmptyItem            IssueKind = "empty_item"
	IssueCountMismatch        IssueKind = "count_mismatch"
	IssueDuplicateParticipant IssueKind = "duplicate_participant"
	IssueUnknownItem          IssueKind = "unknown_item"
)

// Issue describes a malformed prediction that was accepted anyway.
type Issue struct {
	Kind        IssueKind `json:"kind"`
	Participant string    `json:"participant"`
	Item        string    `json:"item,omitempty"`
	Detail      string    `json:"detail"`
}

// String formats the issue for logs.
func (i Issue) String() string {
	if i.Item != "" {
		return fmt.Sprintf("%s: %s (%s): %s", i.Participant, i.Kind, i.Item, i.Detail)
	}
	return fmt.Sprintf("%s: %s: %s", i.Participant, i.Kind, i.Detail)
}

// Participants returns participant names in set order.
func (s PredictionSet) Participants() []string {
	out := make([]string, len(s))
	for i, p := range s {
		out[i] = p.Participant
	}
	return out
}

// Find returns the prediction for participant.
func (s PredictionSet) Find(participant string) (Prediction, bool) {
	for _, p := range s {
		if p.Participant == participant {
			return p, true
		}
	}
	return Prediction{}, false
}

// Items returns the union of all predicted items in first-seen order.
func (s PredictionSet) Items() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, p := range s {
		for _, slot := range p.Slots() {
			if _, ok := seen[slot.Item]; ok {
				continue
			}
			seen[slot.Item] = struct{}{}
			out = append(out, slot.Item)
		}
	}
	return out
}

// Slot is an item at a zero-based position of a prediction.
type Slot struct {
	Item  string
	Index int
}

// Slots returns the filled positions of the prediction in order. Blank
// placeholders left by Normalize are skipped, as are repeats of an item.
func (p Prediction) Slots() []Slot {
	out := make([]Slot, 0, len(p.Items))
	seen := make(map[string]struct{}, len(p.Items))
	for i, item := range p.Items {
		if item == "" {
			continue
		}
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, Slot{Item: item, Index: i})
	}
	return out
}

// Positions maps each item to the zero-based index where the participant
// placed it.
func (p Prediction) Positions() map[string]int {
	slots := p.Slots()
	pos := make(map[string]int, len(slots))
	for _, s := range slots {
		pos[s.Item] = s.Index
	}
	return pos
}

// Len is the number of slots the prediction spans, placeholders included.
func (p Prediction) Len() int { return len(p.Items) }

// Normalize cleans a prediction: names are trimmed and empty entries are
// dropped, closing the gap. A repeated item leaves an empty placeholder so
// the items after it keep their position.
func Normalize(p Prediction) (Prediction, []Issue) {
	var issues []Issue
	out := Prediction{Participant: strings.TrimSpace(p.Participant)}
	seen := make(map[string]struct{}, len(p.Items))
	items := make([]string, 0, len(p.Items))
	for i, raw := range p.Items {
		item := strings.TrimSpace(raw)
		if item == "" {
			issues = append(issues, Issue{
				Kind:        IssueEmptyItem,
				Participant: out.Participant,
				Detail:      fmt.Sprintf("empty entry at position %d", i+1),
			})
			continue
		}
		if _, dup := seen[item]; dup {
			issues = append(issues, Issue{
				Kind:        IssueDuplicateItem,
				Participant: out.Participant,
				Item:        item,
				Detail:      fmt.Sprintf("repeated at position %d; first placement kept", i+1),
			})
			// keep the slot so later positions stay put
			items = append(items, "")
			continue
		}
		seen[item] = struct{}{}
		items = append(items, item)
	}
	out.Items = trimTrailingEmpty(items)
	return out, issues
}

func trimTrailingEmpty(items []string) []string {
	end := len(items)
	for end > 0 && items[end-1] == "" {
		end--
	}
	return items[:end]
}

// NormalizeSet normalizes every prediction and merges duplicate participants.
// A repeated participant replaces the earlier prediction but keeps its slot.
func NormalizeSet(set PredictionSet) (PredictionSet, []Issue) {
	var issues []Issue
	out := make(PredictionSet, 0, len(set))
	index := make(map[string]int, len(set))
	for _, raw := range set {
		p, pi := Normalize(raw)
		issues = append(issues, pi...)
		if p.Participant == "" {
			issues = append(issues, Issue{
				Kind:   IssueEmptyItem,
				Detail: "prediction without participant name dropped",
			})
			continue
		}
		if at, ok := index[p.Participant]; ok {
			issues = append(issues, Issue{
				Kind:        IssueDuplicateParticipant,
				Participant: p.Participant,
				Detail:      "later prediction replaces earlier one",
			})
			out[at] = p
			continue
		}
		index[p.Participant] = len(out)
		out = append(out, p)
	}
	return out, issues
}

// Validate reports predictions whose length differs from expected and items
// outside known (when known is non-empty). Nothing is rejected.
func Validate(set PredictionSet, expected int, known []string) []Issue {
	var issues []Issue
	knownSet := make(map[string]struct{}, len(known))
	for _, k := range known {
		knownSet[k] = struct{}{}
	}
	for _, p := range set {
		slots := p.Slots()
		n := len(slots)
		for _, slot := range slots {
			if len(knownSet) == 0 {
				break
			}
			if _, ok := knownSet[slot.Item]; !ok {
				issues = append(issues, Issue{
					Kind:        IssueUnknownItem,
					Participant: p.Participant,
					Item:        slot.Item,
					Detail:      "not in reference standings; ignored for scoring",
				})
			}
		}
		if expected > 0 && n != expected {
			issues = append(issues, Issue{
				Kind:        IssueCountMismatch,
				Participant: p.Participant,
				Detail:      fmt.Sprintf("predicted %d items, expected %d", n, expected),
			})
		}
	}
	return issues
}

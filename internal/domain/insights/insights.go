// Package insights derives secondary "fun stats" from a prediction set and
// its consensus.
package insights

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/okian/tipset/internal/domain/consensus"
	"github.com/okian/tipset/internal/domain/model"
)

const (
	defaultTopN = 5
	// floatTolerance decides when two averages or variances count as tied.
	floatTolerance = 1e-9
)

// Subject says what an insight's candidates name.
type Subject string

// Subjects.
const (
	SubjectItem        Subject = "item"
	SubjectParticipant Subject = "participant"
)

// Key identifies an insight.
type Key string

// Insight keys in evaluation order.
const (
	MostPredictedLeader  Key = "most_predicted_leader"
	MostPredictedBottom  Key = "most_predicted_bottom"
	MostPredictedPlayoff Key = "most_predicted_playoff"
	MostDivisive         Key = "most_divisive"
	MostAgreed           Key = "most_agreed"
	MostOptimistic       Key = "most_optimistic"
	MostPessimistic      Key = "most_pessimistic"
	Maverick             Key = "maverick"
	Prophet              Key = "prophet"
	DarkHorse            Key = "dark_horse"
	Underrated           Key = "underrated"
)

// Insight is one computed statistic.
type Insight struct {
	Key        Key      `json:"key"`
	Title      string   `json:"title"`
	Subject    Subject  `json:"subject"`
	Candidates []string `json:"candidates"` // every tied winner, sorted
	Pick       string   `json:"pick"`       // the reported representative
	Value      float64  `json:"value"`
	Detail     string   `json:"detail"`
}

// Tied reports whether more than one candidate shared the winning value.
func (i Insight) Tied() bool { return len(i.Candidates) > 1 }

// FunStats is the ordered list of computed insights.
type FunStats []Insight

// Get returns the insight stored under key.
func (f FunStats) Get(key Key) (Insight, bool) {
	for _, in := range f {
		if in.Key == key {
			return in, true
		}
	}
	return Insight{}, false
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithTieBreaker sets the policy for picking among tied candidates.
func WithTieBreaker(tb TieBreaker) Option {
	return func(e *Engine) {
		if tb != nil {
			e.tieBreaker = tb
		}
	}
}

// WithTopN sets how many consensus leaders the optimism statistics use.
func WithTopN(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.topN = n
		}
	}
}

// Engine computes FunStats. It holds no state between calls apart from
// whatever its TieBreaker keeps.
type Engine struct {
	tieBreaker TieBreaker
	topN       int
}

// NewEngine creates an engine; the default tie policy picks the first
// candidate alphabetically.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		tieBreaker: FirstTieBreaker{},
		topN:       defaultTopN,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Compute evaluates every insight in a fixed order so a seeded tie breaker
// yields reproducible picks. Insights without data are omitted.
func (e *Engine) Compute(set model.PredictionSet, cons consensus.Model) FunStats {
	var out FunStats
	add := func(in Insight, ok bool) {
		if ok {
			out = append(out, in)
		}
	}

	add(e.leader(set))
	add(e.bottom(set))
	add(e.playoff(set))

	divisive, agreed, ok := e.spread(set)
	add(divisive, ok)
	add(agreed, ok)

	optimistic, pessimistic, ok := e.optimism(set, cons)
	add(optimistic, ok)
	add(pessimistic, ok)

	add(e.maverick(set, cons))
	add(e.prophet(set, cons))

	dark, under, ok := e.darkHorse(set, cons)
	add(dark, ok)
	add(under, ok)

	return out
}

func (e *Engine) leader(set model.PredictionSet) (Insight, bool) {
	counts := make(map[string]float64)
	for _, p := range set {
		for _, s := range p.Slots() {
			if s.Index == 0 {
				counts[s.Item]++
			}
		}
	}
	v, tied, ok := extreme(counts, true)
	if !ok {
		return Insight{}, false
	}
	return Insight{
		Key:        MostPredictedLeader,
		Title:      "Most predicted champion",
		Subject:    SubjectItem,
		Candidates: tied,
		Pick:       strings.Join(tied, ", "),
		Value:      v,
		Detail:     fmt.Sprintf("picked first by %s of %d", plural(int(v), "participant"), len(set)),
	}, true
}

func (e *Engine) bottom(set model.PredictionSet) (Insight, bool) {
	counts := make(map[string]float64)
	for _, p := range set {
		n := p.Len()
		for _, s := range p.Slots() {
			if s.Index >= n-2 {
				counts[s.Item]++
			}
		}
	}
	v, tied, ok := extreme(counts, true)
	if !ok {
		return Insight{}, false
	}
	return Insight{
		Key:        MostPredictedBottom,
		Title:      "Most predicted to go down",
		Subject:    SubjectItem,
		Candidates: tied,
		Pick:       strings.Join(tied, ", "),
		Value:      v,
		Detail:     fmt.Sprintf("in the bottom two for %s", plural(int(v), "participant")),
	}, true
}

func (e *Engine) playoff(set model.PredictionSet) (Insight, bool) {
	counts := make(map[string]float64)
	for _, p := range set {
		n := p.Len()
		if n < 3 {
			continue
		}
		for _, s := range p.Slots() {
			if s.Index == n-3 {
				counts[s.Item]++
			}
		}
	}
	v, tied, ok := extreme(counts, true)
	if !ok {
		return Insight{}, false
	}
	return Insight{
		Key:        MostPredictedPlayoff,
		Title:      "Most predicted relegation playoff",
		Subject:    SubjectItem,
		Candidates: tied,
		Pick:       e.tieBreaker.Pick(tied),
		Value:      v,
		Detail:     fmt.Sprintf("third from bottom for %s", plural(int(v), "participant")),
	}, true
}

// spread returns the items whose 1-based predicted positions have the
// largest and smallest population variance.
func (e *Engine) spread(set model.PredictionSet) (Insight, Insight, bool) {
	positions := make(map[string][]float64)
	for _, p := range set {
		for _, s := range p.Slots() {
			positions[s.Item] = append(positions[s.Item], float64(s.Index+1))
		}
	}
	variances := make(map[string]float64, len(positions))
	for item, ps := range positions {
		variances[item] = PopulationVariance(ps)
	}

	maxV, maxTied, ok := extreme(variances, true)
	if !ok {
		return Insight{}, Insight{}, false
	}
	minV, minTied, _ := extreme(variances, false)

	divisive := Insight{
		Key:        MostDivisive,
		Title:      "Most divisive team",
		Subject:    SubjectItem,
		Candidates: maxTied,
		Pick:       e.tieBreaker.Pick(maxTied),
		Value:      maxV,
		Detail:     fmt.Sprintf("position variance %.2f", maxV),
	}
	agreed := Insight{
		Key:        MostAgreed,
		Title:      "Most agreed-upon team",
		Subject:    SubjectItem,
		Candidates: minTied,
		Pick:       e.tieBreaker.Pick(minTied),
		Value:      minV,
		Detail:     fmt.Sprintf("position variance %.2f", minV),
	}
	return divisive, agreed, true
}

// optimism averages where each participant put the consensus top teams.
func (e *Engine) optimism(set model.PredictionSet, cons consensus.Model) (Insight, Insight, bool) {
	top := cons.Top(e.topN)
	averages := make(map[string]float64)
	for _, p := range set {
		pos := p.Positions()
		sum, n := 0.0, 0
		for _, item := range top {
			if i, ok := pos[item]; ok {
				sum += float64(i + 1)
				n++
			}
		}
		if n > 0 {
			averages[p.Participant] = sum / float64(n)
		}
	}

	minV, minTied, ok := extreme(averages, false)
	if !ok {
		return Insight{}, Insight{}, false
	}
	maxV, maxTied, _ := extreme(averages, true)

	optimistic := Insight{
		Key:        MostOptimistic,
		Title:      "Most optimistic",
		Subject:    SubjectParticipant,
		Candidates: minTied,
		Pick:       e.tieBreaker.Pick(minTied),
		Value:      minV,
		Detail:     fmt.Sprintf("places the consensus top %d at %.1f on average", len(top), minV),
	}
	pessimistic := Insight{
		Key:        MostPessimistic,
		Title:      "Most pessimistic",
		Subject:    SubjectParticipant,
		Candidates: maxTied,
		Pick:       e.tieBreaker.Pick(maxTied),
		Value:      maxV,
		Detail:     fmt.Sprintf("places the consensus top %d at %.1f on average", len(top), maxV),
	}
	return optimistic, pessimistic, true
}

func (e *Engine) maverick(set model.PredictionSet, cons consensus.Model) (Insight, bool) {
	totals := make(map[string]float64)
	for _, p := range set {
		total, n := displacement(p, cons)
		if n > 0 {
			totals[p.Participant] = float64(total)
		}
	}
	v, tied, ok := extreme(totals, true)
	if !ok {
		return Insight{}, false
	}
	return Insight{
		Key:        Maverick,
		Title:      "Maverick",
		Subject:    SubjectParticipant,
		Candidates: tied,
		Pick:       e.tieBreaker.Pick(tied),
		Value:      v,
		Detail:     fmt.Sprintf("%d places away from the consensus in total", int(v)),
	}, true
}

func (e *Engine) prophet(set model.PredictionSet, cons consensus.Model) (Insight, bool) {
	means := make(map[string]float64)
	for _, p := range set {
		total, n := displacement(p, cons)
		if n > 0 {
			means[p.Participant] = float64(total) / float64(n)
		}
	}
	v, tied, ok := extreme(means, false)
	if !ok {
		return Insight{}, false
	}
	return Insight{
		Key:        Prophet,
		Title:      "Prophet",
		Subject:    SubjectParticipant,
		Candidates: tied,
		Pick:       e.tieBreaker.Pick(tied),
		Value:      v,
		Detail:     fmt.Sprintf("%.2f places from the consensus per team", v),
	}, true
}

// darkHorse compares each item's average predicted position with its
// consensus rank. Both aggregate the same data differently and may disagree.
func (e *Engine) darkHorse(set model.PredictionSet, cons consensus.Model) (Insight, Insight, bool) {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, p := range set {
		for _, s := range p.Slots() {
			sums[s.Item] += float64(s.Index + 1)
			counts[s.Item]++
		}
	}
	diffs := make(map[string]float64, len(sums))
	for item, sum := range sums {
		rank, ok := cons.Rank(item)
		if !ok {
			continue
		}
		diffs[item] = sum/float64(counts[item]) - float64(rank)
	}

	minV, minTied, ok := extreme(diffs, false)
	if !ok {
		return Insight{}, Insight{}, false
	}
	maxV, maxTied, _ := extreme(diffs, true)

	dark := Insight{
		Key:        DarkHorse,
		Title:      "Dark horse",
		Subject:    SubjectItem,
		Candidates: minTied,
		Pick:       e.tieBreaker.Pick(minTied),
		Value:      minV,
		Detail:     fmt.Sprintf("average pick %+.2f against consensus rank", minV),
	}
	under := Insight{
		Key:        Underrated,
		Title:      "Underrated",
		Subject:    SubjectItem,
		Candidates: maxTied,
		Pick:       e.tieBreaker.Pick(maxTied),
		Value:      maxV,
		Detail:     fmt.Sprintf("average pick %+.2f against consensus rank", maxV),
	}
	return dark, under, true
}

// displacement sums |predicted - consensus| over the zero-based positions of
// every item the participant placed that the consensus knows.
func displacement(p model.Prediction, cons consensus.Model) (total, n int) {
	for _, s := range p.Slots() {
		rank, ok := cons.Rank(s.Item)
		if !ok {
			continue
		}
		d := s.Index - (rank - 1)
		if d < 0 {
			d = -d
		}
		total += d
		n++
	}
	return total, n
}

// PopulationVariance divides by the number of values, not n-1.
func PopulationVariance(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))
	sq := 0.0
	for _, v := range values {
		sq += (v - mean) * (v - mean)
	}
	return sq / float64(len(values))
}

// extreme returns the maximum (or minimum) value and every key within
// floatTolerance of it, sorted.
func extreme(values map[string]float64, wantMax bool) (float64, []string, bool) {
	if len(values) == 0 {
		return 0, nil, false
	}
	first := true
	var best float64
	for _, v := range values {
		if first || (wantMax && v > best) || (!wantMax && v < best) {
			best = v
			first = false
		}
	}
	var tied []string
	for k, v := range values {
		if math.Abs(v-best) <= floatTolerance {
			tied = append(tied, k)
		}
	}
	sort.Strings(tied)
	return best, tied, true
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

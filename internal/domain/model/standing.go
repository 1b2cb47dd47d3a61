package model

// MatchStats is a team's record in the league table.
type MatchStats struct {
	Played         int `json:"played"`
	Won            int `json:"won"`
	Drawn          int `json:"drawn"`
	Lost           int `json:"lost"`
	GoalsFor       int `json:"goals_for"`
	GoalsAgainst   int `json:"goals_against"`
	GoalDifference int `json:"goal_difference"`
	Points         int `json:"points"`
}

// Standing is one row of the reference table.
type Standing struct {
	Position int         `json:"position"` // 1-based
	Item     string      `json:"item"`
	LogoURL  string      `json:"logo_url,omitempty"`
	Stats    *MatchStats `json:"stats,omitempty"`
}

// ReferenceOrder returns the standings' items in table order with repeats
// removed. An empty result means no reference is available.
func ReferenceOrder(standings []Standing) []string {
	seen := make(map[string]struct{}, len(standings))
	out := make([]string, 0, len(standings))
	for _, s := range standings {
		if s.Item == "" {
			continue
		}
		if _, ok := seen[s.Item]; ok {
			continue
		}
		seen[s.Item] = struct{}{}
		out = append(out, s.Item)
	}
	return out
}

// StandingsFromOrder builds stat-less standings from an ordered item list.
func StandingsFromOrder(items []string) []Standing {
	out := make([]Standing, len(items))
	for i, item := range items {
		out[i] = Standing{Position: i + 1, Item: item}
	}
	return out
}

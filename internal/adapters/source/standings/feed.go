package standings

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/okian/tipset/internal/domain/model"
)

// feedEntry is one team as the league feed publishes it.
type feedEntry struct {
	Position     flexInt    `json:"position"`
	Name         string     `json:"name"`
	DisplayName  string     `json:"displayName"`
	LogoImageURL string     `json:"logoImageUrl"`
	Stats        []feedStat `json:"stats"`
}

type feedStat struct {
	Name  string  `json:"name"`
	Value flexInt `json:"value"`
}

// flexInt accepts 3, 3.0, "3" and null.
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*f = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		b = []byte(strings.TrimSpace(s))
		if len(b) == 0 {
			*f = 0
			return nil
		}
	}
	v, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return fmt.Errorf("not a number: %s", b)
	}
	*f = flexInt(v)
	return nil
}

// ParseFeed decodes the standings document. Teams live under numeric keys;
// other keys are ignored. The result is sorted by table position and the
// display name is the item key.
func ParseFeed(r io.Reader) ([]model.Standing, error) {
	var doc map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrDecode)
	}

	out := make([]model.Standing, 0, len(doc))
	for key, raw := range doc {
		if _, err := strconv.Atoi(key); err != nil {
			continue
		}
		var e feedEntry
		if err := json.Unmarshal(raw, &e); err != nil {
			return nil, fmt.Errorf("entry %s: %v: %w", key, err, ErrDecode)
		}
		name := e.DisplayName
		if name == "" {
			name = e.Name
		}
		name = norm.NFC.String(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		out = append(out, model.Standing{
			Position: int(e.Position),
			Item:     name,
			LogoURL:  e.LogoImageURL,
			Stats:    matchStats(e.Stats),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].Item < out[j].Item
	})
	return out, nil
}

// matchStats maps the feed's short stat names onto MatchStats.
func matchStats(stats []feedStat) *model.MatchStats {
	if len(stats) == 0 {
		return nil
	}
	ms := &model.MatchStats{}
	for _, s := range stats {
		v := int(s.Value)
		switch s.Name {
		case "gp":
			ms.Played = v
		case "w":
			ms.Won = v
		case "t":
			ms.Drawn = v
		case "l":
			ms.Lost = v
		case "gf":
			ms.GoalsFor = v
		case "ga":
			ms.GoalsAgainst = v
		case "d":
			ms.GoalDifference = v
		case "pts":
			ms.Points = v
		}
	}
	return ms
}

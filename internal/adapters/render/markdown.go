package render

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/okian/tipset/internal/domain/report"
)

// Markdown writes GitHub-flavoured Markdown.
type Markdown struct {
	Title string
}

// ContentType implements Renderer.
func (Markdown) ContentType() string { return "text/markdown; charset=utf-8" }

// Render implements Renderer.
func (m Markdown) Render(w io.Writer, r *report.Report) error {
	b := bufio.NewWriter(w)

	fmt.Fprintf(b, "# %s\n\n", m.Title)
	fmt.Fprintf(b, "_Generated %s, mode %s._\n\n", r.GeneratedAt.Format(time.RFC3339), r.Mode)

	b.WriteString("## Consensus\n\n")
	rows := make([][]string, len(r.Consensus))
	for i, e := range r.Consensus {
		rows[i] = []string{strconv.Itoa(e.Rank), e.Item, strconv.Itoa(e.Score)}
	}
	writeTable(b, []string{"Rank", "Team", "Value"}, []bool{true, false, true}, rows)

	if len(r.Standings) > 0 && r.Mode == report.ModeLive {
		b.WriteString("## Standings\n\n")
		rows = rows[:0]
		for _, s := range r.Standings {
			row := []string{strconv.Itoa(s.Position), s.Item}
			if st := s.Stats; st != nil {
				row = append(row,
					strconv.Itoa(st.Played), strconv.Itoa(st.Won), strconv.Itoa(st.Drawn), strconv.Itoa(st.Lost),
					strconv.Itoa(st.GoalsFor), strconv.Itoa(st.GoalsAgainst), strconv.Itoa(st.GoalDifference),
					strconv.Itoa(st.Points))
			} else {
				row = append(row, "0", "0", "0", "0", "0", "0", "0", "0")
			}
			rows = append(rows, row)
		}
		writeTable(b, []string{"Pos", "Team", "GP", "W", "D", "L", "GF", "GA", "GD", "Pts"},
			[]bool{true, false, true, true, true, true, true, true, true, true}, rows)
	}

	b.WriteString("## Leaderboard\n\n")
	if r.Scored() {
		rows = rows[:0]
		for _, e := range r.Leaderboard {
			pos := strconv.Itoa(e.Position)
			if e.Medal {
				pos += " 🏆"
			}
			rows = append(rows, []string{
				pos, e.Participant,
				fmt.Sprintf("%d pts", e.Record.Score),
				formatPercent(e.Record.Percent),
				formatPlacement(e.Record.Best),
				formatPlacement(e.Record.Worst),
			})
		}
		writeTable(b, []string{"Pos", "Participant", "Score", "Percent", "Best", "Worst"},
			[]bool{false, false, true, true, false, false}, rows)
	} else {
		fmt.Fprintf(b, "_Scoring unavailable: %s._\n\n", r.ScoringUnavailable)
	}

	if len(r.FunStats) > 0 {
		b.WriteString("## Fun stats\n\n")
		for _, in := range r.FunStats {
			fmt.Fprintf(b, "- **%s:** %s (%s)\n", in.Title, in.Pick, in.Detail)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Predictions\n\n")
	for _, p := range r.Predictions {
		fmt.Fprintf(b, "### %s\n\n", p.Participant)
		for _, s := range p.Slots() {
			fmt.Fprintf(b, "%d. %s\n", s.Index+1, s.Item)
		}
		b.WriteString("\n")
	}

	if len(r.Issues) > 0 {
		b.WriteString("## Issues\n\n")
		for _, is := range r.Issues {
			fmt.Fprintf(b, "- %s\n", is.String())
		}
		b.WriteString("\n")
	}

	if err := b.Flush(); err != nil {
		return fmt.Errorf("write markdown: %w", err)
	}
	return nil
}

// writeTable pads columns to equal width; right marks right-aligned columns.
func writeTable(w io.Writer, header []string, right []bool, rows [][]string) {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = utf8.RuneCountInString(h)
	}
	for _, row := range rows {
		for i, c := range row {
			if n := utf8.RuneCountInString(c); n > widths[i] {
				widths[i] = n
			}
		}
	}

	line := func(cells []string) {
		parts := make([]string, len(cells))
		for i, c := range cells {
			pad := strings.Repeat(" ", widths[i]-utf8.RuneCountInString(c))
			if right[i] {
				parts[i] = pad + c
			} else {
				parts[i] = c + pad
			}
		}
		fmt.Fprintf(w, "| %s |\n", strings.Join(parts, " | "))
	}

	line(header)
	seps := make([]string, len(header))
	for i := range header {
		dashes := strings.Repeat("-", widths[i])
		if right[i] {
			seps[i] = dashes[:len(dashes)-1] + ":"
		} else {
			seps[i] = dashes
		}
	}
	fmt.Fprintf(w, "|-%s-|\n", strings.Join(seps, "-|-"))
	for _, row := range rows {
		line(row)
	}
	fmt.Fprintln(w)
}

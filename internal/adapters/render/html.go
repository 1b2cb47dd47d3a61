package render

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/okian/tipset/internal/domain/model"
	"github.com/okian/tipset/internal/domain/report"
)

// HTML writes a standalone page.
type HTML struct {
	Title string
}

// ContentType implements Renderer.
func (HTML) ContentType() string { return "text/html; charset=utf-8" }

type htmlView struct {
	Title     string
	Generated string
	Report    *report.Report
	Teams     int
	Standings []model.Standing
}

var pageTemplate = template.Must(template.New("page").Funcs(template.FuncMap{ //nolint:gochecknoglobals // parsed once
	"rowClass":  RowClass,
	"placement": formatPlacement,
	"percent":   formatPercent,
	"medal": func(position int) string {
		if position <= 3 {
			return fmt.Sprintf("medal-%d", position)
		}
		return ""
	},
}).Parse(pageHTML))

// Render implements Renderer.
func (h HTML) Render(w io.Writer, r *report.Report) error {
	v := htmlView{
		Title:     h.Title,
		Generated: r.GeneratedAt.Format(time.RFC1123),
		Report:    r,
		Teams:     len(r.Standings),
	}
	if r.Mode == report.ModeLive {
		v.Standings = r.Standings
	}
	if err := pageTemplate.Execute(w, v); err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	return nil
}

const pageHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style>
body { font-family: system-ui, sans-serif; margin: 2rem auto; max-width: 960px; color: #222; }
table { border-collapse: collapse; width: 100%; margin-bottom: 2rem; }
th, td { padding: .4rem .6rem; border-bottom: 1px solid #ddd; text-align: left; }
tr.europaleague { background: #e3f2fd; }
tr.conference-league { background: #e8f5e9; }
tr.relegation-playoff { background: #fff8e1; }
tr.relegation-direct { background: #ffebee; }
tr.medal-1 { background: #fff3c4; }
tr.medal-2 { background: #eceff1; }
tr.medal-3 { background: #f6e0cf; }
td.best-prediction { color: #2e7d32; }
td.worst-prediction { color: #c62828; }
.logo { height: 24px; margin-right: 10px; vertical-align: middle; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<p class="section-description">Generated {{.Generated}} ({{.Report.Mode}})</p>

{{- if .Standings}}
<section class="section" id="live-standings-section">
<h2 class="section-title">Current standings</h2>
<table id="standings-table">
<thead><tr><th>Position</th><th>Team</th><th>Matches</th><th>W</th><th>D</th><th>L</th><th>GF</th><th>GA</th><th>GD</th><th>Points</th></tr></thead>
<tbody>
{{- $teams := .Teams}}
{{- range .Standings}}
<tr class="{{rowClass .Position $teams}}">
<td>{{.Position}}</td>
<td>{{if .LogoURL}}<img class="logo" src="{{.LogoURL}}" alt="{{.Item}} logo">{{end}}<span>{{.Item}}</span></td>
{{- with .Stats}}
<td>{{.Played}}</td><td>{{.Won}}</td><td>{{.Drawn}}</td><td>{{.Lost}}</td><td>{{.GoalsFor}}</td><td>{{.GoalsAgainst}}</td><td>{{.GoalDifference}}</td><td><strong>{{.Points}}</strong></td>
{{- else}}
<td>0</td><td>0</td><td>0</td><td>0</td><td>0</td><td>0</td><td>0</td><td><strong>0</strong></td>
{{- end}}
</tr>
{{- end}}
</tbody>
</table>
</section>
{{- end}}

<section class="section" id="current-leaderboard-section">
<h2 class="section-title">Current prediction scores</h2>
{{- if .Report.Scored}}
<p class="section-description">Higher scores are better.</p>
<table id="current-leaderboard-table">
<thead><tr><th>Position</th><th>Participant</th><th>Score</th><th>Percentage</th><th>Best prediction</th><th>Worst prediction</th></tr></thead>
<tbody>
{{- range .Report.Leaderboard}}
<tr class="{{medal .Position}}">
<td>{{.Position}}{{if .Medal}} 🏆{{end}}</td>
<td>{{.Participant}}</td>
<td>{{.Record.Score}} pts</td>
<td>{{percent .Record.Percent}}</td>
<td class="best-prediction">{{placement .Record.Best}}</td>
<td class="worst-prediction">{{placement .Record.Worst}}</td>
</tr>
{{- end}}
</tbody>
</table>
{{- else}}
<p class="section-description">Scoring unavailable: {{.Report.ScoringUnavailable}}</p>
{{- end}}
</section>

<section class="section" id="consensus-section">
<h2 class="section-title">Consensus</h2>
<table id="consensus-table">
<thead><tr><th>Rank</th><th>Team</th><th>Value</th></tr></thead>
<tbody>
{{- range .Report.Consensus}}
<tr><td>{{.Rank}}</td><td>{{.Item}}</td><td>{{.Score}}</td></tr>
{{- end}}
</tbody>
</table>
</section>

{{- if .Report.FunStats}}
<section class="section" id="fun-stats-section">
<h2 class="section-title">Fun stats</h2>
<ul>
{{- range .Report.FunStats}}
<li><strong>{{.Title}}:</strong> {{.Pick}} <small>({{.Detail}})</small></li>
{{- end}}
</ul>
</section>
{{- end}}
</body>
</html>
`

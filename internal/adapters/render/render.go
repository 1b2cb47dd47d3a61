// Package render formats a report for people and machines.
package render

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/okian/tipset/internal/domain/report"
	"github.com/okian/tipset/internal/domain/scoring"
)

// ErrUnknownFormat is returned by ForFormat.
var ErrUnknownFormat = errors.New("unknown report format")

const defaultTitle = "Tipset"

// Renderer writes a report in one format.
type Renderer interface {
	Render(w io.Writer, r *report.Report) error
	ContentType() string
}

// ForFormat returns the renderer for json, markdown (md) or html.
func ForFormat(name, title string) (Renderer, error) {
	if title == "" {
		title = defaultTitle
	}
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "json":
		return JSON{Indent: true}, nil
	case "markdown", "md":
		return Markdown{Title: title}, nil
	case "html":
		return HTML{Title: title}, nil
	default:
		return nil, fmt.Errorf("%q: %w", name, ErrUnknownFormat)
	}
}

// Standings row classes.
const (
	ClassEuropa            = "europaleague"
	ClassConference        = "conference-league"
	ClassRelegationPlayoff = "relegation-playoff"
	ClassRelegationDirect  = "relegation-direct"
)

// RowClass marks table positions: first place, the two places behind it,
// the relegation playoff spot and the bottom two.
func RowClass(position, teams int) string {
	switch {
	case position == 1:
		return ClassEuropa
	case position == 2 || position == 3:
		return ClassConference
	case position >= teams-1:
		return ClassRelegationDirect
	case position == teams-2:
		return ClassRelegationPlayoff
	default:
		return ""
	}
}

// formatPlacement renders "Team (P:x, A:y)" or N/A.
func formatPlacement(p *scoring.Placement) string {
	if p == nil {
		return "N/A"
	}
	return fmt.Sprintf("%s (P:%d, A:%d)", p.Item, p.Predicted, p.Actual)
}

func formatPercent(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}

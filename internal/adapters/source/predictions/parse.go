package predictions

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/go-andiamo/splitter"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"github.com/okian/tipset/internal/domain/model"
)

// ParseMarkdown reads the README layout: a "## Name" header per participant
// followed by one team per line. Lines may carry a "1. " or "- " marker.
// Anything before the first participant header is ignored, as is a
// single-hash title, which also closes the current participant.
func ParseMarkdown(r io.Reader) (model.PredictionSet, error) {
	var (
		set     model.PredictionSet
		current = -1
	)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimRightFunc(sc.Text(), unicode.IsSpace)
		switch {
		case strings.HasPrefix(line, "##"):
			name := clean(strings.TrimLeft(line, "#"))
			set = append(set, model.Prediction{Participant: name})
			current = len(set) - 1
			continue
		case strings.HasPrefix(line, "#"):
			current = -1
			continue
		}
		if current < 0 || strings.TrimSpace(line) == "" {
			continue
		}
		set[current].Items = append(set[current].Items, clean(stripMarker(line)))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read markdown predictions: %w", err)
	}
	return set, nil
}

// stripMarker removes an ordinal "12. " or bullet "- " prefix.
func stripMarker(line string) string {
	line = strings.TrimSpace(line)
	if i := strings.Index(line, ". "); i > 0 && isDigits(line[:i]) {
		return line[i+2:]
	}
	for _, bullet := range []string{"- ", "* ", "+ "} {
		if strings.HasPrefix(line, bullet) {
			return line[len(bullet):]
		}
	}
	return line
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// ParseDelimited reads one participant per line:
//
//	Anna: Malmö FF, "Djurgården, IF", AIK
//
// Quoted team names may contain commas. Blank lines and lines starting with
// '#' are skipped.
func ParseDelimited(r io.Reader) (model.PredictionSet, error) {
	comma, err := splitter.NewSplitter(',', splitter.DoubleQuotes)
	if err != nil {
		return nil, fmt.Errorf("build splitter: %w", err)
	}

	var set model.PredictionSet
	sc := bufio.NewScanner(r)
	n := 0
	for sc.Scan() {
		n++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		name, rest, ok := strings.Cut(line, ":")
		if !ok {
			return nil, fmt.Errorf("line %d: missing ':' after participant: %w", n, ErrMalformedLine)
		}
		parts, err := comma.Split(rest)
		if err != nil {
			return nil, fmt.Errorf("line %d: %v: %w", n, err, ErrMalformedLine)
		}
		p := model.Prediction{Participant: clean(name)}
		for _, part := range parts {
			if item := clean(unquote(part)); item != "" {
				p.Items = append(p.Items, item)
			}
		}
		set = append(set, p)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read delimited predictions: %w", err)
	}
	return set, nil
}

// unquote strips one pair of surrounding double quotes.
func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

// ParseYAML reads a sequence of {participant, ranking} documents.
func ParseYAML(r io.Reader) (model.PredictionSet, error) {
	var set model.PredictionSet
	if err := yaml.NewDecoder(r).Decode(&set); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("decode yaml predictions: %w", err)
	}
	for i := range set {
		set[i].Participant = clean(set[i].Participant)
		for j := range set[i].Items {
			set[i].Items[j] = clean(set[i].Items[j])
		}
	}
	return set, nil
}

// clean trims and NFC-normalizes a name so that "Malmö" typed with a
// combining diaeresis matches the precomposed form from the standings feed.
func clean(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

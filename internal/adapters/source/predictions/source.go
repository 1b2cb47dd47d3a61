// Package predictions loads participants' ranked lists from files.
package predictions

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/okian/tipset/internal/domain/model"
	"github.com/okian/tipset/pkg/logger"
)

// Source yields the prediction set.
type Source interface {
	Load(ctx context.Context) (model.PredictionSet, error)
}

// Parser turns raw bytes into predictions.
type Parser func(io.Reader) (model.PredictionSet, error)

// ParserFor picks a parser by file extension.
func ParserFor(path string) (Parser, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return ParseMarkdown, nil
	case ".txt", ".csv":
		return ParseDelimited, nil
	case ".yaml", ".yml":
		return ParseYAML, nil
	default:
		return nil, fmt.Errorf("%q: %w", path, ErrUnsupportedFormat)
	}
}

// LoadFile reads and parses the predictions file at path.
func LoadFile(ctx context.Context, path string) (model.PredictionSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	parse, err := ParserFor(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path) //nolint:gosec // path comes from operator configuration
	if err != nil {
		return nil, fmt.Errorf("open predictions: %w", err)
	}
	defer f.Close()

	set, err := parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return set, nil
}

// File is a Source that re-reads its file on every Load so edits are picked
// up by the next refresh.
type File struct {
	path string
	log  logger.Logger
}

// NewFile creates a file-backed source.
func NewFile(path string) *File {
	return &File{path: path, log: logger.Named("predictions")}
}

// Load implements Source.
func (f *File) Load(ctx context.Context) (model.PredictionSet, error) {
	set, err := LoadFile(ctx, f.path)
	if err != nil {
		return nil, err
	}
	f.log.Debug(ctx, "predictions loaded",
		logger.String("path", f.path),
		logger.Int("participants", len(set)))
	return set, nil
}

// Static is a Source over a fixed set.
type Static model.PredictionSet

// Load implements Source.
func (s Static) Load(ctx context.Context) (model.PredictionSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make(model.PredictionSet, len(s))
	copy(out, s)
	return out, nil
}

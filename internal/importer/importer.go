// Package importer loads positions from files on disk.
package importer

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/scottgpt/career-cli/internal/model"
)

// Supported reports whether LoadFile understands the file's extension.
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown", ".yaml", ".yml", ".json", ".xlsx":
		return true
	}
	return false
}

// LoadPath loads a single file or, for a directory, every supported file in it.
func LoadPath(path string) ([]model.Position, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, eris.Wrapf(err, "importer: stat %s", path)
	}
	if info.IsDir() {
		return LoadDir(path)
	}
	return LoadFile(path)
}

// LoadFile reads positions from a single file, choosing the format by extension.
func LoadFile(path string) ([]model.Position, error) {
	var (
		docs []positionDoc
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		docs, err = readMarkdown(path)
	case ".yaml", ".yml":
		docs, err = readYAML(path)
	case ".json":
		docs, err = readJSON(path)
	case ".xlsx":
		docs, err = readXLSX(path)
	default:
		return nil, model.NewValidationError("path", "unsupported file type "+filepath.Ext(path))
	}
	if err != nil {
		return nil, eris.Wrapf(err, "importer: load %s", path)
	}
	return finish(path, docs), nil
}

// LoadDir loads every supported file under dir in lexical order. Unsupported
// files are skipped.
func LoadDir(dir string) ([]model.Position, error) {
	var out []model.Position
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !Supported(path) {
			return nil
		}
		positions, err := LoadFile(path)
		if err != nil {
			return err
		}
		out = append(out, positions...)
		return nil
	})
	if err != nil {
		return nil, eris.Wrapf(err, "importer: walk %s", dir)
	}
	if out == nil {
		out = []model.Position{}
	}
	return out, nil
}

// finish normalizes decoded records, drops empty ones and assigns missing ids.
func finish(path string, docs []positionDoc) []model.Position {
	raw := make([]model.Position, 0, len(docs))
	for _, d := range docs {
		raw = append(raw, d.position())
	}

	out := make([]model.Position, 0, len(raw))
	for _, p := range model.NormalizePositions(raw) {
		if p.Title == "" && p.Org == "" {
			zap.L().Warn("importer: skipping record without title or org", zap.String("path", path))
			continue
		}
		if p.ID == "" {
			p.ID = uuid.New().String()
		}
		out = append(out, p)
	}

	zap.L().Debug("importer: loaded file", zap.String("path", path), zap.Int("positions", len(out)))
	return out
}

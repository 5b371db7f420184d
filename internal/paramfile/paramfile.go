// Package paramfile materializes one parameter file per parameter set by
// substituting {NAME} placeholders in a template.
package paramfile

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/san-kum/powersweep/internal/grid"
	"github.com/san-kum/powersweep/internal/storage"
	"github.com/san-kum/powersweep/internal/sweep"
)

var (
	placeholderRe = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_.-]*)\}`)
	fileNameRe    = regexp.MustCompile(`^Parameters([0-9]+)\.txt$`)
)

// FileName is the parameter file name for a parameter set.
func FileName(paramSetID int) string {
	return fmt.Sprintf("Parameters%d.txt", paramSetID)
}

// Render replaces every {name} in template with its column value. Values
// are inserted verbatim in a single pass, so a value that itself looks like
// a placeholder is never expanded.
func Render(template string, cols []grid.Column) string {
	pairs := make([]string, 0, 2*len(cols))
	for _, c := range cols {
		pairs = append(pairs, "{"+c.Name+"}", c.Value)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

// Placeholders lists the distinct placeholder names in template, in order of
// first appearance.
func Placeholders(template string) []string {
	var names []string
	seen := map[string]bool{}
	for _, m := range placeholderRe.FindAllStringSubmatch(template, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return names
}

// LoadTemplate reads a template document.
func LoadTemplate(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", sweep.PathErr("load template", path, err)
		}
		return "", err
	}
	return string(data), nil
}

// Document is one rendered parameter file.
type Document struct {
	ParamSetID int
	Name       string
	Content    []byte
}

type Materializer struct {
	Template string
	Dir      string
	// Strict rejects templates with placeholders no column fills.
	Strict bool
	// Force allows replacing a parameter file whose content changed.
	Force bool

	logger *zap.Logger
}

func New(template, dir string, logger *zap.Logger) *Materializer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Materializer{Template: template, Dir: dir, logger: logger}
}

// Unresolved returns the template placeholders that match no value column.
// They pass through rendering unchanged.
func (m *Materializer) Unresolved(schema sweep.Schema) []string {
	known := map[string]bool{}
	for _, n := range schema.ValueNames() {
		known[n] = true
	}
	var missing []string
	for _, p := range Placeholders(m.Template) {
		if !known[p] {
			missing = append(missing, p)
		}
	}
	return missing
}

// RenderAll renders every row of t without touching the filesystem.
func (m *Materializer) RenderAll(t *grid.Table) ([]Document, error) {
	if missing := m.Unresolved(t.Schema); len(missing) > 0 {
		if m.Strict {
			return nil, sweep.Validationf("materialize", "template placeholders without a column: %s", strings.Join(missing, ", "))
		}
		m.logger.Warn("template placeholders left unreplaced", zap.Strings("placeholders", missing))
	}

	docs := make([]Document, 0, t.Len())
	for _, row := range t.Rows {
		docs = append(docs, Document{
			ParamSetID: row.ID,
			Name:       FileName(row.ID),
			Content:    []byte(Render(m.Template, t.Columns(row))),
		})
	}
	return docs, nil
}

// Check verifies that docs can be written: an existing file must already
// hold identical bytes unless Force is set.
func (m *Materializer) Check(docs []Document) error {
	if m.Force {
		return nil
	}
	for _, d := range docs {
		existing, err := os.ReadFile(filepath.Join(m.Dir, d.Name))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return err
		}
		if !bytes.Equal(existing, d.Content) {
			return sweep.Validationf("materialize", "%s already exists with different content; parameter files are immutable (use force to regenerate)", d.Name)
		}
	}
	return nil
}

// Write persists docs. Files that already hold identical bytes are left
// untouched.
func (m *Materializer) Write(docs []Document) error {
	if err := m.Check(docs); err != nil {
		return err
	}
	if err := os.MkdirAll(m.Dir, 0755); err != nil {
		return err
	}

	written := 0
	for _, d := range docs {
		path := filepath.Join(m.Dir, d.Name)
		if existing, err := os.ReadFile(path); err == nil && bytes.Equal(existing, d.Content) {
			continue
		}
		if err := storage.WriteFileAtomic(path, d.Content, 0644); err != nil {
			return fmt.Errorf("writing %s: %w", d.Name, err)
		}
		written++
	}
	stale, err := m.prune(len(docs))
	if err != nil {
		return err
	}
	m.logger.Info("parameter files materialized",
		zap.String("dir", m.Dir),
		zap.Int("total", len(docs)),
		zap.Int("written", written),
		zap.Int("stale_removed", stale))
	return nil
}

// prune removes parameter files of sets beyond total, left by a larger
// previous sweep.
func (m *Materializer) prune(total int) (int, error) {
	entries, err := os.ReadDir(m.Dir)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, e := range entries {
		match := fileNameRe.FindStringSubmatch(e.Name())
		if match == nil {
			continue
		}
		n, err := strconv.Atoi(match[1])
		if err != nil || n <= total {
			continue
		}
		if err := os.Remove(filepath.Join(m.Dir, e.Name())); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

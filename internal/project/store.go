package project

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"sublingo/internal/services"
)

// FileSuffix is appended to the source name when deriving a project path.
const FileSuffix = ".project.json"

// PathFor returns dir/<source base name without extension>.project.json.
func PathFor(dir, source string) string {
	base := filepath.Base(source)
	base = base[:len(base)-len(filepath.Ext(base))]
	return filepath.Join(dir, base+FileSuffix)
}

func lockFor(path string) *flock.Flock {
	return flock.New(path + ".lock")
}

// Save writes the project to path atomically and remembers path for AutoSave.
func (p *Project) Save(path string) error {
	if path == "" {
		return services.Wrap(services.ErrConfiguration, "project", "save", "project path is empty", nil)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create project directory: %w", err)
	}

	p.mu.Lock()
	p.touch()
	doc := p.snapshot()
	p.path = path
	p.mu.Unlock()

	data, err := encodeDocument(doc)
	if err != nil {
		return err
	}

	lock := lockFor(path)
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock project file: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// AutoSave saves to the path used by the last Save or Load.
func (p *Project) AutoSave() error {
	p.mu.Lock()
	path := p.path
	p.mu.Unlock()
	if path == "" {
		return services.Wrap(services.ErrConfiguration, "project", "autosave", "project has not been saved or loaded", nil)
	}
	return p.Save(path)
}

// Path returns the path remembered for AutoSave.
func (p *Project) Path() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.path
}

// Load reads a project saved by Save.
func Load(path string) (*Project, error) {
	lock := lockFor(path)
	if err := lock.RLock(); err != nil {
		return nil, fmt.Errorf("lock project file: %w", err)
	}
	data, err := os.ReadFile(path)
	_ = lock.Unlock()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, services.Wrap(services.ErrNotFound, "project", "load", path, err)
		}
		return nil, fmt.Errorf("read project: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, services.Wrap(services.ErrValidation, "project", "load", "parse project file", err)
	}
	if err := checkDocument(&doc); err != nil {
		return nil, err
	}
	p := &Project{doc: doc, path: path, now: time.Now}
	p.recount()
	return p, nil
}

func encodeDocument(doc Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode project: %w", err)
	}
	return buf.Bytes(), nil
}

// checkDocument enforces equal 1-indexed lengths and fills gaps left by
// older files that stored null entries.
func checkDocument(doc *Document) error {
	n := len(doc.Original)
	if n == 0 {
		return services.Wrap(services.ErrValidation, "project", "load", "project has no lines", nil)
	}
	if len(doc.Times) != n || len(doc.Translated) != n || len(doc.Statuses) != n {
		msg := fmt.Sprintf("inconsistent lengths: times=%d original=%d translated=%d statuses=%d",
			len(doc.Times), n, len(doc.Translated), len(doc.Statuses))
		return services.Wrap(services.ErrValidation, "project", "load", msg, nil)
	}
	doc.TotalLines = n - 1
	if doc.Version == "" {
		doc.Version = FormatVersion
	}
	doc.Statuses[0] = ""
	for i := 1; i < n; i++ {
		if doc.Statuses[i] == "" {
			doc.Statuses[i] = StatusPending
			continue
		}
		if _, err := ParseStatus(string(doc.Statuses[i])); err != nil {
			return services.Wrap(services.ErrValidation, "project", "load", fmt.Sprintf("line %d", i), err)
		}
	}
	return nil
}

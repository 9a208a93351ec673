// Package prompts renders the answer prompts, with optional per-deployment overrides
// loaded from a directory and reloaded when the files change.
package prompts

import (
	"context"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"text/template"

	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/watcher"
)

const (
	Ungrounded = "ungrounded"
	Grounded   = "grounded"

	ext = ".tmpl"
)

//go:embed defaults/*.tmpl
var defaultFS embed.FS

// Names lists the templates every Store provides.
var Names = []string{Ungrounded, Grounded}

// Data is passed to every template.
type Data struct {
	Question string
	Context  string
	Language string
}

// Store holds the active templates. Overrides in dir replace the built-in
// defaults by name (<name>.tmpl); removing an override restores the default.
type Store struct {
	dir      string
	logger   *zap.Logger
	defaults map[string]*template.Template

	mu        sync.RWMutex
	templates map[string]*template.Template
	watcher   *watcher.Watcher
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets a logger for override loading and reload events.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// New loads the default templates and any overrides found in dir. dir may be empty.
func New(dir string, opts ...Option) (*Store, error) {
	s := &Store{
		dir:       dir,
		logger:    zap.NewNop(),
		defaults:  make(map[string]*template.Template, len(Names)),
		templates: make(map[string]*template.Template, len(Names)),
	}
	for _, opt := range opts {
		opt(s)
	}
	for _, name := range Names {
		raw, err := defaultFS.ReadFile("defaults/" + name + ext)
		if err != nil {
			return nil, fmt.Errorf("read default template %s: %w", name, err)
		}
		tmpl, err := parse(name, string(raw))
		if err != nil {
			return nil, err
		}
		s.defaults[name] = tmpl
		s.templates[name] = tmpl
	}
	if dir == "" {
		return s, nil
	}
	for _, name := range Names {
		path := filepath.Join(dir, name+ext)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := s.load(path); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func parse(name, text string) (*template.Template, error) {
	tmpl, err := template.New(name).Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse template %s: %w", name, err)
	}
	return tmpl, nil
}

// nameOf maps an override path to a template name, or "" for unknown files.
func (s *Store) nameOf(path string) string {
	name := strings.TrimSuffix(filepath.Base(path), ext)
	if _, ok := s.defaults[name]; !ok {
		return ""
	}
	return name
}

func (s *Store) load(path string) error {
	name := s.nameOf(path)
	if name == "" {
		return nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read template %s: %w", path, err)
	}
	tmpl, err := parse(name, string(raw))
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.templates[name] = tmpl
	s.mu.Unlock()
	s.logger.Info("loaded prompt override", zap.String("name", name), zap.String("path", path))
	return nil
}

func (s *Store) restore(path string) {
	name := s.nameOf(path)
	if name == "" {
		return
	}
	s.mu.Lock()
	s.templates[name] = s.defaults[name]
	s.mu.Unlock()
	s.logger.Info("restored default prompt", zap.String("name", name))
}

// Render executes the named template with data.
func (s *Store) Render(name string, data Data) (string, error) {
	s.mu.RLock()
	tmpl, ok := s.templates[name]
	s.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("unknown prompt template: %s", name)
	}
	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("render prompt %s: %w", name, err)
	}
	return b.String(), nil
}

// Watch reloads overrides whenever files in the prompts directory change.
// A broken edit is logged and the previous template stays active.
func (s *Store) Watch(ctx context.Context) error {
	if s.dir == "" {
		return nil
	}
	w := watcher.New(s.dir, []string{ext},
		func(path string) {
			if err := s.load(path); err != nil {
				s.logger.Warn("prompt reload failed", zap.String("path", path), zap.Error(err))
			}
		},
		s.restore,
		watcher.WithLogger(s.logger),
	)
	if err := w.Start(ctx); err != nil {
		return fmt.Errorf("watch prompts dir: %w", err)
	}
	s.mu.Lock()
	s.watcher = w
	s.mu.Unlock()
	return nil
}

// Close stops watching.
func (s *Store) Close() {
	s.mu.Lock()
	w := s.watcher
	s.watcher = nil
	s.mu.Unlock()
	if w != nil {
		w.Stop()
	}
}

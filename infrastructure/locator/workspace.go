// Package locator opens source files and finds the functions they declare.
package locator

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	lru "github.com/hashicorp/golang-lru/v2"
	sitter "github.com/smacker/go-tree-sitter"

	domainservice "github.com/cuboulder-se-research/em-assist/domain/service"
)

// DefaultCacheSize is the number of parsed documents kept in memory.
const DefaultCacheSize = 64

// Workspace resolves files under a project root and parses them with tree-sitter.
type Workspace struct {
	root      string
	languages Languages
	documents *lru.Cache[string, *Document]
	log       *slog.Logger
}

// Option configures a Workspace.
type Option func(*Workspace)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(w *Workspace) {
		if l != nil {
			w.log = l
		}
	}
}

// NewWorkspace creates a Workspace rooted at root. An empty root means no project is open.
func NewWorkspace(root string, cacheSize int, opts ...Option) (*Workspace, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	documents, err := lru.New[string, *Document](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create document cache: %w", err)
	}

	if root != "" {
		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, fmt.Errorf("resolve workspace root: %w", err)
		}
		root = abs
	}

	w := &Workspace{
		root:      root,
		languages: NewLanguages(),
		documents: documents,
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Root returns the absolute project root.
func (w *Workspace) Root() string { return w.root }

// Active reports whether the project root exists.
func (w *Workspace) Active() bool {
	if w.root == "" {
		return false
	}
	info, err := os.Stat(w.root)
	return err == nil && info.IsDir()
}

// Resolve turns a request path into an absolute, cleaned path. Relative
// paths are taken from the project root.
func (w *Workspace) Resolve(path string) string {
	if !filepath.IsAbs(path) {
		path = filepath.Join(w.root, path)
	}
	return filepath.Clean(path)
}

// Open returns the parsed document for path, reusing the cached parse while
// the file is unchanged on disk.
func (w *Workspace) Open(ctx context.Context, path string) (domainservice.Document, error) {
	if !w.Active() {
		return nil, domainservice.ErrNoActiveContext
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	abs := w.Resolve(path)
	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", abs, domainservice.ErrFileNotFound)
		}
		return nil, fmt.Errorf("stat %s: %w: %w", abs, domainservice.ErrUnreadableFile, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory: %w", abs, domainservice.ErrUnreadableFile)
	}

	if doc, ok := w.documents.Get(abs); ok && doc.fresh(info.ModTime(), info.Size()) {
		return doc, nil
	}

	lang, ok := w.languages.ForPath(abs)
	if !ok {
		return nil, fmt.Errorf("%s: unsupported language: %w", abs, domainservice.ErrUnreadableFile)
	}

	source, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w: %w", abs, domainservice.ErrUnreadableFile, err)
	}

	doc, err := w.parse(ctx, abs, lang, source, info)
	if err != nil {
		return nil, err
	}
	w.documents.Add(abs, doc)
	w.log.Debug("parsed document",
		slog.String("path", abs),
		slog.String("language", lang.Name()),
		slog.Int("functions", len(doc.functions)),
	)
	return doc, nil
}

func (w *Workspace) parse(ctx context.Context, path string, lang Language, source []byte, info fs.FileInfo) (*Document, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(lang.SitterLanguage())

	tree, err := parser.ParseCtx(ctx, nil, source)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("parse %s: %w: %w", path, domainservice.ErrUnreadableFile, err)
	}
	defer tree.Close()

	fns := walker{lang: lang, source: source}.collect(tree.RootNode())
	return newDocument(path, lang.Name(), string(source), fns, info.ModTime(), info.Size()), nil
}

// Forget drops the cached parse of path.
func (w *Workspace) Forget(path string) {
	w.documents.Remove(w.Resolve(path))
}

// Cached returns the number of parsed documents held in memory.
func (w *Workspace) Cached() int { return w.documents.Len() }

var _ domainservice.Workspace = (*Workspace)(nil)

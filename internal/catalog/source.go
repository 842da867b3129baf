package catalog

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/atinyakov/SymbolBoard/internal/labels"
	"github.com/atinyakov/SymbolBoard/internal/models"
)

// CardSource enumerates a hierarchical asset tree. List returns the names
// directly under p; "" denotes the root. Sub-groups carry a trailing "/",
// everything else is a leaf.
type CardSource interface {
	List(ctx context.Context, p string) ([]string, error)
}

// Locator is implemented by sources that can turn a listed path into a
// resource locator for the image. Sources without it get "<name>:<path>".
type Locator interface {
	Locate(p string) string
}

// Source is a named CardSource. Leaves at the root of the tree are put in
// Folder, or in the lowercased Name when Folder is empty.
type Source struct {
	Name   string
	Folder string
	Lister CardSource
}

func (s Source) rootFolder() string {
	if s.Folder != "" {
		return strings.ToLower(s.Folder)
	}
	return strings.ToLower(s.Name)
}

func (s Source) locate(p string) string {
	if l, ok := s.Lister.(Locator); ok {
		return l.Locate(p)
	}
	return s.Name + ":" + p
}

// FSSource lists an fs.FS, typically os.DirFS over a bundled asset directory.
type FSSource struct {
	fsys fs.FS
	base string
}

// NewFSSource creates a source over fsys. base is prepended to locators.
func NewFSSource(fsys fs.FS, base string) *FSSource {
	return &FSSource{fsys: fsys, base: base}
}

// NewDirSource creates a source over a directory on disk.
func NewDirSource(dir string) *FSSource {
	return NewFSSource(os.DirFS(dir), dir)
}

// List returns the entry names under p, sorted, with directories marked.
func (s *FSSource) List(ctx context.Context, p string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p == "" {
		p = "."
	}
	entries, err := fs.ReadDir(s.fsys, p)
	if err != nil {
		return nil, fmt.Errorf("list %q: %w", p, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if e.IsDir() {
			names = append(names, e.Name()+"/")
			continue
		}
		names = append(names, e.Name())
	}
	return names, nil
}

// Locate joins p onto the source's base directory.
func (s *FSSource) Locate(p string) string {
	if s.base == "" {
		return p
	}
	return filepath.Join(s.base, filepath.FromSlash(p))
}

// CustomWordSource exposes user-created words as a two-level tree:
// category → word image.
type CustomWordSource struct {
	categories []string
	words      map[string][]string
	locators   map[string]string
}

// NewCustomWordSource builds a source from custom words. Words without a
// category go into "custom".
func NewCustomWordSource(words []models.CustomWord) *CustomWordSource {
	s := &CustomWordSource{
		words:    make(map[string][]string),
		locators: make(map[string]string),
	}
	for _, w := range words {
		label := strings.TrimSpace(w.Label)
		if label == "" {
			continue
		}
		cat := strings.ToLower(strings.TrimSpace(w.Category))
		if cat == "" {
			cat = "custom"
		}
		ext := labels.Extension(w.Image)
		if ext == "" {
			ext = "png"
		}
		name := strings.Join(strings.Fields(label), "_") + "." + ext
		if _, ok := s.words[cat]; !ok {
			s.categories = append(s.categories, cat)
		}
		s.words[cat] = append(s.words[cat], name)
		s.locators[path.Join(cat, name)] = w.Image
	}
	return s
}

// List implements CardSource.
func (s *CustomWordSource) List(ctx context.Context, p string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p == "" {
		out := make([]string, len(s.categories))
		for i, c := range s.categories {
			out[i] = c + "/"
		}
		sort.Strings(out)
		return out, nil
	}
	return append([]string(nil), s.words[p]...), nil
}

// Locate returns the stored image locator of a word.
func (s *CustomWordSource) Locate(p string) string {
	return s.locators[p]
}

package catalog

import (
	"context"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Source is the read-only port the engine loads its catalog from.
type Source interface {
	GetCatalog(ctx context.Context) (*Catalog, error)
}

// SourceFunc adapts a plain function to a Source.
type SourceFunc func(ctx context.Context) (*Catalog, error)

// GetCatalog implements Source.
func (f SourceFunc) GetCatalog(ctx context.Context) (*Catalog, error) { return f(ctx) }

// Static serves a catalog built in memory.
type Static struct {
	catalog *Catalog
}

// NewStatic wraps an already-built catalog.
func NewStatic(c *Catalog) *Static { return &Static{catalog: c} }

// GetCatalog implements Source.
func (s *Static) GetCatalog(_ context.Context) (*Catalog, error) {
	if s.catalog == nil {
		return nil, fmt.Errorf("%w: static source is empty", ErrInvalidCatalog)
	}
	return s.catalog, nil
}

// File reads a YAML catalog document from disk on every call.
type File struct {
	Path string
}

// GetCatalog implements Source.
func (f File) GetCatalog(_ context.Context) (*Catalog, error) {
	fh, err := os.Open(f.Path)
	if err != nil {
		return nil, fmt.Errorf("catalog: open %s: %w", f.Path, err)
	}
	defer fh.Close()

	return Decode(fh)
}

// Document is the YAML layout of a catalog file:
//
//	packs:
//	  - id: p-sci
//	    courses: [c-a, c-b]
//	courses:
//	  - id: c-a
//	    lessons:
//	      - id: a1
//	      - id: a2
type Document struct {
	Packs   []PackDoc   `yaml:"packs"`
	Courses []CourseDoc `yaml:"courses"`
}

// PackDoc describes a pack and the courses it bundles.
type PackDoc struct {
	ID      string   `yaml:"id"`
	Title   string   `yaml:"title,omitempty"`
	Courses []string `yaml:"courses"`
}

// CourseDoc describes a course and its lessons.
type CourseDoc struct {
	ID      string      `yaml:"id"`
	Title   string      `yaml:"title,omitempty"`
	Pack    string      `yaml:"pack,omitempty"`
	Lessons []LessonDoc `yaml:"lessons"`
}

// LessonDoc describes a lesson.
type LessonDoc struct {
	ID    string `yaml:"id"`
	Title string `yaml:"title,omitempty"`
}

// Items flattens the document into catalog items.
func (d Document) Items() []Item {
	var items []Item
	for _, p := range d.Packs {
		items = append(items, Item{ID: p.ID, Kind: KindPack, Title: p.Title, MemberIDs: p.Courses})
	}
	for _, c := range d.Courses {
		items = append(items, Item{ID: c.ID, Kind: KindCourse, Title: c.Title, ParentID: c.Pack})
		for _, l := range c.Lessons {
			items = append(items, Item{ID: l.ID, Kind: KindLesson, Title: l.Title, ParentID: c.ID})
		}
	}
	return items
}

// Decode parses a YAML catalog document and builds a Catalog.
func Decode(r io.Reader) (*Catalog, error) {
	var doc Document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("catalog: decode yaml: %w", err)
	}
	return New(doc.Items())
}

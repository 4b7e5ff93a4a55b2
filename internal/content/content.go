// Package content provides the bodies served by the hello web server.
package content

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
)

const (
	HelloPage    = "hello.html"
	NotFoundPage = "404.html"
)

//go:embed assets/*.html
var assets embed.FS

// Source returns the body of a named page.
type Source interface {
	Body(name string) (string, error)
}

type FSSource struct {
	fsys fs.FS
}

func NewFSSource(fsys fs.FS) *FSSource {
	return &FSSource{fsys: fsys}
}

// NewDirSource serves pages from folder.
func NewDirSource(folder string) (*FSSource, error) {
	info, err := os.Stat(folder)
	if err != nil {
		return nil, fmt.Errorf("failed to open assets folder: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("assets folder %q is not a directory", folder)
	}
	return NewFSSource(os.DirFS(folder)), nil
}

// Default serves the embedded pages.
func Default() *FSSource {
	sub, err := fs.Sub(assets, "assets")
	if err != nil {
		panic(err)
	}
	return NewFSSource(sub)
}

func (s *FSSource) Body(name string) (string, error) {
	b, err := fs.ReadFile(s.fsys, name)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", name, err)
	}
	return string(b), nil
}

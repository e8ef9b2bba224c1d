package fs

import (
	"errors"
	iofs "io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/bmatcuk/doublestar/v4"
	"go.trai.ch/press/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.InputResolver = (*Resolver)(nil)

// errSkipFile is a WalkDir sentinel meaning "skip this file, keep walking".
var errSkipFile = errors.New("skip file")

// Resolver implements the InputResolver interface using doublestar globs.
type Resolver struct{}

// NewResolver creates a new Resolver.
func NewResolver() *Resolver {
	return &Resolver{}
}

// ResolveInputs resolves root-relative patterns to absolute file paths.
// A pattern below a missing directory resolves to nothing.
func (r *Resolver) ResolveInputs(root string, patterns []string) ([]string, error) {
	fsys := os.DirFS(root)
	unique := make(map[string]struct{})

	for _, pattern := range patterns {
		if !doublestar.ValidatePattern(pattern) {
			return nil, zerr.With(zerr.New("invalid glob pattern"), "pattern", pattern)
		}

		matches, err := doublestar.Glob(fsys, pattern)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, "failed to glob path"), "pattern", pattern)
		}

		for _, match := range matches {
			info, err := iofs.Stat(fsys, match)
			if err != nil || !info.Mode().IsRegular() {
				continue
			}
			unique[filepath.Join(root, filepath.FromSlash(match))] = struct{}{}
		}
	}

	result := make([]string, 0, len(unique))
	for path := range unique {
		result = append(result, path)
	}
	slices.Sort(result)

	return result, nil
}

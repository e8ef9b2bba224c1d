package domain

import (
	"path"
	"path/filepath"
	"strings"

	"go.trai.ch/zerr"
)

// Category is a logical asset category of the path map.
type Category string

const (
	// CategoryStylesheets covers compiled stylesheets.
	CategoryStylesheets Category = "stylesheets"
	// CategorySass covers stylesheet partials; they are watched but never transformed directly.
	CategorySass Category = "sass"
	// CategoryScripts covers the application scripts.
	CategoryScripts Category = "scripts"
	// CategoryVendor covers third-party scripts.
	CategoryVendor Category = "vendor"
	// CategoryImages covers images.
	CategoryImages Category = "images"
	// CategoryFonts covers web fonts.
	CategoryFonts Category = "fonts"
	// CategoryContent covers markup, posts and site data rendered by the site generator.
	CategoryContent Category = "content"
)

// DirPair holds the source and destination directory of a category.
type DirPair struct {
	Src  string
	Dest string
}

// PathMap maps asset categories to directories.
// Every path is relative to Root and ends with a slash.
type PathMap struct {
	Root  string
	Src   string
	Build string
	Tasks string

	Stylesheets DirPair
	Sass        DirPair
	Scripts     DirPair
	Vendor      DirPair
	Images      DirPair
	Fonts       DirPair
}

// Pair returns the directory pair of a category.
func (p *PathMap) Pair(c Category) (DirPair, bool) {
	switch c {
	case CategoryStylesheets:
		return p.Stylesheets, true
	case CategorySass:
		return p.Sass, true
	case CategoryScripts:
		return p.Scripts, true
	case CategoryVendor:
		return p.Vendor, true
	case CategoryImages:
		return p.Images, true
	case CategoryFonts:
		return p.Fonts, true
	case CategoryContent:
		return DirPair{Src: p.Src, Dest: p.Build}, true
	default:
		return DirPair{}, false
	}
}

// Abs resolves a root-relative path to a filesystem path.
func (p *PathMap) Abs(rel string) string {
	return filepath.Join(p.Root, filepath.FromSlash(rel))
}

// Rel converts a filesystem path into a slash-separated path relative to Root.
// ok is false when the path lies outside of Root.
func (p *PathMap) Rel(abs string) (string, bool) {
	root, err := filepath.Abs(p.Root)
	if err != nil {
		return "", false
	}
	target, err := filepath.Abs(abs)
	if err != nil {
		return "", false
	}
	rel, err := filepath.Rel(root, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// InBuild reports whether a root-relative path lies inside the build output directory.
func (p *PathMap) InBuild(rel string) bool {
	build := strings.TrimSuffix(p.Build, "/")
	if build == "" || build == "." {
		return false
	}
	return rel == build || strings.HasPrefix(rel, build+"/")
}

// NormalizeDir validates a configured directory and returns it in canonical form:
// slash-separated, cleaned and ending with a slash. The project root itself is "./".
func NormalizeDir(dir string) (string, error) {
	if dir == "" {
		return "", zerr.With(ErrInvalidPath, "path", dir)
	}
	slashed := filepath.ToSlash(dir)
	if path.IsAbs(slashed) || filepath.IsAbs(dir) {
		return "", zerr.With(zerr.With(ErrInvalidPath, "reason", "path must be relative to the project root"), "path", dir)
	}
	cleaned := path.Clean(slashed)
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", zerr.With(zerr.With(ErrInvalidPath, "reason", "path escapes the project root"), "path", dir)
	}
	if cleaned == "." {
		return "./", nil
	}
	return cleaned + "/", nil
}

// JoinDir joins a normalised directory and a relative pattern or file name.
// The project root directory "./" contributes no prefix.
func JoinDir(dir, name string) string {
	if dir == "./" {
		return name
	}
	return dir + name
}

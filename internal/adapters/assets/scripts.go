package assets

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/tdewolff/minify/v2"
	"go.trai.ch/press/internal/core/domain"
	"go.trai.ch/press/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

var _ ports.Executor = (*Scripts)(nil)

// Scripts builds the vendor and application bundles.
type Scripts struct {
	paths        *domain.PathMap
	vendorBundle string
	appBundle    string
	linter       *Linter
	resolver     ports.InputResolver
	logger       ports.Logger
	minifier     *minify.M
}

// NewScripts creates the script transform for a project.
func NewScripts(project *domain.Project, resolver ports.InputResolver, logger ports.Logger) (*Scripts, error) {
	linter, err := NewLinter(project.Scripts.LintRules)
	if err != nil {
		return nil, err
	}
	return &Scripts{
		paths:        &project.Paths,
		vendorBundle: project.Scripts.VendorBundle,
		appBundle:    project.Scripts.AppBundle,
		linter:       linter,
		resolver:     resolver,
		logger:       logger,
		minifier:     newMinifier(),
	}, nil
}

// Execute implements ports.Executor.
func (s *Scripts) Execute(ctx context.Context, _ *domain.Task) error {
	_, err := s.Run(ctx)
	return err
}

// Run builds both bundles concurrently. It fails if either bundle fails.
func (s *Scripts) Run(ctx context.Context) ([]domain.Artifact, error) {
	vendorFiles, err := s.resolver.ResolveInputs(s.paths.Root, []string{domain.JoinDir(s.paths.Vendor.Src, "*.js")})
	if err != nil {
		return nil, err
	}
	appFiles, err := s.resolver.ResolveInputs(s.paths.Root, []string{domain.JoinDir(s.paths.Scripts.Src, "*.js")})
	if err != nil {
		return nil, err
	}
	appFiles = slices.DeleteFunc(appFiles, func(f string) bool {
		return slices.Contains(vendorFiles, f)
	})

	var (
		mu        sync.Mutex
		artifacts []domain.Artifact
	)
	collect := func(a *domain.Artifact) {
		if a == nil {
			return
		}
		mu.Lock()
		artifacts = append(artifacts, *a)
		mu.Unlock()
	}

	var g errgroup.Group
	g.Go(func() error {
		a, err := s.buildVendor(ctx, vendorFiles)
		collect(a)
		return err
	})
	g.Go(func() error {
		a, err := s.buildApp(ctx, appFiles)
		collect(a)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	slices.SortFunc(artifacts, func(a, b domain.Artifact) int {
		return strings.Compare(a.Path, b.Path)
	})
	return artifacts, nil
}

func (s *Scripts) buildVendor(ctx context.Context, files []string) (*domain.Artifact, error) {
	if len(files) == 0 {
		s.logger.Warn("no vendor scripts found in " + s.paths.Vendor.Src)
		return nil, nil
	}

	bundle, err := concatFiles(files)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return s.emit(bundle.data, domain.JoinDir(s.paths.Vendor.Dest, s.vendorBundle), domain.CategoryVendor)
}

func (s *Scripts) buildApp(ctx context.Context, files []string) (*domain.Artifact, error) {
	if len(files) == 0 {
		s.logger.Warn("no application scripts found in " + s.paths.Scripts.Src)
		return nil, nil
	}

	bundle, err := concatFiles(files)
	if err != nil {
		return nil, err
	}

	if findings := bundle.attribute(s.linter.Lint(s.appBundle, bundle.data)); len(findings) > 0 {
		lines := make([]string, len(findings))
		for i, f := range findings {
			lines[i] = f.String()
			s.logger.Warn(lines[i])
		}
		return nil, zerr.With(domain.ErrLintFailed, "findings", strings.Join(lines, "; "))
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return s.emit(bundle.data, domain.JoinDir(s.paths.Scripts.Dest, s.appBundle), domain.CategoryScripts)
}

func (s *Scripts) emit(bundle []byte, destRel string, category domain.Category) (*domain.Artifact, error) {
	minified, err := s.minifier.Bytes(mediaJS, bundle)
	if err != nil {
		return nil, zerr.With(zerr.With(domain.ErrScriptSyntax, "reason", err.Error()), "bundle", destRel)
	}

	artifact, err := writeArtifact(s.paths, destRel, minified, category, int64(len(bundle)))
	if err != nil {
		return nil, err
	}
	reportSize(s.logger, artifact, minified)
	return &artifact, nil
}

// scriptBundle is a concatenation of script files.
type scriptBundle struct {
	data []byte
	// parts[i] is the first bundle line of the i-th file.
	parts []bundlePart
}

type bundlePart struct {
	file      string
	firstLine int
}

// concatFiles joins files in order, separated by newlines.
func concatFiles(files []string) (scriptBundle, error) {
	var (
		buf   bytes.Buffer
		parts = make([]bundlePart, 0, len(files))
		line  = 1
	)
	for i, file := range files {
		src, err := os.ReadFile(file) //nolint:gosec // resolved from project configuration
		if err != nil {
			return scriptBundle{}, readError(err, file)
		}
		if i > 0 {
			buf.WriteByte('\n')
			line++
		}
		parts = append(parts, bundlePart{file: filepath.Base(file), firstLine: line})
		buf.Write(src)
		line += bytes.Count(src, []byte{'\n'})
	}
	return scriptBundle{data: buf.Bytes(), parts: parts}, nil
}

// attribute maps findings on bundle lines back to the file and line they came from.
func (b scriptBundle) attribute(findings []Finding) []Finding {
	for i, f := range findings {
		if f.Line == 0 {
			continue
		}
		for j := len(b.parts) - 1; j >= 0; j-- {
			if f.Line >= b.parts[j].firstLine {
				findings[i].File = b.parts[j].file
				findings[i].Line = f.Line - b.parts[j].firstLine + 1
				break
			}
		}
	}
	return findings
}

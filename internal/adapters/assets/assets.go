// Package assets implements the stylesheet, script and image transforms.
package assets

import (
	"bytes"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/klauspost/compress/gzip"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/js"
	"github.com/tdewolff/minify/v2/svg"
	"go.trai.ch/press/internal/adapters/fs"
	"go.trai.ch/press/internal/core/domain"
	"go.trai.ch/press/internal/core/ports"
	"go.trai.ch/zerr"
)

const (
	mediaCSS = "text/css"
	mediaJS  = "application/javascript"
	mediaSVG = "image/svg+xml"
)

func newMinifier() *minify.M {
	m := minify.New()
	m.AddFunc(mediaCSS, css.Minify)
	m.AddFunc(mediaJS, js.Minify)
	m.AddFunc(mediaSVG, svg.Minify)
	return m
}

// writeArtifact writes data to the root-relative destination path and reports its size.
func writeArtifact(paths *domain.PathMap, rel string, data []byte, category domain.Category, sourceSize int64) (domain.Artifact, error) {
	if err := fs.WriteFileAtomic(paths.Abs(rel), data); err != nil {
		return domain.Artifact{}, err
	}
	return domain.Artifact{
		Path:       rel,
		Category:   category,
		SourceSize: sourceSize,
		Size:       int64(len(data)),
	}, nil
}

// reportSize logs the original, minified and gzipped size of a bundle.
func reportSize(logger ports.Logger, artifact domain.Artifact, data []byte) {
	logger.Info(fmt.Sprintf("%s %s → %s (gzip %s)",
		artifact.Path,
		humanize.Bytes(uint64(artifact.SourceSize)), //nolint:gosec // sizes are never negative
		humanize.Bytes(uint64(artifact.Size)),       //nolint:gosec // sizes are never negative
		humanize.Bytes(gzipSize(data)),
	))
}

func gzipSize(data []byte) uint64 {
	var buf bytes.Buffer
	zw, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	if err != nil {
		return 0
	}
	if _, err := zw.Write(data); err != nil {
		return 0
	}
	if err := zw.Close(); err != nil {
		return 0
	}
	return uint64(buf.Len())
}

func readError(err error, path string) error {
	return zerr.With(zerr.Wrap(err, "failed to read source"), "path", path)
}

package assets

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/dustin/go-humanize"
	"github.com/ericpauley/go-quantize/quantize"
	"github.com/tdewolff/minify/v2"
	"go.trai.ch/press/internal/core/domain"
	"go.trai.ch/press/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

var _ ports.Executor = (*Images)(nil)

const (
	minPaletteSize = 2
	maxPaletteSize = 256
)

// Images mirrors the image source tree into the destination, compressing what it can.
type Images struct {
	paths    *domain.PathMap
	quality  domain.QualityRange
	resolver ports.InputResolver
	logger   ports.Logger
	minifier *minify.M
}

// NewImages creates the image transform for a project.
func NewImages(project *domain.Project, resolver ports.InputResolver, logger ports.Logger) *Images {
	return &Images{
		paths:    &project.Paths,
		quality:  project.Images.Quality,
		resolver: resolver,
		logger:   logger,
		minifier: newMinifier(),
	}
}

// Execute implements ports.Executor.
func (i *Images) Execute(ctx context.Context, _ *domain.Task) error {
	_, err := i.Run(ctx)
	return err
}

// Run processes every file below the image source directory concurrently.
func (i *Images) Run(ctx context.Context) ([]domain.Artifact, error) {
	files, err := i.resolver.ResolveInputs(i.paths.Root, []string{domain.JoinDir(i.paths.Images.Src, "**/*")})
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		i.logger.Warn("no images found in " + i.paths.Images.Src)
		return nil, nil
	}

	srcRoot := i.paths.Abs(i.paths.Images.Src)

	var (
		mu        sync.Mutex
		artifacts []domain.Artifact
		saved     int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	for _, file := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			rel, err := filepath.Rel(srcRoot, file)
			if err != nil {
				return zerr.With(zerr.Wrap(err, "failed to relativize image"), "path", file)
			}

			artifact, err := i.process(file, domain.JoinDir(i.paths.Images.Dest, filepath.ToSlash(rel)))
			if err != nil {
				return err
			}

			mu.Lock()
			artifacts = append(artifacts, artifact)
			saved += artifact.SourceSize - artifact.Size
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	slices.SortFunc(artifacts, func(a, b domain.Artifact) int {
		return strings.Compare(a.Path, b.Path)
	})
	i.logger.Info(imagesSummary(len(artifacts), saved))

	return artifacts, nil
}

func (i *Images) process(file, destRel string) (domain.Artifact, error) {
	src, err := os.ReadFile(file) //nolint:gosec // resolved from project configuration
	if err != nil {
		return domain.Artifact{}, readError(err, file)
	}

	out, err := i.compress(strings.ToLower(filepath.Ext(file)), src)
	if err != nil {
		return domain.Artifact{}, zerr.With(zerr.Wrap(err, "failed to optimize image"), "path", file)
	}
	if len(out) >= len(src) {
		out = src
	}

	artifact, err := writeArtifact(i.paths, destRel, out, domain.CategoryImages, int64(len(src)))
	if err != nil {
		return domain.Artifact{}, err
	}
	i.logger.Debug("optimized " + destRel)
	return artifact, nil
}

func (i *Images) compress(ext string, src []byte) ([]byte, error) {
	switch ext {
	case ".jpg", ".jpeg":
		return i.compressJPEG(src)
	case ".png":
		return i.compressPNG(src)
	case ".svg":
		return i.minifier.Bytes(mediaSVG, src)
	default:
		return src, nil
	}
}

func (i *Images) compressJPEG(src []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(src), imaging.AutoOrientation(true))
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(i.quality.Max)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// compressPNG quantises to a palette sized by the quality maximum. When the
// result scores below the quality minimum it re-encodes losslessly instead.
func (i *Images) compressPNG(src []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, err
	}

	paletted := quantizeImage(img, PaletteSize(i.quality.Max))
	if QualityScore(img, paletted) >= float64(i.quality.Min) {
		img = paletted
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG, imaging.PNGCompressionLevel(png.BestCompression)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// PaletteSize maps a quality percentage to a palette colour count.
func PaletteSize(quality int) int {
	return max(minPaletteSize, min(maxPaletteSize, maxPaletteSize*quality/100))
}

func quantizeImage(img image.Image, colors int) *image.Paletted {
	q := quantize.MedianCutQuantizer{}
	palette := q.Quantize(make(color.Palette, 0, colors), img)

	bounds := img.Bounds()
	dst := image.NewPaletted(bounds, palette)
	draw.FloydSteinberg.Draw(dst, bounds, img, bounds.Min)
	return dst
}

// QualityScore rates how closely b reproduces a, from 0 (unrelated) to 100 (identical).
func QualityScore(a, b image.Image) float64 {
	bounds := a.Bounds()
	pixels := bounds.Dx() * bounds.Dy()
	if pixels == 0 {
		return 100
	}

	var sum float64
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r1, g1, b1, a1 := a.At(x, y).RGBA()
			r2, g2, b2, a2 := b.At(x, y).RGBA()
			sum += channelDiff(r1, r2) + channelDiff(g1, g2) + channelDiff(b1, b2) + channelDiff(a1, a2)
		}
	}

	rmse := math.Sqrt(sum / float64(pixels*4))
	return 100 - rmse/math.MaxUint16*100
}

func channelDiff(a, b uint32) float64 {
	d := float64(a) - float64(b)
	return d * d
}

func imagesSummary(count int, saved int64) string {
	noun := "images"
	if count == 1 {
		noun = "image"
	}
	return fmt.Sprintf("optimized %d %s, saved %s", count, noun, humanize.Bytes(uint64(max(saved, 0)))) //nolint:gosec // clamped above zero
}

package assets_test

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/press/internal/adapters/assets"
	"go.trai.ch/press/internal/core/domain"
	"go.trai.ch/press/internal/core/ports/mocks"
	"go.trai.ch/zerr"
	"go.uber.org/mock/gomock"
)

const mainCSS = `@import "base.css";

.nav {
  position: sticky;
  user-select: none;
}

@media screen and (max-width: 600px) {
  .nav, .footer { display: none; }
}
`

func TestStylesheet_Deterministic(t *testing.T) {
	p := newProject(t)
	writeSource(t, p, "css/main.css", mainCSS)
	writeSource(t, p, "css/base.css", "h1 { margin: 0 }\n")

	sheet := assets.NewStylesheet(p, quietLogger(t))

	first, err := sheet.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, first, 1)
	out1 := readOutput(t, p, "_site/css/main.min.css")

	second, err := sheet.Run(context.Background())
	require.NoError(t, err)
	out2 := readOutput(t, p, "_site/css/main.min.css")

	assert.Equal(t, out1, out2)
	assert.Equal(t, first, second)
	assert.Equal(t, domain.Artifact{
		Path:       "_site/css/main.min.css",
		Category:   domain.CategoryStylesheets,
		SourceSize: first[0].SourceSize,
		Size:       int64(len(out1)),
	}, first[0])
}

func TestStylesheet_Compacts(t *testing.T) {
	p := newProject(t)
	writeSource(t, p, "css/main.css", "/* layout */\nbody {\n  margin: 0px;\n  color: #ffffff;\n}\n\n.card {\n  padding: 0px 0px;\n}\n")

	artifacts, err := assets.NewStylesheet(p, quietLogger(t)).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, artifacts, 1)

	assert.Less(t, artifacts[0].Size, artifacts[0].SourceSize)
	assert.NotContains(t, readOutput(t, p, "_site/css/main.min.css"), "layout")
}

func TestStylesheet_FallsBackToGeneratorOutput(t *testing.T) {
	p := newProject(t)
	writeSource(t, p, "css/main.scss", "$accent: red;\nbody { color: $accent; }\n")
	writeSource(t, p, "_site/css/main.css", "@import \"syntax.css\";\nbody { color: red; user-select: none; }\n")
	writeSource(t, p, "_site/css/syntax.css", ".highlight { background: #eee; }\n")

	artifacts, err := assets.NewStylesheet(p, quietLogger(t)).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, artifacts, 1)
	assert.Equal(t, "_site/css/main.min.css", artifacts[0].Path)

	out := readOutput(t, p, "_site/css/main.min.css")
	assert.Contains(t, out, ".highlight")
	assert.Contains(t, out, "-webkit-user-select:none")
	assert.NotContains(t, out, "$accent")
}

func TestStylesheet_RejectsImportsOutsideSourceDir(t *testing.T) {
	p := newProject(t)
	writeSource(t, p, "shared.css", "body { margin: 0 }\n")
	writeSource(t, p, "css/main.css", "@import \"../shared.css\";\n")

	_, err := assets.NewStylesheet(p, quietLogger(t)).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid project path")

	var zErr *zerr.Error
	require.ErrorAs(t, err, &zErr)
	assert.Equal(t, "../shared.css", zErr.Metadata()["import"])

	_, statErr := os.Stat(p.Paths.Abs("_site/css/main.min.css"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestStylesheet_PrefixesImportantValues(t *testing.T) {
	p := newProject(t)
	writeSource(t, p, "css/main.css", ".nav { position: sticky !important; }\n")

	_, err := assets.NewStylesheet(p, quietLogger(t)).Run(context.Background())
	require.NoError(t, err)

	out := readOutput(t, p, "_site/css/main.min.css")
	assert.Contains(t, out, "position:-webkit-sticky!important")
	assert.Contains(t, out, "position:sticky")
}

func TestStylesheet_InlinesAndPrefixes(t *testing.T) {
	p := newProject(t)
	writeSource(t, p, "css/main.css", mainCSS)
	writeSource(t, p, "css/base.css", "@import url(partials/type.css);\nh1 { margin: 0 }\n")
	writeSource(t, p, "css/partials/type.css", "p { line-height: 1.5 }\n")

	_, err := assets.NewStylesheet(p, quietLogger(t)).Run(context.Background())
	require.NoError(t, err)

	out := readOutput(t, p, "_site/css/main.min.css")
	assert.NotContains(t, out, "@import")
	assert.Contains(t, out, "line-height:1.5")
	assert.Contains(t, out, "h1{margin:0}")
	assert.Contains(t, out, "-webkit-user-select:none")
	assert.Contains(t, out, "-ms-user-select:none")
	assert.Contains(t, out, "position:-webkit-sticky")
	assert.Contains(t, out, "@media")
}

func TestStylesheet_KeepsRemoteImports(t *testing.T) {
	p := newProject(t)
	writeSource(t, p, "css/main.css", "@import url(\"https://fonts.example.com/css?family=Lato\");\nbody { color: red }\n")

	_, err := assets.NewStylesheet(p, quietLogger(t)).Run(context.Background())
	require.NoError(t, err)

	out := readOutput(t, p, "_site/css/main.min.css")
	assert.Contains(t, out, "@import")
	assert.Contains(t, out, "fonts.example.com")
}

func TestStylesheet_SyntaxErrorKeepsPreviousOutput(t *testing.T) {
	p := newProject(t)
	writeSource(t, p, "_site/css/main.min.css", "previous")
	writeSource(t, p, "css/main.css", "body {\n  color: red;\n\n.nav { margin: 0 }\n")

	artifacts, err := assets.NewStylesheet(p, quietLogger(t)).Run(context.Background())
	require.Error(t, err)
	assert.Nil(t, artifacts)
	assert.Contains(t, err.Error(), "stylesheet syntax error")

	var zErr *zerr.Error
	require.ErrorAs(t, err, &zErr)
	assert.Equal(t, "css/main.css", zErr.Metadata()["file"])

	assert.Equal(t, "previous", readOutput(t, p, "_site/css/main.min.css"))
}

func TestStylesheet_UnexpectedClosingBrace(t *testing.T) {
	p := newProject(t)
	writeSource(t, p, "css/main.css", "body { color: red } }\n")

	_, err := assets.NewStylesheet(p, quietLogger(t)).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stylesheet syntax error")

	_, statErr := os.Stat(p.Paths.Abs("_site/css/main.min.css"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestStylesheet_ImportCycle(t *testing.T) {
	p := newProject(t)
	writeSource(t, p, "css/main.css", "@import \"a.css\";\n")
	writeSource(t, p, "css/a.css", "@import \"b.css\";\n")
	writeSource(t, p, "css/b.css", "@import \"a.css\";\n")

	_, err := assets.NewStylesheet(p, quietLogger(t)).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stylesheet import cycle")

	var zErr *zerr.Error
	require.ErrorAs(t, err, &zErr)
	assert.Equal(t, "main.css -> a.css -> b.css -> a.css", zErr.Metadata()["cycle"])
}

func TestStylesheet_MissingEntry(t *testing.T) {
	p := newProject(t)
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Warn("no stylesheet entry at css/main.css or _site/css/main.css")

	artifacts, err := assets.NewStylesheet(p, log).Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, artifacts)
}

package app_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	iofs "io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vito/progrock"
	"go.trai.ch/press/internal/adapters/config"
	"go.trai.ch/press/internal/adapters/fs"
	"go.trai.ch/press/internal/adapters/metrics"
	"go.trai.ch/press/internal/adapters/shell"
	pressprogrock "go.trai.ch/press/internal/adapters/telemetry/progrock"
	"go.trai.ch/press/internal/app"
	"go.trai.ch/press/internal/core/domain"
	"go.trai.ch/press/internal/core/ports/mocks"
	"go.trai.ch/press/internal/engine/scheduler"
	"go.uber.org/mock/gomock"
)

func quietLogger(t *testing.T) *mocks.MockLogger {
	t.Helper()
	log := mocks.NewMockLogger(gomock.NewController(t))
	log.EXPECT().Debug(gomock.Any()).AnyTimes()
	log.EXPECT().Info(gomock.Any()).AnyTimes()
	log.EXPECT().Warn(gomock.Any()).AnyTimes()
	log.EXPECT().Error(gomock.Any()).AnyTimes()
	return log
}

func newApp(t *testing.T, root string) *app.App {
	t.Helper()
	log := quietLogger(t)
	telemetry := pressprogrock.NewRecorder(progrock.NewTape())
	recorder := metrics.NewRecorder(nil)

	a := app.New(
		config.NewLoader(log),
		shell.NewExecutor(log),
		fs.NewResolver(),
		fs.NewHasher(fs.NewWalker()),
		scheduler.New(telemetry, recorder, log),
		recorder,
		telemetry,
		nil,
		log,
	)
	a.Configure(app.Settings{ConfigPath: filepath.Join(root, config.DefaultFilename)})
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func write(t *testing.T, root, rel string, data []byte) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
	require.NoError(t, os.WriteFile(p, data, 0o600))
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for x := range 16 {
		for y := range 16 {
			img.Set(x, y, color.RGBA{R: uint8(x * 16), G: uint8(y * 16), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// newSite lays out one source file per asset category.
func newSite(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	write(t, root, config.DefaultFilename, []byte("version: \"1\"\n"))
	write(t, root, "css/main.css", []byte("body {\n  margin: 0;\n  user-select: none;\n}\n"))
	write(t, root, "js/vendor/lib.js", []byte("window.lib = function () { return 1; };\n"))
	write(t, root, "js/app.js", []byte("var answer = 42;\nconsole.log(answer);\n"))
	write(t, root, "img/logo.png", pngBytes(t))
	return root
}

func outputs(t *testing.T, dir string) []string {
	t.Helper()
	var files []string
	err := filepath.WalkDir(dir, func(path string, d iofs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			rel, _ := filepath.Rel(dir, path)
			files = append(files, filepath.ToSlash(rel))
		}
		return nil
	})
	require.NoError(t, err)
	slices.Sort(files)
	return files
}

func TestApp_Run_BuildAssets(t *testing.T) {
	root := newSite(t)
	a := newApp(t, root)

	want := []string{"css/main.min.css", "img/logo.png", "js/main.min.js", "js/vendor.min.js"}

	for range 3 {
		require.NoError(t, a.Run(context.Background(), []string{app.TaskBuildAssets}))
		assert.Equal(t, want, outputs(t, filepath.Join(root, "_site")))
	}
}

func TestApp_Run_UnknownTask(t *testing.T) {
	a := newApp(t, newSite(t))

	err := a.Run(context.Background(), []string{"publish"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBuildExecutionFailed))
	assert.Contains(t, err.Error(), "task not found")
}

func TestApp_Run_NoTargets(t *testing.T) {
	a := newApp(t, newSite(t))
	require.ErrorIs(t, a.Run(context.Background(), nil), domain.ErrNoTargetsSpecified)
}

func TestApp_Run_MissingConfig(t *testing.T) {
	a := newApp(t, t.TempDir())

	err := a.Run(context.Background(), []string{app.TaskBuildCSS})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration file not found")
}

func TestApp_Run_UserTask(t *testing.T) {
	root := newSite(t)
	write(t, root, "tasks/extra.yaml", []byte(`
stamp:
  description: Write a stamp file
  cmd: [sh, -c, "echo $STAMP > stamp.txt"]
  environment:
    STAMP: done
  dependsOn: [build-css]
`))
	a := newApp(t, root)

	require.NoError(t, a.Run(context.Background(), []string{"stamp"}))

	data, err := os.ReadFile(filepath.Join(root, "stamp.txt"))
	require.NoError(t, err)
	assert.Equal(t, "done\n", string(data))
	assert.FileExists(t, filepath.Join(root, "_site", "css", "main.min.css"))
}

func TestApp_Run_FailingTask(t *testing.T) {
	root := newSite(t)
	write(t, root, "css/main.css", []byte("body { margin: 0; }\n}\n"))
	a := newApp(t, root)

	err := a.Run(context.Background(), []string{app.TaskBuildAssets})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBuildExecutionFailed))
	assert.Contains(t, err.Error(), "stylesheet syntax error")
	assert.NoFileExists(t, filepath.Join(root, "_site", "css", "main.min.css"))
}

func TestApp_Tasks(t *testing.T) {
	root := newSite(t)
	write(t, root, "tasks/extra.yaml", []byte("lint:\n  description: Run the linters\n  cmd: [make, lint]\n"))
	a := newApp(t, root)

	var out bytes.Buffer
	require.NoError(t, a.Tasks(&out))

	listing := out.String()
	assert.Contains(t, listing, "TASK")
	assert.Contains(t, listing, "[build-css build-js optimize-img]")
	assert.Contains(t, listing, "[build-prod] → [build-assets]")
	assert.Contains(t, listing, "make lint")
	assert.Contains(t, listing, "Run the linters")

	row := func(name string) int {
		for i, line := range strings.Split(listing, "\n") {
			if strings.HasPrefix(line, name+" ") {
				return i
			}
		}
		return -1
	}
	assert.Positive(t, row("build-css"))
	assert.Less(t, row("build-css"), row("build-assets"), "prerequisites are listed first")
	assert.Less(t, row("build-assets"), row("deploy"))
	assert.Less(t, row("build-prod"), row("deploy"))
}

package assets_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.trai.ch/press/internal/core/domain"
	"go.trai.ch/press/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func newProject(t *testing.T) *domain.Project {
	t.Helper()
	return &domain.Project{
		Paths: domain.PathMap{
			Root:        t.TempDir(),
			Src:         "./",
			Build:       "_site/",
			Stylesheets: domain.DirPair{Src: "css/", Dest: "_site/css/"},
			Scripts:     domain.DirPair{Src: "js/", Dest: "_site/js/"},
			Vendor:      domain.DirPair{Src: "js/vendor/", Dest: "_site/js/"},
			Images:      domain.DirPair{Src: "img/", Dest: "_site/img/"},
		},
		Stylesheets: domain.StylesheetOptions{Entry: "main.css"},
		Scripts:     domain.ScriptOptions{VendorBundle: "vendor.min.js", AppBundle: "main.min.js"},
		Images:      domain.ImageOptions{Quality: domain.QualityRange{Min: 65, Max: 75}},
	}
}

func quietLogger(t *testing.T) *mocks.MockLogger {
	t.Helper()
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Debug(gomock.Any()).AnyTimes()
	log.EXPECT().Info(gomock.Any()).AnyTimes()
	log.EXPECT().Warn(gomock.Any()).AnyTimes()
	return log
}

func writeSource(t *testing.T, p *domain.Project, rel, content string) {
	t.Helper()
	path := p.Paths.Abs(rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func readOutput(t *testing.T, p *domain.Project, rel string) string {
	t.Helper()
	data, err := os.ReadFile(p.Paths.Abs(rel))
	require.NoError(t, err)
	return string(data)
}

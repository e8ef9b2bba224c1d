package domain_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/press/internal/core/domain"
)

func TestNormalizeDir(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "already canonical", in: "css/", want: "css/"},
		{name: "missing separator", in: "_site", want: "_site/"},
		{name: "nested", in: "js/vendor", want: "js/vendor/"},
		{name: "dot prefix", in: "./img/", want: "img/"},
		{name: "project root", in: "./", want: "./"},
		{name: "bare dot", in: ".", want: "./"},
		{name: "empty", in: "", wantErr: true},
		{name: "absolute", in: "/var/www/", wantErr: true},
		{name: "escapes root", in: "../shared/", wantErr: true},
		{name: "escapes root after clean", in: "css/../../x", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := domain.NormalizeDir(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "invalid project path")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestJoinDir(t *testing.T) {
	assert.Equal(t, "**/*.md", domain.JoinDir("./", "**/*.md"))
	assert.Equal(t, "img/**/*", domain.JoinDir("img/", "**/*"))
}

func TestPathMap_RelAndBuild(t *testing.T) {
	root := t.TempDir()
	p := domain.PathMap{Root: root, Build: "_site/", Images: domain.DirPair{Src: "img/", Dest: "_site/img/"}}

	rel, ok := p.Rel(filepath.Join(root, "img", "posts", "a.png"))
	require.True(t, ok)
	assert.Equal(t, "img/posts/a.png", rel)

	_, ok = p.Rel(filepath.Join(filepath.Dir(root), "elsewhere.png"))
	assert.False(t, ok)

	assert.True(t, p.InBuild("_site/index.html"))
	assert.True(t, p.InBuild("_site"))
	assert.False(t, p.InBuild("_sites/index.html"))

	pair, ok := p.Pair(domain.CategoryImages)
	require.True(t, ok)
	assert.Equal(t, "_site/img/", pair.Dest)
	assert.Equal(t, filepath.Join(root, "img", "a.png"), p.Abs("img/a.png"))
}

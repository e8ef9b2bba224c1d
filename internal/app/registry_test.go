package app_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/press/internal/app"
	"go.trai.ch/press/internal/core/domain"
)

func defaultPaths() domain.PathMap {
	return domain.PathMap{
		Root:        "/site",
		Src:         "./",
		Build:       "_site/",
		Tasks:       "tasks/",
		Stylesheets: domain.DirPair{Src: "css/", Dest: "_site/css/"},
		Sass:        domain.DirPair{Src: "_sass/"},
		Scripts:     domain.DirPair{Src: "js/", Dest: "_site/js/"},
		Vendor:      domain.DirPair{Src: "js/vendor/", Dest: "_site/js/"},
		Images:      domain.DirPair{Src: "img/", Dest: "_site/img/"},
		Fonts:       domain.DirPair{Src: "fonts/"},
	}
}

func TestNewRegistry(t *testing.T) {
	g, err := app.NewRegistry(&domain.Project{Paths: defaultPaths()})
	require.NoError(t, err)
	assert.True(t, g.Sealed())

	var order []string
	for task := range g.Walk() {
		order = append(order, task.Name.String())
	}
	assert.Equal(t, []string{
		"build", "build-css", "build-js", "optimize-img", "build-assets", "build-prod", "deploy", "reload",
	}, order)
	assert.Equal(t, 8, g.TaskCount())

	deploy, ok := g.GetTask(domain.NewInternedString(app.TaskDeploy))
	require.True(t, ok)
	assert.Equal(t, [][]domain.InternedString{domain.Stage("build-prod"), domain.Stage("build-assets")}, deploy.Stages)

	prod, _ := g.GetTask(domain.NewInternedString(app.TaskBuildProd))
	assert.Equal(t, domain.Production, prod.Profile)
}

func TestNewRegistry_UserTasks(t *testing.T) {
	project := &domain.Project{
		Paths: defaultPaths(),
		Tasks: []domain.Task{{
			Name:    domain.NewInternedString("publish"),
			Action:  domain.ActionCommand,
			Command: []string{"rsync", "-a", "_site/", "host:/srv"},
			Stages:  [][]domain.InternedString{domain.Stage("deploy")},
		}},
	}

	g, err := app.NewRegistry(project)
	require.NoError(t, err)
	assert.True(t, g.Has("publish"))
}

func TestNewRegistry_UserTaskShadowsBuiltin(t *testing.T) {
	project := &domain.Project{
		Tasks: []domain.Task{{Name: domain.NewInternedString("build"), Action: domain.ActionCommand, Command: []string{"make"}}},
	}

	_, err := app.NewRegistry(project)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "task already exists")
}

func TestNewRegistry_UserTaskMissingDependency(t *testing.T) {
	project := &domain.Project{
		Tasks: []domain.Task{{
			Name:    domain.NewInternedString("publish"),
			Action:  domain.ActionCommand,
			Command: []string{"make"},
			Stages:  [][]domain.InternedString{domain.Stage("upload")},
		}},
	}

	_, err := app.NewRegistry(project)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing dependency")
}

func TestDefaultWatchRules(t *testing.T) {
	paths := defaultPaths()
	rules := app.DefaultWatchRules(paths)

	g, err := app.NewRegistry(&domain.Project{Paths: paths})
	require.NoError(t, err)
	require.NoError(t, domain.ValidateWatchRules(g, rules))

	matched := func(rel string) []string {
		var names []string
		for i := range rules {
			if rules[i].Matches(rel) {
				names = append(names, rules[i].Name)
			}
		}
		return names
	}

	assert.Equal(t, []string{"stylesheets"}, matched("css/main.css"))
	assert.Equal(t, []string{"sass"}, matched("_sass/base/_type.scss"))
	assert.Equal(t, []string{"sass"}, matched("css/main.scss"))
	assert.Equal(t, []string{"stylesheets"}, matched("fonts/inter.woff2"))
	assert.Equal(t, []string{"scripts"}, matched("js/app.js"))
	assert.Equal(t, []string{"scripts"}, matched("js/vendor/jquery.js"))
	assert.Equal(t, []string{"images"}, matched("img/photos/cat.jpg"))
	assert.Equal(t, []string{"content"}, matched("_posts/2024-01-01-hello.md"))
	assert.Equal(t, []string{"content"}, matched("_config.yml"))
	assert.Equal(t, []string{"content"}, matched("_includes/icons/logo.svg"))
	assert.Empty(t, matched("notes/todo.txt"))

	for _, rule := range rules {
		if rule.Name == "sass" {
			assert.Equal(t, [][]domain.InternedString{
				domain.Stage(app.TaskBuild), domain.Stage(app.TaskBuildCSS), domain.Stage(app.TaskReload),
			}, rule.Reaction, "sass is compiled by the site build before build-css")
		}
	}
}

func TestWatchRules_ConfiguredReplaceDefaults(t *testing.T) {
	custom := []domain.WatchRule{{Name: "docs", Patterns: domain.InternStrings([]string{"docs/**"})}}

	assert.Equal(t, custom, app.WatchRules(&domain.Project{Paths: defaultPaths(), Watch: custom}))
	assert.Len(t, app.WatchRules(&domain.Project{Paths: defaultPaths()}), 5)
}

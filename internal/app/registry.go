package app

import (
	"go.trai.ch/press/internal/core/domain"
)

// Built-in task names.
const (
	TaskBuild       = "build"
	TaskBuildProd   = "build-prod"
	TaskBuildCSS    = "build-css"
	TaskBuildJS     = "build-js"
	TaskOptimizeImg = "optimize-img"
	TaskBuildAssets = "build-assets"
	TaskDeploy      = "deploy"
	TaskReload      = "reload"
)

// BuiltinTasks returns the tasks every project has.
func BuiltinTasks() []domain.Task {
	return []domain.Task{
		{
			Name:        domain.NewInternedString(TaskBuild),
			Description: "Build the site with the development configuration",
			Action:      domain.ActionSite,
			Profile:     domain.Development,
		},
		{
			Name:        domain.NewInternedString(TaskBuildProd),
			Description: "Build the site with the production configuration",
			Action:      domain.ActionSite,
			Profile:     domain.Production,
		},
		{
			Name:        domain.NewInternedString(TaskBuildCSS),
			Description: "Bundle, prefix and minify the stylesheet",
			Action:      domain.ActionStylesheet,
		},
		{
			Name:        domain.NewInternedString(TaskBuildJS),
			Description: "Lint and bundle the vendor and application scripts",
			Action:      domain.ActionScripts,
		},
		{
			Name:        domain.NewInternedString(TaskOptimizeImg),
			Description: "Compress images into the output tree",
			Action:      domain.ActionImages,
		},
		{
			Name:        domain.NewInternedString(TaskBuildAssets),
			Description: "Build stylesheets, scripts and images",
			Stages:      [][]domain.InternedString{domain.Stage(TaskBuildCSS, TaskBuildJS, TaskOptimizeImg)},
		},
		{
			Name:        domain.NewInternedString(TaskDeploy),
			Description: "Production site build followed by the assets",
			Stages: [][]domain.InternedString{
				domain.Stage(TaskBuildProd),
				domain.Stage(TaskBuildAssets),
			},
		},
		{
			Name:        domain.NewInternedString(TaskReload),
			Description: "Tell connected browsers to reload",
			Action:      domain.ActionReload,
		},
	}
}

// NewRegistry builds and seals the task registry of a project: the built-in
// tasks plus the user tasks. A user task may not shadow a built-in one.
func NewRegistry(project *domain.Project) (*domain.Graph, error) {
	g := domain.NewGraph()

	for _, task := range BuiltinTasks() {
		if err := g.AddTask(&task); err != nil {
			return nil, err
		}
	}
	for i := range project.Tasks {
		if err := g.AddTask(&project.Tasks[i]); err != nil {
			return nil, err
		}
	}

	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// WatchRules returns the configured watch rules, or the defaults when none are configured.
func WatchRules(project *domain.Project) []domain.WatchRule {
	if len(project.Watch) > 0 {
		return project.Watch
	}
	return DefaultWatchRules(project.Paths)
}

// DefaultWatchRules returns the rules for a standard site layout.
func DefaultWatchRules(paths domain.PathMap) []domain.WatchRule {
	reload := domain.Stage(TaskReload)

	return []domain.WatchRule{
		{
			Name:     "stylesheets",
			Category: domain.CategoryStylesheets,
			Patterns: domain.InternStrings([]string{
				domain.JoinDir(paths.Fonts.Src, "*"),
				domain.JoinDir(paths.Stylesheets.Src, "**/*.css"),
			}),
			Reaction: [][]domain.InternedString{domain.Stage(TaskBuildCSS), reload},
		},
		{
			// The site generator compiles Sass; build-css then prefixes and minifies its output.
			Name:     "sass",
			Category: domain.CategorySass,
			Patterns: domain.InternStrings([]string{
				domain.JoinDir(paths.Sass.Src, "*.scss"),
				domain.JoinDir(paths.Stylesheets.Src, "main.scss"),
				domain.JoinDir(paths.Sass.Src, "**/*.scss"),
			}),
			Reaction: [][]domain.InternedString{domain.Stage(TaskBuild), domain.Stage(TaskBuildCSS), reload},
		},
		{
			Name:     "scripts",
			Category: domain.CategoryScripts,
			Patterns: domain.InternStrings([]string{
				domain.JoinDir(paths.Scripts.Src, "*.js"),
				domain.JoinDir(paths.Vendor.Src, "*.js"),
			}),
			Reaction: [][]domain.InternedString{domain.Stage(TaskBuildJS), reload},
		},
		{
			Name:     "images",
			Category: domain.CategoryImages,
			Patterns: domain.InternStrings([]string{
				domain.JoinDir(paths.Images.Src, "*"),
				domain.JoinDir(paths.Images.Src, "**/*"),
			}),
			Reaction: [][]domain.InternedString{domain.Stage(TaskOptimizeImg), reload},
		},
		{
			Name:     "content",
			Category: domain.CategoryContent,
			Patterns: domain.InternStrings([]string{
				domain.JoinDir(paths.Src, "*"),
				domain.JoinDir(paths.Src, "_data/*"),
				domain.JoinDir(paths.Src, "_plugins/*"),
				domain.JoinDir(paths.Src, "**/*.md"),
				domain.JoinDir(paths.Src, "**/*.html"),
				domain.JoinDir(paths.Src, "**/*.markdown"),
				domain.JoinDir(paths.Src, "_includes/**/*.{md,svg,html}"),
			}),
			Reaction: [][]domain.InternedString{domain.Stage(TaskBuild), domain.Stage(TaskBuildAssets), reload},
		},
	}
}

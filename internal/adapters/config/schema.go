package config

import "go.trai.ch/press/internal/core/domain"

// Pressfile represents the structure of the press.yaml configuration file.
type Pressfile struct {
	Version     string         `yaml:"version"`
	Paths       PathsDTO       `yaml:"paths"`
	Site        SiteDTO        `yaml:"site"`
	Stylesheets StylesheetsDTO `yaml:"stylesheets"`
	Scripts     ScriptsDTO     `yaml:"scripts"`
	Images      ImagesDTO      `yaml:"images"`
	Serve       ServeDTO       `yaml:"serve"`
	Log         LogDTO         `yaml:"log"`
	Watch       []WatchRuleDTO `yaml:"watch"`
}

// PathsDTO represents the path map. Every entry is relative to the directory of press.yaml.
type PathsDTO struct {
	Src    string     `yaml:"src"`
	Build  string     `yaml:"build"`
	Tasks  string     `yaml:"tasks"`
	CSS    DirPairDTO `yaml:"css"`
	Sass   DirPairDTO `yaml:"sass"`
	JS     DirPairDTO `yaml:"js"`
	Vendor DirPairDTO `yaml:"vendor"`
	Img    DirPairDTO `yaml:"img"`
	Fonts  DirPairDTO `yaml:"fonts"`
}

// DirPairDTO represents a source/destination directory pair.
type DirPairDTO struct {
	Src  string `yaml:"src"`
	Dest string `yaml:"dest"`
}

// SiteDTO configures the site generator.
type SiteDTO struct {
	Command []string          `yaml:"command"`
	Config  SiteConfigDTO     `yaml:"config"`
	Env     map[string]string `yaml:"env"`
}

// SiteConfigDTO maps build profiles to site generator config files.
type SiteConfigDTO struct {
	Development string `yaml:"development"`
	Production  string `yaml:"production"`
}

// StylesheetsDTO configures the stylesheet transform.
type StylesheetsDTO struct {
	Entry string `yaml:"entry"`
}

// ScriptsDTO configures the script bundles.
type ScriptsDTO struct {
	Lint []string `yaml:"lint"`
}

// ImagesDTO configures the image transform.
type ImagesDTO struct {
	Quality string `yaml:"quality"`
}

// ServeDTO configures the development server.
type ServeDTO struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	Debounce   string `yaml:"debounce"`
	LiveReload *bool  `yaml:"livereload"`
}

// LogDTO configures log output.
type LogDTO struct {
	Format string `yaml:"format"`
}

// WatchRuleDTO represents a watch rule override.
type WatchRuleDTO struct {
	Name     string                    `yaml:"name"`
	Category string                    `yaml:"category"`
	Patterns []string                  `yaml:"patterns"`
	Run      [][]domain.InternedString `yaml:"run"`
}

// TaskDTO represents a user task definition in the tasks directory.
type TaskDTO struct {
	Description string            `yaml:"description"`
	Cmd         []string          `yaml:"cmd"`
	DependsOn   []string          `yaml:"dependsOn"`
	Environment map[string]string `yaml:"environment"`
	WorkingDir  string            `yaml:"workingDir"`
}

// Package config provides the press.yaml configuration loader.
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"go.trai.ch/press/internal/core/domain"
	"go.trai.ch/press/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// DefaultFilename is the configuration file looked up in the working directory.
const DefaultFilename = "press.yaml"

const (
	defaultHost     = "localhost"
	defaultPort     = 3000
	defaultDebounce = 100 * time.Millisecond
	defaultQuality  = "65-75"
	supportedSchema = "1"
	maxQuality      = 100
)

var _ ports.ConfigLoader = (*Loader)(nil)

// Loader implements ports.ConfigLoader using a YAML file.
type Loader struct {
	logger ports.Logger
}

// NewLoader creates a new Loader.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{logger: logger}
}

// Load reads the configuration file at path and the user tasks next to it.
func (l *Loader) Load(path string) (*domain.Project, error) {
	project, err := Load(path)
	if err != nil {
		return nil, err
	}

	tasks, err := l.loadTasks(project.Paths)
	if err != nil {
		return nil, err
	}
	project.Tasks = tasks

	return project, nil
}

// Load reads a configuration file from the given path and returns a domain.Project.
// User tasks are not loaded.
func Load(path string) (*domain.Project, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is provided by user
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, zerr.With(domain.ErrConfigNotFound, "path", path)
		}
		return nil, zerr.Wrap(err, "failed to read config file")
	}

	var file Pressfile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, zerr.Wrap(err, "failed to parse config file")
	}

	if file.Version != "" && file.Version != supportedSchema {
		return nil, zerr.With(zerr.New("unsupported config version"), "version", file.Version)
	}

	root, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, zerr.Wrap(err, "failed to resolve project root")
	}

	return buildProject(root, &file)
}

func buildProject(root string, file *Pressfile) (*domain.Project, error) {
	paths, err := buildPaths(root, file.Paths)
	if err != nil {
		return nil, err
	}

	quality, err := ParseQuality(withDefault(file.Images.Quality, defaultQuality))
	if err != nil {
		return nil, err
	}

	serve, err := buildServe(file.Serve)
	if err != nil {
		return nil, err
	}

	logOpts, err := buildLog(file.Log)
	if err != nil {
		return nil, err
	}

	watch, err := buildWatch(&paths, file.Watch)
	if err != nil {
		return nil, err
	}

	command := file.Site.Command
	if len(command) == 0 {
		command = []string{"jekyll"}
	}

	return &domain.Project{
		Paths: paths,
		Site: domain.SiteOptions{
			Command: command,
			Profiles: domain.SiteProfiles{
				Development: withDefault(file.Site.Config.Development, "_config.yml"),
				Production:  withDefault(file.Site.Config.Production, "_config.build.yml"),
			},
			Env: file.Site.Env,
		},
		Stylesheets: domain.StylesheetOptions{
			Entry: withDefault(file.Stylesheets.Entry, "main.css"),
		},
		Scripts: domain.ScriptOptions{
			VendorBundle: "vendor.min.js",
			AppBundle:    "main.min.js",
			LintRules:    file.Scripts.Lint,
		},
		Images: domain.ImageOptions{Quality: quality},
		Serve:  serve,
		Log:    logOpts,
		Watch:  watch,
	}, nil
}

func buildPaths(root string, dto PathsDTO) (domain.PathMap, error) {
	p := domain.PathMap{Root: root}

	dirs := []struct {
		target *string
		value  string
		def    string
	}{
		{&p.Src, dto.Src, "./"},
		{&p.Build, dto.Build, "_site/"},
		{&p.Tasks, dto.Tasks, "tasks/"},
		{&p.Stylesheets.Src, dto.CSS.Src, "css/"},
		{&p.Stylesheets.Dest, dto.CSS.Dest, "_site/css/"},
		{&p.Sass.Src, dto.Sass.Src, "_sass/"},
		{&p.Scripts.Src, dto.JS.Src, "js/"},
		{&p.Scripts.Dest, dto.JS.Dest, "_site/js/"},
		{&p.Vendor.Src, dto.Vendor.Src, "js/vendor/"},
		{&p.Vendor.Dest, dto.Vendor.Dest, "_site/js/"},
		{&p.Images.Src, dto.Img.Src, "img/"},
		{&p.Images.Dest, dto.Img.Dest, "_site/img/"},
		{&p.Fonts.Src, dto.Fonts.Src, "fonts/"},
	}

	for _, d := range dirs {
		normalized, err := domain.NormalizeDir(withDefault(d.value, d.def))
		if err != nil {
			return domain.PathMap{}, err
		}
		*d.target = normalized
	}

	return p, nil
}

// ParseQuality parses a "min-max" percentage range. A single number means min equals max.
func ParseQuality(s string) (domain.QualityRange, error) {
	lo, hi, found := strings.Cut(strings.TrimSpace(s), "-")
	if !found {
		hi = lo
	}

	minQ, errMin := strconv.Atoi(strings.TrimSpace(lo))
	maxQ, errMax := strconv.Atoi(strings.TrimSpace(hi))
	if errMin != nil || errMax != nil {
		return domain.QualityRange{}, zerr.With(domain.ErrInvalidQuality, "quality", s)
	}

	if minQ < 0 || maxQ > maxQuality || minQ > maxQ {
		return domain.QualityRange{}, zerr.With(domain.ErrInvalidQuality, "quality", s)
	}

	return domain.QualityRange{Min: minQ, Max: maxQ}, nil
}

func buildServe(dto ServeDTO) (domain.ServeOptions, error) {
	opts := domain.ServeOptions{
		Host:       withDefault(dto.Host, defaultHost),
		Port:       dto.Port,
		Debounce:   defaultDebounce,
		LiveReload: true,
	}
	if opts.Port == 0 {
		opts.Port = defaultPort
	}
	if dto.LiveReload != nil {
		opts.LiveReload = *dto.LiveReload
	}
	if dto.Debounce != "" {
		d, err := time.ParseDuration(dto.Debounce)
		if err != nil || d < 0 {
			return domain.ServeOptions{}, zerr.With(zerr.New("invalid debounce duration"), "debounce", dto.Debounce)
		}
		opts.Debounce = d
	}
	return opts, nil
}

func buildLog(dto LogDTO) (domain.LogOptions, error) {
	switch format := domain.LogFormat(dto.Format); format {
	case domain.LogFormatAuto, domain.LogFormatPretty, domain.LogFormatJSON:
		return domain.LogOptions{Format: format}, nil
	default:
		return domain.LogOptions{}, zerr.With(zerr.New("unknown log format"), "format", dto.Format)
	}
}

func buildWatch(paths *domain.PathMap, dtos []WatchRuleDTO) ([]domain.WatchRule, error) {
	if len(dtos) == 0 {
		return nil, nil
	}

	rules := make([]domain.WatchRule, 0, len(dtos))
	for i, dto := range dtos {
		name := dto.Name
		if name == "" {
			name = "watch-" + strconv.Itoa(i)
		}
		if len(dto.Patterns) == 0 || len(dto.Run) == 0 {
			return nil, zerr.With(zerr.New("watch rule needs patterns and run stages"), "rule", name)
		}

		category := domain.Category(dto.Category)
		if category == "" {
			category = domain.CategoryContent
		}
		if _, ok := paths.Pair(category); !ok {
			return nil, zerr.With(zerr.With(zerr.New("unknown watch category"), "category", dto.Category), "rule", name)
		}

		rules = append(rules, domain.WatchRule{
			Name:     name,
			Category: category,
			Patterns: domain.InternStrings(dto.Patterns),
			Reaction: dto.Run,
		})
	}
	return rules, nil
}

// loadTasks reads every *.yaml and *.yml file in the tasks directory.
// A missing directory yields no tasks.
func (l *Loader) loadTasks(paths domain.PathMap) ([]domain.Task, error) {
	dir := paths.Abs(paths.Tasks)

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			l.logger.Debug("no tasks directory at " + paths.Tasks)
			return nil, nil
		}
		return nil, zerr.With(zerr.Wrap(err, "failed to read tasks directory"), "path", dir)
	}

	var tasks []domain.Task
	seen := make(map[string]string)

	for _, entry := range entries {
		ext := filepath.Ext(entry.Name())
		if entry.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}

		file := filepath.Join(dir, entry.Name())
		defs, err := readTaskFile(file)
		if err != nil {
			return nil, err
		}

		names := make([]string, 0, len(defs))
		for name := range defs {
			names = append(names, name)
		}
		slices.Sort(names)

		for _, name := range names {
			if prev, ok := seen[name]; ok {
				return nil, zerr.With(zerr.With(domain.ErrTaskAlreadyExists, "file", prev), "task_name", name)
			}
			seen[name] = entry.Name()

			dto := defs[name]
			if len(dto.Cmd) == 0 {
				return nil, zerr.With(zerr.New("task has no command"), "task_name", name)
			}

			task := domain.Task{
				Name:        domain.NewInternedString(name),
				Description: dto.Description,
				Action:      domain.ActionCommand,
				Command:     dto.Cmd,
				Environment: dto.Environment,
				WorkingDir:  domain.NewInternedString(paths.Abs(withDefault(dto.WorkingDir, "."))),
			}
			if len(dto.DependsOn) > 0 {
				task.Stages = [][]domain.InternedString{domain.InternStrings(dto.DependsOn)}
			}
			tasks = append(tasks, task)
		}
		l.logger.Debug("loaded tasks from " + entry.Name())
	}

	return tasks, nil
}

func readTaskFile(path string) (map[string]TaskDTO, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is inside the project tasks directory
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to read task file"), "path", path)
	}

	var defs map[string]TaskDTO
	if err := yaml.Unmarshal(data, &defs); err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to parse task file"), "path", path)
	}
	return defs, nil
}

func withDefault(value, def string) string {
	if value == "" {
		return def
	}
	return value
}

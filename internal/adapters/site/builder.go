// Package site invokes the external static-site generator.
package site

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"

	"github.com/joho/godotenv"
	"go.trai.ch/press/internal/core/domain"
	"go.trai.ch/press/internal/core/ports"
	"go.trai.ch/zerr"
)

// EnvFile is the optional dotenv file read from the project root.
const EnvFile = ".env"

var _ ports.Executor = (*Builder)(nil)

// Builder runs `<command> build --config <file>` for a build profile.
type Builder struct {
	root    string
	options domain.SiteOptions
	runner  ports.CommandRunner
	logger  ports.Logger
}

// NewBuilder creates a Builder for the project.
func NewBuilder(project *domain.Project, runner ports.CommandRunner, logger ports.Logger) *Builder {
	return &Builder{
		root:    project.Paths.Root,
		options: project.Site,
		runner:  runner,
		logger:  logger,
	}
}

// Execute implements ports.Executor for site tasks.
func (b *Builder) Execute(ctx context.Context, task *domain.Task) error {
	return b.Build(ctx, task.Profile.String())
}

// Build runs the site generator with the configuration selected by tag.
// Only "production" selects the production profile.
func (b *Builder) Build(ctx context.Context, tag string) error {
	env := domain.ParseEnvironment(tag)
	configFile := b.options.Profiles.ConfigFor(env)

	vars, err := b.environment(env)
	if err != nil {
		return err
	}

	args := slices.Concat(b.options.Command, []string{"build", "--config", configFile})
	b.logger.Debug(fmt.Sprintf("building site (%s) with %s", env, configFile))

	if err := b.runner.Run(ctx, ports.Command{Args: args, Dir: b.root, Env: vars}); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return zerr.Wrap(ctxErr, "site build cancelled")
		}
		code := exitCode(err)
		return zerr.With(
			zerr.Wrap(domain.ErrSiteBuildFailed, fmt.Sprintf("site generator exited with code: %d", code)),
			"exit_code", code,
		)
	}
	return nil
}

// environment merges the dotenv file, configured variables and JEKYLL_ENV, in increasing precedence.
func (b *Builder) environment(env domain.Environment) (map[string]string, error) {
	vars := make(map[string]string)

	path := filepath.Join(b.root, EnvFile)
	if _, err := os.Stat(path); err == nil {
		dotenv, err := godotenv.Read(path)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, "failed to read env file"), "path", path)
		}
		maps.Copy(vars, dotenv)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, zerr.With(zerr.Wrap(err, "failed to stat env file"), "path", path)
	}

	maps.Copy(vars, b.options.Env)
	vars["JEKYLL_ENV"] = env.String()
	return vars, nil
}

func exitCode(err error) int {
	var zErr *zerr.Error
	if errors.As(err, &zErr) {
		if code, ok := zErr.Metadata()["exit_code"].(int); ok {
			return code
		}
	}
	return -1
}

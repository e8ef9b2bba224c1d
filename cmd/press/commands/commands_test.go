package commands_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/press/cmd/press/commands"
	"go.trai.ch/press/internal/app"
	"go.trai.ch/press/internal/build"
)

type mockApp struct {
	settings  app.Settings
	runFunc   func(ctx context.Context, targetNames []string) error
	serveFunc func(ctx context.Context, opts app.ServeOptions) error
	tasks     string
}

func (m *mockApp) Configure(s app.Settings) {
	m.settings = s
}

func (m *mockApp) Run(ctx context.Context, targetNames []string) error {
	if m.runFunc != nil {
		return m.runFunc(ctx, targetNames)
	}
	return nil
}

func (m *mockApp) Serve(ctx context.Context, opts app.ServeOptions) error {
	if m.serveFunc != nil {
		return m.serveFunc(ctx, opts)
	}
	return nil
}

func (m *mockApp) Tasks(w io.Writer) error {
	_, err := io.WriteString(w, m.tasks)
	return err
}

func TestCommands_Run(t *testing.T) {
	t.Run("passes tasks through", func(t *testing.T) {
		var captured []string
		mock := &mockApp{
			runFunc: func(_ context.Context, targetNames []string) error {
				captured = targetNames
				return nil
			},
		}

		cli := commands.New(mock)
		cli.SetArgs([]string{"run", "build-css", "build-js"})

		require.NoError(t, cli.Execute(context.Background()))
		assert.Equal(t, []string{"build-css", "build-js"}, captured)
	})

	t.Run("returns error on run failure", func(t *testing.T) {
		mock := &mockApp{
			runFunc: func(context.Context, []string) error {
				return errors.New("simulated error")
			},
		}

		cli := commands.New(mock)
		cli.SetArgs([]string{"run", "build"})
		cli.SetOutput(new(bytes.Buffer), new(bytes.Buffer))

		err := cli.Execute(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "simulated error")
	})

	t.Run("shows usage when no tasks provided", func(t *testing.T) {
		mock := &mockApp{
			runFunc: func(context.Context, []string) error {
				panic("should not be called")
			},
		}

		cli := commands.New(mock)
		buf := new(bytes.Buffer)
		cli.SetOutput(buf, buf)
		cli.SetArgs([]string{"run"})

		require.NoError(t, cli.Execute(context.Background()))
		assert.Contains(t, buf.String(), "Usage:")
	})
}

func TestCommands_Shortcuts(t *testing.T) {
	for _, name := range []string{app.TaskBuild, app.TaskBuildProd, app.TaskBuildAssets, app.TaskDeploy} {
		t.Run(name, func(t *testing.T) {
			var captured []string
			mock := &mockApp{
				runFunc: func(_ context.Context, targetNames []string) error {
					captured = targetNames
					return nil
				},
			}

			cli := commands.New(mock)
			cli.SetArgs([]string{name})

			require.NoError(t, cli.Execute(context.Background()))
			assert.Equal(t, []string{name}, captured)
		})
	}
}

func TestCommands_GlobalFlags(t *testing.T) {
	mock := &mockApp{}

	cli := commands.New(mock)
	cli.SetArgs([]string{"--config", "blog/press.yaml", "--json", "--verbose", "build"})

	require.NoError(t, cli.Execute(context.Background()))
	assert.Equal(t, app.Settings{ConfigPath: "blog/press.yaml", JSON: true, Verbose: true}, mock.settings)
}

func TestCommands_Serve(t *testing.T) {
	var captured app.ServeOptions
	mock := &mockApp{
		serveFunc: func(_ context.Context, opts app.ServeOptions) error {
			captured = opts
			return nil
		},
	}

	cli := commands.New(mock)
	cli.SetArgs([]string{"serve", "--host", "0.0.0.0", "-p", "4000", "--no-livereload"})

	require.NoError(t, cli.Execute(context.Background()))
	assert.Equal(t, app.ServeOptions{Host: "0.0.0.0", Port: 4000, NoLiveReload: true}, captured)
}

func TestCommands_ServeDefaults(t *testing.T) {
	var captured app.ServeOptions
	called := false
	mock := &mockApp{
		serveFunc: func(_ context.Context, opts app.ServeOptions) error {
			captured = opts
			called = true
			return nil
		},
	}

	cli := commands.New(mock)
	cli.SetArgs([]string{"default"})

	require.NoError(t, cli.Execute(context.Background()))
	assert.True(t, called)
	assert.Equal(t, app.ServeOptions{}, captured)
}

func TestCommands_Tasks(t *testing.T) {
	mock := &mockApp{tasks: "TASK  RUNS\nbuild  site\n"}
	cli := commands.New(mock)

	buf := new(bytes.Buffer)
	cli.SetOutput(buf, buf)
	cli.SetArgs([]string{"tasks"})

	require.NoError(t, cli.Execute(context.Background()))
	assert.Equal(t, mock.tasks, buf.String())
}

func TestCommands_Version(t *testing.T) {
	mock := &mockApp{}
	cli := commands.New(mock)

	buf := new(bytes.Buffer)
	cli.SetOutput(buf, buf)
	cli.SetArgs([]string{"version"})

	require.NoError(t, cli.Execute(context.Background()))
	assert.Contains(t, buf.String(), "press version "+build.Version)
}

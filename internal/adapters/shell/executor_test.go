package shell_test

import (
	"bytes"
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/press/internal/adapters/shell"
	"go.trai.ch/press/internal/core/domain"
	"go.trai.ch/press/internal/core/ports"
	"go.trai.ch/press/internal/core/ports/mocks"
	"go.trai.ch/zerr"
	"go.uber.org/mock/gomock"
)

func TestExecutor_Run_StreamsLines(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)

	gomock.InOrder(
		log.EXPECT().Info("line1"),
		log.EXPECT().Info("line2"),
	)

	var stdout bytes.Buffer
	err := shell.NewExecutor(log).Run(context.Background(), ports.Command{
		Args:   []string{"sh", "-c", "echo line1; echo line2"},
		Dir:    t.TempDir(),
		Stdout: &stdout,
	})
	require.NoError(t, err)
	assert.Equal(t, "line1\nline2\n", stdout.String())
}

func TestExecutor_Run_FragmentedOutput(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Info("part1part2")

	err := shell.NewExecutor(log).Run(context.Background(), ports.Command{
		Args: []string{"sh", "-c", "printf part1; sleep 0.1; echo part2"},
	})
	require.NoError(t, err)
}

func TestExecutor_Run_StderrAsWarning(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Warn("Liquid Warning: unknown tag")

	var stderr bytes.Buffer
	err := shell.NewExecutor(log).Run(context.Background(), ports.Command{
		Args:   []string{"sh", "-c", "printf 'Liquid Warning: unknown tag' >&2"},
		Stderr: &stderr,
	})
	require.NoError(t, err)
	assert.Equal(t, "Liquid Warning: unknown tag", stderr.String())
}

func TestExecutor_Run_ExitCode(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)

	err := shell.NewExecutor(log).Run(context.Background(), ports.Command{
		Args: []string{"sh", "-c", "exit 3"},
	})
	require.Error(t, err)

	zErr, ok := err.(*zerr.Error)
	require.True(t, ok, "expected *zerr.Error, got %T", err)
	assert.Equal(t, 3, zErr.Metadata()["exit_code"])
}

func TestExecutor_Run_InvalidCommand(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)

	err := shell.NewExecutor(log).Run(context.Background(), ports.Command{
		Args: []string{"press-command-that-does-not-exist"},
	})
	require.Error(t, err)

	zErr, ok := err.(*zerr.Error)
	require.True(t, ok, "expected *zerr.Error, got %T", err)
	assert.Equal(t, -1, zErr.Metadata()["exit_code"])
}

func TestExecutor_Run_EmptyCommand(t *testing.T) {
	ctrl := gomock.NewController(t)
	err := shell.NewExecutor(mocks.NewMockLogger(ctrl)).Run(context.Background(), ports.Command{})
	require.Error(t, err)
}

func TestExecutor_Execute_Task(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Info("[print-env] test-value-123")

	task := &domain.Task{
		Name:        domain.NewInternedString("print-env"),
		Action:      domain.ActionCommand,
		Command:     []string{"sh", "-c", "echo $MY_TEST_VAR"},
		Environment: map[string]string{"MY_TEST_VAR": "test-value-123"},
		WorkingDir:  domain.NewInternedString(t.TempDir()),
	}

	require.NoError(t, shell.NewExecutor(log).Execute(context.Background(), task))
}

func TestExecutor_Run_WritesToVertex(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Info("hello")

	var vertexOut bytes.Buffer
	vertex := mocks.NewMockVertex(ctrl)
	vertex.EXPECT().Stdout().Return(&vertexOut)
	vertex.EXPECT().Stderr().Return(&bytes.Buffer{})

	ctx := ports.ContextWithVertex(context.Background(), vertex)
	require.NoError(t, shell.NewExecutor(log).Run(ctx, ports.Command{Args: []string{"echo", "hello"}}))
	assert.Equal(t, "hello\n", vertexOut.String())
}

func TestExecutor_Run_PrefixesTaskName(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Info("[build] Generating...")
	log.EXPECT().Warn("[build] Liquid Warning: unknown tag")

	ctx := ports.ContextWithTask(context.Background(), "build")
	err := shell.NewExecutor(log).Run(ctx, ports.Command{
		Args: []string{"sh", "-c", "echo Generating...; echo; echo 'Liquid Warning: unknown tag' >&2"},
	})
	require.NoError(t, err)
}

func TestExecutor_Run_ConcurrentOutputStaysAttributed(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)

	var (
		mu    sync.Mutex
		lines []string
	)
	log.EXPECT().Info(gomock.Any()).DoAndReturn(func(msg string) {
		mu.Lock()
		defer mu.Unlock()
		lines = append(lines, msg)
	}).Times(6)

	exec := shell.NewExecutor(log)
	var wg sync.WaitGroup
	for _, task := range []string{"build", "lint"} {
		wg.Go(func() {
			ctx := ports.ContextWithTask(context.Background(), task)
			assert.NoError(t, exec.Run(ctx, ports.Command{
				Args: []string{"sh", "-c", "for i in 1 2 3; do echo " + task + "-$i; sleep 0.01; done"},
			}))
		})
	}
	wg.Wait()

	assert.ElementsMatch(t, []string{
		"[build] build-1", "[build] build-2", "[build] build-3",
		"[lint] lint-1", "[lint] lint-2", "[lint] lint-3",
	}, lines)
}

func TestLineWriter_SplitsAndFlushes(t *testing.T) {
	var got []string
	w := shell.NewLineWriter("optimize-img", func(msg string) { got = append(got, msg) })

	_, _ = w.Write([]byte("logo.png 12 kB\r\nhero."))
	_, _ = w.Write([]byte("jpg 80 kB\n\nfooter"))
	assert.Equal(t, []string{"[optimize-img] logo.png 12 kB", "[optimize-img] hero.jpg 80 kB"}, got)

	require.NoError(t, w.Close())
	assert.Equal(t, "[optimize-img] footer", got[len(got)-1])
}

func TestResolveEnvironment(t *testing.T) {
	env := shell.ResolveEnvironment(
		[]string{"PATH=/usr/bin", "HOME=/home/blog", "JEKYLL_ENV=development"},
		map[string]string{"JEKYLL_ENV": "production"},
	)
	assert.Equal(t, []string{"HOME=/home/blog", "JEKYLL_ENV=production", "PATH=/usr/bin"}, env)
}

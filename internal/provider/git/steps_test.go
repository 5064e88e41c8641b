package git_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/wslkit/internal/adapters/logging"
	"github.com/felixgeelhaar/wslkit/internal/domain/component"
	"github.com/felixgeelhaar/wslkit/internal/ports"
	"github.com/felixgeelhaar/wslkit/internal/provider/git"
	"github.com/felixgeelhaar/wslkit/internal/testutil/mocks"
)

const (
	p10kURL  = "https://github.com/romkatv/powerlevel10k.git"
	p10kDest = "/home/dev/.oh-my-zsh/custom/themes/powerlevel10k"
)

func runContext() component.RunContext {
	return component.NewRunContext(context.Background(), logging.NewNopLogger())
}

func cloneArgs(extra ...string) []string {
	args := append([]string{"clone", "--depth=1"}, extra...)
	return append(args, p10kURL, p10kDest)
}

func TestCloneStep_Name(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "clone powerlevel10k", git.NewCloneStep(p10kURL, p10kDest, nil, nil).Name())
	assert.Equal(t, "clone zsh-autosuggestions",
		git.NewCloneStep("git@github.com:zsh-users/zsh-autosuggestions.git", p10kDest, nil, nil).Name())
}

func TestCloneStep_Probe(t *testing.T) {
	t.Parallel()

	fs := mocks.NewFileSystem()
	step := git.NewCloneStep(p10kURL, p10kDest, mocks.NewCommandRunner(), fs)
	assert.False(t, step.Probe(runContext()))

	fs.AddDir(p10kDest + "/.git")
	assert.True(t, step.Probe(runContext()))
}

func TestCloneStep_Apply(t *testing.T) {
	t.Parallel()

	fs := mocks.NewFileSystem()
	runner := mocks.NewCommandRunner()
	runner.OnRun("git", cloneArgs(), func() { fs.AddDir(p10kDest + "/.git") })

	step := git.NewCloneStep(p10kURL, p10kDest, runner, fs)
	require.NoError(t, step.Apply(runContext()))
	assert.True(t, step.Probe(runContext()))

	require.NoError(t, step.Apply(runContext()))
	assert.Equal(t, 1, runner.CallCount("git", cloneArgs()...), "second apply is a no-op")
}

func TestCloneStep_ApplyWithBranch(t *testing.T) {
	t.Parallel()

	fs := mocks.NewFileSystem()
	runner := mocks.NewCommandRunner()
	runner.AddResult("git", cloneArgs("--branch", "v1.20.0"), ports.CommandResult{})

	step := git.NewCloneStep(p10kURL, p10kDest, runner, fs, git.WithBranch("v1.20.0"))
	require.NoError(t, step.Apply(runContext()))
	assert.Equal(t, 1, runner.CallCount("git", cloneArgs("--branch", "v1.20.0")...))
}

func TestCloneStep_ApplyRefusesForeignDirectory(t *testing.T) {
	t.Parallel()

	fs := mocks.NewFileSystem()
	fs.AddFile(p10kDest+"/README.md", "hand-installed copy")
	runner := mocks.NewCommandRunner()

	step := git.NewCloneStep(p10kURL, p10kDest, runner, fs)
	err := step.Apply(runContext())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a git repository")
	assert.Empty(t, runner.Calls())
	assert.Equal(t, "hand-installed copy", fs.Content(p10kDest+"/README.md"))
}

func TestCloneStep_ApplyNetworkFailureIsTransient(t *testing.T) {
	t.Parallel()

	fs := mocks.NewFileSystem()
	runner := mocks.NewCommandRunner()
	runner.AddResult("git", cloneArgs(), ports.CommandResult{
		ExitCode: 128,
		Stderr:   "fatal: unable to access '" + p10kURL + "/': Could not resolve host: github.com",
	})

	err := git.NewCloneStep(p10kURL, p10kDest, runner, fs).Apply(runContext())
	require.Error(t, err)
	assert.True(t, ports.IsTransient(err))
	assert.False(t, fs.Exists(p10kDest))
}

func TestCloneStep_ApplyValidatesInput(t *testing.T) {
	t.Parallel()

	runner := mocks.NewCommandRunner()
	fs := mocks.NewFileSystem()

	err := git.NewCloneStep("https://github.com/a/b;curl evil", p10kDest, runner, fs).Apply(runContext())
	assert.Error(t, err)

	err = git.NewCloneStep(p10kURL, "~/../../etc/p10k", runner, fs).Apply(runContext())
	assert.Error(t, err)
	assert.Empty(t, runner.Calls())
}

func TestCloneStep_Revert(t *testing.T) {
	t.Parallel()

	fs := mocks.NewFileSystem()
	fs.AddFile(p10kDest+"/.git/HEAD", "ref: refs/heads/master")
	fs.AddFile(p10kDest+"/powerlevel10k.zsh-theme", "theme")

	step := git.NewCloneStep(p10kURL, p10kDest, mocks.NewCommandRunner(), fs)
	require.NoError(t, step.Revert(runContext()))
	assert.False(t, step.Probe(runContext()))
	assert.Empty(t, fs.Files())
}

func TestCloneStep_RevertLeavesForeignDirectory(t *testing.T) {
	t.Parallel()

	fs := mocks.NewFileSystem()
	fs.AddFile(p10kDest+"/notes.txt", "mine")

	step := git.NewCloneStep(p10kURL, p10kDest, mocks.NewCommandRunner(), fs)
	require.NoError(t, step.Revert(runContext()))
	assert.Equal(t, "mine", fs.Content(p10kDest+"/notes.txt"))
}

func TestCloneStep_RunnerError(t *testing.T) {
	t.Parallel()

	runner := mocks.NewCommandRunner()
	runner.AddError("git", cloneArgs(), errors.New("boom"))

	err := git.NewCloneStep(p10kURL, p10kDest, runner, mocks.NewFileSystem()).Apply(runContext())
	assert.ErrorContains(t, err, "boom")
}

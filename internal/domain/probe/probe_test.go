package probe

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/felixgeelhaar/wslkit/internal/ports"
	"github.com/felixgeelhaar/wslkit/internal/testutil/mocks"
)

func newProber(t *testing.T) (*Prober, *mocks.CommandRunner, *mocks.FileSystem) {
	t.Helper()
	runner := mocks.NewCommandRunner()
	fs := mocks.NewFileSystem()
	return New(runner, runner, fs), runner, fs
}

func TestProber_Executable(t *testing.T) {
	p, runner, _ := newProber(t)

	assert.False(t, p.Probe(context.Background(), Criterion{Executable: "zsh"}))

	runner.AddExecutable("zsh")
	assert.True(t, p.Probe(context.Background(), Criterion{Executable: "zsh"}))
	assert.Empty(t, runner.Calls(), "presence check should not run the executable")
}

func TestProber_MinVersion(t *testing.T) {
	tests := []struct {
		name   string
		output string
		min    string
		want   bool
	}{
		{"newer major", "v20.11.1\n", "18", true},
		{"equal", "v18.0.0", "18.0.0", true},
		{"older", "v16.20.2", "18", false},
		{"minor compare", "Python 3.10.12", "3.9", true},
		{"minor older", "Python 3.8.10", "3.9", false},
		{"unparseable", "node: not a version", "18", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, runner, _ := newProber(t)
			runner.AddExecutable("node")
			runner.AddResult("node", []string{"--version"}, ports.CommandResult{Stdout: tt.output})

			got := p.Probe(context.Background(), Criterion{Executable: "node", MinVersion: tt.min})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestProber_Pattern(t *testing.T) {
	p, runner, _ := newProber(t)
	runner.AddExecutable("aws")
	runner.AddResult("aws", []string{"--version"}, ports.CommandResult{
		Stderr: "aws-cli/2.15.0 Python/3.11.6 Linux/5.15.133.1-microsoft-standard-WSL2",
	})

	assert.True(t, p.Probe(context.Background(), Criterion{
		Executable: "aws",
		Pattern:    regexp.MustCompile(`^aws-cli/2\.`),
		MinVersion: "2.0.0",
	}))
	assert.False(t, p.Probe(context.Background(), Criterion{
		Executable: "aws",
		Pattern:    regexp.MustCompile(`^aws-cli/1\.`),
	}))
}

func TestProber_CustomVersionArgs(t *testing.T) {
	p, runner, _ := newProber(t)
	runner.AddExecutable("kubectl")
	runner.AddResult("kubectl", []string{"version", "--client"}, ports.CommandResult{Stdout: "Client Version: v1.29.1"})

	assert.True(t, p.Probe(context.Background(), Criterion{
		Executable:  "kubectl",
		VersionArgs: []string{"version", "--client"},
		MinVersion:  "1.28",
	}))
}

func TestProber_FailingVersionCommand(t *testing.T) {
	p, runner, _ := newProber(t)
	runner.AddExecutable("node")
	runner.AddResult("node", []string{"--version"}, ports.CommandResult{ExitCode: 127, Stderr: "segfault"})
	assert.False(t, p.Probe(context.Background(), Criterion{Executable: "node", MinVersion: "18"}))

	runner.AddError("node", []string{"--version"}, errors.New("exec format error"))
	assert.False(t, p.Probe(context.Background(), Criterion{Executable: "node", MinVersion: "18"}))
}

func TestProber_Path(t *testing.T) {
	p, runner, fs := newProber(t)

	c := Criterion{Path: "/home/dev/.oh-my-zsh"}
	assert.False(t, p.Probe(context.Background(), c))

	fs.AddDir("/home/dev/.oh-my-zsh")
	assert.True(t, p.Probe(context.Background(), c))

	withExe := Criterion{Executable: "zsh", Path: "/home/dev/.oh-my-zsh"}
	assert.False(t, p.Probe(context.Background(), withExe))
	runner.AddExecutable("zsh")
	assert.True(t, p.Probe(context.Background(), withExe))
}

func TestProber_EmptyCriterion(t *testing.T) {
	p, _, _ := newProber(t)
	assert.False(t, p.Probe(context.Background(), Criterion{}))
}

// hangingRunner blocks until its context is cancelled.
type hangingRunner struct{}

func (hangingRunner) Run(ctx context.Context, _ string, _ ...string) (ports.CommandResult, error) {
	<-ctx.Done()
	return ports.CommandResult{}, ctx.Err()
}

func (h hangingRunner) RunWithInput(ctx context.Context, _ []byte, command string, args ...string) (ports.CommandResult, error) {
	return h.Run(ctx, command, args...)
}

func TestProber_HungVersionCommand(t *testing.T) {
	finder := mocks.NewCommandRunner()
	finder.AddExecutable("python3")
	p := New(finder, hangingRunner{}, mocks.NewFileSystem(), WithTimeout(20*time.Millisecond))

	start := time.Now()
	ok := p.Probe(context.Background(), Criterion{Executable: "python3", MinVersion: "3.8"})

	assert.False(t, ok)
	assert.Less(t, time.Since(start), 2*time.Second)
}

// panickingRunner simulates a broken adapter.
type panickingRunner struct{}

func (panickingRunner) Run(context.Context, string, ...string) (ports.CommandResult, error) {
	panic("boom")
}

func (panickingRunner) RunWithInput(context.Context, []byte, string, ...string) (ports.CommandResult, error) {
	panic("boom")
}

func TestProber_NeverPanics(t *testing.T) {
	finder := mocks.NewCommandRunner()
	finder.AddExecutable("node")
	p := New(finder, panickingRunner{}, mocks.NewFileSystem())

	assert.NotPanics(t, func() {
		assert.False(t, p.Probe(context.Background(), Criterion{Executable: "node", MinVersion: "18"}))
	})
}

func TestProber_Version(t *testing.T) {
	p, runner, _ := newProber(t)
	assert.Empty(t, p.Version(context.Background(), Criterion{Executable: "node"}))

	runner.AddExecutable("node")
	runner.AddResult("node", []string{"--version"}, ports.CommandResult{Stdout: "v20.11.1"})
	assert.Equal(t, "v20.11.1", p.Version(context.Background(), Criterion{Executable: "node"}))
}

func TestWithTimeout(t *testing.T) {
	p := New(nil, nil, nil)
	assert.Equal(t, DefaultTimeout, p.Timeout())

	p = New(nil, nil, nil, WithTimeout(3*time.Second))
	assert.Equal(t, 3*time.Second, p.Timeout())

	p = New(nil, nil, nil, WithTimeout(0))
	assert.Equal(t, DefaultTimeout, p.Timeout())
}

func TestExtractVersion(t *testing.T) {
	tests := map[string]string{
		"v20.11.1":                          "v20.11.1",
		"git version 2.43.0":                "v2.43.0",
		"Docker version 24.0.7, build afdd": "v24.0.7",
		"zsh 5.9 (x86_64-ubuntu-linux-gnu)": "v5.9.0",
		"no digits here":                    "",
	}
	for in, want := range tests {
		assert.Equal(t, want, ExtractVersion(in), in)
	}
}

func TestAtLeast(t *testing.T) {
	assert.True(t, AtLeast("v1.2.3", "1.2"))
	assert.True(t, AtLeast("2", "1.9.9"))
	assert.False(t, AtLeast("1.2.3", "1.10"))
	assert.False(t, AtLeast("", "1"))
	assert.False(t, AtLeast("1", "garbage"))
}

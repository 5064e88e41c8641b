package execution

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/wslkit/internal/adapters/logging"
	"github.com/felixgeelhaar/wslkit/internal/domain/component"
	"github.com/felixgeelhaar/wslkit/internal/testutil"
)

type fixture struct {
	registry *component.Registry
	steps    map[string]*testutil.FakeStep
}

// newFixture registers one component per key, each with the named steps.
// deps maps a key to its dependencies.
func newFixture(t *testing.T, layout [][2]string, deps map[string][]string) *fixture {
	t.Helper()
	f := &fixture{registry: component.NewRegistry(), steps: make(map[string]*testutil.FakeStep)}

	order := make([]string, 0)
	stepsByKey := make(map[string][]component.Step)
	for _, pair := range layout {
		key, name := pair[0], pair[1]
		if _, ok := stepsByKey[key]; !ok {
			order = append(order, key)
		}
		step := testutil.NewFakeStep(name)
		f.steps[name] = step
		stepsByKey[key] = append(stepsByKey[key], step)
	}
	for _, key := range order {
		require.NoError(t, f.registry.Add(&component.Spec{
			Key:       key,
			Group:     component.GroupCore,
			Steps:     stepsByKey[key],
			DependsOn: deps[key],
		}))
	}
	return f
}

func (f *fixture) dispatcher() *Dispatcher {
	runner, _ := newTestRunner()
	return NewDispatcher(f.registry, runner)
}

func statuses(s *Summary) map[string]Status {
	out := make(map[string]Status, len(s.Results))
	for _, r := range s.Results {
		out[r.Step()] = r.Status()
	}
	return out
}

func stepOrder(s *Summary) []string {
	out := make([]string, len(s.Results))
	for i, r := range s.Results {
		out[i] = r.Step()
	}
	return out
}

func TestDispatcher_SingleComponent(t *testing.T) {
	f := newFixture(t, [][2]string{{"zsh", "install zsh"}, {"zsh", "oh-my-zsh"}, {"node", "nvm"}}, nil)

	summary, err := f.dispatcher().Install(newRunContext(), []string{"zsh"})
	require.NoError(t, err)

	assert.Equal(t, []string{"install zsh", "oh-my-zsh"}, stepOrder(summary))
	assert.Equal(t, 2, summary.Applied())
	assert.Equal(t, 0, f.steps["nvm"].ApplyCount(), "unselected components never run")
	assert.Equal(t, StatusApplied, summary.ComponentStatus("zsh"))
	assert.Equal(t, "test-run", summary.RunID)
	assert.False(t, summary.Interrupted)
}

func TestDispatcher_DependencyScenario(t *testing.T) {
	f := newFixture(t,
		[][2]string{{"base", "apt base"}, {"zsh", "install zsh"}, {"zsh-theme", "powerlevel10k"}},
		map[string][]string{"zsh": {"base"}, "zsh-theme": {"zsh"}},
	)
	f.steps["apt base"].Installed()

	summary, err := f.dispatcher().Install(newRunContext(), []string{"zsh-theme"})
	require.NoError(t, err)

	assert.Equal(t, []string{"apt base", "install zsh", "powerlevel10k"}, stepOrder(summary))
	assert.Equal(t, StatusAlreadySatisfied, statuses(summary)["apt base"])
	assert.Equal(t, StatusApplied, statuses(summary)["install zsh"])
	assert.Equal(t, []string{"base", "zsh", "zsh-theme"}, summary.Components())
	assert.Equal(t, StatusAlreadySatisfied, summary.ComponentStatus("base"))
}

func TestDispatcher_SecondRunIsNoop(t *testing.T) {
	f := newFixture(t, [][2]string{{"base", "apt"}, {"node", "nvm"}, {"node", "node lts"}}, map[string][]string{"node": {"base"}})
	d := f.dispatcher()

	_, err := d.Install(newRunContext(), []string{"node"})
	require.NoError(t, err)
	second, err := d.Install(newRunContext(), []string{"node"})
	require.NoError(t, err)

	assert.Equal(t, 3, second.AlreadySatisfied())
	assert.Equal(t, 0, second.Applied())
	for _, step := range f.steps {
		assert.Equal(t, 1, step.ApplyCount())
	}
}

func TestDispatcher_FailingStepIsLocal(t *testing.T) {
	f := newFixture(t,
		[][2]string{
			{"base", "apt"},
			{"containers", "docker"}, {"containers", "kubectl"},
			{"helm-charts", "charts"},
			{"python", "pip"},
		},
		map[string][]string{"containers": {"base"}, "helm-charts": {"containers"}, "python": {"base"}},
	)
	f.steps["docker"].FailWith(errors.New("E: Package 'docker-ce' has no installation candidate"))

	summary, err := f.dispatcher().Install(newRunContext(), []string{"helm-charts", "python"})
	require.NoError(t, err, "step failures are reported, not returned")

	st := statuses(summary)
	assert.Equal(t, StatusApplied, st["apt"])
	assert.Equal(t, StatusFailed, st["docker"])
	assert.Equal(t, StatusSkipped, st["kubectl"])
	assert.Equal(t, StatusSkipped, st["charts"])
	assert.Equal(t, StatusApplied, st["pip"], "independent components still run after a failure")

	results := summary.ComponentResults("containers")
	require.Len(t, results, 2)
	assert.Equal(t, "earlier step docker failed", results[1].Reason())
	assert.Equal(t, "dependency containers failed", summary.ComponentResults("helm-charts")[0].Reason())

	assert.Equal(t, 1, summary.Failed())
	assert.Equal(t, 2, summary.Skipped())
	assert.True(t, summary.HasFailures())
	assert.Equal(t, StatusFailed, summary.ComponentStatus("containers"))
	assert.Equal(t, StatusSkipped, summary.ComponentStatus("helm-charts"))
	assert.Equal(t, 0, f.steps["charts"].ApplyCount())
}

func TestDispatcher_DryRun(t *testing.T) {
	f := newFixture(t, [][2]string{{"base", "apt"}, {"zsh", "install zsh"}}, map[string][]string{"zsh": {"base"}})
	f.steps["apt"].Installed()

	summary, err := f.dispatcher().Install(newRunContext().WithDryRun(true), []string{"zsh"})
	require.NoError(t, err)

	assert.True(t, summary.DryRun)
	assert.Equal(t, StatusAlreadySatisfied, statuses(summary)["apt"])
	assert.Equal(t, StatusWouldApply, statuses(summary)["install zsh"])
	assert.Equal(t, 0, f.steps["install zsh"].ApplyCount())
	assert.False(t, f.steps["install zsh"].IsInstalled())
}

func TestDispatcher_Interrupted(t *testing.T) {
	f := newFixture(t,
		[][2]string{{"base", "apt"}, {"zsh", "install zsh"}, {"zsh", "oh-my-zsh"}, {"node", "nvm"}},
		map[string][]string{"zsh": {"base"}, "node": {"base"}},
	)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.steps["install zsh"].OnApply(cancel)

	rc := component.NewRunContext(ctx, logging.NewNopLogger())
	summary, err := f.dispatcher().Install(rc, []string{"zsh", "node"})
	require.NoError(t, err)

	st := statuses(summary)
	assert.Equal(t, StatusApplied, st["apt"])
	assert.Equal(t, StatusApplied, st["install zsh"], "the started apply finishes")
	assert.Equal(t, StatusSkipped, st["oh-my-zsh"])
	assert.Equal(t, StatusSkipped, st["nvm"])
	assert.Equal(t, ErrInterrupted.Error(), summary.ComponentResults("node")[0].Reason())
	assert.True(t, summary.Interrupted)
	assert.Equal(t, 0, f.steps["nvm"].ApplyCount())
}

func TestDispatcher_InterruptedDuringProbe(t *testing.T) {
	f := newFixture(t,
		[][2]string{{"base", "apt"}, {"containers", "docker"}},
		map[string][]string{"containers": {"base"}},
	)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.steps["docker"].OnProbe(cancel)

	rc := component.NewRunContext(ctx, logging.NewNopLogger())
	summary, err := f.dispatcher().Install(rc, []string{"containers"})
	require.NoError(t, err)

	st := statuses(summary)
	assert.Equal(t, StatusApplied, st["apt"])
	assert.Equal(t, StatusSkipped, st["docker"])
	assert.Equal(t, 0, f.steps["docker"].ApplyCount(), "no installer starts after the interrupt")
	assert.True(t, summary.Interrupted)
}

func TestDispatcher_ResolutionErrors(t *testing.T) {
	f := newFixture(t, [][2]string{{"a", "a1"}, {"b", "b1"}}, map[string][]string{"a": {"b"}, "b": {"a"}})

	_, err := f.dispatcher().Install(newRunContext(), []string{"a"})
	assert.ErrorIs(t, err, component.ErrCyclicDependency)
	assert.Equal(t, 0, f.steps["a1"].ApplyCount())

	_, err = f.dispatcher().Install(newRunContext(), []string{"ghost"})
	assert.ErrorIs(t, err, component.ErrUnknownComponent)
}

func TestDispatcher_Uninstall(t *testing.T) {
	f := newFixture(t,
		[][2]string{{"base", "apt"}, {"zsh", "install zsh"}, {"zsh", "oh-my-zsh"}, {"node", "nvm"}},
		map[string][]string{"zsh": {"base"}, "node": {"base"}},
	)
	for _, name := range []string{"apt", "install zsh", "oh-my-zsh"} {
		f.steps[name].Installed()
	}

	summary, err := f.dispatcher().Uninstall(newRunContext(), []string{"zsh", "node"})
	require.NoError(t, err)

	assert.True(t, summary.Uninstall)
	assert.Equal(t, []string{"nvm", "oh-my-zsh", "install zsh"}, stepOrder(summary))
	st := statuses(summary)
	assert.Equal(t, StatusNotInstalled, st["nvm"])
	assert.Equal(t, StatusReverted, st["oh-my-zsh"])
	assert.Equal(t, StatusReverted, st["install zsh"])
	assert.True(t, f.steps["apt"].IsInstalled(), "dependencies are not uninstalled")
	assert.Equal(t, StatusReverted, summary.ComponentStatus("zsh"))
}

func TestDispatcher_UninstallDryRun(t *testing.T) {
	f := newFixture(t, [][2]string{{"zsh", "install zsh"}}, nil)
	f.steps["install zsh"].Installed()

	summary, err := f.dispatcher().Uninstall(newRunContext().WithDryRun(true), []string{"zsh"})
	require.NoError(t, err)

	assert.Equal(t, StatusWouldApply, summary.Results[0].Status())
	assert.Equal(t, "would revert", summary.Results[0].Reason())
	assert.True(t, f.steps["install zsh"].IsInstalled())
}

func TestDispatcher_UninstallUnknown(t *testing.T) {
	f := newFixture(t, [][2]string{{"zsh", "install zsh"}}, nil)

	_, err := f.dispatcher().Uninstall(newRunContext(), []string{"fish"})
	assert.ErrorIs(t, err, component.ErrUnknownComponent)
}

func TestDispatcher_Inspect(t *testing.T) {
	f := newFixture(t, [][2]string{{"base", "apt"}, {"zsh", "install zsh"}, {"zsh", "oh-my-zsh"}, {"node", "nvm"}}, nil)
	f.steps["apt"].Installed()
	f.steps["install zsh"].Installed()

	states := f.dispatcher().Inspect(newRunContext())
	require.Len(t, states, 3)

	assert.True(t, states[0].Installed())
	assert.True(t, states[1].Partial())
	assert.False(t, states[1].Installed())
	assert.False(t, states[2].Installed())
	assert.False(t, states[2].Partial())
	for _, step := range f.steps {
		assert.Equal(t, 0, step.ApplyCount())
	}
}

func TestDispatcher_LogsOneLinePerStep(t *testing.T) {
	f := newFixture(t, [][2]string{{"base", "apt"}, {"zsh", "install zsh"}}, map[string][]string{"zsh": {"base"}})
	f.steps["install zsh"].FailWith(errors.New("network unreachable"))

	var buf bytes.Buffer
	logger := logging.NewFileLogger(&buf)
	rc := component.NewRunContext(context.Background(), logger)

	_, err := f.dispatcher().Install(rc, []string{"zsh"})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "base: apt applied")
	assert.Contains(t, out, "zsh: install zsh failed")
	assert.Contains(t, out, "network unreachable")
	assert.Equal(t, 2, bytes.Count(buf.Bytes(), []byte("\n")))
}

func TestSummary_Empty(t *testing.T) {
	s := &Summary{}
	assert.Equal(t, StatusSkipped, s.ComponentStatus("none"))
	assert.Empty(t, s.Components())
	assert.False(t, s.HasFailures())
}

// Package app provides the main application logic for wslkit.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/wslkit/internal/catalog"
	"github.com/felixgeelhaar/wslkit/internal/domain/backup"
	"github.com/felixgeelhaar/wslkit/internal/domain/component"
	"github.com/felixgeelhaar/wslkit/internal/domain/config"
	"github.com/felixgeelhaar/wslkit/internal/domain/emitter"
	"github.com/felixgeelhaar/wslkit/internal/domain/execution"
	"github.com/felixgeelhaar/wslkit/internal/domain/platform"
	"github.com/felixgeelhaar/wslkit/internal/domain/precheck"
	"github.com/felixgeelhaar/wslkit/internal/domain/probe"
	"github.com/felixgeelhaar/wslkit/internal/ports"
	"github.com/felixgeelhaar/wslkit/internal/provider/aws"
	"github.com/felixgeelhaar/wslkit/internal/tui"
	"github.com/felixgeelhaar/wslkit/internal/tui/ui"
)

// App is the main application orchestrator.
type App struct {
	cfg        *config.Config
	deps       Deps
	out        io.Writer
	runID      string
	logger     ports.Logger
	registry   *component.Registry
	dispatcher *execution.Dispatcher
	checker    *precheck.Checker
	backups    *backup.Manager
	report     tui.Report
	prompt     *aws.Prompt
}

// New wires an App over deps. Every App is one run with its own run ID.
func New(out io.Writer, cfg *config.Config, deps Deps) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("app: config is required")
	}
	if deps.Finder == nil {
		if f, ok := deps.Runner.(ports.PathFinder); ok {
			deps.Finder = f
		}
	}
	if deps.Runner == nil || deps.Finder == nil || deps.FS == nil || deps.Downloader == nil || deps.Logger == nil {
		return nil, fmt.Errorf("app: runner, finder, filesystem, downloader and logger are required")
	}
	if deps.Detector == nil {
		deps.Detector = platform.NewDetector(deps.FS)
	}
	if deps.Menu == nil {
		deps.Menu = tui.RunMenu
	}
	styles := ui.DefaultStyles()
	if deps.Styles != nil {
		styles = *deps.Styles
	}

	runID := uuid.NewString()
	logger := deps.Logger.With(ports.F("run_id", runID))

	backups := backup.NewManager(deps.FS)
	registry, err := catalog.Build(catalog.Env{
		Config:     cfg,
		Home:       deps.Home,
		User:       deps.User,
		Arch:       deps.Arch,
		Runner:     deps.Runner,
		Finder:     deps.Finder,
		FS:         deps.FS,
		Downloader: deps.Downloader,
		Prober:     probe.New(deps.Finder, deps.Runner, deps.FS, probe.WithTimeout(cfg.Probe.Timeout.Std())),
		Emitter:    emitter.New(deps.FS, backups),
		Backups:    backups,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build component catalog: %w", err)
	}

	runner := execution.NewRunner().WithRetry(execution.RetryPolicy{
		Attempts: cfg.Retry.Attempts,
		Backoff:  cfg.Retry.Backoff.Std(),
	})
	if deps.Sleep != nil {
		runner = runner.WithSleep(deps.Sleep)
	}

	checker := precheck.New(deps.Detector, deps.Finder, deps.Runner, logger).WithUID(deps.UID)
	if deps.Getenv != nil {
		checker = checker.WithGetenv(deps.Getenv)
	}

	prompt := aws.NewPlainPrompt()
	if deps.PromptColor {
		prompt = aws.NewPrompt(out, true)
	}

	return &App{
		cfg:        cfg,
		deps:       deps,
		out:        out,
		runID:      runID,
		logger:     logger,
		registry:   registry,
		dispatcher: execution.NewDispatcher(registry, runner),
		checker:    checker,
		backups:    backups,
		report:     tui.NewReport(styles),
		prompt:     prompt,
	}, nil
}

// RunID returns the identifier attached to every event of this run.
func (a *App) RunID() string {
	return a.runID
}

// Registry returns the component table.
func (a *App) Registry() *component.Registry {
	return a.registry
}

// Install runs the named components and their dependencies without the
// menu. Step failures are reported in the summary, not as an error.
func (a *App) Install(ctx context.Context, keys []string, dryRun bool) (*execution.Summary, error) {
	dryRun = dryRun || a.cfg.DryRun
	if len(keys) == 0 {
		return nil, config.NewUserError(config.ErrCodeUnknownComponent, "no components given").
			WithSuggestion("Name components such as 'zsh node', or run wslkit without arguments for the menu.")
	}
	if _, err := a.registry.Resolve(keys); err != nil {
		return nil, resolveError(err)
	}
	if err := a.precheck(ctx, dryRun); err != nil {
		return nil, err
	}
	return a.install(ctx, keys, dryRun)
}

// Uninstall reverts the named components in reverse order. Components
// that depend on them are left in place.
func (a *App) Uninstall(ctx context.Context, keys []string, dryRun bool) (*execution.Summary, error) {
	dryRun = dryRun || a.cfg.DryRun
	if len(keys) == 0 {
		return nil, config.NewUserError(config.ErrCodeUnknownComponent, "no components given").
			WithSuggestion("Name the components to remove, for example 'wslkit uninstall aws'.")
	}
	if _, err := a.registry.Canonical(keys); err != nil {
		return nil, resolveError(err)
	}
	if err := a.precheck(ctx, dryRun); err != nil {
		return nil, err
	}

	rc := a.runContext(ctx, dryRun)
	a.warnDependents(rc, keys)

	a.logger.Info(ctx, "uninstall started", ports.F("components", strings.Join(keys, ",")), ports.F("dry_run", dryRun))
	summary, err := a.dispatcher.Uninstall(rc, keys)
	if err != nil {
		return nil, resolveError(err)
	}
	a.finish(ctx, summary)
	return summary, nil
}

// Interactive opens the selection menu, restricted to group unless group
// is empty, and installs the confirmed selection. Quitting the menu
// returns a nil summary.
func (a *App) Interactive(ctx context.Context, group string, dryRun bool) (*execution.Summary, error) {
	dryRun = dryRun || a.cfg.DryRun
	if err := a.precheck(ctx, dryRun); err != nil {
		return nil, err
	}

	session, err := execution.NewSession()
	if err != nil {
		return nil, err
	}
	defer session.Stop()

	rc := a.runContext(ctx, dryRun)
	states := a.dispatcher.Inspect(rc)
	if group != "" {
		filtered := states[:0]
		for _, st := range states {
			if st.Spec.Group == group {
				filtered = append(filtered, st)
			}
		}
		states = filtered
	}

	title := "wslkit: select components"
	if group != "" {
		title = fmt.Sprintf("wslkit: select %s components", group)
	}
	result, err := a.deps.Menu(ctx, tui.MenuOptions{Title: title, Items: tui.ItemsFromStates(states)})
	if err != nil {
		return nil, err
	}
	if result.Quit {
		if err := session.Quit(); err != nil {
			return nil, err
		}
		a.logger.Info(ctx, "menu closed without installing")
		return nil, nil
	}

	if err := session.Confirm(result.Selection); err != nil {
		return nil, err
	}
	summary, err := a.install(ctx, session.Selection(), dryRun)
	if err != nil {
		return nil, err
	}
	if err := session.Finish(summary); err != nil {
		return nil, err
	}
	return session.Summary(), nil
}

// List prints the probed state of every component.
func (a *App) List(ctx context.Context) []execution.ComponentState {
	states := a.dispatcher.Inspect(a.runContext(ctx, true))
	a.printf("%s", a.report.Status(states))
	return states
}

// AWSProfiles prints the profiles of the AWS config file. With names set
// only profile names are printed, one per line, for shell helpers.
func (a *App) AWSProfiles(names bool) error {
	profiles, err := a.loadProfiles()
	if err != nil {
		return err
	}

	if names {
		for _, name := range aws.Names(profiles) {
			a.printf("%s\n", name)
		}
		return nil
	}

	if len(profiles) == 0 {
		a.printf("No profiles in %s\n", a.cfg.AWS.ConfigFile)
		return nil
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "PROFILE\tROLE\tREGION\tAUTH")
	for _, p := range profiles {
		auth := "keys"
		switch {
		case p.SSO():
			auth = "sso"
		case p.RoleArn != "":
			auth = "assume-role"
		}
		region := p.Region
		if region == "" {
			region = "-"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.Name, p.Role, region, auth)
	}
	return w.Flush()
}

// AWSPrompt prints the prompt segment for profile, falling back to
// AWS_PROFILE. Nothing is printed when neither is set. With zsh the
// segment uses zsh prompt escapes instead of ANSI sequences.
func (a *App) AWSPrompt(profile string, zsh bool) error {
	if profile == "" && a.deps.Getenv != nil {
		profile = a.deps.Getenv("AWS_PROFILE")
	}
	if profile == "" {
		return nil
	}

	classifier, err := aws.NewClassifier(a.cfg.AWS.Roles)
	if err != nil {
		return config.NewUserError(config.ErrCodeValidationFailed, "invalid AWS role pattern").WithUnderlying(err)
	}
	role := classifier.Classify(profile)
	if zsh {
		a.printf("%s", aws.ZshSegment(profile, role))
		return nil
	}
	a.printf("%s", a.prompt.Segment(profile, role))
	return nil
}

// Backups prints the backups kept for path, newest first.
func (a *App) Backups(path string) ([]backup.Record, error) {
	path = ports.ExpandPath(path)
	records, err := a.backups.List(path)
	if err != nil {
		return nil, fmt.Errorf("failed to list backups of %s: %w", path, err)
	}
	if len(records) == 0 {
		a.printf("No backups of %s\n", path)
		return records, nil
	}
	for _, rec := range records {
		a.printf("%s  %s\n", rec.CreatedAt.Format(time.DateTime), rec.Path)
	}
	return records, nil
}

func (a *App) install(ctx context.Context, keys []string, dryRun bool) (*execution.Summary, error) {
	a.logger.Info(ctx, "install started", ports.F("components", strings.Join(keys, ",")), ports.F("dry_run", dryRun))
	summary, err := a.dispatcher.Install(a.runContext(ctx, dryRun), keys)
	if err != nil {
		return nil, resolveError(err)
	}
	a.finish(ctx, summary)
	return summary, nil
}

func (a *App) finish(ctx context.Context, summary *execution.Summary) {
	fields := []ports.Field{
		ports.F("applied", summary.Applied()+summary.Count(execution.StatusReverted)),
		ports.F("satisfied", summary.AlreadySatisfied()),
		ports.F("failed", summary.Failed()),
		ports.F("skipped", summary.Skipped()),
		ports.F("duration", summary.Duration().Round(time.Millisecond).String()),
	}
	switch {
	case summary.Interrupted:
		a.logger.Warn(ctx, "run interrupted", fields...)
	case summary.HasFailures():
		a.logger.Warn(ctx, "run finished with failures", fields...)
	default:
		a.logger.Success(ctx, "run finished", fields...)
	}

	a.printf("\n%s", a.report.Summary(summary))
}

// precheck verifies the host. Real runs ask for the sudo password first,
// while the terminal is still ours: steps run in their own process groups
// and cannot prompt, and the apt lock check needs root to see holders.
func (a *App) precheck(ctx context.Context, dryRun bool) error {
	opts := precheck.Options{DryRun: dryRun}
	if a.deps.Authenticate != nil {
		opts.Elevate = a.authenticate
	}
	return a.checker.Run(ctx, opts)
}

func (a *App) authenticate(ctx context.Context) error {
	if err := a.deps.Authenticate(ctx); err != nil {
		return config.NewUserError(config.ErrCodeSudoFailed, "sudo authentication failed").
			WithSuggestion("wslkit needs sudo for package installs; check that your user is in the sudo group.").
			WithUnderlying(err)
	}
	return nil
}

// warnDependents logs installed components that rely on a component
// being removed.
func (a *App) warnDependents(rc component.RunContext, keys []string) {
	removing := make(map[string]bool, len(keys))
	for _, k := range keys {
		removing[k] = true
	}
	for _, k := range keys {
		for _, dep := range a.registry.Dependents(k) {
			if !removing[dep] {
				a.logger.Warn(rc.Context(), fmt.Sprintf("%s depends on %s and is kept", dep, k),
					ports.F("component", dep), ports.F("dependency", k))
			}
		}
	}
}

func (a *App) loadProfiles() ([]aws.Profile, error) {
	classifier, err := aws.NewClassifier(a.cfg.AWS.Roles)
	if err != nil {
		return nil, config.NewUserError(config.ErrCodeValidationFailed, "invalid AWS role pattern").WithUnderlying(err)
	}
	profiles, err := aws.LoadProfiles(a.deps.FS, a.cfg.AWS.ConfigFile, classifier)
	if errors.Is(err, aws.ErrConfigNotFound) {
		return nil, config.NewUserError(config.ErrCodeConfigNotFound, "AWS config file not found").
			WithContext(a.cfg.AWS.ConfigFile).
			WithSuggestion("Install the aws component and run 'aws configure' or 'aws configure sso'.").
			WithUnderlying(err)
	}
	return profiles, err
}

func (a *App) runContext(ctx context.Context, dryRun bool) component.RunContext {
	return component.NewRunContext(ctx, a.logger).
		WithRunID(a.runID).
		WithDryRun(dryRun)
}

func (a *App) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(a.out, format, args...)
}

// resolveError turns selection problems into user errors.
func resolveError(err error) error {
	switch {
	case errors.Is(err, component.ErrUnknownComponent):
		return config.NewUserError(config.ErrCodeUnknownComponent, err.Error()).
			WithSuggestion("Run 'wslkit list' to see the available components.").
			WithUnderlying(err)
	case errors.Is(err, component.ErrMissingDep), errors.Is(err, component.ErrCyclicDependency):
		return config.NewUserError(config.ErrCodeDependency, err.Error()).WithUnderlying(err)
	}
	return err
}

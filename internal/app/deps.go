package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/user"
	"runtime"
	"time"

	"github.com/felixgeelhaar/wslkit/internal/adapters/command"
	"github.com/felixgeelhaar/wslkit/internal/adapters/download"
	"github.com/felixgeelhaar/wslkit/internal/adapters/filesystem"
	"github.com/felixgeelhaar/wslkit/internal/adapters/logging"
	"github.com/felixgeelhaar/wslkit/internal/domain/config"
	"github.com/felixgeelhaar/wslkit/internal/domain/platform"
	"github.com/felixgeelhaar/wslkit/internal/ports"
	"github.com/felixgeelhaar/wslkit/internal/tui"
	"github.com/felixgeelhaar/wslkit/internal/tui/ui"
)

// DownloadTimeout bounds one installer download.
const DownloadTimeout = 2 * time.Minute

// MenuFunc runs the selection menu.
type MenuFunc func(ctx context.Context, opts tui.MenuOptions) (*tui.MenuResult, error)

// Deps are the adapters and host facts an App runs against.
type Deps struct {
	Runner     ports.CommandRunner
	Finder     ports.PathFinder
	FS         ports.FileSystem
	Downloader ports.Downloader
	Logger     ports.Logger
	Detector   *platform.Detector

	Home string
	User string
	Arch string
	UID  int

	Getenv func(string) string
	Menu   MenuFunc
	Styles *ui.Styles

	// PromptColor forces colors in the AWS prompt segment, which is
	// printed inside command substitution where no terminal is attached.
	PromptColor bool

	// Sleep replaces the wait between retries.
	Sleep func(context.Context, time.Duration) error

	// Authenticate primes sudo credentials on the terminal before steps
	// run. Nil skips it.
	Authenticate func(context.Context) error
}

// RealDeps returns the adapters for the running host. Console output goes
// to console; the durable log is opened at cfg.LogFile. The returned close
// function flushes and closes the log file.
func RealDeps(cfg *config.Config, console io.Writer, level ports.Level) (Deps, func() error, error) {
	runner := command.NewRealRunner()
	fs := filesystem.NewRealFileSystem()

	hidden := []string{"run_id"}
	if level > ports.LevelDebug {
		hidden = append(hidden, "component", "step", "status")
	}
	consoleLogger := logging.NewConsoleLogger(
		logging.WithOutput(console),
		logging.WithLevel(level),
		logging.WithHiddenFields(hidden...),
	)

	var logger ports.Logger = consoleLogger
	closeFn := func() error { return nil }
	if fileLogger, err := logging.OpenFileLogger(cfg.LogFile); err != nil {
		consoleLogger.Warn(context.Background(), "log file unavailable, logging to console only",
			ports.F("path", cfg.LogFile), ports.F("error", err.Error()))
	} else {
		logger = logging.NewMultiLogger(consoleLogger, fileLogger)
		closeFn = fileLogger.Close
	}

	home, err := os.UserHomeDir()
	if err != nil {
		_ = closeFn()
		return Deps{}, nil, fmt.Errorf("failed to resolve home directory: %w", err)
	}
	current, err := user.Current()
	if err != nil {
		_ = closeFn()
		return Deps{}, nil, fmt.Errorf("failed to resolve current user: %w", err)
	}

	return Deps{
		Runner:       runner,
		Finder:       runner,
		FS:           fs,
		Downloader:   download.NewHTTPDownloader(DownloadTimeout),
		Logger:       logger,
		Detector:     platform.NewDetector(fs),
		Home:         home,
		User:         current.Username,
		Arch:         runtime.GOARCH,
		UID:          os.Geteuid(),
		Getenv:       os.Getenv,
		Menu:         tui.RunMenu,
		PromptColor:  true,
		Authenticate: runner.Authenticate,
	}, closeFn, nil
}

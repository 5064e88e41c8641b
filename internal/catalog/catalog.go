// Package catalog declares the wslkit components: what each one installs,
// how it is probed and what it depends on. Definition order is the menu
// order and the tie-break for dispatch.
package catalog

import (
	"fmt"
	"path/filepath"
	"regexp"

	"github.com/felixgeelhaar/wslkit/internal/domain/backup"
	"github.com/felixgeelhaar/wslkit/internal/domain/component"
	"github.com/felixgeelhaar/wslkit/internal/domain/config"
	"github.com/felixgeelhaar/wslkit/internal/domain/emitter"
	"github.com/felixgeelhaar/wslkit/internal/domain/probe"
	"github.com/felixgeelhaar/wslkit/internal/ports"
	"github.com/felixgeelhaar/wslkit/internal/provider/apt"
	"github.com/felixgeelhaar/wslkit/internal/provider/commandutil"
	"github.com/felixgeelhaar/wslkit/internal/provider/files"
	"github.com/felixgeelhaar/wslkit/internal/provider/git"
	"github.com/felixgeelhaar/wslkit/internal/provider/npm"
	"github.com/felixgeelhaar/wslkit/internal/provider/pip"
	"github.com/felixgeelhaar/wslkit/internal/provider/script"
	"github.com/felixgeelhaar/wslkit/internal/provider/shell"
	"github.com/felixgeelhaar/wslkit/internal/templates"
)

// Component keys in definition order.
const (
	KeyBase        = "base"
	KeyZsh         = "zsh"
	KeyZshTheme    = "zsh-theme"
	KeyShellConfig = "shell-config"
	KeyDevUtils    = "dev-utils"
	KeyAWS         = "aws"
	KeyContainers  = "containers"
	KeyNode        = "node"
	KeyPython      = "python"
	KeyAISDKs      = "ai-sdks"
	KeyMCPServers  = "mcp-servers"
)

// Keys lists every component key in definition order.
var Keys = []string{
	KeyBase, KeyZsh, KeyZshTheme, KeyShellConfig, KeyDevUtils, KeyAWS,
	KeyContainers, KeyNode, KeyPython, KeyAISDKs, KeyMCPServers,
}

// Installer sources.
const (
	OhMyZshInstallURL = "https://raw.githubusercontent.com/ohmyzsh/ohmyzsh/master/tools/install.sh"
	PowerlevelRepo    = "https://github.com/romkatv/powerlevel10k.git"
	DockerInstallURL  = "https://get.docker.com"
	KubectlVersion    = "v1.31.4"
)

// Markers of the managed rc blocks.
const (
	MarkerTheme = "theme"
	MarkerShell = "shell"
	MarkerNVM   = "nvm"
)

// BasePackages are installed by the base component before any extras.
var BasePackages = []string{
	"build-essential",
	"ca-certificates",
	"curl",
	"git",
	"psmisc",
	"unzip",
	"wget",
}

// DevUtilPackages are installed by the dev-utils component.
var DevUtilPackages = []string{"bat", "fd-find", "fzf", "htop", "jq", "ripgrep", "tmux", "tree"}

// PythonPackages are installed by the python component.
var PythonPackages = []string{"python3", "python3-pip", "python3-venv"}

// ZshPlugins are cloned into the oh-my-zsh custom directory.
var ZshPlugins = map[string]string{
	"zsh-autosuggestions":     "https://github.com/zsh-users/zsh-autosuggestions.git",
	"zsh-syntax-highlighting": "https://github.com/zsh-users/zsh-syntax-highlighting.git",
}

// pluginOrder fixes the source order of ZshPlugins. Highlighting must load last.
var pluginOrder = []string{"zsh-autosuggestions", "zsh-syntax-highlighting"}

// Env is everything the component steps need from the host.
type Env struct {
	Config     *config.Config
	Home       string
	User       string
	Arch       string // GOARCH of the host
	Runner     ports.CommandRunner
	Finder     ports.PathFinder
	FS         ports.FileSystem
	Downloader ports.Downloader
	Prober     script.Prober
	Emitter    *emitter.Emitter
	Backups    *backup.Manager
}

// Build returns the component table. Every call creates fresh steps, so
// per-run state such as the apt update marker is not shared.
func Build(env Env) (*component.Registry, error) {
	if env.Config == nil {
		return nil, fmt.Errorf("catalog: config is required")
	}
	b := &builder{env: env, updater: apt.NewUpdater(env.Runner)}

	constructors := []func() (*component.Spec, error){
		b.base,
		b.zsh,
		b.zshTheme,
		b.shellConfig,
		b.devUtils,
		b.aws,
		b.containers,
		b.node,
		b.python,
		b.aiSDKs,
		b.mcpServers,
	}

	registry := component.NewRegistry()
	for _, build := range constructors {
		spec, err := build()
		if err != nil {
			return nil, err
		}
		if err := registry.Add(spec); err != nil {
			return nil, err
		}
	}
	if err := registry.Validate(); err != nil {
		return nil, err
	}
	return registry, nil
}

type builder struct {
	env     Env
	updater *apt.Updater
}

func (b *builder) home(parts ...string) string {
	return filepath.Join(append([]string{b.env.Home}, parts...)...)
}

func (b *builder) zshrc() string { return b.home(".zshrc") }

func (b *builder) ohMyZsh() string { return b.home(".oh-my-zsh") }

func (b *builder) zshCustom() string { return filepath.Join(b.ohMyZsh(), "custom") }

func (b *builder) nvmDir() string { return b.home(".nvm") }

func (b *builder) aptStep(packages ...string) component.Step {
	return apt.NewPackageStep(b.env.Runner, b.updater, packages...)
}

func (b *builder) base() (*component.Spec, error) {
	packages := append([]string(nil), BasePackages...)
	packages = append(packages, b.env.Config.Apt.ExtraPackages...)
	return &component.Spec{
		Key:         KeyBase,
		Description: "Core build tools: git, curl, unzip and build-essential",
		Group:       component.GroupCore,
		Steps:       []component.Step{b.aptStep(packages...)},
	}, nil
}

func (b *builder) zsh() (*component.Spec, error) {
	installer := script.NewRemoteStep("install oh-my-zsh", OhMyZshInstallURL,
		probe.Criterion{Path: filepath.Join(b.ohMyZsh(), "oh-my-zsh.sh")},
		b.env.Prober, b.env.Downloader, b.env.Runner,
		script.WithShell("sh"),
		script.WithArgs("--unattended", "--keep-zshrc"),
		script.WithEnv("RUNZSH=no", "CHSH=no", "ZSH="+b.ohMyZsh()),
	)
	return &component.Spec{
		Key:         KeyZsh,
		Description: "Zsh with oh-my-zsh as the login shell",
		Group:       component.GroupCore,
		DependsOn:   []string{KeyBase},
		Steps: []component.Step{
			b.aptStep("zsh"),
			script.Removable(installer, b.env.FS, b.ohMyZsh()),
			shell.NewLoginShellStep("zsh", b.env.User, b.env.Finder, b.env.Runner),
		},
	}, nil
}

func (b *builder) zshTheme() (*component.Spec, error) {
	themeDir := filepath.Join(b.zshCustom(), "themes", "powerlevel10k")
	block, err := templates.ThemeBlock(templates.ThemeData{ThemeDir: themeDir})
	if err != nil {
		return nil, fmt.Errorf("catalog: theme block: %w", err)
	}
	return &component.Spec{
		Key:         KeyZshTheme,
		Description: "Powerlevel10k prompt theme",
		Group:       component.GroupCore,
		DependsOn:   []string{KeyZsh},
		Steps: []component.Step{
			git.NewCloneStep(PowerlevelRepo, themeDir, b.env.Runner, b.env.FS),
			shell.NewBlockStep(b.zshrc(), MarkerTheme, block, b.env.Emitter),
		},
	}, nil
}

func (b *builder) shellConfig() (*component.Spec, error) {
	aliasFile := b.env.Config.AliasFile()
	aliases, err := templates.Aliases(templates.AliasData{AWSConfigFile: b.env.Config.AWS.ConfigFile})
	if err != nil {
		return nil, fmt.Errorf("catalog: aliases: %w", err)
	}
	block, err := templates.ShellBlock(templates.ShellData{
		ZSHCustom: b.zshCustom(),
		AliasFile: aliasFile,
		Plugins:   pluginOrder,
	})
	if err != nil {
		return nil, fmt.Errorf("catalog: shell block: %w", err)
	}

	steps := make([]component.Step, 0, len(pluginOrder)+2)
	for _, name := range pluginOrder {
		dest := filepath.Join(b.zshCustom(), "plugins", name)
		steps = append(steps, git.NewCloneStep(ZshPlugins[name], dest, b.env.Runner, b.env.FS))
	}
	steps = append(steps,
		files.NewConfigStep("write aliases.sh", aliasFile, files.Static([]byte(aliases)), b.env.Emitter, b.env.Backups, b.env.FS),
		shell.NewBlockStep(b.zshrc(), MarkerShell, block, b.env.Emitter),
	)

	return &component.Spec{
		Key:         KeyShellConfig,
		Description: "Zsh plugins, aliases and the AWS profile switcher",
		Group:       component.GroupCore,
		DependsOn:   []string{KeyZshTheme},
		Steps:       steps,
	}, nil
}

func (b *builder) devUtils() (*component.Spec, error) {
	return &component.Spec{
		Key:         KeyDevUtils,
		Description: "Command line utilities: jq, ripgrep, fzf, bat, tmux",
		Group:       component.GroupCore,
		DependsOn:   []string{KeyBase},
		Steps:       []component.Step{b.aptStep(DevUtilPackages...)},
	}, nil
}

func (b *builder) aws() (*component.Spec, error) {
	arch := "x86_64"
	if b.env.Arch == "arm64" {
		arch = "aarch64"
	}
	const (
		archive = "/tmp/wslkit-awscliv2.zip"
		workdir = "/tmp/wslkit-awscli"
	)
	install := script.NewCommandStep("install aws cli",
		probe.Criterion{Executable: "aws", Pattern: regexp.MustCompile(`aws-cli/2\.`)},
		b.env.Prober, b.env.Runner,
		script.Cmd("curl", "-fsSL", "-o", archive, fmt.Sprintf("https://awscli.amazonaws.com/awscli-exe-linux-%s.zip", arch)),
		script.Cmd("unzip", "-q", "-o", archive, "-d", workdir),
		script.Cmd("sudo", workdir+"/aws/install", "--update"),
		script.Cmd("rm", "-rf", archive, workdir),
	)
	return &component.Spec{
		Key:         KeyAWS,
		Description: "AWS CLI v2",
		Group:       component.GroupCore,
		DependsOn:   []string{KeyBase},
		Steps: []component.Step{
			script.Removable(install, b.env.FS).WithCleanup(b.env.Runner,
				script.Cmd("sudo", "rm", "-rf", "/usr/local/aws-cli", "/usr/local/bin/aws", "/usr/local/bin/aws_completer"),
			),
		},
	}, nil
}

func (b *builder) containers() (*component.Spec, error) {
	arch := "amd64"
	if b.env.Arch != "" {
		arch = b.env.Arch
	}
	docker := script.NewRemoteStep("install docker", DockerInstallURL,
		probe.Criterion{Executable: "docker"},
		b.env.Prober, b.env.Downloader, b.env.Runner,
	)
	kubectl := script.NewCommandStep("install kubectl "+KubectlVersion,
		probe.Criterion{Executable: "kubectl", VersionArgs: []string{"version", "--client"}},
		b.env.Prober, b.env.Runner,
		script.Cmd("curl", "-fsSL", "-o", "/tmp/wslkit-kubectl",
			fmt.Sprintf("https://dl.k8s.io/release/%s/bin/linux/%s/kubectl", KubectlVersion, arch)),
		script.Cmd("sudo", "install", "-m", "0755", "/tmp/wslkit-kubectl", "/usr/local/bin/kubectl"),
		script.Cmd("rm", "-f", "/tmp/wslkit-kubectl"),
	)
	return &component.Spec{
		Key:         KeyContainers,
		Description: "Docker engine and kubectl",
		Group:       component.GroupCore,
		DependsOn:   []string{KeyBase},
		Steps: []component.Step{
			docker,
			shell.NewGroupStep("docker", b.env.User, b.env.Runner),
			script.Removable(kubectl, b.env.FS).WithCleanup(b.env.Runner,
				script.Cmd("sudo", "rm", "-f", "/usr/local/bin/kubectl"),
			),
		},
	}, nil
}

func (b *builder) node() (*component.Spec, error) {
	nvmVersion := b.env.Config.Node.NVMVersion
	nodeVersion := b.env.Config.Node.Version
	nvmScript := filepath.Join(b.nvmDir(), "nvm.sh")

	block, err := templates.NVMBlock(templates.NVMData{NVMDir: b.nvmDir()})
	if err != nil {
		return nil, fmt.Errorf("catalog: nvm block: %w", err)
	}

	nvm := script.NewRemoteStep("install nvm "+nvmVersion,
		fmt.Sprintf("https://raw.githubusercontent.com/nvm-sh/nvm/%s/install.sh", nvmVersion),
		probe.Criterion{Path: nvmScript},
		b.env.Prober, b.env.Downloader, b.env.Runner,
		script.WithShell("bash"),
		// PROFILE=/dev/null keeps the installer out of the rc files; the
		// nvm block below owns that.
		script.WithEnv("PROFILE=/dev/null", "NVM_DIR="+b.nvmDir()),
	)
	nodeStep := script.NewCommandStep("install node "+nodeVersion,
		probe.Criterion{Path: filepath.Join(b.nvmDir(), "alias", "default")},
		b.env.Prober, b.env.Runner,
		script.Cmd("bash", "-c", fmt.Sprintf(". %s && nvm install %s && nvm alias default %s",
			commandutil.ShellQuote(nvmScript), commandutil.ShellQuote(nodeVersion), commandutil.ShellQuote(nodeVersion))),
	)

	return &component.Spec{
		Key:         KeyNode,
		Description: "Node.js " + nodeVersion + " through nvm",
		Group:       component.GroupCore,
		DependsOn:   []string{KeyBase},
		Steps: []component.Step{
			script.Removable(nvm, b.env.FS, b.nvmDir()),
			shell.NewBlockStep(b.zshrc(), MarkerNVM, block, b.env.Emitter),
			nodeStep,
		},
	}, nil
}

func (b *builder) python() (*component.Spec, error) {
	return &component.Spec{
		Key:         KeyPython,
		Description: "Python 3 with pip and venv",
		Group:       component.GroupCore,
		DependsOn:   []string{KeyBase},
		Steps:       []component.Step{b.aptStep(PythonPackages...)},
	}, nil
}

func (b *builder) aiSDKs() (*component.Spec, error) {
	steps := make([]component.Step, 0, len(b.env.Config.Python.AIPackages))
	for _, req := range b.env.Config.Python.AIPackages {
		steps = append(steps, pip.NewPackageStep(req, b.env.Runner, pip.WithBreakSystemPackagesFunc(b.externallyManaged)))
	}
	return &component.Spec{
		Key:         KeyAISDKs,
		Description: "Python AI and ML SDKs",
		Group:       component.GroupAI,
		DependsOn:   []string{KeyPython},
		Steps:       steps,
	}, nil
}

func (b *builder) mcpServers() (*component.Spec, error) {
	servers := b.env.Config.MCP.Servers
	steps := make([]component.Step, 0, len(servers)+1)
	for _, srv := range servers {
		if srv.Package == "" {
			continue
		}
		steps = append(steps, npm.NewGlobalPackageStep(srv.Package, b.env.Runner, npm.WithNVM(b.nvmDir())))
	}
	steps = append(steps, files.NewMCPConfigStep(b.env.Config.MCPFile(), servers, b.env.Emitter, b.env.Backups, b.env.FS))

	return &component.Spec{
		Key:         KeyMCPServers,
		Description: "MCP servers and their mcp.json definitions",
		Group:       component.GroupAI,
		DependsOn:   []string{KeyNode},
		Steps:       steps,
	}, nil
}

// externallyManaged reports whether the system interpreter carries the
// PEP 668 marker, in which case pip refuses user installs without
// --break-system-packages.
func (b *builder) externallyManaged() bool {
	matches, err := b.env.FS.Glob("/usr/lib/python3*/EXTERNALLY-MANAGED")
	return err == nil && len(matches) > 0
}

package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type validationCase struct {
	name    string
	input   string
	wantErr error
}

func runCases(t *testing.T, fn func(string) error, tests []validationCase) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := fn(tt.input)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidatePackageName(t *testing.T) {
	runCases(t, ValidatePackageName, []validationCase{
		{name: "simple", input: "git"},
		{name: "with hyphen", input: "build-essential"},
		{name: "with dot", input: "python3.12"},
		{name: "with plus", input: "g++"},
		{name: "empty", input: "", wantErr: ErrEmptyInput},
		{name: "semicolon", input: "git;rm -rf /", wantErr: ErrInvalidPackageName},
		{name: "space", input: "git curl", wantErr: ErrInvalidPackageName},
		{name: "option", input: "-y", wantErr: ErrInvalidPackageName},
		{name: "too long", input: strings.Repeat("a", 300), wantErr: ErrInvalidPackageName},
	})
}

func TestValidateNpmPackage(t *testing.T) {
	runCases(t, ValidateNpmPackage, []validationCase{
		{name: "unscoped", input: "typescript"},
		{name: "scoped", input: "@modelcontextprotocol/server-memory"},
		{name: "versioned", input: "pnpm@10.24.0"},
		{name: "empty", input: "", wantErr: ErrEmptyInput},
		{name: "substitution", input: "$(whoami)", wantErr: ErrCommandInjection},
		{name: "space", input: "left pad", wantErr: ErrInvalidNpmPackage},
	})
}

func TestValidatePipPackage(t *testing.T) {
	runCases(t, ValidatePipPackage, []validationCase{
		{name: "plain", input: "anthropic"},
		{name: "lower bound", input: "openai>=1.0"},
		{name: "pinned with extras", input: "langchain[all]==0.2.1"},
		{name: "upper bound", input: "numpy<2"},
		{name: "range", input: "numpy>=1.26,<2"},
		{name: "compatible release", input: "anthropic~=0.40"},
		{name: "exclusion", input: "torch!=2.1.0"},
		{name: "redirect", input: "numpy >/tmp/x", wantErr: ErrInvalidPipPackage},
		{name: "subshell", input: "numpy$(id)", wantErr: ErrCommandInjection},
		{name: "empty", input: "", wantErr: ErrEmptyInput},
		{name: "pipe", input: "requests|sh", wantErr: ErrCommandInjection},
		{name: "option", input: "--index-url", wantErr: ErrInvalidPipPackage},
	})
}

func TestValidateDownloadURL(t *testing.T) {
	runCases(t, ValidateDownloadURL, []validationCase{
		{name: "https", input: "https://raw.githubusercontent.com/nvm-sh/nvm/v0.40.1/install.sh"},
		{name: "empty", input: "", wantErr: ErrEmptyInput},
		{name: "plain http", input: "http://example.com/install.sh", wantErr: ErrInvalidURL},
		{name: "no host", input: "https:///install.sh", wantErr: ErrInvalidURL},
		{name: "credentials", input: "https://user:pw@example.com/x.sh", wantErr: ErrInvalidURL},
		{name: "relative", input: "install.sh", wantErr: ErrInvalidURL},
	})
}

func TestValidateGitRemoteURL(t *testing.T) {
	runCases(t, ValidateGitRemoteURL, []validationCase{
		{name: "https", input: "https://github.com/romkatv/powerlevel10k.git"},
		{name: "https without suffix", input: "https://github.com/ohmyzsh/ohmyzsh"},
		{name: "scp style", input: "git@github.com:zsh-users/zsh-autosuggestions.git"},
		{name: "empty", input: "", wantErr: ErrEmptyInput},
		{name: "injection", input: "https://github.com/a/b;rm", wantErr: ErrCommandInjection},
		{name: "file scheme", input: "file:///etc/passwd", wantErr: ErrInvalidGitURL},
	})
}

func TestValidatePath(t *testing.T) {
	runCases(t, ValidatePath, []validationCase{
		{name: "home relative", input: "~/.zshrc"},
		{name: "absolute", input: "/home/dev/.oh-my-zsh"},
		{name: "empty", input: "", wantErr: ErrEmptyInput},
		{name: "null byte", input: "/tmp/a\x00b", wantErr: ErrInvalidPath},
		{name: "traversal", input: "~/../../etc/shadow", wantErr: ErrPathTraversal},
		{name: "encoded traversal", input: "/tmp/%2E%2E/etc", wantErr: ErrPathTraversal},
	})
}

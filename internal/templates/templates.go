// Package templates renders the shell fragments wslkit writes: managed
// rc blocks and the sourceable aliases file.
package templates

import (
	"bytes"
	"text/template"
)

// ThemeData parameterizes the prompt theme block.
type ThemeData struct {
	// ThemeDir is the powerlevel10k clone.
	ThemeDir string
}

// ShellData parameterizes the plugin and alias block.
type ShellData struct {
	// ZSHCustom is the oh-my-zsh custom directory holding cloned plugins.
	ZSHCustom string
	// AliasFile is sourced at the end of the shell-config block.
	AliasFile string
	// Plugins are cloned plugin names, sourced in order.
	Plugins []string
}

// NVMData parameterizes the nvm loader block.
type NVMData struct {
	NVMDir string
}

// AliasData parameterizes aliases.sh.
type AliasData struct {
	// Binary is the wslkit executable used by the helpers.
	Binary string
	// AWSConfigFile is the fallback profile source when wslkit is absent.
	AWSConfigFile string
}

const themeTemplateStr = `[[ -r "{{.ThemeDir}}/powerlevel10k.zsh-theme" ]] && source "{{.ThemeDir}}/powerlevel10k.zsh-theme"
[[ -f ~/.p10k.zsh ]] && source ~/.p10k.zsh
`

const shellTemplateStr = `export ZSH_CUSTOM="{{.ZSHCustom}}"
{{- range .Plugins}}
[[ -r "$ZSH_CUSTOM/plugins/{{.}}/{{.}}.zsh" ]] && source "$ZSH_CUSTOM/plugins/{{.}}/{{.}}.zsh"
{{- end}}
export PATH="$HOME/.local/bin:$PATH"
[[ -r "{{.AliasFile}}" ]] && source "{{.AliasFile}}"
`

const nvmTemplateStr = `export NVM_DIR="{{.NVMDir}}"
[ -s "$NVM_DIR/nvm.sh" ] && \. "$NVM_DIR/nvm.sh"
[ -s "$NVM_DIR/bash_completion" ] && \. "$NVM_DIR/bash_completion"
`

const aliasTemplateStr = `# Generated by wslkit. Edits are replaced on the next run; earlier
# versions are kept as aliases.sh.bak.<timestamp>.

alias ll='ls -alF'
alias la='ls -A'
alias ..='cd ..'
alias gs='git status -sb'
alias gl='git log --oneline --graph --decorate -20'
alias k='kubectl'
alias d='docker'
alias dc='docker compose'
command -v batcat >/dev/null 2>&1 && alias bat='batcat'
command -v fdfind >/dev/null 2>&1 && alias fd='fdfind'

# awsp [profile] switches AWS_PROFILE, picking with fzf when no name is given.
awsp() {
  local profile="$1"
  if [ -z "$profile" ]; then
    local profiles
    if command -v {{.Binary}} >/dev/null 2>&1; then
      profiles=$({{.Binary}} aws profiles --names)
    else
      profiles=$(sed -n 's/^\[profile \(.*\)\]$/\1/p; s/^\[\(default\)\]$/\1/p' "${AWS_CONFIG_FILE:-{{.AWSConfigFile}}}")
    fi
    if [ -z "$profiles" ]; then
      echo "awsp: no AWS profiles found" >&2
      return 1
    fi
    if command -v fzf >/dev/null 2>&1; then
      profile=$(printf '%s\n' "$profiles" | fzf --height=40% --prompt='AWS profile> ')
    else
      printf '%s\n' "$profiles"
      printf 'profile: '
      read -r profile
    fi
  fi
  [ -n "$profile" ] || return 1
  export AWS_PROFILE="$profile"
  echo "AWS_PROFILE=$AWS_PROFILE"
}

# awsprompt prints the styled segment for the active profile. Extra
# arguments such as --zsh are passed through.
awsprompt() {
  [ -n "$AWS_PROFILE" ] && {{.Binary}} aws prompt "$@" "$AWS_PROFILE"
}

# Show the segment on the right of the zsh prompt: a custom segment under
# powerlevel10k, RPROMPT for other themes.
if [ -n "$ZSH_VERSION" ]; then
  if [[ -n "${POWERLEVEL9K_RIGHT_PROMPT_ELEMENTS}" ]]; then
    prompt_wslkit_aws() {
      [[ -n "$AWS_PROFILE" ]] || return
      p10k segment -e -t "$(awsprompt --zsh)"
    }
    if (( ! ${POWERLEVEL9K_RIGHT_PROMPT_ELEMENTS[(Ie)wslkit_aws]} )); then
      POWERLEVEL9K_RIGHT_PROMPT_ELEMENTS=(wslkit_aws $POWERLEVEL9K_RIGHT_PROMPT_ELEMENTS)
      (( ${+functions[p10k]} )) && p10k reload
    fi
  else
    setopt prompt_subst
    [[ "$RPROMPT" == *awsprompt* ]] || RPROMPT='$(awsprompt --zsh)'"$RPROMPT"
  fi
fi
`

var (
	themeTemplate = template.Must(template.New("theme").Parse(themeTemplateStr))
	shellTemplate = template.Must(template.New("shell").Parse(shellTemplateStr))
	nvmTemplate   = template.Must(template.New("nvm").Parse(nvmTemplateStr))
	aliasTemplate = template.Must(template.New("aliases").Parse(aliasTemplateStr))
)

// ThemeBlock renders the powerlevel10k rc block.
func ThemeBlock(data ThemeData) (string, error) {
	return execute(themeTemplate, data)
}

// ShellBlock renders the plugin and alias rc block.
func ShellBlock(data ShellData) (string, error) {
	return execute(shellTemplate, data)
}

// NVMBlock renders the nvm loader rc block.
func NVMBlock(data NVMData) (string, error) {
	return execute(nvmTemplate, data)
}

// Aliases renders aliases.sh.
func Aliases(data AliasData) (string, error) {
	if data.Binary == "" {
		data.Binary = "wslkit"
	}
	if data.AWSConfigFile == "" {
		data.AWSConfigFile = "$HOME/.aws/config"
	}
	return execute(aliasTemplate, data)
}

func execute(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

package shell

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/wslkit/internal/domain/component"
	"github.com/felixgeelhaar/wslkit/internal/ports"
	"github.com/felixgeelhaar/wslkit/internal/provider/commandutil"
)

// GroupStep keeps a user in a supplementary group, such as docker.
// Membership takes effect on the next login.
type GroupStep struct {
	group  string
	user   string
	runner ports.CommandRunner
}

// NewGroupStep creates a GroupStep.
func NewGroupStep(group, user string, runner ports.CommandRunner) *GroupStep {
	return &GroupStep{group: group, user: user, runner: runner}
}

// Name returns the step name.
func (s *GroupStep) Name() string {
	return "join group " + s.group
}

// Probe reports whether the user database lists the membership. The
// current session's groups are not consulted.
func (s *GroupStep) Probe(rc component.RunContext) bool {
	if s.user == "" {
		return false
	}
	result, err := s.runner.Run(rc.Context(), "id", "-nG", s.user)
	if err != nil || !result.Success() {
		return false
	}
	for _, g := range strings.Fields(result.Stdout) {
		if g == s.group {
			return true
		}
	}
	return false
}

// Apply adds the user to the group.
func (s *GroupStep) Apply(rc component.RunContext) error {
	if s.user == "" {
		return fmt.Errorf("cannot join group %s: user unknown", s.group)
	}
	result, err := s.runner.Run(rc.Context(), "sudo", "usermod", "-aG", s.group, s.user)
	return commandutil.Check("usermod -aG "+s.group, result, err)
}

// Revert removes the user from the group.
func (s *GroupStep) Revert(rc component.RunContext) error {
	if s.user == "" {
		return fmt.Errorf("cannot leave group %s: user unknown", s.group)
	}
	result, err := s.runner.Run(rc.Context(), "sudo", "gpasswd", "-d", s.user, s.group)
	return commandutil.Check("gpasswd -d "+s.group, result, err)
}

var _ component.RevertibleStep = (*GroupStep)(nil)

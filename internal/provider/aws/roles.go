package aws

import (
	"fmt"
	"regexp"

	"github.com/felixgeelhaar/wslkit/internal/domain/config"
)

// Role is the environment a profile points at.
type Role string

// Roles in precedence order.
const (
	RoleProd    Role = "prod"
	RoleStaging Role = "staging"
	RoleDev     Role = "dev"
	RoleUnknown Role = "unknown"
)

// String returns the role name.
func (r Role) String() string {
	return string(r)
}

// Classifier assigns roles to profile names. Prod patterns are checked
// first, then staging, then dev.
type Classifier struct {
	rules []rule
}

type rule struct {
	role     Role
	patterns []*regexp.Regexp
}

// NewClassifier compiles the configured patterns.
func NewClassifier(patterns config.RolePatterns) (*Classifier, error) {
	c := &Classifier{}
	groups := []struct {
		role     Role
		patterns []string
	}{
		{RoleProd, patterns.Prod},
		{RoleStaging, patterns.Staging},
		{RoleDev, patterns.Dev},
	}
	for _, g := range groups {
		r := rule{role: g.role}
		for _, p := range g.patterns {
			re, err := regexp.Compile(p)
			if err != nil {
				return nil, fmt.Errorf("invalid %s pattern %q: %w", g.role, p, err)
			}
			r.patterns = append(r.patterns, re)
		}
		c.rules = append(c.rules, r)
	}
	return c, nil
}

// Classify returns the first role with a pattern matching name.
func (c *Classifier) Classify(name string) Role {
	for _, r := range c.rules {
		for _, re := range r.patterns {
			if re.MatchString(name) {
				return r.role
			}
		}
	}
	return RoleUnknown
}

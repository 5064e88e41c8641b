// Package component defines selectable components, their installer steps,
// and dependency resolution over the component table.
package component

import (
	"errors"
	"regexp"
	"strings"
)

// Errors for component key validation.
var (
	ErrEmptyKey   = errors.New("component key cannot be empty")
	ErrInvalidKey = errors.New("component key format invalid: must be lowercase alphanumeric with hyphens")
)

var keyPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

// Group names used to section the menu.
const (
	GroupCore = "core"
	GroupAI   = "ai"
)

// Spec is a component the user can select.
type Spec struct {
	Key         string
	Description string
	Group       string
	Steps       []Step
	DependsOn   []string
}

// ValidateKey checks that key is a valid component key.
func ValidateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return ErrEmptyKey
	}
	if !keyPattern.MatchString(key) {
		return ErrInvalidKey
	}
	return nil
}

// Revertible reports whether at least one step of the component can be reverted.
func (s *Spec) Revertible() bool {
	for _, step := range s.Steps {
		if AsRevertible(step) != nil {
			return true
		}
	}
	return false
}

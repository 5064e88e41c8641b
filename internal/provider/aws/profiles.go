// Package aws reads AWS CLI profiles and classifies them by environment
// for the profile switcher and prompt segment.
package aws

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/felixgeelhaar/wslkit/internal/ports"
	"gopkg.in/ini.v1"
)

// DefaultProfile is the profile used when AWS_PROFILE is unset.
const DefaultProfile = "default"

// ErrConfigNotFound is returned when the AWS config file does not exist.
var ErrConfigNotFound = errors.New("aws config file not found")

// Profile is one section of ~/.aws/config.
type Profile struct {
	Name          string
	Region        string
	Output        string
	RoleArn       string
	SourceProfile string
	SSOStartURL   string
	SSOSession    string
	Role          Role
}

// SSO reports whether the profile signs in through IAM Identity Center.
func (p Profile) SSO() bool {
	return p.SSOStartURL != "" || p.SSOSession != ""
}

// LoadProfiles parses the AWS config file at path and classifies every
// profile with classifier. Profiles keep file order.
func LoadProfiles(fs ports.FileSystem, path string, classifier *Classifier) ([]Profile, error) {
	path = ports.ExpandPath(path)
	data, err := fs.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return ParseProfiles(data, classifier)
}

// ParseProfiles parses AWS config content. Sections that are not
// profiles, such as sso-session or services, are ignored.
func ParseProfiles(data []byte, classifier *Classifier) ([]Profile, error) {
	cfg, err := ini.LoadSources(ini.LoadOptions{SkipUnrecognizableLines: true}, data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse aws config: %w", err)
	}

	profiles := make([]Profile, 0)
	seen := make(map[string]bool)
	for _, section := range cfg.Sections() {
		name, ok := profileName(section.Name())
		if !ok || seen[name] {
			continue
		}
		seen[name] = true

		profile := Profile{
			Name:          name,
			Region:        section.Key("region").String(),
			Output:        section.Key("output").String(),
			RoleArn:       section.Key("role_arn").String(),
			SourceProfile: section.Key("source_profile").String(),
			SSOStartURL:   section.Key("sso_start_url").String(),
			SSOSession:    section.Key("sso_session").String(),
			Role:          RoleUnknown,
		}
		if classifier != nil {
			profile.Role = classifier.Classify(name)
		}
		profiles = append(profiles, profile)
	}
	return profiles, nil
}

// Names returns the profile names in order.
func Names(profiles []Profile) []string {
	names := make([]string, len(profiles))
	for i, p := range profiles {
		names[i] = p.Name
	}
	return names
}

// Find returns the profile called name.
func Find(profiles []Profile, name string) (Profile, bool) {
	for _, p := range profiles {
		if p.Name == name {
			return p, true
		}
	}
	return Profile{}, false
}

// profileName maps a section header to a profile name. The config file
// uses [default] and [profile name]; the ini DEFAULT section is empty.
func profileName(section string) (string, bool) {
	if section == DefaultProfile {
		return DefaultProfile, true
	}
	if rest, ok := strings.CutPrefix(section, "profile "); ok {
		rest = strings.TrimSpace(rest)
		return rest, rest != ""
	}
	return "", false
}
